package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/cjaisingh/awip-mission-control-sub000/internal/console/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type AgentHandler struct {
	service *service.AgentService
	logger  *zap.Logger
}

func NewAgentHandler(s *service.AgentService, logger *zap.Logger) *AgentHandler {
	return &AgentHandler{service: s, logger: logger.Named("agent-handler")}
}

type ChatRequest struct {
	Message string `json:"message"`
}

type ExtractRequest struct {
	Text string `json:"text"`
}

// Chat: POST /api/v1/agents/{agentID}/chat
func (h *AgentHandler) Chat(w http.ResponseWriter, r *http.Request) {
	agentID, err := strconv.Atoi(chi.URLParam(r, "agentID"))
	if err != nil {
		http.Error(w, "agentID must be an integer", http.StatusBadRequest)
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	reply, err := h.service.Chat(r.Context(), agentID, req.Message)
	switch {
	case errors.Is(err, service.ErrAgentNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, service.ErrEmptyInput):
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	case err != nil:
		h.logger.Error("chat failed", zap.Int("agent_id", agentID), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// Extract: POST /api/v1/extract
func (h *AgentHandler) Extract(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.service.ExtractTriples(r.Context(), req.Text)
	if errors.Is(err, service.ErrEmptyInput) {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

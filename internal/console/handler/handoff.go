package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/cjaisingh/awip-mission-control-sub000/internal/domain"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/engine"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/handoff"
	"github.com/go-chi/chi/v5"
)

type HandoffHandler struct {
	service *handoff.Service
}

func NewHandoffHandler(s *handoff.Service) *HandoffHandler {
	return &HandoffHandler{service: s}
}

func (h *HandoffHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.GetState)
		r.Patch("/", h.Update)
		r.Get("/prompt", h.GetPrompt) // ?full=true
		r.Post("/reports", h.SubmitReport)
	})
	return r
}

type stateResponse struct {
	State     *domain.ConversationState `json:"state"`
	Synthetic bool                      `json:"synthetic"`
}

type writeResponse struct {
	State     any    `json:"state"`
	Persisted bool   `json:"persisted"`
	Error     string `json:"error,omitempty"`
}

func outcome(v any, out engine.WriteOutcome) writeResponse {
	resp := writeResponse{State: v, Persisted: out.Persisted}
	if out.Err != nil {
		resp.Error = out.Err.Error()
	}
	return resp
}

func (h *HandoffHandler) GetState(w http.ResponseWriter, r *http.Request) {
	res := h.service.State(r.Context(), chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, stateResponse{State: res.Value, Synthetic: res.Synthetic})
}

func (h *HandoffHandler) GetPrompt(w http.ResponseWriter, r *http.Request) {
	full, _ := strconv.ParseBool(r.URL.Query().Get("full"))
	p := h.service.Prompt(r.Context(), chi.URLParam(r, "id"), full)

	if strings.Contains(r.Header.Get("Accept"), "text/plain") {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(p.Text))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Update применяет handoff.Patch. При неудачной записи отвечаем 202, состояние
// вернулось клиенту, но в backend не легло.
func (h *HandoffHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch handoff.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	st, out := h.service.Update(r.Context(), chi.URLParam(r, "id"), patch.Apply)
	status := http.StatusOK
	if !out.Persisted {
		status = http.StatusAccepted
	}
	writeJSON(w, status, outcome(st, out))
}

func (h *HandoffHandler) SubmitReport(w http.ResponseWriter, r *http.Request) {
	var report domain.StatusReport
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(report.Summary) == "" {
		http.Error(w, "summary is required", http.StatusBadRequest)
		return
	}
	report.ConversationID = chi.URLParam(r, "id")

	saved, out := h.service.SubmitReport(r.Context(), report)
	status := http.StatusCreated
	if !out.Persisted {
		status = http.StatusAccepted
	}
	writeJSON(w, status, outcome(saved, out))
}

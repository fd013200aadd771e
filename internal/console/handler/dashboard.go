package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cjaisingh/awip-mission-control-sub000/internal/console/service"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/domain"
)

type DashboardHandler struct {
	service *service.StateService
}

func NewDashboardHandler(s *service.StateService) *DashboardHandler {
	return &DashboardHandler{service: s}
}

// GetState: полный снапшот Store.
// GET /api/v1/state
func (h *DashboardHandler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Snapshot())
}

// GetStats: производные значения для главной страницы.
// GET /api/v1/dashboard/stats
func (h *DashboardHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Summary())
}

// ListAgents: агенты из Store с фильтром ?status=active
func (h *DashboardHandler) ListAgents(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Agents(r.URL.Query().Get("status"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *DashboardHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Snapshot().Alerts.Items)
}

type RaiseAlertRequest struct {
	Type    domain.AlertType `json:"type"`
	Message string           `json:"message"`
}

func (h *DashboardHandler) RaiseAlert(w http.ResponseWriter, r *http.Request) {
	var req RaiseAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Type == "" {
		req.Type = domain.AlertInfo
	}

	alert, err := h.service.RaiseAlert(req.Type, req.Message)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrInvalidPayload) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, http.StatusCreated, alert)
}

func (h *DashboardHandler) ClearAlerts(w http.ResponseWriter, r *http.Request) {
	h.service.ClearAlerts()
	w.WriteHeader(http.StatusNoContent)
}

// Reset возвращает Store к дефолтам.
// POST /api/v1/state/reset
func (h *DashboardHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.service.Reset()
	w.WriteHeader(http.StatusNoContent)
}

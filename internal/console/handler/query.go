package handler

import (
	"net/http"

	"github.com/cjaisingh/awip-mission-control-sub000/internal/console/service"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/domain"
	"github.com/go-chi/chi/v5"
)

// QueryHandler: прямые запросы к gateway. Ответ всегда 200, признак
// синтетики в поле synthetic.
type QueryHandler struct {
	service *service.StateService
}

func NewQueryHandler(s *service.StateService) *QueryHandler {
	return &QueryHandler{service: s}
}

func (h *QueryHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/agents", h.Agents)   // ?limit=50
	r.Get("/metrics", h.Metrics) // ?range=24h
	r.Get("/health", h.Health)
	r.Get("/alerts", h.Alerts) // ?limit=25
	r.Get("/breaker", h.Breaker)
	return r
}

func (h *QueryHandler) Agents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.QueryAgents(r.Context(), queryInt(r, "limit", 0)))
}

func (h *QueryHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	rng := domain.TimeRange(r.URL.Query().Get("range"))
	if rng == "" {
		rng = domain.Range24Hours
	}
	writeJSON(w, http.StatusOK, h.service.QueryMetrics(r.Context(), rng))
}

func (h *QueryHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.QueryHealth(r.Context()))
}

func (h *QueryHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.QueryAlerts(r.Context(), queryInt(r, "limit", 0)))
}

func (h *QueryHandler) Breaker(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"state": h.service.BreakerState()})
}

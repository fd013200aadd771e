package server

import (
	"net/http"

	"github.com/cjaisingh/awip-mission-control-sub000/internal/console/handler"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/engine"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/infra"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/infra/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handlers: обработчики бизнес-доменов консоли.
type Handlers struct {
	Auth      *handler.AuthHandler      // /auth/token
	Dashboard *handler.DashboardHandler // /api/v1/state, /api/v1/dashboard
	Query     *handler.QueryHandler     // /api/v1/query
	Handoff   *handler.HandoffHandler   // /api/v1/handoff
	Agents    *handler.AgentHandler     // /api/v1/agents/{id}/chat, /api/v1/extract
	Stream    *handler.StreamHandler    // /api/v1/stream
}

type ConsoleServer struct {
	router *chi.Mux
	logger *zap.Logger
	cfg    *infra.Config

	// Проверка токенов (RS256). nil: auth выключен, защищенные роуты открыты.
	authValidator auth.TokenValidator
	gatherer      prometheus.Gatherer

	h Handlers
}

// NewConsoleServer инициализирует сервер консоли со всеми зависимостями
func NewConsoleServer(
	cfg *infra.Config,
	logger *zap.Logger,
	validator auth.TokenValidator,
	gatherer prometheus.Gatherer,
	h Handlers,
) *ConsoleServer {
	s := &ConsoleServer{
		router:        chi.NewRouter(),
		logger:        logger.Named("console-api"),
		cfg:           cfg,
		authValidator: validator,
		gatherer:      gatherer,
		h:             h,
	}
	if validator == nil {
		s.logger.Warn("auth keys are not configured, protected routes are open")
	}

	s.routes()
	return s
}

func (s *ConsoleServer) routes() {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware (для всех) ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(engine.TracingMiddleware)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// --- 2. ПУБЛИЧНЫЕ РОУТЫ ---
	r.Group(func(r chi.Router) {
		r.Post("/auth/token", s.h.Auth.Login)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	})

	// --- 3. ЗАЩИЩЕННЫЙ ПЕРИМЕТР (RS256 токен) ---
	r.Group(func(r chi.Router) {
		r.Use(auth.NewMiddleware(s.authValidator, s.logger))
		r.Use(s.h.Auth.Session)

		r.Post("/auth/logout", s.h.Auth.Logout)

		// Чтение состояния
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireScope("state.read"))

			r.Get("/api/v1/state", s.h.Dashboard.GetState)
			r.Get("/api/v1/dashboard/stats", s.h.Dashboard.GetStats)
			r.Get("/api/v1/agents", s.h.Dashboard.ListAgents)
			r.Get("/api/v1/alerts", s.h.Dashboard.ListAlerts)
			r.Get("/api/v1/stream", s.h.Stream.Serve)
			r.Mount("/api/v1/query", s.h.Query.Routes())
		})

		// Действия оператора над Store
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireScope("state.write"))

			r.Post("/api/v1/alerts", s.h.Dashboard.RaiseAlert)
			r.Delete("/api/v1/alerts", s.h.Dashboard.ClearAlerts)
			r.Post("/api/v1/state/reset", s.h.Dashboard.Reset)
		})

		// Handoff
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireScope("handoff.write"))
			r.Mount("/api/v1/handoff", s.h.Handoff.Routes())
		})

		// LLM
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireScope("agents.chat"))
			r.Post("/api/v1/agents/{agentID}/chat", s.h.Agents.Chat)
			r.Post("/api/v1/extract", s.h.Agents.Extract)
		})
	})
}

// ServeHTTP позволяет использовать ConsoleServer как стандартный http.Handler
func (s *ConsoleServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/cjaisingh/awip-mission-control-sub000/internal/domain"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/engine"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/store"
	"go.uber.org/zap"
)

// StateStore: то, что консоль читает и меняет в Store.
type StateStore interface {
	Snapshot() store.State
	Summary() domain.DashboardSummary
	AgentsByStatus(status domain.AgentStatus) []domain.AgentRecord
	AddAlert(a domain.AlertRecord)
	ClearAlerts()
	Reset()
	Subscribe(fn func(store.State)) (cancel func())
}

// Querier: прямые запросы к gateway в обход поллеров.
type Querier interface {
	Agents(ctx context.Context, limit int) engine.Fetched[[]domain.AgentRecord]
	Metrics(ctx context.Context, rng domain.TimeRange) engine.Fetched[domain.SystemMetricsSnapshot]
	Health(ctx context.Context) engine.Fetched[domain.SystemHealthSnapshot]
	Alerts(ctx context.Context, limit int) engine.Fetched[[]domain.AlertRecord]
	BreakerState() string
}

// Query: ответ gateway с признаком синтетики.
type Query[T any] struct {
	Data      T    `json:"data"`
	Synthetic bool `json:"synthetic"`
}

func queryOf[T any](f engine.Fetched[T]) Query[T] {
	return Query[T]{Data: f.Value, Synthetic: f.Synthetic}
}

type StateService struct {
	store  StateStore
	gw     Querier
	limits struct{ agents, alerts int }
	logger *zap.Logger
}

func NewStateService(st StateStore, gw Querier, agentLimit, alertLimit int, logger *zap.Logger) *StateService {
	s := &StateService{store: st, gw: gw, logger: logger.Named("state-service")}
	s.limits.agents = agentLimit
	s.limits.alerts = alertLimit
	return s
}

func (s *StateService) Snapshot() store.State { return s.store.Snapshot() }

func (s *StateService) Summary() domain.DashboardSummary { return s.store.Summary() }

// Agents: агенты из Store; пустой status: все.
func (s *StateService) Agents(status string) ([]domain.AgentRecord, error) {
	if status == "" {
		return s.store.Snapshot().Agents.Items, nil
	}
	st := domain.AgentStatus(strings.ToLower(status))
	if !st.Valid() {
		return nil, fmt.Errorf("%w: unknown agent status %q", domain.ErrInvalidPayload, status)
	}
	return s.store.AgentsByStatus(st), nil
}

// RaiseAlert: ручной алерт оператора.
func (s *StateService) RaiseAlert(t domain.AlertType, message string) (domain.AlertRecord, error) {
	a := domain.NewAlert(t, "operator", strings.TrimSpace(message))
	if err := a.Validate(); err != nil {
		return domain.AlertRecord{}, err
	}
	s.store.AddAlert(a)
	return a, nil
}

func (s *StateService) ClearAlerts() {
	s.store.ClearAlerts()
	s.logger.Info("alerts cleared by operator")
}

func (s *StateService) Reset() {
	s.store.Reset()
	s.logger.Warn("store reset by operator")
}

func (s *StateService) Watch(fn func(store.State)) (cancel func()) {
	return s.store.Subscribe(fn)
}

func (s *StateService) QueryAgents(ctx context.Context, limit int) Query[[]domain.AgentRecord] {
	if limit <= 0 {
		limit = s.limits.agents
	}
	return queryOf(s.gw.Agents(ctx, limit))
}

func (s *StateService) QueryMetrics(ctx context.Context, rng domain.TimeRange) Query[domain.SystemMetricsSnapshot] {
	return queryOf(s.gw.Metrics(ctx, rng))
}

func (s *StateService) QueryHealth(ctx context.Context) Query[domain.SystemHealthSnapshot] {
	return queryOf(s.gw.Health(ctx))
}

func (s *StateService) QueryAlerts(ctx context.Context, limit int) Query[[]domain.AlertRecord] {
	if limit <= 0 {
		limit = s.limits.alerts
	}
	return queryOf(s.gw.Alerts(ctx, limit))
}

func (s *StateService) BreakerState() string { return s.gw.BreakerState() }

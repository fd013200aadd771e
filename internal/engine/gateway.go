package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cjaisingh/awip-mission-control-sub000/internal/connectors"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/domain"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/infra"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrNotConfigured: у gateway нет backend (или LLM), вызов сразу уходит в фолбэк.
var ErrNotConfigured = errors.New("remote not configured")

// Backend: хостинговый сервис данных. Реализации: connectors.RESTBackend, postgres.BackendRepo.
type Backend interface {
	FetchSystemStatus(ctx context.Context) (domain.SystemStatus, error)
	FetchAgents(ctx context.Context, limit int) ([]domain.AgentRecord, error)
	FetchMetrics(ctx context.Context, rng domain.TimeRange) (domain.SystemMetricsSnapshot, error)
	FetchHealth(ctx context.Context) (domain.SystemHealthSnapshot, error)
	FetchAlerts(ctx context.Context, limit int) ([]domain.AlertRecord, error)
	FetchConversationState(ctx context.Context, id string) (*domain.ConversationState, error)
	SaveConversationState(ctx context.Context, state *domain.ConversationState) error
	SubmitStatusReport(ctx context.Context, report domain.StatusReport) error
	PublishAlerts(ctx context.Context, alerts []domain.AlertRecord) error
}

// Completer: LLM-провайдер.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Result: исход удаленного вызова до применения фолбэка.
type Result[T any] struct {
	Value T
	Err   error
}

func Attempt[T any](v T, err error) Result[T] {
	return Result[T]{Value: v, Err: err}
}

// OrElse подставляет значение фолбэка, если вызов не удался.
func (r Result[T]) OrElse(fallback func() T) Fetched[T] {
	if r.Err == nil {
		return Fetched[T]{Value: r.Value}
	}
	return Fetched[T]{Value: fallback(), Synthetic: true, Err: r.Err}
}

// Fetched: то, что gateway отдает наверх. Value валиден всегда;
// Synthetic и Err объясняют, откуда он взялся.
type Fetched[T any] struct {
	Value     T
	Synthetic bool
	Err       error
}

// WriteOutcome: исход записи. Ошибка записи не паникует и не всплывает исключением.
type WriteOutcome struct {
	Persisted bool
	Err       error
}

type Gateway struct {
	backend     Backend
	llm         Completer
	rdb         *redis.Client
	reliability *ReliabilityWrapper
	synth       *connectors.Synthesizer
	cfg         *infra.Config
	metrics     *Metrics
	logger      *zap.Logger
	realtime    realtimeTracker
}

// NewGateway собирает gateway. backend, llm и rdb могут быть nil: соответствующие
// вызовы деградируют до синтетики или no-op подписки.
func NewGateway(cfg *infra.Config, backend Backend, llm Completer, rdb *redis.Client, metrics *Metrics, logger *zap.Logger) *Gateway {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Gateway{
		backend:     backend,
		llm:         llm,
		rdb:         rdb,
		reliability: NewReliabilityWrapper("backend", cfg.Reliability, cfg.Backend.RequestTimeout, metrics),
		synth:       connectors.NewSynthesizer(cfg.Thresholds.AgentCount, 0),
		cfg:         cfg,
		metrics:     metrics,
		logger:      logger.Named("gateway"),
	}
}

// Available сообщает, есть ли настоящий backend.
func (g *Gateway) Available() bool { return g.backend != nil }

// BreakerState: состояние предохранителя backend.
func (g *Gateway) BreakerState() string { return g.reliability.State() }

// OnRealtimeState регистрирует наблюдателя за флагом realtime-подключения.
// Флаг общий на все подписки: true, пока подключен хотя бы один слушатель.
func (g *Gateway) OnRealtimeState(fn func(connected bool)) {
	g.realtime.setNotify(fn)
}

// fetch: общий путь чтения: вызов через ReliabilityWrapper, валидация, фолбэк.
func fetch[T any](ctx context.Context, g *Gateway, concern infra.Concern,
	call func(ctx context.Context, b Backend) (T, error),
	validate func(T) error,
	fallback func() T,
) Fetched[T] {
	var v T
	err := ErrNotConfigured
	if g.backend != nil {
		start := time.Now()
		err = g.reliability.Do(ctx, func(ctx context.Context) error {
			var callErr error
			v, callErr = call(ctx, g.backend)
			return callErr
		})
		g.metrics.GatewayDuration.WithLabelValues(string(concern)).Observe(time.Since(start).Seconds())
		if err == nil && validate != nil {
			err = validate(v)
		}
	}

	res := Attempt(v, err).OrElse(fallback)
	if res.Synthetic {
		g.metrics.GatewayRequests.WithLabelValues(string(concern), "fallback").Inc()
		if !errors.Is(err, ErrNotConfigured) && ctx.Err() == nil {
			g.logger.Warn("remote call failed, serving synthetic data",
				zap.String("concern", string(concern)), zap.String("trace_id", TraceID(ctx)), zap.Error(err))
		}
		return res
	}
	g.metrics.GatewayRequests.WithLabelValues(string(concern), "remote").Inc()
	return res
}

func (g *Gateway) write(ctx context.Context, concern infra.Concern, call func(ctx context.Context, b Backend) error) WriteOutcome {
	if g.backend == nil {
		g.metrics.GatewayRequests.WithLabelValues(string(concern), "write_skipped").Inc()
		return WriteOutcome{Err: ErrNotConfigured}
	}
	err := g.reliability.Do(ctx, func(ctx context.Context) error {
		return call(ctx, g.backend)
	})
	if err != nil {
		g.metrics.GatewayRequests.WithLabelValues(string(concern), "write_failed").Inc()
		g.logger.Warn("remote write failed",
			zap.String("concern", string(concern)), zap.String("trace_id", TraceID(ctx)), zap.Error(err))
		return WriteOutcome{Err: err}
	}
	g.metrics.GatewayRequests.WithLabelValues(string(concern), "write_ok").Inc()
	return WriteOutcome{Persisted: true}
}

func (g *Gateway) SystemStatus(ctx context.Context) Fetched[domain.SystemStatus] {
	return fetch(ctx, g, infra.ConcernSystemStatus,
		func(ctx context.Context, b Backend) (domain.SystemStatus, error) { return b.FetchSystemStatus(ctx) },
		domain.SystemStatus.Validate,
		func() domain.SystemStatus { return g.synth.SystemStatus(g.cfg.App.Version, g.cfg.App.Environment) },
	)
}

func (g *Gateway) Agents(ctx context.Context, limit int) Fetched[[]domain.AgentRecord] {
	return fetch(ctx, g, infra.ConcernAgents,
		func(ctx context.Context, b Backend) ([]domain.AgentRecord, error) { return b.FetchAgents(ctx, limit) },
		domain.ValidateAgents,
		func() []domain.AgentRecord { return g.synth.Agents(limit) },
	)
}

func (g *Gateway) Metrics(ctx context.Context, rng domain.TimeRange) Fetched[domain.SystemMetricsSnapshot] {
	return fetch(ctx, g, infra.ConcernMetrics,
		func(ctx context.Context, b Backend) (domain.SystemMetricsSnapshot, error) { return b.FetchMetrics(ctx, rng) },
		domain.SystemMetricsSnapshot.Validate,
		func() domain.SystemMetricsSnapshot { return g.synth.Metrics(rng) },
	)
}

func (g *Gateway) Health(ctx context.Context) Fetched[domain.SystemHealthSnapshot] {
	return fetch(ctx, g, infra.ConcernHealth,
		func(ctx context.Context, b Backend) (domain.SystemHealthSnapshot, error) { return b.FetchHealth(ctx) },
		domain.SystemHealthSnapshot.Validate,
		g.synth.Health,
	)
}

func (g *Gateway) Alerts(ctx context.Context, limit int) Fetched[[]domain.AlertRecord] {
	return fetch(ctx, g, infra.ConcernAlerts,
		func(ctx context.Context, b Backend) ([]domain.AlertRecord, error) { return b.FetchAlerts(ctx, limit) },
		func(list []domain.AlertRecord) error {
			for _, a := range list {
				if err := a.Validate(); err != nil {
					return err
				}
			}
			return nil
		},
		func() []domain.AlertRecord { return g.synth.Alerts(limit) },
	)
}

func (g *Gateway) ConversationState(ctx context.Context, id string) Fetched[*domain.ConversationState] {
	return fetch(ctx, g, infra.ConcernHandoff,
		func(ctx context.Context, b Backend) (*domain.ConversationState, error) {
			st, err := b.FetchConversationState(ctx, id)
			if err != nil {
				return nil, err
			}
			if st == nil {
				return nil, fmt.Errorf("conversation %s: %w", id, domain.ErrInvalidPayload)
			}
			st.Normalize()
			return st, nil
		},
		nil,
		func() *domain.ConversationState { return g.synth.ConversationState(id) },
	)
}

func (g *Gateway) SaveConversationState(ctx context.Context, state *domain.ConversationState) WriteOutcome {
	return g.write(ctx, infra.ConcernHandoff, func(ctx context.Context, b Backend) error {
		return b.SaveConversationState(ctx, state)
	})
}

func (g *Gateway) SubmitStatusReport(ctx context.Context, report domain.StatusReport) WriteOutcome {
	return g.write(ctx, infra.ConcernReports, func(ctx context.Context, b Backend) error {
		return b.SubmitStatusReport(ctx, report)
	})
}

func (g *Gateway) PublishAlerts(ctx context.Context, alerts []domain.AlertRecord) WriteOutcome {
	return g.write(ctx, infra.ConcernAlerts, func(ctx context.Context, b Backend) error {
		return b.PublishAlerts(ctx, alerts)
	})
}

// Complete: вызов LLM с тем же fail-soft контрактом: при ошибке заглушка.
func (g *Gateway) Complete(ctx context.Context, system, prompt string) Fetched[string] {
	var text string
	err := ErrNotConfigured
	if g.llm != nil {
		tCtx, cancel := context.WithTimeout(ctx, g.cfg.LLM.Timeout)
		text, err = g.llm.Complete(tCtx, system, prompt)
		cancel()
		if err == nil && text == "" {
			err = connectors.ErrEmptyCompletion
		}
	}
	if err != nil && !errors.Is(err, ErrNotConfigured) {
		g.logger.Warn("llm completion failed, serving mock text", zap.Error(err))
	}
	return Attempt(text, err).OrElse(func() string { return g.synth.Completion(prompt) })
}

// Subscribe подписывает callback на изменения таблицы concern. Без Redis: no-op.
func (g *Gateway) Subscribe(ctx context.Context, concern infra.Concern, onEvent func(Event)) Subscription {
	table := infra.TableFor(concern)
	if g.rdb == nil || table == "" || !g.cfg.Feature(infra.FeatureRealtime) {
		return NoopSubscription()
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := &listenerSubscription{cancel: cancel, done: make(chan struct{})}
	logger := g.logger.With(zap.String("concern", string(concern)))

	onState := g.realtime.listener()
	go func() {
		defer close(sub.done)
		// отписка выходит из цикла без onState(false)
		defer onState(false)
		ListenResilient(ctx, g.rdb, logger, infra.RealtimeChannel(table, infra.EventAll), g.cfg.Realtime.ReconnectDelay,
			onState,
			func() { onEvent(Event{Table: table, Type: infra.EventAll}) },
			func(channel, payload string) {
				ev, ok := parseEvent(channel, payload)
				if !ok {
					logger.Warn("invalid realtime message", zap.String("channel", channel))
					return
				}
				onEvent(ev)
			},
		)
	}()
	return sub
}

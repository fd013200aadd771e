package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cjaisingh/awip-mission-control-sub000/internal/domain"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/infra"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/store"
	"go.uber.org/zap"
)

// StateSink: действия Store, которые нужны хукам.
type StateSink interface {
	UpdateSystemStatus(patch store.SystemPatch)
	UpdateAgents(list []domain.AgentRecord, src store.Source)
	UpdateMetrics(patch store.MetricsPatch)
	UpdateHealth(h domain.SystemHealthSnapshot, src store.Source)
	AddAlert(a domain.AlertRecord)
	AddAlertIfAbsent(a domain.AlertRecord) bool
	SetDatabaseConnection(connected bool, err error)
	SetRealtimeConnection(connected bool)
}

// Hooks связывает gateway и Store: по одному шагу на concern.
// Состояние каждого шага трогает только горутина его poller-а.
type Hooks struct {
	gw        *Gateway
	sink      StateSink
	cfg       *infra.Config
	metrics   *Metrics
	logger    *zap.Logger
	timeRange domain.TimeRange

	dbFailing bool            // system-status
	over      map[string]bool // health: какие пороги уже превышены
}

func NewHooks(cfg *infra.Config, gw *Gateway, sink StateSink, metrics *Metrics, logger *zap.Logger) *Hooks {
	return &Hooks{
		gw:        gw,
		sink:      sink,
		cfg:       cfg,
		metrics:   metrics,
		logger:    logger.Named("hooks"),
		timeRange: domain.RangeLastHour,
		over:      make(map[string]bool),
	}
}

func (h *Hooks) SystemStatusStep(ctx context.Context) func() {
	res := h.gw.SystemStatus(ctx)
	return func() {
		h.sink.UpdateSystemStatus(store.SystemPatchFrom(res.Value, store.SourceOf(res.Synthetic)))

		if res.Synthetic {
			h.sink.SetDatabaseConnection(false, res.Err)
			if !h.dbFailing {
				h.dbFailing = true
				h.sink.AddAlert(domain.NewAlert(domain.AlertError, string(infra.ConcernSystemStatus),
					fmt.Sprintf("Database disconnected: %v", res.Err)))
			}
			return
		}

		h.sink.SetDatabaseConnection(true, nil)
		if h.dbFailing {
			h.dbFailing = false
			h.sink.AddAlert(domain.NewAlert(domain.AlertInfo, string(infra.ConcernSystemStatus), "Database connection restored"))
		}
	}
}

func (h *Hooks) AgentsStep(ctx context.Context) func() {
	res := h.gw.Agents(ctx, h.cfg.Thresholds.AgentRowLimit)
	return func() {
		h.sink.UpdateAgents(res.Value, store.SourceOf(res.Synthetic))
	}
}

func (h *Hooks) MetricsStep(ctx context.Context) func() {
	res := h.gw.Metrics(ctx, h.timeRange)
	return func() {
		h.sink.UpdateMetrics(store.MetricsPatchFrom(res.Value, store.SourceOf(res.Synthetic)))
	}
}

func (h *Hooks) HealthStep(ctx context.Context) func() {
	res := h.gw.Health(ctx)
	return func() {
		h.sink.UpdateHealth(res.Value, store.SourceOf(res.Synthetic))
		// по синтетике пороговые алерты не поднимаем
		if res.Synthetic {
			return
		}
		t := h.cfg.Thresholds
		h.crossing("cpu", res.Value.CPU > t.CPUWarning, domain.AlertWarning,
			fmt.Sprintf("CPU usage %.1f%% above %.0f%%", res.Value.CPU, t.CPUWarning))
		h.crossing("memory", res.Value.Memory > t.MemoryWarning, domain.AlertWarning,
			fmt.Sprintf("Memory usage %.1f%% above %.0f%%", res.Value.Memory, t.MemoryWarning))
		h.crossing("disk", res.Value.Disk > t.DiskWarning, domain.AlertError,
			fmt.Sprintf("Disk usage %.1f%% above %.0f%%", res.Value.Disk, t.DiskWarning))
		h.crossing("overall", res.Value.Overall < t.HealthDegraded, domain.AlertWarning,
			fmt.Sprintf("Overall health %.1f below %.0f", res.Value.Overall, t.HealthDegraded))
	}
}

// crossing поднимает алерт только при переходе через порог.
func (h *Hooks) crossing(key string, above bool, t domain.AlertType, msg string) {
	was := h.over[key]
	h.over[key] = above
	if above && !was {
		h.sink.AddAlert(domain.NewAlert(t, string(infra.ConcernHealth), msg))
	}
}

// AlertsStep дописывает в журнал только новые удаленные алерты. Тот же алерт
// может одновременно прийти из realtime-канала: дедупликацию делает Store.
func (h *Hooks) AlertsStep(ctx context.Context) func() {
	res := h.gw.Alerts(ctx, h.cfg.Thresholds.AlertRowLimit)
	if res.Synthetic {
		return nil
	}
	return func() {
		for _, a := range res.Value {
			h.sink.AddAlertIfAbsent(a)
		}
	}
}

// Pollers: по одному poller-у на concern, интервалы из конфига.
func (h *Hooks) Pollers() []*Poller {
	steps := []struct {
		concern infra.Concern
		step    Step
	}{
		{infra.ConcernSystemStatus, h.SystemStatusStep},
		{infra.ConcernAgents, h.AgentsStep},
		{infra.ConcernMetrics, h.MetricsStep},
		{infra.ConcernHealth, h.HealthStep},
		{infra.ConcernAlerts, h.AlertsStep},
	}
	out := make([]*Poller, 0, len(steps))
	for _, s := range steps {
		out = append(out, NewPoller(s.concern, h.cfg.Interval(s.concern), s.step, h.metrics, h.logger))
	}
	return out
}

// Supervisor собирает poller-ы и realtime-подписки: событие по таблице
// будит poller этого concern, INSERT в alerts сразу попадает в Store.
func (h *Hooks) Supervisor() *Supervisor {
	h.gw.OnRealtimeState(h.sink.SetRealtimeConnection)

	pollers := h.Pollers()
	sup := NewSupervisor(h.logger, pollers...)
	for _, p := range pollers {
		sup.Attach(func(ctx context.Context) Subscription {
			return h.gw.Subscribe(ctx, p.Concern(), func(ev Event) {
				if p.Concern() == infra.ConcernAlerts && ev.Type == infra.EventInsert && h.pushAlert(ev) {
					return
				}
				p.Nudge()
			})
		})
	}
	return sup
}

func (h *Hooks) pushAlert(ev Event) bool {
	var a domain.AlertRecord
	if err := json.Unmarshal(ev.Record, &a); err != nil || a.Validate() != nil {
		h.logger.Warn("malformed realtime alert", zap.String("table", ev.Table))
		return false
	}
	h.sink.AddAlertIfAbsent(a)
	return true
}

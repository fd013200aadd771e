package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cjaisingh/awip-mission-control-sub000/internal/infra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type PollState int32

const (
	StateIdle PollState = iota
	StateFetching
	StateScheduled
	StateUnmounted
)

func (s PollState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateScheduled:
		return "scheduled"
	case StateUnmounted:
		return "unmounted"
	}
	return "unknown"
}

// Step выполняет один fetch и возвращает запись в Store.
// apply вызывается только если область жизни poller-а еще не закрыта.
type Step func(ctx context.Context) (apply func())

// Poller ведет цикл одного concern: Idle → Fetching → Scheduled → Fetching … → Unmounted.
type Poller struct {
	concern  infra.Concern
	interval time.Duration
	step     Step
	nudge    chan struct{}
	state    atomic.Int32
	metrics  *Metrics
	logger   *zap.Logger
}

func NewPoller(concern infra.Concern, interval time.Duration, step Step, metrics *Metrics, logger *zap.Logger) *Poller {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Poller{
		concern:  concern,
		interval: interval,
		step:     step,
		nudge:    make(chan struct{}, 1),
		metrics:  metrics,
		logger:   logger.With(zap.String("concern", string(concern))),
	}
}

func (p *Poller) Concern() infra.Concern { return p.concern }

func (p *Poller) State() PollState { return PollState(p.state.Load()) }

// Nudge просит внеочередной fetch. Не блокирует; повторные вызовы схлопываются.
func (p *Poller) Nudge() {
	select {
	case p.nudge <- struct{}{}:
	default:
	}
}

// Run крутит цикл до отмены ctx. Незавершенный fetch отменяется вместе с ctx.
func (p *Poller) Run(ctx context.Context) error {
	defer p.state.Store(int32(StateUnmounted))

	for {
		p.state.Store(int32(StateFetching))
		apply := p.step(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if apply != nil {
			apply()
		}
		p.metrics.PollTicks.WithLabelValues(string(p.concern)).Inc()

		p.state.Store(int32(StateScheduled))
		timer := time.NewTimer(p.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-p.nudge:
			timer.Stop()
			p.logger.Debug("poll nudged")
		case <-timer.C:
		}
	}
}

// Supervisor: область жизни набора poller-ов и их подписок.
type Supervisor struct {
	pollers []*Poller
	attach  []func(ctx context.Context) Subscription
	logger  *zap.Logger
}

func NewSupervisor(logger *zap.Logger, pollers ...*Poller) *Supervisor {
	return &Supervisor{pollers: pollers, logger: logger.Named("supervisor")}
}

// Attach добавляет подписку, открываемую при Mount и закрываемую при Unmount.
func (s *Supervisor) Attach(open func(ctx context.Context) Subscription) {
	s.attach = append(s.attach, open)
}

func (s *Supervisor) Pollers() []*Poller { return s.pollers }

// Mount запускает все poller-ы. Возвращенный unmount отменяет fetch-и в полете,
// снимает подписки и ждет выхода всех горутин; после него в Store никто не пишет.
func (s *Supervisor) Mount(ctx context.Context) (unmount func()) {
	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)

	for _, p := range s.pollers {
		g.Go(func() error { return p.Run(gctx) })
	}
	subs := make([]Subscription, 0, len(s.attach))
	for _, open := range s.attach {
		subs = append(subs, open(gctx))
	}
	s.logger.Info("pollers mounted", zap.Int("pollers", len(s.pollers)), zap.Int("subscriptions", len(subs)))

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			for _, sub := range subs {
				sub.Unsubscribe()
			}
			if err := g.Wait(); err != nil {
				s.logger.Error("poller exited with error", zap.Error(err))
			}
			s.logger.Info("pollers unmounted")
		})
	}
}

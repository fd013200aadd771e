package audit

/*
Журнал алертов: зеркалирует алерты Store в backend.

- Неблокирующая запись: AddAlert в Store не ждет сети, алерт уходит в буферизованный канал.
- Пакетная отправка по таймеру или при достижении лимита пачки.
- Drain при остановке: канал закрывается, воркер вычитывает остатки и делает финальный flush.
- Отправка fail-soft: неудачная пачка логируется и отбрасывается, Store остается источником правды.
*/

import (
	"context"
	"sync"
	"time"

	"github.com/cjaisingh/awip-mission-control-sub000/internal/domain"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/engine"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Publisher: куда физически уходят алерты (engine.Gateway).
type Publisher interface {
	PublishAlerts(ctx context.Context, alerts []domain.AlertRecord) engine.WriteOutcome
}

type Journal struct {
	ch       chan domain.AlertRecord
	pub      Publisher
	batch    int
	flushDur time.Duration
	fill     prometheus.Gauge
	logger   *zap.Logger
	wg       sync.WaitGroup

	// closeMu: Log отправляет под RLock, Stop закрывает канал под Lock,
	// поэтому отправки в закрытый канал не бывает.
	closeMu sync.RWMutex
	closed  bool
}

// NewJournal. fill может быть nil.
func NewJournal(pub Publisher, buffer, batch int, flushEvery time.Duration, fill prometheus.Gauge, logger *zap.Logger) *Journal {
	if batch <= 0 {
		batch = 1
	}
	return &Journal{
		ch:       make(chan domain.AlertRecord, buffer),
		pub:      pub,
		batch:    batch,
		flushDur: flushEvery,
		fill:     fill,
		logger:   logger.With(zap.String("mod", "journal")),
	}
}

func (j *Journal) Start() {
	j.wg.Add(1)
	go j.worker()
}

// Stop «запирает» вход и ждет, пока воркер всё отправит. Повторный вызов безопасен.
func (j *Journal) Stop() {
	j.closeMu.Lock()
	if j.closed {
		j.closeMu.Unlock()
		return
	}
	j.closed = true
	j.logger.Info("stopping journal: closing channel and flushing buffer...")
	close(j.ch)
	j.closeMu.Unlock()

	j.wg.Wait()
	j.logger.Info("journal stopped gracefully")
}

// Log: приемник для Store.SetAlertSink. Никогда не блокирует.
func (j *Journal) Log(alert domain.AlertRecord) {
	j.closeMu.RLock()
	defer j.closeMu.RUnlock()
	if j.closed {
		j.logger.Warn("alert dropped: journal is stopping", zap.String("id", alert.ID))
		return
	}

	// Load Shedding: при переполнении алерт остается только в Store
	select {
	case j.ch <- alert:
		j.setFill()
	default:
		j.logger.Error("journal_buffer_overflow", zap.String("id", alert.ID), zap.String("type", string(alert.Type)))
	}
}

func (j *Journal) setFill() {
	if j.fill != nil {
		j.fill.Set(float64(len(j.ch)))
	}
}

func (j *Journal) worker() {
	defer j.wg.Done()

	batch := make([]domain.AlertRecord, 0, j.batch)
	ticker := time.NewTicker(j.flushDur)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		// Background: основной контекст может быть уже закрыт
		out := j.pub.PublishAlerts(context.Background(), batch)
		if !out.Persisted {
			j.logger.Warn("journal flush failed, batch dropped", zap.Int("size", len(batch)), zap.Error(out.Err))
		}
		// пачка ушла в Publisher, буфер переиспользовать нельзя
		batch = make([]domain.AlertRecord, 0, j.batch)
		j.setFill()
	}

	for {
		select {
		case alert, ok := <-j.ch:
			if !ok {
				flush() // Финальный сброс
				j.logger.Info("journal worker finished")
				return
			}
			batch = append(batch, alert)
			if len(batch) >= j.batch {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cjaisingh/awip-mission-control-sub000/internal/domain"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/engine"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordingPublisher struct {
	mu      sync.Mutex
	batches [][]domain.AlertRecord
	fail    bool
}

func (p *recordingPublisher) PublishAlerts(_ context.Context, alerts []domain.AlertRecord) engine.WriteOutcome {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return engine.WriteOutcome{Err: errors.New("backend down")}
	}
	p.batches = append(p.batches, alerts)
	return engine.WriteOutcome{Persisted: true}
}

func (p *recordingPublisher) total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, b := range p.batches {
		n += len(b)
	}
	return n
}

func TestJournal_BatchesBySize(t *testing.T) {
	pub := &recordingPublisher{}
	j := NewJournal(pub, 100, 3, time.Hour, nil, zap.NewNop())
	j.Start()

	for i := 0; i < 6; i++ {
		j.Log(domain.NewAlert(domain.AlertInfo, "test", "m"))
	}
	require.Eventually(t, func() bool { return pub.total() == 6 }, time.Second, 5*time.Millisecond)
	j.Stop()

	for _, b := range pub.batches {
		assert.Len(t, b, 3)
	}
}

func TestJournal_FlushesOnTicker(t *testing.T) {
	pub := &recordingPublisher{}
	j := NewJournal(pub, 100, 50, 10*time.Millisecond, nil, zap.NewNop())
	j.Start()
	defer j.Stop()

	j.Log(domain.NewAlert(domain.AlertWarning, "test", "slow disk"))
	require.Eventually(t, func() bool { return pub.total() == 1 }, time.Second, 5*time.Millisecond)
}

func TestJournal_StopDrainsBuffer(t *testing.T) {
	pub := &recordingPublisher{}
	j := NewJournal(pub, 100, 50, time.Hour, nil, zap.NewNop())
	j.Start()

	for i := 0; i < 7; i++ {
		j.Log(domain.NewAlert(domain.AlertInfo, "test", "m"))
	}
	j.Stop()
	assert.Equal(t, 7, pub.total())

	// после остановки алерты отбрасываются, паники нет
	assert.NotPanics(t, func() { j.Log(domain.NewAlert(domain.AlertInfo, "test", "late")) })
	j.Stop()
}

func TestJournal_LogRacingStopNeverPanics(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	pub := &recordingPublisher{}
	j := NewJournal(pub, 10000, 64, time.Millisecond, nil, zap.New(core))
	j.Start()

	const writers, perWriter = 8, 200
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				j.Log(domain.NewAlert(domain.AlertInfo, "test", "m"))
			}
		}()
	}
	assert.NotPanics(t, j.Stop)
	wg.Wait()

	// каждый алерт либо отправлен, либо отброшен с предупреждением
	dropped := logs.FilterMessage("alert dropped: journal is stopping").Len()
	assert.Equal(t, writers*perWriter, pub.total()+dropped)
}

func TestJournal_OverflowAndFailureAreLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	pub := &recordingPublisher{fail: true}
	fill := prometheus.NewGauge(prometheus.GaugeOpts{Name: "fill"})

	// воркер не запущен: буфер на 1 переполняется на втором алерте
	j := NewJournal(pub, 1, 10, time.Hour, fill, zap.New(core))
	j.Log(domain.NewAlert(domain.AlertInfo, "test", "a"))
	j.Log(domain.NewAlert(domain.AlertInfo, "test", "b"))
	assert.Equal(t, 1, logs.FilterMessage("journal_buffer_overflow").Len())

	j.Start()
	j.Stop()
	assert.Equal(t, 1, logs.FilterMessage("journal flush failed, batch dropped").Len())
	assert.Equal(t, 0, pub.total())
}

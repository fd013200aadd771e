package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cjaisingh/awip-mission-control-sub000/internal/domain"
)

var errBackendDown = errors.New("backend down")

// fakeBackend отвечает валидными данными; failing включает отказ по concern.
type fakeBackend struct {
	mu      sync.Mutex
	failing map[string]bool
	saved   []*domain.ConversationState
	reports []domain.StatusReport
	alerts  []domain.AlertRecord
	remote  []domain.AlertRecord
	health  *domain.SystemHealthSnapshot
	calls   map[string]int
}

func newFakeBackend(failing ...string) *fakeBackend {
	f := &fakeBackend{failing: map[string]bool{}, calls: map[string]int{}}
	for _, c := range failing {
		f.failing[c] = true
	}
	return f
}

func (f *fakeBackend) check(concern string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[concern]++
	if f.failing[concern] || f.failing["*"] {
		return errBackendDown
	}
	return nil
}

func (f *fakeBackend) setHealth(h domain.SystemHealthSnapshot) {
	f.mu.Lock()
	f.health = &h
	f.mu.Unlock()
}

func (f *fakeBackend) setFailing(concern string, v bool) {
	f.mu.Lock()
	f.failing[concern] = v
	f.mu.Unlock()
}

func (f *fakeBackend) FetchSystemStatus(context.Context) (domain.SystemStatus, error) {
	if err := f.check("system_status"); err != nil {
		return domain.SystemStatus{}, err
	}
	return domain.SystemStatus{Status: domain.SystemOperational, Version: "remote", ActiveAgents: 1, TotalAgents: 2, Uptime: 99.9, Timestamp: time.Now()}, nil
}

func (f *fakeBackend) FetchAgents(_ context.Context, limit int) ([]domain.AgentRecord, error) {
	if err := f.check("agents"); err != nil {
		return nil, err
	}
	return []domain.AgentRecord{
		{ID: 1, Name: "remote-1", Domain: "ops", Status: domain.StatusActive, Capabilities: []string{}},
		{ID: 2, Name: "remote-2", Domain: "ops", Status: domain.StatusInactive, Capabilities: []string{}},
	}, nil
}

func (f *fakeBackend) FetchMetrics(context.Context, domain.TimeRange) (domain.SystemMetricsSnapshot, error) {
	if err := f.check("metrics"); err != nil {
		return domain.SystemMetricsSnapshot{}, err
	}
	return domain.SystemMetricsSnapshot{CPU: 1, Memory: 2, Network: 3, Disk: 4, Timestamp: time.Now()}, nil
}

func (f *fakeBackend) FetchHealth(context.Context) (domain.SystemHealthSnapshot, error) {
	if err := f.check("health"); err != nil {
		return domain.SystemHealthSnapshot{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.health != nil {
		h := *f.health
		h.Timestamp = time.Now()
		return h, nil
	}
	return domain.SystemHealthSnapshot{Overall: 95, CPU: 10, Memory: 20, Network: 5, Disk: 30, Timestamp: time.Now()}, nil
}

func (f *fakeBackend) FetchAlerts(context.Context, int) ([]domain.AlertRecord, error) {
	if err := f.check("alerts"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.AlertRecord(nil), f.remote...), nil
}

func (f *fakeBackend) FetchConversationState(_ context.Context, id string) (*domain.ConversationState, error) {
	if err := f.check("handoff"); err != nil {
		return nil, err
	}
	return &domain.ConversationState{ID: id, Phase: "build", Priorities: []string{"Fix X"}}, nil
}

func (f *fakeBackend) SaveConversationState(_ context.Context, st *domain.ConversationState) error {
	if err := f.check("handoff"); err != nil {
		return err
	}
	f.mu.Lock()
	f.saved = append(f.saved, st)
	f.mu.Unlock()
	return nil
}

func (f *fakeBackend) SubmitStatusReport(_ context.Context, r domain.StatusReport) error {
	if err := f.check("status_reports"); err != nil {
		return err
	}
	f.mu.Lock()
	f.reports = append(f.reports, r)
	f.mu.Unlock()
	return nil
}

func (f *fakeBackend) PublishAlerts(_ context.Context, alerts []domain.AlertRecord) error {
	if err := f.check("alerts"); err != nil {
		return err
	}
	f.mu.Lock()
	f.alerts = append(f.alerts, alerts...)
	f.mu.Unlock()
	return nil
}

package domain

import (
	"fmt"
	"time"
)

// Значения SystemStatus.Status
const (
	SystemOperational  = "operational"
	SystemDegraded     = "degraded"
	SystemOffline      = "offline"
	SystemInitializing = "initializing"
)

// SystemStatus: общее состояние платформы, как его отдает backend.
type SystemStatus struct {
	Status       string    `json:"status"`
	Version      string    `json:"version"`
	Environment  string    `json:"environment"`
	Uptime       float64   `json:"uptime"` // Доступность в процентах
	ActiveAgents int       `json:"active_agents"`
	TotalAgents  int       `json:"total_agents"`
	Timestamp    time.Time `json:"timestamp"`
}

func (s SystemStatus) Validate() error {
	switch s.Status {
	case SystemOperational, SystemDegraded, SystemOffline, SystemInitializing:
	default:
		return fmt.Errorf("%w: unknown system status %q", ErrInvalidPayload, s.Status)
	}
	if s.ActiveAgents < 0 || s.TotalAgents < 0 || s.ActiveAgents > s.TotalAgents {
		return fmt.Errorf("%w: inconsistent agent counters %d/%d", ErrInvalidPayload, s.ActiveAgents, s.TotalAgents)
	}
	if !inPercentRange(s.Uptime) {
		return fmt.Errorf("%w: uptime %.2f out of range", ErrInvalidPayload, s.Uptime)
	}
	return nil
}

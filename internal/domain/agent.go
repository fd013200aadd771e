package domain

import (
	"fmt"
	"slices"
	"time"
)

type AgentStatus string

const (
	StatusActive   AgentStatus = "active"   // Агент работает штатно
	StatusInactive AgentStatus = "inactive" // Остановлен или не отвечает на heartbeat
	StatusWarning  AgentStatus = "warning"  // Деградация производительности
	StatusError    AgentStatus = "error"    // Сбой
)

// Valid проверяет, что статус входит в перечисление.
func (s AgentStatus) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusWarning, StatusError:
		return true
	}
	return false
}

// AgentRecord: одна запись из реестра агентов флота.
type AgentRecord struct {
	ID               int         `json:"id"`     // Уникальный небольшой номер
	Name             string      `json:"name"`   // Человекочитаемое имя
	Domain           string      `json:"domain"` // Зона ответственности ("security", "analytics"...)
	Status           AgentStatus `json:"status"`
	PerformanceScore *float64    `json:"performance_score,omitempty"` // 0..100
	LastHeartbeat    *time.Time  `json:"last_heartbeat,omitempty"`
	Capabilities     []string    `json:"capabilities"`
}

// Validate отсекает битые записи из удаленного ответа.
func (a AgentRecord) Validate() error {
	if a.ID <= 0 {
		return fmt.Errorf("%w: agent id must be positive, got %d", ErrInvalidPayload, a.ID)
	}
	if a.Name == "" {
		return fmt.Errorf("%w: agent %d has empty name", ErrInvalidPayload, a.ID)
	}
	if !a.Status.Valid() {
		return fmt.Errorf("%w: agent %d has unknown status %q", ErrInvalidPayload, a.ID, a.Status)
	}
	if a.PerformanceScore != nil && !inPercentRange(*a.PerformanceScore) {
		return fmt.Errorf("%w: agent %d performance score %.2f out of range", ErrInvalidPayload, a.ID, *a.PerformanceScore)
	}
	return nil
}

// ValidateAgents проверяет весь список и уникальность ID.
func ValidateAgents(list []AgentRecord) error {
	seen := make(map[int]struct{}, len(list))
	for _, a := range list {
		if err := a.Validate(); err != nil {
			return err
		}
		if _, dup := seen[a.ID]; dup {
			return fmt.Errorf("%w: duplicate agent id %d", ErrInvalidPayload, a.ID)
		}
		seen[a.ID] = struct{}{}
	}
	return nil
}

// CloneAgents делает глубокую копию списка, чтобы читатели не видели чужих мутаций.
func CloneAgents(list []AgentRecord) []AgentRecord {
	if list == nil {
		return []AgentRecord{}
	}
	out := make([]AgentRecord, len(list))
	for i, a := range list {
		c := a
		if a.PerformanceScore != nil {
			v := *a.PerformanceScore
			c.PerformanceScore = &v
		}
		if a.LastHeartbeat != nil {
			v := *a.LastHeartbeat
			c.LastHeartbeat = &v
		}
		c.Capabilities = slices.Clone(a.Capabilities)
		out[i] = c
	}
	return out
}

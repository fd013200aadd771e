package store

import (
	"time"

	"github.com/cjaisingh/awip-mission-control-sub000/internal/domain"
)

// Source: откуда пришли данные секции.
type Source string

const (
	SourceDefault   Source = "default"
	SourceRemote    Source = "remote"
	SourceSynthetic Source = "synthetic"
)

func SourceOf(synthetic bool) Source {
	if synthetic {
		return SourceSynthetic
	}
	return SourceRemote
}

type SystemSection struct {
	domain.SystemStatus
	Source      Source    `json:"source"`
	LastUpdated time.Time `json:"last_updated"`
}

type AgentsSection struct {
	Items       []domain.AgentRecord `json:"items"`
	Source      Source               `json:"source"`
	LastUpdated time.Time            `json:"last_updated"`
}

type MetricsSection struct {
	domain.SystemMetricsSnapshot
	Source      Source    `json:"source"`
	LastUpdated time.Time `json:"last_updated"`
}

type HealthSection struct {
	domain.SystemHealthSnapshot
	Source      Source    `json:"source"`
	LastUpdated time.Time `json:"last_updated"`
}

type AlertsSection struct {
	Items       []domain.AlertRecord `json:"items"`
	LastUpdated time.Time            `json:"last_updated"`
}

type SessionSection struct {
	Session     *domain.SessionState `json:"session,omitempty"`
	LastUpdated time.Time            `json:"last_updated"`
}

// ConnectionSection не сохраняется: после рестарта подключение проверяется заново.
type ConnectionSection struct {
	Database      bool      `json:"database"`
	DatabaseError string    `json:"database_error,omitempty"`
	Realtime      bool      `json:"realtime"`
	LastUpdated   time.Time `json:"last_updated"`
}

// State: агрегат Store. Revision растет на каждое действие.
type State struct {
	System     SystemSection     `json:"system"`
	Agents     AgentsSection     `json:"agents"`
	Metrics    MetricsSection    `json:"metrics"`
	Health     HealthSection     `json:"health"`
	Alerts     AlertsSection     `json:"alerts"`
	Session    SessionSection    `json:"session"`
	Connection ConnectionSection `json:"connection"`
	Revision   uint64            `json:"revision"`
}

func (s State) clone() State {
	out := s
	out.Agents.Items = domain.CloneAgents(s.Agents.Items)
	out.Alerts.Items = append([]domain.AlertRecord{}, s.Alerts.Items...)
	out.Health.Alerts = append([]domain.AlertRecord{}, s.Health.Alerts...)
	if s.Session.Session != nil {
		sess := *s.Session.Session
		sess.Permissions = append([]string{}, sess.Permissions...)
		if sess.UserID != nil {
			uid := *sess.UserID
			sess.UserID = &uid
		}
		out.Session.Session = &sess
	}
	return out
}

// SystemPatch: частичное обновление секции System; nil-поля не трогаются.
type SystemPatch struct {
	Status       *string
	Version      *string
	Environment  *string
	Uptime       *float64
	ActiveAgents *int
	TotalAgents  *int
	Timestamp    *time.Time
	Source       Source
}

// SystemPatchFrom: патч, заменяющий все поля статуса.
func SystemPatchFrom(s domain.SystemStatus, src Source) SystemPatch {
	return SystemPatch{
		Status:       &s.Status,
		Version:      &s.Version,
		Environment:  &s.Environment,
		Uptime:       &s.Uptime,
		ActiveAgents: &s.ActiveAgents,
		TotalAgents:  &s.TotalAgents,
		Timestamp:    &s.Timestamp,
		Source:       src,
	}
}

func (p SystemPatch) applyTo(sec *SystemSection) {
	setIf(&sec.Status, p.Status)
	setIf(&sec.Version, p.Version)
	setIf(&sec.Environment, p.Environment)
	setIf(&sec.Uptime, p.Uptime)
	setIf(&sec.ActiveAgents, p.ActiveAgents)
	setIf(&sec.TotalAgents, p.TotalAgents)
	setIf(&sec.Timestamp, p.Timestamp)
	if p.Source != "" {
		sec.Source = p.Source
	}
}

type MetricsPatch struct {
	CPU       *float64
	Memory    *float64
	Network   *float64
	Disk      *float64
	Timestamp *time.Time
	Source    Source
}

func MetricsPatchFrom(m domain.SystemMetricsSnapshot, src Source) MetricsPatch {
	return MetricsPatch{
		CPU:       &m.CPU,
		Memory:    &m.Memory,
		Network:   &m.Network,
		Disk:      &m.Disk,
		Timestamp: &m.Timestamp,
		Source:    src,
	}
}

func (p MetricsPatch) applyTo(sec *MetricsSection) {
	setIf(&sec.CPU, p.CPU)
	setIf(&sec.Memory, p.Memory)
	setIf(&sec.Network, p.Network)
	setIf(&sec.Disk, p.Disk)
	setIf(&sec.Timestamp, p.Timestamp)
	if p.Source != "" {
		sec.Source = p.Source
	}
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

package connectors

import (
	"time"

	"github.com/cjaisingh/awip-mission-control-sub000/internal/domain"
)

// Строки таблиц backend в том виде, в каком их отдает REST-слой.
// Приводятся к доменным типам до того, как попадут в Store.

type systemStateRow struct {
	Status       string    `json:"status"`
	Version      string    `json:"version"`
	Environment  string    `json:"environment"`
	Uptime       float64   `json:"uptime_percentage"`
	ActiveAgents int       `json:"active_agents"`
	TotalAgents  int       `json:"total_agents"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (r systemStateRow) toDomain() domain.SystemStatus {
	return domain.SystemStatus{
		Status:       r.Status,
		Version:      r.Version,
		Environment:  r.Environment,
		Uptime:       r.Uptime,
		ActiveAgents: r.ActiveAgents,
		TotalAgents:  r.TotalAgents,
		Timestamp:    r.UpdatedAt,
	}
}

type agentRow struct {
	ID               int        `json:"id"`
	Name             string     `json:"name"`
	Domain           string     `json:"domain"`
	Status           string     `json:"status"`
	PerformanceScore *float64   `json:"performance_score"`
	LastHeartbeat    *time.Time `json:"last_heartbeat"`
	Capabilities     []string   `json:"capabilities"`
}

func (r agentRow) toDomain() domain.AgentRecord {
	caps := r.Capabilities
	if caps == nil {
		caps = []string{}
	}
	return domain.AgentRecord{
		ID:               r.ID,
		Name:             r.Name,
		Domain:           r.Domain,
		Status:           domain.AgentStatus(r.Status),
		PerformanceScore: r.PerformanceScore,
		LastHeartbeat:    r.LastHeartbeat,
		Capabilities:     caps,
	}
}

type metricsRow struct {
	CPU        float64   `json:"cpu_usage"`
	Memory     float64   `json:"memory_usage"`
	Network    float64   `json:"network_usage"`
	Disk       float64   `json:"disk_usage"`
	RecordedAt time.Time `json:"recorded_at"`
}

func (r metricsRow) toDomain() domain.SystemMetricsSnapshot {
	return domain.SystemMetricsSnapshot{
		CPU:       r.CPU,
		Memory:    r.Memory,
		Network:   r.Network,
		Disk:      r.Disk,
		Timestamp: r.RecordedAt,
	}
}

type healthRow struct {
	Overall    float64   `json:"overall_health"`
	CPU        float64   `json:"cpu_usage"`
	Memory     float64   `json:"memory_usage"`
	Network    float64   `json:"network_usage"`
	Disk       float64   `json:"disk_usage"`
	RecordedAt time.Time `json:"recorded_at"`
}

func (r healthRow) toDomain() domain.SystemHealthSnapshot {
	return domain.SystemHealthSnapshot{
		Overall:   r.Overall,
		CPU:       r.CPU,
		Memory:    r.Memory,
		Network:   r.Network,
		Disk:      r.Disk,
		Alerts:    []domain.AlertRecord{},
		Timestamp: r.RecordedAt,
	}
}

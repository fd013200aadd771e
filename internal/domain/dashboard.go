package domain

import "time"

// DashboardSummary: производные значения Store для главной страницы.
// Считаются в момент запроса, отдельно не кэшируются.
type DashboardSummary struct {
	Fleet        FleetStats        `json:"fleet"`        // Агенты
	Health       HealthStats       `json:"health"`       // Здоровье и ресурсы
	Connectivity ConnectivityStats `json:"connectivity"` // Связь с backend
	AlertCount   int               `json:"alert_count"`
	GeneratedAt  time.Time         `json:"generated_at"`
}

type FleetStats struct {
	Total    int                 `json:"total"`
	Active   int                 `json:"active"`
	ByStatus map[AgentStatus]int `json:"by_status"`
}

type HealthStats struct {
	Overall float64 `json:"overall"`
	CPU     float64 `json:"cpu"`
	Memory  float64 `json:"memory"`
	Disk    float64 `json:"disk"`
}

type ConnectivityStats struct {
	Database  bool   `json:"database"`
	Realtime  bool   `json:"realtime"`
	Degraded  bool   `json:"degraded"` // Хотя бы одна секция живет на синтетике
	LastError string `json:"last_error,omitempty"`
}

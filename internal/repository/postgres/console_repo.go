package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/cjaisingh/awip-mission-control-sub000/internal/domain"
)

// FetchSystemStatus берет последнюю запись system_state и считает агентов одним запросом.
func (r *BackendRepo) FetchSystemStatus(ctx context.Context) (domain.SystemStatus, error) {
	var s domain.SystemStatus
	err := r.pool.QueryRow(ctx, `
		SELECT
			st.status, st.version, st.environment, st.uptime_percentage, st.updated_at,
			(SELECT COUNT(*) FILTER (WHERE status = 'active') FROM agents),
			(SELECT COUNT(*) FROM agents)
		FROM system_state st
		ORDER BY st.updated_at DESC
		LIMIT 1`).Scan(&s.Status, &s.Version, &s.Environment, &s.Uptime, &s.Timestamp, &s.ActiveAgents, &s.TotalAgents)
	if err != nil {
		return domain.SystemStatus{}, fmt.Errorf("postgres: system state: %w", err)
	}
	return s, nil
}

// FetchMetrics: последний замер внутри окна rng.
func (r *BackendRepo) FetchMetrics(ctx context.Context, rng domain.TimeRange) (domain.SystemMetricsSnapshot, error) {
	var m domain.SystemMetricsSnapshot
	err := r.pool.QueryRow(ctx, `
		SELECT cpu_usage, memory_usage, network_usage, disk_usage, recorded_at
		FROM system_metrics
		WHERE recorded_at >= $1
		ORDER BY recorded_at DESC
		LIMIT 1`, rng.Since(time.Now().UTC())).Scan(&m.CPU, &m.Memory, &m.Network, &m.Disk, &m.Timestamp)
	if err != nil {
		return domain.SystemMetricsSnapshot{}, fmt.Errorf("postgres: metrics in %s: %w", rng, err)
	}
	return m, nil
}

func (r *BackendRepo) FetchHealth(ctx context.Context) (domain.SystemHealthSnapshot, error) {
	h := domain.SystemHealthSnapshot{Alerts: []domain.AlertRecord{}}
	err := r.pool.QueryRow(ctx, `
		SELECT overall_health, cpu_usage, memory_usage, network_usage, disk_usage, recorded_at
		FROM system_health
		ORDER BY recorded_at DESC
		LIMIT 1`).Scan(&h.Overall, &h.CPU, &h.Memory, &h.Network, &h.Disk, &h.Timestamp)
	if err != nil {
		return domain.SystemHealthSnapshot{}, fmt.Errorf("postgres: health: %w", err)
	}
	return h, nil
}

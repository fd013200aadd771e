package postgres

import (
	"context"
	"fmt"

	"github.com/cjaisingh/awip-mission-control-sub000/internal/domain"
)

// FetchAgents возвращает реестр агентов, упорядоченный по ID.
func (r *BackendRepo) FetchAgents(ctx context.Context, limit int) ([]domain.AgentRecord, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, domain, status, performance_score, last_heartbeat, capabilities
		FROM agents ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: query agents: %w", err)
	}
	defer rows.Close()

	out := make([]domain.AgentRecord, 0, limit)
	for rows.Next() {
		var a domain.AgentRecord
		var status string
		if err := rows.Scan(&a.ID, &a.Name, &a.Domain, &status, &a.PerformanceScore, &a.LastHeartbeat, &a.Capabilities); err != nil {
			return nil, fmt.Errorf("postgres: scan agent: %w", err)
		}
		a.Status = domain.AgentStatus(status)
		if a.Capabilities == nil {
			a.Capabilities = []string{}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

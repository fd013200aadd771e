package postgres

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/cjaisingh/awip-mission-control-sub000/internal/domain"
)

// FetchAlerts: последние limit алертов, от старых к новым.
func (r *BackendRepo) FetchAlerts(ctx context.Context, limit int) ([]domain.AlertRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, type, message, source, timestamp
		FROM alerts ORDER BY timestamp DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: query alerts: %w", err)
	}
	defer rows.Close()

	out := make([]domain.AlertRecord, 0, limit)
	for rows.Next() {
		var a domain.AlertRecord
		var typ string
		if err := rows.Scan(&a.ID, &typ, &a.Message, &a.Source, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("postgres: scan alert: %w", err)
		}
		a.Type = domain.AlertType(typ)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.Reverse(out)
	return out, nil
}

// PublishAlerts: пакетная вставка; уже известные ID пропускаются.
func (r *BackendRepo) PublishAlerts(ctx context.Context, alerts []domain.AlertRecord) error {
	if len(alerts) == 0 {
		return nil
	}

	// Количество колонок в таблице alerts
	numFields := 5
	var placeholders strings.Builder
	vals := make([]interface{}, 0, len(alerts)*numFields)

	// Динамически строим запрос для пакетной вставки
	for i, a := range alerts {
		p := i * numFields
		if i > 0 {
			placeholders.WriteString(",")
		}
		fmt.Fprintf(&placeholders, "($%d, $%d, $%d, $%d, $%d)", p+1, p+2, p+3, p+4, p+5)
		vals = append(vals, a.ID, string(a.Type), a.Message, a.Source, a.Timestamp)
	}

	query := "INSERT INTO alerts (id, type, message, source, timestamp) VALUES " +
		placeholders.String() + " ON CONFLICT (id) DO NOTHING"

	if _, err := r.pool.Exec(ctx, query, vals...); err != nil {
		return fmt.Errorf("postgres: insert alerts: %w", err)
	}
	return nil
}

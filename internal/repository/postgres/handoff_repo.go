package postgres

/*
Состояние handoff хранится целиком в JSONB: форма ConversationState меняется чаще схемы.
*/

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cjaisingh/awip-mission-control-sub000/internal/domain"
	"github.com/jackc/pgx/v5"
)

func (r *BackendRepo) FetchConversationState(ctx context.Context, id string) (*domain.ConversationState, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `SELECT state FROM conversation_handoffs WHERE id = $1`, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("conversation %s not found: %w", id, err)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	var st domain.ConversationState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("%w: conversation %s: %v", domain.ErrInvalidPayload, id, err)
	}
	st.ID = id
	return &st, nil
}

func (r *BackendRepo) SaveConversationState(ctx context.Context, st *domain.ConversationState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal conversation: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO conversation_handoffs (id, state, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET state = EXCLUDED.state, updated_at = NOW()`, st.ID, raw)
	if err != nil {
		return fmt.Errorf("postgres: save conversation: %w", err)
	}
	return nil
}

func (r *BackendRepo) SubmitStatusReport(ctx context.Context, rep domain.StatusReport) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO status_reports (id, conversation_id, author, summary, health, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rep.ID, rep.ConversationID, rep.Author, rep.Summary, rep.Health, rep.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: insert status report: %w", err)
	}
	return nil
}

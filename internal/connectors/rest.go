package connectors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cjaisingh/awip-mission-control-sub000/internal/domain"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/infra"
)

const maxErrorBody = 512

// RESTBackend ходит в PostgREST-совместимый backend (таблицы как /rest/v1/<table>).
type RESTBackend struct {
	baseURL   string
	apiKey    string
	endpoints infra.EndpointsConfig
	client    *http.Client
	throttle  time.Duration
}

func NewRESTBackend(cfg infra.BackendConfig, endpoints infra.EndpointsConfig) *RESTBackend {
	return &RESTBackend{
		baseURL:   strings.TrimRight(cfg.URL, "/"),
		apiKey:    cfg.APIKey,
		endpoints: endpoints,
		client:    &http.Client{Timeout: cfg.RequestTimeout},
		throttle:  cfg.ThrottleDelay,
	}
}

func (b *RESTBackend) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	target := b.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", b.apiKey)
	req.Header.Set("Authorization", "Bearer "+b.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		// upsert для conversation_handoffs
		req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &ThrottleError{
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), b.throttle),
			Cause:      fmt.Errorf("%s %s: status 429", method, path),
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// parseRetryAfter понимает только секунды; иначе def.
func parseRetryAfter(h string, def time.Duration) time.Duration {
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return def
}

func latest(order string) url.Values {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", order+".desc")
	q.Set("limit", "1")
	return q
}

func (b *RESTBackend) FetchSystemStatus(ctx context.Context) (domain.SystemStatus, error) {
	var rows []systemStateRow
	if err := b.do(ctx, http.MethodGet, b.endpoints.SystemState, latest("updated_at"), nil, &rows); err != nil {
		return domain.SystemStatus{}, err
	}
	if len(rows) == 0 {
		return domain.SystemStatus{}, fmt.Errorf("system_state: %w", ErrNotFound)
	}
	return rows[0].toDomain(), nil
}

func (b *RESTBackend) FetchAgents(ctx context.Context, limit int) ([]domain.AgentRecord, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "id.asc")
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var rows []agentRow
	if err := b.do(ctx, http.MethodGet, b.endpoints.Agents, q, nil, &rows); err != nil {
		return nil, err
	}
	out := make([]domain.AgentRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (b *RESTBackend) FetchMetrics(ctx context.Context, rng domain.TimeRange) (domain.SystemMetricsSnapshot, error) {
	q := latest("recorded_at")
	q.Set("recorded_at", "gte."+rng.Since(time.Now().UTC()).Format(time.RFC3339))
	var rows []metricsRow
	if err := b.do(ctx, http.MethodGet, b.endpoints.Metrics, q, nil, &rows); err != nil {
		return domain.SystemMetricsSnapshot{}, err
	}
	if len(rows) == 0 {
		return domain.SystemMetricsSnapshot{}, fmt.Errorf("system_metrics in %s: %w", rng, ErrNotFound)
	}
	return rows[0].toDomain(), nil
}

func (b *RESTBackend) FetchHealth(ctx context.Context) (domain.SystemHealthSnapshot, error) {
	var rows []healthRow
	if err := b.do(ctx, http.MethodGet, b.endpoints.Health, latest("recorded_at"), nil, &rows); err != nil {
		return domain.SystemHealthSnapshot{}, err
	}
	if len(rows) == 0 {
		return domain.SystemHealthSnapshot{}, fmt.Errorf("system_health: %w", ErrNotFound)
	}
	return rows[0].toDomain(), nil
}

// FetchAlerts возвращает алерты от старых к новым.
func (b *RESTBackend) FetchAlerts(ctx context.Context, limit int) ([]domain.AlertRecord, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "timestamp.desc")
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var rows []domain.AlertRecord
	if err := b.do(ctx, http.MethodGet, b.endpoints.Alerts, q, nil, &rows); err != nil {
		return nil, err
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

func (b *RESTBackend) FetchConversationState(ctx context.Context, id string) (*domain.ConversationState, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("id", "eq."+id)
	q.Set("limit", "1")
	var rows []domain.ConversationState
	if err := b.do(ctx, http.MethodGet, b.endpoints.Handoff, q, nil, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("conversation %s: %w", id, ErrNotFound)
	}
	return &rows[0], nil
}

func (b *RESTBackend) SaveConversationState(ctx context.Context, state *domain.ConversationState) error {
	return b.do(ctx, http.MethodPost, b.endpoints.Handoff, nil, state, nil)
}

func (b *RESTBackend) SubmitStatusReport(ctx context.Context, report domain.StatusReport) error {
	return b.do(ctx, http.MethodPost, b.endpoints.StatusReports, nil, report, nil)
}

func (b *RESTBackend) PublishAlerts(ctx context.Context, alerts []domain.AlertRecord) error {
	if len(alerts) == 0 {
		return nil
	}
	return b.do(ctx, http.MethodPost, b.endpoints.Alerts, nil, alerts, nil)
}

// Ping: дешевый запрос для проверки доступности.
func (b *RESTBackend) Ping(ctx context.Context) error {
	q := url.Values{}
	q.Set("select", "status")
	q.Set("limit", "1")
	return b.do(ctx, http.MethodGet, b.endpoints.SystemState, q, nil, &[]json.RawMessage{})
}

package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cjaisingh/awip-mission-control-sub000/internal/domain"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/infra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func testConfig(t *testing.T) *infra.Config {
	t.Helper()
	cfg, err := infra.LoadConfig()
	require.NoError(t, err)
	cfg.Reliability.RateLimit = 1000
	cfg.Reliability.RateBurst = 1000
	cfg.Backend.RequestTimeout = time.Second
	cfg.LLM.Timeout = time.Second
	return cfg
}

// assertAllFallback проверяет, что каждый вызов вернул валидное значение с пометкой Synthetic.
func assertAllFallback(t *testing.T, gw *Gateway) {
	t.Helper()
	ctx := context.Background()

	st := gw.SystemStatus(ctx)
	assert.True(t, st.Synthetic)
	assert.Error(t, st.Err)
	assert.NoError(t, st.Value.Validate())

	ag := gw.Agents(ctx, 50)
	assert.True(t, ag.Synthetic)
	assert.NotEmpty(t, ag.Value)
	assert.NoError(t, domain.ValidateAgents(ag.Value))

	m := gw.Metrics(ctx, domain.Range7Days)
	assert.True(t, m.Synthetic)
	assert.NoError(t, m.Value.Validate())

	h := gw.Health(ctx)
	assert.True(t, h.Synthetic)
	assert.NoError(t, h.Value.Validate())

	al := gw.Alerts(ctx, 4)
	assert.True(t, al.Synthetic)
	assert.Len(t, al.Value, 4)

	cs := gw.ConversationState(ctx, "conv-1")
	assert.True(t, cs.Synthetic)
	require.NotNil(t, cs.Value)
	assert.Equal(t, "conv-1", cs.Value.ID)

	c := gw.Complete(ctx, "sys", "hello")
	assert.True(t, c.Synthetic)
	assert.NotEmpty(t, c.Value)
}

func TestGateway_FallbackTotality_FailingBackend(t *testing.T) {
	gw := NewGateway(testConfig(t), newFakeBackend("*"), nil, nil, nil, zap.NewNop())
	assertAllFallback(t, gw)
}

func TestGateway_FallbackTotality_NotConfigured(t *testing.T) {
	gw := NewGateway(testConfig(t), nil, nil, nil, nil, zap.NewNop())
	assert.False(t, gw.Available())
	assertAllFallback(t, gw)

	res := gw.Agents(context.Background(), 5)
	assert.ErrorIs(t, res.Err, ErrNotConfigured)
	assert.Len(t, res.Value, 5)
}

func TestGateway_RemoteSuccess(t *testing.T) {
	gw := NewGateway(testConfig(t), newFakeBackend(), nil, nil, nil, zap.NewNop())

	ag := gw.Agents(context.Background(), 10)
	require.False(t, ag.Synthetic)
	require.NoError(t, ag.Err)
	assert.Equal(t, "remote-1", ag.Value[0].Name)

	st := gw.SystemStatus(context.Background())
	assert.False(t, st.Synthetic)
	assert.Equal(t, "remote", st.Value.Version)

	cs := gw.ConversationState(context.Background(), "c1")
	assert.False(t, cs.Synthetic)
	assert.NotNil(t, cs.Value.WorkingComponents, "remote record is normalized")
}

type invalidAgentsBackend struct{ *fakeBackend }

func (invalidAgentsBackend) FetchAgents(context.Context, int) ([]domain.AgentRecord, error) {
	return []domain.AgentRecord{{ID: 1, Name: "x", Status: "bogus"}}, nil
}

func TestGateway_MalformedPayloadFallsBack(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	gw := NewGateway(testConfig(t), invalidAgentsBackend{newFakeBackend()}, nil, nil, nil, zap.New(core))

	res := gw.Agents(context.Background(), 3)
	assert.True(t, res.Synthetic)
	assert.ErrorIs(t, res.Err, domain.ErrInvalidPayload)
	assert.NoError(t, domain.ValidateAgents(res.Value))
	assert.Equal(t, 1, logs.FilterMessage("remote call failed, serving synthetic data").Len())
}

func TestGateway_WritesAreFailSoft(t *testing.T) {
	fb := newFakeBackend()
	gw := NewGateway(testConfig(t), fb, nil, nil, nil, zap.NewNop())
	ctx := context.Background()

	out := gw.SaveConversationState(ctx, domain.NewConversationState("c1"))
	assert.True(t, out.Persisted)
	out = gw.SubmitStatusReport(ctx, domain.StatusReport{ID: "r1"})
	assert.True(t, out.Persisted)
	assert.Len(t, fb.reports, 1)

	fb.setFailing("status_reports", true)
	out = gw.SubmitStatusReport(ctx, domain.StatusReport{ID: "r2"})
	assert.False(t, out.Persisted)
	assert.Error(t, out.Err)

	none := NewGateway(testConfig(t), nil, nil, nil, nil, zap.NewNop())
	out = none.PublishAlerts(ctx, []domain.AlertRecord{domain.NewAlert(domain.AlertInfo, "t", "m")})
	assert.ErrorIs(t, out.Err, ErrNotConfigured)
}

type stubCompleter struct {
	text string
	err  error
}

func (s stubCompleter) Complete(context.Context, string, string) (string, error) { return s.text, s.err }

func TestGateway_Complete(t *testing.T) {
	cfg := testConfig(t)

	ok := NewGateway(cfg, nil, stubCompleter{text: "hello operator"}, nil, nil, zap.NewNop())
	res := ok.Complete(context.Background(), "", "hi")
	assert.False(t, res.Synthetic)
	assert.Equal(t, "hello operator", res.Value)

	bad := NewGateway(cfg, nil, stubCompleter{err: errors.New("502")}, nil, nil, zap.NewNop())
	res = bad.Complete(context.Background(), "", "hi")
	assert.True(t, res.Synthetic)
	assert.Contains(t, res.Value, "[offline]")
}

func TestGateway_SubscribeWithoutRealtimeIsNoop(t *testing.T) {
	gw := NewGateway(testConfig(t), nil, nil, nil, nil, zap.NewNop())
	sub := gw.Subscribe(context.Background(), infra.ConcernAgents, func(Event) { t.Fatal("no events expected") })
	assert.Equal(t, NoopSubscription(), sub)
	sub.Unsubscribe()
	sub.Unsubscribe()
}

func TestResult_OrElse(t *testing.T) {
	r := Attempt(0, errors.New("x")).OrElse(func() int { return 7 })
	assert.Equal(t, 7, r.Value)
	assert.True(t, r.Synthetic)

	r = Attempt(3, nil).OrElse(func() int { return 7 })
	assert.Equal(t, 3, r.Value)
	assert.False(t, r.Synthetic)
}

func TestParseEvent(t *testing.T) {
	ev, ok := parseEvent("awip:realtime:alerts:INSERT", `{"id":"a"}`)
	require.True(t, ok)
	assert.Equal(t, "alerts", ev.Table)
	assert.Equal(t, infra.EventInsert, ev.Type)

	_, ok = parseEvent("awip:realtime:alerts:INSERT", `{broken`)
	assert.False(t, ok)
	_, ok = parseEvent("other", "")
	assert.False(t, ok)
}

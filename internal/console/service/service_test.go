package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"github.com/cjaisingh/awip-mission-control-sub000/internal/domain"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/engine"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/infra"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/infra/auth"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func testConfig(t *testing.T) *infra.Config {
	t.Helper()
	cfg, err := infra.LoadConfig()
	require.NoError(t, err)
	return cfg
}

func newStore(t *testing.T) *store.Store {
	return store.New(testConfig(t), nil, zap.NewNop())
}

// scriptedLLM отдает заранее заданный ответ.
type scriptedLLM struct {
	reply     string
	synthetic bool
	system    string
}

func (s *scriptedLLM) Complete(_ context.Context, system, _ string) engine.Fetched[string] {
	s.system = system
	return engine.Fetched[string]{Value: s.reply, Synthetic: s.synthetic}
}

func TestAuthService_LoginAndLogout(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := testConfig(t).Auth
	cfg.OperatorPasswordHash = string(hash)
	st := newStore(t)
	svc := NewAuthService(cfg, auth.NewSigner(key, time.Hour), st, zap.NewNop())

	_, err = svc.GenerateToken(context.Background(), cfg.OperatorUsername, "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.GenerateToken(context.Background(), "intruder", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	resp, err := svc.GenerateToken(context.Background(), cfg.OperatorUsername, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Positive(t, resp.ExpiresIn)

	sess, ok := st.Session()
	require.True(t, ok)
	assert.True(t, sess.HasPermission("handoff.write"))

	claims, err := auth.NewRSAValidator(&key.PublicKey).VerifyToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, claims.SessionID)

	// токен от старой сессии не закрывает текущую
	stale := *claims
	stale.SessionID = "old"
	svc.Logout(auth.WithClaims(context.Background(), &stale))
	_, ok = st.Session()
	assert.True(t, ok)

	svc.Logout(auth.WithClaims(context.Background(), claims))
	_, ok = st.Session()
	assert.False(t, ok)
}

func TestAuthService_AuthorizeTracksCurrentSession(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := testConfig(t).Auth
	cfg.OperatorPasswordHash = string(hash)
	st := newStore(t)
	svc := NewAuthService(cfg, auth.NewSigner(key, time.Hour), st, zap.NewNop())
	validator := auth.NewRSAValidator(&key.PublicKey)

	login := func() context.Context {
		resp, err := svc.GenerateToken(context.Background(), cfg.OperatorUsername, "s3cret")
		require.NoError(t, err)
		claims, err := validator.VerifyToken(resp.AccessToken)
		require.NoError(t, err)
		return auth.WithClaims(context.Background(), claims)
	}

	first := login()
	require.NoError(t, svc.Authorize(first))

	// частые запросы не пишут активность в Store
	rev := st.Snapshot().Revision
	require.NoError(t, svc.Authorize(first))
	assert.Equal(t, rev, st.Snapshot().Revision)

	// новый login отзывает старый токен
	second := login()
	assert.ErrorIs(t, svc.Authorize(first), ErrSessionRevoked)
	require.NoError(t, svc.Authorize(second))

	svc.Logout(second)
	assert.ErrorIs(t, svc.Authorize(second), ErrSessionRevoked)

	// без claims (auth выключен) пропускаем
	assert.NoError(t, svc.Authorize(context.Background()))
}

func TestAuthService_AuthorizeTouchesIdleSession(t *testing.T) {
	cfg := testConfig(t).Auth
	cfg.SessionTouchInterval = 0
	st := newStore(t)
	svc := NewAuthService(cfg, nil, st, zap.NewNop())

	st.StartSession(domain.SessionState{ID: "sess-1", Permissions: []string{"admin"}})
	ctx := auth.WithClaims(context.Background(), &domain.CustomClaims{SessionID: "sess-1"})

	rev := st.Snapshot().Revision
	require.NoError(t, svc.Authorize(ctx))
	assert.Greater(t, st.Snapshot().Revision, rev)
}

func TestAuthService_DisabledWithoutKeys(t *testing.T) {
	svc := NewAuthService(testConfig(t).Auth, nil, newStore(t), zap.NewNop())
	_, err := svc.GenerateToken(context.Background(), "operator", "x")
	assert.ErrorIs(t, err, ErrAuthDisabled)
}

func TestAgentService_Chat(t *testing.T) {
	st := newStore(t)
	st.UpdateAgents([]domain.AgentRecord{
		{ID: 7, Name: "Sentinel", Domain: "security", Status: domain.StatusWarning, Capabilities: []string{"scan"}},
	}, store.SourceRemote)

	llm := &scriptedLLM{reply: "all quiet"}
	svc := NewAgentService(llm, st, zap.NewNop())

	reply, err := svc.Chat(context.Background(), 7, "status?")
	require.NoError(t, err)
	assert.Equal(t, "Sentinel", reply.AgentName)
	assert.Equal(t, "all quiet", reply.Reply)
	assert.Contains(t, llm.system, "security")

	_, err = svc.Chat(context.Background(), 99, "hi")
	assert.True(t, errors.Is(err, ErrAgentNotFound))

	_, err = svc.Chat(context.Background(), 7, "   ")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestAgentService_ChatFallsBackToMockText(t *testing.T) {
	st := newStore(t)
	st.UpdateAgents([]domain.AgentRecord{{ID: 1, Name: "Atlas", Domain: "ops", Status: domain.StatusActive, Capabilities: []string{}}}, store.SourceRemote)
	gw := engine.NewGateway(testConfig(t), nil, nil, nil, nil, zap.NewNop())

	reply, err := NewAgentService(gw, st, zap.NewNop()).Chat(context.Background(), 1, "ping")
	require.NoError(t, err)
	assert.True(t, reply.Synthetic)
	assert.NotEmpty(t, reply.Reply)
}

func TestParseTriples(t *testing.T) {
	raw := "Atlas | monitors | cluster\n" +
		"1. Sentinel | guards | perimeter\n" +
		"noise without pipes\n" +
		"a | | b\n" +
		"x | y | z | w\n"
	got := ParseTriples(raw)
	require.Len(t, got, 2)
	assert.Equal(t, Triple{Subject: "Atlas", Predicate: "monitors", Object: "cluster"}, got[0])
	assert.Equal(t, "Sentinel", got[1].Subject)
	assert.Empty(t, ParseTriples(""))
}

func TestAgentService_ExtractSkipsSyntheticText(t *testing.T) {
	svc := NewAgentService(&scriptedLLM{reply: "a | b | c", synthetic: true}, newStore(t), zap.NewNop())
	res, err := svc.ExtractTriples(context.Background(), "text")
	require.NoError(t, err)
	assert.True(t, res.Synthetic)
	assert.Empty(t, res.Triples)

	svc = NewAgentService(&scriptedLLM{reply: "a | b | c"}, newStore(t), zap.NewNop())
	res, err = svc.ExtractTriples(context.Background(), "text")
	require.NoError(t, err)
	assert.Len(t, res.Triples, 1)
}

func TestStateService(t *testing.T) {
	cfg := testConfig(t)
	st := newStore(t)
	gw := engine.NewGateway(cfg, nil, nil, nil, nil, zap.NewNop())
	svc := NewStateService(st, gw, 5, 5, zap.NewNop())

	a, err := svc.RaiseAlert(domain.AlertWarning, "manual check")
	require.NoError(t, err)
	assert.Equal(t, "operator", a.Source)
	assert.Len(t, svc.Snapshot().Alerts.Items, 1)

	_, err = svc.RaiseAlert("loud", "x")
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)

	svc.ClearAlerts()
	assert.Empty(t, svc.Snapshot().Alerts.Items)

	_, err = svc.Agents("sleeping")
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)

	q := svc.QueryAgents(context.Background(), 0)
	assert.True(t, q.Synthetic)
	assert.Len(t, q.Data, 5)

	m := svc.QueryMetrics(context.Background(), domain.Range7Days)
	assert.True(t, m.Synthetic)
	assert.NoError(t, m.Data.Validate())
}

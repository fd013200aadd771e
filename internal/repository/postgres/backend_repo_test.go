package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/cjaisingh/awip-mission-control-sub000/internal/domain"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/engine"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/infra"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ engine.Backend = (*BackendRepo)(nil)

// newTestRepo подключается к живой базе из AWIP_TEST_DATABASE_URL, иначе тест пропускается.
func newTestRepo(t *testing.T) *BackendRepo {
	t.Helper()
	dsn := os.Getenv("AWIP_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("AWIP_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	repo, err := NewBackendRepo(ctx, infra.BackendConfig{DatabaseURL: dsn, MaxConns: 2})
	require.NoError(t, err)
	t.Cleanup(repo.Close)
	require.NoError(t, repo.Ping(ctx))
	require.NoError(t, repo.EnsureSchema(ctx))
	return repo
}

func TestBackendRepo_AlertsRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := domain.NewAlert(domain.AlertWarning, "test", "disk filling "+uuid.NewString())
	require.NoError(t, repo.PublishAlerts(ctx, []domain.AlertRecord{a, a}))

	alerts, err := repo.FetchAlerts(ctx, 50)
	require.NoError(t, err)
	found := false
	for _, got := range alerts {
		if got.ID == a.ID {
			found = true
			assert.Equal(t, a.Message, got.Message)
		}
	}
	assert.True(t, found)
}

func TestBackendRepo_ConversationUpsert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	st := domain.NewConversationState(uuid.NewString())
	st.AddPriority("Fix X")
	require.NoError(t, repo.SaveConversationState(ctx, st))

	st.AddBlockingIssue("Issue A")
	require.NoError(t, repo.SaveConversationState(ctx, st))

	got, err := repo.FetchConversationState(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Fix X"}, got.Priorities)
	assert.Equal(t, []string{"Issue A"}, got.BlockingIssues)

	_, err = repo.FetchConversationState(ctx, "missing-"+uuid.NewString())
	assert.Error(t, err)
}

func TestBackendRepo_StatusReport(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.SubmitStatusReport(context.Background(), domain.StatusReport{
		ID: uuid.NewString(), ConversationID: "c", Author: "ops", Summary: "green", Health: 90, CreatedAt: time.Now().UTC(),
	}))
}

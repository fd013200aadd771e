package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeRange_Window(t *testing.T) {
	cases := map[TimeRange]time.Duration{
		RangeLastHour: time.Hour,
		Range6Hours:   6 * time.Hour,
		Range12Hours:  12 * time.Hour,
		Range24Hours:  24 * time.Hour,
		Range7Days:    7 * 24 * time.Hour,
		Range30Days:   30 * 24 * time.Hour,
		"90d":         24 * time.Hour,
		"":            24 * time.Hour,
	}
	for r, want := range cases {
		assert.Equal(t, want, r.Window(), "range %q", r)
	}

	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(-time.Hour), RangeLastHour.Since(now))
}

func TestAgentRecord_Validate(t *testing.T) {
	score := 87.5
	ok := AgentRecord{ID: 1, Name: "Sentinel", Domain: "security", Status: StatusActive, PerformanceScore: &score}
	require.NoError(t, ok.Validate())

	bad := ok
	bad.Status = "sleeping"
	assert.True(t, errors.Is(bad.Validate(), ErrInvalidPayload))

	outOfRange := 120.0
	bad = ok
	bad.PerformanceScore = &outOfRange
	assert.Error(t, bad.Validate())

	assert.Error(t, ValidateAgents([]AgentRecord{ok, ok}), "duplicate ids must be rejected")
}

func TestCloneAgents_IsDeep(t *testing.T) {
	score := 50.0
	src := []AgentRecord{{ID: 1, Name: "a", Status: StatusActive, PerformanceScore: &score, Capabilities: []string{"x"}}}
	dst := CloneAgents(src)

	*src[0].PerformanceScore = 10
	src[0].Capabilities[0] = "mutated"

	assert.Equal(t, 50.0, *dst[0].PerformanceScore)
	assert.Equal(t, "x", dst[0].Capabilities[0])
	assert.NotNil(t, CloneAgents(nil))
}

func TestCloneAgents_KeepsEmptyCapabilities(t *testing.T) {
	src := []AgentRecord{{ID: 1, Name: "a", Status: StatusActive, Capabilities: []string{}}}
	dst := CloneAgents(src)

	assert.Equal(t, src, dst)
	require.NotNil(t, dst[0].Capabilities)
	raw, err := json.Marshal(dst[0])
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"capabilities":[]`)
}

func TestMetricsSnapshot_Validate(t *testing.T) {
	m := SystemMetricsSnapshot{CPU: 10, Memory: 20, Network: 30, Disk: 40, Timestamp: time.Now()}
	require.NoError(t, m.Validate())

	m.Disk = -1
	assert.Error(t, m.Validate())

	m.Disk = 10
	m.Timestamp = time.Time{}
	assert.Error(t, m.Validate())
}

func TestOverallFromMetrics(t *testing.T) {
	assert.Equal(t, 100.0, OverallFromMetrics(0, 0, 0, 0))
	assert.Equal(t, 0.0, OverallFromMetrics(100, 100, 100, 100))
	mid := OverallFromMetrics(50, 50, 50, 50)
	assert.InDelta(t, 50.0, mid, 0.001)
}

func TestSystemStatus_Validate(t *testing.T) {
	s := SystemStatus{Status: SystemOperational, ActiveAgents: 3, TotalAgents: 20, Uptime: 99.9}
	require.NoError(t, s.Validate())

	s.ActiveAgents = 21
	assert.Error(t, s.Validate())

	s = SystemStatus{Status: "party"}
	assert.Error(t, s.Validate())
}

func TestConversationState_Updates(t *testing.T) {
	c := NewConversationState("conv-1")

	c.AddPriority("Fix X")
	c.AddPriority("Fix X")
	c.AddPriority("")
	assert.Equal(t, []string{"Fix X"}, c.Priorities)

	c.MarkWorking("gateway", "serving")
	c.MarkBroken("gateway", "timeouts")
	assert.NotContains(t, c.WorkingComponents, "gateway")
	assert.Equal(t, "timeouts", c.BrokenComponents["gateway"])

	c.AddBlockingIssue("Issue A")
	c.ResolveBlockingIssue("Issue A")
	assert.Empty(t, c.BlockingIssues)

	c.CreditsRemaining = 5
	c.RecordUsage(7)
	assert.Equal(t, 7.0, c.CreditsUsed)
	assert.Equal(t, 0.0, c.CreditsRemaining)

	c.SetHealth(140)
	assert.Equal(t, 100.0, c.HealthPercentage)
	assert.False(t, c.UpdatedAt.IsZero())
}

func TestConversationState_NilMapsAreInitialized(t *testing.T) {
	c := &ConversationState{}
	c.MarkWorking("store", "ok")
	assert.Equal(t, "ok", c.WorkingComponents["store"])
}

func TestSessionState_HasPermission(t *testing.T) {
	s := SessionState{Permissions: []string{"handoff.read"}}
	assert.True(t, s.HasPermission("handoff.read"))
	assert.False(t, s.HasPermission("handoff.write"))

	admin := SessionState{Permissions: []string{"admin"}}
	assert.True(t, admin.HasPermission("anything"))
}

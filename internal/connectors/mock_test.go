package connectors

import (
	"testing"

	"github.com/cjaisingh/awip-mission-control-sub000/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesizer_AgentsAreValid(t *testing.T) {
	s := NewSynthesizer(20, 42)

	agents := s.Agents(0)
	require.Len(t, agents, 20)
	require.NoError(t, domain.ValidateAgents(agents))
	assert.Len(t, s.Agents(5), 5)
}

func TestSynthesizer_SameSeedSameFleet(t *testing.T) {
	a := NewSynthesizer(20, 7).Agents(0)
	b := NewSynthesizer(20, 7).Agents(0)
	for i := range a {
		assert.Equal(t, a[i].Status, b[i].Status)
		assert.Equal(t, *a[i].PerformanceScore, *b[i].PerformanceScore)
	}
}

func TestSynthesizer_SnapshotsAreValid(t *testing.T) {
	s := NewSynthesizer(0, 1)

	require.NoError(t, s.Metrics(domain.Range24Hours).Validate())
	require.NoError(t, s.Health().Validate())

	status := s.SystemStatus("1.0.0", "test")
	require.NoError(t, status.Validate())
	assert.Equal(t, domain.SystemDegraded, status.Status)
	assert.Equal(t, 20, status.TotalAgents)

	alerts := s.Alerts(3)
	require.Len(t, alerts, 3)
	for _, a := range alerts {
		require.NoError(t, a.Validate())
	}
	assert.True(t, alerts[0].Timestamp.Before(alerts[2].Timestamp))
}

func TestSynthesizer_CompletionIsMarkedOffline(t *testing.T) {
	s := NewSynthesizer(0, 1)
	assert.Contains(t, s.Completion("status please"), "[offline]")
	assert.Equal(t, "offline", s.ConversationState("c1").Phase)
}

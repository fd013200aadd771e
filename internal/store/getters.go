package store

import (
	"slices"
	"time"

	"github.com/cjaisingh/awip-mission-control-sub000/internal/domain"
)

// Геттеры считаются на лету из текущего состояния и нигде не кэшируются.

func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

func (s *Store) ActiveAgentCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, a := range s.state.Agents.Items {
		if a.Status == domain.StatusActive {
			n++
		}
	}
	return n
}

func (s *Store) TotalAgentCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state.Agents.Items)
}

func (s *Store) AgentsByStatus(status domain.AgentStatus) []domain.AgentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.AgentRecord, 0)
	for _, a := range s.state.Agents.Items {
		if a.Status == status {
			out = append(out, a)
		}
	}
	return domain.CloneAgents(out)
}

// Agent ищет агента по ID.
func (s *Store) Agent(id int) (domain.AgentRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.state.Agents.Items {
		if a.ID == id {
			return domain.CloneAgents([]domain.AgentRecord{a})[0], true
		}
	}
	return domain.AgentRecord{}, false
}

func (s *Store) OverallHealth() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Health.Overall
}

func (s *Store) IsDatabaseConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Connection.Database
}

func (s *Store) IsRealtimeConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Connection.Realtime
}

// IsDegraded: хотя бы одна секция живет на синтетике или БД отключена.
func (s *Store) IsDegraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.degraded()
}

func (st *State) degraded() bool {
	if !st.Connection.Database && !st.System.LastUpdated.IsZero() {
		return true
	}
	for _, src := range []Source{st.System.Source, st.Agents.Source, st.Metrics.Source, st.Health.Source} {
		if src == SourceSynthetic {
			return true
		}
	}
	return false
}

func containsAlert(items []domain.AlertRecord, id string) bool {
	return slices.ContainsFunc(items, func(a domain.AlertRecord) bool { return a.ID == id })
}

func (s *Store) Session() (domain.SessionState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.Session.Session == nil {
		return domain.SessionState{}, false
	}
	return *s.state.clone().Session.Session, true
}

// Summary: сводка для дашборда.
func (s *Store) Summary() domain.DashboardSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := &s.state

	byStatus := make(map[domain.AgentStatus]int)
	for _, a := range st.Agents.Items {
		byStatus[a.Status]++
	}
	return domain.DashboardSummary{
		Fleet: domain.FleetStats{
			Total:    len(st.Agents.Items),
			Active:   byStatus[domain.StatusActive],
			ByStatus: byStatus,
		},
		Health: domain.HealthStats{
			Overall: st.Health.Overall,
			CPU:     st.Metrics.CPU,
			Memory:  st.Metrics.Memory,
			Disk:    st.Metrics.Disk,
		},
		Connectivity: domain.ConnectivityStats{
			Database:  st.Connection.Database,
			Realtime:  st.Connection.Realtime,
			Degraded:  st.degraded(),
			LastError: st.Connection.DatabaseError,
		},
		AlertCount:  len(st.Alerts.Items),
		GeneratedAt: s.now(),
	}
}

// SectionUpdated: когда секция обновлялась в последний раз.
func (s *Store) SectionUpdated(section string) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch section {
	case "system":
		return s.state.System.LastUpdated
	case "agents":
		return s.state.Agents.LastUpdated
	case "metrics":
		return s.state.Metrics.LastUpdated
	case "health":
		return s.state.Health.LastUpdated
	case "alerts":
		return s.state.Alerts.LastUpdated
	case "session":
		return s.state.Session.LastUpdated
	case "connection":
		return s.state.Connection.LastUpdated
	}
	return time.Time{}
}

package connectors

import (
	"fmt"
	"math/rand/v2" // Используем v2 для Go 1.25
	"strings"
	"sync"
	"time"

	"github.com/cjaisingh/awip-mission-control-sub000/internal/domain"
	"github.com/google/uuid"
)

// Реестр вымышленного флота. Порядок важен: ID агента = индекс + 1.
var fleet = []struct {
	name, domain string
	caps         []string
}{
	{"Sentinel", "security", []string{"threat-detection", "audit"}},
	{"Cartographer", "infrastructure", []string{"topology", "discovery"}},
	{"Ledger", "finance", []string{"reconciliation", "reporting"}},
	{"Herald", "communications", []string{"notifications", "digest"}},
	{"Oracle", "analytics", []string{"forecasting", "anomaly-detection"}},
	{"Custodian", "storage", []string{"backup", "retention"}},
	{"Pathfinder", "routing", []string{"load-balancing", "failover"}},
	{"Scribe", "documentation", []string{"summarization", "indexing"}},
	{"Warden", "compliance", []string{"policy-check", "evidence"}},
	{"Tinker", "maintenance", []string{"patching", "cleanup"}},
	{"Beacon", "monitoring", []string{"heartbeat", "uptime"}},
	{"Courier", "integration", []string{"webhooks", "sync"}},
	{"Alchemist", "data-processing", []string{"etl", "enrichment"}},
	{"Navigator", "planning", []string{"scheduling", "capacity"}},
	{"Archivist", "knowledge", []string{"triple-extraction", "search"}},
	{"Envoy", "customer", []string{"chat", "triage"}},
	{"Forge", "deployment", []string{"build", "release"}},
	{"Lookout", "observability", []string{"tracing", "logs"}},
	{"Quartermaster", "resources", []string{"quota", "billing"}},
	{"Arbiter", "orchestration", []string{"delegation", "consensus"}},
}

var alertTemplates = []struct {
	t   domain.AlertType
	msg string
}{
	{domain.AlertInfo, "Scheduled maintenance window completed"},
	{domain.AlertWarning, "Agent heartbeat latency above baseline"},
	{domain.AlertWarning, "Memory usage trending upward"},
	{domain.AlertError, "Agent task queue stalled"},
	{domain.AlertInfo, "Knowledge index refreshed"},
	{domain.AlertCritical, "Disk usage near capacity on storage node"},
}

// Synthesizer генерирует структурно валидные, но заведомо неавторитетные данные.
// Используется как фолбэк, когда backend недоступен.
type Synthesizer struct {
	mu         sync.Mutex
	rnd        *rand.Rand
	agentCount int
	now        func() time.Time
}

// NewSynthesizer создает генератор. seed == 0: случайное зерно.
func NewSynthesizer(agentCount int, seed uint64) *Synthesizer {
	if seed == 0 {
		seed = rand.Uint64()
	}
	if agentCount <= 0 || agentCount > len(fleet) {
		agentCount = len(fleet)
	}
	return &Synthesizer{
		rnd:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		agentCount: agentCount,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// between возвращает число в [lo, hi). Вызывать под мьютексом.
func (s *Synthesizer) between(lo, hi float64) float64 {
	return lo + s.rnd.Float64()*(hi-lo)
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

// Agents возвращает не более limit агентов (limit <= 0: весь флот).
func (s *Synthesizer) Agents(limit int) []domain.AgentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.agentCount
	if limit > 0 && limit < n {
		n = limit
	}
	now := s.now()
	out := make([]domain.AgentRecord, 0, n)
	for i := 0; i < n; i++ {
		f := fleet[i]
		status := s.pickStatus()
		score := round1(s.between(60, 99))
		hb := now.Add(-time.Duration(s.rnd.IntN(120)) * time.Second)
		rec := domain.AgentRecord{
			ID:               i + 1,
			Name:             f.name,
			Domain:           f.domain,
			Status:           status,
			PerformanceScore: &score,
			Capabilities:     append([]string(nil), f.caps...),
		}
		if status != domain.StatusInactive {
			rec.LastHeartbeat = &hb
		}
		out = append(out, rec)
	}
	return out
}

// pickStatus: 70% active, 15% warning, 10% inactive, 5% error.
func (s *Synthesizer) pickStatus() domain.AgentStatus {
	switch p := s.rnd.IntN(100); {
	case p < 70:
		return domain.StatusActive
	case p < 85:
		return domain.StatusWarning
	case p < 95:
		return domain.StatusInactive
	default:
		return domain.StatusError
	}
}

// Metrics: снапшот загрузки. Чем шире окно, тем ровнее значения.
func (s *Synthesizer) Metrics(rng domain.TimeRange) domain.SystemMetricsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	jitter := 20.0
	if rng.Window() >= 7*24*time.Hour {
		jitter = 8
	}
	return domain.SystemMetricsSnapshot{
		CPU:       round1(s.between(35, 35+jitter)),
		Memory:    round1(s.between(45, 45+jitter)),
		Network:   round1(s.between(15, 15+jitter)),
		Disk:      round1(s.between(50, 50+jitter/2)),
		Timestamp: s.now(),
	}
}

func (s *Synthesizer) Health() domain.SystemHealthSnapshot {
	m := s.Metrics(domain.RangeLastHour)
	return domain.SystemHealthSnapshot{
		Overall:   round1(domain.OverallFromMetrics(m.CPU, m.Memory, m.Network, m.Disk)),
		CPU:       m.CPU,
		Memory:    m.Memory,
		Network:   m.Network,
		Disk:      m.Disk,
		Alerts:    []domain.AlertRecord{},
		Timestamp: m.Timestamp,
	}
}

// Alerts: последние limit синтетических алертов, от старых к новым.
func (s *Synthesizer) Alerts(limit int) []domain.AlertRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 5
	}
	now := s.now()
	out := make([]domain.AlertRecord, 0, limit)
	for i := limit - 1; i >= 0; i-- {
		tpl := alertTemplates[s.rnd.IntN(len(alertTemplates))]
		out = append(out, domain.AlertRecord{
			ID:        uuid.New().String(),
			Type:      tpl.t,
			Message:   tpl.msg,
			Source:    "synthetic",
			Timestamp: now.Add(-time.Duration(i) * time.Minute),
		})
	}
	return out
}

// SystemStatus собирает статус из синтетического флота.
func (s *Synthesizer) SystemStatus(version, environment string) domain.SystemStatus {
	agents := s.Agents(0)
	active := 0
	for _, a := range agents {
		if a.Status == domain.StatusActive {
			active++
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.SystemStatus{
		Status:       domain.SystemDegraded,
		Version:      version,
		Environment:  environment,
		Uptime:       round1(s.between(97, 100)),
		ActiveAgents: active,
		TotalAgents:  len(agents),
		Timestamp:    s.now(),
	}
}

// ConversationState: пустое состояние с пометкой, что backend недоступен.
func (s *Synthesizer) ConversationState(id string) *domain.ConversationState {
	st := domain.NewConversationState(id)
	st.Phase = "offline"
	st.Recommendations = append(st.Recommendations, "Restore backend connectivity before relying on this handoff")
	st.UpdatedAt = s.now()
	return st
}

// Completion: заглушка ответа LLM.
func (s *Synthesizer) Completion(prompt string) string {
	p := strings.TrimSpace(prompt)
	if len(p) > 80 {
		p = p[:80] + "..."
	}
	return fmt.Sprintf("[offline] The assistant is unavailable right now. Your request %q has been noted.", p)
}

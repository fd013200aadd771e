package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// ConversationState: операционный контекст, который переносится между сессиями через handoff.
// Наполняется явными вызовами методов и хранится в backend, а не локально.
type ConversationState struct {
	ID                 string            `json:"id"`
	HealthPercentage   float64           `json:"health_percentage"`
	Phase              string            `json:"phase"`
	WorkingComponents  map[string]string `json:"working_components"` // компонент -> заметка
	BrokenComponents   map[string]string `json:"broken_components"`
	Priorities         []string          `json:"priorities"`
	Actions            []string          `json:"actions"`
	BlockingIssues     []string          `json:"blocking_issues"`
	Recommendations    []string          `json:"recommendations"`
	CreditsUsed        float64           `json:"credits_used"`
	CreditsRemaining   float64           `json:"credits_remaining"`
	ConversationNumber int               `json:"conversation_number"`
	SuccessRate        float64           `json:"success_rate"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// NewConversationState создает пустое состояние с инициализированными картами.
func NewConversationState(id string) *ConversationState {
	if id == "" {
		id = uuid.New().String()
	}
	return &ConversationState{
		ID:                id,
		WorkingComponents: make(map[string]string),
		BrokenComponents:  make(map[string]string),
		Priorities:        []string{},
		Actions:           []string{},
		BlockingIssues:    []string{},
		Recommendations:   []string{},
	}
}

func (c *ConversationState) ensureMaps() {
	if c.WorkingComponents == nil {
		c.WorkingComponents = make(map[string]string)
	}
	if c.BrokenComponents == nil {
		c.BrokenComponents = make(map[string]string)
	}
}

// Normalize приводит запись из backend к виду без nil-коллекций.
func (c *ConversationState) Normalize() {
	c.ensureMaps()
	for _, l := range []*[]string{&c.Priorities, &c.Actions, &c.BlockingIssues, &c.Recommendations} {
		if *l == nil {
			*l = []string{}
		}
	}
}

func (c *ConversationState) touch() {
	c.UpdatedAt = time.Now().UTC()
}

func (c *ConversationState) SetHealth(pct float64) {
	c.HealthPercentage = min(max(pct, 0), 100)
	c.touch()
}

func (c *ConversationState) SetPhase(phase string) {
	c.Phase = phase
	c.touch()
}

// MarkWorking переносит компонент в рабочие (и убирает из сломанных).
func (c *ConversationState) MarkWorking(component, note string) {
	c.ensureMaps()
	delete(c.BrokenComponents, component)
	c.WorkingComponents[component] = note
	c.touch()
}

// MarkBroken переносит компонент в сломанные.
func (c *ConversationState) MarkBroken(component, note string) {
	c.ensureMaps()
	delete(c.WorkingComponents, component)
	c.BrokenComponents[component] = note
	c.touch()
}

func (c *ConversationState) AddPriority(p string) {
	c.Priorities = appendUnique(c.Priorities, p)
	c.touch()
}

func (c *ConversationState) AddAction(a string) {
	c.Actions = appendUnique(c.Actions, a)
	c.touch()
}

func (c *ConversationState) AddBlockingIssue(issue string) {
	c.BlockingIssues = appendUnique(c.BlockingIssues, issue)
	c.touch()
}

// ResolveBlockingIssue удаляет проблему из списка, если она там есть.
func (c *ConversationState) ResolveBlockingIssue(issue string) {
	c.BlockingIssues = slices.DeleteFunc(c.BlockingIssues, func(s string) bool { return s == issue })
	c.touch()
}

func (c *ConversationState) AddRecommendation(r string) {
	c.Recommendations = appendUnique(c.Recommendations, r)
	c.touch()
}

// RecordUsage списывает кредиты.
func (c *ConversationState) RecordUsage(credits float64) {
	c.CreditsUsed += credits
	c.CreditsRemaining = max(c.CreditsRemaining-credits, 0)
	c.touch()
}

func (c *ConversationState) IncrementConversation() {
	c.ConversationNumber++
	c.touch()
}

func (c *ConversationState) SetSuccessRate(rate float64) {
	c.SuccessRate = min(max(rate, 0), 100)
	c.touch()
}

func appendUnique(list []string, item string) []string {
	if item == "" || slices.Contains(list, item) {
		return list
	}
	return append(list, item)
}

// StatusReport: отчет оператора, который отправляется в backend.
type StatusReport struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Author         string    `json:"author"`
	Summary        string    `json:"summary"`
	Health         float64   `json:"health"`
	CreatedAt      time.Time `json:"created_at"`
}

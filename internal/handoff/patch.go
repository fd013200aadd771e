package handoff

import "github.com/cjaisingh/awip-mission-control-sub000/internal/domain"

// Patch: набор изменений ConversationState, пришедший по API или из CLI.
// Пустые поля не трогают состояние.
type Patch struct {
	Health                *float64          `json:"health,omitempty"`
	Phase                 *string           `json:"phase,omitempty"`
	Working               map[string]string `json:"working,omitempty"`
	Broken                map[string]string `json:"broken,omitempty"`
	Priorities            []string          `json:"priorities,omitempty"`
	Actions               []string          `json:"actions,omitempty"`
	BlockingIssues        []string          `json:"blocking_issues,omitempty"`
	ResolvedIssues        []string          `json:"resolved_issues,omitempty"`
	Recommendations       []string          `json:"recommendations,omitempty"`
	CreditsUsed           *float64          `json:"credits_used,omitempty"`
	SuccessRate           *float64          `json:"success_rate,omitempty"`
	IncrementConversation bool              `json:"increment_conversation,omitempty"`
}

// Apply применяет патч. Resolve идет после Add, поэтому проблема,
// добавленная и решенная в одном патче, в списке не остается.
func (p Patch) Apply(st *domain.ConversationState) {
	if p.Health != nil {
		st.SetHealth(*p.Health)
	}
	if p.Phase != nil {
		st.SetPhase(*p.Phase)
	}
	for c, note := range p.Working {
		st.MarkWorking(c, note)
	}
	for c, note := range p.Broken {
		st.MarkBroken(c, note)
	}
	for _, v := range p.Priorities {
		st.AddPriority(v)
	}
	for _, v := range p.Actions {
		st.AddAction(v)
	}
	for _, v := range p.BlockingIssues {
		st.AddBlockingIssue(v)
	}
	for _, v := range p.ResolvedIssues {
		st.ResolveBlockingIssue(v)
	}
	for _, v := range p.Recommendations {
		st.AddRecommendation(v)
	}
	if p.CreditsUsed != nil {
		st.RecordUsage(*p.CreditsUsed)
	}
	if p.SuccessRate != nil {
		st.SetSuccessRate(*p.SuccessRate)
	}
	if p.IncrementConversation {
		st.IncrementConversation()
	}
}

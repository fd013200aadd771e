// Package handoff сериализует ConversationState в текст для переноса контекста
// в новую сессию.
package handoff

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cjaisingh/awip-mission-control-sub000/internal/domain"
)

const none = "(none)"

// GenerateHandoffPrompt: чистая функция: без I/O и без ошибок.
// Короткий вариант: статус, приоритеты, действия, блокеры, расход.
// full добавляет карты компонентов и рекомендации.
func GenerateHandoffPrompt(state *domain.ConversationState, full bool) string {
	if state == nil {
		state = &domain.ConversationState{}
	}

	var b strings.Builder
	b.WriteString("=== AWIP HANDOFF ===\n")
	if state.ID != "" {
		fmt.Fprintf(&b, "Conversation: %s (#%d)\n", state.ID, state.ConversationNumber)
	}

	section(&b, "Current Status")
	phase := state.Phase
	if phase == "" {
		phase = "unknown"
	}
	fmt.Fprintf(&b, "Health: %.0f%%\n", state.HealthPercentage)
	fmt.Fprintf(&b, "Phase: %s\n", phase)
	fmt.Fprintf(&b, "Success rate: %.0f%%\n", state.SuccessRate)

	section(&b, "Priorities")
	numbered(&b, state.Priorities)

	section(&b, "Next Actions")
	bullets(&b, state.Actions)

	section(&b, "Blocking Issues")
	bullets(&b, state.BlockingIssues)

	if full {
		section(&b, "Working Components")
		components(&b, state.WorkingComponents)

		section(&b, "Broken Components")
		components(&b, state.BrokenComponents)

		section(&b, "Recommendations")
		bullets(&b, state.Recommendations)
	}

	section(&b, "Usage")
	fmt.Fprintf(&b, "Credits used: %.2f\n", state.CreditsUsed)
	fmt.Fprintf(&b, "Credits remaining: %.2f\n", state.CreditsRemaining)

	b.WriteString("\nContinue from the priorities above. Resolve blocking issues first.\n")
	return b.String()
}

func section(b *strings.Builder, title string) {
	fmt.Fprintf(b, "\n## %s\n", title)
}

func numbered(b *strings.Builder, items []string) {
	if len(items) == 0 {
		b.WriteString(none + "\n")
		return
	}
	for i, it := range items {
		fmt.Fprintf(b, "%d. %s\n", i+1, it)
	}
}

func bullets(b *strings.Builder, items []string) {
	if len(items) == 0 {
		b.WriteString(none + "\n")
		return
	}
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
}

// components печатает карту в стабильном порядке.
func components(b *strings.Builder, m map[string]string) {
	if len(m) == 0 {
		b.WriteString(none + "\n")
		return
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if note := m[k]; note != "" {
			fmt.Fprintf(b, "- %s: %s\n", k, note)
		} else {
			fmt.Fprintf(b, "- %s\n", k)
		}
	}
}

package handoff

import (
	"context"
	"time"

	"github.com/cjaisingh/awip-mission-control-sub000/internal/domain"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/engine"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Gateway: часть engine.Gateway, которой пользуется сервис.
type Gateway interface {
	ConversationState(ctx context.Context, id string) engine.Fetched[*domain.ConversationState]
	SaveConversationState(ctx context.Context, state *domain.ConversationState) engine.WriteOutcome
	SubmitStatusReport(ctx context.Context, report domain.StatusReport) engine.WriteOutcome
}

// Prompt: результат генерации вместе с признаком деградации.
type Prompt struct {
	ConversationID string `json:"conversation_id"`
	Text           string `json:"prompt"`
	Full           bool   `json:"full"`
	Synthetic      bool   `json:"synthetic"`
}

type Service struct {
	gw     Gateway
	logger *zap.Logger
}

func NewService(gw Gateway, logger *zap.Logger) *Service {
	return &Service{gw: gw, logger: logger.Named("handoff")}
}

// State читает последнее состояние разговора через gateway.
func (s *Service) State(ctx context.Context, id string) engine.Fetched[*domain.ConversationState] {
	return s.gw.ConversationState(ctx, id)
}

// Prompt читает свежее состояние и форматирует его.
func (s *Service) Prompt(ctx context.Context, id string, full bool) Prompt {
	res := s.gw.ConversationState(ctx, id)
	return Prompt{
		ConversationID: id,
		Text:           GenerateHandoffPrompt(res.Value, full),
		Full:           full,
		Synthetic:      res.Synthetic,
	}
}

// Update применяет mutate к актуальному состоянию и сохраняет его.
// Если прочитать не удалось, изменения на синтетике не сохраняются.
func (s *Service) Update(ctx context.Context, id string, mutate func(*domain.ConversationState)) (*domain.ConversationState, engine.WriteOutcome) {
	res := s.gw.ConversationState(ctx, id)
	state := res.Value
	if res.Synthetic {
		// новая запись, а не офлайн-заглушка
		state = domain.NewConversationState(id)
	}
	mutate(state)

	out := s.gw.SaveConversationState(ctx, state)
	if !out.Persisted {
		s.logger.Warn("conversation state not persisted", zap.String("conversation_id", id), zap.Error(out.Err))
	}
	return state, out
}

// SubmitReport дописывает ID и время и отправляет отчет.
func (s *Service) SubmitReport(ctx context.Context, report domain.StatusReport) (domain.StatusReport, engine.WriteOutcome) {
	if report.ID == "" {
		report.ID = uuid.New().String()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}
	return report, s.gw.SubmitStatusReport(ctx, report)
}

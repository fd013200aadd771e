package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cjaisingh/awip-mission-control-sub000/internal/domain"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/engine"
	"go.uber.org/zap"
)

var (
	ErrAgentNotFound = errors.New("agent not found")
	ErrEmptyInput    = errors.New("empty input")
)

const extractInstruction = `Extract knowledge triples from the user's text.
Return one triple per line in the form: subject | predicate | object
Return nothing else.`

// Assistant: LLM через gateway, ответ всегда есть (fail-soft).
type Assistant interface {
	Complete(ctx context.Context, system, prompt string) engine.Fetched[string]
}

// FleetReader: реестр агентов в Store.
type FleetReader interface {
	Agent(id int) (domain.AgentRecord, bool)
}

type ChatReply struct {
	AgentID   int    `json:"agent_id"`
	AgentName string `json:"agent_name"`
	Reply     string `json:"reply"`
	Synthetic bool   `json:"synthetic"`
}

type Triple struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
}

type ExtractResult struct {
	Triples   []Triple `json:"triples"`
	Raw       string   `json:"raw"`
	Synthetic bool     `json:"synthetic"`
}

type AgentService struct {
	llm    Assistant
	fleet  FleetReader
	logger *zap.Logger
}

func NewAgentService(llm Assistant, fleet FleetReader, logger *zap.Logger) *AgentService {
	return &AgentService{llm: llm, fleet: fleet, logger: logger.Named("agent-service")}
}

// Chat отправляет сообщение оператора от лица агента.
func (s *AgentService) Chat(ctx context.Context, agentID int, message string) (ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return ChatReply{}, ErrEmptyInput
	}
	agent, ok := s.fleet.Agent(agentID)
	if !ok {
		return ChatReply{}, fmt.Errorf("%w: %d", ErrAgentNotFound, agentID)
	}

	system := fmt.Sprintf("You are %s, an AWIP agent in the %s domain. Status: %s. Capabilities: %s. Answer briefly.",
		agent.Name, agent.Domain, agent.Status, strings.Join(agent.Capabilities, ", "))
	res := s.llm.Complete(ctx, system, message)
	if res.Synthetic {
		s.logger.Debug("chat served with mock text", zap.Int("agent_id", agentID))
	}
	return ChatReply{AgentID: agent.ID, AgentName: agent.Name, Reply: res.Value, Synthetic: res.Synthetic}, nil
}

// ExtractTriples просит LLM разложить текст на тройки.
func (s *AgentService) ExtractTriples(ctx context.Context, text string) (ExtractResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ExtractResult{}, ErrEmptyInput
	}
	res := s.llm.Complete(ctx, extractInstruction, text)
	out := ExtractResult{Triples: []Triple{}, Raw: res.Value, Synthetic: res.Synthetic}
	if !res.Synthetic {
		out.Triples = ParseTriples(res.Value)
	}
	return out, nil
}

// ParseTriples разбирает строки "subject | predicate | object"; прочие строки пропускаются.
func ParseTriples(raw string) []Triple {
	out := []Triple{}
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*0123456789. "))
		parts := strings.Split(line, "|")
		if len(parts) != 3 {
			continue
		}
		t := Triple{
			Subject:   strings.TrimSpace(parts[0]),
			Predicate: strings.TrimSpace(parts[1]),
			Object:    strings.TrimSpace(parts[2]),
		}
		if t.Subject == "" || t.Predicate == "" || t.Object == "" {
			continue
		}
		out = append(out, t)
	}
	return out
}

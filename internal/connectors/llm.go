package connectors

import (
	"context"
	"errors"
	"strings"

	"github.com/cjaisingh/awip-mission-control-sub000/internal/infra"
	openai "github.com/sashabaranov/go-openai"
)

var ErrEmptyCompletion = errors.New("llm returned no choices")

// OpenAICompleter: клиент chat completions (OpenAI или совместимый endpoint).
type OpenAICompleter struct {
	client    *openai.Client
	model     string
	maxTokens int
}

func NewOpenAICompleter(cfg infra.LLMConfig) *OpenAICompleter {
	oc := openai.DefaultConfig(cfg.APIKey)
	if infra.IsSet(cfg.BaseURL) {
		oc.BaseURL = cfg.BaseURL
	}
	return &OpenAICompleter{
		client:    openai.NewClientWithConfig(oc),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

func (c *OpenAICompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, 2)
	if system != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		Messages:  msgs,
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

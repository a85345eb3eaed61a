package llm

import (
	"context"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/vocollect/vocollect/internal/utils"
)

const (
	groqBaseURL      = "https://api.groq.com/openai/v1"
	defaultGroqModel = "llama-3.3-70b-versatile"

	// Live turns stay short; a phone reply should be one or two sentences.
	turnMaxTokens   = 100
	turnTemperature = 0.7
)

// Groq is the primary model provider, reached through Groq's
// OpenAI-compatible endpoint.
type Groq struct {
	client *openai.Client
	model  string
}

func NewGroq(apiKey, model string) (*Groq, error) {
	if apiKey == "" {
		return nil, utils.E(utils.CodeInvalidArgument, "llm.NewGroq", "missing GROQ_API_KEY", nil)
	}
	if model == "" {
		model = defaultGroqModel
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = groqBaseURL
	return &Groq{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

func (g *Groq) Close() error { return nil }

func (g *Groq) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:   turnMaxTokens,
		Temperature: turnTemperature,
	})
	if err != nil {
		return "", utils.E(utils.CodeUnavailable, "Groq.Complete", "chat completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", utils.E(utils.CodeUnavailable, "Groq.Complete", "empty completion", nil)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (g *Groq) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", utils.E(utils.CodeUnavailable, "Groq.CompleteJSON", "chat completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", utils.E(utils.CodeUnavailable, "Groq.CompleteJSON", "empty completion", nil)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

package llm

import (
	"context"
	"strings"

	vertexgenai "cloud.google.com/go/vertexai/genai"

	"github.com/vocollect/vocollect/internal/utils"
)

// VertexGemini is the fallback model provider.
type VertexGemini struct {
	client *vertexgenai.Client
	model  *vertexgenai.GenerativeModel
}

func NewVertexGemini(ctx context.Context, projectID, location, modelName string) (*VertexGemini, error) {
	c, err := vertexgenai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}

	m := c.GenerativeModel(modelName)
	m.SetTemperature(turnTemperature)
	m.SetMaxOutputTokens(turnMaxTokens)
	return &VertexGemini{client: c, model: m}, nil
}

func (v *VertexGemini) Close() error { return v.client.Close() }

func (v *VertexGemini) Complete(ctx context.Context, system, user string) (string, error) {
	prompt := system + "\n\n" + user + "\n\nAI (1-2 short sentences only):"
	return v.generate(ctx, "VertexGemini.Complete", prompt)
}

func (v *VertexGemini) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	prompt := system + "\n\n" + user
	out, err := v.generate(ctx, "VertexGemini.CompleteJSON", prompt)
	if err != nil {
		return "", err
	}
	return StripFences(out), nil
}

func (v *VertexGemini) generate(ctx context.Context, op, prompt string) (string, error) {
	resp, err := v.model.GenerateContent(ctx, vertexgenai.Text(prompt))
	if err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "generation failed", err)
	}

	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(vertexgenai.Text); ok {
				b.WriteString(string(t))
			}
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", utils.E(utils.CodeUnavailable, op, "empty candidate", nil)
	}
	return out, nil
}

// StripFences removes a surrounding markdown code fence from model output
// that was asked for raw JSON.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

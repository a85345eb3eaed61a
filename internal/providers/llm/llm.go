package llm

import (
	"context"

	"github.com/vocollect/vocollect/internal/utils"
)

// Provider generates assistant text. Complete is tuned for short
// conversational turns; CompleteJSON requests a single JSON object and is
// used by post-call analysis.
type Provider interface {
	Complete(ctx context.Context, system, user string) (string, error)
	CompleteJSON(ctx context.Context, system, user string) (string, error)
	Close() error
}

// Chain tries each provider in order and returns the first success.
type Chain []Provider

func (c Chain) Complete(ctx context.Context, system, user string) (string, error) {
	return c.each(func(p Provider) (string, error) { return p.Complete(ctx, system, user) })
}

func (c Chain) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	return c.each(func(p Provider) (string, error) { return p.CompleteJSON(ctx, system, user) })
}

func (c Chain) each(call func(Provider) (string, error)) (string, error) {
	var lastErr error
	for _, p := range c {
		out, err := call(p)
		if err == nil && out != "" {
			return out, nil
		}
		if err != nil {
			lastErr = err
		}
	}
	if lastErr == nil {
		lastErr = utils.E(utils.CodeUnavailable, "llm.Chain", "no provider produced output", nil)
	}
	return "", lastErr
}

func (c Chain) Close() error {
	var first error
	for _, p := range c {
		if err := p.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Disabled stands in when no model credentials are configured.
type Disabled struct{}

func (Disabled) Complete(ctx context.Context, system, user string) (string, error) {
	return "", utils.E(utils.CodeUnavailable, "llm.Complete", "language model not configured", nil)
}

func (Disabled) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	return "", utils.E(utils.CodeUnavailable, "llm.CompleteJSON", "language model not configured", nil)
}

func (Disabled) Close() error { return nil }

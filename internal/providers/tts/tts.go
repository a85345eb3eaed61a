package tts

import (
	"context"

	"github.com/vocollect/vocollect/internal/utils"
)

// Provider renders assistant text as 16-bit/16kHz mono PCM.
type Provider interface {
	Synthesize(ctx context.Context, text, language string) ([]byte, error)
	Close() error
}

// Disabled stands in when no synthesis credentials are configured. Turns
// still happen; they are just recorded text-only.
type Disabled struct{}

func (Disabled) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	return nil, utils.E(utils.CodeUnavailable, "tts.Synthesize", "speech synthesis not configured", nil)
}

func (Disabled) Close() error { return nil }

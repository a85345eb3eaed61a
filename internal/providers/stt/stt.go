package stt

import (
	"context"

	"github.com/vocollect/vocollect/internal/utils"
)

// Provider turns one buffered caller utterance into text. Implementations
// return an empty string with nil error when the clip holds no usable speech.
type Provider interface {
	Transcribe(ctx context.Context, pcm []byte, language string) (string, error)
	Close() error
}

// Disabled stands in when no speech credentials are configured. Calls still
// run end to end; every utterance just fails to transcribe.
type Disabled struct{}

func (Disabled) Transcribe(ctx context.Context, pcm []byte, language string) (string, error) {
	return "", utils.E(utils.CodeUnavailable, "stt.Transcribe", "speech recognition not configured", nil)
}

func (Disabled) Close() error { return nil }

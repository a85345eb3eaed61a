package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/vocollect/vocollect/internal/utils"
)

const (
	defaultSarvamURL = "https://api.sarvam.ai/text-to-speech"
	sarvamModel      = "bulbul:v2"
	defaultSpeaker   = "manisha"
	maxAttempts      = 2
	retryDelay       = 500 * time.Millisecond
)

// Sarvam synthesizes speech through the Sarvam AI REST endpoint.
type Sarvam struct {
	BaseURL string
	Client  *http.Client

	apiKey string
	// speaker voice per language tag, from the language policies.
	speakers map[string]string
}

func NewSarvam(apiKey string, speakers map[string]string) (*Sarvam, error) {
	if apiKey == "" {
		return nil, utils.E(utils.CodeInvalidArgument, "tts.NewSarvam", "missing SARVAM_API_KEY", nil)
	}
	return &Sarvam{
		BaseURL:  defaultSarvamURL,
		Client:   &http.Client{Timeout: 10 * time.Second},
		apiKey:   apiKey,
		speakers: speakers,
	}, nil
}

func (s *Sarvam) Close() error { return nil }

func (s *Sarvam) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	const op = "Sarvam.Synthesize"
	if text == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "empty text", nil)
	}

	speaker := s.speakers[language]
	if speaker == "" {
		speaker = defaultSpeaker
	}

	payload, err := json.Marshal(map[string]any{
		"inputs":               []string{text},
		"target_language_code": language,
		"speaker":              speaker,
		"pitch":                0,
		"pace":                 1.0,
		"loudness":             1.5,
		"speech_sample_rate":   16000,
		"model":                sarvamModel,
	})
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "marshal payload", err)
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
		}

		pcm, err := s.post(ctx, payload)
		if err != nil {
			lastErr = err
			continue
		}
		return pcm, nil
	}
	return nil, utils.E(utils.CodeUnavailable, op, "synthesis failed", lastErr)
}

func (s *Sarvam) post(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("api-subscription-key", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var body struct {
		Audios []string `json:"audios"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if len(body.Audios) == 0 || body.Audios[0] == "" {
		return nil, fmt.Errorf("no audio in response")
	}
	return base64.StdEncoding.DecodeString(body.Audios[0])
}

package telephony

import (
	"bytes"
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vocollect/vocollect/internal/utils"
)

const vonageCallsURL = "https://api.nexmo.com/v1/calls"

// VonageConfig holds the Vonage application credentials and the public base
// URL this service is reachable on for webhooks.
type VonageConfig struct {
	ApplicationID string
	PrivateKey    []byte // PEM
	FromNumber    string
	PublicBaseURL string
}

// Vonage places calls through the Vonage Voice API using application JWTs.
type Vonage struct {
	cfg    VonageConfig
	key    *rsa.PrivateKey
	client *http.Client

	CallsURL string
}

func NewVonage(cfg VonageConfig) (*Vonage, error) {
	const op = "telephony.NewVonage"
	if cfg.ApplicationID == "" || len(cfg.PrivateKey) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "missing application id or private key", nil)
	}
	if cfg.FromNumber == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "missing from number", nil)
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(cfg.PrivateKey)
	if err != nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "parse private key", err)
	}
	return &Vonage{
		cfg:      cfg,
		key:      key,
		client:   &http.Client{Timeout: 15 * time.Second},
		CallsURL: vonageCallsURL,
	}, nil
}

// token mints a short-lived application JWT for the Voice API.
func (v *Vonage) token() (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"application_id": v.cfg.ApplicationID,
		"iat":            now.Unix(),
		"exp":            now.Add(time.Hour).Unix(),
		"jti":            uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(v.key)
}

func (v *Vonage) PlaceCall(ctx context.Context, req CallRequest) (string, error) {
	const op = "Vonage.PlaceCall"

	to := NormalizeNumber(req.To)
	if to == "" {
		return "", utils.E(utils.CodeInvalidArgument, op, "empty destination number", nil)
	}

	answer := fmt.Sprintf("%s/webhooks/answer?%s", strings.TrimRight(v.cfg.PublicBaseURL, "/"), url.Values{
		"preferred_language": {req.Language},
		"tenant_id":          {req.TenantID},
		"loan_no":            {req.LoanNo},
	}.Encode())
	event := strings.TrimRight(v.cfg.PublicBaseURL, "/") + "/webhooks/event"

	body, err := json.Marshal(map[string]any{
		"to":         []map[string]string{{"type": "phone", "number": to}},
		"from":       map[string]string{"type": "phone", "number": v.cfg.FromNumber},
		"answer_url": []string{answer},
		"event_url":  []string{event},
	})
	if err != nil {
		return "", utils.E(utils.CodeInternal, op, "marshal call request", err)
	}

	tok, err := v.token()
	if err != nil {
		return "", utils.E(utils.CodeInternal, op, "sign token", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, v.CallsURL, bytes.NewReader(body))
	if err != nil {
		return "", utils.E(utils.CodeInternal, op, "build request", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+tok)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(httpReq)
	if err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "voice api unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", utils.E(utils.CodeUnavailable, op, fmt.Sprintf("voice api status %d", resp.StatusCode), nil)
	}

	var out struct {
		UUID   string `json:"uuid"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", utils.E(utils.CodeInternal, op, "decode response", err)
	}
	if out.UUID == "" {
		return "", utils.E(utils.CodeUnavailable, op, "no call uuid in response", nil)
	}
	return out.UUID, nil
}

// ConnectNCCO builds the answer-webhook call control object that bridges the
// call's audio onto this service's websocket endpoint as 16-bit/16kHz PCM.
func ConnectNCCO(publicBaseURL, fromNumber, callUUID, tenantID string) []map[string]any {
	base := strings.TrimRight(publicBaseURL, "/")
	wsBase := strings.Replace(base, "http", "ws", 1)

	return []map[string]any{
		{
			"action":   "connect",
			"eventUrl": []string{base + "/webhooks/event"},
			"from":     fromNumber,
			"endpoint": []map[string]any{
				{
					"type":         "websocket",
					"uri":          fmt.Sprintf("%s/socket/%s", wsBase, callUUID),
					"content-type": "audio/l16;rate=16000",
					"headers": map[string]string{
						"call_uuid": callUUID,
						"tenant_id": tenantID,
					},
				},
			},
		},
	}
}

package telephony

import (
	"context"
	"strings"

	"github.com/vocollect/vocollect/internal/utils"
)

// CallRequest describes one outbound call. TenantID and LoanNo ride along in
// the answer webhook so the session can be bound to its borrower.
type CallRequest struct {
	To       string
	Language string
	TenantID string
	LoanNo   string
}

// Provider places outbound voice calls.
type Provider interface {
	PlaceCall(ctx context.Context, req CallRequest) (callUUID string, err error)
}

// Disabled stands in when no voice credentials are configured.
type Disabled struct{}

func (Disabled) PlaceCall(ctx context.Context, req CallRequest) (string, error) {
	return "", utils.E(utils.CodeUnavailable, "telephony.PlaceCall", "voice provider not configured", nil)
}

// NormalizeNumber strips formatting and prepends the India country code to
// bare 10-digit mobile numbers (which start with 6 through 9).
func NormalizeNumber(number string) string {
	var b strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	n := b.String()
	if len(n) == 10 && n[0] >= '6' && n[0] <= '9' {
		n = "91" + n
	}
	return n
}

package outcome

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePaidEscalates(t *testing.T) {
	rec := Resolve(ResolveInput{
		Intent:       IntentPaid,
		Category:     "Consistent",
		BorrowerName: "Ramesh Kumar",
		BorrowerID:   "LN-1001",
		Now:          schedNow,
	})

	assert.True(t, rec.RequireManualProcess)
	assert.Equal(t, "Paid", rec.PaymentConfirmation)
	assert.Equal(t, "2026-01-08", rec.FollowUpDate)
	assert.Equal(t, "1 call/week", rec.CallFrequency)
	assert.Equal(t, "Borrower Ramesh Kumar claims payment made. Please verify.", rec.NextStepSummary)

	require.NotNil(t, rec.Notification)
	assert.Equal(t, "Area Manager", rec.Notification.To)
	assert.Equal(t, "Payment Verification Required: Ramesh Kumar", rec.Notification.Subject)
	assert.Contains(t, rec.Notification.Body, "Ramesh Kumar (LN-1001)")
	assert.Contains(t, rec.Notification.Body, "AI System")
}

func TestResolvePaymentDateOverridesSchedule(t *testing.T) {
	rec := Resolve(ResolveInput{
		Intent:      IntentWillPay,
		PaymentDate: "2026-01-15",
		Category:    "Overdue",
		Now:         schedNow,
	})

	assert.False(t, rec.RequireManualProcess)
	assert.Nil(t, rec.Notification)
	assert.Equal(t, "2026-01-15", rec.PaymentConfirmation)
	assert.Equal(t, "2026-01-15", rec.FollowUpDate)
	assert.Equal(t, "1 call (Verify)", rec.CallFrequency)
	assert.Equal(t, "Borrower committed to pay/extend until 2026-01-15.", rec.NextStepSummary)
}

func TestResolveNullPaymentDateIsIgnored(t *testing.T) {
	rec := Resolve(ResolveInput{
		Intent:      IntentNeedsExtension,
		PaymentDate: "null",
		Category:    "Inconsistent",
		Now:         schedNow,
	})

	assert.Equal(t, "3 calls/week", rec.CallFrequency)
	assert.Equal(t, "2026-01-02, 2026-01-05, 2026-01-06", rec.FollowUpDate)
	assert.Equal(t, "Borrower committed to Needs Extension. Follow-up scheduled.", rec.NextStepSummary)
}

func TestResolveMidCallRetriesNextBusinessDay(t *testing.T) {
	// Friday: the retry lands on Monday.
	friday := time.Date(2026, 1, 2, 18, 0, 0, 0, time.UTC)
	rec := Resolve(ResolveInput{
		Intent:  IntentNoResponse,
		MidCall: true,
		Now:     friday,
	})

	assert.Equal(t, "2026-01-05", rec.FollowUpDate)
	assert.Equal(t, "1 call (Retry)", rec.CallFrequency)
	// An escalation intent still produces the draft even on a dropped call.
	assert.True(t, rec.RequireManualProcess)
	require.NotNil(t, rec.Notification)
	assert.Equal(t, "No Response Escalation: Borrower", rec.Notification.Subject)
}

func TestResolveMidCallCommitmentKeepsCommitmentSummary(t *testing.T) {
	rec := Resolve(ResolveInput{
		Intent:  IntentWillPay,
		MidCall: true,
		Now:     schedNow,
	})

	assert.Equal(t, "1 call (Retry)", rec.CallFrequency)
	assert.Equal(t, "Borrower committed to Will Pay. Follow-up scheduled.", rec.NextStepSummary)
}

func TestResolveDefaults(t *testing.T) {
	rec := Resolve(ResolveInput{Now: schedNow})

	// Blank intent is treated as no response and escalated.
	assert.True(t, rec.RequireManualProcess)
	assert.Equal(t, "No Response", rec.PaymentConfirmation)
	assert.Equal(t, "1 call/week", rec.CallFrequency)
	require.NotNil(t, rec.Notification)
	assert.Contains(t, rec.Notification.Body, "Borrower ()")
}

func TestResolveStopCalling(t *testing.T) {
	rec := Resolve(ResolveInput{
		Intent:       IntentStopCalling,
		BorrowerName: "Sita Devi",
		BorrowerID:   "LN-2002",
		Now:          schedNow,
	})

	assert.True(t, rec.RequireManualProcess)
	assert.Equal(t, "DNC Request: Sita Devi", rec.Notification.Subject)
	assert.Equal(t, "Borrower requested to stop calls. Escalating for manual process.", rec.NextStepSummary)
}

package outcome

import (
	"fmt"
	"strings"
	"time"

	"github.com/vocollect/vocollect/internal/models"
)

// Intent labels produced by post-call analysis.
const (
	IntentPaid           = "Paid"
	IntentWillPay        = "Will Pay"
	IntentNeedsExtension = "Needs Extension"
	IntentDispute        = "Dispute"
	IntentNoResponse     = "No Response"
	IntentAbusive        = "Abusive Language"
	IntentThreatening    = "Threatening Language"
	IntentStopCalling    = "Stop Calling"
)

// escalationIntents require a human in the loop regardless of scheduling.
var escalationIntents = map[string]bool{
	IntentPaid:        true,
	IntentDispute:     true,
	IntentNoResponse:  true,
	IntentAbusive:     true,
	IntentThreatening: true,
	IntentStopCalling: true,
}

// ResolveInput carries everything the outcome table needs for one call.
type ResolveInput struct {
	Intent       string
	PaymentDate  string // "YYYY-MM-DD", empty or "null" when none
	Category     string // borrower payment category
	BorrowerName string
	BorrowerID   string
	MidCall      bool
	Now          time.Time
}

// Record is the resolved post-call outcome applied to the borrower.
type Record struct {
	PaymentConfirmation  string
	FollowUpDate         string
	CallFrequency        string
	RequireManualProcess bool
	Notification         *models.NotificationDraft
	NextStepSummary      string
}

// Resolve maps an analyzed intent onto the follow-up schedule and, for
// escalation intents, a manager notification draft. A mid-call hang-up
// short-circuits scheduling to a next-business-day retry.
func Resolve(in ResolveInput) Record {
	intent := strings.TrimSpace(in.Intent)
	if intent == "" {
		intent = IntentNoResponse
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = "Consistent"
	}
	name := in.BorrowerName
	if name == "" {
		name = "Borrower"
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	rec := Record{PaymentConfirmation: intent}

	switch {
	case in.MidCall:
		rec.FollowUpDate = nextBusinessDay(now).Format(dateLayout)
		rec.CallFrequency = "1 call (Retry)"
		rec.NextStepSummary = "The borrower hung up mid-sentence. System scheduled a follow-up retry for the next business day."
	case in.PaymentDate != "" && !strings.EqualFold(in.PaymentDate, "null"):
		rec.PaymentConfirmation = in.PaymentDate
		rec.FollowUpDate = in.PaymentDate
		rec.CallFrequency = "1 call (Verify)"
	default:
		dates, desc := Schedule(category, now)
		rec.FollowUpDate = strings.Join(dates, ", ")
		rec.CallFrequency = desc
	}

	if escalationIntents[intent] {
		rec.RequireManualProcess = true

		var subject, body string
		switch intent {
		case IntentPaid:
			rec.NextStepSummary = fmt.Sprintf("Borrower %s claims payment made. Please verify.", name)
			subject = fmt.Sprintf("Payment Verification Required: %s", name)
			body = fmt.Sprintf("Hi Area Manager,\n\nBorrower %s (%s) claims they have already paid. Please verify the transaction.\n\nBest regards,\nAI System", name, in.BorrowerID)
		case IntentDispute:
			rec.NextStepSummary = "Borrower is disputing the loan payment. Escalating for manual investigation."
			subject = fmt.Sprintf("Payment Dispute: %s", name)
			body = fmt.Sprintf("Hi Area Manager,\n\nBorrower %s (%s) is disputing the loan amount/terms. Manual investigation required.\n\nBest regards,\nAI System", name, in.BorrowerID)
		case IntentNoResponse:
			rec.NextStepSummary = "No clear response from borrower. Escalating for manual follow-up."
			subject = fmt.Sprintf("No Response Escalation: %s", name)
			body = fmt.Sprintf("Hi Area Manager,\n\nWe could not get a clear response from %s (%s). Please follow up manually.\n\nBest regards,\nAI System", name, in.BorrowerID)
		case IntentAbusive:
			rec.NextStepSummary = "Borrower used abusive language. Escalating for manual process."
			subject = fmt.Sprintf("Alert: Abusive Language - %s", name)
			body = fmt.Sprintf("Hi Area Manager,\n\nBorrower %s (%s) was abusive during the call. Initiating manual handling.\n\nBest regards,\nAI System", name, in.BorrowerID)
		case IntentThreatening:
			rec.NextStepSummary = "Borrower used threatening language. Escalating for manual process."
			subject = fmt.Sprintf("Security Alert: %s", name)
			body = fmt.Sprintf("Hi Area Manager,\n\nBorrower %s (%s) was threatening. Please handle this case with priority.\n\nBest regards,\nAI System", name, in.BorrowerID)
		case IntentStopCalling:
			rec.NextStepSummary = "Borrower requested to stop calls. Escalating for manual process."
			subject = fmt.Sprintf("DNC Request: %s", name)
			body = fmt.Sprintf("Hi Area Manager,\n\nBorrower %s (%s) requested to stop calling. Please update legal status.\n\nBest regards,\nAI System", name, in.BorrowerID)
		}
		rec.Notification = &models.NotificationDraft{To: "Area Manager", Subject: subject, Body: body}
	} else if intent == IntentWillPay || intent == IntentNeedsExtension {
		if in.PaymentDate != "" && !strings.EqualFold(in.PaymentDate, "null") {
			rec.NextStepSummary = fmt.Sprintf("Borrower committed to pay/extend until %s.", in.PaymentDate)
		} else {
			rec.NextStepSummary = fmt.Sprintf("Borrower committed to %s. Follow-up scheduled.", intent)
		}
	}

	return rec
}

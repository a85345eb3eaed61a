package turn

import (
	"fmt"
	"strings"

	"github.com/vocollect/vocollect/config"
	"github.com/vocollect/vocollect/internal/models"
)

// historyWindow is how many trailing conversation entries ride along with
// each completion request.
const historyWindow = 6

// Honorific picks the address form for a borrower under a language policy.
func Honorific(policy config.LanguagePolicy, gender string) string {
	if gender == GenderFemale {
		return policy.HonorificFemale
	}
	return policy.HonorificMale
}

// Title picks the Mr/Mrs-style title for greeting personalization.
func Title(policy config.LanguagePolicy, gender string) string {
	if gender == GenderFemale {
		return policy.TitleFemale
	}
	return policy.TitleMale
}

// BuildSystemPrompt renders the assistant persona for one turn: the
// policy-supplied conversation script with the honorific filled in, plus a
// borrower data block when a profile is available so the assistant never asks
// for facts it already has.
func BuildSystemPrompt(policy config.LanguagePolicy, borrower *models.Borrower) string {
	gender := GenderMale
	if borrower != nil {
		gender = DetectGender(borrower.Name)
	}

	prompt := fmt.Sprintf(policy.SystemPrompt, Honorific(policy, gender))
	if borrower == nil {
		return prompt
	}

	remaining := 0.0
	if borrower.Amount > 0 && borrower.EMI > 0 {
		remaining = borrower.Amount - borrower.EMI
	}

	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n\nBORROWER DATA (you already know this - use it naturally, NEVER ask for this info):\n")
	fmt.Fprintf(&b, "- Name: %s\n", borrower.Name)
	fmt.Fprintf(&b, "- Gender: %s\n", gender)
	fmt.Fprintf(&b, "- Outstanding Loan Amount: ₹%.2f\n", borrower.Amount)
	fmt.Fprintf(&b, "- Monthly EMI: ₹%.2f\n", borrower.EMI)
	fmt.Fprintf(&b, "- Remaining After This Month's Payment: ₹%.2f\n", remaining)
	fmt.Fprintf(&b, "- Due Date: %s\n", valueOr(borrower.DueDate, "N/A"))
	fmt.Fprintf(&b, "- Last Paid: %s\n", valueOr(borrower.LastPaid, "N/A"))
	fmt.Fprintf(&b, "- Payment Category: %s\n", valueOr(borrower.PaymentCategory, "N/A"))
	fmt.Fprintf(&b, "- Loan No: %s\n", valueOr(borrower.LoanNo, "N/A"))
	return b.String()
}

// BuildUserMessage formats the trailing conversation window plus the latest
// caller utterance for the completion provider.
func BuildUserMessage(conversation []models.ConversationEntry, userText string) string {
	start := 0
	if len(conversation) > historyWindow {
		start = len(conversation) - historyWindow
	}

	var b strings.Builder
	b.WriteString("Conversation so far:\n")
	for _, e := range conversation[start:] {
		b.WriteString(e.Speaker)
		b.WriteString(": ")
		b.WriteString(e.Text)
		b.WriteString("\n")
	}
	b.WriteString("\nUser just said: ")
	b.WriteString(userText)
	b.WriteString("\n\nRespond with 1-2 short sentences following the conversation flow above.")
	return b.String()
}

// BuildGreeting personalizes the opening statement when borrower details are
// known, falling back to the generic policy greeting.
func BuildGreeting(policy config.LanguagePolicy, language string, borrower *models.Borrower) string {
	if borrower == nil || borrower.Name == "" {
		return policy.Greeting
	}

	gender := DetectGender(borrower.Name)
	title := Title(policy, gender)
	due := valueOr(borrower.DueDate, "soon")

	switch language {
	case config.LangHindi:
		return fmt.Sprintf("नमस्ते %s %s जी, आशा है आप अच्छे हैं। यह आपके लोन पेमेंट के बारे में है। ड्यू डेट %s है।", title, borrower.Name, due)
	case config.LangTamil:
		return fmt.Sprintf("வணக்கம் %s %s, உங்கள் கடன் குறித்த அழைப்பு. செலுத்த வேண்டிய தேதி %s.", title, borrower.Name, due)
	default:
		return fmt.Sprintf("Hi %s %s, hope you are well. Calling regarding your loan due on %s. Can you please let us know if you will be paying the balance amount before the due date?", title, borrower.Name, due)
	}
}

func valueOr(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

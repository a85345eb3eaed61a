package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vocollect/vocollect/internal/models"
	"github.com/vocollect/vocollect/internal/utils"
)

const analysisSystemPrompt = "You are a helpful assistant that responds in JSON format."

// Analyzer runs post-call conversation analysis with retries. On total
// failure it hands back a neutral record so the call can still be reported.
type Analyzer struct {
	Provider Provider
	Log      *logrus.Entry

	Attempts  int
	BaseDelay time.Duration
	Now       func() time.Time
}

func NewAnalyzer(p Provider, log *logrus.Entry) *Analyzer {
	return &Analyzer{
		Provider:  p,
		Log:       log,
		Attempts:  3,
		BaseDelay: 500 * time.Millisecond,
		Now:       time.Now,
	}
}

// Analyze classifies one finished conversation into summary, sentiment,
// intent, any promised payment date, and whether the call cut off mid-turn.
func (a *Analyzer) Analyze(ctx context.Context, conversation []models.ConversationEntry) (models.CallAnalysis, error) {
	prompt := a.buildPrompt(conversation)

	var lastErr error
	for attempt := 0; attempt < a.Attempts; attempt++ {
		if attempt > 0 {
			delay := a.BaseDelay << (attempt - 1)
			delay += time.Duration(rand.Int63n(int64(a.BaseDelay)))
			select {
			case <-ctx.Done():
				return NeutralAnalysis(), ctx.Err()
			case <-time.After(delay):
			}
		}

		raw, err := a.Provider.CompleteJSON(ctx, analysisSystemPrompt, prompt)
		if err != nil {
			lastErr = err
			a.Log.WithError(err).WithField("attempt", attempt+1).Warn("analysis completion failed")
			continue
		}

		analysis, err := parseAnalysis(raw)
		if err != nil {
			lastErr = err
			a.Log.WithError(err).WithField("attempt", attempt+1).Warn("analysis response unparseable")
			continue
		}
		return analysis, nil
	}

	return NeutralAnalysis(), utils.E(utils.CodeUnavailable, "Analyzer.Analyze", "all attempts failed", lastErr)
}

func (a *Analyzer) buildPrompt(conversation []models.ConversationEntry) string {
	var lines []string
	for _, e := range conversation {
		lines = append(lines, fmt.Sprintf("%s: %s", e.Speaker, e.Text))
	}
	today := a.Now().Format("2006-01-02 (Monday)")

	return fmt.Sprintf(`You are an AI analyst reviewing a phone conversation between a collection agent (AI) and a borrower (User).

Current Date: %[1]s

Analyze this conversation and provide:
1. SUMMARY: A concise 2-3 sentence summary.
2. SENTIMENT: Positive, Neutral, or Negative.
3. INTENT: Paid, Will Pay, Needs Extension, Dispute, No Response, Abusive Language, Threatening Language, or Stop Calling.
4. PAYMENT_DATE: Extract EXACT date if mentioned (YYYY-MM-DD). handling "tomorrow", "next week", etc. relative to %[1]s. If no date, return null.
5. MID_CALL: Boolean (true/false). Set to true ONLY if the conversation ends abruptly or the borrower hangs up mid-sentence without a professional closing.

CONVERSATION:
%[2]s

Respond in JSON format only with these exact keys:
{
    "summary": "...",
    "sentiment": "...",
    "intent": "...",
    "payment_date": "YYYY-MM-DD or null",
    "mid_call": true/false
}`, today, strings.Join(lines, "\n"))
}

func parseAnalysis(raw string) (models.CallAnalysis, error) {
	var parsed struct {
		Summary     string  `json:"summary"`
		Sentiment   string  `json:"sentiment"`
		Intent      string  `json:"intent"`
		PaymentDate *string `json:"payment_date"`
		MidCall     bool    `json:"mid_call"`
	}
	if err := json.Unmarshal([]byte(StripFences(raw)), &parsed); err != nil {
		return models.CallAnalysis{}, err
	}

	out := models.CallAnalysis{
		Summary:   strings.TrimSpace(parsed.Summary),
		Sentiment: strings.TrimSpace(parsed.Sentiment),
		Intent:    strings.TrimSpace(parsed.Intent),
		MidCall:   parsed.MidCall,
	}
	if out.Sentiment == "" {
		out.Sentiment = "Neutral"
	}
	if out.Intent == "" {
		out.Intent = "No Response"
	}
	if parsed.PaymentDate != nil && !strings.EqualFold(*parsed.PaymentDate, "null") && *parsed.PaymentDate != "" {
		out.PaymentDate = parsed.PaymentDate
	}
	return out, nil
}

// NeutralAnalysis is persisted when the model could not be reached.
func NeutralAnalysis() models.CallAnalysis {
	return models.CallAnalysis{
		Summary:   "AI analysis not available",
		Sentiment: "Neutral",
		Intent:    "No Response",
	}
}

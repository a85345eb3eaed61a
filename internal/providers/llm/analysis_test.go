package llm

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vocollect/vocollect/internal/models"
)

type scriptedProvider struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (p *scriptedProvider) Complete(ctx context.Context, system, user string) (string, error) {
	return "", errors.New("not used")
}

func (p *scriptedProvider) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	i := p.calls
	p.calls++
	p.prompts = append(p.prompts, user)
	if i < len(p.errs) && p.errs[i] != nil {
		return "", p.errs[i]
	}
	if i < len(p.responses) {
		return p.responses[i], nil
	}
	return "", errors.New("script exhausted")
}

func (p *scriptedProvider) Close() error { return nil }

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func testAnalyzer(p Provider) *Analyzer {
	a := NewAnalyzer(p, quietLog())
	a.BaseDelay = time.Millisecond
	a.Now = func() time.Time { return time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC) }
	return a
}

func TestAnalyzeParsesFencedResponse(t *testing.T) {
	p := &scriptedProvider{responses: []string{
		"```json\n{\"summary\": \"Borrower will pay Friday.\", \"sentiment\": \"Positive\", \"intent\": \"Will Pay\", \"payment_date\": \"2026-01-09\", \"mid_call\": false}\n```",
	}}
	a := testAnalyzer(p)

	got, err := a.Analyze(context.Background(), []models.ConversationEntry{
		{Speaker: models.SpeakerAssistant, Text: "Will you pay before the due date?"},
		{Speaker: models.SpeakerCaller, Text: "Yes, this Friday."},
	})

	require.NoError(t, err)
	assert.Equal(t, "Borrower will pay Friday.", got.Summary)
	assert.Equal(t, "Positive", got.Sentiment)
	assert.Equal(t, "Will Pay", got.Intent)
	require.NotNil(t, got.PaymentDate)
	assert.Equal(t, "2026-01-09", *got.PaymentDate)
	assert.False(t, got.MidCall)

	require.Len(t, p.prompts, 1)
	assert.Contains(t, p.prompts[0], "Current Date: 2026-01-05 (Monday)")
	assert.Contains(t, p.prompts[0], "User: Yes, this Friday.")
}

func TestAnalyzeRetriesThenSucceeds(t *testing.T) {
	p := &scriptedProvider{
		errs: []error{errors.New("rate limited"), nil},
		responses: []string{
			"",
			`{"summary": "s", "sentiment": "Negative", "intent": "Dispute", "payment_date": null, "mid_call": true}`,
		},
	}
	a := testAnalyzer(p)

	got, err := a.Analyze(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, p.calls)
	assert.Equal(t, "Dispute", got.Intent)
	assert.Nil(t, got.PaymentDate)
	assert.True(t, got.MidCall)
}

func TestAnalyzeExhaustedFallsBackNeutral(t *testing.T) {
	p := &scriptedProvider{errs: []error{
		errors.New("down"), errors.New("down"), errors.New("down"),
	}}
	a := testAnalyzer(p)

	got, err := a.Analyze(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, 3, p.calls)
	assert.Equal(t, NeutralAnalysis(), got)
}

func TestParseAnalysisDefaultsAndNulls(t *testing.T) {
	got, err := parseAnalysis(`{"summary": " s ", "payment_date": "null"}`)
	require.NoError(t, err)
	assert.Equal(t, "s", got.Summary)
	assert.Equal(t, "Neutral", got.Sentiment)
	assert.Equal(t, "No Response", got.Intent)
	assert.Nil(t, got.PaymentDate)

	_, err = parseAnalysis("the model rambled instead of emitting json")
	assert.Error(t, err)
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripFences(`{"a":1}`))
}

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vocollect/vocollect/internal/models"
	"github.com/vocollect/vocollect/internal/outcome"
	"github.com/vocollect/vocollect/internal/telephony"
	"github.com/vocollect/vocollect/internal/turn"
	"github.com/vocollect/vocollect/internal/utils"
)

type fakeBorrowers struct {
	mu         sync.Mutex
	byLoan     map[string]*models.Borrower
	inProgress map[string]bool
	escalated  map[string]*models.NotificationDraft
	summaries  map[string]string
}

func newFakeBorrowers(bs ...*models.Borrower) *fakeBorrowers {
	f := &fakeBorrowers{
		byLoan:     map[string]*models.Borrower{},
		inProgress: map[string]bool{},
		escalated:  map[string]*models.NotificationDraft{},
		summaries:  map[string]string{},
	}
	for _, b := range bs {
		f.byLoan[b.LoanNo] = b
	}
	return f
}

func (f *fakeBorrowers) Get(ctx context.Context, tenantID, loanNo string) (*models.Borrower, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.byLoan[loanNo]
	if !ok {
		return nil, utils.E(utils.CodeNotFound, "fake.Get", "borrower not found", utils.ErrNotFound)
	}
	cp := *b
	cp.CallInProgress = f.inProgress[loanNo] || b.CallInProgress
	return &cp, nil
}

func (f *fakeBorrowers) List(ctx context.Context, tenantID string) ([]models.Borrower, error) {
	return nil, nil
}

func (f *fakeBorrowers) Create(ctx context.Context, b *models.Borrower) error { return nil }

func (f *fakeBorrowers) MarkCallInProgress(ctx context.Context, tenantID, loanNo string, inProgress bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inProgress[loanNo] = inProgress
	return nil
}

func (f *fakeBorrowers) ApplyOutcome(ctx context.Context, tenantID, loanNo string, session *models.CallSession, rec outcome.Record) error {
	return nil
}

func (f *fakeBorrowers) MarkEscalated(ctx context.Context, tenantID, loanNo, summary string, draft *models.NotificationDraft) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.escalated[loanNo] = draft
	f.summaries[loanNo] = summary
	return nil
}

func (f *fakeBorrowers) ResetCalls(ctx context.Context, tenantID string) (int64, error) {
	return 0, nil
}

type fakeSessions struct {
	mu      sync.Mutex
	upserts []models.CallSession
}

func (f *fakeSessions) Upsert(ctx context.Context, s *models.CallSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, *s)
	return nil
}

func (f *fakeSessions) GetByCallUUID(ctx context.Context, callUUID string) (*models.CallSession, error) {
	return nil, utils.ErrNotFound
}

func (f *fakeSessions) ListByTenant(ctx context.Context, tenantID string, limit int) ([]models.CallSession, error) {
	return nil, nil
}

func (f *fakeSessions) ListByLoan(ctx context.Context, tenantID, loanNo string) ([]models.CallSession, error) {
	return nil, nil
}

func (f *fakeSessions) SetAnalysis(ctx context.Context, callUUID string, analysis models.CallAnalysis) error {
	return nil
}

type fakeVoice struct {
	mu    sync.Mutex
	uuids []string
	errs  []error
	calls int
}

func (f *fakeVoice) PlaceCall(ctx context.Context, req telephony.CallRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.uuids) {
		return f.uuids[i], nil
	}
	return "", errors.New("no more scripted calls")
}

func testCallService(borrowers BorrowerService, sessions *fakeSessions, voice telephony.Provider) CallService {
	return NewCallService(CallServiceConfig{
		Sessions:      sessions,
		Borrowers:     borrowers,
		Voice:         voice,
		PublicBaseURL: "https://calls.example.com",
		FromNumber:    "14155550100",
		Now:           func() time.Time { return time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC) },
	})
}

func TestPlaceSucceedsFirstAttempt(t *testing.T) {
	borrowers := newFakeBorrowers(&models.Borrower{
		TenantID: "t1", LoanNo: "LN-1", Phone: "9876543210", PreferredLanguage: "Hindi",
	})
	voice := &fakeVoice{uuids: []string{"uuid-1"}}
	svc := testCallService(borrowers, &fakeSessions{}, voice)

	res, err := svc.Place(context.Background(), "t1", "LN-1")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "uuid-1", res.CallUUID)
	assert.Equal(t, 1, voice.calls)
	assert.True(t, borrowers.inProgress["LN-1"])
}

func TestPlaceRejectsConcurrentCall(t *testing.T) {
	borrowers := newFakeBorrowers(&models.Borrower{
		TenantID: "t1", LoanNo: "LN-1", Phone: "9876543210", CallInProgress: true,
	})
	svc := testCallService(borrowers, &fakeSessions{}, &fakeVoice{})

	_, err := svc.Place(context.Background(), "t1", "LN-1")
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeConflict))
}

func TestUnansweredCallReleasesBorrower(t *testing.T) {
	borrowers := newFakeBorrowers(&models.Borrower{
		TenantID: "t1", LoanNo: "LN-1", Phone: "9876543210",
	})
	voice := &fakeVoice{uuids: []string{"uuid-1", "uuid-2"}}
	sessions := &fakeSessions{}
	svc := testCallService(borrowers, sessions, voice)

	res, err := svc.Place(context.Background(), "t1", "LN-1")
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.True(t, borrowers.inProgress["LN-1"])

	// Provider reports the call never connected; no answer webhook fired.
	require.NoError(t, svc.HandleEvent(context.Background(), res.CallUUID, "timeout"))

	assert.False(t, borrowers.inProgress["LN-1"])
	assert.Empty(t, sessions.upserts)
	_, ok := svc.Registry().Get(res.CallUUID)
	assert.False(t, ok)

	res2, err := svc.Place(context.Background(), "t1", "LN-1")
	require.NoError(t, err)
	assert.True(t, res2.Success)
	assert.Equal(t, "uuid-2", res2.CallUUID)
}

func TestPlaceEscalatesAfterThreeFailures(t *testing.T) {
	borrowers := newFakeBorrowers(&models.Borrower{
		TenantID: "t1", LoanNo: "LN-7", Phone: "9876543210",
	})
	down := errors.New("carrier unreachable")
	voice := &fakeVoice{errs: []error{down, down, down}}
	svc := testCallService(borrowers, &fakeSessions{}, voice)

	res, err := svc.Place(context.Background(), "t1", "LN-7")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.True(t, res.Escalated)
	assert.Equal(t, 3, voice.calls)

	assert.Equal(t, "All call attempts failed to connect (3 retries). Initiating Manual Process.", borrowers.summaries["LN-7"])
	draft := borrowers.escalated["LN-7"]
	require.NotNil(t, draft)
	assert.Equal(t, "Area Manager", draft.To)
	assert.Equal(t, "Action Required: Multiple Call Failures - Borrower LN-7", draft.Subject)
}

func TestPlaceBulkCounts(t *testing.T) {
	borrowers := newFakeBorrowers(
		&models.Borrower{TenantID: "t1", LoanNo: "LN-1", Phone: "9876543210"},
	)
	voice := &fakeVoice{uuids: []string{"uuid-1"}}
	svc := testCallService(borrowers, &fakeSessions{}, voice)

	out := svc.PlaceBulk(context.Background(), "t1", []string{"LN-1", "LN-missing"})
	assert.Equal(t, 2, out.Total)
	assert.Equal(t, 1, out.Successful)
	assert.Equal(t, 1, out.Failed)
	require.Len(t, out.Results, 2)
}

func TestAnswerCreatesSessionAndNCCO(t *testing.T) {
	borrowers := newFakeBorrowers(&models.Borrower{
		TenantID: "t1", LoanNo: "LN-1", Name: "Priya Sharma", Phone: "9876543210",
	})
	sessions := &fakeSessions{}
	svc := testCallService(borrowers, sessions, &fakeVoice{})

	ncco, err := svc.Answer(context.Background(), AnswerParams{
		CallUUID:          "uuid-9",
		TenantID:          "t1",
		LoanNo:            "LN-1",
		PreferredLanguage: "English",
	})
	require.NoError(t, err)
	require.Len(t, ncco, 1)
	assert.Equal(t, "connect", ncco[0]["action"])

	require.Len(t, sessions.upserts, 1)
	stored := sessions.upserts[0]
	assert.Equal(t, "uuid-9", stored.CallUUID)
	assert.Equal(t, models.CallStatusActive, stored.Status)
	require.Len(t, stored.Conversation, 1)
	assert.Equal(t, models.SpeakerAssistant, stored.Conversation[0].Speaker)

	_, ok := svc.Registry().Get("uuid-9")
	assert.True(t, ok)
}

func TestAnswerRequiresCallUUID(t *testing.T) {
	svc := testCallService(newFakeBorrowers(), &fakeSessions{}, &fakeVoice{})
	_, err := svc.Answer(context.Background(), AnswerParams{})
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestFinalizeRunsOnceAcrossTriggers(t *testing.T) {
	sessions := &fakeSessions{}
	svc := testCallService(newFakeBorrowers(), sessions, &fakeVoice{})

	_, err := svc.Answer(context.Background(), AnswerParams{CallUUID: "uuid-3"})
	require.NoError(t, err)
	sessions.upserts = nil // keep only finalize writes

	svc.Finalize(context.Background(), "uuid-3", turn.ReasonDisconnect)
	svc.Finalize(context.Background(), "uuid-3", turn.ReasonProviderCompleted)
	require.NoError(t, svc.HandleEvent(context.Background(), "uuid-3", "completed"))

	require.Len(t, sessions.upserts, 1)
	final := sessions.upserts[0]
	assert.Equal(t, models.CallStatusCompleted, final.Status)
	assert.True(t, final.TransportCut)
	require.NotNil(t, final.EndedAt)

	_, ok := svc.Registry().Get("uuid-3")
	assert.False(t, ok)
}

package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vocollect/vocollect/internal/models"
	"github.com/vocollect/vocollect/internal/outcome"
	"github.com/vocollect/vocollect/internal/utils"
)

type fakeBorrowerRepo struct {
	borrower *models.Borrower
	gets     int
	updates  []map[string]any
}

func (f *fakeBorrowerRepo) GetByLoanNo(ctx context.Context, tenantID, loanNo string) (*models.Borrower, error) {
	f.gets++
	if f.borrower == nil {
		return nil, utils.ErrNotFound
	}
	cp := *f.borrower
	return &cp, nil
}

func (f *fakeBorrowerRepo) ListByTenant(ctx context.Context, tenantID string) ([]models.Borrower, error) {
	return nil, nil
}

func (f *fakeBorrowerRepo) Create(ctx context.Context, b *models.Borrower) error { return nil }

func (f *fakeBorrowerRepo) Update(ctx context.Context, tenantID, loanNo string, fields map[string]any) error {
	f.updates = append(f.updates, fields)
	return nil
}

func (f *fakeBorrowerRepo) ResetCalls(ctx context.Context, tenantID string) (int64, error) {
	return 4, nil
}

type memCache struct {
	entries map[string][]byte
	dels    []string
}

func newMemCache() *memCache { return &memCache{entries: map[string][]byte{}} }

func (c *memCache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	raw, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (c *memCache) SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *memCache) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.entries, k)
		c.dels = append(c.dels, k)
	}
	return nil
}

func TestBorrowerGetUsesCache(t *testing.T) {
	repo := &fakeBorrowerRepo{borrower: &models.Borrower{
		TenantID: "t1", LoanNo: "LN-1", Name: "Ramesh Kumar",
	}}
	c := newMemCache()
	svc := NewBorrowerService(repo, c)

	ctx := context.Background()
	first, err := svc.Get(ctx, "t1", "LN-1")
	require.NoError(t, err)
	second, err := svc.Get(ctx, "t1", "LN-1")
	require.NoError(t, err)

	assert.Equal(t, first.Name, second.Name)
	assert.Equal(t, 1, repo.gets, "second read is served from cache")
}

func TestBorrowerGetNotFound(t *testing.T) {
	svc := NewBorrowerService(&fakeBorrowerRepo{}, newMemCache())
	_, err := svc.Get(context.Background(), "t1", "LN-404")
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}

func TestBorrowerGetValidatesInput(t *testing.T) {
	svc := NewBorrowerService(&fakeBorrowerRepo{}, nil)
	_, err := svc.Get(context.Background(), "", "LN-1")
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestApplyOutcomeWritesSnapshotAndInvalidatesCache(t *testing.T) {
	repo := &fakeBorrowerRepo{borrower: &models.Borrower{TenantID: "t1", LoanNo: "LN-1"}}
	c := newMemCache()
	svc := NewBorrowerService(repo, c)
	ctx := context.Background()

	// Warm the cache so the invalidation is observable.
	_, err := svc.Get(ctx, "t1", "LN-1")
	require.NoError(t, err)

	session := &models.CallSession{
		CallUUID: "uuid-1",
		Conversation: []models.ConversationEntry{
			{Speaker: models.SpeakerAssistant, Text: "Hello"},
			{Speaker: models.SpeakerCaller, Text: "I paid already"},
		},
		Analysis: &models.CallAnalysis{Summary: "Borrower claims payment."},
	}
	rec := outcome.Record{
		PaymentConfirmation:  "Paid",
		FollowUpDate:         "2026-02-05",
		CallFrequency:        "1 call/week",
		RequireManualProcess: true,
		Notification:         &models.NotificationDraft{To: "Area Manager", Subject: "s", Body: "b"},
	}

	require.NoError(t, svc.ApplyOutcome(ctx, "t1", "LN-1", session, rec))

	require.Len(t, repo.updates, 1)
	fields := repo.updates[0]
	assert.Equal(t, true, fields["call_completed"])
	assert.Equal(t, false, fields["call_in_progress"])
	assert.Equal(t, "Paid", fields["payment_confirmation"])
	assert.Equal(t, "2026-02-05", fields["follow_up_date"])
	assert.Equal(t, true, fields["require_manual_process"])
	// No explicit next-step summary: the analysis summary is used.
	assert.Equal(t, "Borrower claims payment.", fields["ai_summary"])
	assert.Contains(t, fields, "transcript")
	assert.Contains(t, fields, "notification_preview")

	assert.Contains(t, c.dels, borrowerCacheKey("t1", "LN-1"))
}

func TestMarkEscalatedWithoutDraft(t *testing.T) {
	repo := &fakeBorrowerRepo{borrower: &models.Borrower{TenantID: "t1", LoanNo: "LN-1"}}
	svc := NewBorrowerService(repo, nil)

	require.NoError(t, svc.MarkEscalated(context.Background(), "t1", "LN-1", "manual needed", nil))
	require.Len(t, repo.updates, 1)
	fields := repo.updates[0]
	assert.Equal(t, "manual needed", fields["ai_summary"])
	assert.NotContains(t, fields, "notification_preview")
}

func TestCreateFillsID(t *testing.T) {
	repo := &fakeBorrowerRepo{}
	svc := NewBorrowerService(repo, nil)

	b := &models.Borrower{TenantID: "t1", LoanNo: "LN-1"}
	require.NoError(t, svc.Create(context.Background(), b))
	assert.NotEmpty(t, b.ID)

	assert.Error(t, svc.Create(context.Background(), &models.Borrower{LoanNo: "LN-2"}))
}

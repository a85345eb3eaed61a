package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vocollect/vocollect/internal/cache"
	"github.com/vocollect/vocollect/internal/models"
	"github.com/vocollect/vocollect/internal/outcome"
	pgrepo "github.com/vocollect/vocollect/internal/repositories/postgres"
	"github.com/vocollect/vocollect/internal/utils"
)

const borrowerCacheTTL = 5 * time.Minute

type BorrowerService interface {
	Get(ctx context.Context, tenantID, loanNo string) (*models.Borrower, error)
	List(ctx context.Context, tenantID string) ([]models.Borrower, error)
	Create(ctx context.Context, b *models.Borrower) error
	MarkCallInProgress(ctx context.Context, tenantID, loanNo string, inProgress bool) error
	// ApplyOutcome snapshots a finished call onto the borrower row.
	ApplyOutcome(ctx context.Context, tenantID, loanNo string, session *models.CallSession, rec outcome.Record) error
	// MarkEscalated records a call-placement failure that needs a human.
	MarkEscalated(ctx context.Context, tenantID, loanNo, summary string, draft *models.NotificationDraft) error
	ResetCalls(ctx context.Context, tenantID string) (int64, error)
}

type borrowerService struct {
	borrowers pgrepo.BorrowerRepo
	cache     cache.Cache
}

func NewBorrowerService(borrowers pgrepo.BorrowerRepo, c cache.Cache) BorrowerService {
	return &borrowerService{borrowers: borrowers, cache: c}
}

func borrowerCacheKey(tenantID, loanNo string) string {
	return fmt.Sprintf("borrower:%s:%s", tenantID, loanNo)
}

func (s *borrowerService) Get(ctx context.Context, tenantID, loanNo string) (*models.Borrower, error) {
	const op = "BorrowerService.Get"

	if tenantID == "" || loanNo == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "tenant_id and loan_no are required", nil)
	}

	key := borrowerCacheKey(tenantID, loanNo)
	if s.cache != nil {
		var cached models.Borrower
		if hit, _ := s.cache.GetJSON(ctx, key, &cached); hit {
			return &cached, nil
		}
	}

	b, err := s.borrowers.GetByLoanNo(ctx, tenantID, loanNo)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "borrower not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get borrower", err)
	}

	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, key, b, borrowerCacheTTL)
	}
	return b, nil
}

func (s *borrowerService) List(ctx context.Context, tenantID string) ([]models.Borrower, error) {
	const op = "BorrowerService.List"

	if tenantID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "tenant_id is required", nil)
	}
	out, err := s.borrowers.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list borrowers", err)
	}
	return out, nil
}

func (s *borrowerService) Create(ctx context.Context, b *models.Borrower) error {
	const op = "BorrowerService.Create"

	if b == nil || b.TenantID == "" || b.LoanNo == "" {
		return utils.E(utils.CodeInvalidArgument, op, "tenant_id and loan_no are required", nil)
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if err := s.borrowers.Create(ctx, b); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to create borrower", err)
	}
	return nil
}

func (s *borrowerService) MarkCallInProgress(ctx context.Context, tenantID, loanNo string, inProgress bool) error {
	const op = "BorrowerService.MarkCallInProgress"

	err := s.update(ctx, tenantID, loanNo, map[string]any{"call_in_progress": inProgress})
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to update borrower", err)
	}
	return nil
}

func (s *borrowerService) ApplyOutcome(ctx context.Context, tenantID, loanNo string, session *models.CallSession, rec outcome.Record) error {
	const op = "BorrowerService.ApplyOutcome"

	transcript, err := json.Marshal(session.Conversation)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "marshal transcript", err)
	}

	summary := rec.NextStepSummary
	if summary == "" && session.Analysis != nil {
		summary = session.Analysis.Summary
	}

	fields := map[string]any{
		"call_completed":         true,
		"call_in_progress":       false,
		"transcript":             transcript,
		"ai_summary":             summary,
		"payment_confirmation":   rec.PaymentConfirmation,
		"follow_up_date":         rec.FollowUpDate,
		"call_frequency":         rec.CallFrequency,
		"require_manual_process": rec.RequireManualProcess,
	}
	if rec.Notification != nil {
		preview, err := json.Marshal(rec.Notification)
		if err != nil {
			return utils.E(utils.CodeInternal, op, "marshal notification preview", err)
		}
		fields["notification_preview"] = preview
	}

	if err := s.update(ctx, tenantID, loanNo, fields); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to apply outcome", err)
	}
	return nil
}

func (s *borrowerService) MarkEscalated(ctx context.Context, tenantID, loanNo, summary string, draft *models.NotificationDraft) error {
	const op = "BorrowerService.MarkEscalated"

	fields := map[string]any{
		"call_completed":         true,
		"call_in_progress":       false,
		"ai_summary":             summary,
		"require_manual_process": true,
	}
	if draft != nil {
		preview, err := json.Marshal(draft)
		if err != nil {
			return utils.E(utils.CodeInternal, op, "marshal notification preview", err)
		}
		fields["notification_preview"] = preview
	}

	if err := s.update(ctx, tenantID, loanNo, fields); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to mark escalated", err)
	}
	return nil
}

func (s *borrowerService) ResetCalls(ctx context.Context, tenantID string) (int64, error) {
	const op = "BorrowerService.ResetCalls"

	if tenantID == "" {
		return 0, utils.E(utils.CodeInvalidArgument, op, "tenant_id is required", nil)
	}
	n, err := s.borrowers.ResetCalls(ctx, tenantID)
	if err != nil {
		return 0, utils.E(utils.CodeInternal, op, "failed to reset calls", err)
	}
	return n, nil
}

// update writes fields and drops the stale cache entry.
func (s *borrowerService) update(ctx context.Context, tenantID, loanNo string, fields map[string]any) error {
	if err := s.borrowers.Update(ctx, tenantID, loanNo, fields); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.Del(ctx, borrowerCacheKey(tenantID, loanNo))
	}
	return nil
}

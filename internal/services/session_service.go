package services

import (
	"context"
	"errors"

	"github.com/vocollect/vocollect/internal/models"
	mongorepo "github.com/vocollect/vocollect/internal/repositories/mongo"
	"github.com/vocollect/vocollect/internal/utils"
)

// SessionService is the read side over finished and in-flight call sessions.
type SessionService interface {
	Get(ctx context.Context, callUUID string) (*models.CallSession, error)
	List(ctx context.Context, tenantID string, limit int) ([]models.CallSession, error)
	ListByLoan(ctx context.Context, tenantID, loanNo string) ([]models.CallSession, error)
}

type sessionService struct {
	sessions mongorepo.CallSessionRepository
}

func NewSessionService(sessions mongorepo.CallSessionRepository) SessionService {
	return &sessionService{sessions: sessions}
}

func (s *sessionService) Get(ctx context.Context, callUUID string) (*models.CallSession, error) {
	const op = "SessionService.Get"

	if callUUID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "call uuid is required", nil)
	}

	out, err := s.sessions.GetByCallUUID(ctx, callUUID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get session", err)
	}
	return out, nil
}

func (s *sessionService) List(ctx context.Context, tenantID string, limit int) ([]models.CallSession, error) {
	const op = "SessionService.List"

	if tenantID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "tenant_id is required", nil)
	}
	out, err := s.sessions.ListByTenant(ctx, tenantID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list sessions", err)
	}
	return out, nil
}

func (s *sessionService) ListByLoan(ctx context.Context, tenantID, loanNo string) ([]models.CallSession, error) {
	const op = "SessionService.ListByLoan"

	if tenantID == "" || loanNo == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "tenant_id and loan_no are required", nil)
	}
	out, err := s.sessions.ListByLoan(ctx, tenantID, loanNo)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list sessions by loan", err)
	}
	return out, nil
}

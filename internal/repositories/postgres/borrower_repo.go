package postgres

import (
	"context"
	"errors"

	"github.com/vocollect/vocollect/internal/models"
	"github.com/vocollect/vocollect/internal/utils"
	"gorm.io/gorm"
)

type BorrowerRepo interface {
	GetByLoanNo(ctx context.Context, tenantID, loanNo string) (*models.Borrower, error)
	ListByTenant(ctx context.Context, tenantID string) ([]models.Borrower, error)
	Create(ctx context.Context, b *models.Borrower) error
	Update(ctx context.Context, tenantID, loanNo string, fields map[string]any) error
	// ResetCalls clears per-call state for every borrower of a tenant and
	// reports how many rows it touched.
	ResetCalls(ctx context.Context, tenantID string) (int64, error)
}

type borrowerRepo struct {
	db *gorm.DB
}

func NewBorrowerRepo(db *gorm.DB) BorrowerRepo {
	return &borrowerRepo{db: db}
}

func (r *borrowerRepo) GetByLoanNo(ctx context.Context, tenantID, loanNo string) (*models.Borrower, error) {
	var row models.Borrower
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND loan_no = ?", tenantID, loanNo).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}

func (r *borrowerRepo) ListByTenant(ctx context.Context, tenantID string) ([]models.Borrower, error) {
	var rows []models.Borrower
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("loan_no ASC").
		Find(&rows).Error
	return rows, err
}

func (r *borrowerRepo) Create(ctx context.Context, b *models.Borrower) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *borrowerRepo) Update(ctx context.Context, tenantID, loanNo string, fields map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&models.Borrower{}).
		Where("tenant_id = ? AND loan_no = ?", tenantID, loanNo).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *borrowerRepo) ResetCalls(ctx context.Context, tenantID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Borrower{}).
		Where("tenant_id = ?", tenantID).
		Updates(map[string]any{
			"call_completed":         false,
			"call_in_progress":       false,
			"transcript":             nil,
			"ai_summary":             "",
			"payment_confirmation":   "",
			"follow_up_date":         "",
			"call_frequency":         "",
			"require_manual_process": false,
			"notification_preview":   nil,
		})
	return res.RowsAffected, res.Error
}

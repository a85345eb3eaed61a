package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Borrower is one loan account belonging to a tenant (collection agency).
// Post-call outcome fields are overwritten on every completed call; they are
// a snapshot, not a history (history lives in call_sessions).
type Borrower struct {
	ID       string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	TenantID string `gorm:"column:tenant_id;type:uuid;index:idx_tenant_loan,unique" json:"tenant_id"`
	LoanNo   string `gorm:"column:loan_no;type:text;index:idx_tenant_loan,unique" json:"loan_no"`

	Name  string `gorm:"column:name;type:text" json:"name"`
	Phone string `gorm:"column:phone;type:text" json:"phone"`

	AlternatePhones   pq.StringArray `gorm:"column:alternate_phones;type:text[]" json:"alternate_phones,omitempty"`
	Amount            float64        `gorm:"column:amount" json:"amount"`
	EMI               float64        `gorm:"column:emi" json:"emi"`
	DueDate           string         `gorm:"column:due_date;type:text" json:"due_date"`
	LastPaid          string         `gorm:"column:last_paid;type:text" json:"last_paid"`
	PaymentCategory   string         `gorm:"column:payment_category;type:text" json:"payment_category"` // Consistent|Inconsistent|Overdue
	PreferredLanguage string         `gorm:"column:preferred_language;type:text" json:"preferred_language"`

	CallCompleted  bool `gorm:"column:call_completed" json:"call_completed"`
	CallInProgress bool `gorm:"column:call_in_progress" json:"call_in_progress"`

	Transcript           datatypes.JSON `gorm:"column:transcript;type:jsonb" json:"transcript,omitempty"`
	AISummary            string         `gorm:"column:ai_summary;type:text" json:"ai_summary"`
	PaymentConfirmation  string         `gorm:"column:payment_confirmation;type:text" json:"payment_confirmation"`
	FollowUpDate         string         `gorm:"column:follow_up_date;type:text" json:"follow_up_date"`
	CallFrequency        string         `gorm:"column:call_frequency;type:text" json:"call_frequency"`
	RequireManualProcess bool           `gorm:"column:require_manual_process" json:"require_manual_process"`
	NotificationPreview  datatypes.JSON `gorm:"column:notification_preview;type:jsonb" json:"notification_preview,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (Borrower) TableName() string { return "borrowers" }

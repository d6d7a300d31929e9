package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ExpenseCategory enum constants
const (
	ExpenseCategoryPurchase = "PURCHASE"
	ExpenseCategoryTravel   = "TRAVEL"
	ExpenseCategoryOffice   = "OFFICE"
	ExpenseCategoryFreight  = "FREIGHT"
	ExpenseCategoryOther    = "OTHER"
)

// Expense represents a spend entry awaiting approval before payout.
// Expenses can be filed directly or generated from an approved purchase
// request (SourcePurchaseID carries the origin in that case).
type Expense struct {
	ID               uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DocNo            string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"doc_no"`
	Category         string          `gorm:"type:varchar(20);not null;default:'OTHER';index" json:"category"`
	Amount           decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	IncurredOn       *time.Time      `gorm:"type:date" json:"incurred_on"`
	Description      string          `gorm:"type:text" json:"description"`
	SourcePurchaseID *uuid.UUID      `gorm:"type:uuid;index" json:"source_purchase_id"`

	Status          string     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	SubmittedBy     *uuid.UUID `gorm:"type:uuid;index" json:"submitted_by"`
	Submitter       *User      `gorm:"foreignKey:SubmittedBy" json:"submitter,omitempty"`
	ApprovedBy      *uuid.UUID `gorm:"type:uuid" json:"approved_by"`
	Approver        *User      `gorm:"foreignKey:ApprovedBy" json:"approver,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at"`
	RejectionReason string     `gorm:"type:text" json:"rejection_reason"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CorporateAccount represents a company applying for a trading account with
// credit terms. The account becomes usable only after approval.
type CorporateAccount struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DocNo       string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"doc_no"`
	CompanyName string          `gorm:"type:varchar(255);not null" json:"company_name"`
	TaxCode     string          `gorm:"type:varchar(50);not null" json:"tax_code"`
	BankAccount string          `gorm:"type:varchar(100)" json:"bank_account"`
	CreditLimit decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"credit_limit"`
	ContactName string          `gorm:"type:varchar(255)" json:"contact_name"`
	Email       string          `gorm:"type:varchar(255)" json:"email"`
	Phone       string          `gorm:"type:varchar(50)" json:"phone"`
	IsActive    bool            `gorm:"default:false" json:"is_active"`

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

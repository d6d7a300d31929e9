package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PurchaseRequest represents a request to buy stock or tooling from a
// supplier. Approval cascades into an Expense for the payable amount;
// ExpenseID is the back-reference filled by that cascade.
type PurchaseRequest struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DocNo        string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"doc_no"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product      *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity     int             `gorm:"type:int;not null" json:"quantity"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	SupplierName string          `gorm:"type:varchar(255)" json:"supplier_name"`
	Description  string          `gorm:"type:text" json:"description"`
	ExpenseID    *uuid.UUID      `gorm:"type:uuid;index" json:"expense_id"`

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

package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateCustomer  = "CREATE_CUSTOMER"
	ActionUpdateCustomer  = "UPDATE_CUSTOMER"
	ActionDeleteCustomer  = "DELETE_CUSTOMER"
	ActionCreateProduct   = "CREATE_PRODUCT"
	ActionUpdateProduct   = "UPDATE_PRODUCT"
	ActionDeleteProduct   = "DELETE_PRODUCT"
	ActionCreateQuotation = "CREATE_QUOTATION"
	ActionCreatePurchase  = "CREATE_PURCHASE_REQUEST"
	ActionCreateExpense   = "CREATE_EXPENSE"
	ActionCreateSpecOrder = "CREATE_SPEC_ORDER"
	ActionCreateAccount   = "CREATE_CORPORATE_ACCOUNT"

	// Workflow actions
	ActionSubmitDocument    = "SUBMIT_DOCUMENT"
	ActionApproveDocument   = "APPROVE_DOCUMENT"
	ActionRejectDocument    = "REJECT_DOCUMENT"
	ActionResubmitDocument  = "RESUBMIT_DOCUMENT"
	ActionCascadeExpense    = "CREATE_EXPENSE_FROM_PURCHASE"
	ActionImportCustomerCSV = "IMPORT_CUSTOMERS_CSV"
	ActionImportProductCSV  = "IMPORT_PRODUCTS_CSV"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable for automated actions
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/doc number)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

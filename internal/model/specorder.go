package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RunnerType enum constants
const (
	RunnerTypeOpenGate  = "OPEN_GATE"
	RunnerTypeValveGate = "VALVE_GATE"
)

// SpecOrder represents a hot-runner specification order raised against a
// quotation. Editing one whose quotation is already approved bumps the
// revision tag on resubmission.
type SpecOrder struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DocNo          string     `gorm:"type:varchar(30);uniqueIndex;not null" json:"doc_no"`
	CustomerID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer       *Customer  `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	QuotationID    *uuid.UUID `gorm:"type:uuid;index" json:"quotation_id"`
	Quotation      *Quotation `gorm:"foreignKey:QuotationID" json:"quotation,omitempty"`
	RevisionTag    string     `gorm:"type:varchar(10);not null;default:'RV01'" json:"revision_tag"`
	MoldCode       string     `gorm:"type:varchar(100);not null" json:"mold_code"`
	CavityCount    int        `gorm:"type:int;not null;default:1" json:"cavity_count"`
	RunnerType     string     `gorm:"type:varchar(20);not null;default:'OPEN_GATE'" json:"runner_type"`
	ControllerSpec string     `gorm:"type:varchar(255)" json:"controller_spec"`
	Resin          string     `gorm:"type:varchar(100)" json:"resin"`
	Note           string     `gorm:"type:text" json:"note"`

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

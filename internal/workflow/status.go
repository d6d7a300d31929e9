package workflow

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Document status constants shared by every approval-gated record kind
const (
	StatusDraft    = "DRAFT"
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

// Stamp is the approval metadata every workflow document carries. Services
// copy it to and from their model fields so transition rules live in one
// place instead of per-handler conditionals.
type Stamp struct {
	Status          string
	SubmittedBy     *uuid.UUID
	ApprovedBy      *uuid.UUID
	ApprovedAt      *time.Time
	RejectionReason string
}

// Submit moves a draft document into the approval queue.
func Submit(s *Stamp, userID uuid.UUID) error {
	if s.Status != StatusDraft {
		return fmt.Errorf("only DRAFT documents can be submitted (current status: %s)", s.Status)
	}
	s.Status = StatusPending
	s.SubmittedBy = &userID
	return nil
}

// Approve stamps the reviewer and timestamp on a pending document.
func Approve(s *Stamp, approverID uuid.UUID, now time.Time) error {
	if s.Status != StatusPending {
		return fmt.Errorf("document is already %s", s.Status)
	}
	s.Status = StatusApproved
	s.ApprovedBy = &approverID
	s.ApprovedAt = &now
	return nil
}

// Reject requires a non-empty reason; an empty reason leaves the document
// untouched.
func Reject(s *Stamp, reviewerID uuid.UUID, now time.Time, reason string) error {
	if s.Status != StatusPending {
		return fmt.Errorf("document is already %s", s.Status)
	}
	if reason == "" {
		return fmt.Errorf("rejection reason is required")
	}
	s.Status = StatusRejected
	s.ApprovedBy = &reviewerID
	s.ApprovedAt = &now
	s.RejectionReason = reason
	return nil
}

// Resubmit returns a rejected document to the queue. Only the original
// submitter may resubmit; prior reviewer metadata is cleared.
func Resubmit(s *Stamp, userID uuid.UUID) error {
	if s.Status != StatusRejected {
		return fmt.Errorf("only REJECTED documents can be resubmitted (current status: %s)", s.Status)
	}
	if s.SubmittedBy == nil || *s.SubmittedBy != userID {
		return fmt.Errorf("only the original submitter can resubmit this document")
	}
	s.Status = StatusPending
	s.ApprovedBy = nil
	s.ApprovedAt = nil
	s.RejectionReason = ""
	return nil
}

// Editable reports whether a document's fields may still be changed directly.
// Approved documents are frozen; rejected ones change through resubmission.
func Editable(status string) bool {
	return status == StatusDraft || status == StatusPending
}

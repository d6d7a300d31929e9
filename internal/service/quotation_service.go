package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tradeflow/internal/model"
	"tradeflow/internal/notify"
	"tradeflow/internal/repository"
	"tradeflow/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type QuotationItemRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
	UnitPrice string `json:"unit_price" binding:"required"`
}

type CreateQuotationRequest struct {
	CustomerID string                 `json:"customer_id" binding:"required,uuid"`
	ValidUntil string                 `json:"valid_until"` // YYYY-MM-DD
	Note       string                 `json:"note"`
	Items      []QuotationItemRequest `json:"items" binding:"required,min=1,dive"`
}

type UpdateQuotationRequest struct {
	ValidUntil *string                `json:"valid_until"`
	Note       *string                `json:"note"`
	Items      []QuotationItemRequest `json:"items"`
}

type QuotationItemResponse struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total"`
}

type QuotationResponse struct {
	ID              string                  `json:"id"`
	DocNo           string                  `json:"doc_no"`
	CustomerID      string                  `json:"customer_id"`
	CustomerName    string                  `json:"customer_name"`
	RevisionTag     string                  `json:"revision_tag"`
	ValidUntil      *string                 `json:"valid_until"`
	Subtotal        string                  `json:"subtotal"`
	Note            string                  `json:"note"`
	Items           []QuotationItemResponse `json:"items"`
	Status          string                  `json:"status"`
	SubmittedBy     *string                 `json:"submitted_by"`
	SubmitterName   string                  `json:"submitter_name"`
	ApprovedBy      *string                 `json:"approved_by"`
	ApproverName    string                  `json:"approver_name"`
	ApprovedAt      *string                 `json:"approved_at"`
	RejectionReason string                  `json:"rejection_reason"`
	CreatedAt       string                  `json:"created_at"`
}

// --- Interface ---

type QuotationService interface {
	CreateQuotation(ctx context.Context, userID string, req CreateQuotationRequest) (QuotationResponse, error)
	UpdateQuotation(ctx context.Context, id, userID string, req UpdateQuotationRequest) (QuotationResponse, error)
	DeleteQuotation(ctx context.Context, id, role string) error
	GetQuotation(ctx context.Context, id string) (QuotationResponse, error)
	ListQuotations(ctx context.Context, status, customerID string, page, limit int) ([]QuotationResponse, int64, error)
	SubmitQuotation(ctx context.Context, id, userID, role string) (QuotationResponse, error)
	ApproveQuotation(ctx context.Context, id, userID, role string) (QuotationResponse, error)
	RejectQuotation(ctx context.Context, id, userID, role, reason string) (QuotationResponse, error)
	ResubmitQuotation(ctx context.Context, id, userID string) (QuotationResponse, error)
}

type quotationService struct {
	quotationRepo repository.QuotationRepository
	customerRepo  repository.CustomerRepository
	productRepo   repository.ProductRepository
	docNumRepo    repository.DocumentNumberRepository
	auditRepo     repository.AuditRepository
	txManager     repository.TransactionManager
	notifier      notify.Notifier
}

func NewQuotationService(
	quotationRepo repository.QuotationRepository,
	customerRepo repository.CustomerRepository,
	productRepo repository.ProductRepository,
	docNumRepo repository.DocumentNumberRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier notify.Notifier,
) QuotationService {
	return &quotationService{
		quotationRepo: quotationRepo,
		customerRepo:  customerRepo,
		productRepo:   productRepo,
		docNumRepo:    docNumRepo,
		auditRepo:     auditRepo,
		txManager:     txManager,
		notifier:      notifier,
	}
}

// --- Implementation ---

func (s *quotationService) CreateQuotation(ctx context.Context, userID string, req CreateQuotationRequest) (QuotationResponse, error) {
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return QuotationResponse{}, fmt.Errorf("invalid customer id: %w", err)
	}
	submitterID, err := uuid.Parse(userID)
	if err != nil {
		return QuotationResponse{}, fmt.Errorf("invalid user id: %w", err)
	}

	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return QuotationResponse{}, fmt.Errorf("customer not found: %w", err)
	}

	items, subtotal, err := s.buildItems(ctx, req.Items)
	if err != nil {
		return QuotationResponse{}, err
	}

	var validUntil *time.Time
	if req.ValidUntil != "" {
		parsed, parseErr := time.Parse("2006-01-02", req.ValidUntil)
		if parseErr != nil {
			return QuotationResponse{}, fmt.Errorf("invalid valid_until date: %w", parseErr)
		}
		validUntil = &parsed
	}

	quotation := model.Quotation{
		CustomerID:  customerID,
		RevisionTag: workflow.FirstRevision,
		ValidUntil:  validUntil,
		Subtotal:    subtotal,
		Note:        req.Note,
		Items:       items,
		Status:      workflow.StatusDraft,
		SubmittedBy: &submitterID,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		docNo, numErr := s.docNumRepo.Next(txCtx, workflow.PrefixQuotation, time.Now())
		if numErr != nil {
			return numErr
		}
		quotation.DocNo = docNo

		if createErr := s.quotationRepo.Create(txCtx, &quotation); createErr != nil {
			return fmt.Errorf("failed to create quotation: %w", createErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"doc_no":      quotation.DocNo,
			"customer_id": req.CustomerID,
			"subtotal":    subtotal.StringFixed(4),
			"item_count":  len(items),
		})
		audit := &model.AuditLog{
			UserID:     &submitterID,
			Action:     model.ActionCreateQuotation,
			EntityID:   quotation.DocNo,
			EntityName: customer.Name,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		return nil
	})
	if err != nil {
		return QuotationResponse{}, err
	}
	quotation.Customer = customer

	return toQuotationResponse(quotation), nil
}

func (s *quotationService) UpdateQuotation(ctx context.Context, id, userID string, req UpdateQuotationRequest) (QuotationResponse, error) {
	quotationID, err := uuid.Parse(id)
	if err != nil {
		return QuotationResponse{}, fmt.Errorf("invalid quotation id: %w", err)
	}

	quotation, err := s.quotationRepo.FindByID(ctx, quotationID)
	if err != nil {
		return QuotationResponse{}, fmt.Errorf("quotation not found: %w", err)
	}

	if !workflow.Editable(quotation.Status) {
		return QuotationResponse{}, fmt.Errorf("quotation %s can no longer be edited (status: %s)", quotation.DocNo, quotation.Status)
	}
	if quotation.SubmittedBy == nil || quotation.SubmittedBy.String() != userID {
		return QuotationResponse{}, fmt.Errorf("only the submitter can edit this quotation")
	}

	if req.ValidUntil != nil {
		parsed, parseErr := time.Parse("2006-01-02", *req.ValidUntil)
		if parseErr != nil {
			return QuotationResponse{}, fmt.Errorf("invalid valid_until date: %w", parseErr)
		}
		quotation.ValidUntil = &parsed
	}
	if req.Note != nil {
		quotation.Note = *req.Note
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if req.Items != nil {
			items, subtotal, buildErr := s.buildItems(txCtx, req.Items)
			if buildErr != nil {
				return buildErr
			}
			for i := range items {
				items[i].QuotationID = quotation.ID
			}
			if replaceErr := s.quotationRepo.ReplaceItems(txCtx, quotation.ID, items); replaceErr != nil {
				return fmt.Errorf("failed to replace quotation items: %w", replaceErr)
			}
			quotation.Items = items
			quotation.Subtotal = subtotal
		}

		if saveErr := s.quotationRepo.Update(txCtx, quotation); saveErr != nil {
			return fmt.Errorf("failed to update quotation: %w", saveErr)
		}
		return nil
	})
	if err != nil {
		return QuotationResponse{}, err
	}

	return toQuotationResponse(*quotation), nil
}

func (s *quotationService) DeleteQuotation(ctx context.Context, id, role string) error {
	if !workflow.Allowed(role, workflow.ActionDelete) {
		return fmt.Errorf("role %q may not delete quotations", role)
	}
	quotationID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid quotation id: %w", err)
	}
	return s.quotationRepo.Delete(ctx, quotationID)
}

func (s *quotationService) GetQuotation(ctx context.Context, id string) (QuotationResponse, error) {
	quotationID, err := uuid.Parse(id)
	if err != nil {
		return QuotationResponse{}, fmt.Errorf("invalid quotation id: %w", err)
	}
	quotation, err := s.quotationRepo.FindByID(ctx, quotationID)
	if err != nil {
		return QuotationResponse{}, fmt.Errorf("quotation not found: %w", err)
	}
	return toQuotationResponse(*quotation), nil
}

func (s *quotationService) ListQuotations(ctx context.Context, status, customerID string, page, limit int) ([]QuotationResponse, int64, error) {
	var customerFilter *uuid.UUID
	if customerID != "" {
		parsed, err := uuid.Parse(customerID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid customer id: %w", err)
		}
		customerFilter = &parsed
	}

	quotations, total, err := s.quotationRepo.List(ctx, status, customerFilter, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch quotations: %w", err)
	}

	result := make([]QuotationResponse, 0, len(quotations))
	for _, q := range quotations {
		result = append(result, toQuotationResponse(q))
	}
	return result, total, nil
}

func (s *quotationService) SubmitQuotation(ctx context.Context, id, userID, role string) (QuotationResponse, error) {
	if !workflow.Allowed(role, workflow.ActionSubmit) {
		return QuotationResponse{}, fmt.Errorf("role %q may not submit quotations", role)
	}

	quotationID, err := uuid.Parse(id)
	if err != nil {
		return QuotationResponse{}, fmt.Errorf("invalid quotation id: %w", err)
	}
	submitterID, err := uuid.Parse(userID)
	if err != nil {
		return QuotationResponse{}, fmt.Errorf("invalid user id: %w", err)
	}

	var quotation *model.Quotation
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		quotation, findErr = s.quotationRepo.FindByID(txCtx, quotationID)
		if findErr != nil {
			return fmt.Errorf("quotation not found: %w", findErr)
		}
		if len(quotation.Items) == 0 {
			return fmt.Errorf("quotation %s has no line items", quotation.DocNo)
		}

		stamp := stampFromQuotation(quotation)
		if err := workflow.Submit(&stamp, submitterID); err != nil {
			return err
		}
		stampToQuotation(stamp, quotation)

		if saveErr := s.quotationRepo.Update(txCtx, quotation); saveErr != nil {
			return fmt.Errorf("failed to update quotation: %w", saveErr)
		}

		return s.logQuotationAudit(txCtx, model.ActionSubmitDocument, &submitterID, quotation, "")
	})
	if err != nil {
		return QuotationResponse{}, err
	}

	s.notifier.DocumentEvent(notify.Event{
		Kind:   "QUOTATION",
		Action: notify.EventSubmitted,
		DocNo:  quotation.DocNo,
	})

	return toQuotationResponse(*quotation), nil
}

func (s *quotationService) ApproveQuotation(ctx context.Context, id, userID, role string) (QuotationResponse, error) {
	if !workflow.Allowed(role, workflow.ActionApprove) {
		return QuotationResponse{}, fmt.Errorf("role %q may not approve quotations", role)
	}

	quotationID, err := uuid.Parse(id)
	if err != nil {
		return QuotationResponse{}, fmt.Errorf("invalid quotation id: %w", err)
	}
	approverID, err := uuid.Parse(userID)
	if err != nil {
		return QuotationResponse{}, fmt.Errorf("invalid user id: %w", err)
	}

	var quotation *model.Quotation
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		quotation, findErr = s.quotationRepo.FindByID(txCtx, quotationID)
		if findErr != nil {
			return fmt.Errorf("quotation not found: %w", findErr)
		}

		stamp := stampFromQuotation(quotation)
		if err := workflow.Approve(&stamp, approverID, time.Now()); err != nil {
			return err
		}
		stampToQuotation(stamp, quotation)

		if saveErr := s.quotationRepo.Update(txCtx, quotation); saveErr != nil {
			return fmt.Errorf("failed to update quotation: %w", saveErr)
		}

		return s.logQuotationAudit(txCtx, model.ActionApproveDocument, &approverID, quotation, "")
	})
	if err != nil {
		return QuotationResponse{}, err
	}

	s.notifier.DocumentEvent(notify.Event{
		Kind:      "QUOTATION",
		Action:    notify.EventApproved,
		DocNo:     quotation.DocNo,
		Recipient: submitterEmail(quotation.Submitter),
	})

	return toQuotationResponse(*quotation), nil
}

func (s *quotationService) RejectQuotation(ctx context.Context, id, userID, role, reason string) (QuotationResponse, error) {
	if !workflow.Allowed(role, workflow.ActionReject) {
		return QuotationResponse{}, fmt.Errorf("role %q may not reject quotations", role)
	}

	quotationID, err := uuid.Parse(id)
	if err != nil {
		return QuotationResponse{}, fmt.Errorf("invalid quotation id: %w", err)
	}
	reviewerID, err := uuid.Parse(userID)
	if err != nil {
		return QuotationResponse{}, fmt.Errorf("invalid user id: %w", err)
	}

	var quotation *model.Quotation
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		quotation, findErr = s.quotationRepo.FindByID(txCtx, quotationID)
		if findErr != nil {
			return fmt.Errorf("quotation not found: %w", findErr)
		}

		stamp := stampFromQuotation(quotation)
		if err := workflow.Reject(&stamp, reviewerID, time.Now(), reason); err != nil {
			return err
		}
		stampToQuotation(stamp, quotation)

		if saveErr := s.quotationRepo.Update(txCtx, quotation); saveErr != nil {
			return fmt.Errorf("failed to update quotation: %w", saveErr)
		}

		return s.logQuotationAudit(txCtx, model.ActionRejectDocument, &reviewerID, quotation, reason)
	})
	if err != nil {
		return QuotationResponse{}, err
	}

	s.notifier.DocumentEvent(notify.Event{
		Kind:      "QUOTATION",
		Action:    notify.EventRejected,
		DocNo:     quotation.DocNo,
		Reason:    reason,
		Recipient: submitterEmail(quotation.Submitter),
	})

	return toQuotationResponse(*quotation), nil
}

// ResubmitQuotation puts a rejected quotation back into the approval queue
// under the next revision tag.
func (s *quotationService) ResubmitQuotation(ctx context.Context, id, userID string) (QuotationResponse, error) {
	quotationID, err := uuid.Parse(id)
	if err != nil {
		return QuotationResponse{}, fmt.Errorf("invalid quotation id: %w", err)
	}
	submitterID, err := uuid.Parse(userID)
	if err != nil {
		return QuotationResponse{}, fmt.Errorf("invalid user id: %w", err)
	}

	var quotation *model.Quotation
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		quotation, findErr = s.quotationRepo.FindByID(txCtx, quotationID)
		if findErr != nil {
			return fmt.Errorf("quotation not found: %w", findErr)
		}

		stamp := stampFromQuotation(quotation)
		if err := workflow.Resubmit(&stamp, submitterID); err != nil {
			return err
		}
		stampToQuotation(stamp, quotation)
		quotation.RevisionTag = workflow.NextRevision(quotation.RevisionTag)

		if saveErr := s.quotationRepo.Update(txCtx, quotation); saveErr != nil {
			return fmt.Errorf("failed to update quotation: %w", saveErr)
		}

		return s.logQuotationAudit(txCtx, model.ActionResubmitDocument, &submitterID, quotation, "")
	})
	if err != nil {
		return QuotationResponse{}, err
	}

	s.notifier.DocumentEvent(notify.Event{
		Kind:   "QUOTATION",
		Action: notify.EventSubmitted,
		DocNo:  quotation.DocNo,
	})

	return toQuotationResponse(*quotation), nil
}

// --- Helpers ---

func (s *quotationService) buildItems(ctx context.Context, reqs []QuotationItemRequest) ([]model.QuotationItem, decimal.Decimal, error) {
	if len(reqs) == 0 {
		return nil, decimal.Zero, fmt.Errorf("quotation requires at least one line item")
	}

	items := make([]model.QuotationItem, 0, len(reqs))
	subtotal := decimal.Zero
	for i, item := range reqs {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("item %d: invalid product id: %w", i+1, err)
		}
		if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
			return nil, decimal.Zero, fmt.Errorf("item %d: product not found: %w", i+1, err)
		}
		if item.Quantity <= 0 {
			return nil, decimal.Zero, fmt.Errorf("item %d: quantity must be greater than 0", i+1)
		}
		unitPrice, err := decimal.NewFromString(item.UnitPrice)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("item %d: invalid unit price: %w", i+1, err)
		}
		if unitPrice.LessThan(decimal.Zero) {
			return nil, decimal.Zero, fmt.Errorf("item %d: unit price cannot be negative", i+1)
		}

		items = append(items, model.QuotationItem{
			ProductID: productID,
			Quantity:  item.Quantity,
			UnitPrice: unitPrice,
		})
		subtotal = subtotal.Add(unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return items, subtotal, nil
}

func (s *quotationService) logQuotationAudit(ctx context.Context, action string, userID *uuid.UUID, q *model.Quotation, reason string) error {
	payload := map[string]interface{}{"doc_no": q.DocNo, "kind": "QUOTATION", "revision": q.RevisionTag}
	if reason != "" {
		payload["reason"] = reason
	}
	details, _ := json.Marshal(payload)
	audit := &model.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityID:   q.DocNo,
		EntityName: "QUOTATION",
		Details:    string(details),
	}
	if err := s.auditRepo.Log(ctx, audit); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func stampFromQuotation(q *model.Quotation) workflow.Stamp {
	return workflow.Stamp{
		Status:          q.Status,
		SubmittedBy:     q.SubmittedBy,
		ApprovedBy:      q.ApprovedBy,
		ApprovedAt:      q.ApprovedAt,
		RejectionReason: q.RejectionReason,
	}
}

func stampToQuotation(s workflow.Stamp, q *model.Quotation) {
	q.Status = s.Status
	q.SubmittedBy = s.SubmittedBy
	q.ApprovedBy = s.ApprovedBy
	q.ApprovedAt = s.ApprovedAt
	q.RejectionReason = s.RejectionReason
}

func toQuotationResponse(q model.Quotation) QuotationResponse {
	resp := QuotationResponse{
		ID:              q.ID.String(),
		DocNo:           q.DocNo,
		CustomerID:      q.CustomerID.String(),
		RevisionTag:     q.RevisionTag,
		Subtotal:        q.Subtotal.StringFixed(4),
		Note:            q.Note,
		Status:          q.Status,
		RejectionReason: q.RejectionReason,
		CreatedAt:       q.CreatedAt.Format(time.RFC3339),
		Items:           make([]QuotationItemResponse, 0, len(q.Items)),
	}

	for _, item := range q.Items {
		resp.Items = append(resp.Items, QuotationItemResponse{
			ID:        item.ID.String(),
			ProductID: item.ProductID.String(),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.StringFixed(4),
			LineTotal: item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).StringFixed(4),
		})
	}

	if q.Customer != nil {
		resp.CustomerName = q.Customer.Name
	}
	if q.ValidUntil != nil {
		s := q.ValidUntil.Format("2006-01-02")
		resp.ValidUntil = &s
	}
	if q.SubmittedBy != nil {
		s := q.SubmittedBy.String()
		resp.SubmittedBy = &s
	}
	if q.Submitter != nil {
		resp.SubmitterName = q.Submitter.Username
	}
	if q.ApprovedBy != nil {
		s := q.ApprovedBy.String()
		resp.ApprovedBy = &s
	}
	if q.Approver != nil {
		resp.ApproverName = q.Approver.Username
	}
	if q.ApprovedAt != nil {
		s := q.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &s
	}

	return resp
}

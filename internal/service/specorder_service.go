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
)

// --- DTOs ---

type CreateSpecOrderRequest struct {
	CustomerID     string `json:"customer_id" binding:"required,uuid"`
	QuotationID    string `json:"quotation_id"`
	MoldCode       string `json:"mold_code" binding:"required"`
	CavityCount    int    `json:"cavity_count" binding:"required,gt=0"`
	RunnerType     string `json:"runner_type" binding:"required,oneof=OPEN_GATE VALVE_GATE"`
	ControllerSpec string `json:"controller_spec"`
	Resin          string `json:"resin"`
	Note           string `json:"note"`
}

type UpdateSpecOrderRequest struct {
	MoldCode       *string `json:"mold_code"`
	CavityCount    *int    `json:"cavity_count"`
	RunnerType     *string `json:"runner_type"`
	ControllerSpec *string `json:"controller_spec"`
	Resin          *string `json:"resin"`
	Note           *string `json:"note"`
}

type SpecOrderResponse struct {
	ID              string  `json:"id"`
	DocNo           string  `json:"doc_no"`
	CustomerID      string  `json:"customer_id"`
	CustomerName    string  `json:"customer_name"`
	QuotationID     *string `json:"quotation_id"`
	QuotationDocNo  string  `json:"quotation_doc_no"`
	RevisionTag     string  `json:"revision_tag"`
	MoldCode        string  `json:"mold_code"`
	CavityCount     int     `json:"cavity_count"`
	RunnerType      string  `json:"runner_type"`
	ControllerSpec  string  `json:"controller_spec"`
	Resin           string  `json:"resin"`
	Note            string  `json:"note"`
	Status          string  `json:"status"`
	SubmittedBy     *string `json:"submitted_by"`
	SubmitterName   string  `json:"submitter_name"`
	ApprovedBy      *string `json:"approved_by"`
	ApproverName    string  `json:"approver_name"`
	ApprovedAt      *string `json:"approved_at"`
	RejectionReason string  `json:"rejection_reason"`
	CreatedAt       string  `json:"created_at"`
}

// --- Interface ---

type SpecOrderService interface {
	CreateSpecOrder(ctx context.Context, userID, role string, req CreateSpecOrderRequest) (SpecOrderResponse, error)
	UpdateSpecOrder(ctx context.Context, id, userID string, req UpdateSpecOrderRequest) (SpecOrderResponse, error)
	DeleteSpecOrder(ctx context.Context, id, role string) error
	GetSpecOrder(ctx context.Context, id string) (SpecOrderResponse, error)
	ListSpecOrders(ctx context.Context, status, quotationID string, page, limit int) ([]SpecOrderResponse, int64, error)
	ApproveSpecOrder(ctx context.Context, id, userID, role string) (SpecOrderResponse, error)
	RejectSpecOrder(ctx context.Context, id, userID, role, reason string) (SpecOrderResponse, error)
	ResubmitSpecOrder(ctx context.Context, id, userID string) (SpecOrderResponse, error)
}

type specOrderService struct {
	specOrderRepo repository.SpecOrderRepository
	customerRepo  repository.CustomerRepository
	quotationRepo repository.QuotationRepository
	docNumRepo    repository.DocumentNumberRepository
	auditRepo     repository.AuditRepository
	txManager     repository.TransactionManager
	notifier      notify.Notifier
}

func NewSpecOrderService(
	specOrderRepo repository.SpecOrderRepository,
	customerRepo repository.CustomerRepository,
	quotationRepo repository.QuotationRepository,
	docNumRepo repository.DocumentNumberRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier notify.Notifier,
) SpecOrderService {
	return &specOrderService{
		specOrderRepo: specOrderRepo,
		customerRepo:  customerRepo,
		quotationRepo: quotationRepo,
		docNumRepo:    docNumRepo,
		auditRepo:     auditRepo,
		txManager:     txManager,
		notifier:      notifier,
	}
}

// --- Implementation ---

func (s *specOrderService) CreateSpecOrder(ctx context.Context, userID, role string, req CreateSpecOrderRequest) (SpecOrderResponse, error) {
	if !workflow.Allowed(role, workflow.ActionSubmit) {
		return SpecOrderResponse{}, fmt.Errorf("role %q may not file spec orders", role)
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return SpecOrderResponse{}, fmt.Errorf("invalid customer id: %w", err)
	}
	submitterID, err := uuid.Parse(userID)
	if err != nil {
		return SpecOrderResponse{}, fmt.Errorf("invalid user id: %w", err)
	}

	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return SpecOrderResponse{}, fmt.Errorf("customer not found: %w", err)
	}

	var quotationID *uuid.UUID
	if req.QuotationID != "" {
		parsed, parseErr := uuid.Parse(req.QuotationID)
		if parseErr != nil {
			return SpecOrderResponse{}, fmt.Errorf("invalid quotation id: %w", parseErr)
		}
		quotation, findErr := s.quotationRepo.FindByID(ctx, parsed)
		if findErr != nil {
			return SpecOrderResponse{}, fmt.Errorf("quotation not found: %w", findErr)
		}
		if quotation.CustomerID != customerID {
			return SpecOrderResponse{}, fmt.Errorf("quotation %s belongs to a different customer", quotation.DocNo)
		}
		quotationID = &parsed
	}

	order := model.SpecOrder{
		CustomerID:     customerID,
		QuotationID:    quotationID,
		RevisionTag:    workflow.FirstRevision,
		MoldCode:       req.MoldCode,
		CavityCount:    req.CavityCount,
		RunnerType:     req.RunnerType,
		ControllerSpec: req.ControllerSpec,
		Resin:          req.Resin,
		Note:           req.Note,
		Status:         workflow.StatusPending,
		SubmittedBy:    &submitterID,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		docNo, numErr := s.docNumRepo.Next(txCtx, workflow.PrefixSpecOrder, time.Now())
		if numErr != nil {
			return numErr
		}
		order.DocNo = docNo

		if createErr := s.specOrderRepo.Create(txCtx, &order); createErr != nil {
			return fmt.Errorf("failed to create spec order: %w", createErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"doc_no":       order.DocNo,
			"mold_code":    req.MoldCode,
			"cavity_count": req.CavityCount,
			"runner_type":  req.RunnerType,
		})
		audit := &model.AuditLog{
			UserID:     &submitterID,
			Action:     model.ActionCreateSpecOrder,
			EntityID:   order.DocNo,
			EntityName: customer.Name,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		return nil
	})
	if err != nil {
		return SpecOrderResponse{}, err
	}
	order.Customer = customer

	s.notifier.DocumentEvent(notify.Event{
		Kind:   "SPEC_ORDER",
		Action: notify.EventSubmitted,
		DocNo:  order.DocNo,
	})

	return toSpecOrderResponse(order), nil
}

// UpdateSpecOrder edits technical fields. When the order is tied to an
// already approved quotation the edit bumps the revision tag, so downstream
// readers can tell the sheet changed after the commercial sign-off.
func (s *specOrderService) UpdateSpecOrder(ctx context.Context, id, userID string, req UpdateSpecOrderRequest) (SpecOrderResponse, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return SpecOrderResponse{}, fmt.Errorf("invalid spec order id: %w", err)
	}

	var order *model.SpecOrder
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		order, findErr = s.specOrderRepo.FindByID(txCtx, orderID)
		if findErr != nil {
			return fmt.Errorf("spec order not found: %w", findErr)
		}

		if !workflow.Editable(order.Status) {
			return fmt.Errorf("spec order %s can no longer be edited (status: %s)", order.DocNo, order.Status)
		}
		if order.SubmittedBy == nil || order.SubmittedBy.String() != userID {
			return fmt.Errorf("only the submitter can edit this spec order")
		}

		changed := false
		if req.MoldCode != nil {
			if *req.MoldCode == "" {
				return fmt.Errorf("mold code cannot be empty")
			}
			order.MoldCode = *req.MoldCode
			changed = true
		}
		if req.CavityCount != nil {
			if *req.CavityCount <= 0 {
				return fmt.Errorf("cavity count must be greater than 0")
			}
			order.CavityCount = *req.CavityCount
			changed = true
		}
		if req.RunnerType != nil {
			if *req.RunnerType != model.RunnerTypeOpenGate && *req.RunnerType != model.RunnerTypeValveGate {
				return fmt.Errorf("runner type must be OPEN_GATE or VALVE_GATE")
			}
			order.RunnerType = *req.RunnerType
			changed = true
		}
		if req.ControllerSpec != nil {
			order.ControllerSpec = *req.ControllerSpec
			changed = true
		}
		if req.Resin != nil {
			order.Resin = *req.Resin
			changed = true
		}
		if req.Note != nil {
			order.Note = *req.Note
		}

		if changed && order.QuotationID != nil {
			quotation, findQErr := s.quotationRepo.FindByID(txCtx, *order.QuotationID)
			if findQErr == nil && quotation.Status == workflow.StatusApproved {
				order.RevisionTag = workflow.NextRevision(order.RevisionTag)
			}
		}

		if saveErr := s.specOrderRepo.Update(txCtx, order); saveErr != nil {
			return fmt.Errorf("failed to update spec order: %w", saveErr)
		}
		return nil
	})
	if err != nil {
		return SpecOrderResponse{}, err
	}

	return toSpecOrderResponse(*order), nil
}

func (s *specOrderService) DeleteSpecOrder(ctx context.Context, id, role string) error {
	if !workflow.Allowed(role, workflow.ActionDelete) {
		return fmt.Errorf("role %q may not delete spec orders", role)
	}
	orderID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid spec order id: %w", err)
	}
	return s.specOrderRepo.Delete(ctx, orderID)
}

func (s *specOrderService) GetSpecOrder(ctx context.Context, id string) (SpecOrderResponse, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return SpecOrderResponse{}, fmt.Errorf("invalid spec order id: %w", err)
	}
	order, err := s.specOrderRepo.FindByID(ctx, orderID)
	if err != nil {
		return SpecOrderResponse{}, fmt.Errorf("spec order not found: %w", err)
	}
	return toSpecOrderResponse(*order), nil
}

func (s *specOrderService) ListSpecOrders(ctx context.Context, status, quotationID string, page, limit int) ([]SpecOrderResponse, int64, error) {
	var quotationFilter *uuid.UUID
	if quotationID != "" {
		parsed, err := uuid.Parse(quotationID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid quotation id: %w", err)
		}
		quotationFilter = &parsed
	}

	orders, total, err := s.specOrderRepo.List(ctx, status, quotationFilter, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch spec orders: %w", err)
	}

	result := make([]SpecOrderResponse, 0, len(orders))
	for _, o := range orders {
		result = append(result, toSpecOrderResponse(o))
	}
	return result, total, nil
}

func (s *specOrderService) ApproveSpecOrder(ctx context.Context, id, userID, role string) (SpecOrderResponse, error) {
	if !workflow.Allowed(role, workflow.ActionApprove) {
		return SpecOrderResponse{}, fmt.Errorf("role %q may not approve spec orders", role)
	}

	orderID, err := uuid.Parse(id)
	if err != nil {
		return SpecOrderResponse{}, fmt.Errorf("invalid spec order id: %w", err)
	}
	approverID, err := uuid.Parse(userID)
	if err != nil {
		return SpecOrderResponse{}, fmt.Errorf("invalid user id: %w", err)
	}

	var order *model.SpecOrder
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		order, findErr = s.specOrderRepo.FindByID(txCtx, orderID)
		if findErr != nil {
			return fmt.Errorf("spec order not found: %w", findErr)
		}

		stamp := stampFromSpecOrder(order)
		if err := workflow.Approve(&stamp, approverID, time.Now()); err != nil {
			return err
		}
		stampToSpecOrder(stamp, order)

		if saveErr := s.specOrderRepo.Update(txCtx, order); saveErr != nil {
			return fmt.Errorf("failed to update spec order: %w", saveErr)
		}

		return s.logSpecOrderAudit(txCtx, model.ActionApproveDocument, &approverID, order, "")
	})
	if err != nil {
		return SpecOrderResponse{}, err
	}

	s.notifier.DocumentEvent(notify.Event{
		Kind:      "SPEC_ORDER",
		Action:    notify.EventApproved,
		DocNo:     order.DocNo,
		Recipient: submitterEmail(order.Submitter),
	})

	return toSpecOrderResponse(*order), nil
}

func (s *specOrderService) RejectSpecOrder(ctx context.Context, id, userID, role, reason string) (SpecOrderResponse, error) {
	if !workflow.Allowed(role, workflow.ActionReject) {
		return SpecOrderResponse{}, fmt.Errorf("role %q may not reject spec orders", role)
	}

	orderID, err := uuid.Parse(id)
	if err != nil {
		return SpecOrderResponse{}, fmt.Errorf("invalid spec order id: %w", err)
	}
	reviewerID, err := uuid.Parse(userID)
	if err != nil {
		return SpecOrderResponse{}, fmt.Errorf("invalid user id: %w", err)
	}

	var order *model.SpecOrder
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		order, findErr = s.specOrderRepo.FindByID(txCtx, orderID)
		if findErr != nil {
			return fmt.Errorf("spec order not found: %w", findErr)
		}

		stamp := stampFromSpecOrder(order)
		if err := workflow.Reject(&stamp, reviewerID, time.Now(), reason); err != nil {
			return err
		}
		stampToSpecOrder(stamp, order)

		if saveErr := s.specOrderRepo.Update(txCtx, order); saveErr != nil {
			return fmt.Errorf("failed to update spec order: %w", saveErr)
		}

		return s.logSpecOrderAudit(txCtx, model.ActionRejectDocument, &reviewerID, order, reason)
	})
	if err != nil {
		return SpecOrderResponse{}, err
	}

	s.notifier.DocumentEvent(notify.Event{
		Kind:      "SPEC_ORDER",
		Action:    notify.EventRejected,
		DocNo:     order.DocNo,
		Reason:    reason,
		Recipient: submitterEmail(order.Submitter),
	})

	return toSpecOrderResponse(*order), nil
}

func (s *specOrderService) ResubmitSpecOrder(ctx context.Context, id, userID string) (SpecOrderResponse, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return SpecOrderResponse{}, fmt.Errorf("invalid spec order id: %w", err)
	}
	submitterID, err := uuid.Parse(userID)
	if err != nil {
		return SpecOrderResponse{}, fmt.Errorf("invalid user id: %w", err)
	}

	var order *model.SpecOrder
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		order, findErr = s.specOrderRepo.FindByID(txCtx, orderID)
		if findErr != nil {
			return fmt.Errorf("spec order not found: %w", findErr)
		}

		stamp := stampFromSpecOrder(order)
		if err := workflow.Resubmit(&stamp, submitterID); err != nil {
			return err
		}
		stampToSpecOrder(stamp, order)
		order.RevisionTag = workflow.NextRevision(order.RevisionTag)

		if saveErr := s.specOrderRepo.Update(txCtx, order); saveErr != nil {
			return fmt.Errorf("failed to update spec order: %w", saveErr)
		}

		return s.logSpecOrderAudit(txCtx, model.ActionResubmitDocument, &submitterID, order, "")
	})
	if err != nil {
		return SpecOrderResponse{}, err
	}

	s.notifier.DocumentEvent(notify.Event{
		Kind:   "SPEC_ORDER",
		Action: notify.EventSubmitted,
		DocNo:  order.DocNo,
	})

	return toSpecOrderResponse(*order), nil
}

// --- Helpers ---

func (s *specOrderService) logSpecOrderAudit(ctx context.Context, action string, userID *uuid.UUID, o *model.SpecOrder, reason string) error {
	payload := map[string]interface{}{"doc_no": o.DocNo, "kind": "SPEC_ORDER", "revision": o.RevisionTag}
	if reason != "" {
		payload["reason"] = reason
	}
	details, _ := json.Marshal(payload)
	audit := &model.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityID:   o.DocNo,
		EntityName: "SPEC_ORDER",
		Details:    string(details),
	}
	if err := s.auditRepo.Log(ctx, audit); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func stampFromSpecOrder(o *model.SpecOrder) workflow.Stamp {
	return workflow.Stamp{
		Status:          o.Status,
		SubmittedBy:     o.SubmittedBy,
		ApprovedBy:      o.ApprovedBy,
		ApprovedAt:      o.ApprovedAt,
		RejectionReason: o.RejectionReason,
	}
}

func stampToSpecOrder(s workflow.Stamp, o *model.SpecOrder) {
	o.Status = s.Status
	o.SubmittedBy = s.SubmittedBy
	o.ApprovedBy = s.ApprovedBy
	o.ApprovedAt = s.ApprovedAt
	o.RejectionReason = s.RejectionReason
}

func toSpecOrderResponse(o model.SpecOrder) SpecOrderResponse {
	resp := SpecOrderResponse{
		ID:              o.ID.String(),
		DocNo:           o.DocNo,
		CustomerID:      o.CustomerID.String(),
		RevisionTag:     o.RevisionTag,
		MoldCode:        o.MoldCode,
		CavityCount:     o.CavityCount,
		RunnerType:      o.RunnerType,
		ControllerSpec:  o.ControllerSpec,
		Resin:           o.Resin,
		Note:            o.Note,
		Status:          o.Status,
		RejectionReason: o.RejectionReason,
		CreatedAt:       o.CreatedAt.Format(time.RFC3339),
	}

	if o.Customer != nil {
		resp.CustomerName = o.Customer.Name
	}
	if o.QuotationID != nil {
		s := o.QuotationID.String()
		resp.QuotationID = &s
	}
	if o.Quotation != nil {
		resp.QuotationDocNo = o.Quotation.DocNo
	}
	if o.SubmittedBy != nil {
		s := o.SubmittedBy.String()
		resp.SubmittedBy = &s
	}
	if o.Submitter != nil {
		resp.SubmitterName = o.Submitter.Username
	}
	if o.ApprovedBy != nil {
		s := o.ApprovedBy.String()
		resp.ApprovedBy = &s
	}
	if o.Approver != nil {
		resp.ApproverName = o.Approver.Username
	}
	if o.ApprovedAt != nil {
		s := o.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &s
	}

	return resp
}

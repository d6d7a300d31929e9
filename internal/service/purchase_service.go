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

type CreatePurchaseRequest struct {
	ProductID    string `json:"product_id" binding:"required,uuid"`
	Quantity     int    `json:"quantity" binding:"required,gt=0"`
	UnitPrice    string `json:"unit_price" binding:"required"`
	SupplierName string `json:"supplier_name"`
	Description  string `json:"description"`
}

type UpdatePurchaseRequest struct {
	Quantity     *int    `json:"quantity"`
	UnitPrice    *string `json:"unit_price"`
	SupplierName *string `json:"supplier_name"`
	Description  *string `json:"description"`
}

type PurchaseResponse struct {
	ID              string  `json:"id"`
	DocNo           string  `json:"doc_no"`
	ProductID       string  `json:"product_id"`
	ProductName     string  `json:"product_name"`
	ProductSKU      string  `json:"product_sku"`
	Quantity        int     `json:"quantity"`
	UnitPrice       string  `json:"unit_price"`
	TotalAmount     string  `json:"total_amount"`
	SupplierName    string  `json:"supplier_name"`
	Description     string  `json:"description"`
	ExpenseID       *string `json:"expense_id"`
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

type PurchaseService interface {
	CreatePurchase(ctx context.Context, userID, role string, req CreatePurchaseRequest) (PurchaseResponse, error)
	UpdatePurchase(ctx context.Context, id, userID string, req UpdatePurchaseRequest) (PurchaseResponse, error)
	DeletePurchase(ctx context.Context, id, role string) error
	GetPurchase(ctx context.Context, id string) (PurchaseResponse, error)
	ListPurchases(ctx context.Context, status string, page, limit int) ([]PurchaseResponse, int64, error)
	ApprovePurchase(ctx context.Context, id, userID, role string) (PurchaseResponse, error)
	RejectPurchase(ctx context.Context, id, userID, role, reason string) (PurchaseResponse, error)
	ResubmitPurchase(ctx context.Context, id, userID string) (PurchaseResponse, error)
}

type purchaseService struct {
	purchaseRepo repository.PurchaseRepository
	expenseRepo  repository.ExpenseRepository
	productRepo  repository.ProductRepository
	docNumRepo   repository.DocumentNumberRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	notifier     notify.Notifier
}

func NewPurchaseService(
	purchaseRepo repository.PurchaseRepository,
	expenseRepo repository.ExpenseRepository,
	productRepo repository.ProductRepository,
	docNumRepo repository.DocumentNumberRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier notify.Notifier,
) PurchaseService {
	return &purchaseService{
		purchaseRepo: purchaseRepo,
		expenseRepo:  expenseRepo,
		productRepo:  productRepo,
		docNumRepo:   docNumRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		notifier:     notifier,
	}
}

// --- Implementation ---

func (s *purchaseService) CreatePurchase(ctx context.Context, userID, role string, req CreatePurchaseRequest) (PurchaseResponse, error) {
	if !workflow.Allowed(role, workflow.ActionSubmit) {
		return PurchaseResponse{}, fmt.Errorf("role %q may not file purchase requests", role)
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return PurchaseResponse{}, fmt.Errorf("invalid product id: %w", err)
	}
	unitPrice, err := decimal.NewFromString(req.UnitPrice)
	if err != nil {
		return PurchaseResponse{}, fmt.Errorf("invalid unit price: %w", err)
	}
	if unitPrice.LessThanOrEqual(decimal.Zero) {
		return PurchaseResponse{}, fmt.Errorf("unit price must be greater than 0")
	}
	if req.Quantity <= 0 {
		return PurchaseResponse{}, fmt.Errorf("quantity must be greater than 0")
	}
	submitterID, err := uuid.Parse(userID)
	if err != nil {
		return PurchaseResponse{}, fmt.Errorf("invalid user id: %w", err)
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return PurchaseResponse{}, fmt.Errorf("product not found: %w", err)
	}

	purchase := model.PurchaseRequest{
		ProductID:    productID,
		Quantity:     req.Quantity,
		UnitPrice:    unitPrice,
		SupplierName: req.SupplierName,
		Description:  req.Description,
		Status:       workflow.StatusPending,
		SubmittedBy:  &submitterID,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		docNo, numErr := s.docNumRepo.Next(txCtx, workflow.PrefixPurchase, time.Now())
		if numErr != nil {
			return numErr
		}
		purchase.DocNo = docNo

		if createErr := s.purchaseRepo.Create(txCtx, &purchase); createErr != nil {
			return fmt.Errorf("failed to create purchase request: %w", createErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"doc_no":     purchase.DocNo,
			"product_id": req.ProductID,
			"quantity":   req.Quantity,
			"unit_price": req.UnitPrice,
		})
		audit := &model.AuditLog{
			UserID:     &submitterID,
			Action:     model.ActionCreatePurchase,
			EntityID:   purchase.DocNo,
			EntityName: product.Name,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		return nil
	})
	if err != nil {
		return PurchaseResponse{}, err
	}
	purchase.Product = product

	s.notifier.DocumentEvent(notify.Event{
		Kind:   "PURCHASE",
		Action: notify.EventSubmitted,
		DocNo:  purchase.DocNo,
	})

	return toPurchaseResponse(purchase), nil
}

func (s *purchaseService) UpdatePurchase(ctx context.Context, id, userID string, req UpdatePurchaseRequest) (PurchaseResponse, error) {
	purchaseID, err := uuid.Parse(id)
	if err != nil {
		return PurchaseResponse{}, fmt.Errorf("invalid purchase id: %w", err)
	}

	purchase, err := s.purchaseRepo.FindByID(ctx, purchaseID)
	if err != nil {
		return PurchaseResponse{}, fmt.Errorf("purchase request not found: %w", err)
	}

	if !workflow.Editable(purchase.Status) {
		return PurchaseResponse{}, fmt.Errorf("purchase request %s can no longer be edited (status: %s)", purchase.DocNo, purchase.Status)
	}
	if purchase.SubmittedBy == nil || purchase.SubmittedBy.String() != userID {
		return PurchaseResponse{}, fmt.Errorf("only the submitter can edit this purchase request")
	}

	if req.Quantity != nil {
		if *req.Quantity <= 0 {
			return PurchaseResponse{}, fmt.Errorf("quantity must be greater than 0")
		}
		purchase.Quantity = *req.Quantity
	}
	if req.UnitPrice != nil {
		unitPrice, parseErr := decimal.NewFromString(*req.UnitPrice)
		if parseErr != nil {
			return PurchaseResponse{}, fmt.Errorf("invalid unit price: %w", parseErr)
		}
		if unitPrice.LessThanOrEqual(decimal.Zero) {
			return PurchaseResponse{}, fmt.Errorf("unit price must be greater than 0")
		}
		purchase.UnitPrice = unitPrice
	}
	if req.SupplierName != nil {
		purchase.SupplierName = *req.SupplierName
	}
	if req.Description != nil {
		purchase.Description = *req.Description
	}

	if err := s.purchaseRepo.Update(ctx, purchase); err != nil {
		return PurchaseResponse{}, fmt.Errorf("failed to update purchase request: %w", err)
	}

	return toPurchaseResponse(*purchase), nil
}

func (s *purchaseService) DeletePurchase(ctx context.Context, id, role string) error {
	if !workflow.Allowed(role, workflow.ActionDelete) {
		return fmt.Errorf("role %q may not delete purchase requests", role)
	}
	purchaseID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid purchase id: %w", err)
	}
	purchase, err := s.purchaseRepo.FindByID(ctx, purchaseID)
	if err != nil {
		return fmt.Errorf("purchase request not found: %w", err)
	}
	if purchase.ExpenseID != nil {
		return fmt.Errorf("purchase request %s already generated an expense and cannot be deleted", purchase.DocNo)
	}
	return s.purchaseRepo.Delete(ctx, purchaseID)
}

func (s *purchaseService) GetPurchase(ctx context.Context, id string) (PurchaseResponse, error) {
	purchaseID, err := uuid.Parse(id)
	if err != nil {
		return PurchaseResponse{}, fmt.Errorf("invalid purchase id: %w", err)
	}
	purchase, err := s.purchaseRepo.FindByID(ctx, purchaseID)
	if err != nil {
		return PurchaseResponse{}, fmt.Errorf("purchase request not found: %w", err)
	}
	return toPurchaseResponse(*purchase), nil
}

func (s *purchaseService) ListPurchases(ctx context.Context, status string, page, limit int) ([]PurchaseResponse, int64, error) {
	purchases, total, err := s.purchaseRepo.List(ctx, status, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch purchase requests: %w", err)
	}

	result := make([]PurchaseResponse, 0, len(purchases))
	for _, p := range purchases {
		result = append(result, toPurchaseResponse(p))
	}
	return result, total, nil
}

// ApprovePurchase flips the request to APPROVED and creates the matching
// expense for quantity times unit price in the same transaction. The new
// expense starts PENDING and goes through its own review before payout.
func (s *purchaseService) ApprovePurchase(ctx context.Context, id, userID, role string) (PurchaseResponse, error) {
	if !workflow.Allowed(role, workflow.ActionApprove) {
		return PurchaseResponse{}, fmt.Errorf("role %q may not approve purchase requests", role)
	}

	purchaseID, err := uuid.Parse(id)
	if err != nil {
		return PurchaseResponse{}, fmt.Errorf("invalid purchase id: %w", err)
	}
	approverID, err := uuid.Parse(userID)
	if err != nil {
		return PurchaseResponse{}, fmt.Errorf("invalid user id: %w", err)
	}

	var purchase *model.PurchaseRequest
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		purchase, findErr = s.purchaseRepo.FindByID(txCtx, purchaseID)
		if findErr != nil {
			return fmt.Errorf("purchase request not found: %w", findErr)
		}

		now := time.Now()
		stamp := stampFromPurchase(purchase)
		if err := workflow.Approve(&stamp, approverID, now); err != nil {
			return err
		}
		stampToPurchase(stamp, purchase)

		expenseDocNo, numErr := s.docNumRepo.Next(txCtx, workflow.PrefixExpense, now)
		if numErr != nil {
			return numErr
		}

		productName := purchase.Description
		if purchase.Product != nil {
			productName = purchase.Product.Name
		}

		amount := purchase.UnitPrice.Mul(decimal.NewFromInt(int64(purchase.Quantity)))
		expense := model.Expense{
			DocNo:            expenseDocNo,
			Category:         model.ExpenseCategoryPurchase,
			Amount:           amount,
			IncurredOn:       &now,
			Description:      fmt.Sprintf("Purchase %s: %d x %s", purchase.DocNo, purchase.Quantity, productName),
			SourcePurchaseID: &purchase.ID,
			Status:           workflow.StatusPending,
			SubmittedBy:      purchase.SubmittedBy,
		}
		if createErr := s.expenseRepo.Create(txCtx, &expense); createErr != nil {
			return fmt.Errorf("failed to create expense from purchase: %w", createErr)
		}

		purchase.ExpenseID = &expense.ID
		if saveErr := s.purchaseRepo.Update(txCtx, purchase); saveErr != nil {
			return fmt.Errorf("failed to update purchase request: %w", saveErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"purchase_doc_no": purchase.DocNo,
			"expense_doc_no":  expense.DocNo,
			"amount":          amount.StringFixed(4),
		})
		cascadeAudit := &model.AuditLog{
			UserID:     &approverID,
			Action:     model.ActionCascadeExpense,
			EntityID:   expense.DocNo,
			EntityName: purchase.DocNo,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, cascadeAudit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		approvePayload, _ := json.Marshal(map[string]interface{}{"doc_no": purchase.DocNo, "kind": "PURCHASE"})
		approveAudit := &model.AuditLog{
			UserID:     &approverID,
			Action:     model.ActionApproveDocument,
			EntityID:   purchase.DocNo,
			EntityName: "PURCHASE",
			Details:    string(approvePayload),
		}
		if auditErr := s.auditRepo.Log(txCtx, approveAudit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		return nil
	})
	if err != nil {
		return PurchaseResponse{}, err
	}

	s.notifier.DocumentEvent(notify.Event{
		Kind:      "PURCHASE",
		Action:    notify.EventApproved,
		DocNo:     purchase.DocNo,
		Recipient: submitterEmail(purchase.Submitter),
	})

	return toPurchaseResponse(*purchase), nil
}

func (s *purchaseService) RejectPurchase(ctx context.Context, id, userID, role, reason string) (PurchaseResponse, error) {
	if !workflow.Allowed(role, workflow.ActionReject) {
		return PurchaseResponse{}, fmt.Errorf("role %q may not reject purchase requests", role)
	}

	purchaseID, err := uuid.Parse(id)
	if err != nil {
		return PurchaseResponse{}, fmt.Errorf("invalid purchase id: %w", err)
	}
	reviewerID, err := uuid.Parse(userID)
	if err != nil {
		return PurchaseResponse{}, fmt.Errorf("invalid user id: %w", err)
	}

	var purchase *model.PurchaseRequest
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		purchase, findErr = s.purchaseRepo.FindByID(txCtx, purchaseID)
		if findErr != nil {
			return fmt.Errorf("purchase request not found: %w", findErr)
		}

		stamp := stampFromPurchase(purchase)
		if err := workflow.Reject(&stamp, reviewerID, time.Now(), reason); err != nil {
			return err
		}
		stampToPurchase(stamp, purchase)

		if saveErr := s.purchaseRepo.Update(txCtx, purchase); saveErr != nil {
			return fmt.Errorf("failed to update purchase request: %w", saveErr)
		}

		payload, _ := json.Marshal(map[string]interface{}{"doc_no": purchase.DocNo, "kind": "PURCHASE", "reason": reason})
		audit := &model.AuditLog{
			UserID:     &reviewerID,
			Action:     model.ActionRejectDocument,
			EntityID:   purchase.DocNo,
			EntityName: "PURCHASE",
			Details:    string(payload),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		return nil
	})
	if err != nil {
		return PurchaseResponse{}, err
	}

	s.notifier.DocumentEvent(notify.Event{
		Kind:      "PURCHASE",
		Action:    notify.EventRejected,
		DocNo:     purchase.DocNo,
		Reason:    reason,
		Recipient: submitterEmail(purchase.Submitter),
	})

	return toPurchaseResponse(*purchase), nil
}

func (s *purchaseService) ResubmitPurchase(ctx context.Context, id, userID string) (PurchaseResponse, error) {
	purchaseID, err := uuid.Parse(id)
	if err != nil {
		return PurchaseResponse{}, fmt.Errorf("invalid purchase id: %w", err)
	}
	submitterID, err := uuid.Parse(userID)
	if err != nil {
		return PurchaseResponse{}, fmt.Errorf("invalid user id: %w", err)
	}

	var purchase *model.PurchaseRequest
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		purchase, findErr = s.purchaseRepo.FindByID(txCtx, purchaseID)
		if findErr != nil {
			return fmt.Errorf("purchase request not found: %w", findErr)
		}

		stamp := stampFromPurchase(purchase)
		if err := workflow.Resubmit(&stamp, submitterID); err != nil {
			return err
		}
		stampToPurchase(stamp, purchase)

		if saveErr := s.purchaseRepo.Update(txCtx, purchase); saveErr != nil {
			return fmt.Errorf("failed to update purchase request: %w", saveErr)
		}

		payload, _ := json.Marshal(map[string]interface{}{"doc_no": purchase.DocNo, "kind": "PURCHASE"})
		audit := &model.AuditLog{
			UserID:     &submitterID,
			Action:     model.ActionResubmitDocument,
			EntityID:   purchase.DocNo,
			EntityName: "PURCHASE",
			Details:    string(payload),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		return nil
	})
	if err != nil {
		return PurchaseResponse{}, err
	}

	s.notifier.DocumentEvent(notify.Event{
		Kind:   "PURCHASE",
		Action: notify.EventSubmitted,
		DocNo:  purchase.DocNo,
	})

	return toPurchaseResponse(*purchase), nil
}

// --- Helpers ---

func stampFromPurchase(p *model.PurchaseRequest) workflow.Stamp {
	return workflow.Stamp{
		Status:          p.Status,
		SubmittedBy:     p.SubmittedBy,
		ApprovedBy:      p.ApprovedBy,
		ApprovedAt:      p.ApprovedAt,
		RejectionReason: p.RejectionReason,
	}
}

func stampToPurchase(s workflow.Stamp, p *model.PurchaseRequest) {
	p.Status = s.Status
	p.SubmittedBy = s.SubmittedBy
	p.ApprovedBy = s.ApprovedBy
	p.ApprovedAt = s.ApprovedAt
	p.RejectionReason = s.RejectionReason
}

func toPurchaseResponse(p model.PurchaseRequest) PurchaseResponse {
	resp := PurchaseResponse{
		ID:              p.ID.String(),
		DocNo:           p.DocNo,
		ProductID:       p.ProductID.String(),
		Quantity:        p.Quantity,
		UnitPrice:       p.UnitPrice.StringFixed(4),
		TotalAmount:     p.UnitPrice.Mul(decimal.NewFromInt(int64(p.Quantity))).StringFixed(4),
		SupplierName:    p.SupplierName,
		Description:     p.Description,
		Status:          p.Status,
		RejectionReason: p.RejectionReason,
		CreatedAt:       p.CreatedAt.Format(time.RFC3339),
	}

	if p.Product != nil {
		resp.ProductName = p.Product.Name
		resp.ProductSKU = p.Product.SKU
	}
	if p.ExpenseID != nil {
		s := p.ExpenseID.String()
		resp.ExpenseID = &s
	}
	if p.SubmittedBy != nil {
		s := p.SubmittedBy.String()
		resp.SubmittedBy = &s
	}
	if p.Submitter != nil {
		resp.SubmitterName = p.Submitter.Username
	}
	if p.ApprovedBy != nil {
		s := p.ApprovedBy.String()
		resp.ApprovedBy = &s
	}
	if p.Approver != nil {
		resp.ApproverName = p.Approver.Username
	}
	if p.ApprovedAt != nil {
		s := p.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &s
	}

	return resp
}

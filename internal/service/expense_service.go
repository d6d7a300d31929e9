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

type CreateExpenseRequest struct {
	Category    string `json:"category" binding:"required,oneof=PURCHASE TRAVEL OFFICE FREIGHT OTHER"`
	Amount      string `json:"amount" binding:"required"` // Decimal string
	IncurredOn  string `json:"incurred_on"`               // YYYY-MM-DD
	Description string `json:"description" binding:"required"`
}

type UpdateExpenseRequest struct {
	Category    *string `json:"category"`
	Amount      *string `json:"amount"`
	IncurredOn  *string `json:"incurred_on"`
	Description *string `json:"description"`
}

type RejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type ExpenseResponse struct {
	ID               string  `json:"id"`
	DocNo            string  `json:"doc_no"`
	Category         string  `json:"category"`
	Amount           string  `json:"amount"`
	IncurredOn       *string `json:"incurred_on"`
	Description      string  `json:"description"`
	SourcePurchaseID *string `json:"source_purchase_id"`
	Status           string  `json:"status"`
	SubmittedBy      *string `json:"submitted_by"`
	SubmitterName    string  `json:"submitter_name"`
	ApprovedBy       *string `json:"approved_by"`
	ApproverName     string  `json:"approver_name"`
	ApprovedAt       *string `json:"approved_at"`
	RejectionReason  string  `json:"rejection_reason"`
	CreatedAt        string  `json:"created_at"`
}

// --- Interface ---

type ExpenseService interface {
	CreateExpense(ctx context.Context, userID, role string, req CreateExpenseRequest) (ExpenseResponse, error)
	UpdateExpense(ctx context.Context, id, userID string, req UpdateExpenseRequest) (ExpenseResponse, error)
	DeleteExpense(ctx context.Context, id, role string) error
	GetExpense(ctx context.Context, id string) (ExpenseResponse, error)
	ListExpenses(ctx context.Context, status, category string, page, limit int) ([]ExpenseResponse, int64, error)
	ApproveExpense(ctx context.Context, id, userID, role string) (ExpenseResponse, error)
	RejectExpense(ctx context.Context, id, userID, role, reason string) (ExpenseResponse, error)
	ResubmitExpense(ctx context.Context, id, userID string) (ExpenseResponse, error)
}

type expenseService struct {
	expenseRepo repository.ExpenseRepository
	docNumRepo  repository.DocumentNumberRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	notifier    notify.Notifier
}

func NewExpenseService(
	expenseRepo repository.ExpenseRepository,
	docNumRepo repository.DocumentNumberRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier notify.Notifier,
) ExpenseService {
	return &expenseService{
		expenseRepo: expenseRepo,
		docNumRepo:  docNumRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		notifier:    notifier,
	}
}

// --- Implementation ---

func (s *expenseService) CreateExpense(ctx context.Context, userID, role string, req CreateExpenseRequest) (ExpenseResponse, error) {
	if !workflow.Allowed(role, workflow.ActionSubmit) {
		return ExpenseResponse{}, fmt.Errorf("role %q may not file expenses", role)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return ExpenseResponse{}, fmt.Errorf("invalid amount: %w", err)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return ExpenseResponse{}, fmt.Errorf("amount must be greater than 0")
	}

	var incurredOn *time.Time
	if req.IncurredOn != "" {
		parsed, parseErr := time.Parse("2006-01-02", req.IncurredOn)
		if parseErr != nil {
			return ExpenseResponse{}, fmt.Errorf("invalid incurred_on date: %w", parseErr)
		}
		incurredOn = &parsed
	}

	submitterID, err := uuid.Parse(userID)
	if err != nil {
		return ExpenseResponse{}, fmt.Errorf("invalid user id: %w", err)
	}

	expense := model.Expense{
		Category:    req.Category,
		Amount:      amount,
		IncurredOn:  incurredOn,
		Description: req.Description,
		Status:      workflow.StatusPending,
		SubmittedBy: &submitterID,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		docNo, numErr := s.docNumRepo.Next(txCtx, workflow.PrefixExpense, time.Now())
		if numErr != nil {
			return numErr
		}
		expense.DocNo = docNo

		if createErr := s.expenseRepo.Create(txCtx, &expense); createErr != nil {
			return fmt.Errorf("failed to create expense: %w", createErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"doc_no":   expense.DocNo,
			"category": req.Category,
			"amount":   req.Amount,
		})
		audit := &model.AuditLog{
			UserID:     &submitterID,
			Action:     model.ActionCreateExpense,
			EntityID:   expense.DocNo,
			EntityName: req.Description,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		return nil
	})
	if err != nil {
		return ExpenseResponse{}, err
	}

	s.notifier.DocumentEvent(notify.Event{
		Kind:   "EXPENSE",
		Action: notify.EventSubmitted,
		DocNo:  expense.DocNo,
	})

	return toExpenseResponse(expense), nil
}

func (s *expenseService) UpdateExpense(ctx context.Context, id, userID string, req UpdateExpenseRequest) (ExpenseResponse, error) {
	expenseID, err := uuid.Parse(id)
	if err != nil {
		return ExpenseResponse{}, fmt.Errorf("invalid expense id: %w", err)
	}

	expense, err := s.expenseRepo.FindByID(ctx, expenseID)
	if err != nil {
		return ExpenseResponse{}, fmt.Errorf("expense not found: %w", err)
	}

	if !workflow.Editable(expense.Status) {
		return ExpenseResponse{}, fmt.Errorf("expense %s can no longer be edited (status: %s)", expense.DocNo, expense.Status)
	}
	if expense.SubmittedBy == nil || expense.SubmittedBy.String() != userID {
		return ExpenseResponse{}, fmt.Errorf("only the submitter can edit this expense")
	}

	if req.Category != nil {
		if !validExpenseCategories[*req.Category] {
			return ExpenseResponse{}, fmt.Errorf("category must be one of: PURCHASE, TRAVEL, OFFICE, FREIGHT, OTHER")
		}
		expense.Category = *req.Category
	}
	if req.Amount != nil {
		amount, parseErr := decimal.NewFromString(*req.Amount)
		if parseErr != nil {
			return ExpenseResponse{}, fmt.Errorf("invalid amount: %w", parseErr)
		}
		if amount.LessThanOrEqual(decimal.Zero) {
			return ExpenseResponse{}, fmt.Errorf("amount must be greater than 0")
		}
		expense.Amount = amount
	}
	if req.IncurredOn != nil {
		parsed, parseErr := time.Parse("2006-01-02", *req.IncurredOn)
		if parseErr != nil {
			return ExpenseResponse{}, fmt.Errorf("invalid incurred_on date: %w", parseErr)
		}
		expense.IncurredOn = &parsed
	}
	if req.Description != nil {
		if *req.Description == "" {
			return ExpenseResponse{}, fmt.Errorf("description cannot be empty")
		}
		expense.Description = *req.Description
	}

	if err := s.expenseRepo.Update(ctx, expense); err != nil {
		return ExpenseResponse{}, fmt.Errorf("failed to update expense: %w", err)
	}

	return toExpenseResponse(*expense), nil
}

func (s *expenseService) DeleteExpense(ctx context.Context, id, role string) error {
	if !workflow.Allowed(role, workflow.ActionDelete) {
		return fmt.Errorf("role %q may not delete expenses", role)
	}
	expenseID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid expense id: %w", err)
	}
	return s.expenseRepo.Delete(ctx, expenseID)
}

func (s *expenseService) GetExpense(ctx context.Context, id string) (ExpenseResponse, error) {
	expenseID, err := uuid.Parse(id)
	if err != nil {
		return ExpenseResponse{}, fmt.Errorf("invalid expense id: %w", err)
	}
	expense, err := s.expenseRepo.FindByID(ctx, expenseID)
	if err != nil {
		return ExpenseResponse{}, fmt.Errorf("expense not found: %w", err)
	}
	return toExpenseResponse(*expense), nil
}

func (s *expenseService) ListExpenses(ctx context.Context, status, category string, page, limit int) ([]ExpenseResponse, int64, error) {
	expenses, total, err := s.expenseRepo.List(ctx, status, category, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch expenses: %w", err)
	}

	result := make([]ExpenseResponse, 0, len(expenses))
	for _, e := range expenses {
		result = append(result, toExpenseResponse(e))
	}
	return result, total, nil
}

func (s *expenseService) ApproveExpense(ctx context.Context, id, userID, role string) (ExpenseResponse, error) {
	if !workflow.Allowed(role, workflow.ActionApprove) {
		return ExpenseResponse{}, fmt.Errorf("role %q may not approve expenses", role)
	}

	expenseID, err := uuid.Parse(id)
	if err != nil {
		return ExpenseResponse{}, fmt.Errorf("invalid expense id: %w", err)
	}
	approverID, err := uuid.Parse(userID)
	if err != nil {
		return ExpenseResponse{}, fmt.Errorf("invalid user id: %w", err)
	}

	var expense *model.Expense
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		expense, findErr = s.expenseRepo.FindByID(txCtx, expenseID)
		if findErr != nil {
			return fmt.Errorf("expense not found: %w", findErr)
		}

		stamp := stampFromExpense(expense)
		if err := workflow.Approve(&stamp, approverID, time.Now()); err != nil {
			return err
		}
		stampToExpense(stamp, expense)

		if saveErr := s.expenseRepo.Update(txCtx, expense); saveErr != nil {
			return fmt.Errorf("failed to update expense: %w", saveErr)
		}

		return s.logWorkflowAudit(txCtx, model.ActionApproveDocument, &approverID, expense.DocNo, "EXPENSE", "")
	})
	if err != nil {
		return ExpenseResponse{}, err
	}

	s.notifier.DocumentEvent(notify.Event{
		Kind:      "EXPENSE",
		Action:    notify.EventApproved,
		DocNo:     expense.DocNo,
		Recipient: submitterEmail(expense.Submitter),
	})

	return toExpenseResponse(*expense), nil
}

func (s *expenseService) RejectExpense(ctx context.Context, id, userID, role, reason string) (ExpenseResponse, error) {
	if !workflow.Allowed(role, workflow.ActionReject) {
		return ExpenseResponse{}, fmt.Errorf("role %q may not reject expenses", role)
	}

	expenseID, err := uuid.Parse(id)
	if err != nil {
		return ExpenseResponse{}, fmt.Errorf("invalid expense id: %w", err)
	}
	reviewerID, err := uuid.Parse(userID)
	if err != nil {
		return ExpenseResponse{}, fmt.Errorf("invalid user id: %w", err)
	}

	var expense *model.Expense
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		expense, findErr = s.expenseRepo.FindByID(txCtx, expenseID)
		if findErr != nil {
			return fmt.Errorf("expense not found: %w", findErr)
		}

		stamp := stampFromExpense(expense)
		if err := workflow.Reject(&stamp, reviewerID, time.Now(), reason); err != nil {
			return err
		}
		stampToExpense(stamp, expense)

		if saveErr := s.expenseRepo.Update(txCtx, expense); saveErr != nil {
			return fmt.Errorf("failed to update expense: %w", saveErr)
		}

		return s.logWorkflowAudit(txCtx, model.ActionRejectDocument, &reviewerID, expense.DocNo, "EXPENSE", reason)
	})
	if err != nil {
		return ExpenseResponse{}, err
	}

	s.notifier.DocumentEvent(notify.Event{
		Kind:      "EXPENSE",
		Action:    notify.EventRejected,
		DocNo:     expense.DocNo,
		Reason:    reason,
		Recipient: submitterEmail(expense.Submitter),
	})

	return toExpenseResponse(*expense), nil
}

func (s *expenseService) ResubmitExpense(ctx context.Context, id, userID string) (ExpenseResponse, error) {
	expenseID, err := uuid.Parse(id)
	if err != nil {
		return ExpenseResponse{}, fmt.Errorf("invalid expense id: %w", err)
	}
	submitterID, err := uuid.Parse(userID)
	if err != nil {
		return ExpenseResponse{}, fmt.Errorf("invalid user id: %w", err)
	}

	var expense *model.Expense
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		expense, findErr = s.expenseRepo.FindByID(txCtx, expenseID)
		if findErr != nil {
			return fmt.Errorf("expense not found: %w", findErr)
		}

		stamp := stampFromExpense(expense)
		if err := workflow.Resubmit(&stamp, submitterID); err != nil {
			return err
		}
		stampToExpense(stamp, expense)

		if saveErr := s.expenseRepo.Update(txCtx, expense); saveErr != nil {
			return fmt.Errorf("failed to update expense: %w", saveErr)
		}

		return s.logWorkflowAudit(txCtx, model.ActionResubmitDocument, &submitterID, expense.DocNo, "EXPENSE", "")
	})
	if err != nil {
		return ExpenseResponse{}, err
	}

	s.notifier.DocumentEvent(notify.Event{
		Kind:   "EXPENSE",
		Action: notify.EventSubmitted,
		DocNo:  expense.DocNo,
	})

	return toExpenseResponse(*expense), nil
}

func (s *expenseService) logWorkflowAudit(ctx context.Context, action string, userID *uuid.UUID, docNo, kind, reason string) error {
	payload := map[string]interface{}{"doc_no": docNo, "kind": kind}
	if reason != "" {
		payload["reason"] = reason
	}
	details, _ := json.Marshal(payload)
	audit := &model.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityID:   docNo,
		EntityName: kind,
		Details:    string(details),
	}
	if err := s.auditRepo.Log(ctx, audit); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// --- Helpers ---

var validExpenseCategories = map[string]bool{
	model.ExpenseCategoryPurchase: true,
	model.ExpenseCategoryTravel:   true,
	model.ExpenseCategoryOffice:   true,
	model.ExpenseCategoryFreight:  true,
	model.ExpenseCategoryOther:    true,
}

func stampFromExpense(e *model.Expense) workflow.Stamp {
	return workflow.Stamp{
		Status:          e.Status,
		SubmittedBy:     e.SubmittedBy,
		ApprovedBy:      e.ApprovedBy,
		ApprovedAt:      e.ApprovedAt,
		RejectionReason: e.RejectionReason,
	}
}

func stampToExpense(s workflow.Stamp, e *model.Expense) {
	e.Status = s.Status
	e.SubmittedBy = s.SubmittedBy
	e.ApprovedBy = s.ApprovedBy
	e.ApprovedAt = s.ApprovedAt
	e.RejectionReason = s.RejectionReason
}

func toExpenseResponse(e model.Expense) ExpenseResponse {
	resp := ExpenseResponse{
		ID:              e.ID.String(),
		DocNo:           e.DocNo,
		Category:        e.Category,
		Amount:          e.Amount.StringFixed(4),
		Description:     e.Description,
		Status:          e.Status,
		RejectionReason: e.RejectionReason,
		CreatedAt:       e.CreatedAt.Format(time.RFC3339),
	}

	if e.IncurredOn != nil {
		s := e.IncurredOn.Format("2006-01-02")
		resp.IncurredOn = &s
	}
	if e.SourcePurchaseID != nil {
		s := e.SourcePurchaseID.String()
		resp.SourcePurchaseID = &s
	}
	if e.SubmittedBy != nil {
		s := e.SubmittedBy.String()
		resp.SubmittedBy = &s
	}
	if e.Submitter != nil {
		resp.SubmitterName = e.Submitter.Username
	}
	if e.ApprovedBy != nil {
		s := e.ApprovedBy.String()
		resp.ApprovedBy = &s
	}
	if e.Approver != nil {
		resp.ApproverName = e.Approver.Username
	}
	if e.ApprovedAt != nil {
		s := e.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &s
	}

	return resp
}

func submitterEmail(u *model.User) string {
	if u == nil {
		return ""
	}
	return u.Email
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tradeflow/internal/model"
	"tradeflow/internal/notify"
	"tradeflow/internal/repository"
	"tradeflow/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateAccountRequest struct {
	CompanyName string `json:"company_name" binding:"required"`
	TaxCode     string `json:"tax_code" binding:"required"`
	BankAccount string `json:"bank_account"`
	CreditLimit string `json:"credit_limit"`
	ContactName string `json:"contact_name"`
	Email       string `json:"email" binding:"omitempty,email"`
	Phone       string `json:"phone"`
}

type UpdateAccountRequest struct {
	CompanyName *string `json:"company_name"`
	BankAccount *string `json:"bank_account"`
	CreditLimit *string `json:"credit_limit"`
	ContactName *string `json:"contact_name"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
}

type AccountResponse struct {
	ID              string  `json:"id"`
	DocNo           string  `json:"doc_no"`
	CompanyName     string  `json:"company_name"`
	TaxCode         string  `json:"tax_code"`
	BankAccount     string  `json:"bank_account"`
	CreditLimit     string  `json:"credit_limit"`
	ContactName     string  `json:"contact_name"`
	Email           string  `json:"email"`
	Phone           string  `json:"phone"`
	IsActive        bool    `json:"is_active"`
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

type AccountService interface {
	CreateAccount(ctx context.Context, userID, role string, req CreateAccountRequest) (AccountResponse, error)
	UpdateAccount(ctx context.Context, id, userID string, req UpdateAccountRequest) (AccountResponse, error)
	DeleteAccount(ctx context.Context, id, role string) error
	GetAccount(ctx context.Context, id string) (AccountResponse, error)
	ListAccounts(ctx context.Context, status string, page, limit int) ([]AccountResponse, int64, error)
	ApproveAccount(ctx context.Context, id, userID, role string) (AccountResponse, error)
	RejectAccount(ctx context.Context, id, userID, role, reason string) (AccountResponse, error)
	ResubmitAccount(ctx context.Context, id, userID string) (AccountResponse, error)
}

type accountService struct {
	accountRepo repository.AccountRepository
	docNumRepo  repository.DocumentNumberRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	notifier    notify.Notifier
}

func NewAccountService(
	accountRepo repository.AccountRepository,
	docNumRepo repository.DocumentNumberRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier notify.Notifier,
) AccountService {
	return &accountService{
		accountRepo: accountRepo,
		docNumRepo:  docNumRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		notifier:    notifier,
	}
}

// --- Implementation ---

func (s *accountService) CreateAccount(ctx context.Context, userID, role string, req CreateAccountRequest) (AccountResponse, error) {
	if !workflow.Allowed(role, workflow.ActionSubmit) {
		return AccountResponse{}, fmt.Errorf("role %q may not register corporate accounts", role)
	}

	submitterID, err := uuid.Parse(userID)
	if err != nil {
		return AccountResponse{}, fmt.Errorf("invalid user id: %w", err)
	}

	creditLimit := decimal.Zero
	if req.CreditLimit != "" {
		creditLimit, err = decimal.NewFromString(req.CreditLimit)
		if err != nil {
			return AccountResponse{}, fmt.Errorf("invalid credit limit: %w", err)
		}
		if creditLimit.LessThan(decimal.Zero) {
			return AccountResponse{}, fmt.Errorf("credit limit cannot be negative")
		}
	}

	existing, err := s.accountRepo.FindByTaxCode(ctx, req.TaxCode)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return AccountResponse{}, fmt.Errorf("failed to check tax code: %w", err)
	}
	if existing != nil {
		return AccountResponse{}, fmt.Errorf("tax code %s is already registered (%s)", req.TaxCode, existing.DocNo)
	}

	account := model.CorporateAccount{
		CompanyName: req.CompanyName,
		TaxCode:     req.TaxCode,
		BankAccount: req.BankAccount,
		CreditLimit: creditLimit,
		ContactName: req.ContactName,
		Email:       req.Email,
		Phone:       req.Phone,
		IsActive:    false,
		Status:      workflow.StatusPending,
		SubmittedBy: &submitterID,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		docNo, numErr := s.docNumRepo.Next(txCtx, workflow.PrefixAccount, time.Now())
		if numErr != nil {
			return numErr
		}
		account.DocNo = docNo

		if createErr := s.accountRepo.Create(txCtx, &account); createErr != nil {
			return fmt.Errorf("failed to create corporate account: %w", createErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"doc_no":   account.DocNo,
			"tax_code": req.TaxCode,
		})
		audit := &model.AuditLog{
			UserID:     &submitterID,
			Action:     model.ActionCreateAccount,
			EntityID:   account.DocNo,
			EntityName: req.CompanyName,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		return nil
	})
	if err != nil {
		return AccountResponse{}, err
	}

	s.notifier.DocumentEvent(notify.Event{
		Kind:   "ACCOUNT",
		Action: notify.EventSubmitted,
		DocNo:  account.DocNo,
	})

	return toAccountResponse(account), nil
}

func (s *accountService) UpdateAccount(ctx context.Context, id, userID string, req UpdateAccountRequest) (AccountResponse, error) {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return AccountResponse{}, fmt.Errorf("invalid account id: %w", err)
	}

	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return AccountResponse{}, fmt.Errorf("corporate account not found: %w", err)
	}

	if !workflow.Editable(account.Status) {
		return AccountResponse{}, fmt.Errorf("account %s can no longer be edited (status: %s)", account.DocNo, account.Status)
	}
	if account.SubmittedBy == nil || account.SubmittedBy.String() != userID {
		return AccountResponse{}, fmt.Errorf("only the submitter can edit this account application")
	}

	if req.CompanyName != nil {
		if *req.CompanyName == "" {
			return AccountResponse{}, fmt.Errorf("company name cannot be empty")
		}
		account.CompanyName = *req.CompanyName
	}
	if req.BankAccount != nil {
		account.BankAccount = *req.BankAccount
	}
	if req.CreditLimit != nil {
		creditLimit, parseErr := decimal.NewFromString(*req.CreditLimit)
		if parseErr != nil {
			return AccountResponse{}, fmt.Errorf("invalid credit limit: %w", parseErr)
		}
		if creditLimit.LessThan(decimal.Zero) {
			return AccountResponse{}, fmt.Errorf("credit limit cannot be negative")
		}
		account.CreditLimit = creditLimit
	}
	if req.ContactName != nil {
		account.ContactName = *req.ContactName
	}
	if req.Email != nil {
		account.Email = *req.Email
	}
	if req.Phone != nil {
		account.Phone = *req.Phone
	}

	if err := s.accountRepo.Update(ctx, account); err != nil {
		return AccountResponse{}, fmt.Errorf("failed to update corporate account: %w", err)
	}

	return toAccountResponse(*account), nil
}

func (s *accountService) DeleteAccount(ctx context.Context, id, role string) error {
	if !workflow.Allowed(role, workflow.ActionDelete) {
		return fmt.Errorf("role %q may not delete corporate accounts", role)
	}
	accountID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid account id: %w", err)
	}
	return s.accountRepo.Delete(ctx, accountID)
}

func (s *accountService) GetAccount(ctx context.Context, id string) (AccountResponse, error) {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return AccountResponse{}, fmt.Errorf("invalid account id: %w", err)
	}
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return AccountResponse{}, fmt.Errorf("corporate account not found: %w", err)
	}
	return toAccountResponse(*account), nil
}

func (s *accountService) ListAccounts(ctx context.Context, status string, page, limit int) ([]AccountResponse, int64, error) {
	accounts, total, err := s.accountRepo.List(ctx, status, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch corporate accounts: %w", err)
	}

	result := make([]AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		result = append(result, toAccountResponse(a))
	}
	return result, total, nil
}

// ApproveAccount approves the application and activates the account in the
// same step.
func (s *accountService) ApproveAccount(ctx context.Context, id, userID, role string) (AccountResponse, error) {
	if !workflow.Allowed(role, workflow.ActionApprove) {
		return AccountResponse{}, fmt.Errorf("role %q may not approve corporate accounts", role)
	}

	accountID, err := uuid.Parse(id)
	if err != nil {
		return AccountResponse{}, fmt.Errorf("invalid account id: %w", err)
	}
	approverID, err := uuid.Parse(userID)
	if err != nil {
		return AccountResponse{}, fmt.Errorf("invalid user id: %w", err)
	}

	var account *model.CorporateAccount
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		account, findErr = s.accountRepo.FindByID(txCtx, accountID)
		if findErr != nil {
			return fmt.Errorf("corporate account not found: %w", findErr)
		}

		stamp := stampFromAccount(account)
		if err := workflow.Approve(&stamp, approverID, time.Now()); err != nil {
			return err
		}
		stampToAccount(stamp, account)
		account.IsActive = true

		if saveErr := s.accountRepo.Update(txCtx, account); saveErr != nil {
			return fmt.Errorf("failed to update corporate account: %w", saveErr)
		}

		return s.logAccountAudit(txCtx, model.ActionApproveDocument, &approverID, account, "")
	})
	if err != nil {
		return AccountResponse{}, err
	}

	s.notifier.DocumentEvent(notify.Event{
		Kind:      "ACCOUNT",
		Action:    notify.EventApproved,
		DocNo:     account.DocNo,
		Recipient: submitterEmail(account.Submitter),
	})

	return toAccountResponse(*account), nil
}

func (s *accountService) RejectAccount(ctx context.Context, id, userID, role, reason string) (AccountResponse, error) {
	if !workflow.Allowed(role, workflow.ActionReject) {
		return AccountResponse{}, fmt.Errorf("role %q may not reject corporate accounts", role)
	}

	accountID, err := uuid.Parse(id)
	if err != nil {
		return AccountResponse{}, fmt.Errorf("invalid account id: %w", err)
	}
	reviewerID, err := uuid.Parse(userID)
	if err != nil {
		return AccountResponse{}, fmt.Errorf("invalid user id: %w", err)
	}

	var account *model.CorporateAccount
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		account, findErr = s.accountRepo.FindByID(txCtx, accountID)
		if findErr != nil {
			return fmt.Errorf("corporate account not found: %w", findErr)
		}

		stamp := stampFromAccount(account)
		if err := workflow.Reject(&stamp, reviewerID, time.Now(), reason); err != nil {
			return err
		}
		stampToAccount(stamp, account)

		if saveErr := s.accountRepo.Update(txCtx, account); saveErr != nil {
			return fmt.Errorf("failed to update corporate account: %w", saveErr)
		}

		return s.logAccountAudit(txCtx, model.ActionRejectDocument, &reviewerID, account, reason)
	})
	if err != nil {
		return AccountResponse{}, err
	}

	s.notifier.DocumentEvent(notify.Event{
		Kind:      "ACCOUNT",
		Action:    notify.EventRejected,
		DocNo:     account.DocNo,
		Reason:    reason,
		Recipient: submitterEmail(account.Submitter),
	})

	return toAccountResponse(*account), nil
}

func (s *accountService) ResubmitAccount(ctx context.Context, id, userID string) (AccountResponse, error) {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return AccountResponse{}, fmt.Errorf("invalid account id: %w", err)
	}
	submitterID, err := uuid.Parse(userID)
	if err != nil {
		return AccountResponse{}, fmt.Errorf("invalid user id: %w", err)
	}

	var account *model.CorporateAccount
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		account, findErr = s.accountRepo.FindByID(txCtx, accountID)
		if findErr != nil {
			return fmt.Errorf("corporate account not found: %w", findErr)
		}

		stamp := stampFromAccount(account)
		if err := workflow.Resubmit(&stamp, submitterID); err != nil {
			return err
		}
		stampToAccount(stamp, account)

		if saveErr := s.accountRepo.Update(txCtx, account); saveErr != nil {
			return fmt.Errorf("failed to update corporate account: %w", saveErr)
		}

		return s.logAccountAudit(txCtx, model.ActionResubmitDocument, &submitterID, account, "")
	})
	if err != nil {
		return AccountResponse{}, err
	}

	s.notifier.DocumentEvent(notify.Event{
		Kind:   "ACCOUNT",
		Action: notify.EventSubmitted,
		DocNo:  account.DocNo,
	})

	return toAccountResponse(*account), nil
}

// --- Helpers ---

func (s *accountService) logAccountAudit(ctx context.Context, action string, userID *uuid.UUID, a *model.CorporateAccount, reason string) error {
	payload := map[string]interface{}{"doc_no": a.DocNo, "kind": "ACCOUNT"}
	if reason != "" {
		payload["reason"] = reason
	}
	details, _ := json.Marshal(payload)
	audit := &model.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityID:   a.DocNo,
		EntityName: a.CompanyName,
		Details:    string(details),
	}
	if err := s.auditRepo.Log(ctx, audit); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func stampFromAccount(a *model.CorporateAccount) workflow.Stamp {
	return workflow.Stamp{
		Status:          a.Status,
		SubmittedBy:     a.SubmittedBy,
		ApprovedBy:      a.ApprovedBy,
		ApprovedAt:      a.ApprovedAt,
		RejectionReason: a.RejectionReason,
	}
}

func stampToAccount(s workflow.Stamp, a *model.CorporateAccount) {
	a.Status = s.Status
	a.SubmittedBy = s.SubmittedBy
	a.ApprovedBy = s.ApprovedBy
	a.ApprovedAt = s.ApprovedAt
	a.RejectionReason = s.RejectionReason
}

func toAccountResponse(a model.CorporateAccount) AccountResponse {
	resp := AccountResponse{
		ID:              a.ID.String(),
		DocNo:           a.DocNo,
		CompanyName:     a.CompanyName,
		TaxCode:         a.TaxCode,
		BankAccount:     a.BankAccount,
		CreditLimit:     a.CreditLimit.StringFixed(4),
		ContactName:     a.ContactName,
		Email:           a.Email,
		Phone:           a.Phone,
		IsActive:        a.IsActive,
		Status:          a.Status,
		RejectionReason: a.RejectionReason,
		CreatedAt:       a.CreatedAt.Format(time.RFC3339),
	}

	if a.SubmittedBy != nil {
		s := a.SubmittedBy.String()
		resp.SubmittedBy = &s
	}
	if a.Submitter != nil {
		resp.SubmitterName = a.Submitter.Username
	}
	if a.ApprovedBy != nil {
		s := a.ApprovedBy.String()
		resp.ApprovedBy = &s
	}
	if a.Approver != nil {
		resp.ApproverName = a.Approver.Username
	}
	if a.ApprovedAt != nil {
		s := a.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &s
	}

	return resp
}

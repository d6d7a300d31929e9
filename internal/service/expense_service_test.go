package service_test

import (
	"context"
	"testing"
	"time"

	"tradeflow/internal/model"
	"tradeflow/internal/notify"
	"tradeflow/internal/service"
	"tradeflow/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type ExpenseServiceTestSuite struct {
	suite.Suite
	expenseRepo *MockExpenseRepository
	auditRepo   *MockAuditRepository
	notifier    *captureNotifier
	svc         service.ExpenseService
}

func (s *ExpenseServiceTestSuite) SetupTest() {
	s.expenseRepo = new(MockExpenseRepository)
	s.auditRepo = new(MockAuditRepository)
	s.notifier = &captureNotifier{}
	s.svc = service.NewExpenseService(
		s.expenseRepo,
		newFakeDocNumRepo(),
		s.auditRepo,
		fakeTxManager{},
		s.notifier,
	)
}

func (s *ExpenseServiceTestSuite) TestCreateExpense_AssignsDocNo() {
	ctx := context.Background()
	userID := uuid.New()

	s.expenseRepo.On("Create", ctx, mock.AnythingOfType("*model.Expense")).Return(nil).Once()
	s.auditRepo.On("Log", ctx, mock.AnythingOfType("*model.AuditLog")).Return(nil).Once()

	resp, err := s.svc.CreateExpense(ctx, userID.String(), model.RoleStaff, service.CreateExpenseRequest{
		Category:    model.ExpenseCategoryTravel,
		Amount:      "150.75",
		IncurredOn:  "2026-08-20",
		Description: "Site visit travel",
	})

	s.Require().NoError(err)
	s.Equal(workflow.FormatDocNo(workflow.PrefixExpense, time.Now(), 1), resp.DocNo)
	s.Equal(workflow.StatusPending, resp.Status)
	s.Equal("150.7500", resp.Amount)

	s.Require().Len(s.notifier.events, 1)
	s.Equal(notify.EventSubmitted, s.notifier.events[0].Action)
	s.expenseRepo.AssertExpectations(s.T())
}

func (s *ExpenseServiceTestSuite) TestCreateExpense_RejectsNonPositiveAmount() {
	ctx := context.Background()

	_, err := s.svc.CreateExpense(ctx, uuid.NewString(), model.RoleStaff, service.CreateExpenseRequest{
		Category:    model.ExpenseCategoryOffice,
		Amount:      "0",
		Description: "Nothing",
	})

	s.Require().Error(err)
	s.Contains(err.Error(), "greater than 0")
	s.expenseRepo.AssertNotCalled(s.T(), "Create", mock.Anything, mock.Anything)
}

func (s *ExpenseServiceTestSuite) TestUpdateExpense_FrozenAfterApproval() {
	ctx := context.Background()
	submitter := uuid.New()
	expense := &model.Expense{
		ID:          uuid.New(),
		DocNo:       "EXP-260829-001",
		Category:    model.ExpenseCategoryOffice,
		Amount:      decimal.RequireFromString("10"),
		Status:      workflow.StatusApproved,
		SubmittedBy: &submitter,
	}

	s.expenseRepo.On("FindByID", ctx, expense.ID).Return(expense, nil).Once()

	newAmount := "20"
	_, err := s.svc.UpdateExpense(ctx, expense.ID.String(), submitter.String(), service.UpdateExpenseRequest{
		Amount: &newAmount,
	})

	s.Require().Error(err)
	s.Contains(err.Error(), "no longer be edited")
	s.expenseRepo.AssertNotCalled(s.T(), "Update", mock.Anything, mock.Anything)
}

func (s *ExpenseServiceTestSuite) TestApproveExpense_StampsApprover() {
	ctx := context.Background()
	submitter := uuid.New()
	approver := uuid.New()
	expense := &model.Expense{
		ID:          uuid.New(),
		DocNo:       "EXP-260829-002",
		Category:    model.ExpenseCategoryFreight,
		Amount:      decimal.RequireFromString("820"),
		Status:      workflow.StatusPending,
		SubmittedBy: &submitter,
		Submitter:   &model.User{Username: "staff2", Email: "staff2@example.com"},
	}

	s.expenseRepo.On("FindByID", ctx, expense.ID).Return(expense, nil).Once()
	s.expenseRepo.On("Update", ctx, expense).Return(nil).Once()
	s.auditRepo.On("Log", ctx, mock.AnythingOfType("*model.AuditLog")).Return(nil).Once()

	resp, err := s.svc.ApproveExpense(ctx, expense.ID.String(), approver.String(), model.RoleAdmin)

	s.Require().NoError(err)
	s.Equal(workflow.StatusApproved, resp.Status)
	s.Require().NotNil(expense.ApprovedBy)
	s.Equal(approver, *expense.ApprovedBy)
	s.NotNil(expense.ApprovedAt)

	s.Require().Len(s.notifier.events, 1)
	s.Equal("staff2@example.com", s.notifier.events[0].Recipient)
}

func (s *ExpenseServiceTestSuite) TestRejectExpense_EmptyReasonLeavesPending() {
	ctx := context.Background()
	submitter := uuid.New()
	expense := &model.Expense{
		ID:          uuid.New(),
		DocNo:       "EXP-260829-003",
		Category:    model.ExpenseCategoryOther,
		Amount:      decimal.RequireFromString("5"),
		Status:      workflow.StatusPending,
		SubmittedBy: &submitter,
	}

	s.expenseRepo.On("FindByID", ctx, expense.ID).Return(expense, nil).Once()

	_, err := s.svc.RejectExpense(ctx, expense.ID.String(), uuid.NewString(), model.RoleManager, "")

	s.Require().Error(err)
	s.Contains(err.Error(), "reason is required")
	s.Equal(workflow.StatusPending, expense.Status)
	s.Empty(s.notifier.events)
}

func TestExpenseServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ExpenseServiceTestSuite))
}

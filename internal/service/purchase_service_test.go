package service_test

import (
	"context"
	"testing"

	"tradeflow/internal/model"
	"tradeflow/internal/notify"
	"tradeflow/internal/service"
	"tradeflow/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type PurchaseServiceTestSuite struct {
	suite.Suite
	purchaseRepo *MockPurchaseRepository
	expenseRepo  *MockExpenseRepository
	productRepo  *MockProductRepository
	auditRepo    *MockAuditRepository
	notifier     *captureNotifier
	svc          service.PurchaseService
}

func (s *PurchaseServiceTestSuite) SetupTest() {
	s.purchaseRepo = new(MockPurchaseRepository)
	s.expenseRepo = new(MockExpenseRepository)
	s.productRepo = new(MockProductRepository)
	s.auditRepo = new(MockAuditRepository)
	s.notifier = &captureNotifier{}
	s.svc = service.NewPurchaseService(
		s.purchaseRepo,
		s.expenseRepo,
		s.productRepo,
		newFakeDocNumRepo(),
		s.auditRepo,
		fakeTxManager{},
		s.notifier,
	)
}

func pendingPurchase(submitter uuid.UUID) *model.PurchaseRequest {
	return &model.PurchaseRequest{
		ID:          uuid.New(),
		DocNo:       "PR-260829-001",
		ProductID:   uuid.New(),
		Quantity:    5,
		UnitPrice:   decimal.RequireFromString("12.50"),
		Status:      workflow.StatusPending,
		SubmittedBy: &submitter,
		Submitter:   &model.User{Username: "staff1", Email: "staff1@example.com"},
	}
}

func (s *PurchaseServiceTestSuite) TestApprovePurchase_CascadesExpense() {
	ctx := context.Background()
	submitter := uuid.New()
	approver := uuid.New()
	purchase := pendingPurchase(submitter)

	var createdExpense *model.Expense
	s.purchaseRepo.On("FindByID", ctx, purchase.ID).Return(purchase, nil).Once()
	s.expenseRepo.On("Create", ctx, mock.AnythingOfType("*model.Expense")).
		Run(func(args mock.Arguments) {
			createdExpense = args.Get(1).(*model.Expense)
			createdExpense.ID = uuid.New()
		}).Return(nil).Once()
	s.purchaseRepo.On("Update", ctx, purchase).Return(nil).Once()
	s.auditRepo.On("Log", ctx, mock.AnythingOfType("*model.AuditLog")).Return(nil).Twice()

	resp, err := s.svc.ApprovePurchase(ctx, purchase.ID.String(), approver.String(), model.RoleManager)

	s.Require().NoError(err)
	s.Equal(workflow.StatusApproved, resp.Status)

	s.Require().NotNil(createdExpense)
	s.Equal("62.5000", createdExpense.Amount.StringFixed(4))
	s.Equal(model.ExpenseCategoryPurchase, createdExpense.Category)
	s.Equal(workflow.StatusPending, createdExpense.Status)
	s.Require().NotNil(createdExpense.SourcePurchaseID)
	s.Equal(purchase.ID, *createdExpense.SourcePurchaseID)

	s.Require().NotNil(purchase.ExpenseID)
	s.Equal(createdExpense.ID, *purchase.ExpenseID)

	s.Require().Len(s.notifier.events, 1)
	s.Equal(notify.EventApproved, s.notifier.events[0].Action)
	s.Equal("staff1@example.com", s.notifier.events[0].Recipient)

	s.purchaseRepo.AssertExpectations(s.T())
	s.expenseRepo.AssertExpectations(s.T())
	s.auditRepo.AssertExpectations(s.T())
}

func (s *PurchaseServiceTestSuite) TestApprovePurchase_StaffForbidden() {
	ctx := context.Background()
	purchase := pendingPurchase(uuid.New())

	_, err := s.svc.ApprovePurchase(ctx, purchase.ID.String(), uuid.NewString(), model.RoleStaff)

	s.Require().Error(err)
	s.Contains(err.Error(), "may not approve")
	s.purchaseRepo.AssertNotCalled(s.T(), "FindByID", mock.Anything, mock.Anything)
	s.Empty(s.notifier.events)
}

func (s *PurchaseServiceTestSuite) TestApprovePurchase_AlreadyApproved() {
	ctx := context.Background()
	purchase := pendingPurchase(uuid.New())
	purchase.Status = workflow.StatusApproved

	s.purchaseRepo.On("FindByID", ctx, purchase.ID).Return(purchase, nil).Once()

	_, err := s.svc.ApprovePurchase(ctx, purchase.ID.String(), uuid.NewString(), model.RoleAdmin)

	s.Require().Error(err)
	s.Contains(err.Error(), "already APPROVED")
	s.expenseRepo.AssertNotCalled(s.T(), "Create", mock.Anything, mock.Anything)
}

func (s *PurchaseServiceTestSuite) TestRejectPurchase_RequiresReason() {
	ctx := context.Background()
	purchase := pendingPurchase(uuid.New())

	s.purchaseRepo.On("FindByID", ctx, purchase.ID).Return(purchase, nil).Once()

	_, err := s.svc.RejectPurchase(ctx, purchase.ID.String(), uuid.NewString(), model.RoleManager, "")

	s.Require().Error(err)
	s.Equal(workflow.StatusPending, purchase.Status)
	s.purchaseRepo.AssertNotCalled(s.T(), "Update", mock.Anything, mock.Anything)
}

func (s *PurchaseServiceTestSuite) TestRejectPurchase_StampsReviewer() {
	ctx := context.Background()
	submitter := uuid.New()
	reviewer := uuid.New()
	purchase := pendingPurchase(submitter)

	s.purchaseRepo.On("FindByID", ctx, purchase.ID).Return(purchase, nil).Once()
	s.purchaseRepo.On("Update", ctx, purchase).Return(nil).Once()
	s.auditRepo.On("Log", ctx, mock.AnythingOfType("*model.AuditLog")).Return(nil).Once()

	resp, err := s.svc.RejectPurchase(ctx, purchase.ID.String(), reviewer.String(), model.RoleManager, "price too high")

	s.Require().NoError(err)
	s.Equal(workflow.StatusRejected, resp.Status)
	s.Equal("price too high", resp.RejectionReason)
	s.Require().NotNil(purchase.ApprovedBy)
	s.Equal(reviewer, *purchase.ApprovedBy)

	s.Require().Len(s.notifier.events, 1)
	s.Equal(notify.EventRejected, s.notifier.events[0].Action)
	s.Equal("price too high", s.notifier.events[0].Reason)
}

func (s *PurchaseServiceTestSuite) TestResubmitPurchase_OnlySubmitter() {
	ctx := context.Background()
	submitter := uuid.New()
	purchase := pendingPurchase(submitter)
	purchase.Status = workflow.StatusRejected
	purchase.RejectionReason = "wrong supplier"

	s.purchaseRepo.On("FindByID", ctx, purchase.ID).Return(purchase, nil).Once()

	_, err := s.svc.ResubmitPurchase(ctx, purchase.ID.String(), uuid.NewString())

	s.Require().Error(err)
	s.purchaseRepo.AssertNotCalled(s.T(), "Update", mock.Anything, mock.Anything)
}

func (s *PurchaseServiceTestSuite) TestResubmitPurchase_ClearsDecision() {
	ctx := context.Background()
	submitter := uuid.New()
	reviewer := uuid.New()
	purchase := pendingPurchase(submitter)
	purchase.Status = workflow.StatusRejected
	purchase.ApprovedBy = &reviewer
	purchase.RejectionReason = "wrong supplier"

	s.purchaseRepo.On("FindByID", ctx, purchase.ID).Return(purchase, nil).Once()
	s.purchaseRepo.On("Update", ctx, purchase).Return(nil).Once()
	s.auditRepo.On("Log", ctx, mock.AnythingOfType("*model.AuditLog")).Return(nil).Once()

	resp, err := s.svc.ResubmitPurchase(ctx, purchase.ID.String(), submitter.String())

	s.Require().NoError(err)
	s.Equal(workflow.StatusPending, resp.Status)
	s.Empty(resp.RejectionReason)
	s.Nil(purchase.ApprovedBy)
	s.Nil(purchase.ApprovedAt)
}

func (s *PurchaseServiceTestSuite) TestDeletePurchase_BlockedAfterCascade() {
	ctx := context.Background()
	purchase := pendingPurchase(uuid.New())
	expenseID := uuid.New()
	purchase.ExpenseID = &expenseID

	s.purchaseRepo.On("FindByID", ctx, purchase.ID).Return(purchase, nil).Once()

	err := s.svc.DeletePurchase(ctx, purchase.ID.String(), model.RoleAdmin)

	s.Require().Error(err)
	s.Contains(err.Error(), "already generated an expense")
	s.purchaseRepo.AssertNotCalled(s.T(), "Delete", mock.Anything, mock.Anything)
}

func TestPurchaseServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PurchaseServiceTestSuite))
}

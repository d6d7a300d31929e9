package service_test

import (
	"context"
	"testing"

	"tradeflow/internal/model"
	"tradeflow/internal/service"
	"tradeflow/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type QuotationServiceTestSuite struct {
	suite.Suite
	quotationRepo *MockQuotationRepository
	customerRepo  *MockCustomerRepository
	productRepo   *MockProductRepository
	auditRepo     *MockAuditRepository
	notifier      *captureNotifier
	svc           service.QuotationService
}

func (s *QuotationServiceTestSuite) SetupTest() {
	s.quotationRepo = new(MockQuotationRepository)
	s.customerRepo = new(MockCustomerRepository)
	s.productRepo = new(MockProductRepository)
	s.auditRepo = new(MockAuditRepository)
	s.notifier = &captureNotifier{}
	s.svc = service.NewQuotationService(
		s.quotationRepo,
		s.customerRepo,
		s.productRepo,
		newFakeDocNumRepo(),
		s.auditRepo,
		fakeTxManager{},
		s.notifier,
	)
}

func (s *QuotationServiceTestSuite) TestCreateQuotation_StartsAsDraft() {
	ctx := context.Background()
	userID := uuid.New()
	customerID := uuid.New()
	productID := uuid.New()

	s.customerRepo.On("FindByID", ctx, customerID).
		Return(&model.Customer{ID: customerID, Name: "Hanoi Molds JSC"}, nil).Once()
	s.productRepo.On("FindByID", ctx, productID).
		Return(&model.Product{ID: productID, SKU: "HR-001"}, nil).Twice()
	s.quotationRepo.On("Create", ctx, mock.AnythingOfType("*model.Quotation")).Return(nil).Once()
	s.auditRepo.On("Log", ctx, mock.AnythingOfType("*model.AuditLog")).Return(nil).Once()

	resp, err := s.svc.CreateQuotation(ctx, userID.String(), service.CreateQuotationRequest{
		CustomerID: customerID.String(),
		Items: []service.QuotationItemRequest{
			{ProductID: productID.String(), Quantity: 2, UnitPrice: "100.00"},
			{ProductID: productID.String(), Quantity: 1, UnitPrice: "49.99"},
		},
	})

	s.Require().NoError(err)
	s.Equal(workflow.StatusDraft, resp.Status)
	s.Equal(workflow.FirstRevision, resp.RevisionTag)
	s.Equal("249.9900", resp.Subtotal)
	s.Len(resp.Items, 2)
	// Drafts are not broadcast, only submissions are.
	s.Empty(s.notifier.events)
}

func (s *QuotationServiceTestSuite) TestSubmitQuotation_RequiresItems() {
	ctx := context.Background()
	submitter := uuid.New()
	quotation := &model.Quotation{
		ID:          uuid.New(),
		DocNo:       "QT-260829-001",
		RevisionTag: workflow.FirstRevision,
		Status:      workflow.StatusDraft,
		SubmittedBy: &submitter,
	}

	s.quotationRepo.On("FindByID", ctx, quotation.ID).Return(quotation, nil).Once()

	_, err := s.svc.SubmitQuotation(ctx, quotation.ID.String(), submitter.String(), model.RoleStaff)

	s.Require().Error(err)
	s.Contains(err.Error(), "no line items")
	s.quotationRepo.AssertNotCalled(s.T(), "Update", mock.Anything, mock.Anything)
}

func (s *QuotationServiceTestSuite) TestSubmitQuotation_MovesToPending() {
	ctx := context.Background()
	submitter := uuid.New()
	quotation := &model.Quotation{
		ID:          uuid.New(),
		DocNo:       "QT-260829-002",
		RevisionTag: workflow.FirstRevision,
		Status:      workflow.StatusDraft,
		SubmittedBy: &submitter,
		Items: []model.QuotationItem{
			{ProductID: uuid.New(), Quantity: 1, UnitPrice: decimal.RequireFromString("10")},
		},
	}

	s.quotationRepo.On("FindByID", ctx, quotation.ID).Return(quotation, nil).Once()
	s.quotationRepo.On("Update", ctx, quotation).Return(nil).Once()
	s.auditRepo.On("Log", ctx, mock.AnythingOfType("*model.AuditLog")).Return(nil).Once()

	resp, err := s.svc.SubmitQuotation(ctx, quotation.ID.String(), submitter.String(), model.RoleStaff)

	s.Require().NoError(err)
	s.Equal(workflow.StatusPending, resp.Status)
	s.Equal(workflow.FirstRevision, resp.RevisionTag)
	s.Len(s.notifier.events, 1)
}

func (s *QuotationServiceTestSuite) TestSubmitQuotation_PendingCannotResubmit() {
	ctx := context.Background()
	submitter := uuid.New()
	quotation := &model.Quotation{
		ID:          uuid.New(),
		DocNo:       "QT-260829-003",
		Status:      workflow.StatusPending,
		SubmittedBy: &submitter,
		Items: []model.QuotationItem{
			{ProductID: uuid.New(), Quantity: 1, UnitPrice: decimal.RequireFromString("10")},
		},
	}

	s.quotationRepo.On("FindByID", ctx, quotation.ID).Return(quotation, nil).Once()

	_, err := s.svc.SubmitQuotation(ctx, quotation.ID.String(), submitter.String(), model.RoleStaff)

	s.Require().Error(err)
	s.Contains(err.Error(), "only DRAFT")
}

func (s *QuotationServiceTestSuite) TestResubmitQuotation_BumpsRevision() {
	ctx := context.Background()
	submitter := uuid.New()
	reviewer := uuid.New()
	quotation := &model.Quotation{
		ID:              uuid.New(),
		DocNo:           "QT-260829-004",
		RevisionTag:     "RV02",
		Status:          workflow.StatusRejected,
		SubmittedBy:     &submitter,
		ApprovedBy:      &reviewer,
		RejectionReason: "unit price outdated",
	}

	s.quotationRepo.On("FindByID", ctx, quotation.ID).Return(quotation, nil).Once()
	s.quotationRepo.On("Update", ctx, quotation).Return(nil).Once()
	s.auditRepo.On("Log", ctx, mock.AnythingOfType("*model.AuditLog")).Return(nil).Once()

	resp, err := s.svc.ResubmitQuotation(ctx, quotation.ID.String(), submitter.String())

	s.Require().NoError(err)
	s.Equal(workflow.StatusPending, resp.Status)
	s.Equal("RV03", resp.RevisionTag)
	s.Empty(resp.RejectionReason)
	s.Nil(quotation.ApprovedBy)
}

func (s *QuotationServiceTestSuite) TestResubmitQuotation_OtherUserForbidden() {
	ctx := context.Background()
	submitter := uuid.New()
	quotation := &model.Quotation{
		ID:          uuid.New(),
		DocNo:       "QT-260829-005",
		RevisionTag: workflow.FirstRevision,
		Status:      workflow.StatusRejected,
		SubmittedBy: &submitter,
	}

	s.quotationRepo.On("FindByID", ctx, quotation.ID).Return(quotation, nil).Once()

	_, err := s.svc.ResubmitQuotation(ctx, quotation.ID.String(), uuid.NewString())

	s.Require().Error(err)
	s.Equal(workflow.FirstRevision, quotation.RevisionTag)
	s.quotationRepo.AssertNotCalled(s.T(), "Update", mock.Anything, mock.Anything)
}

func TestQuotationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(QuotationServiceTestSuite))
}

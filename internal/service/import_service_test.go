package service_test

import (
	"context"
	"strings"
	"testing"

	"tradeflow/internal/model"
	"tradeflow/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type ImportServiceTestSuite struct {
	suite.Suite
	customerRepo *MockCustomerRepository
	productRepo  *MockProductRepository
	auditRepo    *MockAuditRepository
	svc          service.ImportService
}

func (s *ImportServiceTestSuite) SetupTest() {
	s.customerRepo = new(MockCustomerRepository)
	s.productRepo = new(MockProductRepository)
	s.auditRepo = new(MockAuditRepository)
	s.svc = service.NewImportService(
		s.customerRepo,
		s.productRepo,
		s.auditRepo,
		fakeTxManager{},
	)
}

func (s *ImportServiceTestSuite) TestImportCustomers_ReportsBadRows() {
	ctx := context.Background()
	csvData := strings.Join([]string{
		"name,company_name,tax_code,contact_person,phone,email",
		"Hanoi Molds,Hanoi Molds JSC,0101234567,Nguyen Van A,0912345678,contact@hanoimolds.vn",
		",Missing Name Co,0107654321,,,",
		"Danang Plastics,,,,,not-an-email",
	}, "\n")

	s.customerRepo.On("Create", ctx, mock.AnythingOfType("*model.Customer")).Return(nil).Once()
	s.auditRepo.On("Log", ctx, mock.AnythingOfType("*model.AuditLog")).Return(nil).Once()

	report, err := s.svc.ImportCustomers(ctx, uuid.NewString(), strings.NewReader(csvData))

	s.Require().NoError(err)
	s.Equal(3, report.TotalRows)
	s.Equal(1, report.Imported)
	s.Equal(2, report.Skipped)
	s.Require().Len(report.Errors, 2)
	s.Equal(2, report.Errors[0].Row)
	s.Contains(report.Errors[0].Message, "name is required")
	s.Equal(3, report.Errors[1].Row)
	s.Contains(report.Errors[1].Message, "invalid email")
	s.customerRepo.AssertExpectations(s.T())
}

func (s *ImportServiceTestSuite) TestImportCustomers_RejectsWrongHeader() {
	ctx := context.Background()
	csvData := "foo,bar\nx,y"

	_, err := s.svc.ImportCustomers(ctx, uuid.NewString(), strings.NewReader(csvData))

	s.Require().Error(err)
	s.customerRepo.AssertNotCalled(s.T(), "Create", mock.Anything, mock.Anything)
}

func (s *ImportServiceTestSuite) TestImportProducts_SkipsExistingSKU() {
	ctx := context.Background()
	csvData := strings.Join([]string{
		"sku,name,category,material,unit,unit_price,description",
		"HR-100,Hot runner manifold,HOT_RUNNER,P20,EA,1250.00,4-drop manifold",
		"HR-100,Duplicate row,HOT_RUNNER,,EA,10.00,",
		"MB-200,Mold base,MOLD_BASE,S50C,SET,890.50,",
		"XX-300,Weird category,GADGET,,EA,1.00,",
	}, "\n")

	s.productRepo.On("FindBySKU", ctx, "HR-100").Return(nil, gorm.ErrRecordNotFound).Once()
	s.productRepo.On("FindBySKU", ctx, "MB-200").
		Return(&model.Product{SKU: "MB-200"}, nil).Once()
	s.productRepo.On("Create", ctx, mock.AnythingOfType("*model.Product")).Return(nil).Once()
	s.auditRepo.On("Log", ctx, mock.AnythingOfType("*model.AuditLog")).Return(nil).Once()

	report, err := s.svc.ImportProducts(ctx, uuid.NewString(), strings.NewReader(csvData))

	s.Require().NoError(err)
	s.Equal(4, report.TotalRows)
	s.Equal(1, report.Imported)
	s.Equal(3, report.Skipped)
	s.Require().Len(report.Errors, 3)
	s.Contains(report.Errors[0].Message, "duplicate SKU")
	s.Contains(report.Errors[1].Message, "already exists")
	s.Contains(report.Errors[2].Message, "unknown category")
	s.productRepo.AssertExpectations(s.T())
}

func TestImportServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ImportServiceTestSuite))
}

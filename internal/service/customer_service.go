package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tradeflow/internal/model"
	"tradeflow/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

type CustomerAddressRequest struct {
	AddressType string `json:"address_type" binding:"required,oneof=BILLING SHIPPING FACTORY"`
	FullAddress string `json:"full_address" binding:"required"`
	IsDefault   bool   `json:"is_default"`
}

type CreateCustomerRequest struct {
	Name          string                   `json:"name" binding:"required"`
	CompanyName   string                   `json:"company_name"`
	TaxCode       string                   `json:"tax_code"`
	ContactPerson string                   `json:"contact_person"`
	Phone         string                   `json:"phone"`
	Email         string                   `json:"email" binding:"omitempty,email"`
	Addresses     []CustomerAddressRequest `json:"addresses" binding:"dive"`
}

type UpdateCustomerRequest struct {
	Name          *string                  `json:"name"`
	CompanyName   *string                  `json:"company_name"`
	TaxCode       *string                  `json:"tax_code"`
	ContactPerson *string                  `json:"contact_person"`
	Phone         *string                  `json:"phone"`
	Email         *string                  `json:"email"`
	IsActive      *bool                    `json:"is_active"`
	Addresses     []CustomerAddressRequest `json:"addresses"`
}

type CustomerAddressResponse struct {
	ID          string `json:"id"`
	AddressType string `json:"address_type"`
	FullAddress string `json:"full_address"`
	IsDefault   bool   `json:"is_default"`
}

type CustomerResponse struct {
	ID            string                    `json:"id"`
	Name          string                    `json:"name"`
	CompanyName   string                    `json:"company_name"`
	TaxCode       string                    `json:"tax_code"`
	ContactPerson string                    `json:"contact_person"`
	Phone         string                    `json:"phone"`
	Email         string                    `json:"email"`
	IsActive      bool                      `json:"is_active"`
	Addresses     []CustomerAddressResponse `json:"addresses"`
	CreatedAt     string                    `json:"created_at"`
}

// --- Interface ---

type CustomerService interface {
	CreateCustomer(ctx context.Context, userID string, req CreateCustomerRequest) (CustomerResponse, error)
	UpdateCustomer(ctx context.Context, id, userID string, req UpdateCustomerRequest) (CustomerResponse, error)
	DeleteCustomer(ctx context.Context, id, userID string) error
	GetCustomer(ctx context.Context, id string) (CustomerResponse, error)
	ListCustomers(ctx context.Context, search string, activeOnly bool, page, limit int) ([]CustomerResponse, int64, error)
}

type customerService struct {
	customerRepo repository.CustomerRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
}

func NewCustomerService(
	customerRepo repository.CustomerRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) CustomerService {
	return &customerService{
		customerRepo: customerRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
	}
}

// --- Implementation ---

func (s *customerService) CreateCustomer(ctx context.Context, userID string, req CreateCustomerRequest) (CustomerResponse, error) {
	actorID, err := uuid.Parse(userID)
	if err != nil {
		return CustomerResponse{}, fmt.Errorf("invalid user id: %w", err)
	}

	addresses := make([]model.CustomerAddress, 0, len(req.Addresses))
	for _, addr := range req.Addresses {
		addresses = append(addresses, model.CustomerAddress{
			AddressType: addr.AddressType,
			FullAddress: addr.FullAddress,
			IsDefault:   addr.IsDefault,
		})
	}

	customer := model.Customer{
		Name:          req.Name,
		CompanyName:   req.CompanyName,
		TaxCode:       req.TaxCode,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         req.Email,
		IsActive:      true,
		Addresses:     addresses,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.customerRepo.Create(txCtx, &customer); createErr != nil {
			return fmt.Errorf("failed to create customer: %w", createErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"name":          req.Name,
			"tax_code":      req.TaxCode,
			"address_count": len(addresses),
		})
		audit := &model.AuditLog{
			UserID:     &actorID,
			Action:     model.ActionCreateCustomer,
			EntityID:   customer.ID.String(),
			EntityName: customer.Name,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return CustomerResponse{}, err
	}

	return toCustomerResponse(customer), nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, id, userID string, req UpdateCustomerRequest) (CustomerResponse, error) {
	customerID, err := uuid.Parse(id)
	if err != nil {
		return CustomerResponse{}, fmt.Errorf("invalid customer id: %w", err)
	}
	actorID, err := uuid.Parse(userID)
	if err != nil {
		return CustomerResponse{}, fmt.Errorf("invalid user id: %w", err)
	}

	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return CustomerResponse{}, fmt.Errorf("customer not found: %w", err)
	}

	if req.Name != nil {
		if *req.Name == "" {
			return CustomerResponse{}, fmt.Errorf("name cannot be empty")
		}
		customer.Name = *req.Name
	}
	if req.CompanyName != nil {
		customer.CompanyName = *req.CompanyName
	}
	if req.TaxCode != nil {
		customer.TaxCode = *req.TaxCode
	}
	if req.ContactPerson != nil {
		customer.ContactPerson = *req.ContactPerson
	}
	if req.Phone != nil {
		customer.Phone = *req.Phone
	}
	if req.Email != nil {
		customer.Email = *req.Email
	}
	if req.IsActive != nil {
		customer.IsActive = *req.IsActive
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if req.Addresses != nil {
			if delErr := s.customerRepo.DeleteAddressesByCustomerID(txCtx, customer.ID); delErr != nil {
				return fmt.Errorf("failed to replace addresses: %w", delErr)
			}
			addresses := make([]model.CustomerAddress, 0, len(req.Addresses))
			for _, addr := range req.Addresses {
				addresses = append(addresses, model.CustomerAddress{
					CustomerID:  customer.ID,
					AddressType: addr.AddressType,
					FullAddress: addr.FullAddress,
					IsDefault:   addr.IsDefault,
				})
			}
			if len(addresses) > 0 {
				if createErr := s.customerRepo.CreateAddresses(txCtx, addresses); createErr != nil {
					return fmt.Errorf("failed to replace addresses: %w", createErr)
				}
			}
			customer.Addresses = addresses
		}

		if saveErr := s.customerRepo.Update(txCtx, customer); saveErr != nil {
			return fmt.Errorf("failed to update customer: %w", saveErr)
		}

		details, _ := json.Marshal(map[string]interface{}{"name": customer.Name})
		audit := &model.AuditLog{
			UserID:     &actorID,
			Action:     model.ActionUpdateCustomer,
			EntityID:   customer.ID.String(),
			EntityName: customer.Name,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return CustomerResponse{}, err
	}

	return toCustomerResponse(*customer), nil
}

func (s *customerService) DeleteCustomer(ctx context.Context, id, userID string) error {
	customerID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid customer id: %w", err)
	}
	actorID, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return fmt.Errorf("customer not found: %w", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if delErr := s.customerRepo.Delete(txCtx, customerID); delErr != nil {
			return fmt.Errorf("failed to delete customer: %w", delErr)
		}
		audit := &model.AuditLog{
			UserID:     &actorID,
			Action:     model.ActionDeleteCustomer,
			EntityID:   customer.ID.String(),
			EntityName: customer.Name,
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
}

func (s *customerService) GetCustomer(ctx context.Context, id string) (CustomerResponse, error) {
	customerID, err := uuid.Parse(id)
	if err != nil {
		return CustomerResponse{}, fmt.Errorf("invalid customer id: %w", err)
	}
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return CustomerResponse{}, fmt.Errorf("customer not found: %w", err)
	}
	return toCustomerResponse(*customer), nil
}

func (s *customerService) ListCustomers(ctx context.Context, search string, activeOnly bool, page, limit int) ([]CustomerResponse, int64, error) {
	customers, total, err := s.customerRepo.List(ctx, search, activeOnly, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch customers: %w", err)
	}

	result := make([]CustomerResponse, 0, len(customers))
	for _, c := range customers {
		result = append(result, toCustomerResponse(c))
	}
	return result, total, nil
}

func toCustomerResponse(c model.Customer) CustomerResponse {
	resp := CustomerResponse{
		ID:            c.ID.String(),
		Name:          c.Name,
		CompanyName:   c.CompanyName,
		TaxCode:       c.TaxCode,
		ContactPerson: c.ContactPerson,
		Phone:         c.Phone,
		Email:         c.Email,
		IsActive:      c.IsActive,
		Addresses:     make([]CustomerAddressResponse, 0, len(c.Addresses)),
		CreatedAt:     c.CreatedAt.Format(time.RFC3339),
	}
	for _, addr := range c.Addresses {
		resp.Addresses = append(resp.Addresses, CustomerAddressResponse{
			ID:          addr.ID.String(),
			AddressType: addr.AddressType,
			FullAddress: addr.FullAddress,
			IsDefault:   addr.IsDefault,
		})
	}
	return resp
}

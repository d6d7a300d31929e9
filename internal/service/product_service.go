package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tradeflow/internal/model"
	"tradeflow/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateProductRequest struct {
	SKU         string `json:"sku" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Category    string `json:"category" binding:"required,oneof=MOLD_BASE HOT_RUNNER COMPONENT CONSUMABLE"`
	Material    string `json:"material"`
	Unit        string `json:"unit"`
	UnitPrice   string `json:"unit_price" binding:"required"`
	Description string `json:"description"`
}

type UpdateProductRequest struct {
	Name        *string `json:"name"`
	Category    *string `json:"category"`
	Material    *string `json:"material"`
	Unit        *string `json:"unit"`
	UnitPrice   *string `json:"unit_price"`
	Description *string `json:"description"`
}

type ProductResponse struct {
	ID          string `json:"id"`
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Material    string `json:"material"`
	Unit        string `json:"unit"`
	UnitPrice   string `json:"unit_price"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

// --- Interface ---

type ProductService interface {
	CreateProduct(ctx context.Context, userID string, req CreateProductRequest) (ProductResponse, error)
	UpdateProduct(ctx context.Context, id, userID string, req UpdateProductRequest) (ProductResponse, error)
	DeleteProduct(ctx context.Context, id, userID string) error
	GetProduct(ctx context.Context, id string) (ProductResponse, error)
	ListProducts(ctx context.Context, category, search string, page, limit int) ([]ProductResponse, int64, error)
}

type productService struct {
	productRepo repository.ProductRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewProductService(
	productRepo repository.ProductRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) ProductService {
	return &productService{
		productRepo: productRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
	}
}

// --- Implementation ---

var validProductCategories = map[string]bool{
	model.ProductCategoryMoldBase:   true,
	model.ProductCategoryHotRunner:  true,
	model.ProductCategoryComponent:  true,
	model.ProductCategoryConsumable: true,
}

func (s *productService) CreateProduct(ctx context.Context, userID string, req CreateProductRequest) (ProductResponse, error) {
	actorID, err := uuid.Parse(userID)
	if err != nil {
		return ProductResponse{}, fmt.Errorf("invalid user id: %w", err)
	}

	unitPrice, err := decimal.NewFromString(req.UnitPrice)
	if err != nil {
		return ProductResponse{}, fmt.Errorf("invalid unit price: %w", err)
	}
	if unitPrice.LessThan(decimal.Zero) {
		return ProductResponse{}, fmt.Errorf("unit price cannot be negative")
	}

	existing, err := s.productRepo.FindBySKU(ctx, req.SKU)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return ProductResponse{}, fmt.Errorf("failed to check SKU: %w", err)
	}
	if existing != nil {
		return ProductResponse{}, fmt.Errorf("SKU %s already exists", req.SKU)
	}

	unit := req.Unit
	if unit == "" {
		unit = "EA"
	}

	product := model.Product{
		SKU:         req.SKU,
		Name:        req.Name,
		Category:    req.Category,
		Material:    req.Material,
		Unit:        unit,
		UnitPrice:   unitPrice,
		Description: req.Description,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.productRepo.Create(txCtx, &product); createErr != nil {
			return fmt.Errorf("failed to create product: %w", createErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"sku":        req.SKU,
			"category":   req.Category,
			"unit_price": req.UnitPrice,
		})
		audit := &model.AuditLog{
			UserID:     &actorID,
			Action:     model.ActionCreateProduct,
			EntityID:   product.SKU,
			EntityName: product.Name,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return ProductResponse{}, err
	}

	return toProductResponse(product), nil
}

func (s *productService) UpdateProduct(ctx context.Context, id, userID string, req UpdateProductRequest) (ProductResponse, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return ProductResponse{}, fmt.Errorf("invalid product id: %w", err)
	}
	actorID, err := uuid.Parse(userID)
	if err != nil {
		return ProductResponse{}, fmt.Errorf("invalid user id: %w", err)
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return ProductResponse{}, fmt.Errorf("product not found: %w", err)
	}

	if req.Name != nil {
		if *req.Name == "" {
			return ProductResponse{}, fmt.Errorf("name cannot be empty")
		}
		product.Name = *req.Name
	}
	if req.Category != nil {
		if !validProductCategories[*req.Category] {
			return ProductResponse{}, fmt.Errorf("category must be one of: MOLD_BASE, HOT_RUNNER, COMPONENT, CONSUMABLE")
		}
		product.Category = *req.Category
	}
	if req.Material != nil {
		product.Material = *req.Material
	}
	if req.Unit != nil {
		product.Unit = *req.Unit
	}
	if req.UnitPrice != nil {
		unitPrice, parseErr := decimal.NewFromString(*req.UnitPrice)
		if parseErr != nil {
			return ProductResponse{}, fmt.Errorf("invalid unit price: %w", parseErr)
		}
		if unitPrice.LessThan(decimal.Zero) {
			return ProductResponse{}, fmt.Errorf("unit price cannot be negative")
		}
		product.UnitPrice = unitPrice
	}
	if req.Description != nil {
		product.Description = *req.Description
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if saveErr := s.productRepo.Update(txCtx, product); saveErr != nil {
			return fmt.Errorf("failed to update product: %w", saveErr)
		}
		details, _ := json.Marshal(map[string]interface{}{"sku": product.SKU})
		audit := &model.AuditLog{
			UserID:     &actorID,
			Action:     model.ActionUpdateProduct,
			EntityID:   product.SKU,
			EntityName: product.Name,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return ProductResponse{}, err
	}

	return toProductResponse(*product), nil
}

func (s *productService) DeleteProduct(ctx context.Context, id, userID string) error {
	productID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid product id: %w", err)
	}
	actorID, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("product not found: %w", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if delErr := s.productRepo.Delete(txCtx, productID); delErr != nil {
			return fmt.Errorf("failed to delete product: %w", delErr)
		}
		audit := &model.AuditLog{
			UserID:     &actorID,
			Action:     model.ActionDeleteProduct,
			EntityID:   product.SKU,
			EntityName: product.Name,
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
}

func (s *productService) GetProduct(ctx context.Context, id string) (ProductResponse, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return ProductResponse{}, fmt.Errorf("invalid product id: %w", err)
	}
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return ProductResponse{}, fmt.Errorf("product not found: %w", err)
	}
	return toProductResponse(*product), nil
}

func (s *productService) ListProducts(ctx context.Context, category, search string, page, limit int) ([]ProductResponse, int64, error) {
	products, total, err := s.productRepo.List(ctx, category, search, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}

	result := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		result = append(result, toProductResponse(p))
	}
	return result, total, nil
}

func toProductResponse(p model.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID.String(),
		SKU:         p.SKU,
		Name:        p.Name,
		Category:    p.Category,
		Material:    p.Material,
		Unit:        p.Unit,
		UnitPrice:   p.UnitPrice.StringFixed(4),
		Description: p.Description,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
	}
}

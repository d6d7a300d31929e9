package repository

import (
	"context"

	"tradeflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PurchaseRepository interface {
	Create(ctx context.Context, purchase *model.PurchaseRequest) error
	Update(ctx context.Context, purchase *model.PurchaseRequest) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseRequest, error)
	List(ctx context.Context, status string, page, limit int) ([]model.PurchaseRequest, int64, error)
}

type purchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

func (r *purchaseRepository) Create(ctx context.Context, purchase *model.PurchaseRequest) error {
	return GetDB(ctx, r.db).Create(purchase).Error
}

func (r *purchaseRepository) Update(ctx context.Context, purchase *model.PurchaseRequest) error {
	return GetDB(ctx, r.db).Save(purchase).Error
}

func (r *purchaseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.PurchaseRequest{}).Error
}

func (r *purchaseRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseRequest, error) {
	var purchase model.PurchaseRequest
	if err := GetDB(ctx, r.db).
		Preload("Product").
		Preload("Submitter").
		Preload("Approver").
		First(&purchase, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *purchaseRepository) List(ctx context.Context, status string, page, limit int) ([]model.PurchaseRequest, int64, error) {
	var purchases []model.PurchaseRequest
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.PurchaseRequest{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetchQuery := db.Model(&model.PurchaseRequest{}).Preload("Product").Preload("Submitter")
	if status != "" {
		fetchQuery = fetchQuery.Where("status = ?", status)
	}
	if err := fetchQuery.Order("created_at DESC").Offset(offset).Limit(limit).Find(&purchases).Error; err != nil {
		return nil, 0, err
	}

	return purchases, total, nil
}

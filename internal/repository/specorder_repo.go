package repository

import (
	"context"

	"tradeflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SpecOrderRepository interface {
	Create(ctx context.Context, order *model.SpecOrder) error
	Update(ctx context.Context, order *model.SpecOrder) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.SpecOrder, error)
	List(ctx context.Context, status string, quotationID *uuid.UUID, page, limit int) ([]model.SpecOrder, int64, error)
}

type specOrderRepository struct {
	db *gorm.DB
}

func NewSpecOrderRepository(db *gorm.DB) SpecOrderRepository {
	return &specOrderRepository{db: db}
}

func (r *specOrderRepository) Create(ctx context.Context, order *model.SpecOrder) error {
	return GetDB(ctx, r.db).Create(order).Error
}

func (r *specOrderRepository) Update(ctx context.Context, order *model.SpecOrder) error {
	return GetDB(ctx, r.db).Save(order).Error
}

func (r *specOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.SpecOrder{}).Error
}

func (r *specOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.SpecOrder, error) {
	var order model.SpecOrder
	if err := GetDB(ctx, r.db).
		Preload("Customer").
		Preload("Quotation").
		Preload("Submitter").
		Preload("Approver").
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *specOrderRepository) List(ctx context.Context, status string, quotationID *uuid.UUID, page, limit int) ([]model.SpecOrder, int64, error) {
	var orders []model.SpecOrder
	var total int64

	db := GetDB(ctx, r.db)
	applyFilters := func(q *gorm.DB) *gorm.DB {
		if status != "" {
			q = q.Where("status = ?", status)
		}
		if quotationID != nil {
			q = q.Where("quotation_id = ?", *quotationID)
		}
		return q
	}

	if err := applyFilters(db.Model(&model.SpecOrder{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := applyFilters(db.Model(&model.SpecOrder{}).Preload("Customer").Preload("Quotation")).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

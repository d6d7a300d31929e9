package repository

import (
	"context"

	"tradeflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AccountRepository interface {
	Create(ctx context.Context, account *model.CorporateAccount) error
	Update(ctx context.Context, account *model.CorporateAccount) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CorporateAccount, error)
	FindByTaxCode(ctx context.Context, taxCode string) (*model.CorporateAccount, error)
	List(ctx context.Context, status string, page, limit int) ([]model.CorporateAccount, int64, error)
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, account *model.CorporateAccount) error {
	return GetDB(ctx, r.db).Create(account).Error
}

func (r *accountRepository) Update(ctx context.Context, account *model.CorporateAccount) error {
	return GetDB(ctx, r.db).Save(account).Error
}

func (r *accountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.CorporateAccount{}).Error
}

func (r *accountRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.CorporateAccount, error) {
	var account model.CorporateAccount
	if err := GetDB(ctx, r.db).
		Preload("Submitter").
		Preload("Approver").
		First(&account, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) FindByTaxCode(ctx context.Context, taxCode string) (*model.CorporateAccount, error) {
	var account model.CorporateAccount
	if err := GetDB(ctx, r.db).First(&account, "tax_code = ?", taxCode).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) List(ctx context.Context, status string, page, limit int) ([]model.CorporateAccount, int64, error) {
	var accounts []model.CorporateAccount
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.CorporateAccount{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetchQuery := db.Model(&model.CorporateAccount{}).Preload("Submitter")
	if status != "" {
		fetchQuery = fetchQuery.Where("status = ?", status)
	}
	if err := fetchQuery.Order("created_at DESC").Offset(offset).Limit(limit).Find(&accounts).Error; err != nil {
		return nil, 0, err
	}

	return accounts, total, nil
}

package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductCategory enum constants
const (
	ProductCategoryMoldBase   = "MOLD_BASE"
	ProductCategoryHotRunner  = "HOT_RUNNER"
	ProductCategoryComponent  = "COMPONENT"
	ProductCategoryConsumable = "CONSUMABLE"
)

// Product represents a catalog item the company trades in
type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SKU         string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"sku"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Category    string          `gorm:"type:varchar(30);not null;default:'COMPONENT';index" json:"category"`
	Material    string          `gorm:"type:varchar(100)" json:"material"`
	Unit        string          `gorm:"type:varchar(20);not null;default:'EA'" json:"unit"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	Description string          `gorm:"type:text" json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

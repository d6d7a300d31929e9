package database

import (
	"log"

	"tradeflow/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Role{},
		&model.Permission{},
		&model.Customer{},
		&model.CustomerAddress{},
		&model.Product{},
		&model.Quotation{},
		&model.QuotationItem{},
		&model.PurchaseRequest{},
		&model.Expense{},
		&model.SpecOrder{},
		&model.CorporateAccount{},
		&model.AuditLog{},
		&model.DocumentCounter{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}

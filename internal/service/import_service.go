package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"tradeflow/internal/model"
	"tradeflow/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type ImportReport struct {
	TotalRows int              `json:"total_rows"`
	Imported  int              `json:"imported"`
	Skipped   int              `json:"skipped"`
	Errors    []ImportRowError `json:"errors"`
}

// --- Interface ---

type ImportService interface {
	ImportCustomers(ctx context.Context, userID string, r io.Reader) (ImportReport, error)
	ImportProducts(ctx context.Context, userID string, r io.Reader) (ImportReport, error)
}

type importService struct {
	customerRepo repository.CustomerRepository
	productRepo  repository.ProductRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
}

func NewImportService(
	customerRepo repository.CustomerRepository,
	productRepo repository.ProductRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) ImportService {
	return &importService{
		customerRepo: customerRepo,
		productRepo:  productRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
	}
}

// --- Implementation ---

// customer CSV columns: name, company_name, tax_code, contact_person, phone, email
var customerCSVHeader = []string{"name", "company_name", "tax_code", "contact_person", "phone", "email"}

// product CSV columns: sku, name, category, material, unit, unit_price, description
var productCSVHeader = []string{"sku", "name", "category", "material", "unit", "unit_price", "description"}

// ImportCustomers parses a customer CSV, validates each row and inserts the
// valid ones in one transaction. Bad rows are reported with their row number
// and do not block the rest of the file.
func (s *importService) ImportCustomers(ctx context.Context, userID string, r io.Reader) (ImportReport, error) {
	actorID, err := uuid.Parse(userID)
	if err != nil {
		return ImportReport{}, fmt.Errorf("invalid user id: %w", err)
	}

	rows, report, err := readCSVRows(r, customerCSVHeader)
	if err != nil {
		return ImportReport{}, err
	}

	customers := make([]model.Customer, 0, len(rows))
	for _, row := range rows {
		name := strings.TrimSpace(row.fields[0])
		if name == "" {
			report.addError(row.num, "name is required")
			continue
		}
		email := strings.TrimSpace(row.fields[5])
		if email != "" && !strings.Contains(email, "@") {
			report.addError(row.num, fmt.Sprintf("invalid email %q", email))
			continue
		}

		customers = append(customers, model.Customer{
			Name:          name,
			CompanyName:   strings.TrimSpace(row.fields[1]),
			TaxCode:       strings.TrimSpace(row.fields[2]),
			ContactPerson: strings.TrimSpace(row.fields[3]),
			Phone:         strings.TrimSpace(row.fields[4]),
			Email:         email,
			IsActive:      true,
		})
	}

	if len(customers) > 0 {
		err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			for i := range customers {
				if createErr := s.customerRepo.Create(txCtx, &customers[i]); createErr != nil {
					return fmt.Errorf("failed to insert customer %q: %w", customers[i].Name, createErr)
				}
			}

			details, _ := json.Marshal(map[string]interface{}{
				"total_rows": report.TotalRows,
				"imported":   len(customers),
				"skipped":    len(report.Errors),
			})
			audit := &model.AuditLog{
				UserID:   &actorID,
				Action:   model.ActionImportCustomerCSV,
				EntityID: "customers.csv",
				Details:  string(details),
			}
			if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
				return fmt.Errorf("failed to write audit log: %w", auditErr)
			}
			return nil
		})
		if err != nil {
			return ImportReport{}, err
		}
	}

	report.Imported = len(customers)
	report.Skipped = report.TotalRows - report.Imported
	return report, nil
}

// ImportProducts parses a product CSV. Rows whose SKU already exists are
// skipped with an error entry; the remainder is inserted in one transaction.
func (s *importService) ImportProducts(ctx context.Context, userID string, r io.Reader) (ImportReport, error) {
	actorID, err := uuid.Parse(userID)
	if err != nil {
		return ImportReport{}, fmt.Errorf("invalid user id: %w", err)
	}

	rows, report, err := readCSVRows(r, productCSVHeader)
	if err != nil {
		return ImportReport{}, err
	}

	seen := make(map[string]bool)
	products := make([]model.Product, 0, len(rows))
	for _, row := range rows {
		sku := strings.TrimSpace(row.fields[0])
		name := strings.TrimSpace(row.fields[1])
		category := strings.TrimSpace(row.fields[2])
		if sku == "" {
			report.addError(row.num, "sku is required")
			continue
		}
		if name == "" {
			report.addError(row.num, "name is required")
			continue
		}
		if seen[sku] {
			report.addError(row.num, fmt.Sprintf("duplicate SKU %q in file", sku))
			continue
		}
		if !validProductCategories[category] {
			report.addError(row.num, fmt.Sprintf("unknown category %q", category))
			continue
		}

		existing, findErr := s.productRepo.FindBySKU(ctx, sku)
		if findErr != nil && !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return ImportReport{}, fmt.Errorf("failed to check SKU %q: %w", sku, findErr)
		}
		if existing != nil {
			report.addError(row.num, fmt.Sprintf("SKU %q already exists", sku))
			continue
		}

		unitPrice, parseErr := decimal.NewFromString(strings.TrimSpace(row.fields[5]))
		if parseErr != nil || unitPrice.LessThan(decimal.Zero) {
			report.addError(row.num, fmt.Sprintf("invalid unit price %q", row.fields[5]))
			continue
		}

		unit := strings.TrimSpace(row.fields[4])
		if unit == "" {
			unit = "EA"
		}

		seen[sku] = true
		products = append(products, model.Product{
			SKU:         sku,
			Name:        name,
			Category:    category,
			Material:    strings.TrimSpace(row.fields[3]),
			Unit:        unit,
			UnitPrice:   unitPrice,
			Description: strings.TrimSpace(row.fields[6]),
		})
	}

	if len(products) > 0 {
		err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			for i := range products {
				if createErr := s.productRepo.Create(txCtx, &products[i]); createErr != nil {
					return fmt.Errorf("failed to insert product %q: %w", products[i].SKU, createErr)
				}
			}

			details, _ := json.Marshal(map[string]interface{}{
				"total_rows": report.TotalRows,
				"imported":   len(products),
				"skipped":    len(report.Errors),
			})
			audit := &model.AuditLog{
				UserID:   &actorID,
				Action:   model.ActionImportProductCSV,
				EntityID: "products.csv",
				Details:  string(details),
			}
			if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
				return fmt.Errorf("failed to write audit log: %w", auditErr)
			}
			return nil
		})
		if err != nil {
			return ImportReport{}, err
		}
	}

	report.Imported = len(products)
	report.Skipped = report.TotalRows - report.Imported
	return report, nil
}

// --- Helpers ---

type csvRow struct {
	num    int // 1-based row number including the header
	fields []string
}

func (r *ImportReport) addError(row int, msg string) {
	r.Errors = append(r.Errors, ImportRowError{Row: row, Message: msg})
}

func readCSVRows(r io.Reader, expectedHeader []string) ([]csvRow, ImportReport, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, ImportReport{}, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if len(header) != len(expectedHeader) {
		return nil, ImportReport{}, fmt.Errorf("expected %d columns (%s), got %d", len(expectedHeader), strings.Join(expectedHeader, ","), len(header))
	}
	for i, col := range expectedHeader {
		if !strings.EqualFold(strings.TrimSpace(header[i]), col) {
			return nil, ImportReport{}, fmt.Errorf("expected column %d to be %q, got %q", i+1, col, header[i])
		}
	}

	report := ImportReport{Errors: []ImportRowError{}}
	var rows []csvRow
	rowNum := 1
	for {
		fields, readErr := reader.Read()
		if readErr == io.EOF {
			break
		}
		rowNum++
		if readErr != nil {
			report.TotalRows++
			report.addError(rowNum, readErr.Error())
			continue
		}
		report.TotalRows++
		rows = append(rows, csvRow{num: rowNum, fields: fields})
	}

	return rows, report, nil
}

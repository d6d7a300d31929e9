package service

import (
	"context"
	"fmt"

	"tradeflow/internal/model"
	"tradeflow/internal/workflow"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type StatusCounts struct {
	Draft    int64 `json:"draft"`
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
}

type DashboardResponse struct {
	Customers      int64                   `json:"customers"`
	Products       int64                   `json:"products"`
	Documents      map[string]StatusCounts `json:"documents"`
	PendingTotal   int64                   `json:"pending_total"`
	ApprovedTotals struct {
		Expenses   string `json:"expenses"`
		Quotations string `json:"quotations"`
	} `json:"approved_totals"`
}

// --- Interface ---

type DashboardService interface {
	GetDashboard(ctx context.Context) (DashboardResponse, error)
}

type dashboardService struct {
	db *gorm.DB
}

func NewDashboardService(db *gorm.DB) DashboardService {
	return &dashboardService{db: db}
}

// --- Implementation ---

func (s *dashboardService) GetDashboard(ctx context.Context) (DashboardResponse, error) {
	resp := DashboardResponse{
		Documents: make(map[string]StatusCounts),
	}

	if err := s.db.WithContext(ctx).Model(&model.Customer{}).Count(&resp.Customers).Error; err != nil {
		return DashboardResponse{}, fmt.Errorf("failed to count customers: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&model.Product{}).Count(&resp.Products).Error; err != nil {
		return DashboardResponse{}, fmt.Errorf("failed to count products: %w", err)
	}

	kinds := []struct {
		name  string
		model interface{}
	}{
		{"quotations", &model.Quotation{}},
		{"purchases", &model.PurchaseRequest{}},
		{"expenses", &model.Expense{}},
		{"spec_orders", &model.SpecOrder{}},
		{"accounts", &model.CorporateAccount{}},
	}

	for _, kind := range kinds {
		counts, err := s.countByStatus(ctx, kind.model)
		if err != nil {
			return DashboardResponse{}, fmt.Errorf("failed to count %s: %w", kind.name, err)
		}
		resp.Documents[kind.name] = counts
		resp.PendingTotal += counts.Pending
	}

	expenseTotal, err := s.approvedSum(ctx, &model.Expense{}, "amount")
	if err != nil {
		return DashboardResponse{}, fmt.Errorf("failed to sum approved expenses: %w", err)
	}
	quotationTotal, err := s.approvedSum(ctx, &model.Quotation{}, "subtotal")
	if err != nil {
		return DashboardResponse{}, fmt.Errorf("failed to sum approved quotations: %w", err)
	}
	resp.ApprovedTotals.Expenses = expenseTotal.StringFixed(4)
	resp.ApprovedTotals.Quotations = quotationTotal.StringFixed(4)

	return resp, nil
}

func (s *dashboardService) countByStatus(ctx context.Context, m interface{}) (StatusCounts, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := s.db.WithContext(ctx).
		Model(m).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return StatusCounts{}, err
	}

	var counts StatusCounts
	for _, row := range rows {
		switch row.Status {
		case workflow.StatusDraft:
			counts.Draft = row.Count
		case workflow.StatusPending:
			counts.Pending = row.Count
		case workflow.StatusApproved:
			counts.Approved = row.Count
		case workflow.StatusRejected:
			counts.Rejected = row.Count
		}
	}
	return counts, nil
}

func (s *dashboardService) approvedSum(ctx context.Context, m interface{}, column string) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := s.db.WithContext(ctx).
		Model(m).
		Select(fmt.Sprintf("COALESCE(SUM(%s), 0) as total", column)).
		Where("status = ?", workflow.StatusApproved).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

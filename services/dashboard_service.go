package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"pos-service/models"
	"pos-service/repository"
)

type ProductLister interface {
	ListProducts(ctx context.Context, userID, query string, opt models.SortOption) ([]models.Product, bool, error)
}

type DashboardService struct {
	products ProductLister
	txns     repository.TransactionRepository
	now      func() time.Time
}

func NewDashboardService(products ProductLister, txns repository.TransactionRepository) *DashboardService {
	return &DashboardService{products: products, txns: txns, now: time.Now}
}

// Summary reports stock figures over live products and sales since midnight UTC.
func (s *DashboardService) Summary(ctx context.Context, userID string) (*models.DashboardSummary, error) {
	products, _, err := s.products.ListProducts(ctx, userID, "", models.SortStockAlerts)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	summary := &models.DashboardSummary{
		ProductCount:   len(products),
		InventoryValue: decimal.Zero,
		LowStock:       []models.Product{},
	}
	for _, p := range products {
		summary.TotalUnits += p.Quantity
		summary.InventoryValue = summary.InventoryValue.Add(
			decimal.NewFromFloat(p.Price).Mul(decimal.NewFromInt(int64(p.Quantity))),
		)
		if p.IsLowStock() {
			summary.LowStock = append(summary.LowStock, p)
		}
	}
	summary.LowStockCount = len(summary.LowStock)

	now := s.now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	sales, err := s.txns.SummarizeSince(ctx, userID, midnight.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("summarize sales: %w", err)
	}
	summary.TodaySalesCount = sales.Count
	summary.TodaySalesTotal = sales.Total
	return summary, nil
}

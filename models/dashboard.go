package models

import "github.com/shopspring/decimal"

// DashboardSummary backs the home screen with stock and sales figures.
type DashboardSummary struct {
	ProductCount    int             `json:"product_count"`
	TotalUnits      int             `json:"total_units"`
	InventoryValue  decimal.Decimal `json:"inventory_value"`
	LowStockCount   int             `json:"low_stock_count"`
	LowStock        []Product       `json:"low_stock"`
	TodaySalesCount int64           `json:"today_sales_count"`
	TodaySalesTotal decimal.Decimal `json:"today_sales_total"`
}

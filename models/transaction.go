package models

import (
	"github.com/shopspring/decimal"
)

// Transaction is the immutable record of one checkout.
type Transaction struct {
	ID          uint            `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID      string          `json:"user_id" gorm:"type:varchar(128);index;not null"`
	Items       []SaleItem      `json:"items" gorm:"serializer:json;type:jsonb;not null"`
	TotalAmount decimal.Decimal `json:"total_amount" gorm:"type:numeric(14,2);not null"`
	CreatedOn   int64           `json:"created_on" gorm:"index"`
}

// SalesSummary aggregates transactions over a period.
type SalesSummary struct {
	Count int64           `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// TransactionEvent is published after a checkout has been recorded.
type TransactionEvent struct {
	Event         string          `json:"event"`
	TransactionID uint            `json:"transaction_id"`
	UserID        string          `json:"user_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	ItemCount     int             `json:"item_count"`
	CreatedOn     int64           `json:"created_on"`
}

// StockAlertEvent is published when a sale pushes a product below its threshold.
type StockAlertEvent struct {
	Event          string  `json:"event"`
	UserID         string  `json:"user_id"`
	ProductID      string  `json:"product_id"`
	ProductName    string  `json:"product_name"`
	Quantity       int     `json:"quantity"`
	ThresholdValue float64 `json:"threshold_value"`
	Timestamp      int64   `json:"timestamp"`
}

package models

import (
	"github.com/shopspring/decimal"
)

// SaleItem is one cart line. ProductName and TotalPrice are snapshots taken when the line was added.
type SaleItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Weight      float64         `json:"weight"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	CreatedOn   int64           `json:"created_on"`
}

// Cart is the pre-checkout sale session of a single user.
type Cart struct {
	UserID          string           `json:"user_id"`
	Items           []SaleItem       `json:"items"`
	Total           decimal.Decimal  `json:"total"`
	Active          *Product         `json:"active_product,omitempty"`
	PendingQuantity int              `json:"pending_quantity"`
	Checkout        *PendingCheckout `json:"pending_checkout,omitempty"`
}

// PendingCheckout is a checkout whose transaction is recorded but whose stock
// writes stopped part way. Applied lists the products already written.
type PendingCheckout struct {
	TransactionID uint     `json:"transaction_id"`
	CreatedOn     int64    `json:"created_on"`
	Applied       []string `json:"applied,omitempty"`
}

// SelectProductRequest picks the product that the next AddItem call will use.
type SelectProductRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}

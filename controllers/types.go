package controllers

import (
	"context"
	"io"
	"time"

	"pos-service/models"
)

// Default configuration values
const (
	DefaultContextTimeout = 30 * time.Second
	MaxUploadSize         = 10 * 1024 * 1024
	MaxPageSize           = 100
)

type ProductServiceAPI interface {
	AddProduct(ctx context.Context, userID string, in models.ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, userID, id string, in models.ProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, userID, id string) error
	GetProduct(ctx context.Context, userID, id string) (*models.Product, error)
	ListProducts(ctx context.Context, userID, query string, opt models.SortOption) ([]models.Product, bool, error)
}

type ImportServiceAPI interface {
	Import(ctx context.Context, userID string, r io.Reader) (*models.BulkImportResult, error)
	Enqueue(ctx context.Context, userID string, r io.Reader) (*models.ImportJob, error)
	State(ctx context.Context, userID string) (models.ImportState, error)
	Dismiss(ctx context.Context, userID string) error
}

type SaleServiceAPI interface {
	Cart(ctx context.Context, userID string) (models.Cart, error)
	SelectProduct(ctx context.Context, userID, productID string) (models.Cart, error)
	IncrementQuantity(ctx context.Context, userID string) (models.Cart, error)
	DecrementQuantity(ctx context.Context, userID string) (models.Cart, error)
	AddItem(ctx context.Context, userID string) (models.Cart, error)
	RemoveItem(ctx context.Context, userID string, index int) (models.Cart, error)
	Checkout(ctx context.Context, userID string) (*models.Transaction, models.Cart, error)
}

type TransactionLister interface {
	FindByUser(ctx context.Context, userID string, page, limit int) ([]models.Transaction, int64, error)
}

type DashboardAPI interface {
	Summary(ctx context.Context, userID string) (*models.DashboardSummary, error)
}

// LiveListing is one live product listing session.
type LiveListing interface {
	Run(ctx context.Context) error
	SetQuery(ctx context.Context, query string) error
	SetSort(ctx context.Context, opt models.SortOption) error
	Views() <-chan models.ListingView
}

// ListingFactory starts a listing session for a user.
type ListingFactory func(userID string) LiveListing

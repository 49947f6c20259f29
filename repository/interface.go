package repository

import (
	"context"
	"errors"
	"io"
	"time"

	"pos-service/models"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrQueueEmpty = errors.New("queue empty")
)

// ProductStore is the remote, authoritative product store.
type ProductStore interface {
	ListByUser(ctx context.Context, userID string) ([]models.Product, error)
	FindByID(ctx context.Context, id string) (*models.Product, error)
	Put(ctx context.Context, product *models.Product) error
	UpdateQuantity(ctx context.Context, id string, quantity int, updatedAt int64) error
}

// ProductFeed delivers full product-set snapshots for one user until ctx is cancelled.
// The returned channel is closed once the underlying listener has been released.
type ProductFeed interface {
	Subscribe(ctx context.Context, userID string) <-chan models.Snapshot
}

// ChangeNotifier tells live subscribers that a user's products changed.
type ChangeNotifier interface {
	NotifyChanged(ctx context.Context, userID string) error
}

// ProductCache is the local relational mirror of the remote store.
type ProductCache interface {
	InsertOrReplace(ctx context.Context, products []models.Product) error
	GetAll(ctx context.Context, userID string) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	UpdateQuantity(ctx context.Context, id string, quantity int) error
}

// TransactionRepository persists checkout records.
type TransactionRepository interface {
	Create(ctx context.Context, txn *models.Transaction) error
	FindByUser(ctx context.Context, userID string, page, limit int) ([]models.Transaction, int64, error)
	SummarizeSince(ctx context.Context, userID string, since int64) (*models.SalesSummary, error)
}

// CartRepository stores the sale session of each user.
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*models.Cart, error)
	SaveCart(ctx context.Context, cart *models.Cart) error
	DeleteCart(ctx context.Context, userID string) error
}

// ImportStateStore holds the per-user import workflow state.
// A zero ttl keeps the state until it is replaced or cleared.
type ImportStateStore interface {
	Get(ctx context.Context, userID string) (models.ImportState, error)
	Set(ctx context.Context, userID string, state models.ImportState, ttl time.Duration) error
	Clear(ctx context.Context, userID string) error
}

// JobQueue carries asynchronous import jobs. Pop blocks up to the queue's wait
// time and returns ErrQueueEmpty when nothing arrived; ack removes the job for good.
type JobQueue interface {
	Push(ctx context.Context, job models.ImportJob) error
	Pop(ctx context.Context) (job *models.ImportJob, ack func(context.Context) error, err error)
}

// ObjectStore keeps uploaded CSV files for asynchronous imports.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

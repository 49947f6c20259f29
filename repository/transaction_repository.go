package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"pos-service/models"
)

// GormTransactionRepository implements TransactionRepository using GORM.
type GormTransactionRepository struct {
	db *gorm.DB
}

func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

func (r *GormTransactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

// FindByUser returns one page of the user's transactions, newest first, and the total count.
func (r *GormTransactionRepository) FindByUser(ctx context.Context, userID string, page, limit int) ([]models.Transaction, int64, error) {
	var txns []models.Transaction
	var total int64

	query := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("user_id = ?", userID).
		Session(&gorm.Session{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Offset(offset).Limit(limit).
		Order("created_on DESC").
		Find(&txns).Error; err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

// SummarizeSince counts and totals the user's transactions created at or after since (epoch ms).
func (r *GormTransactionRepository) SummarizeSince(ctx context.Context, userID string, since int64) (*models.SalesSummary, error) {
	var row struct {
		Count int64
		Total decimal.NullDecimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("COUNT(*) AS count, SUM(total_amount) AS total").
		Where("user_id = ? AND created_on >= ?", userID, since).
		Scan(&row).Error; err != nil {
		return nil, err
	}

	summary := &models.SalesSummary{Count: row.Count, Total: decimal.Zero}
	if row.Total.Valid {
		summary.Total = row.Total.Decimal
	}
	return summary, nil
}

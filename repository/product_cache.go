package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pos-service/models"
)

// GormProductCache mirrors remote products into Postgres for offline reads.
type GormProductCache struct {
	db *gorm.DB
}

func NewGormProductCache(db *gorm.DB) *GormProductCache {
	return &GormProductCache{db: db}
}

// CacheBatchSize keeps each upsert statement well under Postgres's bind parameter limit.
const CacheBatchSize = 500

// InsertOrReplace upserts by product id, CacheBatchSize rows per statement.
func (r *GormProductCache) InsertOrReplace(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		CreateInBatches(&products, CacheBatchSize).Error
}

func (r *GormProductCache) GetAll(ctx context.Context, userID string) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_on ASC").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *GormProductCache) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *GormProductCache) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Update("quantity", quantity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

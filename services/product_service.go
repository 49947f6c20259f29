package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"pos-service/models"
	"pos-service/repository"
)

var ErrProductNotFound = errors.New("product not found")

// ValidationError is returned before any write when product fields are invalid.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	var verrs validator.ValidationErrors
	if errors.As(e.Err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("invalid %s: failed %q check", fe.Field(), fe.Tag())
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ProductService is the single write path for products: manual entry, edits,
// soft deletes, CSV rows and stock changes all go through it.
type ProductService struct {
	store    repository.ProductStore
	cache    repository.ProductCache
	notifier repository.ChangeNotifier
	validate *validator.Validate
	now      func() time.Time
}

func NewProductService(store repository.ProductStore, cache repository.ProductCache, notifier repository.ChangeNotifier) *ProductService {
	return &ProductService{
		store:    store,
		cache:    cache,
		notifier: notifier,
		validate: validator.New(),
		now:      time.Now,
	}
}

func (s *ProductService) AddProduct(ctx context.Context, userID string, in models.ProductInput) (*models.Product, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, &ValidationError{Err: err}
	}
	unit, _ := models.ParseWeightUnit(in.WeightUnit)
	stamp := s.now().UnixMilli()

	p := &models.Product{
		ID:             uuid.NewString(),
		UserID:         userID,
		Name:           in.Name,
		Quantity:       in.Quantity,
		Price:          in.Price,
		Weight:         in.Weight,
		WeightUnit:     unit,
		CreatedOn:      stamp,
		LastUpdated:    stamp,
		ThresholdValue: in.ThresholdValue,
	}
	if err := s.InsertProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// InsertProduct validates and stores a fully built product.
func (s *ProductService) InsertProduct(ctx context.Context, p *models.Product) error {
	in := models.ProductInput{
		Name:           p.Name,
		Quantity:       p.Quantity,
		Price:          p.Price,
		Weight:         p.Weight,
		WeightUnit:     string(p.WeightUnit),
		ThresholdValue: p.ThresholdValue,
	}
	if err := s.validate.Struct(in); err != nil {
		return &ValidationError{Err: err}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return s.write(ctx, p)
}

func (s *ProductService) UpdateProduct(ctx context.Context, userID, id string, in models.ProductInput) (*models.Product, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, &ValidationError{Err: err}
	}
	p, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	unit, _ := models.ParseWeightUnit(in.WeightUnit)
	p.Name = in.Name
	p.Quantity = in.Quantity
	p.Price = in.Price
	p.Weight = in.Weight
	p.WeightUnit = unit
	p.ThresholdValue = in.ThresholdValue
	p.LastUpdated = s.now().UnixMilli()

	if err := s.write(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProduct flags the product as deleted and writes it like any other edit.
func (s *ProductService) DeleteProduct(ctx context.Context, userID, id string) error {
	p, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	p.IsDeleted = true
	p.LastUpdated = s.now().UnixMilli()
	return s.write(ctx, p)
}

// GetProduct reads the remote store and falls back to the local cache when it is unreachable.
func (s *ProductService) GetProduct(ctx context.Context, userID, id string) (*models.Product, error) {
	return s.owned(ctx, userID, id)
}

// ListProducts returns the user's live products filtered and sorted. When the
// remote store fails the local cache is used and fromCache is true.
func (s *ProductService) ListProducts(ctx context.Context, userID, query string, opt models.SortOption) (products []models.Product, fromCache bool, err error) {
	remote, err := s.store.ListByUser(ctx, userID)
	if err == nil {
		if cacheErr := s.cache.InsertOrReplace(ctx, remote); cacheErr != nil {
			zap.L().Warn("Failed to refresh local cache", zap.String("user_id", userID), zap.Error(cacheErr))
		}
		return DeriveView(remote, query, opt), false, nil
	}

	zap.L().Warn("Remote product store unavailable, reading local cache", zap.String("user_id", userID), zap.Error(err))
	cached, cacheErr := s.cache.GetAll(ctx, userID)
	if cacheErr != nil {
		return nil, false, fmt.Errorf("list products: %w", err)
	}
	return DeriveView(cached, query, opt), true, nil
}

// UpdateQuantity overwrites the stock level in the remote store and the local cache.
func (s *ProductService) UpdateQuantity(ctx context.Context, userID, id string, quantity int) error {
	if err := s.store.UpdateQuantity(ctx, id, quantity, s.now().UnixMilli()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("update quantity: %w", err)
	}
	if err := s.cache.UpdateQuantity(ctx, id, quantity); err != nil && !errors.Is(err, repository.ErrNotFound) {
		zap.L().Warn("Failed to update cached quantity", zap.String("product_id", id), zap.Error(err))
	}
	s.notify(ctx, userID)
	return nil
}

func (s *ProductService) owned(ctx context.Context, userID, id string) (*models.Product, error) {
	p, err := s.store.FindByID(ctx, id)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		zap.L().Warn("Remote product lookup failed, reading local cache", zap.String("product_id", id), zap.Error(err))
		cached, cacheErr := s.cache.GetByID(ctx, id)
		if cacheErr != nil {
			if errors.Is(cacheErr, repository.ErrNotFound) {
				return nil, ErrProductNotFound
			}
			return nil, fmt.Errorf("get product: %w", err)
		}
		p, err = cached, nil
	}
	if err != nil {
		return nil, ErrProductNotFound
	}
	if p.UserID != userID || p.IsDeleted {
		return nil, ErrProductNotFound
	}
	return p, nil
}

func (s *ProductService) write(ctx context.Context, p *models.Product) error {
	if err := s.store.Put(ctx, p); err != nil {
		return fmt.Errorf("save product: %w", err)
	}
	if err := s.cache.InsertOrReplace(ctx, []models.Product{*p}); err != nil {
		zap.L().Warn("Failed to write product to local cache", zap.String("product_id", p.ID), zap.Error(err))
	}
	s.notify(ctx, p.UserID)
	return nil
}

func (s *ProductService) notify(ctx context.Context, userID string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyChanged(ctx, userID); err != nil {
		zap.L().Warn("Failed to publish product change", zap.String("user_id", userID), zap.Error(err))
	}
}

package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-service/models"
)

func TestAddProduct_ValidationHasNoSideEffects(t *testing.T) {
	store := newMemStore()
	cache := newMemCache()
	notifier := &memNotifier{}
	svc := NewProductService(store, cache, notifier)

	for name, in := range map[string]models.ProductInput{
		"missing name":   {Quantity: 1, Price: 1},
		"negative price": {Name: "Milk", Quantity: 1, Price: -1},
		"bad unit":       {Name: "Milk", Quantity: 1, Price: 1, WeightUnit: "lb"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.AddProduct(context.Background(), "u1", in)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
	assert.Equal(t, 0, store.puts)
	assert.Empty(t, cache.batches)
	assert.Empty(t, notifier.users)
}

func TestAddProduct_WritesAndNotifies(t *testing.T) {
	store := newMemStore()
	cache := newMemCache()
	notifier := &memNotifier{}
	svc := NewProductService(store, cache, notifier)

	p, err := svc.AddProduct(context.Background(), "u1", models.ProductInput{
		Name: "Milk", Quantity: 4, Price: 1.2, Weight: 1, WeightUnit: "kg", ThresholdValue: 2,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, models.WeightUnitKilograms, p.WeightUnit)
	assert.Equal(t, p.CreatedOn, p.LastUpdated)

	assert.Equal(t, *p, store.get(p.ID))
	assert.Contains(t, cache.products, p.ID)
	assert.Equal(t, []string{"u1"}, notifier.users)
}

func TestDeleteProduct_IsSoftDelete(t *testing.T) {
	store := newMemStore(productA)
	svc := NewProductService(store, newMemCache(), &memNotifier{})
	ctx := context.Background()

	require.NoError(t, svc.DeleteProduct(ctx, "u1", "A"))
	assert.True(t, store.get("A").IsDeleted)

	_, err := svc.GetProduct(ctx, "u1", "A")
	assert.ErrorIs(t, err, ErrProductNotFound)

	listed, _, err := svc.ListProducts(ctx, "u1", "", models.SortNameAsc)
	require.NoError(t, err)
	assert.Empty(t, listed)

	assert.ErrorIs(t, svc.DeleteProduct(ctx, "u1", "A"), ErrProductNotFound)
}

func TestUpdateProduct_OwnerOnly(t *testing.T) {
	store := newMemStore(productA)
	svc := NewProductService(store, newMemCache(), &memNotifier{})

	_, err := svc.UpdateProduct(context.Background(), "intruder", "A", models.ProductInput{Name: "X"})
	assert.ErrorIs(t, err, ErrProductNotFound)

	updated, err := svc.UpdateProduct(context.Background(), "u1", "A", models.ProductInput{Name: "Green Apple", Quantity: 3, Price: 1.5, ThresholdValue: 5})
	require.NoError(t, err)
	assert.Equal(t, "Green Apple", updated.Name)
	assert.Equal(t, productA.CreatedOn, updated.CreatedOn)
	assert.Equal(t, 3, store.get("A").Quantity)
}

func TestListProducts_FallsBackToCache(t *testing.T) {
	store := newMemStore(productA, productB)
	cache := newMemCache()
	svc := NewProductService(store, cache, &memNotifier{})
	ctx := context.Background()

	online, fromCache, err := svc.ListProducts(ctx, "u1", "", models.SortPriceDesc)
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, []string{"B", "A"}, ids(online))

	store.listErr = errors.New("offline")
	offline, fromCache, err := svc.ListProducts(ctx, "u1", "br", models.SortNameAsc)
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.Equal(t, []string{"B"}, ids(offline))

	p, err := svc.GetProduct(ctx, "u1", "A")
	require.NoError(t, err)
	assert.Equal(t, "Apple", p.Name)
}

func TestUpdateQuantity_UnknownProduct(t *testing.T) {
	svc := NewProductService(newMemStore(), newMemCache(), &memNotifier{})
	assert.ErrorIs(t, svc.UpdateQuantity(context.Background(), "u1", "missing", 1), ErrProductNotFound)
}

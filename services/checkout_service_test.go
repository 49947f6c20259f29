package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-service/models"
)

type checkoutFixture struct {
	svc      *CheckoutService
	store    *memStore
	txns     *memTxnRepo
	carts    *memCartRepo
	sns      *memSNS
	products *ProductService
}

func newCheckoutFixture(t *testing.T, products ...models.Product) *checkoutFixture {
	t.Helper()
	store := newMemStore(products...)
	productSvc := NewProductService(store, newMemCache(), &memNotifier{})
	txns := &memTxnRepo{}
	carts := newMemCartRepo()
	sns := &memSNS{}
	svc := NewCheckoutService(carts, txns, productSvc, NewEventPublisher(sns, "arn:aws:sns:us-east-1:000000000000:pos-events"), nil)
	t.Cleanup(svc.Shutdown)
	return &checkoutFixture{svc: svc, store: store, txns: txns, carts: carts, sns: sns, products: productSvc}
}

func (f *checkoutFixture) sell(t *testing.T, productID string, qty int) models.Cart {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.SelectProduct(ctx, "u1", productID)
	require.NoError(t, err)
	for i := 1; i < qty; i++ {
		_, err = f.svc.IncrementQuantity(ctx, "u1")
		require.NoError(t, err)
	}
	cart, err := f.svc.AddItem(ctx, "u1")
	require.NoError(t, err)
	return cart
}

var (
	productA = models.Product{ID: "A", UserID: "u1", Name: "Apple", Quantity: 10, Price: 1.0, ThresholdValue: 5, CreatedOn: 1}
	productB = models.Product{ID: "B", UserID: "u1", Name: "Bread", Quantity: 20, Price: 2.5, ThresholdValue: 2, CreatedOn: 2}
)

func TestCheckout_EmptyCartIsNoop(t *testing.T) {
	f := newCheckoutFixture(t, productA)

	txn, cart, err := f.svc.Checkout(context.Background(), "u1")
	require.NoError(t, err)
	assert.Nil(t, txn)
	assert.Empty(t, cart.Items)
	assert.Empty(t, f.txns.all())
	assert.Empty(t, f.store.updateCalls())
	assert.Empty(t, f.sns.bodies())
}

func TestCheckout_OneTransactionOneWritePerProduct(t *testing.T) {
	f := newCheckoutFixture(t, productA, productB)
	f.sell(t, "A", 2)
	f.sell(t, "B", 1)
	cart := f.sell(t, "A", 3)
	require.Len(t, cart.Items, 3)
	assert.True(t, decimal.RequireFromString("7.5").Equal(cart.Total))

	txn, cleared, err := f.svc.Checkout(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, txn)

	txns := f.txns.all()
	require.Len(t, txns, 1)
	assert.Len(t, txns[0].Items, 3)
	assert.True(t, decimal.RequireFromString("7.5").Equal(txns[0].TotalAmount))

	assert.Equal(t, []string{"A", "B"}, f.store.updateCalls())
	assert.Equal(t, 5, f.store.get("A").Quantity)
	assert.Equal(t, 19, f.store.get("B").Quantity)

	assert.Empty(t, cleared.Items)
	assert.True(t, cleared.Total.IsZero())
	stored, _ := f.carts.GetCart(context.Background(), "u1")
	assert.Nil(t, stored, "empty cart is removed from storage")

	bodies := f.sns.bodies()
	require.Len(t, bodies, 1)
	assert.Contains(t, bodies[0], EventTransactionRecorded)
}

func TestCheckout_AppleCrossesIntoLowStock(t *testing.T) {
	f := newCheckoutFixture(t, models.Product{ID: "1", UserID: "u1", Name: "Apple", Quantity: 10, Price: 1.0, ThresholdValue: 5})
	ctx := context.Background()

	before, _, err := f.products.ListProducts(ctx, "u1", "", models.SortStockAlerts)
	require.NoError(t, err)
	require.Len(t, before, 1)
	assert.False(t, before[0].IsLowStock())

	f.sell(t, "1", 7)
	_, _, err = f.svc.Checkout(ctx, "u1")
	require.NoError(t, err)

	after, _, err := f.products.ListProducts(ctx, "u1", "", models.SortStockAlerts)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, 3, after[0].Quantity)
	assert.True(t, after[0].IsLowStock())

	bodies := f.sns.bodies()
	require.Len(t, bodies, 2)
	assert.Contains(t, bodies[1], EventStockLow)
}

func TestCheckout_PartialFailureKeepsCart(t *testing.T) {
	f := newCheckoutFixture(t, productA, productB)
	f.store.failUpdate["B"] = errors.New("throttled")
	f.sell(t, "A", 1)
	f.sell(t, "B", 1)

	txn, cart, err := f.svc.Checkout(context.Background(), "u1")
	assert.Nil(t, txn)

	var partial *PartialCheckoutError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, uint(1), partial.TransactionID)
	assert.Equal(t, []string{"A"}, partial.Applied)
	assert.Equal(t, "B", partial.FailedProduct)
	assert.True(t, strings.Contains(err.Error(), "throttled"))

	assert.Len(t, f.txns.all(), 1, "transaction stays recorded")
	assert.Equal(t, 9, f.store.get("A").Quantity)
	assert.Equal(t, 20, f.store.get("B").Quantity)

	assert.Len(t, cart.Items, 2)
	current, err := f.svc.Cart(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, current.Items, 2)
}

func TestCheckout_RetryResumesPartialCheckout(t *testing.T) {
	f := newCheckoutFixture(t, productA, productB)
	ctx := context.Background()
	f.store.failUpdate["B"] = errors.New("throttled")
	f.sell(t, "A", 1)
	f.sell(t, "B", 1)

	_, cart, err := f.svc.Checkout(ctx, "u1")
	var partial *PartialCheckoutError
	require.ErrorAs(t, err, &partial)
	require.NotNil(t, cart.Checkout)
	assert.Equal(t, partial.TransactionID, cart.Checkout.TransactionID)
	assert.Equal(t, []string{"A"}, cart.Checkout.Applied)

	stored, err := f.carts.GetCart(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.NotNil(t, stored.Checkout, "pending checkout survives a restart")

	_, err = f.svc.AddItem(ctx, "u1")
	assert.ErrorIs(t, err, ErrCheckoutPending)
	_, err = f.svc.RemoveItem(ctx, "u1", 0)
	assert.ErrorIs(t, err, ErrCheckoutPending)

	delete(f.store.failUpdate, "B")
	txn, cleared, err := f.svc.Checkout(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, txn)
	assert.Equal(t, partial.TransactionID, txn.ID)

	assert.Len(t, f.txns.all(), 1, "retry does not record a second transaction")
	assert.Equal(t, []string{"A", "B"}, f.store.updateCalls())
	assert.Equal(t, 9, f.store.get("A").Quantity)
	assert.Equal(t, 19, f.store.get("B").Quantity)

	assert.Empty(t, cleared.Items)
	assert.Nil(t, cleared.Checkout)
	stored, _ = f.carts.GetCart(ctx, "u1")
	assert.Nil(t, stored)

	bodies := f.sns.bodies()
	require.Len(t, bodies, 1)
	assert.Contains(t, bodies[0], EventTransactionRecorded)
}

func TestCheckout_TransactionFailureWritesNoStock(t *testing.T) {
	f := newCheckoutFixture(t, productA)
	f.txns.err = errors.New("db down")
	f.sell(t, "A", 1)

	_, _, err := f.svc.Checkout(context.Background(), "u1")
	require.Error(t, err)
	assert.Empty(t, f.store.updateCalls())
}

func TestSelectProduct_RejectsUnavailable(t *testing.T) {
	deleted := productB
	deleted.IsDeleted = true
	foreign := models.Product{ID: "F", UserID: "someone-else", Name: "Foreign"}
	f := newCheckoutFixture(t, productA, deleted, foreign)
	ctx := context.Background()

	for _, id := range []string{"B", "F", "missing"} {
		_, err := f.svc.SelectProduct(ctx, "u1", id)
		assert.ErrorIs(t, err, ErrProductUnavailable, id)
	}

	cart, err := f.svc.SelectProduct(ctx, "u1", "A")
	require.NoError(t, err)
	assert.Equal(t, "A", cart.Active.ID)
}

func TestCheckoutService_CartSurvivesSessionRestart(t *testing.T) {
	f := newCheckoutFixture(t, productA)
	f.sell(t, "A", 2)
	f.svc.Shutdown()

	again := NewCheckoutService(f.carts, f.txns, f.products, nil, nil)
	t.Cleanup(again.Shutdown)
	cart, err := again.Cart(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
}

func TestCheckoutService_ConcurrentCommandsSerialize(t *testing.T) {
	f := newCheckoutFixture(t, productA)
	ctx := context.Background()
	_, err := f.svc.SelectProduct(ctx, "u1", "A")
	require.NoError(t, err)

	done := make(chan struct{})
	for i := 0; i < 20; i++ {
		go func() {
			_, _ = f.svc.IncrementQuantity(ctx, "u1")
			done <- struct{}{}
		}()
	}
	for i := 0; i < 20; i++ {
		<-done
	}

	cart, err := f.svc.Cart(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 21, cart.PendingQuantity)
}

package services

import (
	"errors"

	"github.com/shopspring/decimal"

	"pos-service/models"
)

var (
	ErrNoActiveProduct = errors.New("no product selected for sale")
	ErrItemNotFound    = errors.New("cart item index out of range")
	ErrCheckoutPending = errors.New("cart has an unfinished checkout")
)

// Cart transitions return a new Cart and never modify the one passed in.

func NewCart(userID string) models.Cart {
	return models.Cart{UserID: userID, Items: []models.SaleItem{}, Total: decimal.Zero, PendingQuantity: 1}
}

func SelectProduct(cart models.Cart, p models.Product) models.Cart {
	next := cloneCart(cart)
	next.Active = &p
	next.PendingQuantity = 1
	return next
}

func IncrementQuantity(cart models.Cart) models.Cart {
	next := cloneCart(cart)
	next.PendingQuantity++
	return next
}

// DecrementQuantity never takes the pending quantity below 1.
func DecrementQuantity(cart models.Cart) models.Cart {
	next := cloneCart(cart)
	if next.PendingQuantity > 1 {
		next.PendingQuantity--
	}
	return next
}

// AddActive appends the selected product at the pending quantity, priced at
// price × quantity, then clears the selection.
func AddActive(cart models.Cart, now int64) (models.Cart, error) {
	if cart.Checkout != nil {
		return cart, ErrCheckoutPending
	}
	if cart.Active == nil {
		return cart, ErrNoActiveProduct
	}
	p := cart.Active
	qty := cart.PendingQuantity
	if qty < 1 {
		qty = 1
	}

	next := cloneCart(cart)
	next.Items = append(next.Items, models.SaleItem{
		ProductID:   p.ID,
		ProductName: p.Name,
		Quantity:    qty,
		Weight:      p.Weight,
		TotalPrice:  decimal.NewFromFloat(p.Price).Mul(decimal.NewFromInt(int64(qty))),
		CreatedOn:   now,
	})
	next.Active = nil
	next.PendingQuantity = 1
	next.Total = cartTotal(next.Items)
	return next, nil
}

func RemoveAt(cart models.Cart, index int) (models.Cart, error) {
	if cart.Checkout != nil {
		return cart, ErrCheckoutPending
	}
	if index < 0 || index >= len(cart.Items) {
		return cart, ErrItemNotFound
	}
	next := cloneCart(cart)
	next.Items = append(next.Items[:index], next.Items[index+1:]...)
	next.Total = cartTotal(next.Items)
	return next, nil
}

func ClearCart(cart models.Cart) models.Cart {
	return NewCart(cart.UserID)
}

func cartTotal(items []models.SaleItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.TotalPrice)
	}
	return total
}

func cloneCart(cart models.Cart) models.Cart {
	next := cart
	next.Items = append(make([]models.SaleItem, 0, len(cart.Items)+1), cart.Items...)
	if cart.Checkout != nil {
		pending := *cart.Checkout
		pending.Applied = append([]string(nil), cart.Checkout.Applied...)
		next.Checkout = &pending
	}
	return next
}

type soldQuantity struct {
	productID string
	quantity  int
}

// aggregateSold sums quantities per product in order of first appearance.
func aggregateSold(items []models.SaleItem) []soldQuantity {
	index := make(map[string]int, len(items))
	var out []soldQuantity
	for _, it := range items {
		if i, ok := index[it.ProductID]; ok {
			out[i].quantity += it.Quantity
			continue
		}
		index[it.ProductID] = len(out)
		out = append(out, soldQuantity{productID: it.ProductID, quantity: it.Quantity})
	}
	return out
}

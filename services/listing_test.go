package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-service/models"
)

func sampleProducts() []models.Product {
	return []models.Product{
		{ID: "1", Name: "banana", Quantity: 2, Price: 0.5, ThresholdValue: 5},
		{ID: "2", Name: "Apple", Quantity: 10, Price: 1.0, ThresholdValue: 5},
		{ID: "3", Name: "Pineapple", Quantity: 1, Price: 3.0, ThresholdValue: 2},
		{ID: "4", Name: "apple juice", Quantity: 0, Price: 2.5, IsDeleted: true},
		{ID: "5", Name: "Cherry", Quantity: 50, Price: 3.0, ThresholdValue: 10},
		{ID: "6", Name: "Date", Quantity: 4, Price: 0.2, ThresholdValue: 4},
	}
}

func ids(products []models.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func TestFilterProducts(t *testing.T) {
	products := sampleProducts()

	t.Run("empty query keeps all live products", func(t *testing.T) {
		got := FilterProducts(products, "")
		assert.Equal(t, []string{"1", "2", "3", "5", "6"}, ids(got))
	})

	t.Run("case-insensitive substring", func(t *testing.T) {
		got := FilterProducts(products, "APPLE")
		assert.Equal(t, []string{"2", "3"}, ids(got))
	})

	t.Run("matches exactly the live products containing the query", func(t *testing.T) {
		for _, q := range []string{"a", "an", "e", "x", "Ch", "pineAPPLE"} {
			got := FilterProducts(products, q)
			var want []string
			for _, p := range products {
				if !p.IsDeleted && strings.Contains(strings.ToLower(p.Name), strings.ToLower(q)) {
					want = append(want, p.ID)
				}
			}
			assert.ElementsMatch(t, want, ids(got), "query %q", q)
		}
	})

	t.Run("no match yields empty", func(t *testing.T) {
		assert.Empty(t, FilterProducts(products, "zzz"))
	})
}

func TestSortProducts_TotalOrder(t *testing.T) {
	products := FilterProducts(sampleProducts(), "")

	cases := []struct {
		opt     models.SortOption
		ordered func(a, b models.Product) bool
	}{
		{models.SortNameAsc, func(a, b models.Product) bool { return a.Name <= b.Name }},
		{models.SortNameDesc, func(a, b models.Product) bool { return a.Name >= b.Name }},
		{models.SortPriceAsc, func(a, b models.Product) bool { return a.Price <= b.Price }},
		{models.SortPriceDesc, func(a, b models.Product) bool { return a.Price >= b.Price }},
	}
	for _, tc := range cases {
		t.Run(string(tc.opt), func(t *testing.T) {
			once := SortProducts(products, tc.opt)
			require.Len(t, once, len(products))
			for i := 1; i < len(once); i++ {
				assert.True(t, tc.ordered(once[i-1], once[i]), "%s before %s", once[i-1].Name, once[i].Name)
			}
			twice := SortProducts(once, tc.opt)
			assert.Equal(t, once, twice)
		})
	}
}

func TestSortProducts_NameIsByteWise(t *testing.T) {
	got := SortProducts(FilterProducts(sampleProducts(), ""), models.SortNameAsc)
	assert.Equal(t, []string{"Apple", "Cherry", "Date", "Pineapple", "banana"}, names(got))
}

func TestSortProducts_DoesNotMutateInput(t *testing.T) {
	products := FilterProducts(sampleProducts(), "")
	before := ids(products)
	_ = SortProducts(products, models.SortPriceDesc)
	assert.Equal(t, before, ids(products))
}

func TestSortProducts_StockAlerts(t *testing.T) {
	products := FilterProducts(sampleProducts(), "")
	got := SortProducts(products, models.SortStockAlerts)

	seenHealthy := false
	for _, p := range got {
		if !p.IsLowStock() {
			seenHealthy = true
			continue
		}
		assert.False(t, seenHealthy, "low-stock %s after a healthy product", p.Name)
	}
	// feed order within each group
	assert.Equal(t, []string{"1", "3", "2", "5", "6"}, ids(got))
}

func TestDeriveView_AppleScenario(t *testing.T) {
	original := []models.Product{{ID: "1", Name: "Apple", Quantity: 10, Price: 1.0, ThresholdValue: 5}}

	view := DeriveView(original, "", models.SortStockAlerts)
	require.Len(t, view, 1)
	assert.Equal(t, original[0], view[0])
	assert.False(t, view[0].IsLowStock())

	sold := []models.Product{original[0]}
	sold[0].Quantity = 3
	withOthers := append([]models.Product{{ID: "2", Name: "Bread", Quantity: 20, ThresholdValue: 1}}, sold...)

	view = DeriveView(withOthers, "", models.SortStockAlerts)
	require.Len(t, view, 2)
	assert.Equal(t, "Apple", view[0].Name)
	assert.True(t, view[0].IsLowStock())
}

func names(products []models.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Name
	}
	return out
}

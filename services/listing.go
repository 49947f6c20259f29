package services

import (
	"sort"
	"strings"

	"pos-service/models"
)

// FilterProducts drops soft-deleted products and keeps those whose name contains
// query, ignoring case. An empty query keeps every live product.
func FilterProducts(products []models.Product, query string) []models.Product {
	needle := strings.ToLower(query)
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if p.IsDeleted {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(p.Name), needle) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// SortProducts returns a sorted copy. All orders are stable; stock_alerts moves
// low-stock products ahead of the rest and keeps the incoming order inside each group.
func SortProducts(products []models.Product, opt models.SortOption) []models.Product {
	out := append([]models.Product(nil), products...)

	var less func(a, b models.Product) bool
	switch opt {
	case models.SortNameDesc:
		less = func(a, b models.Product) bool { return a.Name > b.Name }
	case models.SortPriceAsc:
		less = func(a, b models.Product) bool { return a.Price < b.Price }
	case models.SortPriceDesc:
		less = func(a, b models.Product) bool { return a.Price > b.Price }
	case models.SortStockAlerts:
		less = func(a, b models.Product) bool { return a.IsLowStock() && !b.IsLowStock() }
	default:
		less = func(a, b models.Product) bool { return a.Name < b.Name }
	}

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// DeriveView filters then sorts the cached original set.
func DeriveView(original []models.Product, query string, opt models.SortOption) []models.Product {
	return SortProducts(FilterProducts(original, query), opt)
}

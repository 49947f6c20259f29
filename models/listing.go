package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SortOption is the closed set of listing orders.
type SortOption string

const (
	SortNameAsc     SortOption = "name_asc"
	SortNameDesc    SortOption = "name_desc"
	SortStockAlerts SortOption = "stock_alerts"
	SortPriceDesc   SortOption = "price_desc"
	SortPriceAsc    SortOption = "price_asc"
)

var sortAliases = map[string]SortOption{
	"name_asc":          SortNameAsc,
	"name_desc":         SortNameDesc,
	"stock_alerts":      SortStockAlerts,
	"low_stock":         SortStockAlerts,
	"price_desc":        SortPriceDesc,
	"price_high_to_low": SortPriceDesc,
	"price_asc":         SortPriceAsc,
	"price_low_to_high": SortPriceAsc,
}

// ParseSortOption accepts the canonical lowercase names and their upper-case aliases.
// An empty string yields SortNameAsc.
func ParseSortOption(raw string) (SortOption, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return SortNameAsc, nil
	}
	if opt, ok := sortAliases[raw]; ok {
		return opt, nil
	}
	return "", fmt.Errorf("invalid sort value %q", raw)
}

// ListingStatus is the loading/error signal published next to a listing.
// Implementations: ListingLoading, ListingReady, ListingError.
type ListingStatus interface {
	listingStatus() string
}

type ListingLoading struct{}

type ListingReady struct{}

type ListingError struct {
	Message string
}

func (ListingLoading) listingStatus() string { return "loading" }
func (ListingReady) listingStatus() string   { return "ready" }
func (ListingError) listingStatus() string   { return "error" }

// ListingView is one published, view-ready state of the listing engine.
type ListingView struct {
	Products []Product
	Query    string
	Sort     SortOption
	Status   ListingStatus
}

// MarshalJSON flattens the status union into a status name plus optional message.
func (v ListingView) MarshalJSON() ([]byte, error) {
	out := struct {
		Products []Product  `json:"products"`
		Query    string     `json:"query"`
		Sort     SortOption `json:"sort"`
		Status   string     `json:"status"`
		Message  string     `json:"message,omitempty"`
	}{
		Products: v.Products,
		Query:    v.Query,
		Sort:     v.Sort,
		Status:   ListingLoading{}.listingStatus(),
	}
	if out.Products == nil {
		out.Products = []Product{}
	}
	if v.Status != nil {
		out.Status = v.Status.listingStatus()
	}
	if e, ok := v.Status.(ListingError); ok {
		out.Message = e.Message
	}
	return json.Marshal(out)
}

// ListingRequest is sent by a live listing client to change query or sort.
type ListingRequest struct {
	Query *string `json:"query"`
	Sort  *string `json:"sort"`
}

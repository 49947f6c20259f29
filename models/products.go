package models

import (
	"strings"
)

// WeightUnit is the unit a product's weight is expressed in.
type WeightUnit string

const (
	WeightUnitGrams     WeightUnit = "G"
	WeightUnitKilograms WeightUnit = "KG"
)

// ParseWeightUnit uppercases raw and maps it onto a known unit.
// Blank input defaults to kilograms; ok is false when raw was not blank and not recognised.
func ParseWeightUnit(raw string) (unit WeightUnit, ok bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "":
		return WeightUnitKilograms, true
	case "G", "GRAM", "GRAMS":
		return WeightUnitGrams, true
	case "KG", "KILOGRAM", "KILOGRAMS":
		return WeightUnitKilograms, true
	default:
		return WeightUnitKilograms, false
	}
}

// Product is a catalog entry owned by a single user.
// An empty ID means the product has not been saved yet.
type Product struct {
	ID             string     `json:"id" gorm:"primaryKey;type:varchar(64)"`
	UserID         string     `json:"user_id" gorm:"type:varchar(128);index;not null"`
	Name           string     `json:"name" gorm:"not null"`
	Quantity       int        `json:"quantity"`
	Price          float64    `json:"price"`
	Weight         float64    `json:"weight"`
	WeightUnit     WeightUnit `json:"weight_unit" gorm:"type:varchar(4)"`
	CreatedOn      int64      `json:"created_on"`
	IsDeleted      bool       `json:"is_deleted" gorm:"index"`
	LastUpdated    int64      `json:"last_updated"`
	ThresholdValue float64    `json:"threshold_value"`
}

// TableName keeps the local mirror table name stable.
func (Product) TableName() string { return "cached_products" }

// IsLowStock reports whether the quantity dropped below the alert threshold.
func (p Product) IsLowStock() bool {
	return float64(p.Quantity) < p.ThresholdValue
}

// ProductInput is the payload for manual product entry and edits.
type ProductInput struct {
	Name           string  `json:"name" validate:"required,max=200"`
	Quantity       int     `json:"quantity" validate:"gte=0"`
	Price          float64 `json:"price" validate:"gte=0"`
	Weight         float64 `json:"weight" validate:"gte=0"`
	WeightUnit     string  `json:"weight_unit" validate:"omitempty,oneof=G KG g kg"`
	ThresholdValue float64 `json:"threshold_value" validate:"gte=0"`
}

// Snapshot is one emission of a user's full product set from the remote feed.
// Exactly one of Products or Err is meaningful.
type Snapshot struct {
	Products []Product
	Err      error
}

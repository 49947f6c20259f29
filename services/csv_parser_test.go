package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-service/models"
)

var parseTime = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func parse(t *testing.T, body string) *ParsedCSV {
	t.Helper()
	parsed, err := ParseProductsCSV(strings.NewReader(body), "u1", parseTime)
	require.NoError(t, err)
	return parsed
}

func TestParseProductsCSV_WellFormedRow(t *testing.T) {
	parsed := parse(t, "name,quantity,price\nWidget,10,5.50\n")

	require.Len(t, parsed.Products, 1)
	p := parsed.Products[0]
	assert.Equal(t, "Widget", p.Name)
	assert.Equal(t, 10, p.Quantity)
	assert.Equal(t, 5.50, p.Price)
	assert.Equal(t, 0.0, p.Weight)
	assert.Equal(t, models.WeightUnitKilograms, p.WeightUnit)
	assert.Equal(t, "u1", p.UserID)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, parseTime.UnixMilli(), p.CreatedOn)
	assert.False(t, p.IsDeleted)
}

func TestParseProductsCSV_HeaderAlwaysSkipped(t *testing.T) {
	parsed := parse(t, "Widget,10,5.50\nGadget,1,2\n")
	require.Len(t, parsed.Products, 1)
	assert.Equal(t, "Gadget", parsed.Products[0].Name)
}

func TestParseProductsCSV_SkipsMalformedRows(t *testing.T) {
	body := strings.Join([]string{
		"name,quantity,price,weight,unit",
		"Widget,abc,5.50",
		"TooShort,3",
		"Bad Price,3,x",
		",4,1.0",
		"Negative,-1,1.0",
		"Good,3,1.25,0.5,g",
	}, "\n")
	parsed := parse(t, body)

	require.Len(t, parsed.Products, 1)
	assert.Equal(t, "Good", parsed.Products[0].Name)
	assert.Equal(t, 6, parsed.TotalRows)
	assert.Equal(t, 5, parsed.Skipped)
}

func TestParseProductsCSV_OptionalFields(t *testing.T) {
	body := strings.Join([]string{
		"name,quantity,price,weight,unit",
		"  Flour , 2 , 3.10 , 1.5 , kg ",
		"Sugar,1,2,notanumber,G",
		"Salt,1,2,0.25,",
		"Pepper,1,2,0.1,ounces",
		"Rice,1,2,5,grams",
	}, "\r\n")
	parsed := parse(t, body)
	require.Len(t, parsed.Products, 5)

	flour := parsed.Products[0]
	assert.Equal(t, "Flour", flour.Name)
	assert.Equal(t, 2, flour.Quantity)
	assert.Equal(t, 3.10, flour.Price)
	assert.Equal(t, 1.5, flour.Weight)
	assert.Equal(t, models.WeightUnitKilograms, flour.WeightUnit)

	assert.Equal(t, 0.0, parsed.Products[1].Weight, "bad weight defaults to zero")
	assert.Equal(t, models.WeightUnitGrams, parsed.Products[1].WeightUnit)
	assert.Equal(t, models.WeightUnitKilograms, parsed.Products[2].WeightUnit, "blank unit")
	assert.Equal(t, models.WeightUnitKilograms, parsed.Products[3].WeightUnit, "unknown unit")
	assert.Equal(t, models.WeightUnitGrams, parsed.Products[4].WeightUnit)
}

func TestParseProductsCSV_UniqueIDs(t *testing.T) {
	parsed := parse(t, "h\nA,1,1\nB,1,1\nC,1,1\n")
	require.Len(t, parsed.Products, 3)
	seen := map[string]bool{}
	for _, p := range parsed.Products {
		assert.False(t, seen[p.ID])
		seen[p.ID] = true
	}
}

func TestParseProductsCSV_EmptyInputs(t *testing.T) {
	for name, body := range map[string]string{
		"empty":       "",
		"header only": "name,quantity,price\n",
		"blank lines": "name,quantity,price\n\n   \n",
	} {
		t.Run(name, func(t *testing.T) {
			parsed := parse(t, body)
			assert.Empty(t, parsed.Products)
			assert.Equal(t, 0, parsed.TotalRows)
		})
	}
}

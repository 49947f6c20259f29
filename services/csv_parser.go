package services

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pos-service/models"
)

const maxCSVLineBytes = 1024 * 1024

// ParsedCSV is the outcome of parsing an import file.
type ParsedCSV struct {
	Products  []models.Product
	TotalRows int
	Skipped   int
}

// ParseProductsCSV reads `name,quantity,price[,weight[,weight_unit]]` rows after
// a header line that is always skipped. Fields are split on every comma with no
// quoting. Rows missing a mandatory field, or whose quantity or price does not
// parse, are logged and skipped. Weight falls back to 0 and the unit to KG.
func ParseProductsCSV(r io.Reader, userID string, now time.Time) (*ParsedCSV, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxCSVLineBytes)

	result := &ParsedCSV{}
	stamp := now.UnixMilli()
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		if lineNum == 1 {
			continue
		}
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		result.TotalRows++

		product, err := parseProductRow(line)
		if err != nil {
			result.Skipped++
			zap.L().Warn("Skipping CSV row", zap.Int("line", lineNum), zap.Error(err))
			continue
		}

		product.ID = uuid.NewString()
		product.UserID = userID
		product.CreatedOn = stamp
		product.LastUpdated = stamp
		result.Products = append(result.Products, product)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read CSV: %w", err)
	}
	return result, nil
}

func parseProductRow(line string) (models.Product, error) {
	tokens := strings.Split(line, ",")
	if len(tokens) < 3 {
		return models.Product{}, fmt.Errorf("expected at least 3 fields, got %d", len(tokens))
	}

	name := strings.TrimSpace(tokens[0])
	if name == "" {
		return models.Product{}, fmt.Errorf("name is empty")
	}
	quantity, err := strconv.Atoi(strings.TrimSpace(tokens[1]))
	if err != nil {
		return models.Product{}, fmt.Errorf("invalid quantity %q", tokens[1])
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(tokens[2]), 64)
	if err != nil {
		return models.Product{}, fmt.Errorf("invalid price %q", tokens[2])
	}
	if quantity < 0 || price < 0 {
		return models.Product{}, fmt.Errorf("negative quantity or price")
	}

	p := models.Product{
		Name:       name,
		Quantity:   quantity,
		Price:      price,
		WeightUnit: models.WeightUnitKilograms,
	}
	if len(tokens) > 3 {
		if w, err := strconv.ParseFloat(strings.TrimSpace(tokens[3]), 64); err == nil && w >= 0 {
			p.Weight = w
		}
	}
	if len(tokens) > 4 {
		unit, ok := models.ParseWeightUnit(tokens[4])
		if !ok {
			zap.L().Debug("Unknown weight unit, using KG", zap.String("unit", tokens[4]))
		}
		p.WeightUnit = unit
	}
	return p, nil
}

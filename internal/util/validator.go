package util

import (
	"fmt"
	"math"
	"strings"

	"github.com/sanye891/next-dashboard/internal/models"
)

// ValidateSaleName 验证销售记录名称（非空且长度合理）
func ValidateSaleName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name is empty")
	}
	if len(name) > 128 {
		return fmt.Errorf("name too long, max 128 characters")
	}
	return nil
}

// ValidateSaleValue 验证销售金额（必须为有限数值）
func ValidateSaleValue(value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("value must be a finite number, got %f", value)
	}
	return nil
}

// ValidateCategory checks a file category against the closed set.
func ValidateCategory(category string) error {
	if !models.StorableCategory(category) {
		return fmt.Errorf("unknown category %q", category)
	}
	return nil
}

// saleOrderColumns whitelists columns accepted by the list orderBy parameter
// so user input never reaches SQL directly.
var saleOrderColumns = map[string]struct{}{
	"id":         {},
	"name":       {},
	"value":      {},
	"created_at": {},
}

// ValidateOrderBy checks an order column against the whitelist.
func ValidateOrderBy(column string) error {
	if _, ok := saleOrderColumns[column]; !ok {
		return fmt.Errorf("cannot order by %q", column)
	}
	return nil
}

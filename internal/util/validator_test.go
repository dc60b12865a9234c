package util

import (
	"math"
	"strings"
	"testing"
)

func TestValidateSaleName_Valid(t *testing.T) {
	testCases := []string{"Widget", "产品 A", "x"}

	for _, name := range testCases {
		if err := ValidateSaleName(name); err != nil {
			t.Errorf("ValidateSaleName(%q) error = %v, want nil", name, err)
		}
	}
}

func TestValidateSaleName_Empty(t *testing.T) {
	for _, name := range []string{"", "   ", "\t"} {
		if err := ValidateSaleName(name); err == nil {
			t.Errorf("ValidateSaleName(%q) error = nil, want error", name)
		}
	}
}

func TestValidateSaleName_TooLong(t *testing.T) {
	name := strings.Repeat("a", 129)
	if err := ValidateSaleName(name); err == nil {
		t.Error("ValidateSaleName(long) error = nil, want error")
	}
}

func TestValidateSaleValue(t *testing.T) {
	for _, v := range []float64{0, 0.01, -5, 1e9} {
		if err := ValidateSaleValue(v); err != nil {
			t.Errorf("ValidateSaleValue(%f) error = %v, want nil", v, err)
		}
	}
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if err := ValidateSaleValue(v); err == nil {
			t.Errorf("ValidateSaleValue(%f) error = nil, want error", v)
		}
	}
}

func TestValidateCategory(t *testing.T) {
	valid := []string{"Sales Report", "Customer Data", "Financial Document", "Product Material", "Other"}
	for _, c := range valid {
		if err := ValidateCategory(c); err != nil {
			t.Errorf("ValidateCategory(%q) error = %v, want nil", c, err)
		}
	}

	// "All" is a filter value, not storable
	invalid := []string{"All", "", "Misc", "other"}
	for _, c := range invalid {
		if err := ValidateCategory(c); err == nil {
			t.Errorf("ValidateCategory(%q) error = nil, want error", c)
		}
	}
}

func TestValidateOrderBy(t *testing.T) {
	for _, col := range []string{"id", "name", "value", "created_at"} {
		if err := ValidateOrderBy(col); err != nil {
			t.Errorf("ValidateOrderBy(%q) error = %v, want nil", col, err)
		}
	}
	for _, col := range []string{"user_id", "value; DROP TABLE sales", ""} {
		if err := ValidateOrderBy(col); err == nil {
			t.Errorf("ValidateOrderBy(%q) error = nil, want error", col)
		}
	}
}

package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var errInvalidDecimal = errors.New("invalid value")

// QuantityScale is the number of decimal places quantity columns store.
const QuantityScale = 3

// ParseDecimal accepts strings ("12.5", " 1,250.000 "), json.Number and plain numbers.
func ParseDecimal(i interface{}) (decimal.Decimal, error) {
	switch v := i.(type) {
	case nil:
		return decimal.Zero, errInvalidDecimal
	case string:
		s := strings.TrimSpace(v)
		s = strings.ReplaceAll(s, ",", "")
		s = strings.ReplaceAll(s, " ", "")
		if s == "" {
			return decimal.Zero, errInvalidDecimal
		}
		return decimal.NewFromString(s)
	case json.Number:
		return decimal.NewFromString(v.String())
	case float64:
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case decimal.Decimal:
		return v, nil
	default:
		return decimal.Zero, fmt.Errorf("%w: %T", errInvalidDecimal, i)
	}
}

// ParsePositiveQuantity returns an InvalidQuantity validation error unless
// the value parses to a decimal greater than zero with at most QuantityScale
// significant decimal places. Trailing zeros ("40.5000") are accepted.
func ParsePositiveQuantity(i interface{}) (decimal.Decimal, error) {
	q, err := ParseDecimal(i)
	if err != nil {
		return decimal.Zero, NewValidationError(ErrCodeInvalidQuantity, "produced_quantity is not a valid number")
	}
	if !q.IsPositive() {
		return decimal.Zero, NewValidationError(ErrCodeInvalidQuantity, "produced_quantity must be greater than zero")
	}
	rounded := q.Round(QuantityScale)
	if !rounded.Equal(q) {
		return decimal.Zero, NewValidationError(ErrCodeInvalidQuantity,
			fmt.Sprintf("produced_quantity allows at most %d decimal places", QuantityScale))
	}
	return rounded, nil
}

// ParseID accepts a JSON number or a numeric string. A missing value gives
// 0 and ok; anything that is not a whole number gives ok false.
func ParseID(i interface{}) (int, bool) {
	switch v := i.(type) {
	case nil:
		return 0, true
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	case json.Number:
		n, err := strconv.Atoi(v.String())
		return n, err == nil
	case int:
		return v, true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, true
		}
		n, err := strconv.Atoi(s)
		return n, err == nil
	default:
		return 0, false
	}
}

// Percent returns part/whole*100 rounded to one decimal place, 0 when whole is 0.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100)).Round(1)
}

func ProcessValidationErrors(err error) map[string]string {

	errorResponse := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		errorResponse["body"] = "invalid request"
		return errorResponse
	}

	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}

	return errorResponse
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

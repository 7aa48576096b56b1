package utils

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// Int64ToStr converts an int64 to its string representation.
func Int64ToStr(num int64) string {
	return strconv.FormatInt(num, 10)
}

// StrToInt64 converts a string to an int64.
// Returns 0 and an error if the conversion fails.
func StrToInt64(s string) (int64, error) {
	num, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return num, nil
}

// ToDecimal converts a loosely typed JSON value (number or numeric string)
// into a decimal. Floats go through their shortest string form so 5.99 stays 5.99.
func ToDecimal(v interface{}) (decimal.Decimal, error) {
	switch val := v.(type) {
	case decimal.Decimal:
		return val, nil
	case float64:
		return decimal.NewFromString(strconv.FormatFloat(val, 'f', -1, 64))
	case float32:
		return decimal.NewFromString(strconv.FormatFloat(float64(val), 'f', -1, 32))
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(s)
}

var errNotWholeNumber = errors.New("not a whole number")

// ToWholeNumber converts a number or numeric string to an int. Strings are
// read as base-10 decimals, so "010" is 10 and "08" is 8; "2.0" is accepted
// but "2.5", hex and booleans are not.
func ToWholeNumber(v interface{}) (int, error) {
	if _, isBool := v.(bool); isBool {
		return 0, errNotWholeNumber
	}
	if s, isStr := v.(string); isStr {
		v = strings.TrimSpace(s)
	}
	d, err := ToDecimal(v)
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() || d.GreaterThan(decimal.NewFromInt(math.MaxInt32)) || d.LessThan(decimal.NewFromInt(math.MinInt32)) {
		return 0, errNotWholeNumber
	}
	return int(d.IntPart()), nil
}

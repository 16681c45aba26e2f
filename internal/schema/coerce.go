package schema

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

var (
	// ErrEmptyNumber is returned when a numeric cell holds only whitespace.
	ErrEmptyNumber = errors.New("empty numeric value")
	// ErrOverflow is returned when an integer cell does not fit in int64.
	ErrOverflow = errors.New("integer out of range")
	// ErrUnsupportedValue is returned by FromTuple for values of the wrong Go type.
	ErrUnsupportedValue = errors.New("unsupported value type")
)

var (
	minInt64 = decimal.NewFromInt(math.MinInt64)
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
)

func coerce(f Field, raw string) (any, error) {
	switch f.Type {
	case Text:
		return raw, nil
	case Integer:
		d, err := ParseNumber(raw)
		if err != nil {
			return nil, coercionError(f, raw, err)
		}
		n, err := truncate(d)
		if err != nil {
			return nil, coercionError(f, raw, err)
		}
		return n, nil
	case Decimal:
		d, err := ParseNumber(raw)
		if err != nil {
			return nil, coercionError(f, raw, err)
		}
		return d, nil
	case Timestamp:
		t, err := ParseDate(raw)
		if err != nil {
			return nil, coercionError(f, raw, err)
		}
		return t, nil
	}
	return nil, coercionError(f, raw, fmt.Errorf("unknown %s", f.Type))
}

// convert accepts values that are already typed, as produced by Record.Tuple.
func convert(f Field, v any) (any, error) {
	switch f.Type {
	case Integer:
		switch n := v.(type) {
		case int64:
			return n, nil
		case int:
			return int64(n), nil
		case int32:
			return int64(n), nil
		case float64:
			return truncateFloat(f, n)
		case decimal.Decimal:
			i, err := truncate(n)
			if err != nil {
				return nil, coercionError(f, n.String(), err)
			}
			return i, nil
		}
	case Decimal:
		switch n := v.(type) {
		case decimal.Decimal:
			return n, nil
		case float64:
			return decimal.NewFromFloat(n), nil
		case int64:
			return decimal.NewFromInt(n), nil
		case int:
			return decimal.NewFromInt(int64(n)), nil
		}
	case Timestamp:
		if t, ok := v.(time.Time); ok {
			return t, nil
		}
	}
	return nil, coercionError(f, fmt.Sprint(v), fmt.Errorf("%w %T", ErrUnsupportedValue, v))
}

// NormalizeNumber strips every whitespace rune, including non-breaking and
// thin spaces used as thousands separators, and turns decimal commas into
// points.
func NormalizeNumber(raw string) string {
	s := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '\u200b' {
			return -1
		}
		return r
	}, raw)
	return strings.ReplaceAll(s, ",", ".")
}

// ParseNumber normalizes a locale formatted number and parses it.
func ParseNumber(raw string) (decimal.Decimal, error) {
	s := NormalizeNumber(raw)
	if s == "" {
		return decimal.Decimal{}, ErrEmptyNumber
	}
	return decimal.NewFromString(s)
}

func truncate(d decimal.Decimal) (int64, error) {
	d = d.Truncate(0)
	if d.LessThan(minInt64) || d.GreaterThan(maxInt64) {
		return 0, ErrOverflow
	}
	return d.IntPart(), nil
}

func truncateFloat(f Field, n float64) (any, error) {
	if math.IsNaN(n) || math.IsInf(n, 0) || n < math.MinInt64 || n > math.MaxInt64 {
		return nil, coercionError(f, fmt.Sprint(n), ErrOverflow)
	}
	return int64(n), nil
}

func coercionError(f Field, raw string, err error) error {
	return &CoercionError{Field: f.Name, Type: f.Type, Raw: raw, Err: err}
}

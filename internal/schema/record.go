package schema

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Record is one typed row of a Schema. The zero Record has no schema and no
// values.
type Record struct {
	schema *Schema
	values []any
}

// Schema returns the schema the record was built from.
func (r Record) Schema() *Schema { return r.schema }

// Fields returns the field names in schema order.
func (r Record) Fields() []string {
	if r.schema == nil {
		return nil
	}
	return r.schema.Fields()
}

// Tuple returns a copy of the values in schema order: string for Text, int64
// for Integer, decimal.Decimal for Decimal and time.Time for Timestamp.
func (r Record) Tuple() []any {
	out := make([]any, len(r.values))
	copy(out, r.values)
	return out
}

// Value returns the value of the named field.
func (r Record) Value(name string) (any, bool) {
	if r.schema == nil {
		return nil, false
	}
	i := r.schema.Index(name)
	if i < 0 {
		return nil, false
	}
	return r.values[i], true
}

// Text returns a Text field, or "" if name is not a Text field.
func (r Record) Text(name string) string {
	v, _ := r.Value(name)
	s, _ := v.(string)
	return s
}

// Int returns an Integer field, or 0 if name is not an Integer field.
func (r Record) Int(name string) int64 {
	v, _ := r.Value(name)
	n, _ := v.(int64)
	return n
}

// Decimal returns a Decimal field, or zero if name is not a Decimal field.
func (r Record) Decimal(name string) decimal.Decimal {
	v, _ := r.Value(name)
	d, _ := v.(decimal.Decimal)
	return d
}

// Time returns a Timestamp field, or the zero time if name is not a
// Timestamp field.
func (r Record) Time(name string) time.Time {
	v, _ := r.Value(name)
	t, _ := v.(time.Time)
	return t
}

// Equal reports whether both records share a schema and hold equal values.
func (r Record) Equal(o Record) bool {
	if r.schema != o.schema || len(r.values) != len(o.values) {
		return false
	}
	for i := range r.values {
		if !equalValue(r.values[i], o.values[i]) {
			return false
		}
	}
	return true
}

func equalValue(a, b any) bool {
	switch x := a.(type) {
	case decimal.Decimal:
		y, ok := b.(decimal.Decimal)
		return ok && x.Equal(y)
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	default:
		return a == b
	}
}

func (r Record) String() string {
	if r.schema == nil {
		return "{}"
	}
	s := "{"
	for i, f := range r.schema.fields {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%s=%v", f.Name, format(r.values[i]))
	}
	return s + "}"
}

func format(v any) any {
	switch x := v.(type) {
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format(time.RFC3339)
	case decimal.Decimal:
		return x.String()
	default:
		return v
	}
}

// Package schema declares tabular record layouts and coerces raw statement
// cells into typed values.
//
// A Schema is an ordered table of (name, type) pairs built once and reused.
// Records built from it are immutable: construction either yields a fully
// typed value or fails.
package schema

import (
	"fmt"
	"strings"
)

// Type is the semantic type of a field.
type Type int

const (
	Text Type = iota
	Integer
	Decimal
	Timestamp
)

func (t Type) String() string {
	switch t {
	case Text:
		return "text"
	case Integer:
		return "integer"
	case Decimal:
		return "decimal"
	case Timestamp:
		return "timestamp"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// Field is one column of a Schema.
type Field struct {
	Name string
	Type Type
}

// Schema is an ordered, immutable list of fields.
type Schema struct {
	name   string
	fields []Field
	index  map[string]int
}

// New builds a schema. Field names must be non-empty and unique.
func New(name string, fields ...Field) (*Schema, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("schema %s: no fields", name)
	}
	s := &Schema{
		name:   name,
		fields: make([]Field, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if strings.TrimSpace(f.Name) == "" {
			return nil, fmt.Errorf("schema %s: field %d has empty name", name, i)
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, fmt.Errorf("schema %s: duplicate field %q", name, f.Name)
		}
		s.fields[i] = f
		s.index[f.Name] = i
	}
	return s, nil
}

// MustNew is like New but panics on an invalid definition.
func MustNew(name string, fields ...Field) *Schema {
	s, err := New(name, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// Len returns the number of fields.
func (s *Schema) Len() int { return len(s.fields) }

// Field returns the i-th field.
func (s *Schema) Field(i int) Field { return s.fields[i] }

// Fields returns the field names in schema order.
func (s *Schema) Fields() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Index returns the position of the named field, or -1.
func (s *Schema) Index(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}

// New coerces raw cell strings into a Record. The number of values must equal
// the number of fields.
func (s *Schema) New(values []string) (Record, error) {
	if len(values) != len(s.fields) {
		return Record{}, &ArityError{Schema: s.name, Got: len(values), Want: len(s.fields)}
	}
	out := make([]any, len(values))
	for i, raw := range values {
		v, err := coerce(s.fields[i], raw)
		if err != nil {
			return Record{}, err
		}
		out[i] = v
	}
	return Record{schema: s, values: out}, nil
}

// FromTuple builds a Record from a positional tuple. Strings are coerced like
// in New; already typed values are checked against the field type.
func (s *Schema) FromTuple(values []any) (Record, error) {
	if len(values) != len(s.fields) {
		return Record{}, &ArityError{Schema: s.name, Got: len(values), Want: len(s.fields)}
	}
	out := make([]any, len(values))
	for i, v := range values {
		f := s.fields[i]
		if raw, ok := v.(string); ok {
			c, err := coerce(f, raw)
			if err != nil {
				return Record{}, err
			}
			out[i] = c
			continue
		}
		c, err := convert(f, v)
		if err != nil {
			return Record{}, err
		}
		out[i] = c
	}
	return Record{schema: s, values: out}, nil
}

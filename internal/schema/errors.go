package schema

import "fmt"

// CoercionError reports a cell that could not be converted to its field type.
type CoercionError struct {
	Field string
	Type  Type
	Raw   string
	Err   error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("field %s: cannot coerce %q to %s: %v", e.Field, e.Raw, e.Type, e.Err)
}

func (e *CoercionError) Unwrap() error {
	return e.Err
}

// ArityError reports a value count that does not match the schema.
type ArityError struct {
	Schema string
	Got    int
	Want   int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("schema %s: got %d values, want %d", e.Schema, e.Got, e.Want)
}

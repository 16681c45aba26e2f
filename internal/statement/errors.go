package statement

import (
	"errors"
	"fmt"

	"github.com/joseph-ayodele/broker-reports/internal/schema"
)

// Error classes. Every error returned by the extractor matches exactly one of
// them through errors.Is.
var (
	ErrStructural = errors.New("statement structure")
	ErrShape      = errors.New("row shape")
	ErrData       = errors.New("cell data")
)

// CoercionError is the cell-level failure wrapped by RowError.
type CoercionError = schema.CoercionError

func docPrefix(doc string) string {
	if doc == "" {
		return ""
	}
	return doc + ": "
}

// HeadingNotFoundError means the document has no level-3 heading.
type HeadingNotFoundError struct {
	Document string
}

func (e *HeadingNotFoundError) Error() string {
	return docPrefix(e.Document) + "report heading (h3) not found"
}

func (e *HeadingNotFoundError) Is(target error) bool { return target == ErrStructural }

// PeriodNotFoundError means the heading carries no "D.M.Y по D.M.Y" range, or
// the range holds an impossible date (Err is then set).
type PeriodNotFoundError struct {
	Document string
	Heading  string
	Err      error
}

func (e *PeriodNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%sinvalid report period in heading %q: %v", docPrefix(e.Document), e.Heading, e.Err)
	}
	return fmt.Sprintf("%sreport period not found in heading %q", docPrefix(e.Document), e.Heading)
}

func (e *PeriodNotFoundError) Unwrap() error { return e.Err }

func (e *PeriodNotFoundError) Is(target error) bool { return target == ErrStructural }

// TableNotFoundError means the section marker was found but nothing follows it.
type TableNotFoundError struct {
	Document string
	Marker   string
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("%sno table after section %q", docPrefix(e.Document), e.Marker)
}

func (e *TableNotFoundError) Is(target error) bool { return target == ErrStructural }

// RowShapeError reports a data row whose cell count differs from the schema.
// Row is the zero-based index among the rows that passed filtering.
type RowShapeError struct {
	Document string
	Row      int
	Cells    int
	Want     int
}

func (e *RowShapeError) Error() string {
	return fmt.Sprintf("%srow %d: got %d cells, want %d", docPrefix(e.Document), e.Row, e.Cells, e.Want)
}

func (e *RowShapeError) Is(target error) bool { return target == ErrShape }

// RowError wraps a CoercionError with the document and row it came from.
type RowError struct {
	Document string
	Row      int
	Err      error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%srow %d: %v", docPrefix(e.Document), e.Row, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

func (e *RowError) Is(target error) bool { return target == ErrData }

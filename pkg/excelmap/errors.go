package excelmap

import (
	"errors"
	"fmt"
)

var (
	// ErrHeaderRequired is returned when a sheet is created without any header source.
	ErrHeaderRequired = errors.New("excelmap: header list is required")
	// ErrInvalidTag is returned by Scan for malformed excel tags.
	ErrInvalidTag = errors.New("excelmap: invalid excel tag")
	// ErrInvalidSchema is returned for unusable row types and schema files.
	ErrInvalidSchema = errors.New("excelmap: invalid schema")
	// ErrSchemaRequired is returned by row writers that need tag metadata on a sheet
	// built from plain headers.
	ErrSchemaRequired = errors.New("excelmap: sheet has no schema")
	// ErrNoSheet is returned when rows are written before NewSheet.
	ErrNoSheet = errors.New("excelmap: no active sheet")
	// ErrDisposed is returned by sessions after Dispose.
	ErrDisposed = errors.New("excelmap: session disposed")

	// ErrResolution marks a value that could not be read from its row.
	ErrResolution = errors.New("value resolution failed")
	// ErrCoercion marks a value that could not be converted to a cell.
	ErrCoercion = errors.New("value coercion failed")
)

// IssueKind classifies a recovered cell failure.
type IssueKind int

const (
	ResolutionFailure IssueKind = iota + 1
	CoercionFailure
)

func (k IssueKind) String() string {
	switch k {
	case ResolutionFailure:
		return "resolution"
	case CoercionFailure:
		return "coercion"
	}
	return "unknown"
}

// CellError records a cell that was written with a degraded value.
type CellError struct {
	Sheet  string
	Row    int // 1-based worksheet row
	Column int // 1-based worksheet column
	Attr   string
	Kind   IssueKind
	Err    error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("%s!R%dC%d (%s): %s: %v", e.Sheet, e.Row, e.Column, e.Attr, e.Kind, e.Err)
}

func (e *CellError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match ErrResolution and ErrCoercion by kind.
func (e *CellError) Is(target error) bool {
	switch target {
	case ErrResolution:
		return e.Kind == ResolutionFailure
	case ErrCoercion:
		return e.Kind == CoercionFailure
	}
	return false
}

func tagError(member, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidTag, member, fmt.Sprintf(format, args...))
}

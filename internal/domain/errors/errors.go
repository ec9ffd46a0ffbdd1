package errors

import (
	"fmt"
	"strings"
)

// Kind discriminates the failure classes the engine is allowed to surface.
// Every error crossing the engine boundary carries exactly one Kind so the
// protocol adapter can forward it without re-wrapping.
type Kind string

const (
	KindFileNotFound         Kind = "file_not_found"
	KindNotATableFile        Kind = "not_a_table_file"
	KindCorruptMetadata      Kind = "corrupt_metadata"
	KindUnknownColumn        Kind = "unknown_column"
	KindFilterSyntax         Kind = "filter_syntax_error"
	KindUnsupportedOperator  Kind = "unsupported_operator"
	KindTypeMismatch         Kind = "type_mismatch"
	KindInvalidRowRange      Kind = "invalid_row_range"
	KindUnsupportedOperation Kind = "unsupported_operation"
	KindSizeBudgetExceeded   Kind = "size_budget_exceeded"
	KindCancelled            Kind = "cancelled"
	KindTimeout              Kind = "timeout"
	KindIOTransient          Kind = "io_error_transient"
)

// QueryError is the single error type returned across the engine boundary.
// Context fields are optional; only populated ones appear in the message.
type QueryError struct {
	Kind       Kind
	Message    string
	Path       string      // file the request was addressed to
	Column     string      // offending column, if any
	Value      interface{} // offending value or operator token, if any
	Suggestion string      // actionable follow-up for the caller
	Err        error       // wrapped cause, if any
}

func (e *QueryError) Error() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("[%s] %s", e.Kind, e.Message))

	if e.Path != "" {
		parts = append(parts, fmt.Sprintf("path=%s", e.Path))
	}

	if e.Column != "" {
		parts = append(parts, fmt.Sprintf("column=%s", e.Column))
	}

	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	if e.Suggestion != "" {
		parts = append(parts, e.Suggestion)
	}

	if e.Err != nil {
		parts = append(parts, fmt.Sprintf("cause: %v", e.Err))
	}

	return strings.Join(parts, " - ")
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// WithGroup attaches row-group context so a corrupt group names itself
// instead of being silently skipped.
func (e *QueryError) WithGroup(index int, column string) *QueryError {
	e.Column = column
	e.Message = fmt.Sprintf("%s (row group %d)", e.Message, index)
	return e
}

// IsKind reports whether err is a *QueryError of the given kind.
func IsKind(err error, kind Kind) bool {
	qe, ok := err.(*QueryError)
	return ok && qe.Kind == kind
}

func NewFileNotFound(path string, cause error) *QueryError {
	return &QueryError{
		Kind:    KindFileNotFound,
		Message: "file not found",
		Path:    path,
		Err:     cause,
	}
}

func NewNotATableFile(path string, cause error) *QueryError {
	return &QueryError{
		Kind:    KindNotATableFile,
		Message: "not a parquet table file",
		Path:    path,
		Err:     cause,
	}
}

func NewCorruptMetadata(path string, detail string, cause error) *QueryError {
	return &QueryError{
		Kind:    KindCorruptMetadata,
		Message: detail,
		Path:    path,
		Err:     cause,
	}
}

func NewUnknownColumn(column string, available []string) *QueryError {
	return &QueryError{
		Kind:       KindUnknownColumn,
		Message:    "column not found",
		Column:     column,
		Suggestion: fmt.Sprintf("available columns: %s", strings.Join(available, ", ")),
	}
}

func NewFilterSyntax(detail string, cause error) *QueryError {
	return &QueryError{
		Kind:       KindFilterSyntax,
		Message:    detail,
		Suggestion: "provide a valid JSON filter specification",
		Err:        cause,
	}
}

func NewUnsupportedOperator(op string, allowed []string) *QueryError {
	return &QueryError{
		Kind:       KindUnsupportedOperator,
		Message:    "unsupported filter operator",
		Value:      op,
		Suggestion: fmt.Sprintf("allowed operators: %s", strings.Join(allowed, ", ")),
	}
}

func NewTypeMismatch(column string, value interface{}, expected string) *QueryError {
	return &QueryError{
		Kind:    KindTypeMismatch,
		Message: fmt.Sprintf("literal not coercible to column type %s", expected),
		Column:  column,
		Value:   value,
	}
}

func NewInvalidRowRange(start, end, total int64) *QueryError {
	return &QueryError{
		Kind:       KindInvalidRowRange,
		Message:    fmt.Sprintf("invalid row range [%d, %d)", start, end),
		Suggestion: fmt.Sprintf("use 0 <= start < end, total rows available: %d", total),
	}
}

func NewUnsupportedOperation(detail string, column string, suggestion string) *QueryError {
	return &QueryError{
		Kind:       KindUnsupportedOperation,
		Message:    detail,
		Column:     column,
		Suggestion: suggestion,
	}
}

func NewCancelled() *QueryError {
	return &QueryError{Kind: KindCancelled, Message: "request cancelled"}
}

func NewTimeout() *QueryError {
	return &QueryError{Kind: KindTimeout, Message: "request deadline exceeded"}
}

func NewIOTransient(path string, cause error) *QueryError {
	return &QueryError{
		Kind:       KindIOTransient,
		Message:    "transient I/O failure",
		Path:       path,
		Suggestion: "the request is safe to retry",
		Err:        cause,
	}
}

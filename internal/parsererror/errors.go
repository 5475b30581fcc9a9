package parsererror

import "fmt"

// ParseError represents a field that could not be coerced during import
type ParseError struct {
	Parser string
	Field  string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: failed to parse %s='%s': %v",
		e.Parser, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError represents a caller contract violation, such as an import
// row missing a required field. It is always a hard failure.
type ValidationError struct {
	Source string
	Row    int
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s row %d: %s %s", e.Source, e.Row, e.Field, e.Reason)
	}
	return fmt.Sprintf("validation failed for %s: %s", e.Source, e.Reason)
}

// ResolutionError wraps a failed call to the external text extraction
// service. It is logged by the resolver and never returned past it.
type ResolutionError struct {
	Backend string
	Items   int
	Attempt int
	Err     error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolution failed for %d item(s) using %s (attempt %d): %v",
		e.Items, e.Backend, e.Attempt, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// StoreError reports that the backing store could not serve an operation.
type StoreError struct {
	Operation string
	Err       error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Operation, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// InvalidFormatError represents an input file that does not have the
// expected shape, for example a CSV file without the required columns.
type InvalidFormatError struct {
	FilePath             string
	ExpectedFormat       string
	ActualContentSnippet string // Optional: a snippet of the actual content for debugging
	Msg                  string
}

func (e *InvalidFormatError) Error() string {
	if e.ActualContentSnippet != "" {
		return fmt.Sprintf("invalid format in file '%s': %s. Expected: %s. Content snippet: '%s'",
			e.FilePath, e.Msg, e.ExpectedFormat, e.ActualContentSnippet)
	}
	return fmt.Sprintf("invalid format in file '%s': %s. Expected: %s",
		e.FilePath, e.Msg, e.ExpectedFormat)
}

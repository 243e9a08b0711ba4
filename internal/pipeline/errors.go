package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels matched through errors.Is by the typed errors below.
var (
	ErrValidation = errors.New("validation error")
	ErrResolution = errors.New("resolution error")
	ErrEncoding   = errors.New("encoding error")
	ErrType       = errors.New("type error")
)

// ValidationError reports required columns missing from a dataset or
// reference table.
type ValidationError struct {
	Source  string
	Columns []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: missing required columns: %s", e.Source, strings.Join(e.Columns, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ResolutionError reports a (country, year) pair absent from the reference table.
type ResolutionError struct {
	Row     int
	Column  string
	Country string
	Year    int
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("row %d: %s=%q has no reference value for year %d", e.Row, e.Column, e.Country, e.Year)
}

func (e *ResolutionError) Unwrap() error { return ErrResolution }

// EncodingError reports a categorical value outside its known domain.
type EncodingError struct {
	Row    int
	Column string
	Value  string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("row %d: %s has unknown category %q", e.Row, e.Column, e.Value)
}

func (e *EncodingError) Unwrap() error { return ErrEncoding }

// TypeError reports a value that cannot be coerced to the expected number type.
type TypeError struct {
	Row    int
	Column string
	Value  string
	Want   string
	Err    error
}

func (e *TypeError) Error() string {
	msg := fmt.Sprintf("row %d: %s=%q is not a valid %s", e.Row, e.Column, e.Value, e.Want)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TypeError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrType}
	}
	return []error{ErrType, e.Err}
}

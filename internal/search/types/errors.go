package types

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrInvalidSourceID   = errors.New("invalid source ID")
	ErrInvalidSourceName = errors.New("invalid source name")
	ErrInvalidAPIHost    = errors.New("invalid API host")

	// Request errors
	ErrEmptyQuery = errors.New("empty search query")

	// Source errors
	ErrSourceNotFound = errors.New("source not found")

	// Response errors
	ErrNoResults       = errors.New("no results found")
	ErrInvalidResponse = errors.New("invalid response from source")
)

// SourceError wraps backend-specific failures. Sources recover from
// these internally; the error only surfaces in logs.
type SourceError struct {
	Source  SourceID
	Code    string
	Message string
	Err     error
}

func (e *SourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Source, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Source, e.Code, e.Message)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

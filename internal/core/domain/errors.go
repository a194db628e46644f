package domain

import (
	"errors"
	"fmt"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrSessionNotFound indicates the session does not exist
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidCredentials indicates wrong username/password combination
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidProvider indicates an unknown embedding provider was specified
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrServiceUnavailable indicates a backing service could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrNoInput indicates neither text nor a file was supplied for ingestion
	ErrNoInput = errors.New("no input provided")

	// ErrExtractionFailed indicates a file could not be turned into text
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrUnsupportedFormat indicates the file suffix has no registered extractor.
	// It wraps ErrExtractionFailed.
	ErrUnsupportedFormat = fmt.Errorf("unsupported file type: %w", ErrExtractionFailed)

	// ErrEmbeddingFailed indicates the embedding provider call failed or returned no data
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrStoreUnavailable indicates a vector store call failed
	ErrStoreUnavailable = errors.New("vector store unavailable")
)

// PartialWriteError reports an ingestion where embedding succeeded but not
// every point reached the vector store. Points already written are kept.
type PartialWriteError struct {
	Stored int
	Total  int
	Err    error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("partial write: stored %d of %d points: %v", e.Stored, e.Total, e.Err)
}

// Unwrap always exposes ErrStoreUnavailable so callers can treat a partial
// write like any other store failure.
func (e *PartialWriteError) Unwrap() []error {
	return []error{ErrStoreUnavailable, e.Err}
}

// ValidationError carries per-field messages for rejected input.
// It matches ErrInvalidInput with errors.Is.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError creates an empty ValidationError
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add records a message for a field. The first message per field wins.
func (e *ValidationError) Add(field, msg string) {
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// HasErrors reports whether any field failed validation
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input: %d field(s) rejected", len(e.Fields))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

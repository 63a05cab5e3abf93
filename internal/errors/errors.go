// Package errors defines the tagged error taxonomy for Codegraph.
// Library functions return these so callers can branch on category:
// per-file failures keep an index run alive, per-operation store failures
// abort the batch, and malformed query filters are swallowed upstream.
package errors

import (
	"errors"
	"fmt"
)

// Category classifies an error for propagation policy.
type Category string

const (
	// CategoryNotFound: a requested hash, symbol, or module is absent.
	// Recoverable; usually surfaced as an empty result.
	CategoryNotFound Category = "not_found"

	// CategoryParse: source code could not be tokenized. Fatal for the
	// file, recoverable for the run.
	CategoryParse Category = "parse"

	// CategoryEmbedding: the model failed on a specific text. The chunk
	// is stored without an embedding and stays reachable via FTS.
	CategoryEmbedding Category = "embedding"

	// CategoryStore: underlying database failure. Fatal for the
	// operation; batched writes roll back as a whole.
	CategoryStore Category = "store"

	// CategoryConfig: malformed configuration or query filter.
	CategoryConfig Category = "config"

	// CategoryExternal: blame/git provider failure. Never fatal; the
	// affected location is stored without attribution.
	CategoryExternal Category = "external"
)

// Error is the structured error type used throughout the engine.
type Error struct {
	Category Category
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Category, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors by category, enabling errors.Is against sentinel
// category values created with New.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Category == t.Category && (t.Message == "" || t.Message == e.Message)
}

// New creates an error with the given category and message.
func New(category Category, message string) *Error {
	return &Error{Category: category, Message: message}
}

// Wrap creates an error with the given category wrapping a cause.
// Returns nil if cause is nil.
func Wrap(category Category, message string, cause error) *Error {
	if cause == nil {
		return nil
	}
	return &Error{Category: category, Message: message, Cause: cause}
}

// NotFound creates a not-found error for the named entity.
func NotFound(what string) *Error {
	return New(CategoryNotFound, what)
}

// Parsef creates a parse error with a formatted message.
func Parsef(format string, args ...any) *Error {
	return New(CategoryParse, fmt.Sprintf(format, args...))
}

// Embedding wraps an embedder failure.
func Embedding(message string, cause error) *Error {
	return &Error{Category: CategoryEmbedding, Message: message, Cause: cause}
}

// Store wraps a database failure.
func Store(message string, cause error) *Error {
	return &Error{Category: CategoryStore, Message: message, Cause: cause}
}

// Config creates a configuration error.
func Config(message string) *Error {
	return New(CategoryConfig, message)
}

// External wraps a blame/git provider failure.
func External(message string, cause error) *Error {
	return &Error{Category: CategoryExternal, Message: message, Cause: cause}
}

// CategoryOf extracts the category from an error chain. Returns the
// empty category for plain errors.
func CategoryOf(err error) Category {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return ""
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	return CategoryOf(err) == CategoryNotFound
}

/*
errors.go - Centralized error types for the ledger

PURPOSE:
  All error types in one place. Callers branch with errors.Is on the
  sentinels and use errors.As to reach the structured details.

ERROR CATEGORIES:
  1. Validation - malformed or out-of-range input, field level
  2. Authorization - caller does not own the zine or batch
  3. Not found - referenced id does not exist
  4. Transport - the backing store failed; surfaced as-is, never retried here

USAGE:
  b, err := l.CreateBatch(ctx, owner, zineID, storeID, fields)
  var verr *ledger.ValidationError
  if errors.As(err, &verr) {
      for _, f := range verr.Fields { ... }
  }

SEE ALSO:
  - api/handlers.go: maps categories to HTTP status codes
*/
package ledger

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("caller is not the owner")
	ErrNotFound     = errors.New("not found")

	// ErrTransport is returned when the backing store cannot be reached or
	// fails. The ledger never retries.
	ErrTransport = errors.New("store unavailable")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// FieldError describes one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationError lists every field that failed. Always recoverable by
// resubmitting corrected data.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Has reports whether field failed with code. An empty code matches any.
func (e *ValidationError) Has(field, code string) bool {
	for _, f := range e.Fields {
		if f.Field == field && (code == "" || f.Code == code) {
			return true
		}
	}
	return false
}

func (e *ValidationError) add(field, code, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Code: code, Message: message})
}

func (e *ValidationError) orNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

type AuthorizationError struct {
	Caller UserID
	Kind   string // "zine" or "batch"
	ID     string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("user %s does not own %s %s", e.Caller, e.Kind, e.ID)
}

func (e *AuthorizationError) Unwrap() error { return ErrUnauthorized }

type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// TransportError wraps a store failure with the operation that hit it.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() []error { return []error{ErrTransport, e.Err} }

func transport(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Op: op, Err: err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the caller can fix the request.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrUnauthorized)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRetryable returns true if retrying the same call might succeed.
// Retry policy belongs to the caller.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransport)
}

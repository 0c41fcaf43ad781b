package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTenant is returned when the caller did not supply a usable
	// tenant identifier. Every operation requires one; there is no default
	// or anonymous scope.
	ErrInvalidTenant = errors.New("tenant identifier is required")

	// ErrNotFound is returned when no opportunity matches the given
	// (opportunity, tenant) pair. A real opportunity owned by a different
	// tenant is reported identically, so existence never leaks across
	// tenants.
	ErrNotFound = errors.New("opportunity not found")

	// ErrPersistence wraps storage-layer failures. The ledger never retries.
	ErrPersistence = errors.New("storage failure")
)

// ValidationError reports a policy-violating input. Validation happens
// before any mutation, so a validation failure leaves the row unchanged.
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Detail)
}

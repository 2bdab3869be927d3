/*
errors.go - Centralized error types for the ledger core

PURPOSE:
  All error kinds in one place. Callers match with errors.Is against the
  sentinels; structured errors carry context and Unwrap to their sentinel.

ERROR CATEGORIES:
  1. Not found        - referenced day/sale does not exist
  2. Closed ledger    - mutation attempted on a closed day
  3. Conflict         - second concurrent open day for a business
  4. Invalid operation- malformed input, wrong-path reversal, privilege
  5. Reconciliation   - recomputed total diverges from the stored figure

PROPAGATION:
  The core returns typed errors to the caller and never produces UI text.
  The HTTP layer translates kinds into status codes and messages.

SEE ALSO:
  - service.go: Returns these errors
  - api/handlers.go: Maps them onto HTTP statuses
*/
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced LedgerDay, sale, or business
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrClosedLedger is returned when a mutation targets a closed day.
	ErrClosedLedger = errors.New("ledger day is closed")

	// ErrOpenDayExists is returned when opening a day would violate the
	// single-open-day-per-business invariant.
	ErrOpenDayExists = errors.New("an open ledger day already exists")

	// ErrInvalidOperation is returned for malformed input or an operation
	// attempted through the wrong path.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrPrivilege is returned when the acting identity lacks the role an
	// operation requires.
	ErrPrivilege = errors.New("elevated privilege required")

	// ErrReconciliation is returned by the repair tool when the recomputed
	// total diverges from the stored total beyond tolerance. Normal writes
	// never surface it.
	ErrReconciliation = errors.New("stored total diverges from recomputation")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ClosedLedgerError reports a rejected mutation against a closed day.
type ClosedLedgerError struct {
	DayID    LedgerDayID
	ClosedAt time.Time
}

func (e *ClosedLedgerError) Error() string {
	return fmt.Sprintf("ledger day %s closed at %s", e.DayID, e.ClosedAt.Format(time.RFC3339))
}

func (e *ClosedLedgerError) Unwrap() error { return ErrClosedLedger }

// OpenDayExistsError identifies the day blocking a new open day.
type OpenDayExistsError struct {
	BusinessID BusinessID
	DayID      LedgerDayID
}

func (e *OpenDayExistsError) Error() string {
	return fmt.Sprintf("business %s already has open ledger day %s", e.BusinessID, e.DayID)
}

func (e *OpenDayExistsError) Unwrap() error { return ErrOpenDayExists }

// InvalidOperationError explains why an operation was rejected.
type InvalidOperationError struct {
	Op     string
	Reason string
}

func (e *InvalidOperationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func (e *InvalidOperationError) Unwrap() error { return ErrInvalidOperation }

// ReconciliationError reports total drift found by the repair tool.
type ReconciliationError struct {
	DayID    LedgerDayID
	Stored   decimal.Decimal
	Computed decimal.Decimal
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("ledger day %s: stored total %s, recomputed %s",
		e.DayID, e.Stored.String(), e.Computed.String())
}

func (e *ReconciliationError) Unwrap() error { return ErrReconciliation }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input or
// state the caller can observe, as opposed to an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrClosedLedger) ||
		errors.Is(err, ErrOpenDayExists) ||
		errors.Is(err, ErrInvalidOperation) ||
		errors.Is(err, ErrPrivilege)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

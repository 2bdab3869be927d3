/*
Package ledger implements the daily cash register ledger.

PURPOSE:
  This package contains the types and algorithms for the per-day financial
  record of a retail business: one LedgerDay aggregates sales, debt-payment
  collections, and manual expenses, enforces an open/closed lifecycle, and
  keeps a single authoritative revenue figure for the day.

KEY CONCEPTS IN THIS FILE (types.go):
  - LedgerDay: The persisted daily cash record (identity, bounds, status, totals)
  - Sale: A point-of-sale transaction, possibly leaving a debt balance
  - DebtPayment: A client settling prior debt; revenue, but not a sale
  - Expense: A manual expenditure embedded in its LedgerDay
  - Business: The owning tenant, carrying the timezone for day boundaries

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Type Safety: Strong typing for IDs prevents mixing day/sale/client IDs
  3. Auditability: Sales are soft-voided, never deleted
  4. Single writer truth: totalSalesAmount is maintained incrementally at
     write time, with a pure recomputation as the repair-grade source

SEE ALSO:
  - boundary.go: Day boundary resolution in the tenant's timezone
  - aggregate.go: Normalized line items and revenue recomputation
  - service.go: Lifecycle controller and reversal handler
  - store.go: Persistence interfaces
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type BusinessID string
type LedgerDayID string
type SaleID string
type DebtPaymentID string
type ClientID string

// =============================================================================
// BUSINESS - Owning tenant
// =============================================================================

// Business is the tenant a ledger day belongs to. Timezone is the IANA
// identifier used to resolve day boundaries; it is explicit per tenant and
// never inferred from the host process.
type Business struct {
	ID        BusinessID
	Name      string
	Timezone  string
	CreatedAt time.Time
}

// =============================================================================
// LEDGER DAY - The daily cash record
// =============================================================================

type DayStatus string

const (
	StatusOpen   DayStatus = "open"
	StatusClosed DayStatus = "closed"
)

// LedgerDay is the per-day financial record. DayStart/DayEnd are absolute UTC
// instants resolved once at creation; Status only ever moves open -> closed.
type LedgerDay struct {
	ID         LedgerDayID
	BusinessID BusinessID
	DayStart   time.Time
	DayEnd     time.Time
	Status     DayStatus
	Expenses   []Expense

	// TotalSales is the authoritative revenue figure: collected sale amounts
	// plus debt-payment collections. Maintained incrementally at write time.
	TotalSales decimal.Decimal

	ClosedAt  *time.Time
	ClosedBy  string
	CreatedAt time.Time
}

// Open reports whether the day still accepts mutations.
func (d *LedgerDay) Open() bool { return d.Status == StatusOpen }

// Contains reports whether t falls inside [DayStart, DayEnd).
func (d *LedgerDay) Contains(t time.Time) bool {
	return !t.Before(d.DayStart) && t.Before(d.DayEnd.Add(time.Millisecond))
}

// =============================================================================
// SALE - Point-of-sale transaction
// =============================================================================

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
)

// ValidPaymentMethod reports whether m is one of the accepted methods.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentTransfer:
		return true
	}
	return false
}

type SaleItem struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Sale records one checkout. AmountPaid + AmountDebt = Total at creation.
// A reverted sale is excluded from aggregation but retained for audit.
type Sale struct {
	ID            SaleID
	LedgerDayID   LedgerDayID
	ClientID      ClientID // set when a debt balance is left outstanding
	CreatedAt     time.Time
	PaymentMethod PaymentMethod
	Items         []SaleItem
	Total         decimal.Decimal
	AmountPaid    decimal.Decimal
	AmountDebt    decimal.Decimal
	Reverted      bool
}

// =============================================================================
// DEBT PAYMENT - Client settling prior debt
// =============================================================================

// DebtPayment is a collection against previously extended credit. It counts
// toward TotalSales but is not a sale: it carries no items, and the sale
// reversal path must reject it.
type DebtPayment struct {
	ID          DebtPaymentID
	LedgerDayID LedgerDayID
	ClientID    ClientID
	Amount      decimal.Decimal
	At          time.Time
}

// =============================================================================
// EXPENSE - Manual expenditure, embedded in its day
// =============================================================================

// Expense has no identity outside its parent LedgerDay. Expenses are tracked
// separately from revenue and never touch TotalSales.
type Expense struct {
	Description       string
	Amount            decimal.Decimal
	IsSupplierPayment bool
}

// Validate enforces the expense shape: non-empty description, positive amount.
func (e Expense) Validate() error {
	if e.Description == "" {
		return &InvalidOperationError{Op: "record_expense", Reason: "expense description must not be empty"}
	}
	if !e.Amount.IsPositive() {
		return &InvalidOperationError{Op: "record_expense", Reason: "expense amount must be positive"}
	}
	return nil
}

// =============================================================================
// ACTOR - Authenticated identity at the operation boundary
// =============================================================================

type Role string

const (
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

// Actor is the authenticated caller identity, supplied by the excluded
// session layer. Closing a day and reverting a sale require RoleAdmin.
type Actor struct {
	ID   string
	Role Role
}

func (a Actor) Admin() bool { return a.Role == RoleAdmin }

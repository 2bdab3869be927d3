/*
store.go - Persistence interfaces for the ledger

PURPOSE:
  Defines the boundary between the domain logic and the database. Different
  implementations back it with SQLite or in-memory storage.

KEY INTERFACES:
  Store:   Day/sale/payment persistence and queries
  TxStore: Transactional operations (atomic multi-table writes)

ATOMICITY CONTRACT:
  Every mutating service operation runs inside TxStore.WithTx so that a child
  record (sale, payment, expense) and the day's incremental total commit as
  one unit. Readers tolerate running without the lock and always observe a
  committed snapshot.

SINGLE OPEN DAY:
  Implementations enforce at most one open LedgerDay per business at the
  data-access boundary (unique partial index in SQLite, an in-process check
  in the memory store), not as shared mutable state in the service.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - ledger/store/memory.go: In-memory for testing

SEE ALSO:
  - service.go: Higher-level operations using Store
*/
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STORE - Persistence boundary
// =============================================================================

// Store handles persistence of businesses, ledger days, sales, and debt
// payments. Sales are never deleted; reversal is a one-way flag flip.
type Store interface {
	// Businesses
	SaveBusiness(ctx context.Context, b Business) error
	GetBusiness(ctx context.Context, id BusinessID) (*Business, error)
	ListBusinesses(ctx context.Context) ([]Business, error)

	// Ledger days
	CreateDay(ctx context.Context, day LedgerDay) error
	GetDay(ctx context.Context, id LedgerDayID) (*LedgerDay, error)
	GetOpenDay(ctx context.Context, businessID BusinessID) (*LedgerDay, error)
	ListDays(ctx context.Context, businessID BusinessID) ([]LedgerDay, error)

	// UpdateDayTotal sets the incremental revenue figure.
	UpdateDayTotal(ctx context.Context, id LedgerDayID, total decimal.Decimal) error

	// UpdateDayExpenses replaces the embedded expense list.
	UpdateDayExpenses(ctx context.Context, id LedgerDayID, expenses []Expense) error

	// UpdateDayBounds rewrites the day's boundary instants (repair only).
	UpdateDayBounds(ctx context.Context, id LedgerDayID, start, end time.Time) error

	// CloseDay performs the one-way transition. Fails if already closed.
	CloseDay(ctx context.Context, id LedgerDayID, closedAt time.Time, closedBy string) error

	// Sales
	CreateSale(ctx context.Context, sale Sale) error
	GetSale(ctx context.Context, id SaleID) (*Sale, error)
	ListSales(ctx context.Context, dayID LedgerDayID) ([]Sale, error)

	// MarkSaleReverted flips the soft-void flag. Fails if already reverted.
	MarkSaleReverted(ctx context.Context, id SaleID) error

	// Debt payments
	CreateDebtPayment(ctx context.Context, p DebtPayment) error
	GetDebtPayment(ctx context.Context, id DebtPaymentID) (*DebtPayment, error)
	ListDebtPayments(ctx context.Context, dayID LedgerDayID) ([]DebtPayment, error)
}

// =============================================================================
// TRANSACTIONAL STORE - For atomic operations across multiple writes
// =============================================================================

// TxStore wraps Store with transaction support. Mutating service operations
// use this so partial failures never commit.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}

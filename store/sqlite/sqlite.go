/*
Package sqlite provides the SQLite-backed implementation of the ledger
storage interfaces.

PURPOSE:
  Implements ledger.Store and ledger.TxStore using SQLite. The same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  businesses:    Tenants with their timezone
  ledger_days:   The daily cash records (status, bounds, totals, expenses)
  sales:         Point-of-sale transactions (soft-voided, never deleted)
  debt_payments: Client debt collections

SINGLE OPEN DAY:
  A partial unique index on (business_id) WHERE status='open' enforces at
  most one open ledger day per business at the data-access boundary. The
  service never tracks "the current day" in memory.

CONCURRENCY:
  sync.RWMutex serializes writers; mutating service operations additionally
  run inside WithTx so a child record and the day's total commit atomically.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging): multiple readers don't
  block, a single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/ledger.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - ledger/store.go: Interface definitions
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/Jonnhyortega/controlia-software-sub001/ledger"
)

// Store implements ledger.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS businesses (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		timezone TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ledger_days (
		id TEXT PRIMARY KEY,
		business_id TEXT NOT NULL REFERENCES businesses(id),
		day_start TEXT NOT NULL,
		day_end TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'open',
		expenses_json TEXT NOT NULL DEFAULT '[]',
		total_sales TEXT NOT NULL DEFAULT '0',
		closed_at TEXT,
		closed_by TEXT,
		created_at TEXT NOT NULL
	);

	-- CRITICAL: at most one open ledger day per business.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_open_day_per_business
		ON ledger_days(business_id)
		WHERE status = 'open';

	CREATE INDEX IF NOT EXISTS idx_days_business_start
		ON ledger_days(business_id, day_start DESC);

	-- Sales are soft-voided via the reverted flag, never deleted.
	CREATE TABLE IF NOT EXISTS sales (
		id TEXT PRIMARY KEY,
		ledger_day_id TEXT NOT NULL REFERENCES ledger_days(id),
		client_id TEXT,
		created_at TEXT NOT NULL,
		payment_method TEXT NOT NULL,
		items_json TEXT NOT NULL DEFAULT '[]',
		total TEXT NOT NULL,
		amount_paid TEXT NOT NULL,
		amount_debt TEXT NOT NULL,
		reverted INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_sales_day
		ON sales(ledger_day_id, created_at);

	CREATE TABLE IF NOT EXISTS debt_payments (
		id TEXT PRIMARY KEY,
		ledger_day_id TEXT NOT NULL REFERENCES ledger_days(id),
		client_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_debt_payments_day
		ON debt_payments(ledger_day_id, at);
	`

	_, err := s.db.Exec(schema)
	return err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type querier interface {
	execer
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// BUSINESSES
// =============================================================================

func (s *Store) SaveBusiness(ctx context.Context, b ledger.Business) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveBusiness(ctx, s.db, b)
}

func saveBusiness(ctx context.Context, db execer, b ledger.Business) error {
	query := `
		INSERT INTO businesses (id, name, timezone, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			timezone = excluded.timezone
	`
	_, err := db.ExecContext(ctx, query,
		b.ID, b.Name, b.Timezone, b.CreatedAt.UTC().Format(time.RFC3339Nano))
	return err
}

func (s *Store) GetBusiness(ctx context.Context, id ledger.BusinessID) (*ledger.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getBusiness(ctx, s.db, id)
}

func getBusiness(ctx context.Context, db querier, id ledger.BusinessID) (*ledger.Business, error) {
	var b ledger.Business
	var createdAt string

	err := db.QueryRowContext(ctx,
		"SELECT id, name, timezone, created_at FROM businesses WHERE id = ?", id,
	).Scan(&b.ID, &b.Name, &b.Timezone, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	b.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &b, nil
}

func (s *Store) ListBusinesses(ctx context.Context) ([]ledger.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listBusinesses(ctx, s.db)
}

func listBusinesses(ctx context.Context, db querier) ([]ledger.Business, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT id, name, timezone, created_at FROM businesses ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Business
	for rows.Next() {
		var b ledger.Business
		var createdAt string
		if err := rows.Scan(&b.ID, &b.Name, &b.Timezone, &createdAt); err != nil {
			return nil, err
		}
		b.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, b)
	}
	return out, rows.Err()
}

// =============================================================================
// LEDGER DAYS
// =============================================================================

func (s *Store) CreateDay(ctx context.Context, day ledger.LedgerDay) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return createDay(ctx, s.db, day)
}

func createDay(ctx context.Context, db execer, day ledger.LedgerDay) error {
	expensesJSON, err := marshalExpenses(day.Expenses)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO ledger_days
		(id, business_id, day_start, day_end, status, expenses_json, total_sales, closed_at, closed_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = db.ExecContext(ctx, query,
		day.ID,
		day.BusinessID,
		day.DayStart.UTC().Format(time.RFC3339Nano),
		day.DayEnd.UTC().Format(time.RFC3339Nano),
		day.Status,
		expensesJSON,
		day.TotalSales.String(),
		nullTime(day.ClosedAt),
		nullString(day.ClosedBy),
		day.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return &ledger.OpenDayExistsError{BusinessID: day.BusinessID}
		}
		return fmt.Errorf("failed to create ledger day: %w", err)
	}
	return nil
}

const dayColumns = "id, business_id, day_start, day_end, status, expenses_json, total_sales, closed_at, closed_by, created_at"

func (s *Store) GetDay(ctx context.Context, id ledger.LedgerDayID) (*ledger.LedgerDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getDay(ctx, s.db, id)
}

func getDay(ctx context.Context, db querier, id ledger.LedgerDayID) (*ledger.LedgerDay, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+dayColumns+" FROM ledger_days WHERE id = ?", id)
	day, err := scanDay(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return day, nil
}

func (s *Store) GetOpenDay(ctx context.Context, businessID ledger.BusinessID) (*ledger.LedgerDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getOpenDay(ctx, s.db, businessID)
}

func getOpenDay(ctx context.Context, db querier, businessID ledger.BusinessID) (*ledger.LedgerDay, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+dayColumns+" FROM ledger_days WHERE business_id = ? AND status = 'open'", businessID)
	day, err := scanDay(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return day, nil
}

func (s *Store) ListDays(ctx context.Context, businessID ledger.BusinessID) ([]ledger.LedgerDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listDays(ctx, s.db, businessID)
}

func listDays(ctx context.Context, db querier, businessID ledger.BusinessID) ([]ledger.LedgerDay, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT "+dayColumns+" FROM ledger_days WHERE business_id = ? ORDER BY day_start DESC", businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.LedgerDay
	for rows.Next() {
		day, err := scanDay(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *day)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDay(row rowScanner) (*ledger.LedgerDay, error) {
	var (
		day          ledger.LedgerDay
		dayStart     string
		dayEnd       string
		expensesJSON string
		totalSales   string
		closedAt     sql.NullString
		closedBy     sql.NullString
		createdAt    string
	)

	err := row.Scan(&day.ID, &day.BusinessID, &dayStart, &dayEnd, &day.Status,
		&expensesJSON, &totalSales, &closedAt, &closedBy, &createdAt)
	if err != nil {
		return nil, err
	}

	day.DayStart, _ = time.Parse(time.RFC3339Nano, dayStart)
	day.DayEnd, _ = time.Parse(time.RFC3339Nano, dayEnd)
	day.TotalSales, _ = decimal.NewFromString(totalSales)
	day.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	day.ClosedBy = closedBy.String
	if closedAt.Valid {
		if t, err := time.Parse(time.RFC3339Nano, closedAt.String); err == nil {
			day.ClosedAt = &t
		}
	}

	var records []expenseRecord
	if err := json.Unmarshal([]byte(expensesJSON), &records); err != nil {
		return nil, fmt.Errorf("failed to decode expenses: %w", err)
	}
	day.Expenses = expensesFromRecords(records)

	return &day, nil
}

func (s *Store) UpdateDayTotal(ctx context.Context, id ledger.LedgerDayID, total decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateDayTotal(ctx, s.db, id, total)
}

func updateDayTotal(ctx context.Context, db execer, id ledger.LedgerDayID, total decimal.Decimal) error {
	res, err := db.ExecContext(ctx,
		"UPDATE ledger_days SET total_sales = ? WHERE id = ?", total.String(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) UpdateDayExpenses(ctx context.Context, id ledger.LedgerDayID, expenses []ledger.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateDayExpenses(ctx, s.db, id, expenses)
}

func updateDayExpenses(ctx context.Context, db execer, id ledger.LedgerDayID, expenses []ledger.Expense) error {
	expensesJSON, err := marshalExpenses(expenses)
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx,
		"UPDATE ledger_days SET expenses_json = ? WHERE id = ?", expensesJSON, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) UpdateDayBounds(ctx context.Context, id ledger.LedgerDayID, start, end time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateDayBounds(ctx, s.db, id, start, end)
}

func updateDayBounds(ctx context.Context, db execer, id ledger.LedgerDayID, start, end time.Time) error {
	res, err := db.ExecContext(ctx,
		"UPDATE ledger_days SET day_start = ?, day_end = ? WHERE id = ?",
		start.UTC().Format(time.RFC3339Nano), end.UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) CloseDay(ctx context.Context, id ledger.LedgerDayID, closedAt time.Time, closedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return closeDay(ctx, s.db, id, closedAt, closedBy)
}

func closeDay(ctx context.Context, db querier, id ledger.LedgerDayID, closedAt time.Time, closedBy string) error {
	res, err := db.ExecContext(ctx, `
		UPDATE ledger_days
		SET status = 'closed', closed_at = ?, closed_by = ?
		WHERE id = ? AND status = 'open'`,
		closedAt.UTC().Format(time.RFC3339Nano), closedBy, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either missing or already closed; disambiguate for the caller.
		existing, err := getDay(ctx, db, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return ledger.ErrNotFound
		}
		var at time.Time
		if existing.ClosedAt != nil {
			at = *existing.ClosedAt
		}
		return &ledger.ClosedLedgerError{DayID: id, ClosedAt: at}
	}
	return nil
}

// =============================================================================
// SALES
// =============================================================================

func (s *Store) CreateSale(ctx context.Context, sale ledger.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return createSale(ctx, s.db, sale)
}

func createSale(ctx context.Context, db execer, sale ledger.Sale) error {
	itemsJSON, err := json.Marshal(itemRecords(sale.Items))
	if err != nil {
		return fmt.Errorf("failed to encode sale items: %w", err)
	}

	query := `
		INSERT INTO sales
		(id, ledger_day_id, client_id, created_at, payment_method, items_json, total, amount_paid, amount_debt, reverted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = db.ExecContext(ctx, query,
		sale.ID,
		sale.LedgerDayID,
		nullString(string(sale.ClientID)),
		sale.CreatedAt.UTC().Format(time.RFC3339Nano),
		sale.PaymentMethod,
		string(itemsJSON),
		sale.Total.String(),
		sale.AmountPaid.String(),
		sale.AmountDebt.String(),
		boolToInt(sale.Reverted),
	)
	if err != nil {
		return fmt.Errorf("failed to create sale: %w", err)
	}
	return nil
}

const saleColumns = "id, ledger_day_id, client_id, created_at, payment_method, items_json, total, amount_paid, amount_debt, reverted"

func (s *Store) GetSale(ctx context.Context, id ledger.SaleID) (*ledger.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getSale(ctx, s.db, id)
}

func getSale(ctx context.Context, db querier, id ledger.SaleID) (*ledger.Sale, error) {
	row := db.QueryRowContext(ctx, "SELECT "+saleColumns+" FROM sales WHERE id = ?", id)
	sale, err := scanSale(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *Store) ListSales(ctx context.Context, dayID ledger.LedgerDayID) ([]ledger.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listSales(ctx, s.db, dayID)
}

func listSales(ctx context.Context, db querier, dayID ledger.LedgerDayID) ([]ledger.Sale, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT "+saleColumns+" FROM sales WHERE ledger_day_id = ? ORDER BY created_at ASC, rowid ASC", dayID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sale)
	}
	return out, rows.Err()
}

func scanSale(row rowScanner) (*ledger.Sale, error) {
	var (
		sale       ledger.Sale
		clientID   sql.NullString
		createdAt  string
		itemsJSON  string
		total      string
		amountPaid string
		amountDebt string
		reverted   int
	)

	err := row.Scan(&sale.ID, &sale.LedgerDayID, &clientID, &createdAt,
		&sale.PaymentMethod, &itemsJSON, &total, &amountPaid, &amountDebt, &reverted)
	if err != nil {
		return nil, err
	}

	sale.ClientID = ledger.ClientID(clientID.String)
	sale.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	sale.Total, _ = decimal.NewFromString(total)
	sale.AmountPaid, _ = decimal.NewFromString(amountPaid)
	sale.AmountDebt, _ = decimal.NewFromString(amountDebt)
	sale.Reverted = reverted != 0

	var records []saleItemRecord
	if err := json.Unmarshal([]byte(itemsJSON), &records); err != nil {
		return nil, fmt.Errorf("failed to decode sale items: %w", err)
	}
	sale.Items = itemsFromRecords(records)

	return &sale, nil
}

func (s *Store) MarkSaleReverted(ctx context.Context, id ledger.SaleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return markSaleReverted(ctx, s.db, id)
}

func markSaleReverted(ctx context.Context, db querier, id ledger.SaleID) error {
	res, err := db.ExecContext(ctx,
		"UPDATE sales SET reverted = 1 WHERE id = ? AND reverted = 0", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		existing, err := getSale(ctx, db, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return ledger.ErrNotFound
		}
		return &ledger.InvalidOperationError{Op: "revert_sale", Reason: "sale is already reverted"}
	}
	return nil
}

// =============================================================================
// DEBT PAYMENTS
// =============================================================================

func (s *Store) CreateDebtPayment(ctx context.Context, p ledger.DebtPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return createDebtPayment(ctx, s.db, p)
}

func createDebtPayment(ctx context.Context, db execer, p ledger.DebtPayment) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO debt_payments (id, ledger_day_id, client_id, amount, at)
		VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.LedgerDayID, p.ClientID, p.Amount.String(),
		p.At.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to create debt payment: %w", err)
	}
	return nil
}

func (s *Store) GetDebtPayment(ctx context.Context, id ledger.DebtPaymentID) (*ledger.DebtPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getDebtPayment(ctx, s.db, id)
}

func getDebtPayment(ctx context.Context, db querier, id ledger.DebtPaymentID) (*ledger.DebtPayment, error) {
	var (
		p      ledger.DebtPayment
		amount string
		at     string
	)
	err := db.QueryRowContext(ctx,
		"SELECT id, ledger_day_id, client_id, amount, at FROM debt_payments WHERE id = ?", id,
	).Scan(&p.ID, &p.LedgerDayID, &p.ClientID, &amount, &at)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.Amount, _ = decimal.NewFromString(amount)
	p.At, _ = time.Parse(time.RFC3339Nano, at)
	return &p, nil
}

func (s *Store) ListDebtPayments(ctx context.Context, dayID ledger.LedgerDayID) ([]ledger.DebtPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listDebtPayments(ctx, s.db, dayID)
}

func listDebtPayments(ctx context.Context, db querier, dayID ledger.LedgerDayID) ([]ledger.DebtPayment, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT id, ledger_day_id, client_id, amount, at FROM debt_payments WHERE ledger_day_id = ? ORDER BY at ASC, rowid ASC", dayID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.DebtPayment
	for rows.Next() {
		var (
			p      ledger.DebtPayment
			amount string
			at     string
		)
		if err := rows.Scan(&p.ID, &p.LedgerDayID, &p.ClientID, &amount, &at); err != nil {
			return nil, err
		}
		p.Amount, _ = decimal.NewFromString(amount)
		p.At, _ = time.Parse(time.RFC3339Nano, at)
		out = append(out, p)
	}
	return out, rows.Err()
}

// =============================================================================
// TRANSACTIONAL STORE (ledger.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store ledger.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// txStore routes the Store interface through an open *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) SaveBusiness(ctx context.Context, b ledger.Business) error {
	return saveBusiness(ctx, ts.tx, b)
}

func (ts *txStore) GetBusiness(ctx context.Context, id ledger.BusinessID) (*ledger.Business, error) {
	return getBusiness(ctx, ts.tx, id)
}

func (ts *txStore) ListBusinesses(ctx context.Context) ([]ledger.Business, error) {
	return listBusinesses(ctx, ts.tx)
}

func (ts *txStore) CreateDay(ctx context.Context, day ledger.LedgerDay) error {
	return createDay(ctx, ts.tx, day)
}

func (ts *txStore) GetDay(ctx context.Context, id ledger.LedgerDayID) (*ledger.LedgerDay, error) {
	return getDay(ctx, ts.tx, id)
}

func (ts *txStore) GetOpenDay(ctx context.Context, businessID ledger.BusinessID) (*ledger.LedgerDay, error) {
	return getOpenDay(ctx, ts.tx, businessID)
}

func (ts *txStore) ListDays(ctx context.Context, businessID ledger.BusinessID) ([]ledger.LedgerDay, error) {
	return listDays(ctx, ts.tx, businessID)
}

func (ts *txStore) UpdateDayTotal(ctx context.Context, id ledger.LedgerDayID, total decimal.Decimal) error {
	return updateDayTotal(ctx, ts.tx, id, total)
}

func (ts *txStore) UpdateDayExpenses(ctx context.Context, id ledger.LedgerDayID, expenses []ledger.Expense) error {
	return updateDayExpenses(ctx, ts.tx, id, expenses)
}

func (ts *txStore) UpdateDayBounds(ctx context.Context, id ledger.LedgerDayID, start, end time.Time) error {
	return updateDayBounds(ctx, ts.tx, id, start, end)
}

func (ts *txStore) CloseDay(ctx context.Context, id ledger.LedgerDayID, closedAt time.Time, closedBy string) error {
	return closeDay(ctx, ts.tx, id, closedAt, closedBy)
}

func (ts *txStore) CreateSale(ctx context.Context, sale ledger.Sale) error {
	return createSale(ctx, ts.tx, sale)
}

func (ts *txStore) GetSale(ctx context.Context, id ledger.SaleID) (*ledger.Sale, error) {
	return getSale(ctx, ts.tx, id)
}

func (ts *txStore) ListSales(ctx context.Context, dayID ledger.LedgerDayID) ([]ledger.Sale, error) {
	return listSales(ctx, ts.tx, dayID)
}

func (ts *txStore) MarkSaleReverted(ctx context.Context, id ledger.SaleID) error {
	return markSaleReverted(ctx, ts.tx, id)
}

func (ts *txStore) CreateDebtPayment(ctx context.Context, p ledger.DebtPayment) error {
	return createDebtPayment(ctx, ts.tx, p)
}

func (ts *txStore) GetDebtPayment(ctx context.Context, id ledger.DebtPaymentID) (*ledger.DebtPayment, error) {
	return getDebtPayment(ctx, ts.tx, id)
}

func (ts *txStore) ListDebtPayments(ctx context.Context, dayID ledger.LedgerDayID) ([]ledger.DebtPayment, error) {
	return listDebtPayments(ctx, ts.tx, dayID)
}

// =============================================================================
// ROW ENCODING HELPERS
// =============================================================================

// expenseRecord is the JSON shape of an embedded expense. Amounts travel as
// strings so no precision is lost through float encoding.
type expenseRecord struct {
	Description       string `json:"description"`
	Amount            string `json:"amount"`
	IsSupplierPayment bool   `json:"is_supplier_payment"`
}

func marshalExpenses(expenses []ledger.Expense) (string, error) {
	records := make([]expenseRecord, len(expenses))
	for i, e := range expenses {
		records[i] = expenseRecord{
			Description:       e.Description,
			Amount:            e.Amount.String(),
			IsSupplierPayment: e.IsSupplierPayment,
		}
	}
	b, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("failed to encode expenses: %w", err)
	}
	return string(b), nil
}

func expensesFromRecords(records []expenseRecord) []ledger.Expense {
	if len(records) == 0 {
		return nil
	}
	out := make([]ledger.Expense, len(records))
	for i, r := range records {
		amount, _ := decimal.NewFromString(r.Amount)
		out[i] = ledger.Expense{
			Description:       r.Description,
			Amount:            amount,
			IsSupplierPayment: r.IsSupplierPayment,
		}
	}
	return out
}

type saleItemRecord struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

func itemRecords(items []ledger.SaleItem) []saleItemRecord {
	out := make([]saleItemRecord, len(items))
	for i, it := range items {
		out[i] = saleItemRecord{Name: it.Name, Quantity: it.Quantity, UnitPrice: it.UnitPrice.String()}
	}
	return out
}

func itemsFromRecords(records []saleItemRecord) []ledger.SaleItem {
	if len(records) == 0 {
		return nil
	}
	out := make([]ledger.SaleItem, len(records))
	for i, r := range records {
		price, _ := decimal.NewFromString(r.UnitPrice)
		out[i] = ledger.SaleItem{Name: r.Name, Quantity: r.Quantity, UnitPrice: price}
	}
	return out
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

/*
service.go - Lifecycle controller and reversal handler

PURPOSE:
  The Service is the single entry point for mutating a ledger day. It gates
  every mutation on the open/closed state, keeps the day's running revenue
  total in step with its child records, and performs the one-way closing
  transition.

CONTROL FLOW:
  recordSale/recordDebtPayment
    -> load day, reject if closed or if "now" has moved past the day bounds
    -> persist child record + updated total in ONE transaction
  recordExpense
    -> load day, reject if closed; append to the embedded expense list
  closeDay
    -> merge final expenses, freeze total, status = closed (admin only)
  revertSale
    -> soft-void the sale, then RE-DERIVE the day total via the aggregation
       engine (never a blind subtraction)

CONCURRENCY:
  All mutations run inside TxStore.WithTx. The store serializes writers, so
  two concurrent sales cannot race on the incremental total and closeDay
  cannot interleave with an in-flight recordSale.

SEE ALSO:
  - aggregate.go: Pure recomputation backing reversal
  - boundary.go: Day bounds used by OpenDay
  - repair.go: Administrative reconciliation
*/
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// =============================================================================
// SERVICE
// =============================================================================

// Service implements the ledger operations over a transactional store.
type Service struct {
	store TxStore
	log   zerolog.Logger

	// now is injectable for tests.
	now func() time.Time
}

func NewService(store TxStore, log zerolog.Logger) *Service {
	return &Service{store: store, log: log, now: time.Now}
}

// WithClock overrides the time source. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// =============================================================================
// BUSINESSES
// =============================================================================

// CreateBusiness registers a tenant. The timezone must be a valid IANA
// identifier; it drives every day-boundary computation for this tenant.
func (s *Service) CreateBusiness(ctx context.Context, name, timezone string) (*Business, error) {
	if name == "" {
		return nil, &InvalidOperationError{Op: "create_business", Reason: "name must not be empty"}
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, &InvalidOperationError{Op: "create_business", Reason: "unknown timezone " + timezone}
	}

	b := Business{
		ID:        BusinessID(uuid.NewString()),
		Name:      name,
		Timezone:  timezone,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.SaveBusiness(ctx, b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Service) Business(ctx context.Context, id BusinessID) (*Business, error) {
	b, err := s.store.GetBusiness(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrNotFound
	}
	return b, nil
}

func (s *Service) Businesses(ctx context.Context) ([]Business, error) {
	return s.store.ListBusinesses(ctx)
}

// =============================================================================
// DAY LIFECYCLE
// =============================================================================

// OpenDay creates a new open ledger day for the business, with boundaries
// resolved from "now" in the tenant's timezone. Fails with ErrOpenDayExists
// if one is already open.
func (s *Service) OpenDay(ctx context.Context, businessID BusinessID) (*LedgerDay, error) {
	business, err := s.Business(ctx, businessID)
	if err != nil {
		return nil, err
	}

	var day *LedgerDay
	err = s.store.WithTx(ctx, func(tx Store) error {
		existing, err := tx.GetOpenDay(ctx, businessID)
		if err != nil {
			return err
		}
		if existing != nil {
			return &OpenDayExistsError{BusinessID: businessID, DayID: existing.ID}
		}

		bounds, err := Bounds(s.now(), business.Timezone)
		if err != nil {
			return err
		}

		d := LedgerDay{
			ID:         LedgerDayID(uuid.NewString()),
			BusinessID: businessID,
			DayStart:   bounds.Start,
			DayEnd:     bounds.End,
			Status:     StatusOpen,
			TotalSales: decimal.Zero,
			CreatedAt:  s.now().UTC(),
		}
		if err := tx.CreateDay(ctx, d); err != nil {
			return err
		}
		day = &d
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("business_id", string(businessID)).
		Str("day_id", string(day.ID)).
		Time("day_start", day.DayStart).
		Msg("ledger day opened")
	return day, nil
}

// EnsureOpenDay returns the business's open day, creating one when none
// exists. Used when the first sale of a new business day arrives.
func (s *Service) EnsureOpenDay(ctx context.Context, businessID BusinessID) (*LedgerDay, error) {
	day, err := s.store.GetOpenDay(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if day != nil {
		return day, nil
	}
	day, err = s.OpenDay(ctx, businessID)
	if err == nil {
		return day, nil
	}
	// Lost the race to a concurrent opener: the existing day wins.
	if errors.Is(err, ErrOpenDayExists) {
		return s.store.GetOpenDay(ctx, businessID)
	}
	return nil, err
}

// CloseDayInput carries the final adjustments merged at closing time.
type CloseDayInput struct {
	Expenses         []Expense
	SupplierPayments []Expense
}

// CloseDay performs the one-way open -> closed transition. The current
// aggregated total is frozen; any final expense and supplier-payment
// adjustments are merged first. Admin only.
func (s *Service) CloseDay(ctx context.Context, dayID LedgerDayID, input CloseDayInput, actor Actor) (*LedgerDay, error) {
	if !actor.Admin() {
		return nil, ErrPrivilege
	}
	for _, e := range input.Expenses {
		if err := e.Validate(); err != nil {
			return nil, err
		}
	}
	for _, e := range input.SupplierPayments {
		if err := e.Validate(); err != nil {
			return nil, err
		}
	}

	var closed *LedgerDay
	err := s.store.WithTx(ctx, func(tx Store) error {
		day, err := tx.GetDay(ctx, dayID)
		if err != nil {
			return err
		}
		if day == nil {
			return ErrNotFound
		}
		if !day.Open() {
			return &ClosedLedgerError{DayID: day.ID, ClosedAt: closedAtOf(day)}
		}

		expenses := day.Expenses
		expenses = append(expenses, input.Expenses...)
		for _, sp := range input.SupplierPayments {
			sp.IsSupplierPayment = true
			expenses = append(expenses, sp)
		}
		if len(input.Expenses) > 0 || len(input.SupplierPayments) > 0 {
			if err := tx.UpdateDayExpenses(ctx, dayID, expenses); err != nil {
				return err
			}
		}

		now := s.now().UTC()
		if err := tx.CloseDay(ctx, dayID, now, actor.ID); err != nil {
			return err
		}

		day.Expenses = expenses
		day.Status = StatusClosed
		day.ClosedAt = &now
		day.ClosedBy = actor.ID
		closed = day
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("day_id", string(dayID)).
		Str("closed_by", actor.ID).
		Str("total_sales", closed.TotalSales.String()).
		Msg("ledger day closed")
	return closed, nil
}

// =============================================================================
// SALES
// =============================================================================

// SaleInput is the creation request for a sale.
type SaleInput struct {
	PaymentMethod PaymentMethod
	Items         []SaleItem
	Total         decimal.Decimal
	AmountPaid    decimal.Decimal
	AmountDebt    decimal.Decimal
	ClientID      ClientID
}

func (in SaleInput) validate() error {
	if !ValidPaymentMethod(in.PaymentMethod) {
		return &InvalidOperationError{Op: "record_sale", Reason: "unknown payment method"}
	}
	if !in.Total.IsPositive() {
		return &InvalidOperationError{Op: "record_sale", Reason: "total must be positive"}
	}
	if in.AmountPaid.IsNegative() || in.AmountDebt.IsNegative() {
		return &InvalidOperationError{Op: "record_sale", Reason: "amounts must not be negative"}
	}
	if !in.AmountPaid.Add(in.AmountDebt).Equal(in.Total) {
		return &InvalidOperationError{Op: "record_sale", Reason: "amount_paid + amount_debt must equal total"}
	}
	if in.AmountDebt.IsPositive() && in.ClientID == "" {
		return &InvalidOperationError{Op: "record_sale", Reason: "client_id required when a debt balance is left"}
	}
	return nil
}

// RecordSale persists a sale against an open day and folds its collected
// amount into the day's running total, atomically.
func (s *Service) RecordSale(ctx context.Context, dayID LedgerDayID, input SaleInput) (*Sale, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	var sale *Sale
	err := s.store.WithTx(ctx, func(tx Store) error {
		day, err := tx.GetDay(ctx, dayID)
		if err != nil {
			return err
		}
		if day == nil {
			return ErrNotFound
		}
		if !day.Open() {
			return &ClosedLedgerError{DayID: day.ID, ClosedAt: closedAtOf(day)}
		}
		now := s.now().UTC()
		// Every sale timestamp must land inside the day's window. A day left
		// open past its end accepts nothing until it is closed.
		if !day.Contains(now) {
			return &InvalidOperationError{Op: "record_sale", Reason: "current instant falls outside the day bounds"}
		}

		sl := Sale{
			ID:            SaleID(uuid.NewString()),
			LedgerDayID:   dayID,
			ClientID:      input.ClientID,
			CreatedAt:     now,
			PaymentMethod: input.PaymentMethod,
			Items:         input.Items,
			Total:         input.Total,
			AmountPaid:    input.AmountPaid,
			AmountDebt:    input.AmountDebt,
		}
		if err := tx.CreateSale(ctx, sl); err != nil {
			return err
		}
		if err := tx.UpdateDayTotal(ctx, dayID, day.TotalSales.Add(sl.AmountPaid)); err != nil {
			return err
		}
		sale = &sl
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("day_id", string(dayID)).
		Str("sale_id", string(sale.ID)).
		Str("amount_paid", sale.AmountPaid.String()).
		Msg("sale recorded")
	return sale, nil
}

// =============================================================================
// DEBT PAYMENTS
// =============================================================================

// RecordDebtPayment persists a client's payment against prior debt. The
// amount counts toward the day's revenue but the record is not a sale.
func (s *Service) RecordDebtPayment(ctx context.Context, dayID LedgerDayID, clientID ClientID, amount decimal.Decimal) (*DebtPayment, error) {
	if clientID == "" {
		return nil, &InvalidOperationError{Op: "record_debt_payment", Reason: "client_id must not be empty"}
	}
	if !amount.IsPositive() {
		return nil, &InvalidOperationError{Op: "record_debt_payment", Reason: "amount must be positive"}
	}

	var payment *DebtPayment
	err := s.store.WithTx(ctx, func(tx Store) error {
		day, err := tx.GetDay(ctx, dayID)
		if err != nil {
			return err
		}
		if day == nil {
			return ErrNotFound
		}
		if !day.Open() {
			return &ClosedLedgerError{DayID: day.ID, ClosedAt: closedAtOf(day)}
		}
		now := s.now().UTC()
		if !day.Contains(now) {
			return &InvalidOperationError{Op: "record_debt_payment", Reason: "current instant falls outside the day bounds"}
		}

		p := DebtPayment{
			ID:          DebtPaymentID(uuid.NewString()),
			LedgerDayID: dayID,
			ClientID:    clientID,
			Amount:      amount,
			At:          now,
		}
		if err := tx.CreateDebtPayment(ctx, p); err != nil {
			return err
		}
		if err := tx.UpdateDayTotal(ctx, dayID, day.TotalSales.Add(amount)); err != nil {
			return err
		}
		payment = &p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("day_id", string(dayID)).
		Str("client_id", string(clientID)).
		Str("amount", amount.String()).
		Msg("debt payment recorded")
	return payment, nil
}

// =============================================================================
// EXPENSES
// =============================================================================

// RecordExpense appends a manual expense to an open day. Expenses are
// expenditures and never affect the revenue total.
func (s *Service) RecordExpense(ctx context.Context, dayID LedgerDayID, expense Expense) (*LedgerDay, error) {
	if err := expense.Validate(); err != nil {
		return nil, err
	}

	var updated *LedgerDay
	err := s.store.WithTx(ctx, func(tx Store) error {
		day, err := tx.GetDay(ctx, dayID)
		if err != nil {
			return err
		}
		if day == nil {
			return ErrNotFound
		}
		if !day.Open() {
			return &ClosedLedgerError{DayID: day.ID, ClosedAt: closedAtOf(day)}
		}

		expenses := append(day.Expenses, expense)
		if err := tx.UpdateDayExpenses(ctx, dayID, expenses); err != nil {
			return err
		}
		day.Expenses = expenses
		updated = day
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// =============================================================================
// REVERSAL HANDLER
// =============================================================================

// RevertSale soft-voids a sale and re-derives its day's revenue total via
// the aggregation engine. Allowed on open and closed days, but only for
// admins, since it mutates a frozen total after closing.
//
// Debt payments are never reverted through this path; they belong to the
// client-ledger flow.
func (s *Service) RevertSale(ctx context.Context, saleID SaleID, actor Actor) (*Sale, error) {
	if !actor.Admin() {
		return nil, ErrPrivilege
	}

	var reverted *Sale
	err := s.store.WithTx(ctx, func(tx Store) error {
		sale, err := tx.GetSale(ctx, saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			// A debt payment ID through the sale path is a misuse, not a 404.
			if p, err := tx.GetDebtPayment(ctx, DebtPaymentID(saleID)); err != nil {
				return err
			} else if p != nil {
				return &InvalidOperationError{Op: "revert_sale", Reason: "debt payments are reverted through the client ledger, not the sale path"}
			}
			return ErrNotFound
		}
		if sale.Reverted {
			return &InvalidOperationError{Op: "revert_sale", Reason: "sale is already reverted"}
		}

		if err := tx.MarkSaleReverted(ctx, saleID); err != nil {
			return err
		}

		// Recompute rather than subtract: partial payments and prior repairs
		// make blind arithmetic drift-prone.
		total, err := RecomputeTotal(ctx, tx, sale.LedgerDayID)
		if err != nil {
			return err
		}
		if err := tx.UpdateDayTotal(ctx, sale.LedgerDayID, total); err != nil {
			return err
		}

		sale.Reverted = true
		reverted = sale
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("sale_id", string(saleID)).
		Str("day_id", string(reverted.LedgerDayID)).
		Str("actor", actor.ID).
		Msg("sale reverted")
	return reverted, nil
}

// =============================================================================
// READ MODELS
// =============================================================================

// Day returns the day record with its aggregation for dashboard display.
func (s *Service) Day(ctx context.Context, dayID LedgerDayID) (*LedgerDay, *DayAggregate, error) {
	day, err := s.store.GetDay(ctx, dayID)
	if err != nil {
		return nil, nil, err
	}
	if day == nil {
		return nil, nil, ErrNotFound
	}
	agg, err := Aggregate(ctx, s.store, dayID)
	if err != nil {
		return nil, nil, err
	}
	return day, &agg, nil
}

// Days lists a business's ledger days, newest first.
func (s *Service) Days(ctx context.Context, businessID BusinessID) ([]LedgerDay, error) {
	return s.store.ListDays(ctx, businessID)
}

// OpenDayFor returns the business's currently open day, or ErrNotFound when
// no day is open.
func (s *Service) OpenDayFor(ctx context.Context, businessID BusinessID) (*LedgerDay, error) {
	if _, err := s.Business(ctx, businessID); err != nil {
		return nil, err
	}
	day, err := s.store.GetOpenDay(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if day == nil {
		return nil, ErrNotFound
	}
	return day, nil
}

func closedAtOf(day *LedgerDay) time.Time {
	if day.ClosedAt != nil {
		return *day.ClosedAt
	}
	return time.Time{}
}

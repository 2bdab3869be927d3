/*
aggregate.go - Aggregation engine for a ledger day

PURPOSE:
  Combines the non-reverted sales and the debt-payment collections of one
  ledger day into a normalized, display-ready line-item list and a single
  reconciled revenue figure.

  totalSales = Σ(sale.AmountPaid for non-reverted sales) + Σ(payment.Amount)

  A sale contributes what was actually collected, not its nominal total, when
  a debt balance was left outstanding.

TAGGED VARIANTS:
  Debt payments are not shape-shifted into fake sales. Each line item carries
  a Kind discriminant; debt-payment items are locked against the standard
  sale/expense removal paths.

PURITY:
  Aggregate has no side effects. The day's running total is updated
  incrementally at write time; the recomputation here is the source of truth
  for repair and reversal.

SEE ALSO:
  - service.go: Incremental total maintenance, reversal re-derivation
  - repair.go: Drift detection against the stored total
*/
package ledger

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// NORMALIZED LINE ITEMS
// =============================================================================

type LineItemKind string

const (
	KindSale        LineItemKind = "sale"
	KindDebtPayment LineItemKind = "debt_payment"
)

// LineItem is one row of the day's normalized activity list. Amount is the
// collected amount for both kinds.
type LineItem struct {
	Kind          LineItemKind
	ID            string
	At            time.Time
	PaymentMethod PaymentMethod // sales only
	Amount        decimal.Decimal
	Items         []SaleItem // sales only
	ClientID      ClientID   // debt payments, and debt-bearing sales
	Reverted      bool       // sales only; reverted rows are excluded

	// Locked marks rows that must not be edited or deleted through the
	// standard sale/expense paths (debt payments).
	Locked bool
}

// DayAggregate is the result of aggregating one ledger day.
type DayAggregate struct {
	LineItems  []LineItem
	TotalSales decimal.Decimal
}

// =============================================================================
// AGGREGATION
// =============================================================================

// Aggregate builds the normalized line-item list and revenue figure for a
// day. Reverted sales are excluded. Pure read; nothing is written.
//
// Ordering: most-recent-first by originating timestamp. On identical
// timestamps sales come before debt payments, each kind keeping its own
// insertion order.
func Aggregate(ctx context.Context, store Store, dayID LedgerDayID) (DayAggregate, error) {
	sales, err := store.ListSales(ctx, dayID)
	if err != nil {
		return DayAggregate{}, err
	}
	payments, err := store.ListDebtPayments(ctx, dayID)
	if err != nil {
		return DayAggregate{}, err
	}
	return aggregate(sales, payments), nil
}

// RecomputeTotal is the pure revenue recomputation used by reversal and the
// reconciliation tool.
func RecomputeTotal(ctx context.Context, store Store, dayID LedgerDayID) (decimal.Decimal, error) {
	agg, err := Aggregate(ctx, store, dayID)
	if err != nil {
		return decimal.Zero, err
	}
	return agg.TotalSales, nil
}

func aggregate(sales []Sale, payments []DebtPayment) DayAggregate {
	items := make([]LineItem, 0, len(sales)+len(payments))
	total := decimal.Zero

	for _, s := range sales {
		if s.Reverted {
			continue
		}
		items = append(items, LineItem{
			Kind:          KindSale,
			ID:            string(s.ID),
			At:            s.CreatedAt,
			PaymentMethod: s.PaymentMethod,
			Amount:        s.AmountPaid,
			Items:         s.Items,
			ClientID:      s.ClientID,
		})
		total = total.Add(s.AmountPaid)
	}

	for _, p := range payments {
		items = append(items, LineItem{
			Kind:     KindDebtPayment,
			ID:       string(p.ID),
			At:       p.At,
			Amount:   p.Amount,
			ClientID: p.ClientID,
			Locked:   true,
		})
		total = total.Add(p.Amount)
	}

	// Stable sort: most-recent-first. The slice is built sales-then-payments,
	// so equal timestamps list sales first, each kind in insertion order.
	sort.SliceStable(items, func(i, j int) bool { return items[i].At.After(items[j].At) })

	return DayAggregate{LineItems: items, TotalSales: total}
}

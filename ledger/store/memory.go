// Package store provides ledger.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Jonnhyortega/controlia-software-sub001/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu         sync.RWMutex
	businesses map[ledger.BusinessID]ledger.Business
	days       map[ledger.LedgerDayID]ledger.LedgerDay
	sales      map[ledger.SaleID]ledger.Sale
	payments   map[ledger.DebtPaymentID]ledger.DebtPayment

	// Insertion counters keep deterministic list order for ties.
	daySeq  map[ledger.LedgerDayID]int
	saleSeq map[ledger.SaleID]int
	paySeq  map[ledger.DebtPaymentID]int
	seq     int
}

func NewMemory() *Memory {
	return &Memory{
		businesses: make(map[ledger.BusinessID]ledger.Business),
		days:       make(map[ledger.LedgerDayID]ledger.LedgerDay),
		sales:      make(map[ledger.SaleID]ledger.Sale),
		payments:   make(map[ledger.DebtPaymentID]ledger.DebtPayment),
		daySeq:     make(map[ledger.LedgerDayID]int),
		saleSeq:    make(map[ledger.SaleID]int),
		paySeq:     make(map[ledger.DebtPaymentID]int),
	}
}

// =============================================================================
// BUSINESSES
// =============================================================================

func (m *Memory) SaveBusiness(_ context.Context, b ledger.Business) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.businesses[b.ID] = b
	return nil
}

func (m *Memory) GetBusiness(_ context.Context, id ledger.BusinessID) (*ledger.Business, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.businesses[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (m *Memory) ListBusinesses(_ context.Context) ([]ledger.Business, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ledger.Business, 0, len(m.businesses))
	for _, b := range m.businesses {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// =============================================================================
// LEDGER DAYS
// =============================================================================

func (m *Memory) CreateDay(_ context.Context, day ledger.LedgerDay) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Single-open-day invariant, mirrored from the SQLite partial index.
	if day.Status == ledger.StatusOpen {
		for _, d := range m.days {
			if d.BusinessID == day.BusinessID && d.Status == ledger.StatusOpen {
				return &ledger.OpenDayExistsError{BusinessID: day.BusinessID, DayID: d.ID}
			}
		}
	}

	day.Expenses = copyExpenses(day.Expenses)
	m.days[day.ID] = day
	m.seq++
	m.daySeq[day.ID] = m.seq
	return nil
}

func (m *Memory) GetDay(_ context.Context, id ledger.LedgerDayID) (*ledger.LedgerDay, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.days[id]
	if !ok {
		return nil, nil
	}
	d.Expenses = copyExpenses(d.Expenses)
	return &d, nil
}

func (m *Memory) GetOpenDay(_ context.Context, businessID ledger.BusinessID) (*ledger.LedgerDay, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.days {
		if d.BusinessID == businessID && d.Status == ledger.StatusOpen {
			d.Expenses = copyExpenses(d.Expenses)
			return &d, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListDays(_ context.Context, businessID ledger.BusinessID) ([]ledger.LedgerDay, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ledger.LedgerDay
	for _, d := range m.days {
		if d.BusinessID == businessID {
			d.Expenses = copyExpenses(d.Expenses)
			out = append(out, d)
		}
	}
	// Newest first.
	sort.Slice(out, func(i, j int) bool { return out[i].DayStart.After(out[j].DayStart) })
	return out, nil
}

func (m *Memory) UpdateDayTotal(_ context.Context, id ledger.LedgerDayID, total decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.days[id]
	if !ok {
		return ledger.ErrNotFound
	}
	d.TotalSales = total
	m.days[id] = d
	return nil
}

func (m *Memory) UpdateDayExpenses(_ context.Context, id ledger.LedgerDayID, expenses []ledger.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.days[id]
	if !ok {
		return ledger.ErrNotFound
	}
	d.Expenses = copyExpenses(expenses)
	m.days[id] = d
	return nil
}

func (m *Memory) UpdateDayBounds(_ context.Context, id ledger.LedgerDayID, start, end time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.days[id]
	if !ok {
		return ledger.ErrNotFound
	}
	d.DayStart = start
	d.DayEnd = end
	m.days[id] = d
	return nil
}

func (m *Memory) CloseDay(_ context.Context, id ledger.LedgerDayID, closedAt time.Time, closedBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.days[id]
	if !ok {
		return ledger.ErrNotFound
	}
	if d.Status == ledger.StatusClosed {
		return &ledger.ClosedLedgerError{DayID: d.ID, ClosedAt: derefTime(d.ClosedAt)}
	}
	d.Status = ledger.StatusClosed
	d.ClosedAt = &closedAt
	d.ClosedBy = closedBy
	m.days[id] = d
	return nil
}

// =============================================================================
// SALES
// =============================================================================

func (m *Memory) CreateSale(_ context.Context, sale ledger.Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sale.Items = copyItems(sale.Items)
	m.sales[sale.ID] = sale
	m.seq++
	m.saleSeq[sale.ID] = m.seq
	return nil
}

func (m *Memory) GetSale(_ context.Context, id ledger.SaleID) (*ledger.Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sales[id]
	if !ok {
		return nil, nil
	}
	s.Items = copyItems(s.Items)
	return &s, nil
}

func (m *Memory) ListSales(_ context.Context, dayID ledger.LedgerDayID) ([]ledger.Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ledger.Sale
	for _, s := range m.sales {
		if s.LedgerDayID == dayID {
			s.Items = copyItems(s.Items)
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return m.saleSeq[out[i].ID] < m.saleSeq[out[j].ID] })
	return out, nil
}

func (m *Memory) MarkSaleReverted(_ context.Context, id ledger.SaleID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sales[id]
	if !ok {
		return ledger.ErrNotFound
	}
	if s.Reverted {
		return &ledger.InvalidOperationError{Op: "revert_sale", Reason: "sale is already reverted"}
	}
	s.Reverted = true
	m.sales[id] = s
	return nil
}

// =============================================================================
// DEBT PAYMENTS
// =============================================================================

func (m *Memory) CreateDebtPayment(_ context.Context, p ledger.DebtPayment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[p.ID] = p
	m.seq++
	m.paySeq[p.ID] = m.seq
	return nil
}

func (m *Memory) GetDebtPayment(_ context.Context, id ledger.DebtPaymentID) (*ledger.DebtPayment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Memory) ListDebtPayments(_ context.Context, dayID ledger.LedgerDayID) ([]ledger.DebtPayment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ledger.DebtPayment
	for _, p := range m.payments {
		if p.LedgerDayID == dayID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return m.paySeq[out[i].ID] < m.paySeq[out[j].ID] })
	return out, nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support, simulated with a snapshot
// plus rollback on error.
type TxMemory struct {
	*Memory
	txMu sync.Mutex
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn with writer exclusivity; on error the pre-transaction
// state is restored.
func (tm *TxMemory) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	tm.txMu.Lock()
	defer tm.txMu.Unlock()

	snapshot := tm.snapshot()
	if err := fn(tm.Memory); err != nil {
		tm.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	businesses map[ledger.BusinessID]ledger.Business
	days       map[ledger.LedgerDayID]ledger.LedgerDay
	sales      map[ledger.SaleID]ledger.Sale
	payments   map[ledger.DebtPaymentID]ledger.DebtPayment
	daySeq     map[ledger.LedgerDayID]int
	saleSeq    map[ledger.SaleID]int
	paySeq     map[ledger.DebtPaymentID]int
	seq        int
}

func (tm *TxMemory) snapshot() memorySnapshot {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	s := memorySnapshot{
		businesses: make(map[ledger.BusinessID]ledger.Business, len(tm.businesses)),
		days:       make(map[ledger.LedgerDayID]ledger.LedgerDay, len(tm.days)),
		sales:      make(map[ledger.SaleID]ledger.Sale, len(tm.sales)),
		payments:   make(map[ledger.DebtPaymentID]ledger.DebtPayment, len(tm.payments)),
		daySeq:     make(map[ledger.LedgerDayID]int, len(tm.daySeq)),
		saleSeq:    make(map[ledger.SaleID]int, len(tm.saleSeq)),
		paySeq:     make(map[ledger.DebtPaymentID]int, len(tm.paySeq)),
		seq:        tm.seq,
	}
	for k, v := range tm.businesses {
		s.businesses[k] = v
	}
	for k, v := range tm.days {
		v.Expenses = copyExpenses(v.Expenses)
		s.days[k] = v
	}
	for k, v := range tm.sales {
		v.Items = copyItems(v.Items)
		s.sales[k] = v
	}
	for k, v := range tm.payments {
		s.payments[k] = v
	}
	for k, v := range tm.daySeq {
		s.daySeq[k] = v
	}
	for k, v := range tm.saleSeq {
		s.saleSeq[k] = v
	}
	for k, v := range tm.paySeq {
		s.paySeq[k] = v
	}
	return s
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.businesses = s.businesses
	tm.days = s.days
	tm.sales = s.sales
	tm.payments = s.payments
	tm.daySeq = s.daySeq
	tm.saleSeq = s.saleSeq
	tm.paySeq = s.paySeq
	tm.seq = s.seq
}

// =============================================================================
// HELPERS
// =============================================================================

func copyExpenses(in []ledger.Expense) []ledger.Expense {
	if in == nil {
		return nil
	}
	out := make([]ledger.Expense, len(in))
	copy(out, in)
	return out
}

func copyItems(in []ledger.SaleItem) []ledger.SaleItem {
	if in == nil {
		return nil
	}
	out := make([]ledger.SaleItem, len(in))
	copy(out, in)
	return out
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

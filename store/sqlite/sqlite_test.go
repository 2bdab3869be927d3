package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jonnhyortega/controlia-software-sub001/ledger"
	"github.com/Jonnhyortega/controlia-software-sub001/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedBusiness(t *testing.T, store *sqlite.Store) ledger.Business {
	t.Helper()
	b := ledger.Business{
		ID:        "biz-1",
		Name:      "Kiosco San Martín",
		Timezone:  "America/Argentina/Buenos_Aires",
		CreatedAt: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.SaveBusiness(context.Background(), b))
	return b
}

func seedDay(t *testing.T, store *sqlite.Store, id ledger.LedgerDayID, status ledger.DayStatus) ledger.LedgerDay {
	t.Helper()
	day := ledger.LedgerDay{
		ID:         id,
		BusinessID: "biz-1",
		DayStart:   time.Date(2024, time.March, 1, 3, 0, 0, 0, time.UTC),
		DayEnd:     time.Date(2024, time.March, 2, 2, 59, 59, 999000000, time.UTC),
		Status:     status,
		TotalSales: decimal.Zero,
		CreatedAt:  time.Date(2024, time.March, 1, 11, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.CreateDay(context.Background(), day))
	return day
}

// =============================================================================
// BUSINESS TESTS
// =============================================================================

func TestSaveBusiness_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	seeded := seedBusiness(t, store)

	got, err := store.GetBusiness(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, seeded.Name, got.Name)
	assert.Equal(t, seeded.Timezone, got.Timezone)
	assert.True(t, seeded.CreatedAt.Equal(got.CreatedAt))
}

func TestSaveBusiness_UpsertKeepsCreatedAt(t *testing.T) {
	store := newTestStore(t)
	seeded := seedBusiness(t, store)
	ctx := context.Background()

	seeded.Name = "Kiosco Renombrado"
	seeded.CreatedAt = time.Now()
	require.NoError(t, store.SaveBusiness(ctx, seeded))

	got, err := store.GetBusiness(ctx, seeded.ID)
	require.NoError(t, err)

	assert.Equal(t, "Kiosco Renombrado", got.Name)
}

func TestGetBusiness_MissingReturnsNil(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetBusiness(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

// =============================================================================
// LEDGER DAY TESTS
// =============================================================================

func TestCreateDay_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	seedBusiness(t, store)
	ctx := context.Background()

	day := ledger.LedgerDay{
		ID:         "day-1",
		BusinessID: "biz-1",
		DayStart:   time.Date(2024, time.March, 1, 3, 0, 0, 0, time.UTC),
		DayEnd:     time.Date(2024, time.March, 2, 2, 59, 59, 999000000, time.UTC),
		Status:     ledger.StatusOpen,
		Expenses: []ledger.Expense{
			{Description: "hielo", Amount: decimal.NewFromFloat(12.50)},
			{Description: "distribuidora", Amount: decimal.NewFromFloat(300), IsSupplierPayment: true},
		},
		TotalSales: decimal.NewFromFloat(150.75),
		CreatedAt:  time.Date(2024, time.March, 1, 11, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.CreateDay(ctx, day))

	got, err := store.GetDay(ctx, day.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.True(t, day.DayStart.Equal(got.DayStart))
	assert.True(t, day.DayEnd.Equal(got.DayEnd))
	assert.Equal(t, ledger.StatusOpen, got.Status)
	assert.True(t, got.TotalSales.Equal(decimal.NewFromFloat(150.75)),
		"decimal total must survive the round trip exactly")
	assert.Nil(t, got.ClosedAt)

	require.Len(t, got.Expenses, 2)
	assert.Equal(t, "hielo", got.Expenses[0].Description)
	assert.True(t, got.Expenses[0].Amount.Equal(decimal.NewFromFloat(12.50)))
	assert.True(t, got.Expenses[1].IsSupplierPayment)
}

func TestCreateDay_SecondOpenDayRejected(t *testing.T) {
	// The partial unique index enforces at most one open day per business.
	store := newTestStore(t)
	seedBusiness(t, store)
	seedDay(t, store, "day-1", ledger.StatusOpen)

	err := store.CreateDay(context.Background(), ledger.LedgerDay{
		ID:         "day-2",
		BusinessID: "biz-1",
		DayStart:   time.Date(2024, time.March, 2, 3, 0, 0, 0, time.UTC),
		DayEnd:     time.Date(2024, time.March, 3, 2, 59, 59, 999000000, time.UTC),
		Status:     ledger.StatusOpen,
		TotalSales: decimal.Zero,
		CreatedAt:  time.Now(),
	})

	assert.ErrorIs(t, err, ledger.ErrOpenDayExists)
}

func TestCreateDay_ClosedDaysUnlimited(t *testing.T) {
	store := newTestStore(t)
	seedBusiness(t, store)
	seedDay(t, store, "day-1", ledger.StatusClosed)
	ctx := context.Background()

	err := store.CreateDay(ctx, ledger.LedgerDay{
		ID:         "day-2",
		BusinessID: "biz-1",
		DayStart:   time.Date(2024, time.March, 2, 3, 0, 0, 0, time.UTC),
		DayEnd:     time.Date(2024, time.March, 3, 2, 59, 59, 999000000, time.UTC),
		Status:     ledger.StatusClosed,
		TotalSales: decimal.Zero,
		CreatedAt:  time.Now(),
	})
	assert.NoError(t, err)
}

func TestGetOpenDay(t *testing.T) {
	store := newTestStore(t)
	seedBusiness(t, store)
	ctx := context.Background()

	got, err := store.GetOpenDay(ctx, "biz-1")
	require.NoError(t, err)
	assert.Nil(t, got, "no open day yet")

	day := seedDay(t, store, "day-1", ledger.StatusOpen)

	got, err = store.GetOpenDay(ctx, "biz-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, day.ID, got.ID)
}

func TestListDays_NewestFirst(t *testing.T) {
	store := newTestStore(t)
	seedBusiness(t, store)
	ctx := context.Background()

	older := seedDay(t, store, "day-old", ledger.StatusClosed)
	newer := ledger.LedgerDay{
		ID:         "day-new",
		BusinessID: "biz-1",
		DayStart:   older.DayStart.Add(24 * time.Hour),
		DayEnd:     older.DayEnd.Add(24 * time.Hour),
		Status:     ledger.StatusOpen,
		TotalSales: decimal.Zero,
		CreatedAt:  time.Now(),
	}
	require.NoError(t, store.CreateDay(ctx, newer))

	days, err := store.ListDays(ctx, "biz-1")
	require.NoError(t, err)

	require.Len(t, days, 2)
	assert.Equal(t, newer.ID, days[0].ID)
	assert.Equal(t, older.ID, days[1].ID)
}

func TestCloseDay_Transitions(t *testing.T) {
	store := newTestStore(t)
	seedBusiness(t, store)
	day := seedDay(t, store, "day-1", ledger.StatusOpen)
	ctx := context.Background()

	closedAt := time.Date(2024, time.March, 1, 23, 0, 0, 0, time.UTC)
	require.NoError(t, store.CloseDay(ctx, day.ID, closedAt, "admin-1"))

	got, err := store.GetDay(ctx, day.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusClosed, got.Status)
	assert.Equal(t, "admin-1", got.ClosedBy)
	require.NotNil(t, got.ClosedAt)
	assert.True(t, closedAt.Equal(*got.ClosedAt))

	// Second close reports the closed state, not a silent no-op.
	err = store.CloseDay(ctx, day.ID, time.Now(), "admin-1")
	assert.ErrorIs(t, err, ledger.ErrClosedLedger)
	var closedErr *ledger.ClosedLedgerError
	require.ErrorAs(t, err, &closedErr)
	assert.True(t, closedAt.Equal(closedErr.ClosedAt))
}

func TestCloseDay_Missing(t *testing.T) {
	store := newTestStore(t)
	seedBusiness(t, store)

	err := store.CloseDay(context.Background(), "missing", time.Now(), "admin-1")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestUpdateDayBounds(t *testing.T) {
	store := newTestStore(t)
	seedBusiness(t, store)
	day := seedDay(t, store, "day-1", ledger.StatusClosed)
	ctx := context.Background()

	newStart := time.Date(2024, time.March, 1, 3, 0, 0, 0, time.UTC)
	newEnd := time.Date(2024, time.March, 2, 2, 59, 59, 999000000, time.UTC)
	require.NoError(t, store.UpdateDayBounds(ctx, day.ID, newStart, newEnd))

	got, err := store.GetDay(ctx, day.ID)
	require.NoError(t, err)
	assert.True(t, newStart.Equal(got.DayStart))
	assert.True(t, newEnd.Equal(got.DayEnd))

	err = store.UpdateDayBounds(ctx, "missing", newStart, newEnd)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

// =============================================================================
// SALE TESTS
// =============================================================================

func TestCreateSale_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	seedBusiness(t, store)
	seedDay(t, store, "day-1", ledger.StatusOpen)
	ctx := context.Background()

	sale := ledger.Sale{
		ID:            "sale-1",
		LedgerDayID:   "day-1",
		ClientID:      "client-9",
		CreatedAt:     time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC),
		PaymentMethod: ledger.PaymentCard,
		Items: []ledger.SaleItem{
			{Name: "gaseosa", Quantity: 2, UnitPrice: decimal.NewFromFloat(15.25)},
		},
		Total:      decimal.NewFromFloat(100),
		AmountPaid: decimal.NewFromFloat(30),
		AmountDebt: decimal.NewFromFloat(70),
	}
	require.NoError(t, store.CreateSale(ctx, sale))

	got, err := store.GetSale(ctx, sale.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, ledger.PaymentCard, got.PaymentMethod)
	assert.Equal(t, ledger.ClientID("client-9"), got.ClientID)
	assert.True(t, got.AmountPaid.Equal(decimal.NewFromFloat(30)))
	assert.True(t, got.AmountDebt.Equal(decimal.NewFromFloat(70)))
	assert.False(t, got.Reverted)

	require.Len(t, got.Items, 1)
	assert.Equal(t, "gaseosa", got.Items[0].Name)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.True(t, got.Items[0].UnitPrice.Equal(decimal.NewFromFloat(15.25)))
}

func TestCreateSale_NoClient(t *testing.T) {
	store := newTestStore(t)
	seedBusiness(t, store)
	seedDay(t, store, "day-1", ledger.StatusOpen)
	ctx := context.Background()

	sale := ledger.Sale{
		ID:            "sale-1",
		LedgerDayID:   "day-1",
		CreatedAt:     time.Now(),
		PaymentMethod: ledger.PaymentCash,
		Total:         decimal.NewFromFloat(10),
		AmountPaid:    decimal.NewFromFloat(10),
		AmountDebt:    decimal.Zero,
	}
	require.NoError(t, store.CreateSale(ctx, sale))

	got, err := store.GetSale(ctx, sale.ID)
	require.NoError(t, err)
	assert.Empty(t, got.ClientID)
}

func TestMarkSaleReverted(t *testing.T) {
	store := newTestStore(t)
	seedBusiness(t, store)
	seedDay(t, store, "day-1", ledger.StatusOpen)
	ctx := context.Background()

	require.NoError(t, store.CreateSale(ctx, ledger.Sale{
		ID: "sale-1", LedgerDayID: "day-1", CreatedAt: time.Now(),
		PaymentMethod: ledger.PaymentCash,
		Total:         decimal.NewFromFloat(10),
		AmountPaid:    decimal.NewFromFloat(10),
		AmountDebt:    decimal.Zero,
	}))

	require.NoError(t, store.MarkSaleReverted(ctx, "sale-1"))

	got, err := store.GetSale(ctx, "sale-1")
	require.NoError(t, err)
	assert.True(t, got.Reverted)

	err = store.MarkSaleReverted(ctx, "sale-1")
	assert.ErrorIs(t, err, ledger.ErrInvalidOperation)

	err = store.MarkSaleReverted(ctx, "missing")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

// =============================================================================
// DEBT PAYMENT TESTS
// =============================================================================

func TestDebtPayment_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	seedBusiness(t, store)
	seedDay(t, store, "day-1", ledger.StatusOpen)
	ctx := context.Background()

	p := ledger.DebtPayment{
		ID:          "pay-1",
		LedgerDayID: "day-1",
		ClientID:    "client-9",
		Amount:      decimal.NewFromFloat(70.50),
		At:          time.Date(2024, time.March, 1, 14, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.CreateDebtPayment(ctx, p))

	got, err := store.GetDebtPayment(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, ledger.ClientID("client-9"), got.ClientID)
	assert.True(t, got.Amount.Equal(decimal.NewFromFloat(70.50)))

	payments, err := store.ListDebtPayments(ctx, "day-1")
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}

// =============================================================================
// TRANSACTION TESTS
// =============================================================================

func TestWithTx_RollsBackOnError(t *testing.T) {
	// GIVEN: A transaction that inserts a sale and bumps the total
	// WHEN: The function returns an error before commit
	// THEN: Neither write is visible afterward

	store := newTestStore(t)
	seedBusiness(t, store)
	seedDay(t, store, "day-1", ledger.StatusOpen)
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(tx ledger.Store) error {
		if err := tx.CreateSale(ctx, ledger.Sale{
			ID: "sale-1", LedgerDayID: "day-1", CreatedAt: time.Now(),
			PaymentMethod: ledger.PaymentCash,
			Total:         decimal.NewFromFloat(10),
			AmountPaid:    decimal.NewFromFloat(10),
			AmountDebt:    decimal.Zero,
		}); err != nil {
			return err
		}
		if err := tx.UpdateDayTotal(ctx, "day-1", decimal.NewFromFloat(10)); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	sale, err := store.GetSale(ctx, "sale-1")
	require.NoError(t, err)
	assert.Nil(t, sale, "sale must be rolled back")

	day, err := store.GetDay(ctx, "day-1")
	require.NoError(t, err)
	assert.True(t, day.TotalSales.IsZero(), "total must be rolled back")
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	store := newTestStore(t)
	seedBusiness(t, store)
	seedDay(t, store, "day-1", ledger.StatusOpen)
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx ledger.Store) error {
		if err := tx.CreateSale(ctx, ledger.Sale{
			ID: "sale-1", LedgerDayID: "day-1", CreatedAt: time.Now(),
			PaymentMethod: ledger.PaymentCash,
			Total:         decimal.NewFromFloat(10),
			AmountPaid:    decimal.NewFromFloat(10),
			AmountDebt:    decimal.Zero,
		}); err != nil {
			return err
		}
		return tx.UpdateDayTotal(ctx, "day-1", decimal.NewFromFloat(10))
	})
	require.NoError(t, err)

	day, err := store.GetDay(ctx, "day-1")
	require.NoError(t, err)
	assert.True(t, day.TotalSales.Equal(decimal.NewFromFloat(10)))
}

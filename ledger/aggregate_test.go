package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jonnhyortega/controlia-software-sub001/ledger"
	"github.com/Jonnhyortega/controlia-software-sub001/ledger/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newAggregateDay(t *testing.T) (*store.Memory, ledger.LedgerDayID) {
	t.Helper()
	mem := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, mem.SaveBusiness(ctx, ledger.Business{ID: "biz-1", Name: "Kiosco", Timezone: "UTC"}))
	day := ledger.LedgerDay{
		ID:         "day-1",
		BusinessID: "biz-1",
		DayStart:   time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		DayEnd:     time.Date(2024, time.March, 1, 23, 59, 59, 999000000, time.UTC),
		Status:     ledger.StatusOpen,
		TotalSales: decimal.Zero,
	}
	require.NoError(t, mem.CreateDay(ctx, day))
	return mem, day.ID
}

func saleAt(id string, at time.Time, paid, debt float64) ledger.Sale {
	p := decimal.NewFromFloat(paid)
	d := decimal.NewFromFloat(debt)
	return ledger.Sale{
		ID:            ledger.SaleID(id),
		LedgerDayID:   "day-1",
		CreatedAt:     at,
		PaymentMethod: ledger.PaymentCash,
		Total:         p.Add(d),
		AmountPaid:    p,
		AmountDebt:    d,
	}
}

// =============================================================================
// AGGREGATION TESTS
// =============================================================================

func TestAggregate_SumsCollectedAmounts(t *testing.T) {
	// GIVEN: Two sales, one leaving a debt balance, plus a debt payment
	// WHEN: Aggregating the day
	// THEN: Revenue is collected amounts only, debt excluded

	mem, dayID := newAggregateDay(t)
	ctx := context.Background()

	base := time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, mem.CreateSale(ctx, saleAt("sale-1", base, 100, 0)))
	require.NoError(t, mem.CreateSale(ctx, saleAt("sale-2", base.Add(time.Hour), 30, 70)))
	require.NoError(t, mem.CreateDebtPayment(ctx, ledger.DebtPayment{
		ID: "pay-1", LedgerDayID: dayID, ClientID: "client-9",
		Amount: decimal.NewFromFloat(50), At: base.Add(2 * time.Hour),
	}))

	agg, err := ledger.Aggregate(ctx, mem, dayID)
	require.NoError(t, err)

	assert.True(t, agg.TotalSales.Equal(decimal.NewFromFloat(180)),
		"100 + 30 collected + 50 debt payment, got %s", agg.TotalSales)
	assert.Len(t, agg.LineItems, 3)
}

func TestAggregate_ExcludesRevertedSales(t *testing.T) {
	mem, dayID := newAggregateDay(t)
	ctx := context.Background()

	base := time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, mem.CreateSale(ctx, saleAt("sale-1", base, 100, 0)))
	require.NoError(t, mem.CreateSale(ctx, saleAt("sale-2", base.Add(time.Hour), 40, 0)))
	require.NoError(t, mem.MarkSaleReverted(ctx, "sale-1"))

	agg, err := ledger.Aggregate(ctx, mem, dayID)
	require.NoError(t, err)

	assert.True(t, agg.TotalSales.Equal(decimal.NewFromFloat(40)))
	require.Len(t, agg.LineItems, 1)
	assert.Equal(t, "sale-2", agg.LineItems[0].ID)
}

func TestAggregate_DebtPaymentsAreTaggedAndLocked(t *testing.T) {
	// Debt payments keep their own kind; they are never disguised as sales.
	mem, dayID := newAggregateDay(t)
	ctx := context.Background()

	require.NoError(t, mem.CreateDebtPayment(ctx, ledger.DebtPayment{
		ID: "pay-1", LedgerDayID: dayID, ClientID: "client-9",
		Amount: decimal.NewFromFloat(25), At: time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC),
	}))

	agg, err := ledger.Aggregate(ctx, mem, dayID)
	require.NoError(t, err)

	require.Len(t, agg.LineItems, 1)
	item := agg.LineItems[0]
	assert.Equal(t, ledger.KindDebtPayment, item.Kind)
	assert.True(t, item.Locked, "debt payments must be locked against sale/expense edit paths")
	assert.Equal(t, ledger.ClientID("client-9"), item.ClientID)
}

func TestAggregate_OrdersMostRecentFirst(t *testing.T) {
	mem, dayID := newAggregateDay(t)
	ctx := context.Background()

	base := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, mem.CreateSale(ctx, saleAt("sale-early", base, 10, 0)))
	require.NoError(t, mem.CreateDebtPayment(ctx, ledger.DebtPayment{
		ID: "pay-late", LedgerDayID: dayID, ClientID: "c",
		Amount: decimal.NewFromFloat(5), At: base.Add(3 * time.Hour),
	}))
	require.NoError(t, mem.CreateSale(ctx, saleAt("sale-mid", base.Add(time.Hour), 20, 0)))

	agg, err := ledger.Aggregate(ctx, mem, dayID)
	require.NoError(t, err)

	require.Len(t, agg.LineItems, 3)
	assert.Equal(t, "pay-late", agg.LineItems[0].ID)
	assert.Equal(t, "sale-mid", agg.LineItems[1].ID)
	assert.Equal(t, "sale-early", agg.LineItems[2].ID)
}

func TestAggregate_TieBrokenByInsertionOrder(t *testing.T) {
	mem, dayID := newAggregateDay(t)
	ctx := context.Background()

	at := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, mem.CreateSale(ctx, saleAt("sale-a", at, 10, 0)))
	require.NoError(t, mem.CreateSale(ctx, saleAt("sale-b", at, 20, 0)))

	agg, err := ledger.Aggregate(ctx, mem, dayID)
	require.NoError(t, err)

	require.Len(t, agg.LineItems, 2)
	assert.Equal(t, "sale-a", agg.LineItems[0].ID)
	assert.Equal(t, "sale-b", agg.LineItems[1].ID)
}

func TestAggregate_CrossKindTieSalesFirst(t *testing.T) {
	// GIVEN: A debt payment stored before a sale, both at the same instant
	// WHEN: Aggregating the day
	// THEN: The sale is listed first; cross-kind ties order by kind, not by
	//       which record arrived first

	mem, dayID := newAggregateDay(t)
	ctx := context.Background()

	at := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, mem.CreateDebtPayment(ctx, ledger.DebtPayment{
		ID: "pay-1", LedgerDayID: dayID, ClientID: "c",
		Amount: decimal.NewFromFloat(5), At: at,
	}))
	require.NoError(t, mem.CreateSale(ctx, saleAt("sale-1", at, 10, 0)))

	agg, err := ledger.Aggregate(ctx, mem, dayID)
	require.NoError(t, err)

	require.Len(t, agg.LineItems, 2)
	assert.Equal(t, ledger.KindSale, agg.LineItems[0].Kind)
	assert.Equal(t, ledger.KindDebtPayment, agg.LineItems[1].Kind)
}

func TestRecomputeTotal_EmptyDayIsZero(t *testing.T) {
	mem, dayID := newAggregateDay(t)

	total, err := ledger.RecomputeTotal(context.Background(), mem, dayID)
	require.NoError(t, err)

	assert.True(t, total.IsZero())
}

package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jonnhyortega/controlia-software-sub001/ledger"
)

// =============================================================================
// DAY BOUNDARY REPAIR TESTS
// =============================================================================

func TestRepairDayBounds_CorrectsNaiveMidnightDays(t *testing.T) {
	// GIVEN: One day stored under the old naive-midnight convention and one
	//        correct day for a UTC-3 business
	// WHEN: Running the repair
	// THEN: Only the corrupted day is rewritten, to local-midnight bounds

	svc, mem := newTestService(t)
	business, goodDay := newOpenDay(t, svc)
	ctx := context.Background()

	_, err := svc.CloseDay(ctx, goodDay.ID, ledger.CloseDayInput{}, admin)
	require.NoError(t, err)

	// Simulate the historical corruption directly at the store.
	badDay := ledger.LedgerDay{
		ID:         "day-naive",
		BusinessID: business.ID,
		DayStart:   time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC),
		DayEnd:     time.Date(2024, time.February, 10, 23, 59, 59, 999000000, time.UTC),
		Status:     ledger.StatusClosed,
		TotalSales: decimal.Zero,
	}
	require.NoError(t, mem.CreateDay(ctx, badDay))

	result, err := svc.RepairDayBounds(ctx, business.ID, admin)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Scanned)
	assert.Equal(t, 1, result.Repaired)

	repaired, err := mem.GetDay(ctx, badDay.ID)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.February, 10, 3, 0, 0, 0, time.UTC), repaired.DayStart)
	assert.Equal(t, time.Date(2024, time.February, 11, 2, 59, 59, 999000000, time.UTC), repaired.DayEnd)

	untouched, err := mem.GetDay(ctx, goodDay.ID)
	require.NoError(t, err)
	assert.Equal(t, goodDay.DayStart, untouched.DayStart)
}

func TestRepairDayBounds_Rerunnable(t *testing.T) {
	svc, mem := newTestService(t)
	business, _ := newOpenDay(t, svc)
	ctx := context.Background()

	badDay := ledger.LedgerDay{
		ID:         "day-naive",
		BusinessID: business.ID,
		DayStart:   time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC),
		DayEnd:     time.Date(2024, time.February, 10, 23, 59, 59, 999000000, time.UTC),
		Status:     ledger.StatusClosed,
		TotalSales: decimal.Zero,
	}
	require.NoError(t, mem.CreateDay(ctx, badDay))

	first, err := svc.RepairDayBounds(ctx, business.ID, admin)
	require.NoError(t, err)
	require.Equal(t, 1, first.Repaired)

	second, err := svc.RepairDayBounds(ctx, business.ID, admin)
	require.NoError(t, err)

	assert.Equal(t, 0, second.Repaired, "repair must be a no-op the second time")
}

func TestRepairDayBounds_RequiresAdmin(t *testing.T) {
	svc, _ := newTestService(t)
	business, _ := newOpenDay(t, svc)

	_, err := svc.RepairDayBounds(context.Background(), business.ID, operator)
	assert.ErrorIs(t, err, ledger.ErrPrivilege)
}

// =============================================================================
// TOTAL RECONCILIATION TESTS
// =============================================================================

func TestReconcileTotals_DetectsDrift(t *testing.T) {
	// GIVEN: A day whose stored total was tampered with out of band
	// WHEN: Reconciling without repair
	// THEN: Drift is reported and a reconciliation error raised

	svc, mem := newTestService(t)
	business, day := newOpenDay(t, svc)
	ctx := context.Background()

	_, err := svc.RecordSale(ctx, day.ID, cashSale(100))
	require.NoError(t, err)

	require.NoError(t, mem.UpdateDayTotal(ctx, day.ID, decimal.NewFromFloat(999)))

	result, err := svc.ReconcileTotals(ctx, business.ID, false, admin)

	assert.ErrorIs(t, err, ledger.ErrReconciliation)
	require.NotNil(t, result)
	require.Len(t, result.Diverged, 1)
	assert.Equal(t, day.ID, result.Diverged[0].DayID)
	assert.True(t, result.Diverged[0].Stored.Equal(decimal.NewFromFloat(999)))
	assert.True(t, result.Diverged[0].Computed.Equal(decimal.NewFromFloat(100)))
	assert.Equal(t, 0, result.Repaired)
}

func TestReconcileTotals_RepairWritesBack(t *testing.T) {
	svc, mem := newTestService(t)
	business, day := newOpenDay(t, svc)
	ctx := context.Background()

	_, err := svc.RecordSale(ctx, day.ID, cashSale(100))
	require.NoError(t, err)
	require.NoError(t, mem.UpdateDayTotal(ctx, day.ID, decimal.NewFromFloat(999)))

	result, err := svc.ReconcileTotals(ctx, business.ID, true, admin)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Repaired)

	got, err := mem.GetDay(ctx, day.ID)
	require.NoError(t, err)
	assert.True(t, got.TotalSales.Equal(decimal.NewFromFloat(100)))
}

func TestReconcileTotals_WithinToleranceIgnored(t *testing.T) {
	// Sub-half-cent noise from historical float storage is not drift.
	svc, mem := newTestService(t)
	business, day := newOpenDay(t, svc)
	ctx := context.Background()

	_, err := svc.RecordSale(ctx, day.ID, cashSale(100))
	require.NoError(t, err)
	require.NoError(t, mem.UpdateDayTotal(ctx, day.ID, decimal.NewFromFloat(100.004)))

	result, err := svc.ReconcileTotals(ctx, business.ID, false, admin)
	require.NoError(t, err)

	assert.Empty(t, result.Diverged)
}

func TestReconcileTotals_CleanLedgerPasses(t *testing.T) {
	svc, _ := newTestService(t)
	business, day := newOpenDay(t, svc)
	ctx := context.Background()

	_, err := svc.RecordSale(ctx, day.ID, cashSale(100))
	require.NoError(t, err)
	_, err = svc.RecordDebtPayment(ctx, day.ID, "client-9", decimal.NewFromFloat(50))
	require.NoError(t, err)

	result, err := svc.ReconcileTotals(ctx, business.ID, false, admin)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Scanned)
	assert.Empty(t, result.Diverged)
}

func TestReconcileTotals_RequiresAdmin(t *testing.T) {
	svc, _ := newTestService(t)
	business, _ := newOpenDay(t, svc)

	_, err := svc.ReconcileTotals(context.Background(), business.ID, false, operator)
	assert.ErrorIs(t, err, ledger.ErrPrivilege)
}

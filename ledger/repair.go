/*
repair.go - Administrative reconciliation and repair

PURPOSE:
  Two explicitly-invokable, re-runnable repair operations replace what used
  to be one-off migration scripts:

  RepairDayBounds  - fixes day boundaries persisted under the historical
                     local-midnight-without-offset convention. Idempotent.
  ReconcileTotals  - recomputes each day's revenue via the aggregation
                     engine and reports drift against the stored figure.
                     With repair=true the recomputation overwrites the
                     stored total; otherwise drift is only reported.

DIVERGENCE POLICY:
  The persisted figure stays authoritative for display, but the engine
  recomputation is the source of truth here. Divergence beyond the tolerance
  is surfaced as a ReconciliationError per day; it is never raised by normal
  writes.

SEE ALSO:
  - boundary.go: RepairNaiveMidnight
  - aggregate.go: RecomputeTotal
*/
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// reconcileTolerance absorbs representation noise between historical floats
// and decimal recomputation.
var reconcileTolerance = decimal.NewFromFloat(0.005)

// =============================================================================
// DAY BOUNDARY REPAIR
// =============================================================================

// BoundsRepairResult summarizes one RepairDayBounds run.
type BoundsRepairResult struct {
	Scanned  int
	Repaired int
}

// RepairDayBounds walks every ledger day of a business and corrects
// boundaries stored under the naive-midnight convention. Safe to re-run:
// already-correct days are untouched.
func (s *Service) RepairDayBounds(ctx context.Context, businessID BusinessID, actor Actor) (*BoundsRepairResult, error) {
	if !actor.Admin() {
		return nil, ErrPrivilege
	}
	business, err := s.Business(ctx, businessID)
	if err != nil {
		return nil, err
	}

	days, err := s.store.ListDays(ctx, businessID)
	if err != nil {
		return nil, err
	}

	result := &BoundsRepairResult{}
	for _, day := range days {
		result.Scanned++

		corrected, changed, err := RepairNaiveMidnight(day.DayStart, business.Timezone)
		if err != nil {
			return nil, err
		}
		if !changed {
			continue
		}

		local := corrected.In(mustLocation(business.Timezone))
		bounds, err := BoundsForDate(local.Year(), local.Month(), local.Day(), business.Timezone)
		if err != nil {
			return nil, err
		}
		if err := s.store.UpdateDayBounds(ctx, day.ID, bounds.Start, bounds.End); err != nil {
			return nil, err
		}
		result.Repaired++

		s.log.Info().
			Str("day_id", string(day.ID)).
			Time("old_start", day.DayStart).
			Time("new_start", bounds.Start).
			Msg("day bounds repaired")
	}
	return result, nil
}

// =============================================================================
// TOTAL RECONCILIATION
// =============================================================================

// DayDrift reports one day whose stored total diverges from recomputation.
type DayDrift struct {
	DayID    LedgerDayID
	Stored   decimal.Decimal
	Computed decimal.Decimal
}

// ReconcileResult summarizes one ReconcileTotals run.
type ReconcileResult struct {
	Scanned  int
	Diverged []DayDrift
	Repaired int
}

// ReconcileTotals recomputes every day's revenue and compares it to the
// stored figure. Days diverging beyond tolerance are reported; when repair
// is set, the recomputation is written back.
func (s *Service) ReconcileTotals(ctx context.Context, businessID BusinessID, repair bool, actor Actor) (*ReconcileResult, error) {
	if !actor.Admin() {
		return nil, ErrPrivilege
	}
	if _, err := s.Business(ctx, businessID); err != nil {
		return nil, err
	}

	days, err := s.store.ListDays(ctx, businessID)
	if err != nil {
		return nil, err
	}

	result := &ReconcileResult{}
	for _, day := range days {
		result.Scanned++

		computed, err := RecomputeTotal(ctx, s.store, day.ID)
		if err != nil {
			return nil, err
		}
		if day.TotalSales.Sub(computed).Abs().LessThanOrEqual(reconcileTolerance) {
			continue
		}

		result.Diverged = append(result.Diverged, DayDrift{
			DayID:    day.ID,
			Stored:   day.TotalSales,
			Computed: computed,
		})
		s.log.Warn().
			Str("day_id", string(day.ID)).
			Str("stored", day.TotalSales.String()).
			Str("computed", computed.String()).
			Msg("total drift detected")

		if repair {
			if err := s.store.UpdateDayTotal(ctx, day.ID, computed); err != nil {
				return nil, err
			}
			result.Repaired++
		}
	}

	if len(result.Diverged) > 0 && !repair {
		d := result.Diverged[0]
		return result, &ReconciliationError{DayID: d.DayID, Stored: d.Stored, Computed: d.Computed}
	}
	return result, nil
}

func mustLocation(tz string) *time.Location {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

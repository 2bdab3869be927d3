/*
boundary.go - Day boundary resolution in the tenant's timezone

PURPOSE:
  Converts a point in time to the canonical [start, end) interval of "the
  business day" in the tenant's local timezone, expressed as absolute UTC
  instants. Pure and deterministic for a fixed timezone and instant; the
  host process timezone is never consulted.

BOUNDARY CONVENTION:
  dayStart = local midnight of the instant's calendar day, in UTC
  dayEnd   = dayStart + 24h - 1ms

  Example (America/Argentina/Buenos_Aires, UTC-3):
    instant  2024-03-01T08:00 local
    dayStart 2024-03-01T03:00:00.000Z
    dayEnd   2024-03-02T02:59:59.999Z

HISTORICAL REPAIR:
  Early records stored "local midnight" with the offset dropped: the naive
  wall-clock value was persisted as if it were UTC midnight, producing a
  wrong absolute instant. RepairNaiveMidnight reinterprets such a value as
  local time and re-derives the correct instant. The repair is idempotent:
  an already-correct record carries the local-midnight offset marker in its
  UTC hour and is returned unchanged.

SEE ALSO:
  - repair.go: Batch repair over stored days
  - service.go: Uses Bounds when opening a day
*/
package ledger

import (
	"fmt"
	"time"
)

// DayBounds is the resolved [start, end] pair for one business day, both in UTC.
type DayBounds struct {
	Start time.Time
	End   time.Time
}

// Bounds resolves the business day containing instant for the given IANA
// timezone. The returned instants are in UTC.
func Bounds(instant time.Time, timezone string) (DayBounds, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return DayBounds{}, fmt.Errorf("load timezone %q: %w", timezone, err)
	}

	local := instant.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end := start.Add(24*time.Hour - time.Millisecond)

	return DayBounds{Start: start.UTC(), End: end.UTC()}, nil
}

// BoundsForDate resolves the business day for a calendar date in the given
// timezone. Used when re-deriving bounds during repair.
func BoundsForDate(year int, month time.Month, day int, timezone string) (DayBounds, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return DayBounds{}, fmt.Errorf("load timezone %q: %w", timezone, err)
	}

	start := time.Date(year, month, day, 0, 0, 0, 0, loc)
	end := start.Add(24*time.Hour - time.Millisecond)

	return DayBounds{Start: start.UTC(), End: end.UTC()}, nil
}

// RepairNaiveMidnight corrects a day-start instant stored under the old
// local-midnight-without-offset convention, where the naive local value was
// persisted as if it were UTC.
//
// Detection: a correct day start, viewed in the tenant's timezone, falls on
// local midnight. A corrupted one falls on UTC midnight instead (unless the
// tenant is at UTC+0, where both conventions coincide and repair is a no-op).
// Running the repair twice therefore yields the same instant as running it
// once.
//
// Returns the corrected instant and whether a correction was applied.
func RepairNaiveMidnight(stored time.Time, timezone string) (time.Time, bool, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("load timezone %q: %w", timezone, err)
	}

	// Already correct: the instant is local midnight in the tenant's zone.
	local := stored.In(loc)
	if local.Hour() == 0 && local.Minute() == 0 && local.Second() == 0 && local.Nanosecond() == 0 {
		return stored.UTC(), false, nil
	}

	// Corrupted convention: the UTC reading is a bare midnight. Reinterpret
	// its calendar date as local time.
	utc := stored.UTC()
	if utc.Hour() == 0 && utc.Minute() == 0 && utc.Second() == 0 && utc.Nanosecond() == 0 {
		corrected := time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, loc)
		return corrected.UTC(), true, nil
	}

	// Neither convention matches; leave the record alone rather than guess.
	return utc, false, nil
}

// Package conflict implements the half-open interval rules used to admit
// bookings (timestamps) and leases (calendar dates) on a resource.
package conflict

import (
	"fmt"
	"time"

	"github.com/deskhub/facility-backend/internal/apperr"
)

// Interval is a half-open range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether End is strictly after Start.
func (i Interval) Valid() bool {
	return i.End.After(i.Start)
}

// Overlaps reports whether a and b share at least one instant.
// Intervals that only touch at an endpoint do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// CheckTimeRange validates a booking window submitted at now.
func CheckTimeRange(now time.Time, iv Interval) error {
	if iv.Start.Before(now) {
		return apperr.ErrPastStartTime
	}
	if !iv.Valid() {
		return fmt.Errorf("%w: end time %s is not after start time %s",
			apperr.ErrInvalidRange, iv.End.Format(time.RFC3339), iv.Start.Format(time.RFC3339))
	}
	return nil
}

// CheckDateRange validates a date range (lease, subscription) against today.
// All three values are expected to be normalized with Day.
func CheckDateRange(today time.Time, iv Interval) error {
	if iv.Start.Before(today) {
		return apperr.ErrPastStartDate
	}
	if !iv.Valid() {
		return fmt.Errorf("%w: end date %s is not after start date %s",
			apperr.ErrInvalidRange, iv.End.Format(DateLayout), iv.Start.Format(DateLayout))
	}
	return nil
}

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

// Day returns the calendar date of t as observed in loc, expressed as
// midnight UTC so it round-trips through DATE columns unchanged.
func Day(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a normalized date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", apperr.ErrInvalidInput, s)
	}
	return t, nil
}

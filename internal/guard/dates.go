package guard

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidRange = errors.New("invalid date range")

// Overlaps reports whether the inclusive intervals [aStart, aEnd] and
// [bStart, bEnd] share at least one instant. Touching at a single boundary
// date counts as overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !bStart.After(aEnd)
}

// MonthOf projects a timestamp onto its calendar month.
func MonthOf(t time.Time) (int, time.Month) {
	return t.Year(), t.Month()
}

// DateOnly truncates a timestamp to its UTC calendar date. Vacation bounds
// are dates while guard timestamps carry a time of day, so all containment
// checks compare at date resolution.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ValidateRange enforces the start <= end precondition shared by every
// interval operation.
func ValidateRange(start, end time.Time) error {
	if start.After(end) {
		return fmt.Errorf("%w: start %s is after end %s",
			ErrInvalidRange, start.Format(time.DateOnly), end.Format(time.DateOnly))
	}
	return nil
}

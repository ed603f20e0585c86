// Package daterange derives the business days a collection run visits.
package daterange

import (
	"fmt"
	"iter"
	"time"

	"github.com/Sternrassler/fund-holdings-collector/pkg/holdings"
)

// now is the clock used when no end date is given.
var now = time.Now

// InvalidRangeError is returned when the start date is after the end date.
type InvalidRangeError struct {
	Start time.Time
	End   time.Time
}

// Error implements the error interface.
func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid date range: start %s is after end %s",
		holdings.FormatDate(e.Start), holdings.FormatDate(e.End))
}

// Generate returns the weekdays in [start, end] in ascending order.
// A zero end means today. Both ends are truncated to calendar days and end
// is read in start's location. The returned sequence holds no state and can
// be ranged over any number of times.
func Generate(start, end time.Time) (iter.Seq[time.Time], error) {
	if end.IsZero() {
		end = now()
	}
	first := day(start)
	y, m, d := end.Date()
	last := time.Date(y, m, d, 0, 0, 0, 0, first.Location())
	if first.After(last) {
		return nil, &InvalidRangeError{Start: first, End: last}
	}

	return func(yield func(time.Time) bool) {
		for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
			if !IsBusinessDay(d) {
				continue
			}
			if !yield(d) {
				return
			}
		}
	}, nil
}

// Dates collects Generate into a slice.
func Dates(start, end time.Time) ([]time.Time, error) {
	seq, err := Generate(start, end)
	if err != nil {
		return nil, err
	}
	var dates []time.Time
	for d := range seq {
		dates = append(dates, d)
	}
	return dates, nil
}

// IsBusinessDay reports whether t falls Monday through Friday. Holidays are
// not considered.
func IsBusinessDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// ParseDate parses a YYYY-MM-DD date in UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(holdings.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

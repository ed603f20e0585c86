// Package holdings defines the fund holding record and the ordering rules
// shared by the parser, the collector and the partition store.
package holdings

import (
	"fmt"
	"time"
)

// DateLayout is the ISO calendar date format used on the wire and on disk.
const DateLayout = "2006-01-02"

// MonthLayout is the format of a partition key.
const MonthLayout = "2006-01"

// Record is one fund position in one security on one date.
//
// Every field keeps the source's original text. Weight is compared
// numerically through Weight.
type Record struct {
	Date   string `json:"date"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Shares string `json:"shares"`
	Weight string `json:"weight"`
}

// MonthKey returns the YYYY-MM partition key of the record's date.
func (r Record) MonthKey() (string, error) {
	d, err := time.Parse(DateLayout, r.Date)
	if err != nil {
		return "", fmt.Errorf("record date %q: %w", r.Date, err)
	}
	return MonthKey(d), nil
}

// MonthKey returns the YYYY-MM partition key for t.
func MonthKey(t time.Time) string {
	return t.Format(MonthLayout)
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Dates returns the set of distinct dates present in records.
func Dates(records []Record) map[string]struct{} {
	set := make(map[string]struct{}, len(records))
	for _, r := range records {
		set[r.Date] = struct{}{}
	}
	return set
}

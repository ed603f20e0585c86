package holdings

import (
	"cmp"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Weight parses the record's weight as a decimal.
// A trailing percent sign, surrounding spaces and thousands separators are
// tolerated. ok is false when the value is not numeric.
func Weight(r Record) (w decimal.Decimal, ok bool) {
	s := strings.TrimSpace(r.Weight)
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	w, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return w, true
}

// Compare orders a before b when its date is earlier, or on the same date
// when its weight is larger. Unparsable weights come after parsable ones.
func Compare(a, b Record) int {
	if c := cmp.Compare(a.Date, b.Date); c != 0 {
		return c
	}
	wa, okA := Weight(a)
	wb, okB := Weight(b)
	switch {
	case okA && okB:
		return wb.Cmp(wa)
	case okA:
		return -1
	case okB:
		return 1
	default:
		return 0
	}
}

// Sort orders records in place by ascending date then descending weight.
// The sort is stable: equal keys keep their encounter order.
func Sort(records []Record) {
	slices.SortStableFunc(records, Compare)
}

// IsSorted reports whether records already satisfy the partition ordering.
func IsSorted(records []Record) bool {
	return slices.IsSortedFunc(records, Compare)
}

// Dedup removes records repeating an earlier date+symbol pair.
// The first occurrence wins and relative order is preserved.
func Dedup(records []Record) []Record {
	type key struct{ date, symbol string }
	seen := make(map[key]struct{}, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		k := key{r.Date, r.Symbol}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

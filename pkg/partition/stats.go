package partition

import (
	"os"
	"slices"
	"strings"
)

// MonthStats summarizes one partition.
type MonthStats struct {
	Month   string
	Records int
	Dates   []string
}

// Months lists the keys of all partitions in the directory, ascending.
// A missing directory has no partitions.
func (s *Store) Months() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: OpRead, Err: err}
	}

	var months []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		key := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
		if ValidateMonthKey(key) != nil {
			continue
		}
		months = append(months, key)
	}
	slices.Sort(months)
	return months, nil
}

// Stats returns the record count and the sorted distinct dates of a partition.
func (s *Store) Stats(monthKey string) (MonthStats, error) {
	records, err := s.LoadOrEmpty(monthKey)
	if err != nil {
		return MonthStats{}, err
	}

	seen := make(map[string]struct{})
	dates := make([]string, 0)
	for _, r := range records {
		if _, ok := seen[r.Date]; ok {
			continue
		}
		seen[r.Date] = struct{}{}
		dates = append(dates, r.Date)
	}
	slices.Sort(dates)

	return MonthStats{Month: monthKey, Records: len(records), Dates: dates}, nil
}

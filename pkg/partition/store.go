// Package partition stores holding records as one CSV file per calendar
// month and merges new batches into them.
//
// A save replaces every existing row whose date appears in the incoming
// batch, then rewrites the whole file sorted by date ascending and weight
// descending. Files are replaced by rename so readers never observe a
// partially written partition.
package partition

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/Sternrassler/fund-holdings-collector/pkg/holdings"
	"github.com/Sternrassler/fund-holdings-collector/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	filePrefix = "holdings_"
	fileSuffix = ".csv"
)

var monthKeyPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

var (
	savesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "holdings_partition_saves_total",
		Help: "Total partition saves by result",
	}, []string{"result"})

	partitionRows = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "holdings_partition_rows",
		Help: "Rows in a partition after its last save",
	}, []string{"month"})
)

// Store reads and writes month partitions under a single directory.
type Store struct {
	dir    string
	logger zerolog.Logger
}

// NewStore returns a store rooted at dir. The directory is created by
// EnsureDir or the first Save.
func NewStore(dir string) *Store {
	return &Store{
		dir:    dir,
		logger: log.With().Str("component", logging.ComponentStore).Str("dir", dir).Logger(),
	}
}

// Dir returns the storage directory.
func (s *Store) Dir() string {
	return s.dir
}

// ValidateMonthKey reports whether key has the form YYYY-MM.
func ValidateMonthKey(key string) error {
	if !monthKeyPattern.MatchString(key) {
		return &StorageError{Month: key, Op: OpKey, Err: fmt.Errorf("month key must be YYYY-MM")}
	}
	return nil
}

// Path returns the file path of the partition for monthKey.
func (s *Store) Path(monthKey string) string {
	return filepath.Join(s.dir, filePrefix+monthKey+fileSuffix)
}

// EnsureDir creates the storage directory if it does not exist.
func (s *Store) EnsureDir() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return &StorageError{Op: OpMkdir, Err: err}
	}
	return nil
}

// LoadOrEmpty returns the records of a partition, or an empty slice when
// the partition does not exist yet.
func (s *Store) LoadOrEmpty(monthKey string) ([]holdings.Record, error) {
	if err := ValidateMonthKey(monthKey); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path(monthKey))
	if errors.Is(err, fs.ErrNotExist) {
		return []holdings.Record{}, nil
	}
	if err != nil {
		return nil, &StorageError{Month: monthKey, Op: OpRead, Err: err}
	}

	records, err := decode(data)
	if err != nil {
		return nil, &StorageError{Month: monthKey, Op: OpDecode, Err: err}
	}
	return records, nil
}

// Save merges records into the partition for monthKey.
//
// Existing rows for any date present in records are dropped, records are
// appended and the result keeps the first occurrence of each date+symbol
// pair, sorted and written as a complete file. Every record must belong to
// monthKey. An empty batch leaves the partition untouched.
func (s *Store) Save(records []holdings.Record, monthKey string) error {
	if len(records) == 0 {
		return nil
	}

	merged, replaced, err := s.merge(records, monthKey)
	if err != nil {
		savesTotal.WithLabelValues("error").Inc()
		return err
	}

	data, err := encode(merged)
	if err != nil {
		savesTotal.WithLabelValues("error").Inc()
		return &StorageError{Month: monthKey, Op: OpEncode, Err: err}
	}

	if err := s.writeAtomic(monthKey, data); err != nil {
		savesTotal.WithLabelValues("error").Inc()
		return err
	}

	savesTotal.WithLabelValues("ok").Inc()
	partitionRows.WithLabelValues(monthKey).Set(float64(len(merged)))

	s.logger.Info().
		Str("month", monthKey).
		Int("incoming", len(records)).
		Int("replaced", replaced).
		Int("rows", len(merged)).
		Msg("Saved partition")
	return nil
}

// merge returns the sorted union of the stored partition and records, and
// how many stored rows were replaced.
func (s *Store) merge(records []holdings.Record, monthKey string) ([]holdings.Record, int, error) {
	existing, err := s.LoadOrEmpty(monthKey)
	if err != nil {
		return nil, 0, err
	}

	for _, r := range records {
		key, err := r.MonthKey()
		if err != nil {
			return nil, 0, &StorageError{Month: monthKey, Op: OpKey, Err: err}
		}
		if key != monthKey {
			return nil, 0, &StorageError{Month: monthKey, Op: OpKey, Err: fmt.Errorf("record date %s is outside the partition", r.Date)}
		}
	}

	dates := holdings.Dates(records)

	merged := make([]holdings.Record, 0, len(existing)+len(records))
	for _, r := range existing {
		if _, ok := dates[r.Date]; ok {
			continue
		}
		merged = append(merged, r)
	}
	replaced := len(existing) - len(merged)

	merged = holdings.Dedup(append(merged, records...))
	holdings.Sort(merged)
	return merged, replaced, nil
}

// writeAtomic writes data to a temporary file next to the partition and
// renames it over the target.
func (s *Store) writeAtomic(monthKey string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return &StorageError{Month: monthKey, Op: OpMkdir, Err: err}
	}

	tmp, err := os.CreateTemp(s.dir, "."+filePrefix+monthKey+"-*.tmp")
	if err != nil {
		return &StorageError{Month: monthKey, Op: OpWrite, Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &StorageError{Month: monthKey, Op: OpWrite, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return &StorageError{Month: monthKey, Op: OpWrite, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &StorageError{Month: monthKey, Op: OpWrite, Err: err}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return &StorageError{Month: monthKey, Op: OpWrite, Err: err}
	}
	if err := os.Rename(tmpName, s.Path(monthKey)); err != nil {
		return &StorageError{Month: monthKey, Op: OpWrite, Err: err}
	}
	return nil
}

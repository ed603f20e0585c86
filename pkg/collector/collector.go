// Package collector runs a collection: it walks the business days of a date
// range, fetches each day's holdings and merges them into month partitions.
package collector

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/Sternrassler/fund-holdings-collector/pkg/daterange"
	"github.com/Sternrassler/fund-holdings-collector/pkg/holdings"
	"github.com/Sternrassler/fund-holdings-collector/pkg/logging"
	"github.com/Sternrassler/fund-holdings-collector/pkg/ratelimit"
	"github.com/rs/zerolog"
)

// Fetcher returns the holdings published for one date. Failures are
// reported as an empty result.
type Fetcher interface {
	Fetch(ctx context.Context, date time.Time) []holdings.Record
}

// Store persists month partitions.
type Store interface {
	EnsureDir() error
	Save(records []holdings.Record, monthKey string) error
}

// Summary describes a finished run.
type Summary struct {
	MonthsWritten    int
	RecordsCollected int
	DaysRequested    int
	DaysEmpty        int
	Months           []string
}

// Collector wires a fetcher, a store and a pacer into a collection run.
type Collector struct {
	fetcher Fetcher
	store   Store
	pacer   *ratelimit.Pacer
	logger  zerolog.Logger
}

// New creates a collector. A nil pacer disables pacing.
func New(fetcher Fetcher, store Store, pacer *ratelimit.Pacer) *Collector {
	if pacer == nil {
		pacer = ratelimit.NewPacer(0, nil, zerolog.Nop())
	}
	return &Collector{
		fetcher: fetcher,
		store:   store,
		pacer:   pacer,
		logger:  logging.NewLogger(logging.ComponentCollector),
	}
}

// Run collects every business day in [start, end] and saves the results per
// month. A zero end means today.
//
// Days without data are skipped. If ctx is cancelled the loop stops, no
// partition is written and the context error is returned. Months are saved
// in ascending order and the first storage error ends the run.
func (c *Collector) Run(ctx context.Context, start, end time.Time) (Summary, error) {
	var summary Summary

	if err := c.store.EnsureDir(); err != nil {
		return summary, err
	}

	dates, err := daterange.Generate(start, end)
	if err != nil {
		return summary, err
	}

	c.logger.Info().
		Str("start", holdings.FormatDate(start)).
		Str("end", formatEnd(end)).
		Msg("Starting collection")

	buffer := make(map[string][]holdings.Record)
	first := true
	for d := range dates {
		if !first {
			if err := c.pacer.Wait(ctx); err != nil {
				return summary, err
			}
		}
		first = false

		if err := ctx.Err(); err != nil {
			return summary, err
		}

		summary.DaysRequested++
		records := c.fetcher.Fetch(ctx, d)
		if len(records) == 0 {
			summary.DaysEmpty++
			continue
		}

		key := holdings.MonthKey(d)
		buffer[key] = append(buffer[key], records...)
		summary.RecordsCollected += len(records)
	}

	if err := ctx.Err(); err != nil {
		return summary, err
	}

	keys := make([]string, 0, len(buffer))
	for k := range buffer {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		if err := c.store.Save(buffer[key], key); err != nil {
			c.logger.Error().Err(err).Str("month", key).Msg("Failed to save partition")
			return summary, fmt.Errorf("save month %s: %w", key, err)
		}
		summary.MonthsWritten++
		summary.Months = append(summary.Months, key)
	}

	c.logger.Info().
		Int("days_requested", summary.DaysRequested).
		Int("days_empty", summary.DaysEmpty).
		Int("records", summary.RecordsCollected).
		Int("months_written", summary.MonthsWritten).
		Strs("months", summary.Months).
		Msg("Collection finished")

	return summary, nil
}

func formatEnd(end time.Time) string {
	if end.IsZero() {
		return "today"
	}
	return holdings.FormatDate(end)
}

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Sternrassler/fund-holdings-collector/pkg/cache"
	"github.com/Sternrassler/fund-holdings-collector/pkg/client"
	"github.com/Sternrassler/fund-holdings-collector/pkg/collector"
	"github.com/Sternrassler/fund-holdings-collector/pkg/config"
	"github.com/Sternrassler/fund-holdings-collector/pkg/daterange"
	"github.com/Sternrassler/fund-holdings-collector/pkg/logging"
	"github.com/Sternrassler/fund-holdings-collector/pkg/metrics"
	"github.com/Sternrassler/fund-holdings-collector/pkg/partition"
	"github.com/Sternrassler/fund-holdings-collector/pkg/ratelimit"
	"github.com/google/subcommands"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type collectCmd struct {
	start   string
	end     string
	dataDir string
	pacing  time.Duration
	refresh bool

	out io.Writer
}

func (*collectCmd) Name() string     { return "collect" }
func (*collectCmd) Synopsis() string { return "fetches holdings for a date range and merges them into monthly files" }
func (*collectCmd) Usage() string {
	return `holdings-collector collect [-start YYYY-MM-DD] [-end YYYY-MM-DD]

Fetches the fund's holdings for every weekday in [start, end] and merges
them into <data-dir>/holdings_YYYY-MM.csv. Dates already present in a
monthly file are replaced by the freshly fetched snapshot; other dates are
kept.

Days without data (holidays, timeouts, upstream errors) are logged and
skipped. The run fails only on an invalid range or a storage error.

Flags override the environment (HOLDINGS_START_DATE, HOLDINGS_DATA_DIR,
HOLDINGS_PACING). -end defaults to today.

With REDIS_URL set, raw responses are cached per fund and date. -refresh
drops the fund's cached responses first.
`
}

func (c *collectCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "start", "", "first date to collect (default: HOLDINGS_START_DATE or 2025-05-02)")
	f.StringVar(&c.end, "end", "", "last date to collect (default: today)")
	f.StringVar(&c.dataDir, "data-dir", "", "directory of the monthly CSV files (default: HOLDINGS_DATA_DIR or docs/data)")
	f.DurationVar(&c.pacing, "pacing", -1, "pause between requests (default: HOLDINGS_PACING or 1s)")
	f.BoolVar(&c.refresh, "refresh", false, "drop the fund's cached responses before collecting")
}

func (c *collectCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(errOut, "Error: invalid configuration: %v\n", err)
		return subcommands.ExitUsageError
	}
	logging.Setup(logging.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, Output: errOut})
	logger := logging.NewLogger(logging.ComponentCLI)

	start, end, err := c.dateRange(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("Invalid date flag")
		return subcommands.ExitUsageError
	}
	if c.dataDir != "" {
		cfg.Storage.DataDir = c.dataDir
	}
	if c.pacing >= 0 {
		cfg.Pacing = c.pacing
	}

	clientCfg := cfg.ClientConfig()
	if cfg.Redis.URL != "" {
		redisClient, err := connectRedis(ctx, cfg.Redis.URL)
		if err != nil {
			logger.Warn().Err(err).Msg("Redis unavailable, continuing without response cache")
		} else {
			defer redisClient.Close()
			clientCfg.Cache = cache.NewManager(redisClient)
			logger.Info().Str("redis", cfg.Redis.URL).Dur("ttl", cfg.Redis.TTL).Msg("Response cache enabled")

			if c.refresh {
				removed, err := clientCfg.Cache.Purge(ctx, clientCfg.FundID)
				if err != nil {
					logger.Warn().Err(err).Msg("Failed to purge response cache")
				} else {
					logger.Info().Int("removed", removed).Msg("Purged response cache")
				}
			}
		}
	}

	fetcher, err := client.New(clientCfg)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create fetcher")
		return subcommands.ExitFailure
	}
	logger.Info().
		Str("fund", fetcher.FundID()).
		Str("data_dir", cfg.Storage.DataDir).
		Dur("pacing", cfg.Pacing).
		Msg("Collector configured")

	store := partition.NewStore(cfg.Storage.DataDir)
	pacer := ratelimit.NewPacer(cfg.Pacing, nil, logging.NewLogger(logging.ComponentPacer))
	run := collector.New(fetcher, store, pacer)

	summary, runErr := run.Run(ctx, start, end)
	c.writeMetrics(cfg, logger)

	if runErr != nil {
		logger.Error().Err(runErr).Msg("Collection failed")
		return subcommands.ExitFailure
	}

	printSummary(c.out, summary, store)
	return subcommands.ExitSuccess
}

func (c *collectCmd) dateRange(cfg *config.Config) (start, end time.Time, err error) {
	start = cfg.StartDate
	if c.start != "" {
		if start, err = daterange.ParseDate(c.start); err != nil {
			return start, end, fmt.Errorf("-start: %w", err)
		}
	}
	if c.end != "" {
		if end, err = daterange.ParseDate(c.end); err != nil {
			return start, end, fmt.Errorf("-end: %w", err)
		}
	}
	return start, end, nil
}

func (c *collectCmd) writeMetrics(cfg *config.Config, logger zerolog.Logger) {
	if cfg.MetricsFile == "" {
		return
	}
	if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
		logger.Warn().Err(err).Msg("Failed to write metrics file")
		return
	}
	logger.Debug().Str("path", cfg.MetricsFile).Msg("Wrote metrics file")
}

// connectRedis accepts a redis:// URL or a bare host:port.
func connectRedis(ctx context.Context, raw string) (*redis.Client, error) {
	opts := &redis.Options{Addr: raw}
	if strings.Contains(raw, "://") {
		parsed, err := redis.ParseURL(raw)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		opts = parsed
	}

	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func printSummary(w io.Writer, s collector.Summary, store *partition.Store) {
	fmt.Fprintf(w, "Collected %d records from %d of %d days (%d without data)\n",
		s.RecordsCollected, s.DaysRequested-s.DaysEmpty, s.DaysRequested, s.DaysEmpty)
	if s.MonthsWritten == 0 {
		fmt.Fprintln(w, "No partitions written")
		return
	}
	for _, month := range s.Months {
		fmt.Fprintf(w, "  wrote %s\n", store.Path(month))
	}
}

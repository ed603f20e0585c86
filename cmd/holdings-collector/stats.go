package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/Sternrassler/fund-holdings-collector/pkg/config"
	"github.com/Sternrassler/fund-holdings-collector/pkg/partition"
	"github.com/google/subcommands"
)

type statsCmd struct {
	dataDir string

	out io.Writer
}

func (*statsCmd) Name() string     { return "stats" }
func (*statsCmd) Synopsis() string { return "prints record and trading-day counts per monthly file" }
func (*statsCmd) Usage() string {
	return `holdings-collector stats [-data-dir DIR]

Lists every holdings_YYYY-MM.csv in the data directory with its record
count and number of distinct trading days, followed by the total.
`
}

func (c *statsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dataDir, "data-dir", "", "directory of the monthly CSV files (default: HOLDINGS_DATA_DIR or docs/data)")
}

func (c *statsCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	dir := c.dataDir
	if dir == "" {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(errOut, "Error: invalid configuration: %v\n", err)
			return subcommands.ExitUsageError
		}
		dir = cfg.Storage.DataDir
	}

	if err := printStats(c.out, partition.NewStore(dir)); err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func printStats(w io.Writer, store *partition.Store) error {
	months, err := store.Months()
	if err != nil {
		return err
	}
	if len(months) == 0 {
		fmt.Fprintf(w, "No partitions in %s\n", store.Dir())
		return nil
	}

	total := 0
	for _, month := range months {
		st, err := store.Stats(month)
		if err != nil {
			return err
		}
		total += st.Records
		fmt.Fprintf(w, "%s: %4d records, %2d trading days\n", st.Month, st.Records, len(st.Dates))
	}
	fmt.Fprintf(w, "\nTotal: %d records\n", total)
	return nil
}

// Command holdings-collector fetches daily fund holdings and keeps them as
// monthly CSV partitions.
//
//	holdings-collector collect [-start 2025-05-02] [-end YYYY-MM-DD]
//	holdings-collector stats
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/Sternrassler/fund-holdings-collector/pkg/config"
	"github.com/google/subcommands"
)

var errOut io.Writer = os.Stderr

var envFile = flag.String("env-file", "", "load variables from this .env file (default: ./.env if present)")

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(&collectCmd{out: os.Stdout}, "")
	commander.Register(&statsCmd{out: os.Stdout}, "")

	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(int(subcommands.ExitFailure))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	status := commander.Execute(ctx)
	stop()
	os.Exit(int(status))
}

package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/ligatools/ligaledger/date"
)

// rosterCmd holds the flags for the 'roster' subcommand.
type rosterCmd struct {
	date string
}

func (*rosterCmd) Name() string     { return "roster" }
func (*rosterCmd) Synopsis() string { return "display every manager's squad on a given day" }
func (*rosterCmd) Usage() string {
	return `llt roster [-d <date>]

  Reconstructs every manager's squad on the given day by replaying the
  transfer history from the snapshot, forward or backward.
`
}

func (c *rosterCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", date.Today().String(), "Day to reconstruct (YYYY-MM-DD).")
}

func (c *rosterCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := date.Parse(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}

	b, err := openBooks()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	md, err := b.RosterMarkdown(ctx, on)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	printMarkdown(md)
	return subcommands.ExitSuccess
}

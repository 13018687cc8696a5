package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/ligatools/ligaledger/date"
)

// salaryCmd holds the flags for the 'salary' subcommand.
type salaryCmd struct {
	since string
}

func (*salaryCmd) Name() string     { return "salary" }
func (*salaryCmd) Synopsis() string { return "display the accumulated salary debits per manager" }
func (*salaryCmd) Usage() string {
	return `llt salary [-s <date>]

  Recomputes the daily salary debits per manager over the fee-active
  days since the given date: a base fee per squad slot plus a rate on
  the previous day's market value, charged on the roster held at the
  settlement cutoff.
`
}

func (c *salaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.since, "s", "", "First day to include (YYYY-MM-DD). Defaults to the snapshot anchor.")
}

func (c *salaryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	b, err := openBooks()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	since := b.snap.Anchor()
	if c.since != "" {
		since, err = date.Parse(c.since)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
			return subcommands.ExitUsageError
		}
	}

	md, err := b.SalaryMarkdown(ctx, since)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if err := b.close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving valuation cache: %v\n", err)
		return subcommands.ExitFailure
	}

	printMarkdown(md)
	return subcommands.ExitSuccess
}

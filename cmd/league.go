package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

// leagueCmd holds the flags for the 'league' subcommand.
type leagueCmd struct{}

func (*leagueCmd) Name() string     { return "league" }
func (*leagueCmd) Synopsis() string { return "display the full league overview" }
func (*leagueCmd) Usage() string {
	return `llt league

  Displays the league table with points, team values, account balances,
  point payouts, credit limits and today's salary for every manager.

  Balances come from the API where it discloses them, and are otherwise
  derived from the start budget, the transfer history and the recomputed
  salary debits.
`
}

func (c *leagueCmd) SetFlags(f *flag.FlagSet) {}

func (c *leagueCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	b, err := openBooks()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	md, err := b.LeagueMarkdown(ctx)
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

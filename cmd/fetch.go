package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/ligatools/ligaledger"
	"github.com/samber/lo"
)

// fetchCmd holds the flags for the 'fetch' subcommand.
type fetchCmd struct {
	parallelism int
}

func (*fetchCmd) Name() string     { return "fetch" }
func (*fetchCmd) Synopsis() string { return "warm the market value cache for all held players" }
func (*fetchCmd) Usage() string {
	return `llt fetch [-j <n>]

  Fetches the quote history of every player appearing in the snapshot or
  in the transfer history since the anchor, and stores it in the
  valuation cache. Fetches run with bounded parallelism; a failed player
  is logged and skipped.
`
}

func (c *fetchCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.parallelism, "j", 4, "Number of concurrent quote-history fetches.")
}

func (c *fetchCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	b, err := openBooks()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	// Every asset ever seen: the anchor squads plus both sides of each
	// transfer since.
	var assets []ligaledger.AssetID
	for _, squad := range b.snap.Rosters() {
		assets = append(assets, squad.IDs()...)
	}
	for _, e := range b.log.TransferEvents {
		assets = append(assets, e.Asset)
	}
	assets = lo.Uniq(assets)

	start := time.Now()
	if err := b.vals.Warm(assets, c.parallelism); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: some quote histories could not be fetched: %v\n", err)
	}

	if err := b.close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving valuation cache: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Fetched %d players into %s in %s.\n", len(assets), valuationsFile(), time.Since(start).Round(time.Millisecond))
	return subcommands.ExitSuccess
}

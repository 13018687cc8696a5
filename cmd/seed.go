package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/ligatools/ligaledger"
)

// seedCmd holds the flags for the 'seed' subcommand.
type seedCmd struct {
	force bool
}

func (*seedCmd) Name() string     { return "seed" }
func (*seedCmd) Synopsis() string { return "create a squad snapshot from the current community state" }
func (*seedCmd) Usage() string {
	return `llt seed [-f]

  Creates the snapshot file anchoring the roster reconstruction: every
  manager's current squad, dated with today's effective day. Current
  market values are merged into the valuation cache as a side effect.

  Refuses to overwrite an existing snapshot unless -f is given.
`
}

func (c *seedCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.force, "f", false, "Overwrite an existing snapshot.")
}

func (c *seedCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.force {
		if _, err := os.Stat(snapshotFile()); err == nil {
			fmt.Fprintf(os.Stderr, "Error: %q already exists, use -f to overwrite.\n", snapshotFile())
			return subcommands.ExitFailure
		}
	}

	client, err := dial()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	members, err := client.Members()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot get community members: %v\n", err)
		return subcommands.ExitFailure
	}

	vals, err := loadValuations(client)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot load valuation cache: %v\n", err)
		return subcommands.ExitFailure
	}

	anchor := ligaledger.EffectiveToday(time.Now(), client.CutoffHour())
	rosters := make(ligaledger.Roster, len(members))
	for _, m := range members {
		squad, err := client.Squad(m.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot get squad of %q: %v\n", m.Name, err)
			return subcommands.ExitFailure
		}
		set := ligaledger.NewAssetSet()
		for _, p := range squad {
			set.Add(p.Asset)
			if err := vals.Merge(p.Asset, anchor, p.MarketValue); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: skipping market value of player %d: %v\n", p.Asset, err)
			}
		}
		rosters[m.ID] = set
	}

	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating data folder: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := ligaledger.SaveSnapshot(snapshotFile(), ligaledger.NewSnapshot(anchor, rosters)); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing snapshot: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := ligaledger.SaveValuations(valuationsFile(), vals); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving valuation cache: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Seeded %s with %d squads anchored on %s.\n", snapshotFile(), len(rosters), anchor)
	return subcommands.ExitSuccess
}

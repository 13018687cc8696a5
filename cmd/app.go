// Package cmd implements the CLI application to track a fantasy league.
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/subcommands"
	"github.com/ligatools/ligaledger"
	"github.com/ligatools/ligaledger/comunio"
	"github.com/ligatools/ligaledger/date"
)

// Commands lists the subcommands of the application.
// A main package registers them on a commander and executes the
// user-selected one.
var Commands = []subcommands.Command{
	&leagueCmd{},
	&rosterCmd{},
	&salaryCmd{},
	&fetchCmd{},
	&seedCmd{},
	&topicCmd{},
	&assistCmd{},
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var dataDir = flag.String("data", ".liga", "Path to the data folder holding the snapshot and cache files")
var apiURL = flag.String("api", comunio.DefaultBaseURL, "Base URL of the Comunio API")

const (
	userEnv     = "COMUNIO_USER"
	passwordEnv = "COMUNIO_PASSWORD"
)

var userFlag = flag.String("user", "", "Comunio username. This flag takes precedence over the "+userEnv+" environment variable.")
var passwordFlag = flag.String("password", "", "Comunio password. This flag takes precedence over the "+passwordEnv+" environment variable.")
var seasonFlag = flag.String("season", "", "Season start day (YYYY-MM-DD). Used as the replay horizon when no snapshot exists.")

// credentials retrieves the Comunio credentials from the command-line
// flags or the environment variables. Flags take precedence.
func credentials() (user, password string, err error) {
	user, password = *userFlag, *passwordFlag
	if user == "" {
		user = os.Getenv(userEnv)
	}
	if password == "" {
		password = os.Getenv(passwordEnv)
	}
	if user == "" || password == "" {
		return "", "", fmt.Errorf("credentials are not set. Use -user/-password flags or %s/%s environment variables", userEnv, passwordEnv)
	}
	return user, password, nil
}

// dial logs into the Comunio API with the configured credentials.
func dial() (*comunio.Client, error) {
	user, password, err := credentials()
	if err != nil {
		return nil, err
	}
	c := comunio.NewClient(*apiURL, nil)
	if err := c.Login(user, password); err != nil {
		return nil, fmt.Errorf("cannot log in as %q: %w", user, err)
	}
	return c, nil
}

func snapshotFile() string   { return filepath.Join(*dataDir, "snapshot.json") }
func valuationsFile() string { return filepath.Join(*dataDir, "valuations.json") }
func eventLogFile() string   { return filepath.Join(*dataDir, "news.json") }

// loadSnapshot loads the squad snapshot from the data folder. A missing
// snapshot degrades to an empty one anchored at the season start: balances
// then rest on the transfer history alone, and rosters only reflect
// transfers.
func loadSnapshot() (*ligaledger.Snapshot, error) {
	snap, err := ligaledger.LoadSnapshot(snapshotFile())
	if errors.Is(err, ligaledger.ErrSnapshotUnavailable) {
		if *seasonFlag == "" {
			return nil, fmt.Errorf("no snapshot at %q: run 'seed' to create one, or set -season to work from the transfer history alone", snapshotFile())
		}
		anchor, perr := date.Parse(*seasonFlag)
		if perr != nil {
			return nil, fmt.Errorf("parsing -season: %w", perr)
		}
		log.Printf("warning: no snapshot at %q, falling back to the transfer history since %s", snapshotFile(), anchor)
		return ligaledger.NewSnapshot(anchor, nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot load snapshot %q: %w", snapshotFile(), err)
	}
	return snap, nil
}

// loadValuations loads the valuation cache, backed by the client for
// fetch-on-miss. A missing file is an empty cache.
func loadValuations(source ligaledger.ValuationSource) (*ligaledger.Valuations, error) {
	return ligaledger.LoadValuations(valuationsFile(), source)
}

// refreshEventLog returns the normalized event log since the given day,
// from the cache when fresh, from the API otherwise.
func refreshEventLog(c *comunio.Client, since date.Date) (*ligaledger.EventLog, error) {
	return ligaledger.RefreshEventLog(eventLogFile(), c.QueryKey(), since, ligaledger.DefaultEventLogTTL, func() (*ligaledger.EventLog, error) {
		return c.EventLogSince(since)
	})
}

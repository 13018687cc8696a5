package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ligatools/ligaledger"
	"github.com/ligatools/ligaledger/agent"
	"github.com/ligatools/ligaledger/comunio"
	"github.com/ligatools/ligaledger/date"
	"github.com/ligatools/ligaledger/renderer"
)

// books backs the assistant's bookkeeper expert.
var _ agent.Books = (*books)(nil)

// Payout per championship point, credited on top of the balance.
const (
	payoutWithSalaries    = 30_000
	payoutWithoutSalaries = 10_000
)

// books bundles everything needed to answer questions about the league:
// the snapshot, the normalized event log, the valuation cache and the
// community metadata. It is the single assembly point shared by the
// reporting subcommands and the AI assistant.
type books struct {
	client *comunio.Client
	snap   *ligaledger.Snapshot
	log    *ligaledger.EventLog
	vals   *ligaledger.Valuations
	rules  comunio.Rules
	rows   []comunio.ManagerRow
}

// openBooks logs in and loads the snapshot, caches and community
// metadata.
func openBooks() (*books, error) {
	client, err := dial()
	if err != nil {
		return nil, err
	}
	snap, err := loadSnapshot()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create data folder: %w", err)
	}
	elog, err := refreshEventLog(client, snap.Anchor())
	if err != nil {
		return nil, fmt.Errorf("cannot get transfer news: %w", err)
	}
	vals, err := loadValuations(client)
	if err != nil {
		return nil, fmt.Errorf("cannot load valuation cache: %w", err)
	}
	rules, err := client.CommunityRules()
	if err != nil {
		return nil, fmt.Errorf("cannot get community rules: %w", err)
	}
	rows, err := client.Standings()
	if err != nil {
		return nil, fmt.Errorf("cannot get standings: %w", err)
	}
	if len(rows) == 0 {
		// Some community setups expose members but no standings yet.
		rows, err = client.Members()
		if err != nil {
			return nil, fmt.Errorf("cannot get community members: %w", err)
		}
	}
	return &books{client: client, snap: snap, log: elog, vals: vals, rules: rules, rows: rows}, nil
}

// close persists the valuation cache, which fetch-on-miss may have
// grown during reporting.
func (b *books) close() error {
	return ligaledger.SaveValuations(valuationsFile(), b.vals)
}

func (b *books) params() ligaledger.SalaryParams {
	return ligaledger.SalaryParams{CutoffHour: b.client.CutoffHour()}
}

func (b *books) names() map[ligaledger.ManagerID]string {
	names := make(map[ligaledger.ManagerID]string, len(b.rows))
	for _, r := range b.rows {
		names[r.ID] = r.Name
	}
	return names
}

// ledger builds the balance ledger: start budget plus transfer deltas
// minus the recomputed salary fees, overridden by authoritative budgets
// where the API discloses them.
func (b *books) ledger() *ligaledger.Ledger {
	l := ligaledger.NewLedger(ligaledger.DefaultStartBudget)
	l.AddDeltas(b.log.TransferDeltas...)
	l.SetFees(ligaledger.ComputeSalaryLedger(b.snap, b.log.TransferEvents, b.log.FeeActiveDays, b.vals, b.params()))
	for _, r := range b.rows {
		if r.HasBudget {
			l.SetAuthoritative(r.ID, r.Budget)
		}
	}
	if b.client.HasBudget {
		l.SetAuthoritative(b.client.UserID, b.client.Budget)
	}
	return l
}

// payoutRate returns the credit per championship point for this
// community.
func (b *books) payoutRate() int64 {
	if b.rules.SalariesEnabled {
		return payoutWithSalaries
	}
	return payoutWithoutSalaries
}

// creditLimit computes the authorized overdraft for a manager, given
// the balance after payout. A disabled credit factor means no credit.
func (b *books) creditLimit(teamValue, balance int64) int64 {
	if b.rules.CreditFactorDisabled {
		return 0
	}
	var base int64
	switch b.rules.CreditFactor {
	case "dynamic":
		base = teamValue / 4
	default:
		n, err := strconv.ParseInt(b.rules.CreditFactor, 10, 64)
		if err != nil {
			return 0
		}
		base = n
	}
	if balance < 0 {
		base += balance
	}
	return base
}

// overview computes the full league table.
func (b *books) overview() []renderer.LeagueRow {
	ledger := b.ledger()
	today := ligaledger.EffectiveToday(time.Now(), b.client.CutoffHour())
	salaries := ligaledger.ComputeDailySalary(b.snap, b.log.TransferEvents, today, b.vals, b.params())

	out := make([]renderer.LeagueRow, 0, len(b.rows))
	for _, r := range b.rows {
		bal := ledger.Balance(r.ID)

		// The authenticated user's own points are not paid out again,
		// their disclosed budget already includes past payouts.
		var payout int64
		if r.ID != b.client.UserID {
			payout = r.Points * b.payoutRate()
		}

		out = append(out, renderer.LeagueRow{
			Name:          r.Name,
			Points:        r.Points,
			TeamValue:     ligaledger.EUR(r.TeamValue),
			Balance:       ligaledger.EUR(bal.Amount),
			Authoritative: bal.Authoritative,
			PointsPayout:  ligaledger.EUR(payout),
			CreditLimit:   ligaledger.EUR(b.creditLimit(r.TeamValue, bal.Amount+payout)),
			SalaryToday:   ligaledger.EUR(salaries[r.ID].Amount),
			Unvalued:      bal.Unvalued,
		})
	}
	return out
}

// leagueName falls back to a generic title for communities that do not
// disclose their name.
func (b *books) leagueName() string {
	if b.rules.LeagueName != "" {
		return b.rules.LeagueName
	}
	if b.client.CommunityName != "" {
		return b.client.CommunityName
	}
	return "League"
}

// LeagueMarkdown implements agent.Books.
func (b *books) LeagueMarkdown(_ context.Context) (string, error) {
	return renderer.LeagueMarkdown(b.leagueName(), b.overview()), nil
}

// RosterMarkdown implements agent.Books.
func (b *books) RosterMarkdown(_ context.Context, on date.Date) (string, error) {
	rosters := b.snap.RosterAt(b.log.TransferEvents, on)
	// The market account accumulates every asset sold back to the platform;
	// it is bookkeeping, not a manager.
	delete(rosters, ligaledger.SystemManager)
	return renderer.RosterMarkdown(on, rosters, b.names()), nil
}

// SalaryMarkdown implements agent.Books.
func (b *books) SalaryMarkdown(_ context.Context, since date.Date) (string, error) {
	var days []date.Date
	for _, d := range b.log.FeeActiveDays {
		if !d.Before(since) {
			days = append(days, d)
		}
	}
	fees := ligaledger.ComputeSalaryLedger(b.snap, b.log.TransferEvents, days, b.vals, b.params())
	return renderer.SalaryMarkdown(since, len(days), fees, b.names()), nil
}

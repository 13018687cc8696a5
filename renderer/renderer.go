// Package renderer turns core results into markdown reports for terminal
// display.
package renderer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ligatools/ligaledger"
	"github.com/ligatools/ligaledger/date"
)

// LeagueRow is one rendered line of the league overview, fully resolved:
// balance precedence, payout and credit enrichment already applied by the
// caller.
type LeagueRow struct {
	Name          string
	Points        int64
	TeamValue     ligaledger.Money
	Balance       ligaledger.Money
	Authoritative bool
	PointsPayout  ligaledger.Money
	CreditLimit   ligaledger.Money
	SalaryToday   ligaledger.Money
	Unvalued      int
}

// LeagueMarkdown renders the full league overview table. Rows print in the
// given order; the caller sorts.
func LeagueMarkdown(leagueName string, rows []LeagueRow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", leagueName)
	fmt.Fprintln(&b, "| Manager | Points | Team Value | Balance | Payout | Credit Limit | Salary/Day |")
	fmt.Fprintln(&b, "|:---|---:|---:|---:|---:|---:|---:|")
	for _, r := range rows {
		balance := r.Balance.String()
		if !r.Authoritative {
			balance = "~" + balance
		}
		if r.Unvalued > 0 {
			balance += fmt.Sprintf(" (?%d)", r.Unvalued)
		}
		fmt.Fprintf(&b, "| %s | %d | %s | %s | %s | %s | %s |\n",
			r.Name,
			r.Points,
			r.TeamValue,
			balance,
			r.PointsPayout.SignedString(),
			r.CreditLimit,
			r.SalaryToday,
		)
	}
	b.WriteString("\n_~ derived balance, (?n) value-days with unknown market value_\n")
	return b.String()
}

// RosterMarkdown renders every manager's reconstructed roster on a day.
// names maps manager ids to display names; unnamed managers print their id.
func RosterMarkdown(on date.Date, rosters ligaledger.Roster, names map[ligaledger.ManagerID]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Rosters on %s\n\n", on)
	fmt.Fprintln(&b, "| Manager | Assets | Asset IDs |")
	fmt.Fprintln(&b, "|:---|---:|:---|")

	for _, m := range sortedManagers(rosters) {
		ids := rosters[m].IDs()
		parts := make([]string, len(ids))
		for i, id := range ids {
			parts[i] = fmt.Sprint(id)
		}
		fmt.Fprintf(&b, "| %s | %d | %s |\n", managerName(m, names), len(ids), strings.Join(parts, ", "))
	}
	return b.String()
}

// SalaryMarkdown renders accumulated fee liability per manager.
func SalaryMarkdown(since date.Date, days int, fees map[ligaledger.ManagerID]ligaledger.FeeTotal, names map[ligaledger.ManagerID]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Salary ledger since %s (%d fee days)\n\n", since, days)
	fmt.Fprintln(&b, "| Manager | Total Fees | Unvalued Days |")
	fmt.Fprintln(&b, "|:---|---:|---:|")

	managers := make([]ligaledger.ManagerID, 0, len(fees))
	for m := range fees {
		managers = append(managers, m)
	}
	sort.Slice(managers, func(i, j int) bool { return managers[i] < managers[j] })
	for _, m := range managers {
		f := fees[m]
		unvalued := "-"
		if f.Unvalued > 0 {
			unvalued = fmt.Sprint(f.Unvalued)
		}
		fmt.Fprintf(&b, "| %s | %s | %s |\n", managerName(m, names), ligaledger.EUR(f.Amount), unvalued)
	}
	return b.String()
}

func sortedManagers(rosters ligaledger.Roster) []ligaledger.ManagerID {
	ms := make([]ligaledger.ManagerID, 0, len(rosters))
	for m := range rosters {
		ms = append(ms, m)
	}
	sort.Slice(ms, func(i, j int) bool { return ms[i] < ms[j] })
	return ms
}

func managerName(m ligaledger.ManagerID, names map[ligaledger.ManagerID]string) string {
	if name, ok := names[m]; ok && name != "" {
		return name
	}
	return fmt.Sprintf("manager %d", m)
}

package renderer

import (
	"strings"
	"testing"

	"github.com/ligatools/ligaledger"
	"github.com/ligatools/ligaledger/date"
)

func TestLeagueMarkdown(t *testing.T) {
	rows := []LeagueRow{
		{
			Name:          "alice",
			Points:        120,
			TeamValue:     ligaledger.EUR(52_000_000),
			Balance:       ligaledger.EUR(3_200_000),
			Authoritative: true,
			PointsPayout:  ligaledger.EUR(3_600_000),
			CreditLimit:   ligaledger.EUR(13_000_000),
			SalaryToday:   ligaledger.EUR(14_200),
		},
		{
			Name:     "bob",
			Balance:  ligaledger.EUR(-500_000),
			Unvalued: 2,
		},
	}

	got := LeagueMarkdown("Testliga", rows)

	if !strings.HasPrefix(got, "# Testliga\n") {
		t.Errorf("missing league title:\n%s", got)
	}
	if !strings.Contains(got, "| alice | 120 |") {
		t.Errorf("missing alice row:\n%s", got)
	}
	// Derived balances are marked, and unknown value-days are surfaced.
	if !strings.Contains(got, "(?2)") || !strings.Contains(got, "~") {
		t.Errorf("derived balance markers missing:\n%s", got)
	}
}

func TestRosterMarkdown(t *testing.T) {
	rosters := ligaledger.Roster{
		10: ligaledger.NewAssetSet(7, 5),
		20: ligaledger.NewAssetSet(3),
	}
	names := map[ligaledger.ManagerID]string{10: "alice"}

	got := RosterMarkdown(date.MustParse("2025-06-02"), rosters, names)

	if !strings.Contains(got, "| alice | 2 | 5, 7 |") {
		t.Errorf("alice row missing or unsorted:\n%s", got)
	}
	if !strings.Contains(got, "| manager 20 | 1 | 3 |") {
		t.Errorf("unnamed manager fallback missing:\n%s", got)
	}
}

func TestSalaryMarkdown(t *testing.T) {
	fees := map[ligaledger.ManagerID]ligaledger.FeeTotal{
		10: {Amount: 61830},
		20: {Amount: 1200, Unvalued: 1},
	}

	got := SalaryMarkdown(date.MustParse("2025-05-27"), 5, fees, nil)

	if !strings.Contains(got, "since 2025-05-27 (5 fee days)") {
		t.Errorf("title missing:\n%s", got)
	}
	if !strings.Contains(got, "| manager 20 |") || !strings.Contains(got, "| 1 |") {
		t.Errorf("unvalued count missing:\n%s", got)
	}
}

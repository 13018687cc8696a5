package ligaledger

import (
	"time"

	"github.com/ligatools/ligaledger/date"
)

// DefaultCutoffHour is the league default settlement boundary: events before
// 04:00 league time belong to the previous business day.
const DefaultCutoffHour = 4

// LeagueLocation is the wall clock the cutoff rules are defined in. Feed
// timestamps carry fixed numeric offsets; around a DST change those disagree
// with the league clock, so boundary decisions always convert here first.
var LeagueLocation = loadLeagueLocation()

func loadLeagueLocation() *time.Location {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		return time.FixedZone("CET", 3600)
	}
	return loc
}

// SettlementDate maps an instant to the business day it settles on: before
// the cutoff hour, league time, the instant still belongs to the previous
// day. Every component uses this single rule so they all agree on what
// "day" an event belongs to.
func SettlementDate(t time.Time, cutoffHour int) date.Date {
	t = t.In(LeagueLocation)
	if t.Hour() < cutoffHour {
		return date.Of(t).Add(-1)
	}
	return date.Of(t)
}

// EffectiveToday applies the settlement rule to the current instant: before
// the cutoff the effective day is still yesterday.
func EffectiveToday(now time.Time, cutoffHour int) date.Date {
	return SettlementDate(now, cutoffHour)
}

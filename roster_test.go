package ligaledger

import (
	"testing"
	"time"

	"github.com/ligatools/ligaledger/date"
)

const (
	alice ManagerID = 10
	bob   ManagerID = 20
	carol ManagerID = 30
)

// at builds an event instant on a given day and hour, league time.
func at(day string, hour int) time.Time {
	return date.MustParse(day).At(hour, LeagueLocation)
}

func squadSnapshot() *Snapshot {
	return NewSnapshot(date.MustParse("2025-05-27"), Roster{
		alice: NewAssetSet(1, 2),
		bob:   NewAssetSet(3),
	})
}

func TestRosterAt_Forward(t *testing.T) {
	snap := squadSnapshot()
	events := []TransferEvent{
		{Time: at("2025-06-01", 10), From: alice, To: bob, Asset: 2},
	}

	got := snap.RosterAt(events, date.MustParse("2025-06-02"))

	want := Roster{alice: NewAssetSet(1), bob: NewAssetSet(2, 3)}
	if !got.Equal(want) {
		t.Errorf("RosterAt() = %v, want %v", got, want)
	}
}

func TestRosterAt_BackwardNoEventsInRange(t *testing.T) {
	snap := squadSnapshot()
	events := []TransferEvent{
		{Time: at("2025-06-01", 10), From: alice, To: bob, Asset: 2},
	}

	got := snap.RosterAt(events, date.MustParse("2025-05-20"))

	if want := snap.Rosters(); !got.Equal(want) {
		t.Errorf("RosterAt() = %v, want unchanged %v", got, want)
	}
}

func TestRosterAt_Backward(t *testing.T) {
	// Before the event, bob owned asset 1 and sold it to alice on the 25th.
	snap := squadSnapshot()
	events := []TransferEvent{
		{Time: at("2025-05-25", 12), From: bob, To: alice, Asset: 1},
	}

	got := snap.RosterAt(events, date.MustParse("2025-05-24"))

	want := Roster{alice: NewAssetSet(2), bob: NewAssetSet(1, 3)}
	if !got.Equal(want) {
		t.Errorf("RosterAt() = %v, want %v", got, want)
	}
}

func TestRosterAt_AnchorIsIdentity(t *testing.T) {
	snap := squadSnapshot()
	events := []TransferEvent{
		// On the anchor day itself: already part of the snapshot, excluded.
		{Time: at("2025-05-27", 9), From: alice, To: bob, Asset: 1},
	}

	got := snap.RosterAt(events, snap.Anchor())

	if want := snap.Rosters(); !got.Equal(want) {
		t.Errorf("RosterAt(anchor) = %v, want %v", got, want)
	}
}

func TestRosterAt_Reversibility(t *testing.T) {
	snap := squadSnapshot()
	events := []TransferEvent{
		{Time: at("2025-05-29", 10), Seq: 0, From: alice, To: bob, Asset: 2},
		{Time: at("2025-05-30", 11), Seq: 1, From: bob, To: carol, Asset: 3},
		{Time: at("2025-06-01", 9), Seq: 2, From: carol, To: alice, Asset: 3},
	}
	target := date.MustParse("2025-06-02")

	forward := snap.RosterAt(events, target)

	// Replaying back from the reconstructed state must land on the original.
	back := NewSnapshot(target, forward).RosterAt(events, snap.Anchor())
	if want := snap.Rosters(); !back.Equal(want) {
		t.Errorf("backward replay = %v, want original %v", back, want)
	}
}

func TestRosterAt_TimestampTies(t *testing.T) {
	// Two events at the same instant: the asset passes through bob, so seq
	// order decides carol ends up with it.
	snap := squadSnapshot()
	tie := at("2025-05-28", 14)
	events := []TransferEvent{
		{Time: tie, Seq: 1, From: bob, To: carol, Asset: 2},
		{Time: tie, Seq: 0, From: alice, To: bob, Asset: 2},
	}

	got := snap.RosterAt(events, date.MustParse("2025-05-29"))

	want := Roster{alice: NewAssetSet(1), bob: NewAssetSet(3), carol: NewAssetSet(2)}
	if !got.Equal(want) {
		t.Errorf("RosterAt() = %v, want %v", got, want)
	}
}

func TestRosterAt_InconsistentEventDiverges(t *testing.T) {
	// carol never owned asset 1: the removal is a no-op but the asset is
	// still handed to bob, duplicating ownership. The engine surfaces the
	// divergence instead of repairing it.
	snap := squadSnapshot()
	events := []TransferEvent{
		{Time: at("2025-05-28", 10), From: carol, To: bob, Asset: 1},
	}

	got := snap.RosterAt(events, date.MustParse("2025-05-29"))

	if !got[alice].Has(1) || !got[bob].Has(1) {
		t.Errorf("RosterAt() = %v, want asset 1 held by both alice and bob", got)
	}
}

func TestRosterAtCutoff(t *testing.T) {
	snap := squadSnapshot()
	target := date.MustParse("2025-06-02")

	tests := []struct {
		name string
		hour int
		want Roster
	}{
		{"before cutoff counts", 3, Roster{alice: NewAssetSet(1), bob: NewAssetSet(2, 3)}},
		{"after cutoff excluded", 5, Roster{alice: NewAssetSet(1, 2), bob: NewAssetSet(3)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := []TransferEvent{
				{Time: at("2025-06-02", tt.hour), From: alice, To: bob, Asset: 2},
			}
			got := snap.RosterAtCutoff(events, target, 4)
			if !got.Equal(tt.want) {
				t.Errorf("RosterAtCutoff() = %v, want %v", got, tt.want)
			}
		})
	}
}

// The cutoff boundary is a league-clock instant, not one in the event's own
// offset: a winter-day event stamped with a stale summer offset must still
// land on the right side of the boundary.
func TestRosterAtCutoff_StaleEventOffset(t *testing.T) {
	snap := NewSnapshot(date.MustParse("2025-01-10"), Roster{
		alice: NewAssetSet(1),
	})
	// 04:30+02:00 is 03:30 league time in January, before the cutoff.
	stamp := time.Date(2025, time.January, 15, 4, 30, 0, 0, time.FixedZone("", 2*3600))
	events := []TransferEvent{
		{Time: stamp, From: alice, To: bob, Asset: 1},
	}

	got := snap.RosterAtCutoff(events, date.MustParse("2025-01-15"), 4)

	want := Roster{alice: NewAssetSet(), bob: NewAssetSet(1)}
	if !got.Equal(want) {
		t.Errorf("RosterAtCutoff() = %v, want %v", got, want)
	}
}

func TestRosterAt_DoesNotMutate(t *testing.T) {
	snap := squadSnapshot()
	events := []TransferEvent{
		{Time: at("2025-05-28", 10), From: alice, To: bob, Asset: 1},
		{Time: at("2025-05-29", 10), From: bob, To: carol, Asset: 3},
	}
	before := snap.Rosters()

	snap.RosterAt(events, date.MustParse("2025-06-02"))
	snap.RosterAt(events, date.MustParse("2025-05-20"))

	if got := snap.Rosters(); !got.Equal(before) {
		t.Errorf("snapshot mutated by replay: %v, want %v", got, before)
	}
}

func TestRoster_Equal(t *testing.T) {
	a := Roster{alice: NewAssetSet(1), bob: NewAssetSet()}
	b := Roster{alice: NewAssetSet(1)}
	if !a.Equal(b) || !b.Equal(a) {
		t.Errorf("empty set and absent manager should compare equal")
	}

	c := Roster{alice: NewAssetSet(1), bob: NewAssetSet(2)}
	if a.Equal(c) || c.Equal(a) {
		t.Errorf("Equal() ignored bob's asset")
	}
}

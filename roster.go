package ligaledger

import (
	"slices"

	"github.com/ligatools/ligaledger/date"
)

// ManagerID identifies a league manager. The feed provider assigns it.
type ManagerID int64

// AssetID identifies a tradable asset. The feed provider assigns it.
type AssetID int64

// AssetSet is the set of assets a manager owns at some instant.
type AssetSet map[AssetID]struct{}

// NewAssetSet returns a set holding the given assets.
func NewAssetSet(ids ...AssetID) AssetSet {
	s := make(AssetSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether the set contains the asset.
func (s AssetSet) Has(id AssetID) bool { _, ok := s[id]; return ok }

// Add inserts the asset. Adding an asset already present is a no-op.
func (s AssetSet) Add(id AssetID) { s[id] = struct{}{} }

// Remove deletes the asset. Removing an absent asset is a no-op.
func (s AssetSet) Remove(id AssetID) { delete(s, id) }

// Clone returns an independent copy of the set.
func (s AssetSet) Clone() AssetSet {
	c := make(AssetSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

// IDs returns the assets in ascending order.
func (s AssetSet) IDs() []AssetID {
	ids := make([]AssetID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Roster maps every manager to the set of assets they own.
type Roster map[ManagerID]AssetSet

// Clone returns a deep copy of the roster.
func (r Roster) Clone() Roster {
	c := make(Roster, len(r))
	for m, s := range r {
		c[m] = s.Clone()
	}
	return c
}

// Equal reports whether two rosters assign the same assets to the same
// managers. A manager holding no assets is indistinguishable from an absent
// manager: replay creates empty sets as a side effect and they carry no
// ownership information.
func (r Roster) Equal(o Roster) bool {
	for m, s := range r {
		os := o[m]
		if len(s) != len(os) {
			return false
		}
		for id := range s {
			if !os.Has(id) {
				return false
			}
		}
	}
	for m, s := range o {
		if len(s) > 0 {
			if _, ok := r[m]; !ok {
				return false
			}
		}
	}
	return true
}

// Snapshot is a trusted roster state anchored to one specific date. It is
// the single source of ground truth at its anchor date, curated by an
// operator and never mutated by replay.
type Snapshot struct {
	anchor  date.Date
	rosters Roster
}

// NewSnapshot builds a snapshot from an anchor date and a roster mapping.
// The roster is deep-copied so later mutations of the argument cannot leak
// into the snapshot.
func NewSnapshot(anchor date.Date, rosters Roster) *Snapshot {
	return &Snapshot{anchor: anchor, rosters: rosters.Clone()}
}

// Anchor returns the snapshot's anchor date.
func (s *Snapshot) Anchor() date.Date { return s.anchor }

// Managers returns the managers present in the snapshot, in ascending order.
func (s *Snapshot) Managers() []ManagerID {
	ms := make([]ManagerID, 0, len(s.rosters))
	for m := range s.rosters {
		ms = append(ms, m)
	}
	slices.Sort(ms)
	return ms
}

// Rosters returns a deep copy of the snapshot's roster mapping.
func (s *Snapshot) Rosters() Roster { return s.rosters.Clone() }

// RosterAt reconstructs every manager's roster at the end of target day by
// replaying events forward or backward from the anchor.
//
// For target >= anchor the events with anchor < day <= target are applied
// in ascending (time, seq) order: the asset leaves the source manager's set
// and joins the destination's. For target < anchor the events with
// target < day <= anchor are applied in descending order with the inverse
// transform. Per-event application is idempotent: removing an absent asset
// or adding a present one is a no-op, so an event log inconsistent with the
// snapshot degrades the result but never fails.
//
// The method never mutates the snapshot or the events slice; the result for
// target == anchor is the snapshot itself.
func (s *Snapshot) RosterAt(events []TransferEvent, target date.Date) Roster {
	return s.reconstruct(events, target, -1)
}

// RosterAtCutoff reconstructs rosters as they stood at the cutoff hour of
// target day: only events strictly before (target, cutoffHour) count. A fee
// debit observed on day d reflects the roster at the cutoff boundary of d,
// not the start of d, which is why the salary ledger replays with this
// variant. Backward targets ignore the cutoff, matching the bare-date rule.
func (s *Snapshot) RosterAtCutoff(events []TransferEvent, target date.Date, cutoffHour int) Roster {
	return s.reconstruct(events, target, cutoffHour)
}

// reconstruct implements both replay directions. cutoffHour < 0 means end
// of day.
func (s *Snapshot) reconstruct(events []TransferEvent, target date.Date, cutoffHour int) Roster {
	rosters := s.rosters.Clone()

	if !target.Before(s.anchor) {
		selected := make([]TransferEvent, 0, len(events))
		for _, e := range events {
			day := e.Day()
			if !day.After(s.anchor) {
				continue
			}
			if cutoffHour >= 0 {
				// Instant comparison against the cutoff boundary of the
				// target day, built on the league clock. The event's own
				// offset is not trusted near a DST change.
				if !e.Time.Before(target.At(cutoffHour, LeagueLocation)) {
					continue
				}
			} else if day.After(target) {
				continue
			}
			selected = append(selected, e)
		}
		slices.SortStableFunc(selected, compareEvents)
		for _, e := range selected {
			ensure(rosters, e.From).Remove(e.Asset)
			ensure(rosters, e.To).Add(e.Asset)
		}
		return rosters
	}

	// Backward replay: undo events in reverse order.
	selected := make([]TransferEvent, 0, len(events))
	for _, e := range events {
		day := e.Day()
		if day.After(target) && !day.After(s.anchor) {
			selected = append(selected, e)
		}
	}
	slices.SortStableFunc(selected, func(a, b TransferEvent) int { return compareEvents(b, a) })
	for _, e := range selected {
		ensure(rosters, e.To).Remove(e.Asset)
		ensure(rosters, e.From).Add(e.Asset)
	}
	return rosters
}

// ensure returns the manager's set, creating an empty one if absent.
func ensure(r Roster, m ManagerID) AssetSet {
	s, ok := r[m]
	if !ok {
		s = make(AssetSet)
		r[m] = s
	}
	return s
}

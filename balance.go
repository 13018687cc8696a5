package ligaledger

import (
	"slices"

	"github.com/samber/lo"
)

// DefaultStartBudget is the budget every manager starts the season with,
// in euros.
const DefaultStartBudget = 40_000_000

// Ledger accumulates, per manager, the ingredients of a balance: signed
// transfer deltas, cumulative fee liability, and the occasional
// authoritative balance reported by the feed. It is derived state,
// recomputed on demand; nothing here is ground truth.
type Ledger struct {
	startBudget   int64
	system        ManagerID
	deltas        map[ManagerID]int64
	fees          map[ManagerID]FeeTotal
	authoritative map[ManagerID]int64
}

// NewLedger returns an empty ledger with the given starting budget per
// manager.
func NewLedger(startBudget int64) *Ledger {
	return &Ledger{
		startBudget:   startBudget,
		system:        SystemManager,
		deltas:        make(map[ManagerID]int64),
		fees:          make(map[ManagerID]FeeTotal),
		authoritative: make(map[ManagerID]int64),
	}
}

// StartBudget returns the configured starting budget.
func (l *Ledger) StartBudget() int64 { return l.startBudget }

// AddDeltas accumulates signed transfer amounts. Deltas attributed to the
// system manager are dropped.
func (l *Ledger) AddDeltas(deltas ...Delta) {
	for _, d := range deltas {
		if d.Manager == l.system {
			continue
		}
		l.deltas[d.Manager] += d.Amount
	}
}

// SetFees installs the cumulative fee liability, replacing any previous one.
func (l *Ledger) SetFees(fees map[ManagerID]FeeTotal) {
	l.fees = make(map[ManagerID]FeeTotal, len(fees))
	for m, f := range fees {
		if m == l.system {
			continue
		}
		l.fees[m] = f
	}
}

// SetAuthoritative records a ground-truth balance reported by the feed for
// one manager. It takes precedence over everything derived.
func (l *Ledger) SetAuthoritative(m ManagerID, amount int64) {
	l.authoritative[m] = amount
}

// NetTransferDelta returns the manager's signed transfer total: positive
// when selling more than buying.
func (l *Ledger) NetTransferDelta(m ManagerID) int64 { return l.deltas[m] }

// CumulativeFee returns the manager's accumulated fee liability.
func (l *Ledger) CumulativeFee(m ManagerID) FeeTotal { return l.fees[m] }

// Balance is a manager's resolved account balance. Authoritative marks a
// figure taken verbatim from the feed; Unvalued carries through the count of
// asset-days whose fee share is unknown, zero for authoritative figures.
type Balance struct {
	Amount        int64
	Authoritative bool
	Unvalued      int
}

// Balance resolves one manager's balance. An authoritative figure replaces
// the derived computation entirely; otherwise
//
//	balance = startBudget + netTransferDelta - cumulativeFee.
//
// Downstream enrichment, points payout or credit limits, is a caller
// concern.
func (l *Ledger) Balance(m ManagerID) Balance {
	if amount, ok := l.authoritative[m]; ok {
		return Balance{Amount: amount, Authoritative: true}
	}
	fee := l.fees[m]
	return Balance{
		Amount:   l.startBudget + l.deltas[m] - fee.Amount,
		Unvalued: fee.Unvalued,
	}
}

// Managers returns every manager the ledger knows about, ascending, system
// account excluded.
func (l *Ledger) Managers() []ManagerID {
	ms := lo.Uniq(slices.Concat(lo.Keys(l.deltas), lo.Keys(l.fees), lo.Keys(l.authoritative)))
	ms = lo.Without(ms, l.system)
	slices.Sort(ms)
	return ms
}

package ligaledger

import "github.com/ligatools/ligaledger/date"

// ValuationRecord is one observed market value. Once observed, the value for
// a given (asset, day) never changes, which is what makes unbounded caching
// safe.
type ValuationRecord struct {
	Day   date.Date
	Value int64
}

// ValuationSource fetches an asset's full valuation history from the feed
// provider. The lookback is bounded by the provider (about a year).
type ValuationSource interface {
	ValuationHistory(asset AssetID) ([]ValuationRecord, error)
}

// Feed is the collaborator contract the core consumes. The adapter owns the
// translation from the provider's wire format; the core never branches on
// provider-specific shapes.
type Feed interface {
	ValuationSource

	// TransferEventsSince returns all ownership transfers observed since the
	// given settlement day, in retrieval order with Seq assigned. skipped
	// counts entries dropped for missing required fields.
	TransferEventsSince(since date.Date) (events []TransferEvent, skipped int, err error)

	// FeeActiveDaysSince returns the settlement days on which a holding-fee
	// debit was actually observed. Fees can be toggled league-wide at any
	// time; only observed debit days count. An optional scope restricts the
	// scan to debits booked against the given managers.
	FeeActiveDaysSince(since date.Date, scope ...ManagerID) ([]date.Date, error)
}

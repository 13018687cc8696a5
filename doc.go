// Package ligaledger reconstructs, for each manager of a closed fantasy
// league, the roster of owned assets and the running financial ledger at any
// point in time. The league platform exposes neither historical rosters nor
// a full transaction ledger, so both are derived from a small number of
// operator-curated roster snapshots and an append-only feed of transfer and
// debit events.
//
// The core functionalities include:
//   - Roster Reconstruction: bidirectional replay of transfer events from
//     the nearest snapshot, forward or backward in time.
//   - Settlement Mapping: attributing each event to a business day using a
//     league-configurable cutoff hour.
//   - Valuation Cache: an append-only per-asset, per-day market-value store
//     with fetch-on-miss and nearest-past fallback.
//   - Salary Ledger: per-day, per-manager holding fees computed from
//     reconstructed rosters and historical valuations.
//   - Balance Aggregation: start budget, net transfer spending, cumulative
//     fees, and authoritative overrides merged into a per-manager balance.
//
// This package serves as the foundational logic for the `llt` command-line
// tool. Translation from the feed provider's wire format lives in the
// comunio subpackage; the core only ever sees the normalized types defined
// here.
package ligaledger

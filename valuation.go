package ligaledger

import (
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"

	"github.com/ligatools/ligaledger/date"
)

// ErrNegativeValuation reports a market value below zero, an invariant
// violation the feed should never produce. It aborts the single computation
// that observed it.
var ErrNegativeValuation = errors.New("negative valuation")

// Valuations is the per-asset, per-day market-value cache. Values are
// piecewise-constant between observed points, so a lookup falls back to the
// nearest past day; a full miss fetches the asset's history from the source
// and retries. Past valuations never change, so the cache is append-only and
// safe to reuse and pre-warm indefinitely.
//
// The cache is an explicit object with an owning scope: load it at the start
// of a batch of work, pass it by reference, save it once at the end. Merges
// are serialized by an internal mutex so the fetch-on-miss path may run with
// bounded parallelism.
type Valuations struct {
	mu        sync.Mutex
	histories map[AssetID]*date.History[int64]
	fetched   map[AssetID]bool // assets already fetched from source this run
	source    ValuationSource  // nil disables fetch-on-miss
}

// NewValuations returns an empty cache. source may be nil, in which case a
// miss is final.
func NewValuations(source ValuationSource) *Valuations {
	return &Valuations{
		histories: make(map[AssetID]*date.History[int64]),
		fetched:   make(map[AssetID]bool),
		source:    source,
	}
}

// Len returns the number of cached points across all assets.
func (v *Valuations) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := 0
	for _, h := range v.histories {
		n += h.Len()
	}
	return n
}

// Assets returns the cached asset ids in ascending order.
func (v *Valuations) Assets() []AssetID {
	v.mu.Lock()
	defer v.mu.Unlock()
	ids := make([]AssetID, 0, len(v.histories))
	for id := range v.histories {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Records returns the asset's cached points in chronological order.
func (v *Valuations) Records(asset AssetID) []ValuationRecord {
	v.mu.Lock()
	defer v.mu.Unlock()
	h, ok := v.histories[asset]
	if !ok {
		return nil
	}
	records := make([]ValuationRecord, 0, h.Len())
	for day, value := range h.Values() {
		records = append(records, ValuationRecord{Day: day, Value: value})
	}
	return records
}

// Merge records one observed value. Entries are only ever appended; merging
// the same point twice is harmless, which keeps parallel fetches
// order-independent.
func (v *Valuations) Merge(asset AssetID, on date.Date, value int64) error {
	if value < 0 {
		return fmt.Errorf("asset %d on %s: value %d: %w", asset, on, value, ErrNegativeValuation)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.history(asset).Append(on, value)
	return nil
}

// history returns the asset's history, creating it if needed. Callers hold mu.
func (v *Valuations) history(asset AssetID) *date.History[int64] {
	h, ok := v.histories[asset]
	if !ok {
		h = new(date.History[int64])
		v.histories[asset] = h
	}
	return h
}

// lookup resolves a value from the cache alone. Callers hold mu.
func (v *Valuations) lookup(asset AssetID, on date.Date) (int64, bool) {
	h, ok := v.histories[asset]
	if !ok {
		return 0, false
	}
	if value, ok := h.Get(on); ok {
		return value, true
	}
	return h.ValueAsOf(on)
}

// ValueOn returns the asset's market value on the given day.
//
// Lookup order: exact day, then the latest cached day on or before it, then
// a fetch of the asset's full history from the source followed by a retry.
// The second return is false when no usable point exists, so "no data" is
// distinguishable from a legitimate zero value. A fetch failure is recovered
// locally: the existing cache contents stand and a warning is logged.
func (v *Valuations) ValueOn(asset AssetID, on date.Date) (int64, bool) {
	v.mu.Lock()
	if value, ok := v.lookup(asset, on); ok {
		v.mu.Unlock()
		return value, true
	}
	if v.source == nil || v.fetched[asset] {
		v.mu.Unlock()
		return 0, false
	}
	// Mark before fetching: a failed fetch should not be retried on every
	// asset-day of the same batch.
	v.fetched[asset] = true
	v.mu.Unlock()

	if err := v.fetch(asset); err != nil {
		log.Printf("warning: could not fetch valuation history for asset %d: %v", asset, err)
		return 0, false
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lookup(asset, on)
}

// fetch pulls the asset's history from the source and merges every point.
func (v *Valuations) fetch(asset AssetID) error {
	records, err := v.source.ValuationHistory(asset)
	if err != nil {
		return err
	}
	var errs error
	for _, rec := range records {
		errs = errors.Join(errs, v.Merge(asset, rec.Day, rec.Value))
	}
	return errs
}

// Warm pre-fetches the histories of all given assets with at most
// parallelism concurrent fetches. Histories are independent and merges are
// idempotent, so the pool changes nothing about correctness. Fetch failures
// are logged and counted, not fatal; the returned error only reports
// invariant violations in fetched data.
func (v *Valuations) Warm(assets []AssetID, parallelism int) error {
	if parallelism < 1 {
		parallelism = 1
	}

	v.mu.Lock()
	pending := make([]AssetID, 0, len(assets))
	for _, asset := range assets {
		if !v.fetched[asset] {
			v.fetched[asset] = true
			pending = append(pending, asset)
		}
	}
	v.mu.Unlock()
	if v.source == nil || len(pending) == 0 {
		return nil
	}

	var (
		wg     sync.WaitGroup
		errMu  sync.Mutex
		errs   error
		failed int
		queue  = make(chan AssetID)
	)
	for range parallelism {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for asset := range queue {
				if err := v.fetch(asset); err != nil {
					errMu.Lock()
					if errors.Is(err, ErrNegativeValuation) {
						errs = errors.Join(errs, err)
					} else {
						failed++
						log.Printf("warning: could not warm valuations for asset %d: %v", asset, err)
					}
					errMu.Unlock()
				}
			}
		}()
	}
	for _, asset := range pending {
		queue <- asset
	}
	close(queue)
	wg.Wait()

	if failed > 0 {
		log.Printf("warning: valuation warm-up: %d of %d assets could not be fetched", failed, len(pending))
	}
	return errs
}

package ligaledger

import (
	"errors"
	"sync"
	"testing"

	"github.com/ligatools/ligaledger/date"
)

// stubSource is a ValuationSource serving canned histories and counting
// calls.
type stubSource struct {
	mu        sync.Mutex
	calls     int
	histories map[AssetID][]ValuationRecord
	err       error
}

func (s *stubSource) ValuationHistory(asset AssetID) ([]ValuationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.histories[asset], nil
}

func (s *stubSource) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestValueOn_ExactDay(t *testing.T) {
	vals := NewValuations(nil)
	if err := vals.Merge(7, date.MustParse("2025-06-01"), 50000); err != nil {
		t.Fatal(err)
	}

	got, ok := vals.ValueOn(7, date.MustParse("2025-06-01"))
	if !ok || got != 50000 {
		t.Errorf("ValueOn() = %d, %v, want 50000, true", got, ok)
	}
}

func TestValueOn_NearestPast(t *testing.T) {
	source := &stubSource{}
	vals := NewValuations(source)
	if err := vals.Merge(7, date.MustParse("2025-06-01"), 50000); err != nil {
		t.Fatal(err)
	}

	got, ok := vals.ValueOn(7, date.MustParse("2025-06-03"))
	if !ok || got != 50000 {
		t.Errorf("ValueOn() = %d, %v, want 50000, true", got, ok)
	}
	if source.count() != 0 {
		t.Errorf("nearest-past hit triggered %d fetches, want 0", source.count())
	}
}

func TestValueOn_FetchOnMiss(t *testing.T) {
	source := &stubSource{histories: map[AssetID][]ValuationRecord{
		7: {
			{Day: date.MustParse("2025-05-20"), Value: 40000},
			{Day: date.MustParse("2025-06-01"), Value: 50000},
		},
	}}
	vals := NewValuations(source)

	got, ok := vals.ValueOn(7, date.MustParse("2025-06-02"))
	if !ok || got != 50000 {
		t.Errorf("ValueOn() = %d, %v, want 50000, true", got, ok)
	}
	if source.count() != 1 {
		t.Fatalf("ValueOn() made %d fetches, want 1", source.count())
	}

	// Second lookup is served from the merged cache.
	if _, ok := vals.ValueOn(7, date.MustParse("2025-05-21")); !ok {
		t.Errorf("cached history lookup failed")
	}
	if source.count() != 1 {
		t.Errorf("cache hit made %d fetches, want 1", source.count())
	}
}

func TestValueOn_UnknownIsExplicit(t *testing.T) {
	source := &stubSource{histories: map[AssetID][]ValuationRecord{}}
	vals := NewValuations(source)

	got, ok := vals.ValueOn(9, date.MustParse("2025-06-01"))
	if ok || got != 0 {
		t.Errorf("ValueOn() = %d, %v, want 0, false", got, ok)
	}

	// A failed or empty fetch is not retried within the same batch.
	vals.ValueOn(9, date.MustParse("2025-06-02"))
	if source.count() != 1 {
		t.Errorf("miss refetched: %d fetches, want 1", source.count())
	}
}

func TestValueOn_FetchErrorRecovered(t *testing.T) {
	source := &stubSource{err: errors.New("boom")}
	vals := NewValuations(source)
	if err := vals.Merge(7, date.MustParse("2025-05-01"), 30000); err != nil {
		t.Fatal(err)
	}

	// The fallback value stands even though the source is broken.
	got, ok := vals.ValueOn(7, date.MustParse("2025-06-01"))
	if !ok || got != 30000 {
		t.Errorf("ValueOn() = %d, %v, want 30000, true", got, ok)
	}

	if _, ok := vals.ValueOn(8, date.MustParse("2025-06-01")); ok {
		t.Errorf("ValueOn() reported a value from a failed fetch")
	}
}

func TestMerge_RejectsNegative(t *testing.T) {
	vals := NewValuations(nil)
	err := vals.Merge(7, date.MustParse("2025-06-01"), -1)
	if !errors.Is(err, ErrNegativeValuation) {
		t.Errorf("Merge(-1) error = %v, want ErrNegativeValuation", err)
	}
	if vals.Len() != 0 {
		t.Errorf("rejected value was cached anyway")
	}
}

func TestWarm(t *testing.T) {
	histories := make(map[AssetID][]ValuationRecord)
	assets := make([]AssetID, 0, 20)
	for id := AssetID(1); id <= 20; id++ {
		histories[id] = []ValuationRecord{{Day: date.MustParse("2025-06-01"), Value: int64(id) * 1000}}
		assets = append(assets, id)
	}
	source := &stubSource{histories: histories}
	vals := NewValuations(source)

	if err := vals.Warm(assets, 4); err != nil {
		t.Fatalf("Warm() error = %v", err)
	}
	if source.count() != len(assets) {
		t.Errorf("Warm() made %d fetches, want %d", source.count(), len(assets))
	}
	if got := len(vals.Assets()); got != len(assets) {
		t.Errorf("Warm() cached %d assets, want %d", got, len(assets))
	}

	// Warming again fetches nothing.
	if err := vals.Warm(assets, 4); err != nil {
		t.Fatalf("Warm() error = %v", err)
	}
	if source.count() != len(assets) {
		t.Errorf("second Warm() made %d fetches, want %d", source.count(), len(assets))
	}
}

func TestWarm_FetchFailuresNotFatal(t *testing.T) {
	source := &stubSource{err: errors.New("feed down")}
	vals := NewValuations(source)

	if err := vals.Warm([]AssetID{1, 2, 3}, 2); err != nil {
		t.Errorf("Warm() error = %v, want nil for plain fetch failures", err)
	}
}

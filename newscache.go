package ligaledger

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ligatools/ligaledger/date"
)

// DefaultEventLogTTL is how long a cached event log stays usable before a
// refetch is forced.
const DefaultEventLogTTL = time.Hour

// EventLog is everything one feed query yields, cached as a unit. The feed's
// event stream is slow to page through, so results are kept on disk and
// reused while fresh; the cache never merges, a refetch replaces it
// wholesale.
type EventLog struct {
	// SourceQueryKey identifies the account and community the log was
	// fetched for. A cache written for one key is invalid for another.
	SourceQueryKey string          `json:"source_query_key"`
	FetchedAt      time.Time       `json:"fetched_at"`
	Since          date.Date       `json:"since_date"`
	TransferEvents []TransferEvent `json:"transfer_events"`
	TransferDeltas []Delta         `json:"transfer_deltas"`
	BalanceDeltas  []Delta         `json:"balance_deltas,omitempty"`
	FeeActiveDays  []date.Date     `json:"fee_active_days"`
	// Skipped counts feed entries dropped as malformed during the fetch.
	Skipped int `json:"skipped,omitempty"`
}

// Valid reports whether the cached log can stand in for a fresh fetch of
// (key, since) at the given instant.
func (e *EventLog) Valid(key string, since date.Date, now time.Time, ttl time.Duration) bool {
	if e == nil {
		return false
	}
	if e.SourceQueryKey != key || e.Since != since {
		return false
	}
	return now.Sub(e.FetchedAt) < ttl
}

// LoadEventLog reads a cached event log. A missing file yields nil, which
// Valid treats as a stale cache.
func LoadEventLog(filename string) (*EventLog, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot read event-log cache %q: %w", filename, err)
	}
	var e EventLog
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("event-log cache %q: %w", filename, err)
	}
	return &e, nil
}

// SaveEventLog persists the log, replacing any previous cache.
func SaveEventLog(filename string, e *EventLog) error {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot encode event-log cache: %w", err)
	}
	if err := os.WriteFile(filename, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("cannot write event-log cache %q: %w", filename, err)
	}
	return nil
}

// RefreshEventLog returns the cached log when it is still valid for (key,
// since), otherwise calls fetch, stamps the result and persists it. A
// broken cache file is not fatal: it is logged and refetched over.
func RefreshEventLog(filename, key string, since date.Date, ttl time.Duration, fetch func() (*EventLog, error)) (*EventLog, error) {
	cached, err := LoadEventLog(filename)
	if err != nil {
		log.Printf("warning: %v, refetching", err)
	}
	if cached.Valid(key, since, time.Now(), ttl) {
		return cached, nil
	}

	e, err := fetch()
	if err != nil {
		return nil, err
	}
	e.SourceQueryKey = key
	e.Since = since
	e.FetchedAt = time.Now()
	if err := SaveEventLog(filename, e); err != nil {
		return nil, err
	}
	return e, nil
}

package ligaledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/ligatools/ligaledger/date"
)

// This file persists the two long-lived artifacts, the roster snapshot and
// the valuation cache, as plain human-readable JSON files. Both are meant to
// live in a data directory under version control, so the encoders produce
// stable, sorted output.

// ErrSnapshotUnavailable reports that no snapshot file exists. Callers are
// expected to degrade to transfer-only figures rather than abort.
var ErrSnapshotUnavailable = errors.New("snapshot unavailable")

// ErrSnapshotMalformed reports a snapshot file that exists but cannot be
// decoded. Unlike a missing file this is a real defect in the data dir, so
// callers should surface it loudly.
var ErrSnapshotMalformed = errors.New("snapshot malformed")

var filenameDate = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// jsnapshot is the on-disk shape of a snapshot. Manager ids are JSON object
// keys and therefore strings.
type jsnapshot struct {
	Anchor   string             `json:"anchor_date,omitempty"`
	Managers map[string][]int64 `json:"managers"`
}

// DecodeSnapshot reads a snapshot from r. fallback is the anchor to use when
// the stream carries none, typically recovered from the filename; a zero
// fallback with no in-stream anchor is malformed.
func DecodeSnapshot(r io.Reader, fallback date.Date) (*Snapshot, error) {
	var js jsnapshot
	if err := json.NewDecoder(r).Decode(&js); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotMalformed, err)
	}

	anchor := fallback
	if js.Anchor != "" {
		var err error
		anchor, err = date.Parse(js.Anchor)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid anchor date %q: %v", ErrSnapshotMalformed, js.Anchor, err)
		}
	}
	if anchor.IsZero() {
		return nil, fmt.Errorf("%w: no anchor date in file or filename", ErrSnapshotMalformed)
	}

	rosters := make(Roster, len(js.Managers))
	for key, assets := range js.Managers {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: manager id %q is not a number", ErrSnapshotMalformed, key)
		}
		set := make(AssetSet, len(assets))
		for _, a := range assets {
			set.Add(AssetID(a))
		}
		rosters[ManagerID(id)] = set
	}
	return NewSnapshot(anchor, rosters), nil
}

// LoadSnapshot reads a snapshot file. When the file carries no anchor date,
// a YYYY-MM-DD token in the filename serves as one.
func LoadSnapshot(filename string) (*Snapshot, error) {
	f, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrSnapshotUnavailable, filename)
		}
		return nil, fmt.Errorf("cannot open snapshot %q: %w", filename, err)
	}
	defer f.Close()

	var fallback date.Date
	if token := filenameDate.FindString(filepath.Base(filename)); token != "" {
		fallback, _ = date.Parse(token)
	}

	snap, err := DecodeSnapshot(f, fallback)
	if err != nil {
		return nil, fmt.Errorf("snapshot %q: %w", filename, err)
	}
	return snap, nil
}

// EncodeSnapshot writes the snapshot as indented JSON with sorted keys.
func EncodeSnapshot(w io.Writer, snap *Snapshot) error {
	js := jsnapshot{
		Anchor:   snap.Anchor().String(),
		Managers: make(map[string][]int64, len(snap.Managers())),
	}
	for _, m := range snap.Managers() {
		ids := snap.Rosters()[m].IDs()
		assets := make([]int64, len(ids))
		for i, a := range ids {
			assets[i] = int64(a)
		}
		js.Managers[strconv.FormatInt(int64(m), 10)] = assets
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(js); err != nil {
		return fmt.Errorf("cannot encode snapshot: %w", err)
	}
	return nil
}

// SaveSnapshot persists the snapshot to a file.
func SaveSnapshot(filename string, snap *Snapshot) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create snapshot file %q: %w", filename, err)
	}
	defer f.Close()
	log.Printf("write-snapshot-file name=%q anchor=%s", filename, snap.Anchor())
	return EncodeSnapshot(f, snap)
}

// Valuation cache persistence. The file maps asset id to a date-to-value
// object: { "612": { "2024-08-01": 1500000, ... }, ... }.

// DecodeValuations reads a valuation cache from r into a fresh cache backed
// by source.
func DecodeValuations(r io.Reader, source ValuationSource) (*Valuations, error) {
	raw := make(map[string]map[string]int64)
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("cannot decode valuation cache: %w", err)
	}

	vals := NewValuations(source)
	for key, points := range raw {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("valuation cache: asset id %q is not a number", key)
		}
		for dayStr, value := range points {
			day, err := date.Parse(dayStr)
			if err != nil {
				return nil, fmt.Errorf("valuation cache: asset %s: %w", key, err)
			}
			if err := vals.Merge(AssetID(id), day, value); err != nil {
				return nil, fmt.Errorf("valuation cache: %w", err)
			}
		}
	}
	return vals, nil
}

// LoadValuations reads a valuation cache file. A missing file is not an
// error: it yields an empty cache that fills on demand.
func LoadValuations(filename string, source ValuationSource) (*Valuations, error) {
	f, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return NewValuations(source), nil
		}
		return nil, fmt.Errorf("cannot open valuation cache %q: %w", filename, err)
	}
	defer f.Close()

	vals, err := DecodeValuations(f, source)
	if err != nil {
		return nil, fmt.Errorf("valuation cache %q: %w", filename, err)
	}
	return vals, nil
}

// EncodeValuations writes the cache as indented JSON with sorted keys.
func EncodeValuations(w io.Writer, vals *Valuations) error {
	raw := make(map[string]map[string]int64, len(vals.Assets()))
	for _, asset := range vals.Assets() {
		points := make(map[string]int64)
		for _, rec := range vals.Records(asset) {
			points[rec.Day.String()] = rec.Value
		}
		raw[strconv.FormatInt(int64(asset), 10)] = points
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(raw); err != nil {
		return fmt.Errorf("cannot encode valuation cache: %w", err)
	}
	return nil
}

// SaveValuations persists the cache to a file, once per batch of work.
func SaveValuations(filename string, vals *Valuations) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create valuation cache file %q: %w", filename, err)
	}
	defer f.Close()
	log.Printf("write-valuation-cache name=%q assets=%d points=%d", filename, len(vals.Assets()), vals.Len())
	return EncodeValuations(f, vals)
}

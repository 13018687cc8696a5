package comunio

import (
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/ligatools/ligaledger"
	"github.com/ligatools/ligaledger/date"
)

// The news endpoint ignores or caps larger limits; pagination walks
// start=0,20,40,... until hasMore=false or entries fall behind the horizon.
const newsPageLimit = 20

// computerUser is the platform's own account: counterparty of market buys
// and sells.
const computerUser ligaledger.ManagerID = 1

const (
	typeTransfer = "TRANSACTION_TRANSFER"
	typeSalaries = "TRANSACTION_SALARIES"
)

// Transfer message items come in four buckets with slightly different
// shapes.
var messageKeys = []string{"FROM_COMPUTER", "TO_COMPUTER", "BETWEEN_USERS", "EXCHANGES"}

// CutoffHour returns the settlement boundary this client applies when
// deciding whether an entry predates the horizon.
func (c *Client) CutoffHour() int {
	return ligaledger.DefaultCutoffHour
}

type userRef struct {
	ID *int64 `json:"id"`
}

// tradableList decodes a list whose elements are either {id:...} objects or
// bare numbers, both of which the API produces.
type tradableList []ligaledger.AssetID

func (l *tradableList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		// A single object instead of a list also occurs.
		var one struct {
			ID *int64 `json:"id"`
		}
		if err := json.Unmarshal(data, &one); err != nil || one.ID == nil {
			return fmt.Errorf("unrecognized tradables shape")
		}
		*l = tradableList{ligaledger.AssetID(*one.ID)}
		return nil
	}
	out := make(tradableList, 0, len(raw))
	for _, r := range raw {
		var obj struct {
			ID *int64 `json:"id"`
		}
		if err := json.Unmarshal(r, &obj); err == nil && obj.ID != nil {
			out = append(out, ligaledger.AssetID(*obj.ID))
			continue
		}
		var n int64
		if err := json.Unmarshal(r, &n); err == nil {
			out = append(out, ligaledger.AssetID(n))
		}
	}
	*l = out
	return nil
}

// transferItem is one line of a TRANSACTION_TRANSFER message. The exchange
// bucket carries two directed lists under several historical field names.
type transferItem struct {
	From  *userRef `json:"from"`
	To    *userRef `json:"to"`
	Price int64    `json:"price"`

	Tradable  *userRef     `json:"tradable"` // same {id} shape
	Tradables tradableList `json:"tradables"`

	TradablesA        tradableList `json:"tradablesA"`
	FromTradables     tradableList `json:"fromTradables"`
	TradablesFrom     tradableList `json:"tradablesFrom"`
	FromUserTradables tradableList `json:"fromUserTradables"`

	TradablesB      tradableList `json:"tradablesB"`
	ToTradables     tradableList `json:"toTradables"`
	TradablesTo     tradableList `json:"tradablesTo"`
	ToUserTradables tradableList `json:"toUserTradables"`
}

// outbound returns the tradables moving from -> to in a two-sided exchange.
func (i transferItem) outbound() tradableList {
	return firstNonEmpty(i.TradablesA, i.FromTradables, i.TradablesFrom, i.FromUserTradables)
}

// inbound returns the tradables moving to -> from in a two-sided exchange.
func (i transferItem) inbound() tradableList {
	return firstNonEmpty(i.TradablesB, i.ToTradables, i.TradablesTo, i.ToUserTradables)
}

// single returns the one-directional tradables of a plain transfer.
func (i transferItem) single() tradableList {
	if len(i.Tradables) > 0 {
		return i.Tradables
	}
	if i.Tradable != nil && i.Tradable.ID != nil {
		return tradableList{ligaledger.AssetID(*i.Tradable.ID)}
	}
	return nil
}

func firstNonEmpty(lists ...tradableList) tradableList {
	for _, l := range lists {
		if len(l) > 0 {
			return l
		}
	}
	return nil
}

type newsEntry struct {
	Type      string          `json:"type"`
	Date      string          `json:"date"`
	Title     string          `json:"title"`
	Recipient *userRef        `json:"recipient"`
	Message   json.RawMessage `json:"message"`
}

// items decodes the entry's message bucket by bucket, skipping lines that do
// not match any known shape. skipped reports how many were dropped.
func (e newsEntry) items() (byKey map[string][]transferItem, skipped int) {
	var msg map[string]json.RawMessage
	if err := json.Unmarshal(e.Message, &msg); err != nil {
		return nil, 0
	}
	byKey = make(map[string][]transferItem, len(messageKeys))
	for _, key := range messageKeys {
		raw, ok := msg[key]
		if !ok {
			continue
		}
		var lines []json.RawMessage
		if err := json.Unmarshal(raw, &lines); err != nil {
			skipped++
			continue
		}
		for _, line := range lines {
			var item transferItem
			if err := json.Unmarshal(line, &item); err != nil {
				skipped++
				continue
			}
			byKey[key] = append(byKey[key], item)
		}
	}
	return byKey, skipped
}

type newsPage struct {
	NewsList struct {
		Groups  map[string]newsGroup `json:"groups"`
		HasMore bool                 `json:"hasMore"`
	} `json:"newsList"`
}

type newsGroup struct {
	Entries []newsEntry `json:"entries"`
}

func (c *Client) newsPageAt(newsURL string, start int) (newsPage, error) {
	sep := "?"
	if strings.Contains(newsURL, "?") {
		sep = "&"
	}
	addr := fmt.Sprintf("%s%sgroup=true&originaltypes=true&start=%d&limit=%d", newsURL, sep, start, newsPageLimit)
	var page newsPage
	if err := c.jget(addr, &page); err != nil {
		return page, fmt.Errorf("comunio news: %w", err)
	}
	return page, nil
}

// forEachNewsEntry pages through the grouped news feed and calls fn with
// every entry and its parsed wall-clock time. Pagination stops after the
// page where fn reported an entry behind its horizon, or when the feed has
// no more pages. Entries with unparsable dates are passed with a zero time.
func (c *Client) forEachNewsEntry(fn func(e newsEntry, at time.Time) (withinHorizon bool)) error {
	newsURL, err := c.link("game:news")
	if err != nil {
		return err
	}

	seenOlder := false
	for start := 0; ; start += newsPageLimit {
		page, err := c.newsPageAt(newsURL, start)
		if err != nil {
			return err
		}
		groups := page.NewsList.Groups

		// Group keys are JSON object keys: iterate them sorted so arrival
		// sequence numbers are stable.
		keys := lo.Keys(groups)
		slices.Sort(keys)
		for _, k := range keys {
			for _, e := range groups[k].Entries {
				at, err := parseAPITime(e.Date)
				if err != nil {
					at = time.Time{}
				}
				if !fn(e, at) {
					seenOlder = true
				}
			}
		}
		if seenOlder || !page.NewsList.HasMore {
			return nil
		}
	}
}

// TransferEventsSince returns every ownership transfer observed on or after
// the given settlement day, in arrival order with Seq assigned. Transfers
// involving the computer account are included: replay needs them to move
// assets in and out of manager rosters. skipped counts message lines with no
// recognizable participants or tradables.
func (c *Client) TransferEventsSince(since date.Date) (events []ligaledger.TransferEvent, skipped int, err error) {
	seq := 0
	err = c.forEachNewsEntry(func(e newsEntry, at time.Time) bool {
		if !at.IsZero() && ligaledger.SettlementDate(at, c.CutoffHour()).Before(since) {
			return false
		}
		if e.Type != typeTransfer || at.IsZero() {
			return true
		}
		byKey, dropped := e.items()
		skipped += dropped
		for _, key := range messageKeys {
			for _, item := range byKey[key] {
				if item.From == nil || item.From.ID == nil || item.To == nil || item.To.ID == nil {
					skipped++
					continue
				}
				from := ligaledger.ManagerID(*item.From.ID)
				to := ligaledger.ManagerID(*item.To.ID)

				add := func(source, dest ligaledger.ManagerID, assets tradableList) {
					for _, asset := range assets {
						events = append(events, ligaledger.TransferEvent{
							Time: at, Seq: seq, From: source, To: dest, Asset: asset,
						})
						seq++
					}
				}
				if out, in := item.outbound(), item.inbound(); len(out) > 0 || len(in) > 0 {
					add(from, to, out)
					add(to, from, in)
					continue
				}
				single := item.single()
				if len(single) == 0 {
					if key == "BETWEEN_USERS" || key == "EXCHANGES" {
						skipped++
					}
					continue
				}
				add(from, to, single)
			}
		}
		return true
	})
	if err != nil {
		return nil, 0, err
	}
	if skipped > 0 {
		log.Printf("warning: comunio news: %d malformed transfer lines skipped", skipped)
	}
	return events, skipped, nil
}

// itemDeltas turns one transfer line into signed money movements. Buyers pay
// the price, sellers receive it; in the exchange bucket the sign convention
// is reversed because the price is the balancing fee flowing from -> to.
// The computer account never carries a delta.
func itemDeltas(key string, item transferItem) []ligaledger.Delta {
	if item.From == nil || item.To == nil {
		return nil
	}
	var out []ligaledger.Delta
	add := func(ref *userRef, amount int64) {
		if ref.ID == nil {
			return
		}
		m := ligaledger.ManagerID(*ref.ID)
		if m == computerUser {
			return
		}
		out = append(out, ligaledger.Delta{Manager: m, Amount: amount})
	}
	if key == "EXCHANGES" {
		add(item.From, -item.Price)
		add(item.To, item.Price)
	} else {
		add(item.To, -item.Price)
		add(item.From, item.Price)
	}
	return out
}

var salaryAmountRe = regexp.MustCompile(`([\d.,]+)\s*€`)

// parseSalaryAmount extracts the debited amount from a salary entry title
// like "61.830 € Spielergehälter wurden ...". German digit grouping: dots
// group thousands, a comma starts decimals.
func parseSalaryAmount(title string) (int64, bool) {
	m := salaryAmountRe.FindStringSubmatch(title)
	if m == nil {
		return 0, false
	}
	s := strings.ReplaceAll(m[1], ".", "")
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = s[:i]
	}
	amount, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return amount, true
}

// TransferDeltasSince returns the signed money movements of all transfers
// since the settlement horizon. This is the input for the derived balance:
// startBudget plus these minus computed fees.
func (c *Client) TransferDeltasSince(since date.Date) ([]ligaledger.Delta, error) {
	var deltas []ligaledger.Delta
	err := c.forEachNewsEntry(func(e newsEntry, at time.Time) bool {
		if !at.IsZero() && ligaledger.SettlementDate(at, c.CutoffHour()).Before(since) {
			return false
		}
		if e.Type != typeTransfer {
			return true
		}
		byKey, _ := e.items()
		for _, key := range messageKeys {
			for _, item := range byKey[key] {
				deltas = append(deltas, itemDeltas(key, item)...)
			}
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return deltas, nil
}

// BalanceDeltasSince returns transfer deltas plus the salary debits the
// platform actually charged, parsed from entry titles. Use this variant
// when fees are taken as observed instead of recomputed from rosters.
func (c *Client) BalanceDeltasSince(since date.Date) ([]ligaledger.Delta, error) {
	var deltas []ligaledger.Delta
	err := c.forEachNewsEntry(func(e newsEntry, at time.Time) bool {
		if !at.IsZero() && ligaledger.SettlementDate(at, c.CutoffHour()).Before(since) {
			return false
		}
		switch e.Type {
		case typeTransfer:
			byKey, _ := e.items()
			for _, key := range messageKeys {
				for _, item := range byKey[key] {
					deltas = append(deltas, itemDeltas(key, item)...)
				}
			}
		case typeSalaries:
			if e.Recipient == nil || e.Recipient.ID == nil {
				return true
			}
			m := ligaledger.ManagerID(*e.Recipient.ID)
			if m == computerUser {
				return true
			}
			if amount, ok := parseSalaryAmount(e.Title); ok && amount > 0 {
				deltas = append(deltas, ligaledger.Delta{Manager: m, Amount: -amount})
			}
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return deltas, nil
}

// FeeActiveDaysSince returns the days with an observed salary debit, sorted
// ascending. Leagues can toggle salaries at any time, so only days where a
// debit actually happened count as fee-active. An optional scope restricts
// the scan to debits booked against the given managers.
func (c *Client) FeeActiveDaysSince(since date.Date, scope ...ligaledger.ManagerID) ([]date.Date, error) {
	seen := make(map[date.Date]struct{})
	err := c.forEachNewsEntry(func(e newsEntry, at time.Time) bool {
		if at.IsZero() {
			return true
		}
		d := date.Of(at)
		if d.Before(since) {
			return false
		}
		if e.Type == typeSalaries && recipientIn(e.Recipient, scope) {
			seen[d] = struct{}{}
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	days := lo.Keys(seen)
	slices.SortFunc(days, date.Date.Compare)
	return days, nil
}

// recipientIn reports whether the entry's recipient falls inside the scope.
// An empty scope matches everyone; an entry without a recipient matches none.
func recipientIn(r *userRef, scope []ligaledger.ManagerID) bool {
	if len(scope) == 0 {
		return true
	}
	if r == nil || r.ID == nil {
		return false
	}
	return lo.Contains(scope, ligaledger.ManagerID(*r.ID))
}

// EventLogSince assembles a complete event log in a single query batch, for
// use with the on-disk cache.
func (c *Client) EventLogSince(since date.Date) (*ligaledger.EventLog, error) {
	events, skipped, err := c.TransferEventsSince(since)
	if err != nil {
		return nil, err
	}
	transferDeltas, err := c.TransferDeltasSince(since)
	if err != nil {
		return nil, err
	}
	balanceDeltas, err := c.BalanceDeltasSince(since)
	if err != nil {
		return nil, err
	}
	feeDays, err := c.FeeActiveDaysSince(since)
	if err != nil {
		return nil, err
	}
	return &ligaledger.EventLog{
		TransferEvents: events,
		TransferDeltas: transferDeltas,
		BalanceDeltas:  balanceDeltas,
		FeeActiveDays:  feeDays,
		Skipped:        skipped,
	}, nil
}

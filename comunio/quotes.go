package comunio

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ligatools/ligaledger"
	"github.com/ligatools/ligaledger/date"
)

// parseAPITime parses the timestamp formats the API mixes freely: RFC 3339,
// a trailing Z, and zone offsets without the colon ("+0100").
func parseAPITime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	s := strings.Replace(raw, "Z", "+00:00", 1)
	if n := len(s); n > 5 && (s[n-5] == '+' || s[n-5] == '-') && !strings.ContainsRune(s[n-5:], ':') {
		s = s[:n-2] + ":" + s[n-2:]
	}
	return time.Parse(time.RFC3339, s)
}

// ValuationHistory fetches the asset's daily market values, covering up to a
// year back. Prices arrive as JSON numbers that are occasionally fractional;
// they are truncated to whole euros the way the platform displays them.
func (c *Client) ValuationHistory(asset ligaledger.AssetID) ([]ligaledger.ValuationRecord, error) {
	addr := fmt.Sprintf("%s/players/%d/quote-history", c.base, asset)
	var body struct {
		QuoteCollection []struct {
			Timestamp   string          `json:"timestamp"`
			QuotedPrice decimal.Decimal `json:"quotedPrice"`
		} `json:"quoteCollection"`
	}
	if err := c.jget(addr, &body); err != nil {
		return nil, fmt.Errorf("comunio quote-history for asset %d: %w", asset, err)
	}

	records := make([]ligaledger.ValuationRecord, 0, len(body.QuoteCollection))
	for _, q := range body.QuoteCollection {
		at, err := parseAPITime(q.Timestamp)
		if err != nil {
			continue
		}
		records = append(records, ligaledger.ValuationRecord{
			Day:   date.Of(at),
			Value: q.QuotedPrice.IntPart(),
		})
	}
	return records, nil
}

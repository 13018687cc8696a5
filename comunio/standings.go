package comunio

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/samber/lo"

	"github.com/ligatools/ligaledger"
)

// The standings and community endpoints answer in several historical shapes
// (HAL items, embedded lists, flat objects), so the fields are pulled out
// with jsonpath fallback chains instead of rigid structs.

// jfirst evaluates paths against jobj and returns the first value any of
// them resolves to.
func jfirst(jobj any, paths ...string) (any, bool) {
	for _, path := range paths {
		jval, err := jsonpath.Get(path, jobj)
		if err != nil || jval == nil {
			continue
		}
		// jsonpath is never clear about whether it returns a list of one
		// answer or a single answer: keep the first one if any.
		if jlist, ok := jval.([]any); ok {
			if len(jlist) == 0 {
				continue
			}
			jval = jlist[0]
		}
		return jval, true
	}
	return nil, false
}

// jstring resolves the first path yielding a non-empty string.
func jstring(jobj any, paths ...string) string {
	if jval, ok := jfirst(jobj, paths...); ok {
		if s, ok := jval.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// jint resolves the first path yielding a number, accepting the formatted
// strings ("1.234.567") the API sometimes serves instead.
func jint(jobj any, paths ...string) (int64, bool) {
	jval, ok := jfirst(jobj, paths...)
	if !ok {
		return 0, false
	}
	switch v := jval.(type) {
	case float64:
		return int64(v), true
	case string:
		var digits strings.Builder
		for _, r := range v {
			if r >= '0' && r <= '9' || r == '-' {
				digits.WriteRune(r)
			}
		}
		n, err := strconv.ParseInt(digits.String(), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// jbool resolves the first path to a boolean, accepting "true"/"1"/"yes"
// strings.
func jbool(jobj any, paths ...string) (bool, bool) {
	jval, ok := jfirst(jobj, paths...)
	if !ok {
		return false, false
	}
	switch v := jval.(type) {
	case bool:
		return v, true
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		return s == "true" || s == "1" || s == "yes", true
	case float64:
		return v != 0, true
	}
	return false, false
}

// ManagerRow is one league-table line: identity, season points, team value
// and, when the API exposes it, the authoritative account balance.
type ManagerRow struct {
	ID        ligaledger.ManagerID
	Name      string
	Points    int64
	TeamValue int64
	Budget    int64
	HasBudget bool
}

// parseManagerRow maps one standings or members entry to a row. Entries with
// no resolvable name are dropped.
func parseManagerRow(jobj any) (ManagerRow, bool) {
	row := ManagerRow{
		Name: jstring(jobj,
			"$._embedded.user.name", "$.user.name", "$.member.name",
			"$.name", "$.userName"),
	}
	if row.Name == "" {
		return row, false
	}
	if id, ok := jint(jobj, "$._embedded.user.id", "$.user.id", "$.member.id", "$.id"); ok {
		row.ID = ligaledger.ManagerID(id)
	}
	row.Points, _ = jint(jobj,
		"$.totalPoints", "$.points", "$.teamPoints", "$._embedded.user.points")
	row.TeamValue, _ = jint(jobj,
		"$._embedded.teamInfo.teamValue", "$.teamValue", "$.team_value",
		"$.user.teamValue", "$.user.team_value")
	row.Budget, row.HasBudget = jint(jobj, "$.budget", "$.user.budget", "$._embedded.user.budget")
	return row, true
}

// rows extracts the list of entries from the varying envelope shapes.
func rows(jobj any, paths ...string) []any {
	if jlist, ok := jobj.([]any); ok {
		return jlist
	}
	for _, path := range paths {
		jval, err := jsonpath.Get(path, jobj)
		if err != nil {
			continue
		}
		if jlist, ok := jval.([]any); ok {
			return jlist
		}
	}
	return nil
}

// Standings fetches the season table: points, team values and budgets per
// manager.
func (c *Client) Standings() ([]ManagerRow, error) {
	addr, err := c.link("game:standings")
	if err != nil {
		return nil, err
	}
	sep := "?"
	if strings.Contains(addr, "?") {
		sep = "&"
	}
	var jobj any
	if err := c.jget(addr+sep+"period=total&wpe=true", &jobj); err != nil {
		return nil, fmt.Errorf("comunio standings: %w", err)
	}
	entries := rows(jobj, "$.items", "$._embedded.standings", "$.standings")
	return lo.FilterMap(entries, func(e any, _ int) (ManagerRow, bool) {
		return parseManagerRow(e)
	}), nil
}

// Members fetches the community member list. It carries no points but
// serves as a fallback when the standings endpoint answers empty.
func (c *Client) Members() ([]ManagerRow, error) {
	addr, err := c.link("game:community:members")
	if err != nil {
		return nil, err
	}
	var jobj any
	if err := c.jget(addr, &jobj); err != nil {
		return nil, fmt.Errorf("comunio members: %w", err)
	}
	entries := rows(jobj, "$._embedded.members", "$._embedded.users", "$.members")
	return lo.FilterMap(entries, func(e any, _ int) (ManagerRow, bool) {
		return parseManagerRow(e)
	}), nil
}

// Rules are the community settings that drive fee and credit computation.
type Rules struct {
	LeagueName      string
	SalariesEnabled bool
	// CreditFactor is the league's credit rule: "dynamic" means a quarter
	// of team value, otherwise a plain factor.
	CreditFactor         string
	CreditFactorDisabled bool
}

// CommunityRules fetches the community details and extracts the rule set.
func (c *Client) CommunityRules() (Rules, error) {
	rules := Rules{CreditFactorDisabled: true}
	if c.CommunityID == "" {
		return rules, fmt.Errorf("comunio rules: no community id")
	}
	addr := fmt.Sprintf("%s/communities/%s?include=standings&lineBreaks2Description=1", c.base, c.CommunityID)
	var jobj any
	if err := c.jget(addr, &jobj); err != nil {
		return rules, fmt.Errorf("comunio rules: %w", err)
	}

	rules.LeagueName = jstring(jobj, "$.name")
	// rules may nest an items object or be flat.
	rules.SalariesEnabled, _ = jbool(jobj, "$.rules.items.salaries", "$.rules.salaries")
	rules.CreditFactor = jstring(jobj,
		"$.rules.items.creditfactor", "$.rules.items.creditFactor",
		"$.rules.creditfactor", "$.rules.creditFactor")
	if disabled, ok := jbool(jobj, "$.rules.items.creditFactorDisabled", "$.rules.creditFactorDisabled"); ok {
		rules.CreditFactorDisabled = disabled
	}
	return rules, nil
}

// SquadPlayer is one asset of a manager's current squad with its quoted
// market value.
type SquadPlayer struct {
	Asset       ligaledger.AssetID
	MarketValue int64
}

// Squad fetches a manager's current squad, the raw material for seeding a
// roster snapshot anchored to today.
func (c *Client) Squad(manager ligaledger.ManagerID) ([]SquadPlayer, error) {
	addr := fmt.Sprintf("%s/users/%d/squad", c.base, manager)
	var body struct {
		Items []struct {
			ID          *int64 `json:"id"`
			QuotedPrice int64  `json:"quotedprice"`
		} `json:"items"`
	}
	if err := c.jget(addr, &body); err != nil {
		return nil, fmt.Errorf("comunio squad for manager %d: %w", manager, err)
	}
	squad := make([]SquadPlayer, 0, len(body.Items))
	for _, item := range body.Items {
		if item.ID == nil {
			continue
		}
		squad = append(squad, SquadPlayer{
			Asset:       ligaledger.AssetID(*item.ID),
			MarketValue: item.QuotedPrice,
		})
	}
	return squad, nil
}

// Client satisfies the core's feed contract.
var _ ligaledger.Feed = (*Client)(nil)

package comunio

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ligatools/ligaledger"
	"github.com/ligatools/ligaledger/date"
)

// newTestClient starts a fixture API server and returns a logged-in client.
// extra registers endpoint handlers beyond login and root.
func newTestClient(t *testing.T, extra func(mux *http.ServeMux, baseURL func() string)) *Client {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Username == "" {
			http.Error(w, "bad login", http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, `{"access_token":"tok-123","token_type":"Bearer"}`)
	})
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			http.Error(w, "no token", http.StatusUnauthorized)
			return
		}
		fmt.Fprintf(w, `{
			"user": {"id": 42, "name": "tester", "budget": "1.234.567"},
			"community": {"id": "c99", "name": "Testliga"},
			"_links": {
				"game:news": {"href": %q},
				"game:standings": {"href": %q},
				"game:community:members": {"href": %q}
			}
		}`, srv.URL+"/news", srv.URL+"/standings", srv.URL+"/communities/:communityId/members")
	})
	if extra != nil {
		extra(mux, func() string { return srv.URL })
	}

	c := NewClient(srv.URL, srv.Client())
	if err := c.Login("tester", "secret"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	return c
}

func TestLogin(t *testing.T) {
	c := newTestClient(t, nil)

	if c.UserID != 42 || c.Username != "tester" || c.CommunityID != "c99" {
		t.Errorf("identity = %d %q %q", c.UserID, c.Username, c.CommunityID)
	}
	if !c.HasBudget || c.Budget != 1234567 {
		t.Errorf("budget = %d, %v, want 1234567 parsed from formatted string", c.Budget, c.HasBudget)
	}
	if got, want := c.QueryKey(), "tester@c99"; got != want {
		t.Errorf("QueryKey() = %q, want %q", got, want)
	}
}

// newsFixture serves two pages: page one with a transfer and a salary entry,
// page two with an entry older than any horizon the tests use.
func newsFixture(mux *http.ServeMux, _ func() string) {
	pageOne := `{"newsList":{"hasMore":true,"groups":{
		"2025-06-01":{"entries":[
			{"type":"TRANSACTION_TRANSFER","date":"2025-06-01T10:00:00+01:00","message":{
				"FROM_COMPUTER":[{"from":{"id":1},"to":{"id":10},"price":1200000,"tradable":{"id":7}}],
				"BETWEEN_USERS":[{"from":{"id":10},"to":{"id":20},"price":500000,"tradables":[{"id":8}]}],
				"EXCHANGES":[{"from":{"id":10},"to":{"id":20},"price":100000,
					"tradablesA":[{"id":5}],"tradablesB":[{"id":6}]}]
			}},
			{"type":"TRANSACTION_SALARIES","date":"2025-06-01T06:00:00+01:00",
				"recipient":{"id":20},"title":"61.830 € Spielergehälter wurden abgebucht"}
		]}}}}`
	pageTwo := `{"newsList":{"hasMore":false,"groups":{
		"2024-01-05":{"entries":[
			{"type":"TRANSACTION_TRANSFER","date":"2024-01-05T12:00:00+01:00","message":{
				"TO_COMPUTER":[{"from":{"id":20},"to":{"id":1},"price":300000,"tradable":{"id":9}}]
			}}
		]}}}}`
	mux.HandleFunc("GET /news", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("start") == "0" {
			fmt.Fprint(w, pageOne)
			return
		}
		fmt.Fprint(w, pageTwo)
	})
}

func TestTransferEventsSince(t *testing.T) {
	c := newTestClient(t, newsFixture)

	events, skipped, err := c.TransferEventsSince(date.MustParse("2025-05-01"))
	if err != nil {
		t.Fatalf("TransferEventsSince() error = %v", err)
	}
	if skipped != 0 {
		t.Errorf("skipped = %d, want 0", skipped)
	}

	// One market buy, one user sale, one exchange with a leg each way: the
	// old page-two entry is behind the horizon and stops pagination.
	if len(events) != 4 {
		t.Fatalf("events = %d, want 4: %v", len(events), events)
	}
	for i, e := range events {
		if e.Seq != i {
			t.Errorf("event %d has Seq %d, want arrival order", i, e.Seq)
		}
	}

	byAsset := make(map[ligaledger.AssetID]ligaledger.TransferEvent)
	for _, e := range events {
		byAsset[e.Asset] = e
	}
	if e := byAsset[7]; e.From != 1 || e.To != 10 {
		t.Errorf("asset 7 moved %d->%d, want computer->10", e.From, e.To)
	}
	if e := byAsset[8]; e.From != 10 || e.To != 20 {
		t.Errorf("asset 8 moved %d->%d, want 10->20", e.From, e.To)
	}
	// Exchange legs run in opposite directions.
	if e := byAsset[5]; e.From != 10 || e.To != 20 {
		t.Errorf("asset 5 moved %d->%d, want 10->20", e.From, e.To)
	}
	if e := byAsset[6]; e.From != 20 || e.To != 10 {
		t.Errorf("asset 6 moved %d->%d, want 20->10", e.From, e.To)
	}
}

func TestTransferDeltasSince(t *testing.T) {
	c := newTestClient(t, newsFixture)

	deltas, err := c.TransferDeltasSince(date.MustParse("2025-05-01"))
	if err != nil {
		t.Fatalf("TransferDeltasSince() error = %v", err)
	}

	totals := make(map[ligaledger.ManagerID]int64)
	for _, d := range deltas {
		totals[d.Manager] += d.Amount
	}
	// Manager 10: bought from market (-1.2M), sold to 20 (+0.5M), paid the
	// exchange fee (-0.1M). Manager 20: bought (-0.5M), received the fee.
	if totals[10] != -1_200_000+500_000-100_000 {
		t.Errorf("totals[10] = %d", totals[10])
	}
	if totals[20] != -500_000+100_000 {
		t.Errorf("totals[20] = %d", totals[20])
	}
	if totals[1] != 0 {
		t.Errorf("computer account carries deltas: %d", totals[1])
	}
}

func TestBalanceDeltasSince(t *testing.T) {
	c := newTestClient(t, newsFixture)

	deltas, err := c.BalanceDeltasSince(date.MustParse("2025-05-01"))
	if err != nil {
		t.Fatalf("BalanceDeltasSince() error = %v", err)
	}

	totals := make(map[ligaledger.ManagerID]int64)
	for _, d := range deltas {
		totals[d.Manager] += d.Amount
	}
	// Same as transfer deltas plus the 61830 salary debit for manager 20.
	if totals[20] != -500_000+100_000-61_830 {
		t.Errorf("totals[20] = %d", totals[20])
	}
}

func TestFeeActiveDaysSince(t *testing.T) {
	c := newTestClient(t, newsFixture)

	days, err := c.FeeActiveDaysSince(date.MustParse("2025-05-01"))
	if err != nil {
		t.Fatalf("FeeActiveDaysSince() error = %v", err)
	}
	if len(days) != 1 || days[0] != date.MustParse("2025-06-01") {
		t.Errorf("days = %v, want [2025-06-01]", days)
	}
}

func TestFeeActiveDaysSince_Scoped(t *testing.T) {
	c := newTestClient(t, newsFixture)
	since := date.MustParse("2025-05-01")

	days, err := c.FeeActiveDaysSince(since, ligaledger.ManagerID(20))
	if err != nil {
		t.Fatalf("FeeActiveDaysSince() error = %v", err)
	}
	if len(days) != 1 || days[0] != date.MustParse("2025-06-01") {
		t.Errorf("days scoped to recipient = %v, want [2025-06-01]", days)
	}

	days, err = c.FeeActiveDaysSince(since, ligaledger.ManagerID(99))
	if err != nil {
		t.Fatalf("FeeActiveDaysSince() error = %v", err)
	}
	if len(days) != 0 {
		t.Errorf("days scoped to stranger = %v, want none", days)
	}
}

func TestValuationHistory(t *testing.T) {
	c := newTestClient(t, func(mux *http.ServeMux, _ func() string) {
		mux.HandleFunc("GET /players/7/quote-history", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"quoteCollection":[
				{"timestamp":"2025-06-02T00:00:00+0200","quotedPrice":51000},
				{"timestamp":"2025-06-01T00:00:00+0100","quotedPrice":50000},
				{"timestamp":"garbage","quotedPrice":1}
			]}`)
		})
	})

	records, err := c.ValuationHistory(7)
	if err != nil {
		t.Fatalf("ValuationHistory() error = %v", err)
	}
	want := []ligaledger.ValuationRecord{
		{Day: date.MustParse("2025-06-02"), Value: 51000},
		{Day: date.MustParse("2025-06-01"), Value: 50000},
	}
	if len(records) != len(want) {
		t.Fatalf("records = %v, want %v", records, want)
	}
	for i := range want {
		if records[i] != want[i] {
			t.Errorf("record %d = %v, want %v", i, records[i], want[i])
		}
	}
}

func TestStandings(t *testing.T) {
	c := newTestClient(t, func(mux *http.ServeMux, _ func() string) {
		mux.HandleFunc("GET /standings", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("period") != "total" {
				http.Error(w, "missing period", http.StatusBadRequest)
				return
			}
			fmt.Fprint(w, `{"items":[
				{"totalPoints": 120,
				 "_embedded": {"user": {"id": 10, "name": "alice"},
				               "teamInfo": {"teamValue": 52000000}}},
				{"points": 80, "user": {"id": 20, "name": "bob"}, "teamValue": 31000000,
				 "budget": "2.500.000"},
				{"noname": true}
			]}`)
		})
	})

	standings, err := c.Standings()
	if err != nil {
		t.Fatalf("Standings() error = %v", err)
	}
	if len(standings) != 2 {
		t.Fatalf("standings = %v, want 2 rows", standings)
	}
	if r := standings[0]; r.ID != 10 || r.Name != "alice" || r.Points != 120 || r.TeamValue != 52000000 {
		t.Errorf("row 0 = %+v", r)
	}
	if r := standings[1]; r.ID != 20 || r.Points != 80 || !r.HasBudget || r.Budget != 2500000 {
		t.Errorf("row 1 = %+v", r)
	}
}

func TestCommunityRules(t *testing.T) {
	c := newTestClient(t, func(mux *http.ServeMux, _ func() string) {
		mux.HandleFunc("GET /communities/c99", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"name":"Testliga",
				"rules":{"items":{"salaries":"true","creditfactor":"dynamic","creditFactorDisabled":false}}}`)
		})
	})

	rules, err := c.CommunityRules()
	if err != nil {
		t.Fatalf("CommunityRules() error = %v", err)
	}
	want := Rules{LeagueName: "Testliga", SalariesEnabled: true, CreditFactor: "dynamic"}
	if rules != want {
		t.Errorf("CommunityRules() = %+v, want %+v", rules, want)
	}
}

func TestSquad(t *testing.T) {
	c := newTestClient(t, func(mux *http.ServeMux, _ func() string) {
		mux.HandleFunc("GET /users/10/squad", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"items":[
				{"id": 7, "quotedprice": 1500000},
				{"quotedprice": 1},
				{"id": 8, "quotedprice": 900000}
			]}`)
		})
	})

	squad, err := c.Squad(10)
	if err != nil {
		t.Fatalf("Squad() error = %v", err)
	}
	want := []SquadPlayer{{Asset: 7, MarketValue: 1500000}, {Asset: 8, MarketValue: 900000}}
	if len(squad) != len(want) || squad[0] != want[0] || squad[1] != want[1] {
		t.Errorf("Squad() = %v, want %v", squad, want)
	}
}

func TestParseSalaryAmount(t *testing.T) {
	tests := []struct {
		title string
		want  int64
		ok    bool
	}{
		{"61.830 € Spielergehälter wurden abgebucht", 61830, true},
		{"1.234.567 € irgendwas", 1234567, true},
		{"950,50 € mit Dezimalstellen", 950, true},
		{"kein Betrag hier", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseSalaryAmount(tt.title)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseSalaryAmount(%q) = %d, %v, want %d, %v", tt.title, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseAPITime(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Time
	}{
		{"2025-06-01T10:00:00+01:00", time.Date(2025, time.June, 1, 10, 0, 0, 0, time.FixedZone("", 3600))},
		{"2025-06-01T10:00:00+0100", time.Date(2025, time.June, 1, 10, 0, 0, 0, time.FixedZone("", 3600))},
		{"2025-06-01T09:00:00Z", time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := parseAPITime(tt.raw)
		if err != nil {
			t.Errorf("parseAPITime(%q) error = %v", tt.raw, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("parseAPITime(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}

	if _, err := parseAPITime("garbage"); err == nil {
		t.Errorf("parseAPITime(garbage) expected an error")
	}
}

// Package comunio implements the league feed against the Comunio REST API.
//
// The API is HAL-flavored: a login yields a bearer token, and GET /api/
// returns the authenticated user, their community and a _links map pointing
// at everything else. All wire-format knowledge lives in this package; the
// core only sees normalized events, deltas and valuation records.
package comunio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/ligatools/ligaledger"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://www.comunio.de/api"

// acceptHeader covers both content types the server answers with.
const acceptHeader = "application/json, application/hal+json"

// Client is an authenticated Comunio API session. Zero value is not usable;
// call NewClient then Login.
type Client struct {
	base  string
	http  *http.Client
	token string

	// Identity filled in by Login from the API root.
	UserID        ligaledger.ManagerID
	Username      string
	CommunityID   string
	CommunityName string
	Budget        int64 // the authenticated user's own balance, authoritative
	HasBudget     bool

	links map[string]string
}

// NewClient returns an unauthenticated client. base "" means the production
// API; client nil means a 30s-timeout default.
func NewClient(base string, client *http.Client) *Client {
	if base == "" {
		base = DefaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{base: strings.TrimRight(base, "/"), http: client}
}

// QueryKey identifies the account and community this session serves. Cached
// feed data keyed on it becomes invalid when either changes.
func (c *Client) QueryKey() string {
	return c.Username + "@" + c.CommunityID
}

// tzoffsetMinutes is the offset the login endpoint expects: minutes west of
// UTC, so CET is -60.
func tzoffsetMinutes(now time.Time) int {
	_, seconds := now.Zone()
	return -seconds / 60
}

// Login authenticates and loads the API root: user and community identity
// plus the _links map every other call navigates by.
func (c *Client) Login(username, password string) error {
	payload := map[string]any{
		"username": username,
		"password": password,
		"tzoffset": tzoffsetMinutes(time.Now()),
	}
	var tok struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.jpost(c.base+"/login", payload, &tok); err != nil {
		return fmt.Errorf("comunio login: %w", err)
	}
	if tok.AccessToken == "" {
		return fmt.Errorf("comunio login: no access_token in response")
	}
	c.token = tok.AccessToken
	return c.loadRoot()
}

// loadRoot reads GET /api/ and captures identity and links.
func (c *Client) loadRoot() error {
	var root struct {
		User struct {
			ID     int64           `json:"id"`
			Name   string          `json:"name"`
			Budget json.RawMessage `json:"budget"`
		} `json:"user"`
		Community struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"community"`
		Links map[string]struct {
			Href string `json:"href"`
		} `json:"_links"`
	}
	if err := c.jget(c.base+"/", &root); err != nil {
		return fmt.Errorf("comunio root: %w", err)
	}

	c.UserID = ligaledger.ManagerID(root.User.ID)
	c.Username = root.User.Name
	c.CommunityID = root.Community.ID
	c.CommunityName = root.Community.Name
	if budget, ok := parseLooseInt(root.User.Budget); ok {
		c.Budget, c.HasBudget = budget, true
	}

	c.links = make(map[string]string, len(root.Links))
	for rel, l := range root.Links {
		c.links[rel] = l.Href
	}
	return nil
}

// link resolves a HAL relation to a concrete URL, substituting the
// :communityId placeholder some links carry.
func (c *Client) link(rel string) (string, error) {
	href, ok := c.links[rel]
	if !ok || href == "" {
		return "", fmt.Errorf("comunio: no %q link in API root", rel)
	}
	return strings.ReplaceAll(href, ":communityId", c.CommunityID), nil
}

// jget GETs addr and decodes the JSON response into data.
func (c *Client) jget(addr string, data any) error {
	req, err := http.NewRequest(http.MethodGet, addr, nil)
	if err != nil {
		return err
	}
	return c.do(req, data)
}

// jpost POSTs a JSON payload to addr and decodes the response into data.
func (c *Client) jpost(addr string, payload, data any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, addr, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, data)
}

func (c *Client) do(req *http.Request, data any) error {
	req.Header.Set("Accept", acceptHeader)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	log.Printf("%v %v%v %v", req.Method, req.URL.Host, req.URL.Path, resp.Status)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cannot http %s %v%v: %v", req.Method, req.URL.Host, req.URL.Path, resp.Status)
	}

	// The server occasionally answers 200 with an empty or HTML body when
	// something upstream is off. Surface that instead of a bare json error.
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty response from %v%v", req.URL.Host, req.URL.Path)
	}
	if trimmed[0] != '{' && trimmed[0] != '[' {
		preview := string(trimmed)
		if len(preview) > 120 {
			preview = preview[:120]
		}
		return fmt.Errorf("response from %v%v is not JSON: %q", req.URL.Host, req.URL.Path, preview)
	}
	return json.Unmarshal(trimmed, data)
}

// parseLooseInt reads an integer that the API serves either as a number or
// as a formatted string like "1.234.567".
func parseLooseInt(raw json.RawMessage) (int64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	var digits strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' || r == '-' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 || digits.String() == "-" {
		return 0, false
	}
	var out int64
	if _, err := fmt.Sscan(digits.String(), &out); err != nil {
		return 0, false
	}
	return out, true
}

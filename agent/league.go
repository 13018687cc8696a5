package agent

import (
	"context"
	"fmt"

	"github.com/ligatools/ligaledger/date"
	"google.golang.org/genai"
)

// Books exposes the reconstructed league data to the bookkeeper expert.
// Answers are markdown, ready to be quoted back to the user.
type Books interface {
	// LeagueMarkdown renders the full league overview with balances.
	LeagueMarkdown(ctx context.Context) (string, error)
	// RosterMarkdown renders every manager's squad on the given day.
	RosterMarkdown(ctx context.Context, on date.Date) (string, error)
	// SalaryMarkdown renders the per-manager salary debits since the
	// given day.
	SalaryMarkdown(ctx context.Context, since date.Date) (string, error)
}

// newFacilitator creates the expert that fronts the whole agent: it
// answers directly when it can and routes to the other experts when it
// cannot.
func newFacilitator(experts ...*Expert) *Expert {
	lib := NewLibrary(experts)
	return &Expert{
		Name:        "facilitator",
		Description: "answers questions about the fantasy league, delegating to experts",
		Library:     lib,
		Config: &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
You are the assistant of a fantasy football league manager. You answer
questions about squads, transfers, salaries and account balances.
You have experts at your disposal, exposed as functions. Delegate to
them whatever you cannot answer yourself, and quote their markdown
answers verbatim when they fit the question.
`}}},
			Tools: []*genai.Tool{{FunctionDeclarations: lib.Declarations()}},
		},
	}
}

// NewScout creates a search-grounded expert for real-world football
// facts: fixtures, injuries, lineups.
func NewScout() *Expert {
	return &Expert{
		Name:        "scout",
		Description: "looks up real-world football news: fixtures, injuries, expected lineups",
		Config: &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
You are a football scout. Use search to find current, sourced
information about players, fixtures and injuries. Always mention when
the answer is about the real world rather than the fantasy league.
`}}},
			Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
		},
	}
}

// NewBookkeeper creates the expert that answers questions about the
// league's reconstructed books through function calls into b.
func NewBookkeeper(b Books) *Expert {
	functions := []Function{
		Func{
			Decl: &genai.FunctionDeclaration{
				Name:        "league_overview",
				Description: "the league table with points, team values, account balances and today's salary per manager",
			},
			F: func(ctx context.Context, id string, _ map[string]any) *genai.FunctionResponse {
				return respond(ctx, id, "league_overview", func(ctx context.Context) (string, error) {
					return b.LeagueMarkdown(ctx)
				})
			},
		},
		Func{
			Decl: &genai.FunctionDeclaration{
				Name:        "rosters",
				Description: "every manager's squad on a given day, reconstructed from the transfer history",
				Parameters:  dateSchema("the day to reconstruct, YYYY-MM-DD, defaults to today"),
			},
			F: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
				day, err := parseDate(args, date.Today())
				if err != nil {
					return errResponse(id, "rosters", err)
				}
				return respond(ctx, id, "rosters", func(ctx context.Context) (string, error) {
					return b.RosterMarkdown(ctx, day)
				})
			},
		},
		Func{
			Decl: &genai.FunctionDeclaration{
				Name:        "salaries",
				Description: "per-manager salary debits accumulated since a given day",
				Parameters:  dateSchema("the first day to include, YYYY-MM-DD, defaults to 30 days ago"),
			},
			F: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
				since, err := parseDate(args, date.Today().Add(-30))
				if err != nil {
					return errResponse(id, "salaries", err)
				}
				return respond(ctx, id, "salaries", func(ctx context.Context) (string, error) {
					return b.SalaryMarkdown(ctx, since)
				})
			},
		},
	}
	lib := NewLibrary(functions)
	return &Expert{
		Name:        "bookkeeper",
		Description: "answers questions about the league's books: squads, balances, salary debits",
		Library:     lib,
		Config: &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
You are the league's bookkeeper. Use your functions to look up squads,
balances and salaries, and answer from that data only. Balances marked
with '~' are derived from the transfer history, not confirmed by the
platform; say so when asked about them.
`}}},
			Tools: []*genai.Tool{{FunctionDeclarations: lib.Declarations()}},
		},
	}
}

func dateSchema(desc string) *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"date": {Type: genai.TypeString, Description: desc},
		},
	}
}

// parseDate reads the optional "date" argument, returning fallback when
// absent.
func parseDate(args map[string]any, fallback date.Date) (date.Date, error) {
	raw, ok := args["date"].(string)
	if !ok || raw == "" {
		return fallback, nil
	}
	d, err := date.Parse(raw)
	if err != nil {
		return date.Date{}, fmt.Errorf("invalid date %q: %w", raw, err)
	}
	return d, nil
}

func respond(ctx context.Context, id, name string, f func(context.Context) (string, error)) *genai.FunctionResponse {
	md, err := f(ctx)
	if err != nil {
		return errResponse(id, name, err)
	}
	return &genai.FunctionResponse{
		ID:       id,
		Name:     name,
		Response: map[string]any{"markdown": md},
	}
}

func errResponse(id, name string, err error) *genai.FunctionResponse {
	return &genai.FunctionResponse{
		ID:       id,
		Name:     name,
		Response: map[string]any{"error": err.Error()},
	}
}

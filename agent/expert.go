package agent

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const model = "gemini-2.5-pro"

// Expert is a specialized model, usually holding a library of functions
// it can call to look things up.
type Expert struct {
	Name, Description string
	Config            *genai.GenerateContentConfig
	Library           Library
	chat              *genai.Chat
}

// Start opens the chat with the expert's model.
func (x *Expert) Start(ctx context.Context, client *genai.Client) (err error) {
	x.chat, err = client.Chats.Create(ctx, model, x.Config, nil)
	return err
}

// Declaration returns the expert as a callable function, so that the
// facilitator can route questions to it.
func (x *Expert) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        x.Name,
		Description: x.Description,
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"question": {
					Type:        genai.TypeString,
					Description: "the question to ask the expert",
				},
			},
			Required: []string{"question"},
		},
	}
}

// Call implements the expert's function declaration: the question is
// forwarded to the expert's own chat.
func (x *Expert) Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
	question, ok := args["question"].(string)
	if !ok {
		return &genai.FunctionResponse{
			ID:       id,
			Name:     x.Name,
			Response: map[string]any{"error": "missing 'question' argument"},
		}
	}
	content, err := x.Ask(ctx, &genai.Part{Text: question})
	if err != nil {
		return &genai.FunctionResponse{
			ID:       id,
			Name:     x.Name,
			Response: map[string]any{"error": err.Error()},
		}
	}
	return &genai.FunctionResponse{
		ID:       id,
		Name:     x.Name,
		Response: map[string]any{"answer": content.Parts[0].Text},
	}
}

// Ask sends parts to the expert and resolves any function calls the
// model makes, recursing until a plain answer comes back.
func (x *Expert) Ask(ctx context.Context, parts ...*genai.Part) (*genai.Content, error) {
	deref := make([]genai.Part, 0, len(parts))
	for _, p := range parts {
		deref = append(deref, *p)
	}
	res, err := x.chat.SendMessage(ctx, deref...)
	if err != nil {
		return nil, fmt.Errorf("expert %s cannot send message: %w", x.Name, err)
	}
	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return nil, fmt.Errorf("expert %s returned no content", x.Name)
	}
	content := res.Candidates[0].Content

	// Resolve function calls, if any, and ask again with the responses.
	var responses []*genai.Part
	for _, part := range content.Parts {
		if part.FunctionCall == nil {
			continue
		}
		call := part.FunctionCall
		fresp := x.Library.Call(ctx, call.ID, call.Name, call.Args)
		responses = append(responses, &genai.Part{FunctionResponse: fresp})
	}
	if len(responses) > 0 {
		return x.Ask(ctx, responses...)
	}
	return content, nil
}

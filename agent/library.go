package agent

import (
	"context"

	"google.golang.org/genai"
)

// Function is a callable tool an expert can use during a chat.
type Function interface {
	Declaration() *genai.FunctionDeclaration
	Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse
}

// Library indexes functions by name for dispatching model calls.
type Library map[string]Function

// NewLibrary creates a Library from any slice of Functions.
func NewLibrary[T Function](functions []T) Library {
	lib := make(Library, len(functions))
	for _, f := range functions {
		lib[f.Declaration().Name] = f
	}
	return lib
}

// Declarations returns all function declarations, for the model config.
func (l Library) Declarations() []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(l))
	for _, f := range l {
		decls = append(decls, f.Declaration())
	}
	return decls
}

// Call dispatches a function call by name.
func (l Library) Call(ctx context.Context, id, name string, args map[string]any) *genai.FunctionResponse {
	f, ok := l[name]
	if !ok {
		return &genai.FunctionResponse{
			ID:       id,
			Name:     name,
			Response: map[string]any{"error": "unknown function " + name},
		}
	}
	return f.Call(ctx, id, args)
}

// Func adapts a declaration and a plain function into a Function.
type Func struct {
	Decl *genai.FunctionDeclaration
	F    func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse
}

func (f Func) Declaration() *genai.FunctionDeclaration { return f.Decl }

func (f Func) Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
	return f.F(ctx, id, args)
}

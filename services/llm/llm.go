package llm

import "context"

// FallbackResponse is returned when the upstream call succeeds but carries no
// usable text. An empty completion is not treated as an error.
const FallbackResponse = "I couldn't generate a response."

// Generator is the gateway to a text-generation service: one request, one
// response, no retries.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

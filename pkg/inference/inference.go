package inference

import (
	"context"
)

// Options tunes a single generation call. Zero values leave provider defaults alone.
type Options struct {
	// Model overrides the inferencer's configured model.
	Model           string
	MaxOutputTokens int64
	Temperature     float64

	// JSON asks for a JSON-only response. When Schema is set, providers
	// that support structured outputs constrain the response to it.
	JSON       bool
	Schema     any
	SchemaName string
}

// Inferencer sends a single user prompt to a generative model and returns the
// text of the first candidate. A response with no candidate text yields an
// empty string and no error; callers substitute their own fallback.
type Inferencer interface {
	Infer(ctx context.Context, opts *Options, prompt string) (string, error)
}

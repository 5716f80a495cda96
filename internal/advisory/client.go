// Package advisory wraps the generative model behind the router and the
// handlers. Everything above this package talks to the Client interface;
// the Gemini implementation lives in gemini.go and the response-hygiene
// helpers in extract.go.
package advisory

import "context"

// Client is the advisory model surface. Classify is for structured
// (JSON) output and runs at a fixed low temperature; Complete is for
// prose and takes the caller's temperature.
type Client interface {
	Classify(ctx context.Context, prompt string) (string, error)
	Complete(ctx context.Context, prompt string, temperature float32) (string, error)
}

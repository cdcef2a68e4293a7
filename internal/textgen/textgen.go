// Package textgen abstracts the optional text-generation capability
// consumed by the AI-assisted pipeline stages. Callers must check
// Available before generating and fall back to their deterministic
// path when the capability is absent; Generate on an unavailable
// generator is a programming error, not a supported code path.
package textgen

import "context"

// Request is one blocking generation call. Temperature and MaxTokens
// vary per call site, so they travel with the request rather than the
// client.
type Request struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// Result carries the generated text and the usage metadata that stages
// attach to their event payloads.
type Result struct {
	Text       string
	TokensUsed int
}

// Generator is the narrow contract each stage makes with the backend.
type Generator interface {
	// Available reports whether the capability can be called at all.
	// It is stable for the life of the process.
	Available() bool

	// Generate performs one blocking call and returns the raw reply
	// text. There is no retry; the caller converts any failure into
	// its fallback computation.
	Generate(ctx context.Context, req Request) (*Result, error)
}

// Disabled is the always-unavailable Generator used when no backend is
// configured.
type Disabled struct{}

// Available always reports false.
func (Disabled) Available() bool { return false }

// Generate always fails; callers are expected to check Available first.
func (Disabled) Generate(context.Context, Request) (*Result, error) {
	return nil, ErrUnavailable
}

// Package provider defines the Provider interface and the Perplexity adapter.
//
// Handlers only talk to the Provider interface, which keeps them testable
// with a stub and keeps the wire details of the upstream API in one place.
package provider

import (
	"context"
	"encoding/json"
)

// Provider is the interface the HTTP layer uses to reach the upstream
// answer/search API. Each method makes exactly one outbound call.
type Provider interface {
	// Name returns the provider identifier, e.g. "perplexity".
	Name() string

	// Ask sends query as the user message of a chat completion. An empty
	// model means "use the configured default".
	Ask(ctx context.Context, query, model string) (ChatResponse, error)

	// Search runs a search query and returns the provider's JSON payload
	// untouched.
	Search(ctx context.Context, req SearchRequest) (json.RawMessage, error)
}

// ---------------------------------------------------------------------------
// Request types
// ---------------------------------------------------------------------------

// SearchRequest carries the parameters of one search call.
type SearchRequest struct {
	Query           string
	Count           int
	IncludeSnippets bool

	// URL overrides the configured search endpoint when non-empty.
	URL string
}

// Message is a single chat message in the OpenAI-style role/content shape
// that Perplexity accepts.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ---------------------------------------------------------------------------
// Response types
// ---------------------------------------------------------------------------

// ChatResponse is the decoded body of a chat completion. We keep it as a
// generic JSON object instead of a struct: callers get the whole body back
// for debugging, and the fields we do read (choices, model, usage) are
// pulled out with checked type assertions so an unexpected shape never
// fails the decode.
type ChatResponse map[string]any

package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/howard-nolan/pplxproxy/internal/apierr"
	"github.com/howard-nolan/pplxproxy/internal/provider"
	"github.com/howard-nolan/pplxproxy/internal/translate"
)

// maxBodyBytes caps inbound request bodies.
const maxBodyBytes = 1 << 20

// ---------------------------------------------------------------------------
// Inbound request bodies
// ---------------------------------------------------------------------------

// askRequest is the body of POST /ask. Either Query or Title must be set.
type askRequest struct {
	Title string `json:"title"`
	Query string `json:"query"`
	Model string `json:"model"`
}

// askTextRequest is the body of POST /ask_text. Key is the client
// identification key, not a Perplexity API key.
type askTextRequest struct {
	Key   string `json:"key"`
	Text  string `json:"text"`
	Model string `json:"model"`
}

// searchTextRequest is the body of POST /search_text. Count and
// IncludeSnippets are pointers so "absent" can get a default while an
// explicit 0 is still rejected.
type searchTextRequest struct {
	Key             string `json:"key"`
	Text            string `json:"text"`
	Count           *int   `json:"count"`
	IncludeSnippets *bool  `json:"include_snippets"`
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

// handleHealth reports liveness and the default model.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"model":  s.cfg.Perplexity.Model,
	})
}

// handleAsk handles POST /ask: a free-form question, or an overview of a
// book when only a title is given.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	query, err := translate.AskQuery(req.Query, req.Title)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.ask(w, r, query, req.Model)
}

// handleAskText handles POST /ask_text: book info in the ten-line Russian
// layout for the title given in text.
func (s *Server) handleAskText(w http.ResponseWriter, r *http.Request) {
	var req askTextRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := translate.CheckClientKey(s.cfg.Auth.ClientIdentKey, req.Key); err != nil {
		writeError(w, r, err)
		return
	}

	text, err := translate.RequireText(req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.ask(w, r, translate.BookInfoPrompt(text), req.Model)
}

// handleSearchText handles POST /search_text and returns the provider's
// search payload under "results".
func (s *Server) handleSearchText(w http.ResponseWriter, r *http.Request) {
	// Step 1: Decode the JSON body. By the time we get here the
	// requireIdentKey middleware has already confirmed the server has a
	// key configured, so a 500 for that case never reaches this code.
	var req searchTextRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	// Step 2: Compare the client's key before looking at anything else
	// in the body. A wrong key is a 401 even if the rest of the payload
	// is also bad.
	if err := translate.CheckClientKey(s.cfg.Auth.ClientIdentKey, req.Key); err != nil {
		writeError(w, r, err)
		return
	}

	// Step 3: Validate the payload. Count and IncludeSnippets are
	// pointers, so nil means "not sent" and gets the default (5, true),
	// while an explicit 0 or 21 is rejected rather than clamped.
	text, err := translate.RequireText(req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}

	count, snippets, err := translate.SearchParams(req.Count, req.IncludeSnippets)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Step 4: Call the provider. r.Context() is cancelled if the client
	// disconnects, and the provider layers its own timeout on top.
	results, err := s.provider.Search(r.Context(), provider.SearchRequest{
		Query:           text,
		Count:           count,
		IncludeSnippets: snippets,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Step 5: Wrap the provider's payload under "results" without
	// touching it. results is a json.RawMessage, so the encoder copies
	// the bytes through as-is instead of re-shaping them.
	writeJSON(w, http.StatusOK, translate.SearchResults{Results: results})
}

// ask is the shared tail of /ask and /ask_text: call the provider with the
// prepared query and reshape its response into an Envelope.
func (s *Server) ask(w http.ResponseWriter, r *http.Request, query, model string) {
	// Step 1: Call the provider. We pass r.Context() so the upstream call
	// is abandoned if the client goes away. Any error that comes back is
	// already tagged with its category (config, provider, ...), and
	// writeError turns that into the right status code.
	resp, err := s.provider.Ask(r.Context(), query, model)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Step 2: Flatten the response. NewEnvelope never fails: if the
	// provider's JSON doesn't have the shape we expect, the answer falls
	// back to a fixed sentinel and the raw body still goes to the client
	// so they can see what actually came back.
	writeJSON(w, http.StatusOK, translate.NewEnvelope(resp))
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// decodeJSON reads a size-limited JSON body into dst. Any decode failure is
// a validation error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body: %w", apierr.ErrValidation, err)
	}
	return nil
}

// writeJSON sets the Content-Type, writes the status, and encodes v.
// Headers must be set before WriteHeader; after that they're locked in.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encoding response: %v", err)
	}
}

// writeError maps err to its status code and writes {"detail": "..."}.
// Server-side failures are logged with the request ID; client mistakes
// are not.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apierr.Status(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[%s] %s %s: %v", middleware.GetReqID(r.Context()), r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, map[string]string{"detail": err.Error()})
}

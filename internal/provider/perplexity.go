package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/howard-nolan/pplxproxy/internal/apierr"
	"github.com/howard-nolan/pplxproxy/internal/config"
	"github.com/howard-nolan/pplxproxy/internal/metrics"
)

// systemPrompt is sent as the first message of every ask.
const systemPrompt = "You are a helpful, factual assistant."

// maxErrorBody caps how much of a failed upstream response we copy into
// the error message.
const maxErrorBody = 4 << 10

// ---------------------------------------------------------------------------
// PerplexityProvider struct + constructor
// ---------------------------------------------------------------------------

// PerplexityProvider implements Provider for Perplexity's chat completions
// and search endpoints. It holds no per-request state, so one instance is
// shared by every handler.
type PerplexityProvider struct {
	apiKey       string
	askURL       string
	searchURL    string
	defaultModel string
	timeout      time.Duration
	client       *http.Client // shared, manages connection pooling
}

// NewPerplexityProvider creates a PerplexityProvider from configuration.
// The *http.Client is injected so main can share one across the process
// and tests can point it at a stub or a cassette recorder.
func NewPerplexityProvider(cfg config.PerplexityConfig, client *http.Client) *PerplexityProvider {
	return &PerplexityProvider{
		apiKey:       cfg.APIKey,
		askURL:       cfg.APIURL,
		searchURL:    cfg.SearchURL,
		defaultModel: cfg.Model,
		timeout:      timeoutOrDefault(cfg.Timeout()),
		client:       client,
	}
}

// timeoutOrDefault never lets a zero or negative timeout through: every
// upstream call gets a deadline.
func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return config.DefaultTimeoutSeconds * time.Second
	}
	return d
}

// Name returns the provider identifier.
func (p *PerplexityProvider) Name() string {
	return "perplexity"
}

// ---------------------------------------------------------------------------
// Perplexity API types (unexported)
// ---------------------------------------------------------------------------

// chatRequest is the body for the chat completions endpoint.
type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

// searchRequest is the body for the search endpoint.
type searchRequest struct {
	Query           string `json:"query"`
	Count           int    `json:"count"`
	IncludeSnippets bool   `json:"include_snippets"`
}

// ---------------------------------------------------------------------------
// Ask
// ---------------------------------------------------------------------------

// Ask sends a chat completion with a fixed system instruction followed by
// query as the user message, and returns the decoded response body.
func (p *PerplexityProvider) Ask(ctx context.Context, query, model string) (ChatResponse, error) {
	// Check the key before touching the network: a missing key is our
	// misconfiguration, not an upstream failure.
	if p.apiKey == "" {
		return nil, fmt.Errorf("%w: PERPLEXITY_API_KEY is not set", apierr.ErrConfig)
	}

	if model == "" {
		model = p.defaultModel
	}

	payload := chatRequest{
		Model: model,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: query},
		},
	}

	start := time.Now()
	body, err := p.post(ctx, p.askURL, payload)
	metrics.RecordUpstream("ask", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, err
	}

	// UseNumber keeps integers in the raw body exactly as the provider
	// sent them when we re-encode it for the client.
	var resp ChatResponse
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&resp); err != nil {
		return nil, fmt.Errorf("%w: decoding perplexity response: %w", apierr.ErrProvider, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: perplexity response is not a JSON object", apierr.ErrProvider)
	}

	recordUsage(resp, model)

	return resp, nil
}

// ---------------------------------------------------------------------------
// Search
// ---------------------------------------------------------------------------

// Search posts a search query and returns the provider's JSON body as-is.
func (p *PerplexityProvider) Search(ctx context.Context, req SearchRequest) (json.RawMessage, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("%w: PERPLEXITY_API_KEY is not set", apierr.ErrConfig)
	}

	url := req.URL
	if url == "" {
		url = p.searchURL
	}

	payload := searchRequest{
		Query:           req.Query,
		Count:           req.Count,
		IncludeSnippets: req.IncludeSnippets,
	}

	start := time.Now()
	body, err := p.post(ctx, url, payload)
	metrics.RecordUpstream("search", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, err
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: perplexity search response is not valid JSON", apierr.ErrProvider)
	}

	return json.RawMessage(body), nil
}

// ---------------------------------------------------------------------------
// Shared HTTP plumbing
// ---------------------------------------------------------------------------

// post marshals payload, POSTs it to url with bearer auth, and returns the
// response body. The call is bounded by the configured timeout on top of
// whatever deadline ctx already carries. Every failure is wrapped in
// apierr.ErrProvider with the underlying cause kept in the message.
func (p *PerplexityProvider) post(ctx context.Context, url string, payload any) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %w", apierr.ErrProvider, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: sending request to perplexity: %w", apierr.ErrProvider, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: perplexity API error (status %d): %s",
			apierr.ErrProvider, httpResp.StatusCode, strings.TrimSpace(string(errBody)),
		)
	}

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading perplexity response: %w", apierr.ErrProvider, err)
	}

	return respBody, nil
}

// recordUsage feeds the usage block, when present, into the token metrics.
// The model label prefers what the provider reports over what we asked for.
func recordUsage(resp ChatResponse, requested string) {
	usage, ok := resp["usage"].(map[string]any)
	if !ok {
		return
	}
	model, ok := resp["model"].(string)
	if !ok || model == "" {
		model = requested
	}
	metrics.RecordTokens(model, number(usage["prompt_tokens"]), number(usage["completion_tokens"]))
}

// number reads a JSON number decoded either with or without UseNumber.
func number(v any) float64 {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	case float64:
		return n
	default:
		return 0
	}
}

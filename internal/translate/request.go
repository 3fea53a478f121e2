// Package translate turns inbound requests into provider calls and provider
// responses into the envelope clients receive.
package translate

import (
	"fmt"
	"strings"

	"github.com/howard-nolan/pplxproxy/internal/apierr"
)

// Search count bounds and defaults.
const (
	MinSearchCount     = 1
	MaxSearchCount     = 20
	DefaultSearchCount = 5
)

// AskQuery picks the text to send for a free-form ask. An explicit query
// wins and is sent trimmed; otherwise a title is wrapped in the overview
// prompt. With neither, the request is invalid.
func AskQuery(query, title string) (string, error) {
	if q := strings.TrimSpace(query); q != "" {
		return q, nil
	}
	if t := strings.TrimSpace(title); t != "" {
		return OverviewPrompt(t), nil
	}
	return "", fmt.Errorf("%w: Provide 'title' or 'query'", apierr.ErrValidation)
}

// CheckClientKey compares the key a client sent with the configured one.
// Keys are compared with plain string equality.
func CheckClientKey(expected, got string) error {
	if err := RequireIdentKey(expected); err != nil {
		return err
	}
	if got != expected {
		return fmt.Errorf("%w: Invalid key", apierr.ErrAuth)
	}
	return nil
}

// RequireIdentKey fails when the server has no client identification key
// configured, which makes the protected routes unusable.
func RequireIdentKey(expected string) error {
	if expected == "" {
		return fmt.Errorf("%w: Server identification key is not configured (CLIENT_IDENT_KEY)", apierr.ErrConfig)
	}
	return nil
}

// RequireText trims text and rejects it if nothing is left.
func RequireText(text string) (string, error) {
	t := strings.TrimSpace(text)
	if t == "" {
		return "", fmt.Errorf("%w: 'text' must be non-empty", apierr.ErrValidation)
	}
	return t, nil
}

// SearchParams applies defaults to the optional search fields and rejects
// counts outside [MinSearchCount, MaxSearchCount]. Out-of-range counts are
// an error rather than being clamped.
func SearchParams(count *int, includeSnippets *bool) (int, bool, error) {
	n := DefaultSearchCount
	if count != nil {
		n = *count
	}
	if n < MinSearchCount || n > MaxSearchCount {
		return 0, false, fmt.Errorf("%w: 'count' must be between %d and %d, got %d",
			apierr.ErrValidation, MinSearchCount, MaxSearchCount, n,
		)
	}

	snippets := true
	if includeSnippets != nil {
		snippets = *includeSnippets
	}

	return n, snippets, nil
}

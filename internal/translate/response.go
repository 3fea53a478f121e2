package translate

import (
	"encoding/json"

	"github.com/howard-nolan/pplxproxy/internal/provider"
)

// NoAnswer is the answer clients get when the provider response has no
// usable content. It keeps Envelope.Answer non-empty.
const NoAnswer = "No answer content found in response."

// Envelope is the flattened response returned by /ask and /ask_text.
// Model and Usage are null when the provider didn't send them; Raw is the
// full provider body so callers can dig into anything we didn't lift out.
type Envelope struct {
	Answer string                `json:"answer"`
	Model  *string               `json:"model"`
	Usage  map[string]any        `json:"usage"`
	Raw    provider.ChatResponse `json:"raw"`
}

// SearchResults wraps a provider search payload without reshaping it.
type SearchResults struct {
	Results json.RawMessage `json:"results"`
}

// NewEnvelope extracts the answer, model, and usage from a chat response.
// Shape mismatches are not errors: a missing or mistyped field just means
// that field is absent, and a missing answer becomes NoAnswer.
func NewEnvelope(resp provider.ChatResponse) Envelope {
	env := Envelope{Raw: resp}

	if model, ok := resp["model"].(string); ok {
		env.Model = &model
	}
	if usage, ok := resp["usage"].(map[string]any); ok {
		env.Usage = usage
	}

	env.Answer = firstChoiceContent(resp)
	if env.Answer == "" {
		env.Answer = NoAnswer
	}

	return env
}

// firstChoiceContent reads choices[0].message.content. Each step uses a
// checked type assertion, so any unexpected shape yields "" instead of a
// panic.
func firstChoiceContent(resp provider.ChatResponse) string {
	choices, ok := resp["choices"].([]any)
	if !ok || len(choices) == 0 {
		return ""
	}
	choice, ok := choices[0].(map[string]any)
	if !ok {
		return ""
	}
	message, ok := choice["message"].(map[string]any)
	if !ok {
		return ""
	}
	content, _ := message["content"].(string)
	return content
}

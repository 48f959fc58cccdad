package genai

import (
	"encoding/json"
	"regexp"

	"github.com/gooseworks/goose-copilot/internal/domain"
)

// Generative backends routinely wrap JSON in prose or code fences. The
// greedy first-{ to last-} span subsumes fence stripping for well-formed
// fenced JSON, so there is no separate markdown pass.
var braceSpan = regexp.MustCompile(`(?s)\{.*\}`)

// ParseJSON extracts a JSON object from a possibly-malformed model reply
// into out. It tries a direct parse first, then the brace-span salvage, and
// fails with ErrMalformedAIResponse when both strategies come up empty.
func ParseJSON(raw string, out any) error {
	if err := json.Unmarshal([]byte(raw), out); err == nil {
		return nil
	}
	if match := braceSpan.FindString(raw); match != "" {
		if err := json.Unmarshal([]byte(match), out); err == nil {
			return nil
		}
	}
	return domain.NewErrMalformedAIResponse(raw)
}

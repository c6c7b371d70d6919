// Package jsonout recovers a JSON object from free-form language-model text.
// Models wrap JSON in prose or code fences inconsistently, so recovery runs a
// fixed priority chain: fenced block first, then the first-{ to last-} span.
// The order matters; brace-scanning is strictly more permissive and would
// mis-extract on text that also contains a fenced block.
package jsonout

import (
	"encoding/json"
	"regexp"
	"strings"
)

const rawSampleLimit = 200

var (
	reFence   = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	reComment = regexp.MustCompile(`(?m)\s*//.*$`)
)

// RecoveryError reports why a completion could not be turned into a JSON
// object. RawContent carries a diagnostic sample of the offending text,
// capped so whole model responses never leak into logs or API bodies.
type RecoveryError struct {
	Reason     string `json:"error"`
	Details    string `json:"details,omitempty"`
	RawContent string `json:"raw_content"`
}

func (e *RecoveryError) Error() string {
	if e.Details != "" {
		return e.Reason + ": " + e.Details
	}
	return e.Reason
}

// ExtractObject extracts and parses a JSON object from text. On failure the
// returned error is always a *RecoveryError.
func ExtractObject(text string) (map[string]any, error) {
	content := strings.TrimSpace(text)

	if m := reFence.FindStringSubmatch(content); m != nil {
		content = strings.TrimSpace(m[1])
	} else {
		start := strings.Index(content, "{")
		end := strings.LastIndex(content, "}")
		if start == -1 || end == -1 || end < start {
			return nil, &RecoveryError{
				Reason:     "No JSON content found in response",
				RawContent: sample(content),
			}
		}
		content = content[start : end+1]
	}

	content = reComment.ReplaceAllString(content, "")

	var parsed any
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, &RecoveryError{
			Reason:     "Failed to parse JSON response",
			Details:    err.Error(),
			RawContent: sample(content),
		}
	}

	obj, ok := parsed.(map[string]any)
	if !ok {
		return nil, &RecoveryError{
			Reason:     "Response is not a JSON object",
			RawContent: sample(content),
		}
	}
	return obj, nil
}

func sample(s string) string {
	r := []rune(s)
	if len(r) > rawSampleLimit {
		return string(r[:rawSampleLimit])
	}
	return s
}

package nlu

import (
	"encoding/json"
	"errors"
	"strings"
)

// salvageJSON extracts a JSON object from possibly noisy model output:
// markdown fences are stripped, and as a last resort the outermost brace
// pair is tried.
func salvageJSON(raw string) ([]byte, error) {
	s := stripCodeFences(raw)

	if json.Valid([]byte(s)) {
		return []byte(s), nil
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || start >= end {
		return nil, errors.New("no JSON object found in response")
	}

	candidate := s[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return nil, errors.New("extracted content is not valid JSON")
	}
	return []byte(candidate), nil
}

// stripCodeFences removes ```json ... ``` markers around a response.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if cut, found := strings.CutPrefix(s, "```json"); found {
		s = cut
	} else if cut, found := strings.CutPrefix(s, "```"); found {
		s = cut
	}
	if cut, found := strings.CutSuffix(s, "```"); found {
		s = cut
	}
	return strings.TrimSpace(s)
}

package llm

import (
	"strings"

	"github.com/tidwall/gjson"
)

// ExtractJSON pulls the first JSON object out of a model response. Models in
// non-constrained mode wrap JSON in code fences or prose; callers treat a
// false return as malformed-model-output and fall back to their sentinel.
func ExtractJSON(s string) (gjson.Result, bool) {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+3:]
		s = strings.TrimPrefix(s, "json")
		if j := strings.Index(s, "```"); j >= 0 {
			s = s[:j]
		}
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return gjson.Result{}, false
	}
	s = s[start : end+1]
	if !gjson.Valid(s) {
		return gjson.Result{}, false
	}
	return gjson.Parse(s), true
}

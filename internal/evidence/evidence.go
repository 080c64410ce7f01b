// Package evidence holds the value type produced by every retrieval call.
// Evidence is never mutated after creation; merges produce new values.
package evidence

import "strings"

// Evidence is the result of one retrieval call: text plus the ordered list
// of source URLs backing it. Origin tags the producing tool or backend so
// result slots can be matched back for citation attribution.
type Evidence struct {
	Text    string
	Sources []string
	Origin  string
}

// Merge concatenates text in input order and unions sources with duplicates
// removed, first-seen order preserved.
func Merge(parts ...Evidence) Evidence {
	var texts []string
	seen := make(map[string]bool)
	var sources []string
	var origins []string

	for _, p := range parts {
		if t := strings.TrimSpace(p.Text); t != "" {
			texts = append(texts, t)
		}
		for _, s := range p.Sources {
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			sources = append(sources, s)
		}
		if p.Origin != "" {
			origins = append(origins, p.Origin)
		}
	}

	return Evidence{
		Text:    strings.Join(texts, "\n"),
		Sources: sources,
		Origin:  strings.Join(origins, "+"),
	}
}

// UnionSources unions URL lists with duplicates removed, first-seen order.
func UnionSources(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, s := range list {
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

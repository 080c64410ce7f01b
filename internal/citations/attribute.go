// Package citations turns raw source URLs into stable human-readable
// citation labels and rewrites trailing source annotations in generated
// answers into deduplicated, clickable citation lists.
package citations

import (
	"net/url"
	"strings"
)

// secondLevelSuffixes are labels that form a compound public suffix with a
// two-letter country code (bbc.co.uk, example.com.au).
var secondLevelSuffixes = map[string]bool{
	"co": true, "com": true, "net": true, "org": true,
	"gov": true, "ac": true, "edu": true,
}

// Attribute derives a display name from a URL: the registrable domain and
// any subdomains are segmented into constituent words, words are
// deduplicated first-seen, then rendered with short tokens (≤3 chars)
// upper-cased and longer ones title-cased.
//
//	https://businessinsider.com/x  -> "Business Insider"
//	https://nytimes.com/y          -> "NY Times"
//	https://finance.yahoo.com/q    -> "Yahoo Finance"
func Attribute(rawURL string) string {
	host := hostname(rawURL)
	if host == "" {
		return rawURL
	}

	labels := splitHost(host)
	if len(labels) == 0 {
		return rawURL
	}

	// Registrable domain first, then subdomains nearest-first, so
	// finance.yahoo.com reads "Yahoo Finance".
	var words []string
	words = append(words, segment(labels[len(labels)-1])...)
	for i := len(labels) - 2; i >= 0; i-- {
		words = append(words, segment(labels[i])...)
	}

	seen := make(map[string]bool)
	var parts []string
	for _, w := range words {
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		parts = append(parts, renderWord(w))
	}
	return strings.Join(parts, " ")
}

// hostname extracts the host from a URL, tolerating scheme-less input.
func hostname(rawURL string) string {
	s := strings.TrimSpace(rawURL)
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// splitHost strips "www" and the public suffix, returning the remaining
// labels in subdomain-to-domain order.
func splitHost(host string) []string {
	labels := strings.Split(host, ".")
	if len(labels) > 1 && labels[0] == "www" {
		labels = labels[1:]
	}
	if len(labels) > 1 {
		// Drop the TLD, and a compound suffix like .co.uk.
		labels = labels[:len(labels)-1]
		if len(labels) > 1 && len(host)-strings.LastIndex(host, ".") == 3 &&
			secondLevelSuffixes[labels[len(labels)-1]] {
			labels = labels[:len(labels)-1]
		}
	}
	return labels
}

const maxSegmentWord = 24

// segment splits a concatenated label ("businessinsider") into dictionary
// words via a minimal-cost dynamic program. Unknown spans stay whole rather
// than shattering into letters. Hyphenated labels segment per part.
func segment(label string) []string {
	if label == "" {
		return nil
	}
	if strings.ContainsAny(label, "-_") {
		var out []string
		for _, part := range strings.FieldsFunc(label, func(r rune) bool { return r == '-' || r == '_' }) {
			out = append(out, segment(part)...)
		}
		return out
	}

	n := len(label)
	const inf = 1e18
	best := make([]float64, n+1)
	split := make([]int, n+1)
	for i := 1; i <= n; i++ {
		best[i] = inf
		lo := 0
		if i > maxSegmentWord {
			lo = i - maxSegmentWord
		}
		for j := lo; j < i; j++ {
			if best[j] >= inf {
				continue
			}
			c := best[j] + chunkCost(label[j:i])
			if c < best[i] {
				best[i] = c
				split[i] = j
			}
		}
	}

	var words []string
	for i := n; i > 0; i = split[i] {
		words = append(words, label[split[i]:i])
	}
	// Reverse into left-to-right order.
	for l, r := 0, len(words)-1; l < r; l, r = l+1, r-1 {
		words[l], words[r] = words[r], words[l]
	}
	return words
}

func chunkCost(chunk string) float64 {
	if c, ok := segDict[chunk]; ok {
		return c
	}
	// Unknown spans are priced above any plausible dictionary split so a
	// brand name like "tesla" survives as one word.
	return 8.0 + 0.8*float64(len(chunk))
}

// renderWord applies the casing rule: short tokens read as initialisms.
func renderWord(w string) string {
	if len(w) <= 3 {
		return strings.ToUpper(w)
	}
	return strings.ToUpper(w[:1]) + w[1:]
}

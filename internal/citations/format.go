package citations

import (
	"fmt"
	"regexp"
	"strings"
)

const esc = "\x1b"

// quoteURLFormat is the canonical quote page used for ticker citations.
const quoteURLFormat = "https://finance.yahoo.com/quote/%s"

var trailingParens = regexp.MustCompile(`\(([^)]+)\)\.?\s*$`)

// QuoteURL returns the canonical quote page for a ticker.
func QuoteURL(ticker string) string {
	return fmt.Sprintf(quoteURLFormat, ticker)
}

// Hyperlink renders an OSC 8 terminal hyperlink for the given URL and text.
func Hyperlink(url, text string) string {
	return fmt.Sprintf("%s]8;;%s%s\\%s%s]8;;%s\\", esc, url, esc, text, esc, esc)
}

// FormatSources rewrites the trailing parenthesised source annotation of a
// generated answer into "(Source: ...)" with hyperlinked display names.
//
// With a ticker the annotation becomes a single link to the canonical quote
// page labeled "Yahoo Finance". Without one, the annotation is read as a
// comma-separated URL list: each URL is attributed and the resulting names
// are deduplicated (by name, not URL) preserving first-seen order.
//
// Text without a trailing parenthesis, or whose annotation is already
// hyperlinked, is returned unchanged, so the function is idempotent.
func FormatSources(text, ticker string) string {
	m := trailingParens.FindStringSubmatch(text)
	if m == nil {
		return text
	}
	content := m[1]

	// Already-formatted output carries OSC 8 escapes; re-formatting would
	// nest links inside links.
	if strings.Contains(content, esc+"]8;;") {
		return text
	}

	var links []string
	if ticker != "" {
		links = append(links, Hyperlink(fmt.Sprintf(quoteURLFormat, ticker), "Yahoo Finance"))
	} else {
		urls := splitSourceList(content)
		if len(urls) == 0 {
			return text
		}
		seen := make(map[string]bool)
		for _, u := range urls {
			name := Attribute(u)
			if seen[name] {
				continue
			}
			seen[name] = true
			links = append(links, Hyperlink(u, name))
		}
	}

	replacement := fmt.Sprintf("(Source: %s).", strings.Join(links, ", "))
	return trailingParens.ReplaceAllStringFunc(text, func(string) string { return replacement })
}

// splitSourceList extracts URL-looking entries from the annotation body.
// Entries that do not look like URLs (a bare "Source: Reuters" the model
// already named) leave the annotation alone.
func splitSourceList(content string) []string {
	content = strings.TrimPrefix(strings.TrimSpace(content), "Source:")
	var urls []string
	for _, part := range strings.Split(content, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.Contains(part, "://") && !strings.Contains(part, ".") {
			return nil
		}
		urls = append(urls, part)
	}
	return urls
}

package evidence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeUnionsSourcesFirstSeen(t *testing.T) {
	a := Evidence{
		Text:    "Tesla is an EV company.",
		Sources: []string{"https://tesla.com", "https://reuters.com"},
		Origin:  "search_a",
	}
	b := Evidence{
		Text:    "Tesla stock rose today.",
		Sources: []string{"https://reuters.com", "https://finance.com"},
		Origin:  "search_b",
	}

	m := Merge(a, b)

	assert.Equal(t, "Tesla is an EV company.\nTesla stock rose today.", m.Text)
	assert.Equal(t, []string{"https://tesla.com", "https://reuters.com", "https://finance.com"}, m.Sources)
	assert.Equal(t, "search_a+search_b", m.Origin)
}

func TestMergeSkipsEmptyParts(t *testing.T) {
	m := Merge(Evidence{}, Evidence{Text: "  ", Sources: []string{""}}, Evidence{Text: "x", Sources: []string{"https://a.com"}})
	assert.Equal(t, "x", m.Text)
	assert.Equal(t, []string{"https://a.com"}, m.Sources)
}

func TestUnionSources(t *testing.T) {
	got := UnionSources(
		[]string{"https://a.com", "https://b.com"},
		[]string{"https://b.com", "https://c.com", ""},
	)
	assert.Equal(t, []string{"https://a.com", "https://b.com", "https://c.com"}, got)
}

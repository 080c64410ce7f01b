package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONPlain(t *testing.T) {
	res, ok := ExtractJSON(`{"ambiguous": true, "follow_up": "Which Midas?"}`)
	require.True(t, ok)
	assert.True(t, res.Get("ambiguous").Bool())
	assert.Equal(t, "Which Midas?", res.Get("follow_up").String())
}

func TestExtractJSONCodeFence(t *testing.T) {
	raw := "Here you go:\n```json\n{\"company\": \"Apple, Inc.\", \"intent\": \"stock\"}\n```\nHope that helps."
	res, ok := ExtractJSON(raw)
	require.True(t, ok)
	assert.Equal(t, "Apple, Inc.", res.Get("company").String())
}

func TestExtractJSONSurroundingProse(t *testing.T) {
	raw := `The answer is {"tools": ["SerperQueryTool"]} as requested.`
	res, ok := ExtractJSON(raw)
	require.True(t, ok)
	assert.Equal(t, "SerperQueryTool", res.Get("tools.0").String())
}

func TestExtractJSONMalformed(t *testing.T) {
	for _, raw := range []string{"", "not json at all", "{broken", `{"a": }`} {
		_, ok := ExtractJSON(raw)
		assert.False(t, ok, "input %q should not parse", raw)
	}
}

package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/corpquery/corpquery/internal/llm"
)

// scriptedModel returns canned responses keyed by request purpose.
type scriptedModel struct {
	responses map[string][]string
	calls     map[string]int
}

func newScriptedModel() *scriptedModel {
	return &scriptedModel{responses: map[string][]string{}, calls: map[string]int{}}
}

func (m *scriptedModel) respond(purpose string, outs ...string) *scriptedModel {
	m.responses[purpose] = append(m.responses[purpose], outs...)
	return m
}

func (m *scriptedModel) Complete(_ context.Context, req llm.Request) (string, error) {
	outs := m.responses[req.Purpose]
	i := m.calls[req.Purpose]
	m.calls[req.Purpose]++
	if i >= len(outs) {
		return "", errors.New("no scripted response for " + req.Purpose)
	}
	return outs[i], nil
}

func fixedClock() time.Time {
	return time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)
}

func newTestDisambiguator(t *testing.T, m llm.Model) *Disambiguator {
	return NewDisambiguator(m, zaptest.NewLogger(t)).WithClock(fixedClock)
}

func TestDetectAmbiguity(t *testing.T) {
	m := newScriptedModel().
		respond("detect_ambiguity",
			`{"ambiguous": true, "follow_up": "Are you referring to Midas Investments or Midas Automotive Service?"}`,
			`{"ambiguous": false, "follow_up": null}`,
		)
	d := newTestDisambiguator(t, m)

	amb, err := d.DetectAmbiguity(context.Background(), "Where is Midas?")
	require.NoError(t, err)
	assert.True(t, amb.Ambiguous)
	assert.NotEmpty(t, amb.FollowUp)

	amb, err = d.DetectAmbiguity(context.Background(), "Where is Tesla headquarters?")
	require.NoError(t, err)
	assert.False(t, amb.Ambiguous)
}

func TestDetectAmbiguityMalformedDefaultsToUnambiguous(t *testing.T) {
	m := newScriptedModel().respond("detect_ambiguity", "I think it's probably fine")
	d := newTestDisambiguator(t, m)

	amb, err := d.DetectAmbiguity(context.Background(), "Where is Tesla?")
	require.NoError(t, err)
	assert.False(t, amb.Ambiguous)
}

func TestExtractStructured(t *testing.T) {
	m := newScriptedModel().respond("extract_structured",
		`{"company": "Tesla Inc.", "intent": "location", "details": "headquarters", "time_reference": ""}`)
	d := newTestDisambiguator(t, m)

	s, err := d.ExtractStructured(context.Background(), "Where is Tesla headquarters?")
	require.NoError(t, err)
	assert.Equal(t, "Tesla Inc.", s.Company)
	assert.Equal(t, IntentLocation, s.Intent)
	assert.Equal(t, "headquarters", s.Details)
}

func TestExtractStructuredMalformedUsesSentinel(t *testing.T) {
	m := newScriptedModel().respond("extract_structured", "not json")
	d := newTestDisambiguator(t, m)

	s, err := d.ExtractStructured(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, "Unknown", s.Company)
	assert.Equal(t, IntentUnknown, s.Intent)
	assert.Empty(t, s.Details)
	assert.Empty(t, s.TimeReference)
}

func TestCompileQueryTemplates(t *testing.T) {
	d := newTestDisambiguator(t, newScriptedModel())

	cases := []struct {
		name string
		in   Structured
		want string
	}{
		{
			name: "location with details",
			in:   Structured{Company: "Tesla Inc.", Intent: IntentLocation, Details: "headquarters"},
			want: "Tesla Inc. headquarters location",
		},
		{
			name: "location without details",
			in:   Structured{Company: "Tesla Inc.", Intent: IntentLocation},
			want: "Tesla Inc. headquarters location",
		},
		{
			name: "general information",
			in:   Structured{Company: "Apple, Inc.", Intent: IntentGeneralInformation},
			want: "Apple, Inc. history and products overview",
		},
		{
			name: "business model",
			in:   Structured{Company: "Stripe", Intent: IntentBusinessModel},
			want: "Stripe revenue model",
		},
		{
			name: "stock with details",
			in:   Structured{Company: "Apple, Inc.", Intent: IntentStock, Details: "price"},
			want: "Apple, Inc. stock price",
		},
		{
			name: "news resolves relative time to current year",
			in:   Structured{Company: "Tesla Inc.", Intent: IntentNews, TimeReference: "recently"},
			want: "Latest news on Tesla Inc. 2026",
		},
		{
			name: "explicit time passes through",
			in:   Structured{Company: "Tesla Inc.", Intent: IntentNews, TimeReference: "2019"},
			want: "Latest news on Tesla Inc. 2019",
		},
		{
			name: "investments",
			in:   Structured{Company: "Sequoia Capital", Intent: IntentInvestments, TimeReference: "this year"},
			want: "Sequoia Capital investment portfolio 2026",
		},
		{
			name: "products",
			in:   Structured{Company: "Apple, Inc.", Intent: IntentProducts},
			want: "Apple, Inc. product lineup",
		},
		{
			name: "history",
			in:   Structured{Company: "IBM", Intent: IntentHistory},
			want: "IBM history overview",
		},
		{
			name: "unknown intent falls back to concatenation",
			in:   Structured{Company: "Acme", Intent: IntentUnknown, Details: "lawsuits", TimeReference: "2024"},
			want: "Acme lawsuits 2024",
		},
		{
			name: "intent word stripped from details",
			in:   Structured{Company: "Apple, Inc.", Intent: IntentStock, Details: "stock price"},
			want: "Apple, Inc. stock price",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, d.CompileQuery(tc.in, false))
			// Determinism: identical input, identical output.
			assert.Equal(t, tc.want, d.CompileQuery(tc.in, false))
		})
	}
}

func TestCompileQueryRetryBypassesTemplates(t *testing.T) {
	d := newTestDisambiguator(t, newScriptedModel())
	s := Structured{Company: "Tesla Inc.", Intent: IntentNews, Details: "layoffs", TimeReference: "2024"}
	assert.Equal(t, "Tesla Inc. layoffs 2024", d.CompileQuery(s, true))
}

func TestResolveAmbiguousQuery(t *testing.T) {
	m := newScriptedModel().
		respond("detect_ambiguity", `{"ambiguous": true, "follow_up": "Which Midas do you mean?"}`).
		respond("clarify_query", "Where is Midas Investments located?").
		respond("extract_structured", `{"company": "Midas Investments", "intent": "location", "details": "", "time_reference": ""}`)
	d := newTestDisambiguator(t, m)

	asked := ""
	r, err := d.Resolve(context.Background(), "Where is Midas?", func(q string) (string, error) {
		asked = q
		return "the investment firm", nil
	}, false)
	require.NoError(t, err)

	assert.Equal(t, "Which Midas do you mean?", asked)
	assert.True(t, r.IsAmbiguous)
	assert.Equal(t, "the investment firm", r.ClarificationAnswer)
	assert.Equal(t, IntentLocation, r.Intent)
	assert.Contains(t, r.RefinedText, "Midas Investments")
}

func TestResolveUnambiguousSkipsClarification(t *testing.T) {
	m := newScriptedModel().
		respond("detect_ambiguity", `{"ambiguous": false, "follow_up": null}`).
		respond("extract_structured", `{"company": "Tesla Inc.", "intent": "location", "details": "headquarters", "time_reference": ""}`)
	d := newTestDisambiguator(t, m)

	r, err := d.Resolve(context.Background(), "Where is Tesla headquarters?", func(string) (string, error) {
		t.Fatal("clarification must not be requested for unambiguous query")
		return "", nil
	}, false)
	require.NoError(t, err)
	assert.Equal(t, "Tesla Inc. headquarters location", r.RefinedText)
	assert.False(t, r.IsAmbiguous)
}

func TestResolveNonInteractiveClarifierError(t *testing.T) {
	m := newScriptedModel().
		respond("detect_ambiguity", `{"ambiguous": true, "follow_up": "Which one?"}`)
	d := newTestDisambiguator(t, m)

	wantErr := errors.New("stdin is not a terminal")
	_, err := d.Resolve(context.Background(), "Where is Midas?", func(string) (string, error) {
		return "", wantErr
	}, false)
	assert.ErrorIs(t, err, wantErr)
}

func TestParseIntent(t *testing.T) {
	assert.Equal(t, IntentStock, ParseIntent("Stock"))
	assert.Equal(t, IntentBusinessModel, ParseIntent(" business model "))
	assert.Equal(t, IntentUnknown, ParseIntent("Unknown"))
	assert.Equal(t, IntentUnknown, ParseIntent("weather"))
	assert.Equal(t, IntentUnknown, ParseIntent(""))
}

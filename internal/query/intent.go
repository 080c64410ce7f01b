package query

import "strings"

// Intent classifies what aspect of a company the user wants. Every intent
// except IntentUnknown maps to exactly one deterministic query template.
type Intent string

const (
	IntentGeneralInformation Intent = "general information"
	IntentLocation           Intent = "location"
	IntentBusinessModel      Intent = "business model"
	IntentInvestments        Intent = "investments"
	IntentStock              Intent = "stock"
	IntentNews               Intent = "news"
	IntentProducts           Intent = "products"
	IntentHistory            Intent = "history"
	IntentUnknown            Intent = "unknown"
)

var knownIntents = map[Intent]bool{
	IntentGeneralInformation: true,
	IntentLocation:           true,
	IntentBusinessModel:      true,
	IntentInvestments:        true,
	IntentStock:              true,
	IntentNews:               true,
	IntentProducts:           true,
	IntentHistory:            true,
}

// ParseIntent normalizes extractor output; anything outside the known set
// becomes IntentUnknown.
func ParseIntent(s string) Intent {
	i := Intent(strings.ToLower(strings.TrimSpace(s)))
	if knownIntents[i] {
		return i
	}
	return IntentUnknown
}

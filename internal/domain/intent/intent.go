// Package intent labels a chat message with its conversational purpose.
package intent

import "strings"

// Intent is the conversational purpose of a message.
type Intent string

// Intent constants, in no particular order; see Classify for priority.
const (
	Search    Intent = "search"
	Compare   Intent = "compare"
	Budget    Intent = "budget"
	Recommend Intent = "recommend"
)

// All lists every intent.
var All = []Intent{Search, Compare, Budget, Recommend}

// IsValid checks if the intent is one of the supported values.
func (i Intent) IsValid() bool {
	return i == Search || i == Compare || i == Budget || i == Recommend
}

func (i Intent) String() string { return string(i) }

// rule maps keyword presence to an intent.
type rule struct {
	intent   Intent
	keywords []string
}

// rules are checked in order; the first hit wins.
// The bare "vs" keyword subsumes " vs " and is kept for parity with existing clients.
var rules = []rule{
	{Compare, []string{"compare", " vs ", "vs"}},
	{Budget, []string{"under", "below", "budget"}},
	{Recommend, []string{"best", "recommend"}},
}

// Classify returns the intent of text by case-insensitive keyword presence.
func Classify(text string) Intent {
	msg := strings.ToLower(text)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(msg, kw) {
				return r.intent
			}
		}
	}
	return Search
}

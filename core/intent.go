package core

import "fmt"

// QueryIntent is the coarse category of a question. It selects the
// answering directive used in the prompt.
type QueryIntent string

const (
	IntentFact      QueryIntent = "fact"
	IntentList      QueryIntent = "list"
	IntentSummary   QueryIntent = "summary"
	IntentRecommend QueryIntent = "recommend"
)

// Intents lists every QueryIntent.
var Intents = []QueryIntent{IntentFact, IntentList, IntentSummary, IntentRecommend}

// ParseIntent converts a string into a QueryIntent.
func ParseIntent(s string) (QueryIntent, error) {
	for _, i := range Intents {
		if string(i) == s {
			return i, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidIntent, s)
}

func (i QueryIntent) String() string {
	return string(i)
}

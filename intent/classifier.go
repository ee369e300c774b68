// Package intent classifies questions into coarse answering modes.
//
// Classification is a fixed, ordered list of keyword rules evaluated top-down.
// The first rule that matches decides the intent; a question matching nothing
// is a fact question. Rule order is part of the contract: "recommend a summary
// talk" is a recommendation, not a summary.
package intent

import (
	"strings"
	"unicode"

	"github.com/poiesic/talkrag/core"
)

// Rule maps a predicate over the lowercased question to an intent.
type Rule struct {
	Intent core.QueryIntent
	Match  func(question string) bool
}

// countCues are standalone tokens that ask for a small number of items.
var countCues = map[string]struct{}{
	"2": {}, "3": {}, "4": {}, "5": {},
	"two": {}, "three": {}, "four": {}, "five": {},
}

// DefaultRules is the production rule order.
var DefaultRules = []Rule{
	{Intent: core.IntentRecommend, Match: containsAny("recommend", "suggest")},
	{Intent: core.IntentSummary, Match: containsAny("summary", "summarize", "key idea", "main idea")},
	{Intent: core.IntentList, Match: either(containsAny("list", "multiple"), hasCountCue)},
}

// Classifier evaluates rules in order. The zero value is not usable; use New.
type Classifier struct {
	rules    []Rule
	fallback core.QueryIntent
}

// New returns a Classifier over rules, or DefaultRules when none are given.
func New(rules ...Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Classifier{rules: rules, fallback: core.IntentFact}
}

// Classify returns the intent of the first matching rule, or fact.
func (c *Classifier) Classify(question string) core.QueryIntent {
	q := strings.ToLower(question)
	for _, rule := range c.rules {
		if rule.Match(q) {
			return rule.Intent
		}
	}
	return c.fallback
}

var defaultClassifier = New()

// Classify classifies question with DefaultRules.
func Classify(question string) core.QueryIntent {
	return defaultClassifier.Classify(question)
}

func containsAny(keywords ...string) func(string) bool {
	return func(q string) bool {
		for _, k := range keywords {
			if strings.Contains(q, k) {
				return true
			}
		}
		return false
	}
}

func either(a, b func(string) bool) func(string) bool {
	return func(q string) bool {
		return a(q) || b(q)
	}
}

// hasCountCue matches whole tokens so that "2000s" or "someone" do not count.
func hasCountCue(q string) bool {
	tokens := strings.FieldsFunc(q, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, t := range tokens {
		if _, ok := countCues[t]; ok {
			return true
		}
	}
	return false
}

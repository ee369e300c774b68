package intent

import (
	"strings"
	"testing"

	"github.com/poiesic/talkrag/core"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		question string
		expected core.QueryIntent
	}{
		// precedence
		{"recommend a summary talk", core.IntentRecommend},
		{"Can you suggest a list of talks?", core.IntentRecommend},
		{"give me a summary of three talks", core.IntentSummary},
		{"summarize the main idea", core.IntentSummary},
		{"What is the KEY IDEA of the talk on grit?", core.IntentSummary},

		// list
		{"list 3 talks about AI", core.IntentList},
		{"Name two talks about climate", core.IntentList},
		{"multiple speakers on education", core.IntentList},
		{"which 5 talks mention Mars?", core.IntentList},

		// fact
		{"who is the speaker in talk X", core.IntentFact},
		{"When was the talk from the 2000s given?", core.IntentFact},
		{"Who is someone that talked about 1 idea?", core.IntentFact},
		{"", core.IntentFact},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.question))
		})
	}
}

func TestClassifyIsCaseInsensitive(t *testing.T) {
	for _, q := range []string{"RECOMMEND something", "Recommend something", "recommend something"} {
		assert.Equal(t, core.IntentRecommend, Classify(q))
	}
}

func TestCustomRulesKeepOrder(t *testing.T) {
	always := func(string) bool { return true }
	c := New(
		Rule{Intent: core.IntentList, Match: always},
		Rule{Intent: core.IntentRecommend, Match: always},
	)
	assert.Equal(t, core.IntentList, c.Classify("anything"))

	none := New(Rule{Intent: core.IntentSummary, Match: func(q string) bool { return strings.HasPrefix(q, "tl;dr") }})
	assert.Equal(t, core.IntentSummary, none.Classify("TL;DR of the happiness talk"))
	assert.Equal(t, core.IntentFact, none.Classify("who spoke first?"))
}

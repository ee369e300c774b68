// Package prompt builds the system and user prompts sent to the generator.
//
// One directive table keyed by core.QueryIntent replaces per-route prompt
// variants. Every directive ends with the same fallback instruction so a
// refusal from the model is byte-identical to the canned empty-context answer.
package prompt

import (
	"fmt"
	"strings"

	"github.com/poiesic/talkrag/core"
)

// directives holds the per-intent behavior text, without the fallback line.
var directives = map[core.QueryIntent]string{
	core.IntentFact:      factDirective,
	core.IntentList:      listDirective,
	core.IntentSummary:   summaryDirective,
	core.IntentRecommend: recommendDirective,
}

// Directive returns the full instruction text for intent, ending with the
// fallback instruction. Unknown intents use the fact directive.
func Directive(intent core.QueryIntent) string {
	d, ok := directives[intent]
	if !ok {
		d = factDirective
	}
	return d + fallbackInstruction
}

// Compose returns the system prompt and the user prompt for a question.
func Compose(question string, intent core.QueryIntent, contextText string) (system, user string) {
	var b strings.Builder
	fmt.Fprintf(&b, "User question:\n%s\n\n", strings.TrimSpace(question))
	fmt.Fprintf(&b, "Follow these instructions:\n%s\n\n", Directive(intent))
	fmt.Fprintf(&b, "Use ONLY the following context:\n%s", contextText)
	return SystemPrompt, b.String()
}

// IsFallback reports whether an answer is the fallback sentence, ignoring
// surrounding whitespace and quotes the model may add.
func IsFallback(answer string) bool {
	a := strings.TrimSpace(answer)
	a = strings.Trim(a, "\"“”")
	return a == FallbackSentence
}

package answer

import (
	"slices"

	"github.com/poiesic/talkrag/core"
)

// Assemble combines a generated response with the retrieval it was based
// on. The returned answer shares no slices with rc.
func Assemble(response string, intent core.QueryIntent, raw int, rc *core.RetrievalContext, systemPrompt, userPrompt string) *core.GroundedAnswer {
	if rc == nil {
		rc = &core.RetrievalContext{}
	}
	items := slices.Clone(rc.Items)
	if items == nil {
		items = []core.ContextItem{}
	}
	return &core.GroundedAnswer{
		Response:     response,
		Context:      items,
		Talks:        slices.Clone(rc.Talks),
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Diagnostics: core.Diagnostics{
			Intent:         intent,
			RawMatches:     raw,
			ValidMatches:   len(rc.Items),
			DroppedMatches: rc.Dropped,
			UniqueTalks:    len(rc.Talks),
		},
	}
}

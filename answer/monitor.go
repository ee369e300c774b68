package answer

import "github.com/poiesic/talkrag/core"

// Monitor provides hooks to observe the answering process.
// Implement this interface to trace intermediate steps of a question.
type Monitor interface {
	Start(question string)
	AfterClassification(intent core.QueryIntent)
	AfterRetrieval(matches []core.Match)
	AfterDeduplication(rc *core.RetrievalContext)
	BeforeGeneration(systemPrompt, userPrompt string)
	Finish(answer *core.GroundedAnswer)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                              {}
func (n *noopMonitor) AfterClassification(_ core.QueryIntent)      {}
func (n *noopMonitor) AfterRetrieval(_ []core.Match)               {}
func (n *noopMonitor) AfterDeduplication(_ *core.RetrievalContext) {}
func (n *noopMonitor) BeforeGeneration(_, _ string)                {}
func (n *noopMonitor) Finish(_ *core.GroundedAnswer)               {}

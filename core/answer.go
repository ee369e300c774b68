package core

// UniqueTalk is a distinct source record within one retrieval, represented by
// its first (highest-ranked) match.
type UniqueTalk struct {
	RecordID  string
	Title     string
	ChunkText string
	Score     float32
}

// RetrievalContext is the request-scoped result of deduplicating matches.
type RetrievalContext struct {
	// Items holds every valid match in retrieval order.
	Items []ContextItem
	// Talks holds one entry per record_id in first-seen order.
	Talks []UniqueTalk
	// Text is the labeled passage blocks handed to the prompt composer.
	Text string
	// Dropped counts matches excluded for malformed metadata.
	Dropped int
}

// Empty reports whether no valid passage was retrieved.
func (c *RetrievalContext) Empty() bool {
	return c == nil || len(c.Items) == 0
}

// Diagnostics describes how an answer was produced.
type Diagnostics struct {
	Intent         QueryIntent
	RawMatches     int
	ValidMatches   int
	DroppedMatches int
	UniqueTalks    int
}

// GroundedAnswer is the final response to a question.
type GroundedAnswer struct {
	Response     string
	Context      []ContextItem
	Talks        []UniqueTalk
	SystemPrompt string
	UserPrompt   string
	Diagnostics  Diagnostics
}

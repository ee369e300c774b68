package server

import "github.com/poiesic/talkrag/core"

// PromptRequest is the body of POST /api/prompt.
type PromptRequest struct {
	Question string `json:"question" validate:"required"`
}

// ContextItem is one retrieved passage in a response.
type ContextItem struct {
	RecordID string  `json:"record_id"`
	Title    string  `json:"title"`
	Chunk    string  `json:"chunk"`
	Score    float32 `json:"score"`
}

// AugmentedPrompt is the exact prompt pair sent to the generator.
type AugmentedPrompt struct {
	System string `json:"system"`
	User   string `json:"user"`
}

// PromptResponse is the body of a successful POST /api/prompt.
type PromptResponse struct {
	Response        string          `json:"response"`
	Context         []ContextItem   `json:"context"`
	AugmentedPrompt AugmentedPrompt `json:"augmented_prompt"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// StatsResponse is the body of GET /api/stats.
type StatsResponse struct {
	ChunkSize    int     `json:"chunk_size"`
	OverlapRatio float64 `json:"overlap_ratio"`
	TopK         int     `json:"top_k"`
}

// NewPromptResponse converts an answer to its wire form. Context is never null.
func NewPromptResponse(a *core.GroundedAnswer) PromptResponse {
	items := make([]ContextItem, len(a.Context))
	for i, c := range a.Context {
		items[i] = ContextItem{RecordID: c.RecordID, Title: c.Title, Chunk: c.ChunkText, Score: c.Score}
	}
	return PromptResponse{
		Response:        a.Response,
		Context:         items,
		AugmentedPrompt: AugmentedPrompt{System: a.SystemPrompt, User: a.UserPrompt},
	}
}

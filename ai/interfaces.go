package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces a text completion from a system prompt and a user prompt.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Complete sends both prompts to the model and returns the trimmed
	// text of the first choice. An empty completion is not an error.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder and Generator instances,
// ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Generator returns the answer generation service.
	Generator() Generator

	// EmbeddingModel names the model behind Embedder. Index entries
	// record it so a model change can be detected.
	EmbeddingModel() string

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}

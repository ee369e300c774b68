package openai

import "errors"

var (
	// ErrEmptyEmbedding is returned when the service answers with no vector.
	ErrEmptyEmbedding = errors.New("embedding service returned an empty vector")

	// ErrEmbeddingCount is returned when a batch response does not line up with its input.
	ErrEmbeddingCount = errors.New("embedding count mismatch")
)

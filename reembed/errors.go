package reembed

import "errors"

var (
	// ErrIndexRequired is returned when a vector index is not provided.
	ErrIndexRequired = errors.New("vector index required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")
)

package retrieval

import "errors"

var (
	// ErrIndexRequired is returned when no vector index is provided.
	ErrIndexRequired = errors.New("vector index required")

	// ErrInvalidTopK is returned when the retrieval count is not positive.
	ErrInvalidTopK = errors.New("topK must be positive")
)

package ingestion

import "errors"

var (
	// ErrIndexRequired is returned when a vector index is not provided.
	ErrIndexRequired = errors.New("vector index required")

	// ErrCheckpointRepositoryRequired is returned when a checkpoint repository is not provided.
	ErrCheckpointRepositoryRequired = errors.New("checkpoint repository required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrIngestionIncomplete is returned when at least one record was not
	// fully ingested. The checkpoint still reflects every record before it.
	ErrIngestionIncomplete = errors.New("ingestion incomplete")
)

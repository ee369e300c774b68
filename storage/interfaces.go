package storage

import (
	"context"

	"github.com/poiesic/talkrag/core"
)

// VectorIndex stores embedded chunks and answers nearest-neighbor queries.
// Implementations must be thread-safe and support concurrent access.
type VectorIndex interface {
	// Upsert writes entries keyed by their ID. Writing an entry whose ID
	// already exists replaces it, so repeated ingestion never duplicates.
	Upsert(ctx context.Context, entries ...*core.IndexEntry) error

	// Get retrieves a single entry by vector ID.
	// Returns ErrNotFound if the entry doesn't exist.
	Get(ctx context.Context, id string) (*core.IndexEntry, error)

	// Query returns up to topK matches with score >= minScore, ordered by
	// score (highest first). No match is a normal, empty result.
	Query(ctx context.Context, vector []float32, topK int, minScore float32) ([]core.Match, error)

	// PruneRecord deletes the record's entries whose chunk index is >= keep
	// and returns how many were removed.
	PruneRecord(ctx context.Context, recordID string, keep int) (int, error)

	// DeleteAll removes every entry.
	DeleteAll(ctx context.Context) error

	// Entries pages through all entries ordered by (record id, chunk index).
	// after is the vector ID of the last entry of the previous page, or ""
	// for the first page. An empty result means the scan is complete.
	Entries(ctx context.Context, after string, limit int) ([]*core.IndexEntry, error)

	// Stats summarizes the index contents.
	Stats(ctx context.Context) (*IndexStats, error)

	// Close closes the storage backend and releases resources.
	Close() error
}

// IndexStats describes what an index holds.
type IndexStats struct {
	Entries    int            `json:"entries"`
	Records    int            `json:"records"`
	Dimensions int            `json:"dimensions"`
	Models     map[string]int `json:"models"`
}

// CheckpointRepository persists job progress.
type CheckpointRepository interface {
	// SaveCheckpoint stores checkpoint under its Name, setting UpdatedAt.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint returns the named checkpoint, or nil, nil if none exists.
	LoadCheckpoint(ctx context.Context, name string) (*core.Checkpoint, error)

	// DeleteCheckpoint removes the named checkpoint. Missing is not an error.
	DeleteCheckpoint(ctx context.Context, name string) error

	// ResetCheckpoints removes every checkpoint. Used when the index is cleared.
	ResetCheckpoints(ctx context.Context) error
}

package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/talkrag/ai"
	"github.com/poiesic/talkrag/core"
	"github.com/poiesic/talkrag/retry"
	"github.com/poiesic/talkrag/storage"
)

// BatchProcessor embeds batches of entries and writes them back.
type BatchProcessor struct {
	index    storage.VectorIndex
	embedder ai.Embedder
	model    string
	policy   retry.Policy
}

// NewBatchProcessor creates a new batch processor.
// model: embedding model name recorded on every rewritten entry
// maxRetries: maximum number of attempts for each embedding or write call
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(index storage.VectorIndex, embedder ai.Embedder, model string, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		index:    index,
		embedder: embedder,
		model:    model,
		policy:   retry.Policy{MaxAttempts: maxRetries, BaseDelay: retryBaseDelay},
	}
}

// Process generates embeddings for a batch of entries and upserts them.
// The index normalizes vectors on write.
func (bp *BatchProcessor) Process(ctx context.Context, entries []*core.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	texts := make([]string, len(entries))
	for i, entry := range entries {
		texts[i] = entry.ChunkText
	}

	var embeddings [][]float32
	err := bp.policy.Do(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.policy.MaxAttempts, err)
	}

	if len(embeddings) != len(entries) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(entries), len(embeddings))
	}

	now := time.Now().UTC()
	updated := make([]*core.IndexEntry, len(entries))
	for i, entry := range entries {
		cp := *entry
		cp.Vector = embeddings[i]
		cp.Model = bp.model
		cp.Fingerprint = core.FingerprintOf(entry.ChunkText)
		cp.UpdatedAt = now
		updated[i] = &cp
	}

	err = bp.policy.Do(ctx, func() error {
		return bp.index.Upsert(ctx, updated...)
	})
	if err != nil {
		return fmt.Errorf("failed to update entries: %w", err)
	}
	return nil
}

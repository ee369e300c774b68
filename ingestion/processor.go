// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/talkrag/ai"
	"github.com/poiesic/talkrag/core"
	"github.com/poiesic/talkrag/retry"
	"github.com/poiesic/talkrag/storage"
	"golang.org/x/time/rate"
)

// chunkOutcome is what happened to one chunk.
type chunkOutcome int

const (
	outcomeEmbedded chunkOutcome = iota
	outcomeUnchanged
	outcomeFailed
)

// chunkProcessor embeds and stores single chunks. It is shared by all
// workers and holds no per-chunk state.
type chunkProcessor struct {
	index    storage.VectorIndex
	embedder ai.Embedder
	model    string
	limiter  *rate.Limiter
	retry    retry.Policy
	logger   *slog.Logger
}

// process embeds and upserts chunk unless an identical entry is stored.
func (cp *chunkProcessor) process(ctx context.Context, record *core.CorpusRecord, chunk core.Chunk) (chunkOutcome, error) {
	if err := ctx.Err(); err != nil {
		return outcomeFailed, err
	}

	unchanged, err := cp.unchanged(ctx, chunk)
	if err != nil {
		return outcomeFailed, fmt.Errorf("lookup %s: %w", chunk.VectorID(), err)
	}
	if unchanged {
		return outcomeUnchanged, nil
	}

	var vector []float32
	err = cp.retry.Do(ctx, func() error {
		if err := cp.limiter.Wait(ctx); err != nil {
			return retry.Permanent(err)
		}
		v, err := cp.embedder.EmbedText(ctx, chunk.Text)
		if err != nil {
			return err
		}
		vector = v
		return nil
	})
	if err != nil {
		return outcomeFailed, fmt.Errorf("embed %s: %w", chunk.VectorID(), err)
	}

	entry := core.NewIndexEntry(record, chunk, vector, cp.model)
	if err := core.ValidateEntry(entry); err != nil {
		return outcomeFailed, err
	}
	err = cp.retry.Do(ctx, func() error {
		err := cp.index.Upsert(ctx, entry)
		if errors.Is(err, storage.ErrDimensionMismatch) || errors.Is(err, core.ErrInvalidEntry) {
			return retry.Permanent(err)
		}
		return err
	})
	if err != nil {
		return outcomeFailed, fmt.Errorf("upsert %s: %w", chunk.VectorID(), err)
	}
	return outcomeEmbedded, nil
}

// unchanged reports whether the stored entry for chunk has the same text
// fingerprint and embedding model.
func (cp *chunkProcessor) unchanged(ctx context.Context, chunk core.Chunk) (bool, error) {
	existing, err := cp.index.Get(ctx, chunk.VectorID())
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return existing.Fingerprint == core.FingerprintOf(chunk.Text) && existing.Model == cp.model, nil
}

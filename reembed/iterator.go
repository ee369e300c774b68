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


package reembed

import (
	"context"

	"github.com/poiesic/talkrag/core"
	"github.com/poiesic/talkrag/storage"
)

const (
	// DefaultBatchSize is the default number of entries to fetch in each batch
	DefaultBatchSize = 100
)

// EntryIterator pages over every entry in a vector index.
type EntryIterator struct {
	index     storage.VectorIndex
	batchSize int
}

// NewEntryIterator creates a new entry iterator.
// batchSize: number of entries to fetch in each batch (must be > 0)
func NewEntryIterator(index storage.VectorIndex, batchSize int) *EntryIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &EntryIterator{
		index:     index,
		batchSize: batchSize,
	}
}

// ForEach calls fn for each batch of entries in id order.
// Iteration stops on first error from fn or when all entries are processed.
// Context cancellation is checked between batches.
func (it *EntryIterator) ForEach(ctx context.Context, fn func([]*core.IndexEntry) error) error {
	after := ""
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		batch, err := it.index.Entries(ctx, after, it.batchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		// Read before fn, which may rewrite the entries.
		after = batch[len(batch)-1].ID

		if err := fn(batch); err != nil {
			return err
		}
		if len(batch) < it.batchSize {
			return nil
		}
	}
}

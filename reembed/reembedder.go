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
	"fmt"
	"io"
	"time"

	"github.com/poiesic/talkrag/ai"
	"github.com/poiesic/talkrag/core"
	"github.com/poiesic/talkrag/progress"
	"github.com/poiesic/talkrag/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of entries to embed per call
	BatchSize int

	// ReportInterval is how often to report progress (number of entries)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for failed operations
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reembedder orchestrates the reembedding of every entry in an index.
type Reembedder struct {
	index     storage.VectorIndex
	model     string
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *EntryIterator
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(index storage.VectorIndex, provider ai.AIProvider, config *Config, progress io.Writer) (*Reembedder, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reembedder{
		index:     index,
		model:     provider.EmbeddingModel(),
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(index, provider.Embedder(), provider.EmbeddingModel(), config.MaxRetries, config.RetryDelay),
		iterator:  NewEntryIterator(index, config.BatchSize),
	}, nil
}

// Run re-embeds every entry and returns how many were rewritten.
// Progress is reported to the configured writer.
func (r *Reembedder) Run(ctx context.Context) (int, error) {
	stats, err := r.index.Stats(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read index stats: %w", err)
	}

	total := stats.Entries
	if total == 0 {
		fmt.Fprintf(r.progress, "No entries found in index (0 entries)\n")
		return 0, nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d entries with %s (batch size: %d)\n",
		total, r.model, r.config.BatchSize)

	tracker := progress.NewTracker(r.progress, "entries", total, r.config.ReportInterval)
	tracker.Start()

	processed := 0
	err = r.iterator.ForEach(ctx, func(entries []*core.IndexEntry) error {
		if err := r.processor.Process(ctx, entries); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}
		processed += len(entries)
		tracker.Update(processed)
		return nil
	})
	if err != nil {
		return processed, err
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d entries in %v (%.1f entries/sec)\n",
		processed, elapsed.Round(time.Second), float64(processed)/elapsed.Seconds())

	return processed, nil
}

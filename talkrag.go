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



// Package talkrag answers questions about TED talks from their transcripts.
//
// An Engine wires the configured vector index, checkpoint store and AI
// provider together and hands out the ingestion, question answering,
// re-embedding and HTTP components built on them.
package talkrag

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/talkrag/ai"
	"github.com/poiesic/talkrag/ai/openai"
	"github.com/poiesic/talkrag/answer"
	"github.com/poiesic/talkrag/config"
	"github.com/poiesic/talkrag/ingestion"
	"github.com/poiesic/talkrag/reembed"
	"github.com/poiesic/talkrag/server"
	"github.com/poiesic/talkrag/storage"
	"github.com/poiesic/talkrag/storage/badger"
	"github.com/poiesic/talkrag/storage/pgvector"
)

// Engine owns the index, checkpoint store and AI provider for one process.
type Engine struct {
	config      *config.Config
	index       storage.VectorIndex
	checkpoints storage.CheckpointRepository
	provider    ai.AIProvider
	closers     []io.Closer
	logger      *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	provider ai.AIProvider
	logger   *slog.Logger
}

// WithProvider uses provider instead of building an OpenAI-compatible one
// from the configuration.
func WithProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// Open validates cfg and opens the index it names.
func Open(ctx context.Context, cfg *config.Config, opts ...EngineOption) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &engineOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}

	e := &Engine{
		config: cfg,
		logger: options.logger,
	}

	switch cfg.Index.Backend {
	case config.BackendBadger:
		backend, err := badger.OpenBackend(cfg.Index.Path, false)
		if err != nil {
			return nil, err
		}
		e.index = badger.NewIndex(backend)
		e.checkpoints = badger.NewCheckpointRepository(backend)
		e.closers = append(e.closers, backend)
	case config.BackendPgvector:
		index, err := pgvector.Open(ctx, cfg.Index.DSN)
		if err != nil {
			return nil, err
		}
		e.index = index
		e.checkpoints = index
		e.closers = append(e.closers, index)
	default:
		return nil, fmt.Errorf("unknown index backend %q", cfg.Index.Backend)
	}

	e.provider = options.provider
	if e.provider == nil {
		provider, err := openai.NewProvider(cfg.AI)
		if err != nil {
			e.closeStores()
			return nil, err
		}
		e.provider = provider
	}

	e.logger.Debug("engine opened",
		"backend", cfg.Index.Backend,
		"embedding_model", e.provider.EmbeddingModel())
	return e, nil
}

// Close releases the provider and the index.
func (e *Engine) Close() error {
	var errs []error
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
		errs = append(errs, err)
	}
	if err := e.closeStores(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (e *Engine) closeStores() error {
	var errs []error
	for _, c := range e.closers {
		if err := c.Close(); err != nil {
			e.logger.Error("error closing index storage", "err", err)
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}

func (e *Engine) Config() *config.Config {
	return e.config
}

func (e *Engine) Index() storage.VectorIndex {
	return e.index
}

func (e *Engine) Checkpoints() storage.CheckpointRepository {
	return e.checkpoints
}

func (e *Engine) Provider() ai.AIProvider {
	return e.provider
}

// NewIngestionPipeline builds a pipeline from the ingestion and chunking
// sections. extra options are applied last. Callers must Release it.
func (e *Engine) NewIngestionPipeline(extra ...ingestion.Option) (*ingestion.Pipeline, error) {
	chunker, err := e.config.Chunker()
	if err != nil {
		return nil, err
	}
	policy, err := e.config.IngestRetry()
	if err != nil {
		return nil, err
	}
	opts := []ingestion.Option{
		ingestion.WithChunker(chunker),
		ingestion.WithPoolSize(e.config.Ingestion.Workers),
		ingestion.WithRateLimit(e.config.Ingestion.RequestsPerSecond, e.config.Ingestion.Burst),
		ingestion.WithRetry(policy),
		ingestion.WithLogger(e.logger),
	}
	return ingestion.NewPipeline(e.index, e.checkpoints, e.provider, append(opts, extra...)...)
}

// NewAnswerer builds a question answerer from the retrieval section.
func (e *Engine) NewAnswerer(extra ...answer.Option) (*answer.Answerer, error) {
	opts := []answer.Option{
		answer.WithTopK(e.config.Retrieval.TopK),
		answer.WithMinScore(float32(e.config.Retrieval.MinScore)),
		answer.WithRetry(e.config.QueryRetry()),
		answer.WithLogger(e.logger),
	}
	return answer.NewAnswerer(e.index, e.provider, append(opts, extra...)...)
}

// NewReembedder builds a reembedder for the configured embedding model.
func (e *Engine) NewReembedder(cfg *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	return reembed.NewReembedder(e.index, e.provider, cfg, progress)
}

// ServerStats reports the settings exposed by GET /api/stats.
func (e *Engine) ServerStats() server.StatsResponse {
	return server.StatsResponse{
		ChunkSize:    e.config.Chunking.WindowSize,
		OverlapRatio: e.config.Chunking.OverlapRatio,
		TopK:         e.config.Retrieval.TopK,
	}
}

// NewServer builds the HTTP server over a fresh answerer.
func (e *Engine) NewServer() (*server.Server, error) {
	a, err := e.NewAnswerer()
	if err != nil {
		return nil, err
	}
	return server.New(a, e.ServerStats(), server.WithLogger(e.logger))
}

// Clear deletes every indexed chunk and every ingestion checkpoint, so the
// next ingest starts from the first record.
func (e *Engine) Clear(ctx context.Context) error {
	if err := e.index.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}
	if err := e.checkpoints.ResetCheckpoints(ctx); err != nil {
		return fmt.Errorf("reset checkpoints: %w", err)
	}
	e.logger.Info("index cleared")
	return nil
}

// Stats summarizes the index contents.
func (e *Engine) Stats(ctx context.Context) (*storage.IndexStats, error) {
	return e.index.Stats(ctx)
}

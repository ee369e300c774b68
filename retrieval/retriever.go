package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/talkrag/core"
	"github.com/poiesic/talkrag/storage"
)

const (
	// DefaultTopK is the number of chunks retrieved per question.
	DefaultTopK = 5

	// DefaultMinScore keeps every match the index returns.
	DefaultMinScore float32 = -1
)

// Retriever queries a vector index for the chunks nearest a query vector.
type Retriever struct {
	index    storage.VectorIndex
	topK     int
	minScore float32
	logger   *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithTopK sets how many matches are requested. Default is DefaultTopK.
func WithTopK(k int) Option {
	return func(r *Retriever) error {
		if k < 1 {
			return fmt.Errorf("%w: %d", ErrInvalidTopK, k)
		}
		r.topK = k
		return nil
	}
}

// WithMinScore sets the similarity threshold passed to the index.
func WithMinScore(score float32) Option {
	return func(r *Retriever) error {
		r.minScore = score
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRetriever creates a retriever over index.
func NewRetriever(index storage.VectorIndex, opts ...Option) (*Retriever, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}
	r := &Retriever{
		index:    index,
		topK:     DefaultTopK,
		minScore: DefaultMinScore,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// TopK returns the configured retrieval count.
func (r *Retriever) TopK() int {
	return r.topK
}

// Retrieve returns up to TopK matches for vector, highest score first.
// An empty result is not an error.
func (r *Retriever) Retrieve(ctx context.Context, vector []float32) ([]core.Match, error) {
	matches, err := r.index.Query(ctx, vector, r.topK, r.minScore)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("retrieved matches", "count", len(matches), "topK", r.topK)
	return matches, nil
}

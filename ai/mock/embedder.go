package mock

import (
	"context"
	"hash/fnv"
	"math"
	"sync/atomic"
)

// DefaultDimensions is the vector width produced by the default mock embedder.
const DefaultDimensions = 16

// MockEmbedder is a test double for ai.Embedder.
// It allows custom behavior injection via function fields.
type MockEmbedder struct {
	// EmbedTextFunc is called by EmbedText if set.
	// If nil, uses default deterministic behavior.
	EmbedTextFunc func(ctx context.Context, text string) ([]float32, error)

	// EmbedTextsFunc is called by EmbedTexts if set.
	// If nil, uses default deterministic behavior.
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions sets the width of generated vectors. Zero means DefaultDimensions.
	Dimensions int

	callCount  atomic.Int64
	textsCount atomic.Int64
}

// NewMockEmbedder creates a mock embedder with default deterministic behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{}
}

// EmbedText generates a deterministic embedding based on text hash.
func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.callCount.Add(1)
	m.textsCount.Add(1)

	if m.EmbedTextFunc != nil {
		return m.EmbedTextFunc(ctx, text)
	}
	return DeterministicVector(text, m.dims()), nil
}

// EmbedTexts generates deterministic embeddings for multiple texts.
func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.callCount.Add(1)
	m.textsCount.Add(int64(len(texts)))

	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, texts)
	}

	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = DeterministicVector(text, m.dims())
	}
	return embeddings, nil
}

// CallCount returns the number of times any method was called.
func (m *MockEmbedder) CallCount() int {
	return int(m.callCount.Load())
}

// TextsEmbedded returns the total number of texts embedded across all calls.
func (m *MockEmbedder) TextsEmbedded() int {
	return int(m.textsCount.Load())
}

// Reset clears the counters and custom functions.
func (m *MockEmbedder) Reset() {
	m.callCount.Store(0)
	m.textsCount.Store(0)
	m.EmbedTextFunc = nil
	m.EmbedTextsFunc = nil
}

func (m *MockEmbedder) dims() int {
	if m.Dimensions > 0 {
		return m.Dimensions
	}
	return DefaultDimensions
}

// DeterministicVector creates a unit-length vector from text.
// It uses FNV hash to ensure the same text always produces the same vector.
func DeterministicVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%1000)/1000.0 + 0.001
	}

	var sumSquares float64
	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}
	norm := float32(1 / math.Sqrt(sumSquares))
	for i := range vector {
		vector[i] *= norm
	}
	return vector
}

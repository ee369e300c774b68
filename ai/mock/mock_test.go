package mock

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicVector(t *testing.T) {
	a := DeterministicVector("creativity in schools", 16)
	b := DeterministicVector("creativity in schools", 16)
	c := DeterministicVector("the power of vulnerability", 16)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	var sum float64
	for _, v := range a {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
}

func TestMockEmbedderCounts(t *testing.T) {
	m := NewMockEmbedder()
	ctx := context.Background()

	_, err := m.EmbedText(ctx, "one")
	require.NoError(t, err)
	vectors, err := m.EmbedTexts(ctx, []string{"two", "three"})
	require.NoError(t, err)

	assert.Len(t, vectors, 2)
	assert.Len(t, vectors[0], DefaultDimensions)
	assert.Equal(t, 2, m.CallCount())
	assert.Equal(t, 3, m.TextsEmbedded())

	m.Reset()
	assert.Zero(t, m.CallCount())
}

func TestMockGeneratorRecordsPrompts(t *testing.T) {
	g := NewMockGenerator()

	answer, err := g.Complete(context.Background(), "sys", "usr")
	require.NoError(t, err)

	assert.Equal(t, "mock answer", answer)
	assert.Equal(t, 1, g.CallCount())
	assert.Equal(t, Prompt{System: "sys", User: "usr"}, g.LastPrompt())
}

func TestMockProvider(t *testing.T) {
	p := NewMockProviderWithServices(NewMockEmbedder(), NewMockGenerator()).WithModel("m2")

	assert.Equal(t, "m2", p.EmbeddingModel())
	assert.Same(t, p.GetMockEmbedder(), p.Embedder())
	assert.Same(t, p.GetMockGenerator(), p.Generator())
	assert.NoError(t, p.Close())
}

package retrieval

import (
	"context"
	"testing"

	"github.com/poiesic/talkrag/core"
	"github.com/poiesic/talkrag/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func match(recordID, title, text string, score float32) core.Match {
	return core.Match{
		VectorID: recordID + "-0",
		Score:    score,
		Metadata: map[string]any{
			core.MetaRecordID:  recordID,
			core.MetaTitle:     title,
			core.MetaChunkText: text,
		},
	}
}

func TestDeduplicate_KeepsFirstOccurrence(t *testing.T) {
	matches := []core.Match{
		match("A", "Talk A", "a1", 0.9),
		match("B", "Talk B", "b1", 0.85),
		match("A", "Talk A", "a2", 0.8),
		match("C", "Talk C", "c1", 0.7),
	}

	rc := Deduplicate(matches)

	require.Len(t, rc.Talks, 3)
	assert.Equal(t, "A", rc.Talks[0].RecordID)
	assert.Equal(t, float32(0.9), rc.Talks[0].Score)
	assert.Equal(t, "a1", rc.Talks[0].ChunkText)
	assert.Equal(t, "B", rc.Talks[1].RecordID)
	assert.Equal(t, float32(0.85), rc.Talks[1].Score)
	assert.Equal(t, "C", rc.Talks[2].RecordID)
	assert.Equal(t, float32(0.7), rc.Talks[2].Score)

	assert.Len(t, rc.Items, 4, "repeated talks still contribute context")
	assert.Zero(t, rc.Dropped)
	assert.False(t, rc.Empty())
}

func TestDeduplicate_ContextText(t *testing.T) {
	rc := Deduplicate([]core.Match{
		match("7", "Do schools kill creativity?", "first passage", 0.9),
		match("7", "Do schools kill creativity?", "second passage", 0.8),
	})

	want := "[Talk 7] \"Do schools kill creativity?\"\nfirst passage\n---\n" +
		"[Talk 7] \"Do schools kill creativity?\"\nsecond passage\n---\n"
	assert.Equal(t, want, rc.Text)
}

func TestDeduplicate_DropsInvalidMatches(t *testing.T) {
	noTitle := match("B", "", "b1", 0.8)
	delete(noTitle.Metadata, core.MetaTitle)
	wrongType := match("C", "Talk C", "c1", 0.7)
	wrongType.Metadata[core.MetaRecordID] = 42

	rc := Deduplicate([]core.Match{
		match("A", "Talk A", "a1", 0.9),
		noTitle,
		{VectorID: "x-0", Score: 0.75},
		wrongType,
	})

	assert.Equal(t, 3, rc.Dropped)
	require.Len(t, rc.Talks, 1)
	assert.Equal(t, "A", rc.Talks[0].RecordID)
	assert.NotContains(t, rc.Text, "b1")
}

func TestDeduplicate_Empty(t *testing.T) {
	rc := Deduplicate(nil)
	assert.True(t, rc.Empty())
	assert.Empty(t, rc.Text)
	assert.Empty(t, rc.Talks)
}

func TestNewRetriever(t *testing.T) {
	index, _, backend, err := badger.NewMemoryIndex()
	require.NoError(t, err)
	defer backend.Close()

	t.Run("defaults", func(t *testing.T) {
		r, err := NewRetriever(index)
		require.NoError(t, err)
		assert.Equal(t, DefaultTopK, r.TopK())
	})

	t.Run("nil index", func(t *testing.T) {
		_, err := NewRetriever(nil)
		assert.Equal(t, ErrIndexRequired, err)
	})

	t.Run("invalid topK", func(t *testing.T) {
		_, err := NewRetriever(index, WithTopK(0))
		assert.ErrorIs(t, err, ErrInvalidTopK)
	})

	t.Run("nil logger falls back to default", func(t *testing.T) {
		r, err := NewRetriever(index, WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, r.logger)
	})
}

func TestRetrieve(t *testing.T) {
	index, _, backend, err := badger.NewMemoryIndex()
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	record := &core.CorpusRecord{RecordID: "1", Title: "Talk one"}
	for i, v := range [][]float32{{1, 0}, {0.8, 0.6}, {0, 1}} {
		chunk := core.Chunk{RecordID: "1", ChunkIndex: i, Text: "chunk"}
		require.NoError(t, index.Upsert(ctx, core.NewIndexEntry(record, chunk, v, "m")))
	}

	r, err := NewRetriever(index, WithTopK(2))
	require.NoError(t, err)

	matches, err := r.Retrieve(ctx, []float32{1, 0})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "1-0", matches[0].VectorID)
	assert.Equal(t, "1-1", matches[1].VectorID)

	t.Run("threshold filters everything", func(t *testing.T) {
		r, err := NewRetriever(index, WithMinScore(1.5))
		require.NoError(t, err)
		matches, err := r.Retrieve(ctx, []float32{1, 0})
		require.NoError(t, err)
		assert.Empty(t, matches)
	})
}

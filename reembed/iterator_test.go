package reembed

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/poiesic/talkrag/core"
	"github.com/poiesic/talkrag/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestIndex(t *testing.T) *badger.Index {
	t.Helper()
	index, _, backend, err := badger.NewMemoryIndex()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return index
}

// seed stores n single-chunk records with 3-dimensional vectors.
func seed(t *testing.T, index *badger.Index, n int) {
	t.Helper()
	ctx := context.Background()
	for i := range n {
		id := fmt.Sprintf("%03d", i)
		record := &core.CorpusRecord{RecordID: id, Title: "Talk " + id}
		chunk := core.Chunk{RecordID: id, Text: "chunk " + id}
		require.NoError(t, index.Upsert(ctx, core.NewIndexEntry(record, chunk, []float32{1, 0, 0}, "old-model")))
	}
}

func TestEntryIterator_Basic(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index, 3)

	it := NewEntryIterator(index, 2)
	var sizes []int
	var ids []string
	err := it.ForEach(context.Background(), func(entries []*core.IndexEntry) error {
		sizes = append(sizes, len(entries))
		for _, e := range entries {
			ids = append(ids, e.ID)
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []int{2, 1}, sizes)
	assert.Equal(t, []string{"000-0", "001-0", "002-0"}, ids)
}

func TestEntryIterator_BatchSizes(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index, 10)

	tests := []struct {
		batchSize int
		batches   int
	}{
		{1, 10},
		{3, 4},
		{5, 3}, // the final empty page ends iteration
		{10, 2},
		{100, 1},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("batch_%d", tt.batchSize), func(t *testing.T) {
			count, total := 0, 0
			err := NewEntryIterator(index, tt.batchSize).ForEach(context.Background(), func(entries []*core.IndexEntry) error {
				count++
				total += len(entries)
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, 10, total)
			assert.LessOrEqual(t, count, tt.batches)
		})
	}
}

func TestEntryIterator_EmptyIndex(t *testing.T) {
	called := false
	err := NewEntryIterator(setupTestIndex(t), 10).ForEach(context.Background(), func([]*core.IndexEntry) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestEntryIterator_ErrorHandling(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index, 5)

	stop := errors.New("stop")
	calls := 0
	err := NewEntryIterator(index, 2).ForEach(context.Background(), func([]*core.IndexEntry) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestEntryIterator_ContextCancellation(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index, 5)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := NewEntryIterator(index, 2).ForEach(ctx, func([]*core.IndexEntry) error {
		calls++
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestEntryIterator_InvalidBatchSize(t *testing.T) {
	it := NewEntryIterator(setupTestIndex(t), 0)
	assert.Equal(t, DefaultBatchSize, it.batchSize)
}

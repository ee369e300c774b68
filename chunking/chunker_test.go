package chunking

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/poiesic/talkrag/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(n int) []string {
	w := make([]string, n)
	for i := range w {
		w[i] = fmt.Sprintf("w%d", i)
	}
	return w
}

func text(n int) string {
	return strings.Join(words(n), " ")
}

func TestChunkDefaults(t *testing.T) {
	t.Run("exactly one window", func(t *testing.T) {
		chunks, err := Chunk(text(1024), 1024, 0.2)
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, text(1024), chunks[0])
	})

	t.Run("one word past the window", func(t *testing.T) {
		chunks, err := Chunk(text(1025), 1024, 0.2)
		require.NoError(t, err)
		require.Len(t, chunks, 2)
		assert.Equal(t, strings.Join(words(1025)[820:], " "), chunks[1])
	})

	t.Run("2000 words", func(t *testing.T) {
		all := words(2000)
		chunks, err := Chunk(strings.Join(all, " "), 1024, 0.2)
		require.NoError(t, err)
		require.Len(t, chunks, 3)
		assert.Equal(t, strings.Join(all[0:1024], " "), chunks[0])
		assert.Equal(t, strings.Join(all[820:1844], " "), chunks[1])
		assert.Equal(t, strings.Join(all[1640:2000], " "), chunks[2])
	})
}

func TestChunkSmallWindows(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		window   int
		ratio    float64
		expected []string
	}{
		{"no overlap", "a b c d e", 2, 0, []string{"a b", "c d", "e"}},
		{"half overlap", "a b c d e", 4, 0.5, []string{"a b c d", "c d e"}},
		{"window larger than text", "a b", 10, 0.2, []string{"a b"}},
		{"collapses whitespace", "  a\tb\n\nc  ", 2, 0, []string{"a b", "c"}},
		{"empty text", "", 3, 0.2, nil},
		{"whitespace only", " \n\t ", 3, 0.2, nil},
		{"window of one", "a b c", 1, 0.5, []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := Chunk(tt.text, tt.window, tt.ratio)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, chunks)
		})
	}
}

func TestChunkCoversEveryWord(t *testing.T) {
	for _, n := range []int{1, 7, 99, 100, 101, 523} {
		for _, ratio := range []float64{0, 0.2, 0.5, 0.9} {
			all := words(n)
			window := 10
			chunks, err := Chunk(strings.Join(all, " "), window, ratio)
			require.NoError(t, err)

			step := window - int(math.Floor(float64(window)*ratio))
			var rebuilt []string
			for i, c := range chunks {
				w := strings.Fields(c)
				assert.LessOrEqual(t, len(w), window)
				assert.Equal(t, all[i*step], w[0], "chunk %d should start at %d", i, i*step)
				if i == len(chunks)-1 {
					rebuilt = append(rebuilt, w...)
				} else {
					rebuilt = append(rebuilt, w[:step]...)
				}
			}
			assert.Equal(t, all, rebuilt, "n=%d ratio=%v", n, ratio)
		}
	}
}

func TestChunkRejectsInvalidParameters(t *testing.T) {
	tests := []struct {
		name    string
		window  int
		ratio   float64
		wantErr error
	}{
		{"ratio of one", 10, 1, ErrInvalidOverlap},
		{"ratio above one", 10, 1.5, ErrInvalidOverlap},
		{"negative ratio", 10, -0.1, ErrInvalidOverlap},
		{"NaN ratio", 10, math.NaN(), ErrInvalidOverlap},
		{"zero window", 0, 0.2, ErrInvalidWindow},
		{"negative window", -5, 0.2, ErrInvalidWindow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Chunk("a b c", tt.window, tt.ratio)
			assert.ErrorIs(t, err, tt.wantErr)

			_, err = New(WithWindowSize(tt.window), WithOverlapRatio(tt.ratio))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewDefaults(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	assert.Equal(t, 1024, c.WindowSize())
	assert.Equal(t, 0.2, c.OverlapRatio())
	assert.Equal(t, 820, c.Step())
}

func TestChunkRecordIsDeterministic(t *testing.T) {
	c, err := New(WithWindowSize(8), WithOverlapRatio(0.25))
	require.NoError(t, err)

	record := &core.CorpusRecord{
		RecordID:    "1",
		Title:       "Do schools kill creativity?",
		Speaker:     "Sir Ken Robinson",
		Description: "Sir Ken Robinson makes an entertaining case for creativity.",
		Transcript:  "Good morning. How are you? It's been great, hasn't it?",
	}

	first := c.ChunkRecord(record)
	second := c.ChunkRecord(record)
	require.NotEmpty(t, first)
	assert.Equal(t, first, second)

	for i, chunk := range first {
		assert.Equal(t, "1", chunk.RecordID)
		assert.Equal(t, i, chunk.ChunkIndex)
		assert.Equal(t, fmt.Sprintf("1-%d", i), chunk.VectorID())
	}
	assert.True(t, strings.HasPrefix(first[0].Text, "Title: Do schools"))
}

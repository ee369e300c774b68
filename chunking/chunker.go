package chunking

import (
	"fmt"
	"math"
	"strings"

	"github.com/poiesic/talkrag/core"
)

const (
	DefaultWindowSize   = 1024
	DefaultOverlapRatio = 0.2
)

// Chunker holds a validated window configuration. It is immutable and safe
// for concurrent use.
type Chunker struct {
	windowSize   int
	overlapRatio float64
	step         int
}

// Option configures a Chunker.
type Option func(*Chunker) error

// WithWindowSize sets the number of words per chunk.
func WithWindowSize(n int) Option {
	return func(c *Chunker) error {
		c.windowSize = n
		return nil
	}
}

// WithOverlapRatio sets the fraction of each window repeated from the previous one.
func WithOverlapRatio(r float64) Option {
	return func(c *Chunker) error {
		c.overlapRatio = r
		return nil
	}
}

// New returns a Chunker using the defaults overridden by opts.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		windowSize:   DefaultWindowSize,
		overlapRatio: DefaultOverlapRatio,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	step, err := stepFor(c.windowSize, c.overlapRatio)
	if err != nil {
		return nil, err
	}
	c.step = step
	return c, nil
}

// WindowSize returns the configured words per chunk.
func (c *Chunker) WindowSize() int { return c.windowSize }

// OverlapRatio returns the configured overlap fraction.
func (c *Chunker) OverlapRatio() float64 { return c.overlapRatio }

// Step returns how many words each window advances.
func (c *Chunker) Step() int { return c.step }

// Split returns the chunk texts of text. Text with no words yields no chunks.
func (c *Chunker) Split(text string) []string {
	return split(strings.Fields(text), c.windowSize, c.step)
}

// ChunkRecord chunks the record's document and assigns chunk indexes.
func (c *Chunker) ChunkRecord(record *core.CorpusRecord) []core.Chunk {
	texts := c.Split(record.Document())
	chunks := make([]core.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = core.Chunk{RecordID: record.RecordID, ChunkIndex: i, Text: text}
	}
	return chunks
}

// Chunk splits text into windows of windowSize words, each overlapping the
// previous by floor(windowSize*overlapRatio) words.
func Chunk(text string, windowSize int, overlapRatio float64) ([]string, error) {
	step, err := stepFor(windowSize, overlapRatio)
	if err != nil {
		return nil, err
	}
	return split(strings.Fields(text), windowSize, step), nil
}

func stepFor(windowSize int, overlapRatio float64) (int, error) {
	if windowSize < 1 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidWindow, windowSize)
	}
	if overlapRatio < 0 || overlapRatio >= 1 || math.IsNaN(overlapRatio) {
		return 0, fmt.Errorf("%w: got %v", ErrInvalidOverlap, overlapRatio)
	}
	overlap := int(math.Floor(float64(windowSize) * overlapRatio))
	step := windowSize - overlap
	if step < 1 {
		return 0, fmt.Errorf("%w: window %d with ratio %v does not advance", ErrInvalidOverlap, windowSize, overlapRatio)
	}
	return step, nil
}

func split(words []string, windowSize, step int) []string {
	if len(words) == 0 {
		return nil
	}
	chunks := make([]string, 0, len(words)/step+1)
	for start := 0; start < len(words); start += step {
		end := min(start+windowSize, len(words))
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}

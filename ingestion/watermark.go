package ingestion

import (
	"context"
	"sync"

	"github.com/poiesic/talkrag/core"
	"github.com/poiesic/talkrag/storage"
)

// watermark tracks completed records by input position and persists the
// length of the longest completed prefix.
type watermark struct {
	mu          sync.Mutex
	repo        storage.CheckpointRepository
	name        string
	base        int64
	done        []bool
	next        int
	saveFailure error
}

func newWatermark(repo storage.CheckpointRepository, name string, base int64, n int) *watermark {
	return &watermark{repo: repo, name: name, base: base, done: make([]bool, n)}
}

// complete marks position i (relative to base) done and saves the
// checkpoint when the prefix grows.
func (w *watermark) complete(ctx context.Context, i int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.done[i] = true
	advanced := false
	for w.next < len(w.done) && w.done[w.next] {
		w.next++
		advanced = true
	}
	if !advanced {
		return
	}
	// Saved with a fresh context so the last completed prefix survives cancellation.
	err := w.repo.SaveCheckpoint(context.WithoutCancel(ctx), &core.Checkpoint{
		Name:     w.name,
		Position: w.position(),
	})
	if err != nil && w.saveFailure == nil {
		w.saveFailure = err
	}
}

func (w *watermark) position() int64 {
	return w.base + int64(w.next)
}

// Position returns the checkpoint position reached so far.
func (w *watermark) Position() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.position()
}

func (w *watermark) err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.saveFailure
}

package badger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/talkrag/core"
	"github.com/poiesic/talkrag/storage"
)

// conflictRetries bounds retries of write transactions that lose a race on
// the dimension key. Only the first writes to an empty index can collide.
const conflictRetries = 3

// Index implements storage.VectorIndex on BadgerDB with an exhaustive scan.
// Vectors are stored at unit length so the dot product is cosine similarity.
type Index struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.VectorIndex = (*Index)(nil)

// NewIndex creates an Index over backend. The backend stays owned by the caller.
func NewIndex(backend *Backend) *Index {
	return &Index{
		backend: backend,
		logger:  slog.Default().With("component", "badger-index"),
	}
}

// Upsert writes entries, replacing any with the same ID.
func (x *Index) Upsert(ctx context.Context, entries ...*core.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if x.backend.IsClosed() {
		return storage.ErrStorageClosed
	}

	stored := make([]*core.IndexEntry, len(entries))
	for i, e := range entries {
		if err := core.ValidateEntry(e); err != nil {
			return err
		}
		cp := *e
		cp.Vector = core.NormalizeVector(e.Vector)
		stored[i] = &cp
	}
	dims := len(stored[0].Vector)
	for _, e := range stored[1:] {
		if len(e.Vector) != dims {
			return fmt.Errorf("%w: batch mixes %d and %d", storage.ErrDimensionMismatch, dims, len(e.Vector))
		}
	}

	var err error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		err = x.backend.WithTx(func(tx *badger.Txn) error {
			if err := checkDims(tx, dims); err != nil {
				return err
			}
			for _, e := range stored {
				if err := tx.Set(makeEntryKey(e.RecordID, e.ChunkIndex), storage.MarshalEntry(e)); err != nil {
					return err
				}
			}
			return tx.Commit()
		}, true)
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
		x.logger.Debug("upsert conflict, retrying", "attempt", attempt+1)
	}
	return err
}

// checkDims records the index width on first write and rejects other widths.
func checkDims(tx *badger.Txn, dims int) error {
	current, err := readDims(tx)
	if err != nil {
		return err
	}
	if current == 0 {
		buf := make([]byte, 4)
		binary.BigEndian.PutUint32(buf, uint32(dims))
		return tx.Set([]byte(indexDimsKey), buf)
	}
	if current != dims {
		return fmt.Errorf("%w: index holds %d-dimensional vectors, got %d", storage.ErrDimensionMismatch, current, dims)
	}
	return nil
}

func readDims(tx *badger.Txn) (int, error) {
	item, err := tx.Get([]byte(indexDimsKey))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var dims int
	err = item.Value(func(val []byte) error {
		if len(val) != 4 {
			return fmt.Errorf("%w: dimension value", storage.ErrTruncatedData)
		}
		dims = int(binary.BigEndian.Uint32(val))
		return nil
	})
	return dims, err
}

// Get retrieves a single entry by vector ID.
func (x *Index) Get(ctx context.Context, id string) (*core.IndexEntry, error) {
	recordID, chunkIndex, err := core.ParseVectorID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrNotFound, err)
	}

	var entry *core.IndexEntry
	err = x.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeEntryKey(recordID, chunkIndex))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			entry, err = storage.UnmarshalEntry(val)
			return err
		})
	}, false)
	return entry, err
}

// Query scans every entry and returns the topK most similar with score >= minScore.
// Equal scores keep key order, so results are deterministic.
func (x *Index) Query(ctx context.Context, vector []float32, topK int, minScore float32) ([]core.Match, error) {
	if topK < 1 {
		return nil, fmt.Errorf("%w: topK must be positive, got %d", storage.ErrInvalidQuery, topK)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", storage.ErrInvalidQuery)
	}
	query := core.NormalizeVector(vector)

	var matches []core.Match
	err := x.backend.WithTx(func(tx *badger.Txn) error {
		dims, err := readDims(tx)
		if err != nil {
			return err
		}
		if dims != 0 && dims != len(query) {
			return fmt.Errorf("%w: index holds %d-dimensional vectors, query has %d", storage.ErrDimensionMismatch, dims, len(query))
		}
		return x.scan(ctx, tx, nil, func(e *core.IndexEntry) error {
			score := core.DotProduct(query, e.Vector)
			if score >= minScore {
				matches = append(matches, core.MatchFromEntry(e, score))
			}
			return nil
		})
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(matches, func(a, b core.Match) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	x.logger.Debug("query complete", "matches", len(matches), "top_k", topK)
	return matches, nil
}

// scan calls fn for every entry whose key is >= from, in key order.
func (x *Index) scan(ctx context.Context, tx *badger.Txn, from []byte, fn func(*core.IndexEntry) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(entryPrefix)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	start := from
	if start == nil {
		start = opts.Prefix
	}
	for iter.Seek(start); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		var entry *core.IndexEntry
		err := iter.Item().Value(func(val []byte) error {
			var err error
			entry, err = storage.UnmarshalEntry(val)
			return err
		})
		if err != nil {
			return err
		}
		if err := fn(entry); err != nil {
			return err
		}
	}
	return nil
}

// errStopScan ends a scan early without reporting an error.
var errStopScan = errors.New("stop scan")

// Entries pages through entries in (record id, chunk index) order.
func (x *Index) Entries(ctx context.Context, after string, limit int) ([]*core.IndexEntry, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", storage.ErrInvalidQuery, limit)
	}

	var from []byte
	if after != "" {
		recordID, chunkIndex, err := core.ParseVectorID(after)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", storage.ErrInvalidQuery, err)
		}
		from = makeEntryKey(recordID, chunkIndex)
	}

	entries := make([]*core.IndexEntry, 0, limit)
	err := x.backend.WithTx(func(tx *badger.Txn) error {
		return x.scan(ctx, tx, from, func(e *core.IndexEntry) error {
			if e.ID == after {
				return nil
			}
			entries = append(entries, e)
			if len(entries) == limit {
				return errStopScan
			}
			return nil
		})
	}, false)
	if err != nil && !errors.Is(err, errStopScan) {
		return nil, err
	}
	return entries, nil
}

// PruneRecord deletes the record's chunks with index >= keep. Stale keys are
// collected in a read transaction and removed in a separate write batch.
func (x *Index) PruneRecord(ctx context.Context, recordID string, keep int) (int, error) {
	if x.backend.IsClosed() {
		return 0, storage.ErrStorageClosed
	}
	stale, err := x.backend.keysFrom(ctx, makeRecordPrefix(recordID), makeEntryKey(recordID, keep))
	if err != nil {
		return 0, err
	}
	removed, err := x.backend.deleteKeys(stale)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		x.logger.Debug("pruned stale chunks", "record_id", recordID, "removed", removed)
	}
	return removed, nil
}

// DeleteAll removes every entry and forgets the index width.
func (x *Index) DeleteAll(ctx context.Context) error {
	removed, err := x.backend.DeletePrefix(ctx, []byte(entryPrefix))
	if err != nil {
		return err
	}
	if _, err := x.backend.DeletePrefix(ctx, []byte(indexDimsKey)); err != nil {
		return err
	}
	x.logger.Info("deleted all index entries", "removed", removed)
	return nil
}

// Stats counts entries, distinct records and models.
func (x *Index) Stats(ctx context.Context) (*storage.IndexStats, error) {
	stats := &storage.IndexStats{Models: map[string]int{}}
	records := map[string]struct{}{}

	err := x.backend.WithTx(func(tx *badger.Txn) error {
		dims, err := readDims(tx)
		if err != nil {
			return err
		}
		stats.Dimensions = dims
		return x.scan(ctx, tx, nil, func(e *core.IndexEntry) error {
			stats.Entries++
			records[e.RecordID] = struct{}{}
			stats.Models[e.Model]++
			return nil
		})
	}, false)
	if err != nil {
		return nil, err
	}
	stats.Records = len(records)
	return stats, nil
}

// Close is a no-op; the backend is closed by its owner.
func (x *Index) Close() error {
	return nil
}

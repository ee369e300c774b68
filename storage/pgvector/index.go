// Package pgvector stores the talk index in PostgreSQL using the pgvector
// extension. Similarity is 1 minus the cosine distance operator (<=>).
package pgvector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/poiesic/talkrag/core"
	"github.com/poiesic/talkrag/storage"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Index implements storage.VectorIndex and storage.CheckpointRepository on
// PostgreSQL.
type Index struct {
	db     *gorm.DB
	logger *slog.Logger
}

var (
	_ storage.VectorIndex          = (*Index)(nil)
	_ storage.CheckpointRepository = (*Index)(nil)
)

// Open connects to dsn, enables the vector extension and migrates the tables.
func Open(ctx context.Context, dsn string) (*Index, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	x := New(db)
	if err := x.Migrate(ctx); err != nil {
		x.Close()
		return nil, err
	}
	return x, nil
}

// New wraps an existing connection without migrating.
func New(db *gorm.DB) *Index {
	return &Index{
		db:     db,
		logger: slog.Default().With("component", "pgvector-index"),
	}
}

// Migrate creates the extension and tables if they do not exist.
func (x *Index) Migrate(ctx context.Context) error {
	db := x.db.WithContext(ctx)
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("enable vector extension: %w", err)
	}
	if err := db.AutoMigrate(&TalkChunk{}, &JobCheckpoint{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Upsert inserts entries or replaces rows with the same id.
func (x *Index) Upsert(ctx context.Context, entries ...*core.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	models := make([]*TalkChunk, len(entries))
	for i, e := range entries {
		if err := core.ValidateEntry(e); err != nil {
			return err
		}
		cp := *e
		cp.Vector = core.NormalizeVector(e.Vector)
		if cp.UpdatedAt.IsZero() {
			cp.UpdatedAt = time.Now().UTC()
		}
		models[i] = toModel(&cp)
	}
	dims := len(entries[0].Vector)
	for _, e := range entries[1:] {
		if len(e.Vector) != dims {
			return fmt.Errorf("%w: batch mixes %d and %d", storage.ErrDimensionMismatch, dims, len(e.Vector))
		}
	}

	db := x.db.WithContext(ctx)
	current, err := storedDims(db)
	if err != nil {
		return err
	}
	if err := checkDims(current, dims); err != nil {
		return err
	}
	return x.upsertQuery(db, models).Error
}

// storedDims returns the width of the stored vectors, or 0 for an empty table.
func storedDims(db *gorm.DB) (int, error) {
	var dims int
	err := db.Raw("SELECT vector_dims(embedding) FROM talk_chunks LIMIT 1").Scan(&dims).Error
	return dims, err
}

// checkDims rejects a width that differs from a non-empty table's.
func checkDims(current, dims int) error {
	if current != 0 && current != dims {
		return fmt.Errorf("%w: index holds %d-dimensional vectors, got %d", storage.ErrDimensionMismatch, current, dims)
	}
	return nil
}

func (x *Index) upsertQuery(db *gorm.DB, models []*TalkChunk) *gorm.DB {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&models)
}

// Get retrieves a single entry by vector ID.
func (x *Index) Get(ctx context.Context, id string) (*core.IndexEntry, error) {
	var m TalkChunk
	err := x.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return toEntry(&m), nil
}

type scoredChunk struct {
	TalkChunk
	Score float64
}

// Query returns the topK rows closest to vector with similarity >= minScore.
func (x *Index) Query(ctx context.Context, vector []float32, topK int, minScore float32) ([]core.Match, error) {
	if topK < 1 {
		return nil, fmt.Errorf("%w: topK must be positive, got %d", storage.ErrInvalidQuery, topK)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", storage.ErrInvalidQuery)
	}

	var rows []scoredChunk
	if err := x.similarQuery(x.db.WithContext(ctx), vector, topK, minScore).Find(&rows).Error; err != nil {
		return nil, err
	}

	matches := make([]core.Match, len(rows))
	for i := range rows {
		matches[i] = core.MatchFromEntry(toEntry(&rows[i].TalkChunk), float32(rows[i].Score))
	}
	return matches, nil
}

func (x *Index) similarQuery(db *gorm.DB, vector []float32, topK int, minScore float32) *gorm.DB {
	q := pgvector.NewVector(core.NormalizeVector(vector))
	return db.Table(TalkChunk{}.TableName()).
		Select("talk_chunks.*, 1 - (embedding <=> ?) AS score", q).
		Where("1 - (embedding <=> ?) >= ?", q, minScore).
		Order("score DESC, record_id, chunk_index").
		Limit(topK)
}

// PruneRecord deletes the record's chunks with index >= keep.
func (x *Index) PruneRecord(ctx context.Context, recordID string, keep int) (int, error) {
	res := x.db.WithContext(ctx).
		Where("record_id = ? AND chunk_index >= ?", recordID, keep).
		Delete(&TalkChunk{})
	return int(res.RowsAffected), res.Error
}

// DeleteAll truncates the chunk table.
func (x *Index) DeleteAll(ctx context.Context) error {
	if err := x.db.WithContext(ctx).Exec("TRUNCATE TABLE talk_chunks").Error; err != nil {
		return err
	}
	x.logger.Info("deleted all index entries")
	return nil
}

// Entries pages through rows ordered by (record_id, chunk_index).
func (x *Index) Entries(ctx context.Context, after string, limit int) ([]*core.IndexEntry, error) {
	q, err := x.entriesQuery(x.db.WithContext(ctx), after, limit)
	if err != nil {
		return nil, err
	}
	var models []*TalkChunk
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	entries := make([]*core.IndexEntry, len(models))
	for i, m := range models {
		entries[i] = toEntry(m)
	}
	return entries, nil
}

func (x *Index) entriesQuery(db *gorm.DB, after string, limit int) (*gorm.DB, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", storage.ErrInvalidQuery, limit)
	}
	q := db.Model(&TalkChunk{}).Order("record_id, chunk_index").Limit(limit)
	if after != "" {
		recordID, chunkIndex, err := core.ParseVectorID(after)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", storage.ErrInvalidQuery, err)
		}
		q = q.Where("(record_id, chunk_index) > (?, ?)", recordID, chunkIndex)
	}
	return q, nil
}

// Stats summarizes the chunk table.
func (x *Index) Stats(ctx context.Context) (*storage.IndexStats, error) {
	db := x.db.WithContext(ctx)
	stats := &storage.IndexStats{Models: map[string]int{}}

	var entries, records int64
	if err := db.Model(&TalkChunk{}).Count(&entries).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&TalkChunk{}).Distinct("record_id").Count(&records).Error; err != nil {
		return nil, err
	}
	stats.Entries = int(entries)
	stats.Records = int(records)
	if entries == 0 {
		return stats, nil
	}

	var models []struct {
		Model string
		N     int
	}
	if err := db.Model(&TalkChunk{}).Select("model, count(*) AS n").Group("model").Scan(&models).Error; err != nil {
		return nil, err
	}
	for _, m := range models {
		stats.Models[m.Model] = m.N
	}

	dims, err := storedDims(db)
	if err != nil {
		return nil, err
	}
	stats.Dimensions = dims
	return stats, nil
}

// SaveCheckpoint upserts checkpoint by name.
func (x *Index) SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error {
	checkpoint.UpdatedAt = time.Now().UTC()
	row := &JobCheckpoint{Name: checkpoint.Name, Position: checkpoint.Position, UpdatedAt: checkpoint.UpdatedAt}
	return x.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		UpdateAll: true,
	}).Create(row).Error
}

// LoadCheckpoint returns the named checkpoint, or nil, nil.
func (x *Index) LoadCheckpoint(ctx context.Context, name string) (*core.Checkpoint, error) {
	var row JobCheckpoint
	err := x.db.WithContext(ctx).Where("name = ?", name).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &core.Checkpoint{Name: row.Name, Position: row.Position, UpdatedAt: row.UpdatedAt}, nil
}

// DeleteCheckpoint removes the named checkpoint.
func (x *Index) DeleteCheckpoint(ctx context.Context, name string) error {
	return x.db.WithContext(ctx).Where("name = ?", name).Delete(&JobCheckpoint{}).Error
}

// ResetCheckpoints removes every checkpoint.
func (x *Index) ResetCheckpoints(ctx context.Context) error {
	return x.db.WithContext(ctx).Exec("DELETE FROM job_checkpoints").Error
}

// Close releases the underlying connection pool.
func (x *Index) Close() error {
	sqlDB, err := x.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

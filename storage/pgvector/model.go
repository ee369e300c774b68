package pgvector

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/poiesic/talkrag/core"
)

// TalkChunk is the table row for one embedded chunk.
type TalkChunk struct {
	ID          string          `gorm:"type:text;primaryKey"`
	RecordID    string          `gorm:"type:text;not null;index:idx_talk_chunks_record,priority:1"`
	ChunkIndex  int             `gorm:"not null;index:idx_talk_chunks_record,priority:2"`
	Title       string          `gorm:"type:text"`
	Speaker     string          `gorm:"type:text"`
	ChunkText   string          `gorm:"type:text;not null"`
	Fingerprint int64           // bit pattern of core.Fingerprint
	Model       string          `gorm:"type:text;index"`
	Embedding   pgvector.Vector `gorm:"type:vector;not null"`
	UpdatedAt   time.Time
}

func (TalkChunk) TableName() string {
	return "talk_chunks"
}

// JobCheckpoint is the table row for a core.Checkpoint.
type JobCheckpoint struct {
	Name      string `gorm:"type:text;primaryKey"`
	Position  int64
	UpdatedAt time.Time
}

func (JobCheckpoint) TableName() string {
	return "job_checkpoints"
}

func toModel(e *core.IndexEntry) *TalkChunk {
	return &TalkChunk{
		ID:          e.ID,
		RecordID:    e.RecordID,
		ChunkIndex:  e.ChunkIndex,
		Title:       e.Title,
		Speaker:     e.Speaker,
		ChunkText:   e.ChunkText,
		Fingerprint: int64(e.Fingerprint),
		Model:       e.Model,
		Embedding:   pgvector.NewVector(e.Vector),
		UpdatedAt:   e.UpdatedAt,
	}
}

func toEntry(m *TalkChunk) *core.IndexEntry {
	return &core.IndexEntry{
		ID:          m.ID,
		RecordID:    m.RecordID,
		Title:       m.Title,
		Speaker:     m.Speaker,
		ChunkText:   m.ChunkText,
		ChunkIndex:  m.ChunkIndex,
		Fingerprint: core.Fingerprint(uint64(m.Fingerprint)),
		Model:       m.Model,
		Vector:      m.Embedding.Slice(),
		UpdatedAt:   m.UpdatedAt,
	}
}

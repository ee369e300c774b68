package core

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// Metadata keys stored alongside every indexed vector.
const (
	MetaRecordID   = "record_id"
	MetaTitle      = "title"
	MetaSpeaker    = "speaker"
	MetaChunkText  = "chunk_text"
	MetaChunkIndex = "chunk_index"
)

// Fingerprint is a content hash of chunk text. Two chunks with equal
// fingerprints are treated as identical during re-ingestion.
type Fingerprint uint64

// FingerprintOf hashes text with BLAKE2b truncated to 64 bits.
func FingerprintOf(text string) Fingerprint {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return Fingerprint(binary.LittleEndian.Uint64(sum))
}

// CorpusRecord is one talk from the source dataset. It is read once
// during ingestion and never modified.
type CorpusRecord struct {
	RecordID    string
	Title       string
	Speaker     string
	Description string
	Transcript  string
}

// Document renders the record as the labeled text that gets chunked.
func (r *CorpusRecord) Document() string {
	var b strings.Builder
	b.WriteString("\nTitle: ")
	b.WriteString(r.Title)
	b.WriteString("\nSpeaker: ")
	b.WriteString(r.Speaker)
	b.WriteString("\nDescription: ")
	b.WriteString(r.Description)
	b.WriteString("\nTranscript: ")
	b.WriteString(r.Transcript)
	b.WriteString("\n")
	return b.String()
}

// Chunk is a contiguous window of words from a record's document.
type Chunk struct {
	RecordID   string
	ChunkIndex int
	Text       string
}

// VectorID returns the index key for the chunk.
func (c Chunk) VectorID() string {
	return VectorID(c.RecordID, c.ChunkIndex)
}

// VectorID renders the identity of a chunk as "<record_id>-<chunk_index>".
func VectorID(recordID string, chunkIndex int) string {
	return fmt.Sprintf("%s-%d", recordID, chunkIndex)
}

// IndexEntry is an embedded chunk as stored in a vector index.
type IndexEntry struct {
	ID          string
	RecordID    string
	Title       string
	Speaker     string
	ChunkText   string
	ChunkIndex  int
	Fingerprint Fingerprint
	Model       string    // embedding model that produced Vector
	Vector      []float32 // unit length once stored
	UpdatedAt   time.Time
}

// NewIndexEntry builds the entry for a chunk of record.
func NewIndexEntry(record *CorpusRecord, chunk Chunk, vector []float32, model string) *IndexEntry {
	return &IndexEntry{
		ID:          chunk.VectorID(),
		RecordID:    record.RecordID,
		Title:       record.Title,
		Speaker:     record.Speaker,
		ChunkText:   chunk.Text,
		ChunkIndex:  chunk.ChunkIndex,
		Fingerprint: FingerprintOf(chunk.Text),
		Model:       model,
		Vector:      vector,
		UpdatedAt:   time.Now().UTC(),
	}
}

// Metadata returns the entry's payload in the shape returned with matches.
func (e *IndexEntry) Metadata() map[string]any {
	md := map[string]any{
		MetaRecordID:   e.RecordID,
		MetaTitle:      e.Title,
		MetaChunkText:  e.ChunkText,
		MetaChunkIndex: e.ChunkIndex,
	}
	if e.Speaker != "" {
		md[MetaSpeaker] = e.Speaker
	}
	return md
}

// Match is a single nearest-neighbor result. Higher Score is more relevant.
type Match struct {
	VectorID string
	Score    float32
	Metadata map[string]any
}

// MatchFromEntry converts a stored entry into a Match with the given score.
func MatchFromEntry(e *IndexEntry, score float32) Match {
	return Match{VectorID: e.ID, Score: score, Metadata: e.Metadata()}
}

// ContextItem is the caller-facing view of one retrieved passage.
type ContextItem struct {
	RecordID  string
	Title     string
	ChunkText string
	Score     float32
}

// Item extracts the passage fields from the match metadata. It reports false
// when record_id, title or chunk_text is missing or not a string, or when
// record_id is empty.
func (m Match) Item() (ContextItem, bool) {
	recordID, ok := stringField(m.Metadata, MetaRecordID)
	if !ok || recordID == "" {
		return ContextItem{}, false
	}
	title, ok := stringField(m.Metadata, MetaTitle)
	if !ok {
		return ContextItem{}, false
	}
	text, ok := stringField(m.Metadata, MetaChunkText)
	if !ok {
		return ContextItem{}, false
	}
	return ContextItem{RecordID: recordID, Title: title, ChunkText: text, Score: m.Score}, true
}

// Valid reports whether the match can contribute to a context.
func (m Match) Valid() bool {
	_, ok := m.Item()
	return ok
}

func stringField(md map[string]any, key string) (string, bool) {
	v, ok := md[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// ParseVectorID splits a vector id produced by VectorID. The chunk index is
// taken after the last dash, so record ids may themselves contain dashes.
func ParseVectorID(id string) (recordID string, chunkIndex int, err error) {
	i := strings.LastIndexByte(id, '-')
	if i <= 0 || i == len(id)-1 {
		return "", 0, fmt.Errorf("%w: malformed vector id %q", ErrInvalidEntry, id)
	}
	idx, err := strconv.Atoi(id[i+1:])
	if err != nil || idx < 0 {
		return "", 0, fmt.Errorf("%w: malformed vector id %q", ErrInvalidEntry, id)
	}
	return id[:i], idx, nil
}

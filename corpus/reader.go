package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/talkrag/core"
)

// Columns names the header fields that map onto a core.CorpusRecord.
type Columns struct {
	RecordID    string `toml:"record_id"`
	Title       string `toml:"title"`
	Speaker     string `toml:"speaker"`
	Description string `toml:"description"`
	Transcript  string `toml:"transcript"`
}

// DefaultColumns matches the public TED talks dataset.
func DefaultColumns() Columns {
	return Columns{
		RecordID:    "talk_id",
		Title:       "title",
		Speaker:     "speaker_1",
		Description: "description",
		Transcript:  "transcript",
	}
}

// Reader yields corpus records from a CSV stream.
type Reader struct {
	columns Columns
	limit   int
	logger  *slog.Logger
}

// Option configures a Reader.
type Option func(*Reader)

// WithColumns overrides the header names.
func WithColumns(c Columns) Option {
	return func(r *Reader) {
		r.columns = c
	}
}

// WithLimit stops after n records. Zero or less means no limit.
func WithLimit(n int) Option {
	return func(r *Reader) {
		r.limit = n
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reader) {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
	}
}

// NewReader creates a reader with the dataset's default columns.
func NewReader(opts ...Option) *Reader {
	r := &Reader{
		columns: DefaultColumns(),
		logger:  slog.Default().With("component", "corpus-reader"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type layout struct {
	id, title, speaker, description, transcript int
}

func (r *Reader) layout(header []string) (layout, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		// Spreadsheet exports prepend a BOM to the first header.
		pos[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	find := func(name string, required bool) (int, error) {
		if i, ok := pos[name]; ok {
			return i, nil
		}
		if required {
			return -1, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
		return -1, nil
	}

	var l layout
	var err error
	if l.id, err = find(r.columns.RecordID, true); err != nil {
		return l, err
	}
	if l.transcript, err = find(r.columns.Transcript, true); err != nil {
		return l, err
	}
	l.title, _ = find(r.columns.Title, false)
	l.speaker, _ = find(r.columns.Speaker, false)
	l.description, _ = find(r.columns.Description, false)
	return l, nil
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Records returns an iterator over the records in src. Iteration stops at
// the first read error, which is yielded with a nil record.
func (r *Reader) Records(src io.Reader) iter.Seq2[*core.CorpusRecord, error] {
	return func(yield func(*core.CorpusRecord, error) bool) {
		cr := csv.NewReader(src)
		cr.FieldsPerRecord = -1
		cr.LazyQuotes = true
		cr.ReuseRecord = true

		header, err := cr.Read()
		if errors.Is(err, io.EOF) {
			yield(nil, ErrEmptyFile)
			return
		}
		if err != nil {
			yield(nil, fmt.Errorf("read header: %w", err))
			return
		}
		l, err := r.layout(header)
		if err != nil {
			yield(nil, err)
			return
		}

		count := 0
		for {
			if r.limit > 0 && count >= r.limit {
				return
			}
			row, err := cr.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, fmt.Errorf("read row: %w", err))
				return
			}

			record := &core.CorpusRecord{
				RecordID:    field(row, l.id),
				Title:       field(row, l.title),
				Speaker:     field(row, l.speaker),
				Description: field(row, l.description),
				Transcript:  field(row, l.transcript),
			}
			if err := core.ValidateRecord(record); err != nil {
				line, _ := cr.FieldPos(0)
				r.logger.Warn("skipping row without record id", "line", line)
				continue
			}
			count++
			if !yield(record, nil) {
				return
			}
		}
	}
}

// ReadAll collects every record from src.
func (r *Reader) ReadAll(src io.Reader) ([]*core.CorpusRecord, error) {
	var records []*core.CorpusRecord
	for record, err := range r.Records(src) {
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// ReadFile reads every record from the CSV file at path.
func (r *Reader) ReadFile(path string) ([]*core.CorpusRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return r.ReadAll(f)
}

package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/talkrag/ai"
	"github.com/poiesic/talkrag/chunking"
	"github.com/poiesic/talkrag/core"
	"github.com/poiesic/talkrag/progress"
	"github.com/poiesic/talkrag/retry"
	"github.com/poiesic/talkrag/storage"
	"golang.org/x/time/rate"
)

const (
	// DefaultRequestsPerSecond bounds embedding calls across all workers.
	DefaultRequestsPerSecond = 10
	// DefaultBurst is the limiter bucket size.
	DefaultBurst = 10
)

// DefaultRetry is the per-chunk retry policy.
var DefaultRetry = retry.Policy{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond}

// Pipeline ingests corpus records into a vector index.
type Pipeline struct {
	index       storage.VectorIndex
	checkpoints storage.CheckpointRepository
	chunker     *chunking.Chunker
	pool        *ants.Pool
	proc        *chunkProcessor
	progressOut io.Writer
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if p.pool != nil {
			p.pool.Release()
		}
		p.pool = pool
		return nil
	}
}

// WithRateLimit caps outbound embedding calls at rps with the given burst.
// A non-positive rps removes the limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(p *Pipeline) error {
		if burst < 1 {
			burst = 1
		}
		limit := rate.Limit(rps)
		if rps <= 0 {
			limit = rate.Inf
		}
		p.proc.limiter = rate.NewLimiter(limit, burst)
		return nil
	}
}

// WithRetry sets the per-chunk retry policy.
func WithRetry(policy retry.Policy) Option {
	return func(p *Pipeline) error {
		if policy.MaxAttempts < 1 {
			return retry.ErrInvalidMaxAttempts
		}
		p.proc.retry = policy
		return nil
	}
}

// WithChunker replaces the default chunker.
func WithChunker(c *chunking.Chunker) Option {
	return func(p *Pipeline) error {
		if c != nil {
			p.chunker = c
		}
		return nil
	}
}

// WithProgress writes per-record progress to w.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) error {
		p.progressOut = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	index storage.VectorIndex,
	checkpoints storage.CheckpointRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Pipeline, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}
	if checkpoints == nil {
		return nil, ErrCheckpointRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	chunker, err := chunking.New()
	if err != nil {
		return nil, err
	}

	poolSize := max(runtime.NumCPU()/2, 1)
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		index:       index,
		checkpoints: checkpoints,
		chunker:     chunker,
		pool:        pool,
		proc: &chunkProcessor{
			index:    index,
			embedder: provider.Embedder(),
			model:    provider.EmbeddingModel(),
			limiter:  rate.NewLimiter(DefaultRequestsPerSecond, DefaultBurst),
			retry:    DefaultRetry,
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	p.proc.logger = p.logger.With("component", "chunk-processor")

	return p, nil
}

// Chunker returns the chunker used to split records.
func (p *Pipeline) Chunker() *chunking.Chunker {
	return p.chunker
}

// IngestOptions holds optional parameters for ingestion.
type IngestOptions struct {
	// Restart ignores any saved checkpoint for the source.
	Restart bool
}

// Summary reports the outcome of one ingestion run.
type Summary struct {
	RunID            string
	Source           string
	Records          int // records in the input
	ResumedPast      int // records skipped because the checkpoint covered them
	RecordsCompleted int
	RecordsFailed    int
	RecordsInvalid   int // records rejected by validation; the checkpoint moves past them
	Chunks           int // chunks submitted
	Embedded         int
	Unchanged        int
	ChunksFailed     int
	Pruned           int
	Checkpoint       int64
	Duration         time.Duration
}

// CheckpointName is the checkpoint key for a corpus source path.
func CheckpointName(source string) string {
	return "ingest:" + filepath.Base(source)
}

type recordState struct {
	position  int
	record    *core.CorpusRecord
	chunks    int
	remaining atomic.Int32
	failed    atomic.Bool
}

type counters struct {
	embedded, unchanged, chunksFailed atomic.Int64
	completed, failed, pruned         atomic.Int64
	invalid                           atomic.Int64
}

// Ingest chunks, embeds and stores records read from source. Records that
// the source's checkpoint already covers are skipped unless opts.Restart
// is set. Cancelling ctx stops new chunks from being submitted; chunks in
// flight finish or abort before Ingest returns.
func (p *Pipeline) Ingest(ctx context.Context, source string, records []*core.CorpusRecord, opts *IngestOptions) (*Summary, error) {
	if opts == nil {
		opts = &IngestOptions{}
	}
	started := time.Now()
	summary := &Summary{RunID: uuid.NewString(), Source: source, Records: len(records)}
	logger := p.logger.With("run", summary.RunID, "source", source)

	name := CheckpointName(source)
	var start int64
	if opts.Restart {
		if err := p.checkpoints.DeleteCheckpoint(ctx, name); err != nil {
			return nil, fmt.Errorf("reset checkpoint: %w", err)
		}
	} else {
		cp, err := p.checkpoints.LoadCheckpoint(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("load checkpoint: %w", err)
		}
		if cp != nil {
			start = min(cp.Position, int64(len(records)))
		}
	}
	summary.ResumedPast = int(start)
	pending := records[start:]

	logger.Info("starting ingestion", "records", len(records), "resume_at", start,
		"window", p.chunker.WindowSize(), "overlap", p.chunker.OverlapRatio())

	wm := newWatermark(p.checkpoints, name, start, len(pending))
	var tracker *progress.Tracker
	if p.progressOut != nil {
		tracker = progress.NewTracker(p.progressOut, "records", len(pending), 1)
		tracker.Start()
	}

	var (
		c  counters
		wg sync.WaitGroup
	)

	finish := func(st *recordState) {
		if st.failed.Load() {
			c.failed.Add(1)
			return
		}
		n, err := p.index.PruneRecord(context.WithoutCancel(ctx), st.record.RecordID, st.chunks)
		if err != nil {
			logger.Warn("error pruning stale chunks", "record", st.record.RecordID, "err", err)
			c.failed.Add(1)
			return
		}
		if n > 0 {
			logger.Debug("pruned stale chunks", "record", st.record.RecordID, "count", n)
		}
		c.pruned.Add(int64(n))
		c.completed.Add(1)
		wm.complete(ctx, st.position)
		if tracker != nil {
			tracker.Increment(1)
		}
	}

submit:
	for i, record := range pending {
		if ctx.Err() != nil {
			break
		}
		if err := core.ValidateRecord(record); err != nil {
			// Retrying cannot fix a bad record, so it must not hold the checkpoint.
			logger.Warn("skipping invalid record", "position", start+int64(i), "err", err)
			c.invalid.Add(1)
			wm.complete(ctx, i)
			if tracker != nil {
				tracker.Increment(1)
			}
			continue
		}

		chunks := p.chunker.ChunkRecord(record)
		st := &recordState{position: i, record: record, chunks: len(chunks)}
		if len(chunks) == 0 {
			finish(st)
			continue
		}
		st.remaining.Store(int32(len(chunks)))

		for j, chunk := range chunks {
			if ctx.Err() != nil {
				// Chunks already submitted finish; the record stays incomplete.
				st.failed.Store(true)
				if st.remaining.Add(-int32(len(chunks)-j)) == 0 {
					finish(st)
				}
				break submit
			}
			summary.Chunks++
			wg.Add(1)
			err := p.pool.Submit(func() {
				defer wg.Done()
				outcome, err := p.proc.process(ctx, record, chunk)
				switch outcome {
				case outcomeEmbedded:
					c.embedded.Add(1)
				case outcomeUnchanged:
					c.unchanged.Add(1)
				default:
					c.chunksFailed.Add(1)
					st.failed.Store(true)
					if !errors.Is(err, context.Canceled) {
						logger.Warn("chunk failed", "chunk", chunk.VectorID(), "err", err)
					}
				}
				if st.remaining.Add(-1) == 0 {
					finish(st)
				}
			})
			if err != nil {
				wg.Done()
				summary.Chunks--
				st.failed.Store(true)
				logger.Error("error submitting chunk", "chunk", chunk.VectorID(), "err", err)
				if st.remaining.Add(-int32(len(chunks)-j)) == 0 {
					finish(st)
				}
				break submit
			}
		}
	}
	wg.Wait()
	if tracker != nil {
		tracker.Finish()
	}

	summary.Embedded = int(c.embedded.Load())
	summary.Unchanged = int(c.unchanged.Load())
	summary.ChunksFailed = int(c.chunksFailed.Load())
	summary.RecordsCompleted = int(c.completed.Load())
	summary.RecordsFailed = int(c.failed.Load())
	summary.RecordsInvalid = int(c.invalid.Load())
	summary.Pruned = int(c.pruned.Load())
	summary.Checkpoint = wm.Position()
	summary.Duration = time.Since(started)

	logger.Info("ingestion finished",
		"completed", summary.RecordsCompleted,
		"failed", summary.RecordsFailed,
		"invalid", summary.RecordsInvalid,
		"embedded", summary.Embedded,
		"unchanged", summary.Unchanged,
		"pruned", summary.Pruned,
		"checkpoint", summary.Checkpoint,
		"duration", summary.Duration)

	if err := wm.err(); err != nil {
		return summary, fmt.Errorf("save checkpoint: %w", err)
	}
	if summary.Checkpoint < int64(len(records)) {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("%w: %w", ErrIngestionIncomplete, err)
		}
		return summary, fmt.Errorf("%w: %d of %d records failed", ErrIngestionIncomplete,
			summary.RecordsFailed, len(pending))
	}
	return summary, nil
}

// Release releases resources including the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

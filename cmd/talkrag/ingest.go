package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/talkrag/corpus"
	"github.com/poiesic/talkrag/ingestion"
	"github.com/urfave/cli/v2"
)

func ingestCommand() *cli.Command {
	return &cli.Command{
		Name:   "ingest",
		Usage:  "Chunk, embed and index the talks in a CSV file",
		Action: ingestAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "csv",
				Usage: "Path to the TED talks CSV file",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Only ingest the first N talks (0 for all)",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Number of chunks embedded concurrently",
			},
			&cli.Float64Flag{
				Name:  "rps",
				Usage: "Maximum embedding requests per second (0 for unlimited)",
			},
			&cli.IntFlag{
				Name:  "burst",
				Usage: "Embedding request burst size",
			},
			&cli.BoolFlag{
				Name:  "restart",
				Usage: "Ignore the saved checkpoint and start from the first talk",
			},
		},
	}
}

func ingestAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("csv") {
		cfg.Corpus.Path = c.String("csv")
	}
	if c.IsSet("workers") {
		cfg.Ingestion.Workers = c.Int("workers")
	}
	if c.IsSet("rps") {
		cfg.Ingestion.RequestsPerSecond = c.Float64("rps")
	}
	if c.IsSet("burst") {
		cfg.Ingestion.Burst = c.Int("burst")
	}

	reader := corpus.NewReader(
		corpus.WithColumns(cfg.Corpus.Columns),
		corpus.WithLimit(c.Int("limit")),
	)
	records, err := reader.ReadFile(cfg.Corpus.Path)
	if err != nil {
		return fmt.Errorf("failed to read corpus: %w", err)
	}

	ctx, stop := signalContext()
	defer stop()

	engine, err := openEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	pipeline, err := engine.NewIngestionPipeline(ingestion.WithProgress(c.App.ErrWriter))
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	fmt.Fprintf(c.App.ErrWriter, "Corpus: %s (%d talks)\n", cfg.Corpus.Path, len(records))
	fmt.Fprintf(c.App.ErrWriter, "Index: %s\n", cfg.Index.Backend)
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", cfg.AI.EmbeddingModel)
	fmt.Fprintln(c.App.ErrWriter)

	summary, err := pipeline.Ingest(ctx, cfg.Corpus.Path, records, &ingestion.IngestOptions{
		Restart: c.Bool("restart"),
	})
	if summary != nil {
		printSummary(c.App.ErrWriter, summary)
	}
	if errors.Is(err, ingestion.ErrIngestionIncomplete) {
		fmt.Fprintln(c.App.ErrWriter, "Run the same command again to resume from the checkpoint.")
	}
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	return nil
}

func printSummary(w io.Writer, s *ingestion.Summary) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Run:        %s\n", s.RunID)
	fmt.Fprintf(w, "Talks:      %d completed, %d failed, %d invalid, %d skipped by checkpoint\n",
		s.RecordsCompleted, s.RecordsFailed, s.RecordsInvalid, s.ResumedPast)
	fmt.Fprintf(w, "Chunks:     %d embedded, %d unchanged, %d failed\n",
		s.Embedded, s.Unchanged, s.ChunksFailed)
	fmt.Fprintf(w, "Pruned:     %d stale chunks\n", s.Pruned)
	fmt.Fprintf(w, "Checkpoint: %d of %d talks\n", s.Checkpoint, s.Records)
	fmt.Fprintf(w, "Duration:   %s\n", s.Duration.Round(time.Millisecond))
}

package main

import (
	"bufio"
	"fmt"
	"sort"
	"strings"

	"github.com/poiesic/talkrag/reembed"
	"github.com/urfave/cli/v2"
)

func clearCommand() *cli.Command {
	return &cli.Command{
		Name:   "clear",
		Usage:  "Delete every indexed chunk and ingestion checkpoint",
		Action: clearAction,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Skip the confirmation prompt",
			},
		},
	}
}

func clearAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	if !c.Bool("yes") {
		fmt.Fprintf(c.App.Writer, "This deletes every vector in the %s index. Type 'yes' to continue: ", cfg.Index.Backend)
		line, _ := bufio.NewReader(c.App.Reader).ReadString('\n')
		if strings.TrimSpace(line) != "yes" {
			fmt.Fprintln(c.App.Writer, "Aborted.")
			return nil
		}
	}

	ctx, stop := signalContext()
	defer stop()

	engine, err := openEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.Clear(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "Index cleared.")
	return nil
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:   "stats",
		Usage:  "Show what the index holds",
		Action: statsAction,
	}
}

func statsAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	engine, err := openEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	stats, err := engine.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read index stats: %w", err)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Backend:       %s\n", cfg.Index.Backend)
	fmt.Fprintf(w, "Chunks:        %d\n", stats.Entries)
	fmt.Fprintf(w, "Talks:         %d\n", stats.Records)
	fmt.Fprintf(w, "Dimensions:    %d\n", stats.Dimensions)
	fmt.Fprintf(w, "Chunk size:    %d words\n", cfg.Chunking.WindowSize)
	fmt.Fprintf(w, "Overlap ratio: %g\n", cfg.Chunking.OverlapRatio)
	fmt.Fprintf(w, "Top k:         %d\n", cfg.Retrieval.TopK)

	models := make([]string, 0, len(stats.Models))
	for m := range stats.Models {
		models = append(models, m)
	}
	sort.Strings(models)
	for _, m := range models {
		fmt.Fprintf(w, "Model:         %s (%d chunks)\n", m, stats.Models[m])
	}
	return nil
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:   "config",
		Usage:  "Print the effective configuration as TOML",
		Action: configAction,
	}
}

func configAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(c.App.ErrWriter, "warning: %v\n", err)
	}
	return cfg.Encode(c.App.Writer)
}

func reembedCommand() *cli.Command {
	return &cli.Command{
		Name:   "reembed",
		Usage:  "Reembed every indexed chunk with the configured embedding model",
		Action: reembedAction,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "Number of chunks to embed in each batch",
				Value: reembed.DefaultBatchSize,
			},
			&cli.IntFlag{
				Name:  "report-interval",
				Usage: "Report progress every N chunks",
				Value: 100,
			},
			&cli.IntFlag{
				Name:  "max-retries",
				Usage: "Maximum retry attempts for failed operations",
				Value: 3,
			},
			&cli.DurationFlag{
				Name:  "retry-delay",
				Usage: "Base delay for exponential backoff",
				Value: reembed.DefaultConfig().RetryDelay,
			},
		},
	}
}

func reembedAction(c *cli.Context) error {
	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	engine, err := openEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	reembedder, err := engine.NewReembedder(reembedConfig, c.App.ErrWriter)
	if err != nil {
		return fmt.Errorf("failed to create reembedder: %w", err)
	}

	fmt.Fprintf(c.App.ErrWriter, "Index: %s\n", cfg.Index.Backend)
	fmt.Fprintf(c.App.ErrWriter, "Embedding host: %s\n", cfg.AI.EmbeddingHost)
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", cfg.AI.EmbeddingModel)
	fmt.Fprintln(c.App.ErrWriter)

	n, err := reembedder.Run(ctx)
	if err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Reembedded %d chunks.\n", n)
	return nil
}

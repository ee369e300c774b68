// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.



package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/poiesic/talkrag"
	"github.com/poiesic/talkrag/config"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "talkrag",
		Usage: "Answer questions about TED talks from their transcripts",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a TOML configuration file",
			},
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "Environment file to load (repeatable; default .env.local and .env)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "index",
				Usage: "Index backend (badger, pgvector)",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory",
			},
			&cli.StringFlag{
				Name:  "dsn",
				Usage: "PostgreSQL connection string for the pgvector backend",
			},
			&cli.StringFlag{
				Name:  "base-url",
				Usage: "Host URL for both embedding and generation services",
			},
			&cli.StringFlag{
				Name:  "embedding-host",
				Usage: "Embedding service host URL",
			},
			&cli.StringFlag{
				Name:  "generation-host",
				Usage: "Generation service host URL",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name",
			},
			&cli.StringFlag{
				Name:  "generation-model",
				Usage: "Generation model name",
			},
			&cli.StringFlag{
				Name:  "api-key",
				Usage: "API key for the AI services",
			},
			&cli.Float64Flag{
				Name:  "temperature",
				Usage: "Sampling temperature for answers",
			},
		},
		Before: before,
		Commands: []*cli.Command{
			ingestCommand(),
			askCommand(),
			serveCommand(),
			clearCommand(),
			statsCommand(),
			configCommand(),
			reembedCommand(),
		},
	}
}

func before(c *cli.Context) error {
	if err := config.LoadEnv(c.StringSlice("env-file")...); err != nil {
		return err
	}
	return setupLogger(c)
}

// loadConfig layers the config file, the environment and the global flags.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()

	if c.IsSet("index") {
		cfg.Index.Backend = c.String("index")
	}
	if c.IsSet("db") {
		cfg.Index.Path = c.String("db")
	}
	if c.IsSet("dsn") {
		cfg.Index.DSN = c.String("dsn")
	}
	if c.IsSet("base-url") {
		cfg.AI.EmbeddingHost = c.String("base-url")
		cfg.AI.GenerationHost = c.String("base-url")
	}
	if c.IsSet("embedding-host") {
		cfg.AI.EmbeddingHost = c.String("embedding-host")
	}
	if c.IsSet("generation-host") {
		cfg.AI.GenerationHost = c.String("generation-host")
	}
	if c.IsSet("embedding-model") {
		cfg.AI.EmbeddingModel = c.String("embedding-model")
	}
	if c.IsSet("generation-model") {
		cfg.AI.GenerationModel = c.String("generation-model")
	}
	if c.IsSet("api-key") {
		cfg.AI.APIKey = c.String("api-key")
	}
	if c.IsSet("temperature") {
		cfg.AI.Temperature = c.Float64("temperature")
	}
	return cfg, nil
}

func openEngine(ctx context.Context, cfg *config.Config) (*talkrag.Engine, error) {
	engine, err := talkrag.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	return engine, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

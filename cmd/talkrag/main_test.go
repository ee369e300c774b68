package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/talkrag/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// testApp returns the real app with captured output and an extra command
// that records the effective configuration.
func testApp(t *testing.T) (*cli.App, *bytes.Buffer, **config.Config) {
	t.Helper()
	app := newApp()
	out := &bytes.Buffer{}
	app.Writer = out
	app.ErrWriter = &bytes.Buffer{}
	app.Reader = strings.NewReader("")

	var cfg *config.Config
	app.Commands = append(app.Commands, &cli.Command{
		Name: "inspect",
		Action: func(c *cli.Context) error {
			var err error
			cfg, err = loadConfig(c)
			return err
		},
	})
	return app, out, &cfg
}

func findCommand(t *testing.T, app *cli.App, name string) *cli.Command {
	t.Helper()
	for _, cmd := range app.Commands {
		if cmd.Name == name {
			return cmd
		}
	}
	t.Fatalf("command %q not found", name)
	return nil
}

func TestCommands(t *testing.T) {
	app := newApp()
	for _, name := range []string{"ingest", "ask", "serve", "clear", "stats", "config", "reembed"} {
		assert.NotNil(t, findCommand(t, app, name))
	}
}

func TestReembedCommandFlags(t *testing.T) {
	cmd := findCommand(t, newApp(), "reembed")

	intDefault := func(name string) int {
		for _, flag := range cmd.Flags {
			if f, ok := flag.(*cli.IntFlag); ok && f.Name == name {
				return f.Value
			}
		}
		t.Fatalf("flag %q not found", name)
		return 0
	}

	assert.Equal(t, 100, intDefault("batch-size"))
	assert.Equal(t, 100, intDefault("report-interval"))
	assert.Equal(t, 3, intDefault("max-retries"))

	var delay *cli.DurationFlag
	for _, flag := range cmd.Flags {
		if f, ok := flag.(*cli.DurationFlag); ok && f.Name == "retry-delay" {
			delay = f
		}
	}
	require.NotNil(t, delay)
	assert.Equal(t, time.Second, delay.Value)
}

func TestReembedCommandValidation(t *testing.T) {
	app, _, _ := testApp(t)
	db := filepath.Join(t.TempDir(), "db")

	t.Run("zero batch size fails", func(t *testing.T) {
		err := app.Run([]string{"talkrag", "--db", db, "reembed", "--batch-size", "0"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "batch-size")
	})

	t.Run("zero max retries fails", func(t *testing.T) {
		err := app.Run([]string{"talkrag", "--db", db, "reembed", "--max-retries", "0"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max-retries")
	})
}

func TestLoadConfig(t *testing.T) {
	for _, key := range []string{config.EnvAPIKey, config.EnvBaseURL, config.EnvCorpus, config.EnvDSN, config.EnvBackend, config.EnvAddr} {
		t.Setenv(key, "")
	}

	t.Run("defaults", func(t *testing.T) {
		app, _, cfg := testApp(t)
		require.NoError(t, app.Run([]string{"talkrag", "inspect"}))
		assert.Equal(t, config.BackendBadger, (*cfg).Index.Backend)
		assert.Equal(t, 5, (*cfg).Retrieval.TopK)
	})

	t.Run("file then environment then flags", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "talkrag.toml")
		require.NoError(t, os.WriteFile(path, []byte(`
[index]
path = "from-file"

[ai]
embedding_model = "file-model"
generation_model = "file-gen"

[retrieval]
top_k = 8
`), 0o600))
		t.Setenv(config.EnvBaseURL, "http://env-host:8080")
		t.Setenv(config.EnvAPIKey, "sk-env")

		app, _, cfg := testApp(t)
		require.NoError(t, app.Run([]string{"talkrag",
			"--config", path,
			"--embedding-model", "flag-model",
			"--generation-host", "http://flag-host/v1",
			"inspect",
		}))

		c := *cfg
		assert.Equal(t, "from-file", c.Index.Path)
		assert.Equal(t, 8, c.Retrieval.TopK)
		assert.Equal(t, "flag-model", c.AI.EmbeddingModel)
		assert.Equal(t, "file-gen", c.AI.GenerationModel)
		assert.Equal(t, "http://env-host:8080", c.AI.EmbeddingHost)
		assert.Equal(t, "http://flag-host/v1", c.AI.GenerationHost)
		assert.Equal(t, "sk-env", c.AI.APIKey)
	})

	t.Run("env file", func(t *testing.T) {
		envFile := filepath.Join(t.TempDir(), "test.env")
		require.NoError(t, os.WriteFile(envFile, []byte(config.EnvCorpus+"=/data/from-env-file.csv\n"), 0o600))
		os.Unsetenv(config.EnvCorpus)

		app, _, cfg := testApp(t)
		require.NoError(t, app.Run([]string{"talkrag", "--env-file", envFile, "inspect"}))
		assert.Equal(t, "/data/from-env-file.csv", (*cfg).Corpus.Path)
	})

	t.Run("missing config file", func(t *testing.T) {
		app, _, _ := testApp(t)
		err := app.Run([]string{"talkrag", "--config", filepath.Join(t.TempDir(), "nope.toml"), "inspect"})
		assert.Error(t, err)
	})
}

func TestAskRequiresQuestion(t *testing.T) {
	app, _, _ := testApp(t)
	err := app.Run([]string{"talkrag", "--db", filepath.Join(t.TempDir(), "db"), "ask", "   "})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "question")
}

func TestIngestMissingCSV(t *testing.T) {
	app, _, _ := testApp(t)
	err := app.Run([]string{"talkrag",
		"--db", filepath.Join(t.TempDir(), "db"),
		"ingest", "--csv", filepath.Join(t.TempDir(), "missing.csv"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read corpus")
}

func TestClearCommand(t *testing.T) {
	t.Run("aborts without confirmation", func(t *testing.T) {
		app, out, _ := testApp(t)
		app.Reader = strings.NewReader("no\n")
		require.NoError(t, app.Run([]string{"talkrag", "--db", filepath.Join(t.TempDir(), "db"), "clear"}))
		assert.Contains(t, out.String(), "Type 'yes'")
		assert.Contains(t, out.String(), "Aborted.")
	})

	t.Run("clears after typed yes", func(t *testing.T) {
		app, out, _ := testApp(t)
		app.Reader = strings.NewReader("yes\n")
		require.NoError(t, app.Run([]string{"talkrag", "--db", filepath.Join(t.TempDir(), "db"), "clear"}))
		assert.Contains(t, out.String(), "Index cleared.")
	})

	t.Run("yes flag skips the prompt", func(t *testing.T) {
		app, out, _ := testApp(t)
		require.NoError(t, app.Run([]string{"talkrag", "--db", filepath.Join(t.TempDir(), "db"), "clear", "--yes"}))
		assert.NotContains(t, out.String(), "Type 'yes'")
		assert.Contains(t, out.String(), "Index cleared.")
	})
}

func TestStatsCommand(t *testing.T) {
	app, out, _ := testApp(t)
	require.NoError(t, app.Run([]string{"talkrag", "--db", filepath.Join(t.TempDir(), "db"), "stats"}))
	assert.Contains(t, out.String(), "Chunks:        0")
	assert.Contains(t, out.String(), "Top k:         5")
}

func TestConfigCommand(t *testing.T) {
	t.Setenv(config.EnvAPIKey, "sk-very-secret")
	t.Setenv(config.EnvDSN, "postgres://user:pw@localhost/talks")

	app, out, _ := testApp(t)
	require.NoError(t, app.Run([]string{"talkrag", "config"}))

	text := out.String()
	assert.Contains(t, text, "[index]")
	assert.Contains(t, text, "[retrieval]")
	assert.NotContains(t, text, "sk-very-secret")
	assert.NotContains(t, text, "pw@localhost")
}

func TestSetupLogger(t *testing.T) {
	newLoggerApp := func() *cli.App {
		return &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "log-level",
					Value: "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				return nil
			},
		}
	}

	t.Run("valid log levels", func(t *testing.T) {
		testCases := []struct {
			input    string
			expected slog.Level
		}{
			{"debug", slog.LevelDebug},
			{"info", slog.LevelInfo},
			{"warn", slog.LevelWarn},
			{"error", slog.LevelError},
		}

		for _, tc := range testCases {
			t.Run(tc.input, func(t *testing.T) {
				err := newLoggerApp().Run([]string{"test", "--log-level", tc.input})
				require.NoError(t, err)
				assert.True(t, slog.Default().Enabled(t.Context(), tc.expected))
				if tc.expected > slog.LevelDebug {
					assert.False(t, slog.Default().Enabled(t.Context(), tc.expected-1))
				}
			})
		}
	})

	t.Run("case insensitive log levels", func(t *testing.T) {
		for _, tc := range []string{"DEBUG", "Info", "WaRn", "ERROR"} {
			t.Run(tc, func(t *testing.T) {
				require.NoError(t, newLoggerApp().Run([]string{"test", "--log-level", tc}))
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		err := newLoggerApp().Run([]string{"test", "--log-level", "invalid"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("log-level flag has alias -l", func(t *testing.T) {
		for _, flag := range newApp().Flags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == "log-level" {
				assert.Contains(t, f.Aliases, "l")
				assert.Equal(t, "info", f.Value)
				return
			}
		}
		t.Fatal("log-level flag not found")
	})
}

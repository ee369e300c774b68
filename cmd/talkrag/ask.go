package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/poiesic/talkrag/answer"
	"github.com/poiesic/talkrag/core"
	"github.com/poiesic/talkrag/server"
	"github.com/urfave/cli/v2"
)

func askCommand() *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Answer one question from the indexed talks",
		ArgsUsage: "QUESTION...",
		Action:    askAction,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the answer in the HTTP response format",
			},
			&cli.BoolFlag{
				Name:  "trace",
				Usage: "Log each stage of the query pipeline",
			},
		},
	}
}

func askAction(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return errors.New("a question is required")
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

	answerer, err := engine.NewAnswerer()
	if err != nil {
		return fmt.Errorf("failed to create answerer: %w", err)
	}

	var result *core.GroundedAnswer
	if c.Bool("trace") {
		result, err = answerer.AskWithMonitor(ctx, question, answer.NewLogMonitor(slog.Default()))
	} else {
		result, err = answerer.Ask(ctx, question)
	}
	if err != nil {
		return fmt.Errorf("failed to answer: %w", err)
	}

	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(server.NewPromptResponse(result))
	}
	printAnswer(c.App.Writer, result)
	return nil
}

func printAnswer(w io.Writer, a *core.GroundedAnswer) {
	fmt.Fprintln(w, a.Response)
	if len(a.Talks) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Sources:")
	for i, t := range a.Talks {
		fmt.Fprintf(w, "%d. %s (talk %s) [%0.3f]\n", i+1, t.Title, t.RecordID, t.Score)
	}
}

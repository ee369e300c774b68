package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Serve the question answering API over HTTP",
		Action: serveAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address",
			},
		},
	}
}

func serveAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("addr") {
		cfg.Server.Addr = c.String("addr")
	}

	ctx, stop := signalContext()
	defer stop()

	engine, err := openEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	srv, err := engine.NewServer()
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Run(ctx, cfg.Server.Addr)
}

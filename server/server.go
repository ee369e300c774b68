// Package server exposes question answering over HTTP.
//
// Routes:
//
//	POST /api/prompt  {"question": "..."} -> grounded answer
//	GET  /api/stats   chunking and retrieval settings
//	GET  /healthz     liveness
//
// Every error is returned as {"error": ..., "details": ...}; stack traces
// never reach the client.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/poiesic/talkrag/answer"
	"github.com/poiesic/talkrag/core"
)

const (
	// MissingQuestion is the error text for an absent or blank question.
	MissingQuestion = `Missing "question"`

	// InternalError is the error text for every unexpected failure.
	InternalError = "Internal server error"

	requestIDHeader = "X-Request-ID"
	shutdownTimeout = 10 * time.Second
)

// Answerer answers a single question.
type Answerer interface {
	Ask(ctx context.Context, question string) (*core.GroundedAnswer, error)
}

// Server is the HTTP boundary of the query pipeline.
type Server struct {
	app      *fiber.App
	answerer Answerer
	stats    StatsResponse
	validate *validator.Validate
	logger   *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// New creates a server answering with answerer and reporting stats.
func New(answerer Answerer, stats StatsResponse, opts ...Option) (*Server, error) {
	if answerer == nil {
		return nil, errors.New("answerer required")
	}
	s := &Server{
		answerer: answerer,
		stats:    stats,
		validate: validator.New(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "http")

	s.app = fiber.New(fiber.Config{
		AppName:               "talkrag",
		DisableStartupMessage: true,
		BodyLimit:             1024 * 1024,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(s.requestLogger)
	s.app.Use(recover.New())

	s.app.Get("/healthz", s.health)
	api := s.app.Group("/api")
	api.Post("/prompt", s.prompt)
	api.Get("/stats", s.statsHandler)

	return s, nil
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- s.app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.app.ShutdownWithContext(shutdownCtx)
	}
}

func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	id := c.Get(requestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(requestIDHeader, id)
	c.Locals("request_id", id)

	err := c.Next()
	if err != nil {
		// Let the error handler set the status before it is logged.
		if herr := s.handleError(c, err); herr != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}

	s.logger.Info("request",
		"request_id", id,
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"latency", time.Since(start))
	return nil
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(ErrorResponse{Error: fe.Message})
	}
	s.logger.Error("request failed", "request_id", c.Locals("request_id"), "err", err)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   InternalError,
		Details: err.Error(),
	})
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) statsHandler(c *fiber.Ctx) error {
	return c.JSON(s.stats)
}

func (s *Server) prompt(c *fiber.Ctx) error {
	// The body is JSON whatever the Content-Type says. A question of the
	// wrong type counts as missing; unparseable JSON is a server error.
	var req PromptRequest
	if body := c.Body(); len(bytes.TrimSpace(body)) > 0 {
		err := s.app.Config().JSONDecoder(body, &req)
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: MissingQuestion})
		}
		if err != nil {
			return fmt.Errorf("parse request body: %w", err)
		}
	}
	req.Question = strings.TrimSpace(req.Question)
	if err := s.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: MissingQuestion})
	}

	result, err := s.answerer.Ask(c.UserContext(), req.Question)
	if errors.Is(err, answer.ErrEmptyQuestion) {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: MissingQuestion})
	}
	if err != nil {
		return err
	}
	return c.JSON(NewPromptResponse(result))
}

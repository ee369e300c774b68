package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/talkrag/ai"
	"github.com/poiesic/talkrag/core"
	"github.com/poiesic/talkrag/intent"
	"github.com/poiesic/talkrag/prompt"
	"github.com/poiesic/talkrag/retrieval"
	"github.com/poiesic/talkrag/retry"
	"github.com/poiesic/talkrag/storage"
)

// Answerer answers questions from the indexed corpus.
// It holds no per-request state and is safe for concurrent use.
type Answerer struct {
	embedder      ai.Embedder
	generator     ai.Generator
	classifier    *intent.Classifier
	retriever     *retrieval.Retriever
	retrievalOpts []retrieval.Option
	retry         retry.Policy
	logger        *slog.Logger
}

// Option configures an Answerer.
type Option func(*Answerer) error

// WithTopK sets how many chunks are retrieved per question.
// Default is retrieval.DefaultTopK.
func WithTopK(k int) Option {
	return func(a *Answerer) error {
		a.retrievalOpts = append(a.retrievalOpts, retrieval.WithTopK(k))
		return nil
	}
}

// WithMinScore drops matches scoring below score.
func WithMinScore(score float32) Option {
	return func(a *Answerer) error {
		a.retrievalOpts = append(a.retrievalOpts, retrieval.WithMinScore(score))
		return nil
	}
}

// WithRetry retries each outbound call under policy. Default is a single attempt.
func WithRetry(policy retry.Policy) Option {
	return func(a *Answerer) error {
		if policy.MaxAttempts < 1 {
			return retry.ErrInvalidMaxAttempts
		}
		a.retry = policy
		return nil
	}
}

// WithClassifier replaces the default intent rules.
func WithClassifier(c *intent.Classifier) Option {
	return func(a *Answerer) error {
		if c != nil {
			a.classifier = c
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Answerer) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// NewAnswerer creates a new answerer over index.
func NewAnswerer(index storage.VectorIndex, provider ai.AIProvider, opts ...Option) (*Answerer, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	a := &Answerer{
		embedder:   provider.Embedder(),
		generator:  provider.Generator(),
		classifier: intent.New(),
		retry:      retry.Once,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	r, err := retrieval.NewRetriever(index, append(a.retrievalOpts, retrieval.WithLogger(a.logger))...)
	if err != nil {
		return nil, err
	}
	a.retriever = r
	return a, nil
}

// TopK returns the number of chunks retrieved per question.
func (a *Answerer) TopK() int {
	return a.retriever.TopK()
}

// Ask answers question using only retrieved passages.
func (a *Answerer) Ask(ctx context.Context, question string) (*core.GroundedAnswer, error) {
	return a.AskWithMonitor(ctx, question, nil)
}

// AskWithMonitor answers question, reporting each stage to monitor.
// Collaborator errors are wrapped with the failing stage and no partial
// answer is returned.
func (a *Answerer) AskWithMonitor(ctx context.Context, question string, monitor Monitor) (*core.GroundedAnswer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(question)

	queryIntent := a.classifier.Classify(question)
	monitor.AfterClassification(queryIntent)

	var vector []float32
	err := a.retry.Do(ctx, func() error {
		v, err := a.embedder.EmbedText(ctx, question)
		vector = v
		return err
	})
	if err != nil {
		a.logger.Error("error embedding question", "err", err)
		return nil, fmt.Errorf("embed question: %w", err)
	}

	var matches []core.Match
	err = a.retry.Do(ctx, func() error {
		m, err := a.retriever.Retrieve(ctx, vector)
		matches = m
		return err
	})
	if err != nil {
		a.logger.Error("error querying index", "err", err)
		return nil, fmt.Errorf("query index: %w", err)
	}
	monitor.AfterRetrieval(matches)

	rc := retrieval.Deduplicate(matches)
	monitor.AfterDeduplication(rc)
	if rc.Dropped > 0 {
		a.logger.Warn("dropped matches with malformed metadata", "count", rc.Dropped)
	}

	if rc.Empty() {
		a.logger.Debug("no context retrieved, returning fallback", "intent", queryIntent)
		answer := Assemble(prompt.FallbackSentence, queryIntent, len(matches), rc, "", "")
		monitor.Finish(answer)
		return answer, nil
	}

	system, user := prompt.Compose(question, queryIntent, rc.Text)
	monitor.BeforeGeneration(system, user)

	var response string
	err = a.retry.Do(ctx, func() error {
		r, err := a.generator.Complete(ctx, system, user)
		response = r
		return err
	})
	if err != nil {
		a.logger.Error("error generating answer", "err", err)
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	answer := Assemble(strings.TrimSpace(response), queryIntent, len(matches), rc, system, user)
	a.logger.Debug("answered question", "intent", queryIntent,
		"matches", len(matches), "talks", len(rc.Talks))
	monitor.Finish(answer)
	return answer, nil
}

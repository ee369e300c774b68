package answer

import (
	"log/slog"

	"github.com/poiesic/talkrag/core"
)

// LogMonitor writes every stage to a logger at debug level.
type LogMonitor struct {
	logger *slog.Logger
}

var _ Monitor = (*LogMonitor)(nil)

// NewLogMonitor returns a monitor logging to logger, or slog.Default() when nil.
func NewLogMonitor(logger *slog.Logger) *LogMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMonitor{logger: logger.With("component", "answer-trace")}
}

func (m *LogMonitor) Start(question string) {
	m.logger.Debug("question received", "question", question)
}

func (m *LogMonitor) AfterClassification(intent core.QueryIntent) {
	m.logger.Debug("classified", "intent", intent)
}

func (m *LogMonitor) AfterRetrieval(matches []core.Match) {
	ids := make([]string, len(matches))
	for i, match := range matches {
		ids[i] = match.VectorID
	}
	m.logger.Debug("retrieved", "count", len(matches), "ids", ids)
}

func (m *LogMonitor) AfterDeduplication(rc *core.RetrievalContext) {
	m.logger.Debug("deduplicated", "valid", len(rc.Items), "talks", len(rc.Talks), "dropped", rc.Dropped)
}

func (m *LogMonitor) BeforeGeneration(systemPrompt, userPrompt string) {
	m.logger.Debug("generating", "system_len", len(systemPrompt), "user_len", len(userPrompt))
}

func (m *LogMonitor) Finish(answer *core.GroundedAnswer) {
	m.logger.Debug("answered", "intent", answer.Diagnostics.Intent, "response_len", len(answer.Response))
}

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


package openai

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/talkrag/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Generator implements ai.Generator using OpenAI-compatible chat APIs.
type Generator struct {
	client      llms.Model
	temperature float64
	logger      *slog.Logger
}

// newGenerator is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newGenerator(config *ai.Config) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.GenerationHost),
		openai.WithToken(config.APIKey),
		openai.WithModel(config.GenerationModel),
	)
	if err != nil {
		return nil, err
	}

	return newGeneratorWithModel(client, config.Temperature), nil
}

func newGeneratorWithModel(client llms.Model, temperature float64) *Generator {
	return &Generator{
		client:      client,
		temperature: temperature,
		logger:      slog.Default().With("component", "openai-generator"),
	}
}

// NewGenerator creates a new answer generator using the provided configuration.
//
// Returns ai.Generator interface to enforce abstraction.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	return newGenerator(config)
}

// Complete sends the system and user prompts as a two-message chat and
// returns the first choice with surrounding whitespace removed.
func (g *Generator) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(systemPrompt)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(userPrompt)},
		},
	}

	response, err := g.client.GenerateContent(ctx, content, llms.WithTemperature(g.temperature))
	if err != nil {
		g.logger.Error("failed to generate content", "err", err)
		return "", err
	}

	if len(response.Choices) < 1 {
		g.logger.Debug("no choices returned from model")
		return "", nil
	}

	answer := strings.TrimSpace(response.Choices[0].Content)
	g.logger.Debug("generated answer", "length", len(answer))
	return answer, nil
}

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


package ai

import (
	"errors"
	"strings"
)

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "https://api.openai.com/v1" or "http://localhost:11434/v1"
	EmbeddingHost string `toml:"embedding_host"`

	// GenerationHost is the base URL for the chat completion service API.
	GenerationHost string `toml:"generation_host"`

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "text-embedding-3-small", "embeddinggemma"
	EmbeddingModel string `toml:"embedding_model"`

	// GenerationModel is the model identifier used to answer questions.
	// Example: "gpt-4o-mini", "qwen2.5:3b"
	GenerationModel string `toml:"generation_model"`

	// APIKey is sent as the bearer token. Local OpenAI-compatible servers
	// ignore it, so "none" is accepted.
	APIKey string `toml:"-"`

	// Temperature is the sampling temperature for answer generation.
	// Default: 1
	Temperature float64 `toml:"temperature"`
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithGenerationHost sets the generation service host URL.
func WithGenerationHost(host string) ConfigOption {
	return func(c *Config) {
		c.GenerationHost = host
	}
}

// WithHost sets both embedding and generation hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.GenerationHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithGenerationModel sets the generation model identifier.
func WithGenerationModel(model string) ConfigOption {
	return func(c *Config) {
		c.GenerationModel = model
	}
}

// WithAPIKey sets the API key used for both services.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithTemperature sets the sampling temperature for generation.
func WithTemperature(t float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = t
	}
}

// DefaultConfig returns a Config with sensible defaults for a local OpenAI-compatible service.
// By default, both embedding and generation use the same host.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		EmbeddingHost:   defaultHost,
		GenerationHost:  defaultHost,
		EmbeddingModel:  "embeddinggemma",
		GenerationModel: "qwen2.5:3b",
		APIKey:          "none",
		Temperature:     1,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//   cfg := NewConfig(
//       WithHost("https://api.openai.com/v1"),
//       WithEmbeddingModel("text-embedding-3-small"),
//       WithGenerationModel("gpt-4o-mini"),
//   )
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to hosts if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	c.EmbeddingHost = withVersionSuffix(c.EmbeddingHost)
	c.GenerationHost = withVersionSuffix(c.GenerationHost)
	if c.APIKey == "" {
		c.APIKey = "none"
	}
}

func withVersionSuffix(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate checks that the configuration is valid and complete.
// It normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.GenerationHost == "" {
		return errors.New("ai config: GenerationHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.GenerationModel == "" {
		return errors.New("ai config: GenerationModel is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.New("ai config: Temperature must be between 0 and 2")
	}
	return nil
}

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


package mock

import "github.com/poiesic/talkrag/ai"

// MockModelName is the embedding model reported by MockProvider.
const MockModelName = "mock-embedding"

// MockProvider is a test double for ai.AIProvider.
// It aggregates mock embedder and generator instances.
type MockProvider struct {
	embedder  *MockEmbedder
	generator *MockGenerator
	model     string
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.AIProvider interface for consistency with production constructors.
// Use GetMockEmbedder()/GetMockGenerator() to access concrete types for test assertions.
func NewMockProvider() ai.AIProvider {
	return NewMockProviderWithServices(NewMockEmbedder(), NewMockGenerator())
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
func NewMockProviderWithServices(embedder *MockEmbedder, generator *MockGenerator) *MockProvider {
	return &MockProvider{
		embedder:  embedder,
		generator: generator,
		model:     MockModelName,
	}
}

// WithModel changes the reported embedding model name.
func (p *MockProvider) WithModel(model string) *MockProvider {
	p.model = model
	return p
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// Generator returns the mock generator.
func (p *MockProvider) Generator() ai.Generator {
	return p.generator
}

// EmbeddingModel returns the reported embedding model name.
func (p *MockProvider) EmbeddingModel() string {
	return p.model
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockGenerator returns the underlying mock generator for test assertions.
func (p *MockProvider) GetMockGenerator() *MockGenerator {
	return p.generator
}

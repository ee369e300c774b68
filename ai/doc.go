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


// Package ai provides abstractions for the AI services talkrag depends on.
//
// Two capabilities are needed: turning text into vectors (Embedder) and
// turning a system prompt plus a user prompt into an answer (Generator).
// AIProvider bundles both so they share one Config and one lifecycle.
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, etc.) return
// INTERFACE types. Test constructors (mock.NewMockEmbedder,
// mock.NewMockGenerator) return CONCRETE types so tests can inject behavior
// and read call counts.
//
//	provider, err := openai.NewProvider(config)  // returns ai.AIProvider
//
//	gen := mock.NewMockGenerator()  // returns *mock.MockGenerator
//	gen.CompleteFunc = ...
//	count := gen.CallCount()
//
// # Usage Example
//
//	provider, err := openai.NewProvider(ai.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "Who talked about schools and creativity?")
//	answer, err := provider.Generator().Complete(ctx, system, user)
package ai

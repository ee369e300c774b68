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


// Package answer produces grounded answers to questions about the talk corpus.
//
// An Answerer runs the query pipeline in order:
//   - classify the question's intent
//   - embed the question and retrieve the nearest chunks
//   - deduplicate matches into a labeled context
//   - compose intent-specific prompts and call the generator
//
// When no usable passage is retrieved the generator is not called and the
// fixed fallback sentence is returned with an empty context.
package answer

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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidRecord indicates a CorpusRecord failed validation.
	ErrInvalidRecord = errors.New("invalid corpus record")

	// ErrInvalidEntry indicates an IndexEntry failed validation.
	ErrInvalidEntry = errors.New("invalid index entry")

	// ErrEmptyRecordID indicates the record identifier is empty.
	ErrEmptyRecordID = errors.New("record id cannot be empty")

	// ErrEmptyChunkText indicates a chunk carries no text.
	ErrEmptyChunkText = errors.New("chunk text cannot be empty")

	// ErrNegativeChunkIndex indicates a chunk index below zero.
	ErrNegativeChunkIndex = errors.New("chunk index cannot be negative")

	// ErrEmptyVector indicates an entry has no embedding.
	ErrEmptyVector = errors.New("vector cannot be empty")

	// ErrInvalidIntent indicates a string is not a known QueryIntent.
	ErrInvalidIntent = errors.New("invalid query intent")
)

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

import "fmt"

// ValidateRecord validates a CorpusRecord according to domain rules.
//
// Validation rules:
//   - RecordID must not be empty
//
// Title, speaker, description and transcript may all be empty; the record
// still produces a document from its labels.
func ValidateRecord(record *CorpusRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}
	if record.RecordID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyRecordID)
	}
	return nil
}

// ValidateEntry validates an IndexEntry before it is written.
//
// Validation rules:
//   - RecordID must not be empty
//   - ChunkIndex must not be negative
//   - ChunkText must not be empty
//   - Vector must not be empty
//   - ID must equal VectorID(RecordID, ChunkIndex)
func ValidateEntry(entry *IndexEntry) error {
	if entry == nil {
		return fmt.Errorf("%w: entry is nil", ErrInvalidEntry)
	}
	if entry.RecordID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrEmptyRecordID)
	}
	if entry.ChunkIndex < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrNegativeChunkIndex)
	}
	if entry.ChunkText == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrEmptyChunkText)
	}
	if len(entry.Vector) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrEmptyVector)
	}
	if want := VectorID(entry.RecordID, entry.ChunkIndex); entry.ID != want {
		return fmt.Errorf("%w: id %q does not match %q", ErrInvalidEntry, entry.ID, want)
	}
	return nil
}

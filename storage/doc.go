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



// Package storage defines the persistence contracts for indexed talk chunks
// and job checkpoints.
//
// Two backends implement them:
//
//   - storage/badger: an embedded BadgerDB store with an exhaustive cosine
//     scan. No external services; suited to a single process.
//   - storage/pgvector: PostgreSQL with the pgvector extension through GORM.
//     Similarity is computed by the database.
//
// Entries are keyed by vector ID ("<record_id>-<chunk_index>"), so writing
// the same chunk twice replaces it. Every method takes a context.Context;
// implementations must be safe for concurrent use.
//
// The binary codec used by the badger backend lives in serialization.go.
package storage

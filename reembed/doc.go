// Package reembed re-embeds every stored chunk with the configured
// embedding model.
//
// Entries are read from the index in (record id, chunk index) order in
// fixed-size batches. Each batch is embedded in one call, retried with
// exponential backoff, and written back with the new model name so later
// ingestion runs treat the chunks as current. Chunk ids, texts and
// metadata are never changed.
package reembed

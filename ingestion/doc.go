// Package ingestion turns corpus records into index entries.
//
// The Pipeline chunks every record, then hands each chunk to a bounded
// worker pool. A worker skips chunks whose stored fingerprint and model
// already match, otherwise it embeds the chunk under a shared rate limiter
// and upserts it, retrying each step with backoff. When all chunks of a
// record have landed, entries beyond the record's current chunk count are
// pruned and the checkpoint advances to the longest fully ingested prefix
// of the input, so an interrupted run resumes where it stopped.
package ingestion

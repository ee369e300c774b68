// Package chunking splits documents into overlapping word windows.
//
// Ingestion and diagnostics share one Chunker configuration so chunk
// identities stay stable between runs: the same text with the same window
// size and overlap ratio always yields the same chunk sequence.
//
//	c, err := chunking.New(chunking.WithWindowSize(1024), chunking.WithOverlapRatio(0.2))
//	chunks := c.ChunkRecord(record) // []core.Chunk with indexes 0..n-1
package chunking

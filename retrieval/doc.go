// Package retrieval turns a query vector into the passages handed to the
// generator.
//
// A Retriever asks the vector index for the nearest chunks. Deduplicate then
// drops matches with unusable metadata, collapses repeated talks into one
// UniqueTalk each and renders the labeled context text in retrieval order.
package retrieval

package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested chunk or book was not found
	ErrNotFound = errors.New("not found")

	// ErrMissingEmbedding indicates a chunk was submitted for indexing without an embedding
	ErrMissingEmbedding = errors.New("missing embedding")

	// ErrDimensionMismatch indicates an embedding does not match the collection's dimensionality
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmbeddingUnavailable indicates the embedding service failed after all retries
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrGenerationUnavailable indicates the generation service failed after all retries
	ErrGenerationUnavailable = errors.New("generation service unavailable")

	// ErrInvalidFilter indicates a malformed metadata filter
	ErrInvalidFilter = errors.New("invalid metadata filter")

	// ErrRetrievalFailed is the user-facing category for any failure before generation
	ErrRetrievalFailed = errors.New("retrieval failed")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrCollectionExists indicates a collection already exists with a different distance function
	ErrCollectionExists = errors.New("collection exists with different distance function")
)

package driven

import (
	"context"

	"github.com/Shamas245/book-rag-chatbot/internal/core/domain"
)

// DefaultAddBatchSize is how many chunks AddDocuments commits per batch
const DefaultAddBatchSize = 100

// VectorIndex stores chunk vectors in per-identity collections and
// answers nearest-neighbour queries under the collection's distance
// function. Each collection is isolated: a query never crosses
// collection boundaries.
type VectorIndex interface {
	// EnsureCollection creates the named collection with the given
	// distance function if it does not exist. Re-ensuring with a
	// different distance function fails with ErrCollectionExists.
	EnsureCollection(ctx context.Context, collection string, distance domain.DistanceFunc) error

	// AddDocuments stores chunks in fixed-size batches, preserving
	// input order in the returned ids. Chunks without an ID get a
	// generated one. A chunk without an embedding aborts its whole
	// batch with ErrMissingEmbedding; batches already committed stay.
	// Embedding dimensionality must match the collection's established
	// dimensionality (ErrDimensionMismatch).
	AddDocuments(ctx context.Context, collection string, chunks []*domain.Chunk, batchSize int) ([]string, error)

	// QueryByVector returns at most n matches ordered by ascending
	// distance, ties broken by insertion order. Filters are a
	// conjunction validated up front (ErrInvalidFilter).
	QueryByVector(ctx context.Context, collection string, vector []float32, n int, filters []domain.Filter) ([]domain.QueryMatch, error)

	// QueryByText embeds text through the given embedder and delegates
	// to QueryByVector
	QueryByText(ctx context.Context, collection, text string, embedder EmbeddingService, n int, filters []domain.Filter) ([]domain.QueryMatch, error)

	// GetByID retrieves a stored chunk, or ErrNotFound
	GetByID(ctx context.Context, collection, id string) (*domain.Chunk, error)

	// Delete removes the listed chunks. Unknown ids are ignored;
	// deletion is idempotent.
	Delete(ctx context.Context, collection string, ids []string) error

	// DeleteBySource removes every chunk whose source_id metadata
	// matches
	DeleteBySource(ctx context.Context, collection, sourceID string) error

	// Count returns the number of chunks in the collection
	Count(ctx context.Context, collection string) (int, error)

	// Clear removes all chunks from the collection. Irreversible.
	Clear(ctx context.Context, collection string) error

	// ListCollections names all known collections
	ListCollections(ctx context.Context) ([]string, error)

	// Close releases the underlying store
	Close() error
}

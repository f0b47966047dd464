// Package memory provides in-memory driven adapters, used when no
// data directory is configured. Contents are lost on restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Shamas245/book-rag-chatbot/internal/core/domain"
	"github.com/Shamas245/book-rag-chatbot/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex implements driven.VectorIndex with brute-force scans
// over in-memory collections
type VectorIndex struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

type collection struct {
	distance   domain.DistanceFunc
	dimensions int
	order      []string // insertion order, the tie-break for equal distances
	chunks     map[string]*domain.Chunk
}

// NewVectorIndex creates an empty in-memory vector index
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{collections: make(map[string]*collection)}
}

// EnsureCollection creates the collection if absent. An existing
// collection keeps its distance function; asking for a different one
// fails.
func (v *VectorIndex) EnsureCollection(_ context.Context, name string, distance domain.DistanceFunc) error {
	if name == "" {
		return fmt.Errorf("%w: empty collection name", domain.ErrInvalidInput)
	}
	if _, err := domain.ParseDistanceFunc(string(distance)); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	existing, ok := v.collections[name]
	if !ok {
		v.collections[name] = &collection{
			distance: distance,
			chunks:   make(map[string]*domain.Chunk),
		}
		return nil
	}
	if existing.distance != distance {
		return fmt.Errorf("%w: %s is %s", domain.ErrCollectionExists, name, existing.distance)
	}
	return nil
}

// AddDocuments stores chunks batch by batch. A structural error aborts
// the offending batch; batches committed before it stay.
func (v *VectorIndex) AddDocuments(ctx context.Context, name string, chunks []*domain.Chunk, batchSize int) ([]string, error) {
	if batchSize <= 0 {
		batchSize = driven.DefaultAddBatchSize
	}

	ids := make([]string, 0, len(chunks))
	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batchIDs, err := v.addBatch(name, chunks[start:end])
		if err != nil {
			return ids, err
		}
		ids = append(ids, batchIDs...)
	}
	return ids, nil
}

func (v *VectorIndex) addBatch(name string, batch []*domain.Chunk) ([]string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	coll, err := v.collection(name)
	if err != nil {
		return nil, err
	}

	// Validate the whole batch before touching the collection
	dims := coll.dimensions
	for i, chunk := range batch {
		if chunk.Text == "" {
			return nil, fmt.Errorf("%w: chunk %d has empty text", domain.ErrInvalidInput, i)
		}
		if len(chunk.Embedding) == 0 {
			return nil, fmt.Errorf("%w: chunk %d (id %q)", domain.ErrMissingEmbedding, i, chunk.ID)
		}
		if dims == 0 {
			dims = len(chunk.Embedding)
		} else if len(chunk.Embedding) != dims {
			return nil, fmt.Errorf("%w: chunk %d has %d dimensions, collection has %d",
				domain.ErrDimensionMismatch, i, len(chunk.Embedding), dims)
		}
	}
	coll.dimensions = dims

	ids := make([]string, 0, len(batch))
	for _, chunk := range batch {
		stored := copyChunk(chunk)
		if stored.ID == "" {
			stored.ID = uuid.New().String()
		}
		if stored.CreatedAt.IsZero() {
			stored.CreatedAt = time.Now().UTC()
		}
		if _, exists := coll.chunks[stored.ID]; !exists {
			coll.order = append(coll.order, stored.ID)
		}
		coll.chunks[stored.ID] = stored
		ids = append(ids, stored.ID)
	}
	return ids, nil
}

// QueryByVector scans the collection and returns the n nearest chunks
func (v *VectorIndex) QueryByVector(_ context.Context, name string, vector []float32, n int, filters []domain.Filter) ([]domain.QueryMatch, error) {
	if err := domain.ValidateFilters(filters); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	coll, err := v.collection(name)
	if err != nil {
		return nil, err
	}

	var matches []domain.QueryMatch
	for _, id := range coll.order {
		chunk := coll.chunks[id]
		if !domain.MatchesAll(filters, chunk.Metadata) {
			continue
		}
		dist, err := coll.distance.Between(vector, chunk.Embedding)
		if err != nil {
			return nil, err
		}
		matches = append(matches, domain.QueryMatch{
			ChunkID:  chunk.ID,
			Text:     chunk.Text,
			Metadata: copyMeta(chunk.Metadata),
			Distance: dist,
		})
	}

	// Stable keeps insertion order for equal distances
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })
	if len(matches) > n {
		matches = matches[:n]
	}
	return matches, nil
}

// QueryByText embeds the text and delegates to QueryByVector
func (v *VectorIndex) QueryByText(ctx context.Context, name, text string, embedder driven.EmbeddingService, n int, filters []domain.Filter) ([]domain.QueryMatch, error) {
	if embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	vector, err := embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	return v.QueryByVector(ctx, name, vector, n, filters)
}

// GetByID retrieves a stored chunk
func (v *VectorIndex) GetByID(_ context.Context, name, id string) (*domain.Chunk, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	coll, err := v.collection(name)
	if err != nil {
		return nil, err
	}
	chunk, ok := coll.chunks[id]
	if !ok {
		return nil, fmt.Errorf("%w: chunk %q", domain.ErrNotFound, id)
	}
	return copyChunk(chunk), nil
}

// Delete removes the listed chunks; unknown ids are ignored
func (v *VectorIndex) Delete(_ context.Context, name string, ids []string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	coll, err := v.collection(name)
	if err != nil {
		return err
	}
	removed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := coll.chunks[id]; ok {
			delete(coll.chunks, id)
			removed[id] = struct{}{}
		}
	}
	if len(removed) > 0 {
		coll.order = pruneOrder(coll.order, removed)
	}
	return nil
}

// DeleteBySource removes every chunk with matching source_id metadata
func (v *VectorIndex) DeleteBySource(_ context.Context, name, sourceID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	coll, err := v.collection(name)
	if err != nil {
		return err
	}
	removed := make(map[string]struct{})
	for id, chunk := range coll.chunks {
		if chunk.SourceID() == sourceID {
			delete(coll.chunks, id)
			removed[id] = struct{}{}
		}
	}
	if len(removed) > 0 {
		coll.order = pruneOrder(coll.order, removed)
	}
	return nil
}

// Count returns the number of stored chunks
func (v *VectorIndex) Count(_ context.Context, name string) (int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	coll, err := v.collection(name)
	if err != nil {
		return 0, err
	}
	return len(coll.chunks), nil
}

// Clear removes all chunks from the collection
func (v *VectorIndex) Clear(_ context.Context, name string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	coll, err := v.collection(name)
	if err != nil {
		return err
	}
	coll.chunks = make(map[string]*domain.Chunk)
	coll.order = nil
	coll.dimensions = 0
	return nil
}

// ListCollections names all known collections, sorted
func (v *VectorIndex) ListCollections(_ context.Context) ([]string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	names := make([]string, 0, len(v.collections))
	for name := range v.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Close is a no-op for the in-memory index
func (v *VectorIndex) Close() error {
	return nil
}

// collection looks up a collection; callers hold the lock
func (v *VectorIndex) collection(name string) (*collection, error) {
	coll, ok := v.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: collection %q", domain.ErrNotFound, name)
	}
	return coll, nil
}

func pruneOrder(order []string, removed map[string]struct{}) []string {
	kept := order[:0]
	for _, id := range order {
		if _, gone := removed[id]; !gone {
			kept = append(kept, id)
		}
	}
	return kept
}

func copyChunk(chunk *domain.Chunk) *domain.Chunk {
	copied := &domain.Chunk{
		ID:        chunk.ID,
		Text:      chunk.Text,
		Metadata:  copyMeta(chunk.Metadata),
		CreatedAt: chunk.CreatedAt,
	}
	if chunk.Embedding != nil {
		copied.Embedding = make([]float32, len(chunk.Embedding))
		copy(copied.Embedding, chunk.Embedding)
	}
	return copied
}

func copyMeta(meta map[string]string) map[string]string {
	if meta == nil {
		return nil
	}
	copied := make(map[string]string, len(meta))
	for k, v := range meta {
		copied[k] = v
	}
	return copied
}

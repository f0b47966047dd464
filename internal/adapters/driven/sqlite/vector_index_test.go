package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Shamas245/book-rag-chatbot/internal/core/domain"
)

func setupIndex(t *testing.T) (*VectorIndex, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	idx := NewVectorIndex(store)
	require.NoError(t, idx.EnsureCollection(context.Background(), "user_alice", domain.DistanceCosine))
	return idx, dir
}

func TestVectorIndex_AddAndQuery(t *testing.T) {
	idx, _ := setupIndex(t)
	ctx := context.Background()

	ids, err := idx.AddDocuments(ctx, "user_alice", []*domain.Chunk{
		{ID: "a", Text: "The sky is blue.", Metadata: map[string]string{domain.MetaSourceID: "bookX", domain.MetaPage: "1"}, Embedding: []float32{1, 0.1}},
		{ID: "b", Text: "Grass is green.", Metadata: map[string]string{domain.MetaSourceID: "bookX", domain.MetaPage: "2"}, Embedding: []float32{0.1, 1}},
	}, 100)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, ids)

	matches, err := idx.QueryByVector(ctx, "user_alice", []float32{1, 0}, 1, nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "a", matches[0].ChunkID)

	all, err := idx.QueryByVector(ctx, "user_alice", []float32{1, 0}, 10, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Less(t, all[0].Distance, all[1].Distance)
}

func TestVectorIndex_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir)
	require.NoError(t, err)
	idx := NewVectorIndex(store)
	require.NoError(t, idx.EnsureCollection(ctx, "user_alice", domain.DistanceL2))
	_, err = idx.AddDocuments(ctx, "user_alice", []*domain.Chunk{
		{ID: "a", Text: "survives restart", Metadata: map[string]string{domain.MetaSourceID: "bookX"}, Embedding: []float32{1, 2, 3}},
	}, 100)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()
	idx2 := NewVectorIndex(reopened)

	count, err := idx2.Count(ctx, "user_alice")
	require.NoError(t, err)
	require.Equal(t, 1, count)

	chunk, err := idx2.GetByID(ctx, "user_alice", "a")
	require.NoError(t, err)
	require.Equal(t, "survives restart", chunk.Text)
	require.Equal(t, []float32{1, 2, 3}, chunk.Embedding)

	// Distance function and dimensionality also survive
	require.ErrorIs(t, idx2.EnsureCollection(ctx, "user_alice", domain.DistanceCosine), domain.ErrCollectionExists)
	_, err = idx2.AddDocuments(ctx, "user_alice", []*domain.Chunk{
		{ID: "b", Text: "wrong dims", Embedding: []float32{1, 2}},
	}, 100)
	require.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestVectorIndex_OverwriteKeepsCount(t *testing.T) {
	idx, _ := setupIndex(t)
	ctx := context.Background()

	_, err := idx.AddDocuments(ctx, "user_alice", []*domain.Chunk{
		{ID: "a", Text: "first", Embedding: []float32{1, 0}},
	}, 100)
	require.NoError(t, err)
	_, err = idx.AddDocuments(ctx, "user_alice", []*domain.Chunk{
		{ID: "a", Text: "second", Embedding: []float32{0, 1}},
	}, 100)
	require.NoError(t, err)

	count, err := idx.Count(ctx, "user_alice")
	require.NoError(t, err)
	require.Equal(t, 1, count)

	chunk, err := idx.GetByID(ctx, "user_alice", "a")
	require.NoError(t, err)
	require.Equal(t, "second", chunk.Text)
}

func TestVectorIndex_MissingEmbeddingRollsBackBatch(t *testing.T) {
	idx, _ := setupIndex(t)
	ctx := context.Background()

	_, err := idx.AddDocuments(ctx, "user_alice", []*domain.Chunk{
		{ID: "a", Text: "ok", Embedding: []float32{1, 0}},
		{ID: "b", Text: "broken"},
	}, 100)
	require.ErrorIs(t, err, domain.ErrMissingEmbedding)

	count, err := idx.Count(ctx, "user_alice")
	require.NoError(t, err)
	require.Equal(t, 0, count)
}

func TestVectorIndex_FilterAndDeleteBySource(t *testing.T) {
	idx, _ := setupIndex(t)
	ctx := context.Background()

	_, err := idx.AddDocuments(ctx, "user_alice", []*domain.Chunk{
		{ID: "x1", Text: "from X", Metadata: map[string]string{domain.MetaSourceID: "bookX"}, Embedding: []float32{1, 0}},
		{ID: "y1", Text: "from Y", Metadata: map[string]string{domain.MetaSourceID: "bookY"}, Embedding: []float32{0, 1}},
	}, 100)
	require.NoError(t, err)

	matches, err := idx.QueryByVector(ctx, "user_alice", []float32{1, 0}, 10, []domain.Filter{
		domain.SourceFilter([]string{"bookY"}),
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "y1", matches[0].ChunkID)

	// Filter excluding everything is an empty result, not an error
	none, err := idx.QueryByVector(ctx, "user_alice", []float32{1, 0}, 10, []domain.Filter{
		domain.SourceFilter([]string{"bookZ"}),
	})
	require.NoError(t, err)
	require.Empty(t, none)

	require.NoError(t, idx.DeleteBySource(ctx, "user_alice", "bookX"))
	count, err := idx.Count(ctx, "user_alice")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestVectorIndex_DeleteIdempotent(t *testing.T) {
	idx, _ := setupIndex(t)
	ctx := context.Background()

	_, err := idx.AddDocuments(ctx, "user_alice", []*domain.Chunk{
		{ID: "a", Text: "one", Embedding: []float32{1, 0}},
	}, 100)
	require.NoError(t, err)

	require.NoError(t, idx.Delete(ctx, "user_alice", []string{"a", "a", "ghost"}))
	require.NoError(t, idx.Delete(ctx, "user_alice", []string{"a"}))
	require.NoError(t, idx.Delete(ctx, "user_alice", nil))

	count, err := idx.Count(ctx, "user_alice")
	require.NoError(t, err)
	require.Equal(t, 0, count)
}

func TestVectorIndex_ClearResetsDimensions(t *testing.T) {
	idx, _ := setupIndex(t)
	ctx := context.Background()

	_, err := idx.AddDocuments(ctx, "user_alice", []*domain.Chunk{
		{ID: "a", Text: "two dims", Embedding: []float32{1, 0}},
	}, 100)
	require.NoError(t, err)

	require.NoError(t, idx.Clear(ctx, "user_alice"))

	_, err = idx.AddDocuments(ctx, "user_alice", []*domain.Chunk{
		{ID: "b", Text: "three dims now", Embedding: []float32{1, 0, 0}},
	}, 100)
	require.NoError(t, err)
}

func TestVectorIndex_ListCollections(t *testing.T) {
	idx, _ := setupIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.EnsureCollection(ctx, "user_bob", domain.DistanceDot))

	names, err := idx.ListCollections(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"user_alice", "user_bob"}, names)
}

func TestEncodeDecodeEmbedding(t *testing.T) {
	vec := []float32{0.5, -1.25, 3e8, 0}
	decoded, err := decodeEmbedding(encodeEmbedding(vec))
	require.NoError(t, err)
	require.Equal(t, vec, decoded)

	empty, err := decodeEmbedding(nil)
	require.NoError(t, err)
	require.Nil(t, empty)

	_, err = decodeEmbedding([]byte{1, 2, 3})
	require.Error(t, err)
}

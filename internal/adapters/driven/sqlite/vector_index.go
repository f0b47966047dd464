package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Shamas245/book-rag-chatbot/internal/core/domain"
	"github.com/Shamas245/book-rag-chatbot/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex implements driven.VectorIndex on the shared SQLite
// store. Similarity search is a brute-force scan: embeddings are
// decoded and ranked in Go under the collection's distance function.
type VectorIndex struct {
	store *Store
}

// NewVectorIndex creates a VectorIndex backed by the store
func NewVectorIndex(store *Store) *VectorIndex {
	return &VectorIndex{store: store}
}

// EnsureCollection creates the named collection if absent
func (v *VectorIndex) EnsureCollection(ctx context.Context, name string, distance domain.DistanceFunc) error {
	if name == "" {
		return fmt.Errorf("%w: empty collection name", domain.ErrInvalidInput)
	}
	if _, err := domain.ParseDistanceFunc(string(distance)); err != nil {
		return err
	}

	existing, _, err := v.collectionInfo(ctx, name)
	if err == nil {
		if existing != distance {
			return fmt.Errorf("%w: %s is %s", domain.ErrCollectionExists, name, existing)
		}
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	_, err = v.store.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO collections (name, distance) VALUES (?, ?)`,
		name, string(distance))
	return err
}

// AddDocuments stores chunks batch by batch inside per-batch
// transactions; a structural error rolls back only its batch.
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
		batchIDs, err := v.addBatch(ctx, name, chunks[start:end])
		if err != nil {
			return ids, err
		}
		ids = append(ids, batchIDs...)
	}
	return ids, nil
}

func (v *VectorIndex) addBatch(ctx context.Context, name string, batch []*domain.Chunk) ([]string, error) {
	_, dims, err := v.collectionInfo(ctx, name)
	if err != nil {
		return nil, err
	}

	// Validate the whole batch before writing anything
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

	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (collection, id, text, metadata, embedding, seq, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET
			text = excluded.text,
			metadata = excluded.metadata,
			embedding = excluded.embedding
	`)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	ids := make([]string, 0, len(batch))
	for _, chunk := range batch {
		id := chunk.ID
		if id == "" {
			id = uuid.New().String()
		}
		meta, err := json.Marshal(orEmptyMeta(chunk.Metadata))
		if err != nil {
			return nil, fmt.Errorf("encoding metadata: %w", err)
		}
		createdAt := chunk.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		if _, err := stmt.ExecContext(ctx, name, id, chunk.Text, string(meta),
			encodeEmbedding(chunk.Embedding), v.store.nextSeq(), createdAt); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE collections SET dimensions = ? WHERE name = ? AND dimensions = 0`,
		dims, name); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

// QueryByVector scans the collection and ranks chunks in Go
func (v *VectorIndex) QueryByVector(ctx context.Context, name string, vector []float32, n int, filters []domain.Filter) ([]domain.QueryMatch, error) {
	if err := domain.ValidateFilters(filters); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}

	distance, _, err := v.collectionInfo(ctx, name)
	if err != nil {
		return nil, err
	}

	rows, err := v.store.db.QueryContext(ctx,
		`SELECT id, text, metadata, embedding FROM chunks WHERE collection = ? ORDER BY seq ASC`,
		name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []domain.QueryMatch
	for rows.Next() {
		var (
			id, text, metaJSON string
			blob               []byte
		)
		if err := rows.Scan(&id, &text, &metaJSON, &blob); err != nil {
			return nil, err
		}

		var meta map[string]string
		if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
			return nil, fmt.Errorf("decoding metadata for chunk %s: %w", id, err)
		}
		if !domain.MatchesAll(filters, meta) {
			continue
		}

		embedding, err := decodeEmbedding(blob)
		if err != nil {
			return nil, err
		}
		dist, err := distance.Between(vector, embedding)
		if err != nil {
			return nil, err
		}
		matches = append(matches, domain.QueryMatch{
			ChunkID:  id,
			Text:     text,
			Metadata: meta,
			Distance: dist,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Scan order is insertion order, so a stable sort keeps it as the
	// tie-break
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
func (v *VectorIndex) GetByID(ctx context.Context, name, id string) (*domain.Chunk, error) {
	row := v.store.db.QueryRowContext(ctx,
		`SELECT id, text, metadata, embedding, created_at FROM chunks WHERE collection = ? AND id = ?`,
		name, id)

	var (
		chunk     domain.Chunk
		metaJSON  string
		blob      []byte
		createdAt time.Time
	)
	err := row.Scan(&chunk.ID, &chunk.Text, &metaJSON, &blob, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: chunk %q", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(metaJSON), &chunk.Metadata); err != nil {
		return nil, fmt.Errorf("decoding metadata for chunk %s: %w", id, err)
	}
	if chunk.Embedding, err = decodeEmbedding(blob); err != nil {
		return nil, err
	}
	chunk.CreatedAt = createdAt
	return &chunk, nil
}

// Delete removes the listed chunks; unknown ids are ignored
func (v *VectorIndex) Delete(ctx context.Context, name string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(ids)+1)
	args = append(args, name)
	for _, id := range ids {
		args = append(args, id)
	}

	_, err := v.store.db.ExecContext(ctx,
		`DELETE FROM chunks WHERE collection = ? AND id IN (`+placeholders+`)`, args...)
	return err
}

// DeleteBySource removes every chunk with matching source_id metadata
func (v *VectorIndex) DeleteBySource(ctx context.Context, name, sourceID string) error {
	_, err := v.store.db.ExecContext(ctx,
		`DELETE FROM chunks WHERE collection = ? AND json_extract(metadata, '$.source_id') = ?`,
		name, sourceID)
	return err
}

// Count returns the number of stored chunks
func (v *VectorIndex) Count(ctx context.Context, name string) (int, error) {
	if _, _, err := v.collectionInfo(ctx, name); err != nil {
		return 0, err
	}
	var count int
	row := v.store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chunks WHERE collection = ?`, name)
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// Clear removes all chunks and resets the collection's dimensionality
func (v *VectorIndex) Clear(ctx context.Context, name string) error {
	if _, _, err := v.collectionInfo(ctx, name); err != nil {
		return err
	}
	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE collection = ?`, name); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE collections SET dimensions = 0 WHERE name = ?`, name); err != nil {
		return err
	}
	return tx.Commit()
}

// ListCollections names all known collections, sorted
func (v *VectorIndex) ListCollections(ctx context.Context) ([]string, error) {
	rows, err := v.store.db.QueryContext(ctx, `SELECT name FROM collections ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Close closes the underlying store
func (v *VectorIndex) Close() error {
	return v.store.Close()
}

// collectionInfo loads a collection's distance function and
// established dimensionality
func (v *VectorIndex) collectionInfo(ctx context.Context, name string) (domain.DistanceFunc, int, error) {
	row := v.store.db.QueryRowContext(ctx,
		`SELECT distance, dimensions FROM collections WHERE name = ?`, name)

	var (
		distance string
		dims     int
	)
	err := row.Scan(&distance, &dims)
	if errors.Is(err, sql.ErrNoRows) {
		return "", 0, fmt.Errorf("%w: collection %q", domain.ErrNotFound, name)
	}
	if err != nil {
		return "", 0, err
	}
	return domain.DistanceFunc(distance), dims, nil
}

func orEmptyMeta(meta map[string]string) map[string]string {
	if meta == nil {
		return map[string]string{}
	}
	return meta
}

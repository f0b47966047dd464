package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/Shamas245/book-rag-chatbot/internal/core/domain"
	"github.com/Shamas245/book-rag-chatbot/internal/core/ports/driven"
)

// CollectionRegistry maps user identities onto vector index
// collections. Each user gets a dedicated collection so retrieval
// never crosses identities.
type CollectionRegistry struct {
	index    driven.VectorIndex
	distance domain.DistanceFunc
}

// NewCollectionRegistry creates a registry creating collections with
// the given distance function
func NewCollectionRegistry(index driven.VectorIndex, distance domain.DistanceFunc) *CollectionRegistry {
	return &CollectionRegistry{
		index:    index,
		distance: distance,
	}
}

// CollectionFor returns the collection name for a user, creating the
// collection on first use
func (r *CollectionRegistry) CollectionFor(ctx context.Context, userID string) (string, error) {
	name, err := collectionName(userID)
	if err != nil {
		return "", err
	}

	if err := r.index.EnsureCollection(ctx, name, r.distance); err != nil {
		return "", fmt.Errorf("ensuring collection %s: %w", name, err)
	}
	return name, nil
}

// collectionName derives a storage-safe collection name from a user
// identity. Letters and digits pass through lowercased, everything
// else becomes an underscore.
func collectionName(userID string) (string, error) {
	trimmed := strings.TrimSpace(userID)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty user id", domain.ErrInvalidInput)
	}

	var sb strings.Builder
	sb.WriteString("user_")
	for _, r := range strings.ToLower(trimmed) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String(), nil
}

package driven

import (
	"context"

	"github.com/Shamas245/book-rag-chatbot/internal/core/domain"
)

// BookStore is the registry of processed sources per user, keyed by
// content hash so re-uploads are detected.
type BookStore interface {
	// Save creates or updates a book entry
	Save(ctx context.Context, book *domain.Book) error

	// Get retrieves a user's book by id, or ErrNotFound
	Get(ctx context.Context, userID, id string) (*domain.Book, error)

	// ListByUser returns all books for a user, oldest first
	ListByUser(ctx context.Context, userID string) ([]*domain.Book, error)

	// Delete removes a book entry. Deleting an unknown id is a no-op.
	Delete(ctx context.Context, userID, id string) error
}

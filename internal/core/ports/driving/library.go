package driving

import (
	"context"

	"github.com/Shamas245/book-rag-chatbot/internal/core/domain"
)

// LibraryService manages a user's processed books
type LibraryService interface {
	// ProcessDocument chunks, embeds and indexes an extracted
	// document. Re-processing identical content is detected via the
	// content hash and skipped.
	ProcessDocument(ctx context.Context, userID, title string, pages []domain.PageText) (*domain.Book, error)

	// Books lists the user's processed books
	Books(ctx context.Context, userID string) ([]*domain.Book, error)

	// DeleteBook removes a book's chunks from the index and its
	// registry entry
	DeleteBook(ctx context.Context, userID, bookID string) error
}

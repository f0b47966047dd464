package driving

import (
	"context"

	"github.com/Shamas245/book-rag-chatbot/internal/core/domain"
)

// ChatService answers questions about a user's processed books
type ChatService interface {
	// Ask retrieves relevant context, generates an answer and records
	// the exchange. sourceIDs restricts retrieval to the listed books;
	// empty means search everything the user has processed.
	Ask(ctx context.Context, userID, query string, sourceIDs []string) (*domain.Answer, error)

	// History returns the user's recent conversation, oldest first
	History(ctx context.Context, userID string, n int) ([]domain.Message, error)
}

package driven

import (
	"context"

	"github.com/Shamas245/book-rag-chatbot/internal/core/domain"
)

// ConversationStore persists the append-only message sequence per
// user. The core only appends and reads; the storage format belongs
// to the adapter.
type ConversationStore interface {
	// Append adds messages to the end of the user's sequence
	Append(ctx context.Context, userID string, messages ...domain.Message) error

	// Recent returns the last n messages, oldest first. Fewer are
	// returned when the history is shorter.
	Recent(ctx context.Context, userID string, n int) ([]domain.Message, error)

	// Clear removes the user's history
	Clear(ctx context.Context, userID string) error
}

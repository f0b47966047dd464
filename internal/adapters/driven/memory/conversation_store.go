package memory

import (
	"context"
	"sync"

	"github.com/Shamas245/book-rag-chatbot/internal/core/domain"
	"github.com/Shamas245/book-rag-chatbot/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ConversationStore = (*ConversationStore)(nil)

// ConversationStore keeps conversation histories in process memory.
// Used when no Redis URL is configured.
type ConversationStore struct {
	mu       sync.RWMutex
	messages map[string][]domain.Message
}

// NewConversationStore creates an empty in-memory conversation store
func NewConversationStore() *ConversationStore {
	return &ConversationStore{messages: make(map[string][]domain.Message)}
}

// Append adds messages to the end of the user's sequence
func (s *ConversationStore) Append(_ context.Context, userID string, messages ...domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[userID] = append(s.messages[userID], messages...)
	return nil
}

// Recent returns the last n messages, oldest first
func (s *ConversationStore) Recent(_ context.Context, userID string, n int) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	window := domain.RecentWindow(s.messages[userID], n)
	out := make([]domain.Message, len(window))
	copy(out, window)
	return out, nil
}

// Clear removes the user's history
func (s *ConversationStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.messages, userID)
	return nil
}

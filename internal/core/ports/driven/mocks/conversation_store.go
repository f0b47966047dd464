package mocks

import (
	"context"
	"sync"

	"github.com/Shamas245/book-rag-chatbot/internal/core/domain"
)

// MockConversationStore is an in-memory ConversationStore for testing
type MockConversationStore struct {
	mu       sync.Mutex
	messages map[string][]domain.Message
	failNext bool
}

// NewMockConversationStore creates a new MockConversationStore
func NewMockConversationStore() *MockConversationStore {
	return &MockConversationStore{messages: make(map[string][]domain.Message)}
}

func (m *MockConversationStore) Append(ctx context.Context, userID string, messages ...domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return context.DeadlineExceeded
	}
	m.messages[userID] = append(m.messages[userID], messages...)
	return nil
}

func (m *MockConversationStore) Recent(ctx context.Context, userID string, n int) ([]domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	history := m.messages[userID]
	return domain.RecentWindow(history, n), nil
}

func (m *MockConversationStore) Clear(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.messages, userID)
	return nil
}

// Helper methods for testing

func (m *MockConversationStore) SetFailNext(fail bool) {
	m.failNext = fail
}

// All returns the full sequence stored for a user
func (m *MockConversationStore) All(userID string) []domain.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.messages[userID]
}

package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/Shamas245/book-rag-chatbot/internal/core/domain"
)

// MockBookStore is an in-memory BookStore for testing
type MockBookStore struct {
	mu    sync.Mutex
	books map[string]map[string]*domain.Book // userID -> bookID -> book
}

// NewMockBookStore creates a new MockBookStore
func NewMockBookStore() *MockBookStore {
	return &MockBookStore{books: make(map[string]map[string]*domain.Book)}
}

func (m *MockBookStore) Save(ctx context.Context, book *domain.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.books[book.UserID] == nil {
		m.books[book.UserID] = make(map[string]*domain.Book)
	}
	copied := *book
	m.books[book.UserID][book.ID] = &copied
	return nil
}

func (m *MockBookStore) Get(ctx context.Context, userID, id string) (*domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	book, ok := m.books[userID][id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *book
	return &copied, nil
}

func (m *MockBookStore) ListByUser(ctx context.Context, userID string) ([]*domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var books []*domain.Book
	for _, b := range m.books[userID] {
		copied := *b
		books = append(books, &copied)
	}
	sort.Slice(books, func(i, j int) bool { return books[i].AddedAt.Before(books[j].AddedAt) })
	return books, nil
}

func (m *MockBookStore) Delete(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.books[userID], id)
	return nil
}

package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Shamas245/book-rag-chatbot/internal/core/domain"
	"github.com/Shamas245/book-rag-chatbot/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.BookStore = (*BookStore)(nil)

// BookStore keeps the book registry in process memory. It pairs with
// the in-memory vector index when no data directory is configured.
type BookStore struct {
	mu    sync.RWMutex
	books map[string]map[string]*domain.Book // userID -> bookID -> book
}

// NewBookStore creates an empty in-memory BookStore
func NewBookStore() *BookStore {
	return &BookStore{books: make(map[string]map[string]*domain.Book)}
}

// Save registers or replaces a book
func (s *BookStore) Save(_ context.Context, book *domain.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.books[book.UserID] == nil {
		s.books[book.UserID] = make(map[string]*domain.Book)
	}
	copied := *book
	s.books[book.UserID][book.ID] = &copied
	return nil
}

// Get returns a user's book by id
func (s *BookStore) Get(_ context.Context, userID, id string) (*domain.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	book, ok := s.books[userID][id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *book
	return &copied, nil
}

// ListByUser returns the user's books ordered by when they were added
func (s *BookStore) ListByUser(_ context.Context, userID string) ([]*domain.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var books []*domain.Book
	for _, b := range s.books[userID] {
		copied := *b
		books = append(books, &copied)
	}
	sort.Slice(books, func(i, j int) bool {
		if books[i].AddedAt.Equal(books[j].AddedAt) {
			return books[i].ID < books[j].ID
		}
		return books[i].AddedAt.Before(books[j].AddedAt)
	})
	return books, nil
}

// Delete removes a book. Deleting an absent book is a no-op.
func (s *BookStore) Delete(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.books[userID], id)
	return nil
}

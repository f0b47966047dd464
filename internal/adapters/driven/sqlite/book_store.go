package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Shamas245/book-rag-chatbot/internal/core/domain"
	"github.com/Shamas245/book-rag-chatbot/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.BookStore = (*BookStore)(nil)

// BookStore implements driven.BookStore on the shared SQLite store
type BookStore struct {
	store *Store
}

// NewBookStore creates a BookStore backed by the store
func NewBookStore(store *Store) *BookStore {
	return &BookStore{store: store}
}

// Save creates or updates a book entry
func (s *BookStore) Save(ctx context.Context, book *domain.Book) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO books (id, user_id, title, pages, chunks, added_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, id) DO UPDATE SET
			title = excluded.title,
			pages = excluded.pages,
			chunks = excluded.chunks
	`, book.ID, book.UserID, book.Title, book.Pages, book.Chunks, book.AddedAt)
	return err
}

// Get retrieves a user's book by id
func (s *BookStore) Get(ctx context.Context, userID, id string) (*domain.Book, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, pages, chunks, added_at
		FROM books WHERE user_id = ? AND id = ?
	`, userID, id)

	var book domain.Book
	err := row.Scan(&book.ID, &book.UserID, &book.Title, &book.Pages, &book.Chunks, &book.AddedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: book %q", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// ListByUser returns all books for a user, oldest first
func (s *BookStore) ListByUser(ctx context.Context, userID string) ([]*domain.Book, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, user_id, title, pages, chunks, added_at
		FROM books WHERE user_id = ? ORDER BY added_at ASC, id ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []*domain.Book
	for rows.Next() {
		var book domain.Book
		if err := rows.Scan(&book.ID, &book.UserID, &book.Title, &book.Pages, &book.Chunks, &book.AddedAt); err != nil {
			return nil, err
		}
		books = append(books, &book)
	}
	return books, rows.Err()
}

// Delete removes a book entry; unknown ids are a no-op
func (s *BookStore) Delete(ctx context.Context, userID, id string) error {
	_, err := s.store.db.ExecContext(ctx,
		`DELETE FROM books WHERE user_id = ? AND id = ?`, userID, id)
	return err
}

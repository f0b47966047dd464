package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Shamas245/book-rag-chatbot/internal/chunker"
	"github.com/Shamas245/book-rag-chatbot/internal/core/domain"
	"github.com/Shamas245/book-rag-chatbot/internal/core/ports/driven"
	"github.com/Shamas245/book-rag-chatbot/internal/core/ports/driving"
	"github.com/Shamas245/book-rag-chatbot/internal/runtime"
)

// Ensure libraryService implements LibraryService
var _ driving.LibraryService = (*libraryService)(nil)

// libraryService implements the LibraryService interface
type libraryService struct {
	registry *CollectionRegistry
	books    driven.BookStore
	splitter *chunker.Splitter
	services *runtime.Services // Dynamic AI services
	logger   *slog.Logger
}

// NewLibraryService creates a new LibraryService
func NewLibraryService(
	registry *CollectionRegistry,
	books driven.BookStore,
	splitter *chunker.Splitter,
	services *runtime.Services,
	logger *slog.Logger,
) driving.LibraryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &libraryService{
		registry: registry,
		books:    books,
		splitter: splitter,
		services: services,
		logger:   logger,
	}
}

// ProcessDocument chunks, embeds and indexes an extracted document.
// The book id is a hash of the page texts, so re-uploading identical
// content is detected and skipped. Chunk ids are derived from the
// book id and chunk position, which makes re-processing after a
// partial failure idempotent: already indexed chunks are overwritten
// in place rather than duplicated.
func (s *libraryService) ProcessDocument(ctx context.Context, userID, title string, pages []domain.PageText) (*domain.Book, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: empty title", domain.ErrInvalidInput)
	}

	bookID := domain.BookID(pages)

	// Identical content already processed for this user
	if existing, err := s.books.Get(ctx, userID, bookID); err == nil {
		s.logger.Info("document already processed", "user", userID, "book", bookID)
		return existing, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	meta := map[string]string{
		domain.MetaSourceID: bookID,
		domain.MetaTitle:    title,
		domain.MetaKind:     domain.ChunkKindText,
	}
	chunks := s.splitter.SplitPages(pages, meta)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: document has no text", domain.ErrInvalidInput)
	}
	for i := range chunks {
		chunks[i].ID = fmt.Sprintf("%s-c%d", bookID, i)
	}

	collection, err := s.registry.CollectionFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	embedder := s.services.EmbeddingService()
	if embedder == nil {
		return nil, fmt.Errorf("%w: no embedding service configured", domain.ErrEmbeddingUnavailable)
	}

	// Embed and index batch by batch. A failed batch is discarded
	// whole and aborts the document; batches indexed before it stay,
	// and the deterministic chunk ids make a retried upload converge.
	for start := 0; start < len(chunks); start += driven.DefaultAddBatchSize {
		end := start + driven.DefaultAddBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		vectors, err := embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embedding chunks %d-%d: %w", start, end-1, err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("%w: got %d embeddings for %d chunks", domain.ErrEmbeddingUnavailable, len(vectors), len(batch))
		}

		docs := make([]*domain.Chunk, len(batch))
		for i := range batch {
			batch[i].Embedding = vectors[i]
			docs[i] = &batch[i]
		}
		if _, err := s.registry.index.AddDocuments(ctx, collection, docs, driven.DefaultAddBatchSize); err != nil {
			return nil, fmt.Errorf("indexing chunks %d-%d: %w", start, end-1, err)
		}
	}

	book := &domain.Book{
		ID:      bookID,
		UserID:  userID,
		Title:   title,
		Pages:   len(pages),
		Chunks:  len(chunks),
		AddedAt: time.Now().UTC(),
	}
	if err := s.books.Save(ctx, book); err != nil {
		return nil, fmt.Errorf("registering book: %w", err)
	}

	s.logger.Info("document processed",
		"user", userID,
		"book", bookID,
		"title", title,
		"pages", len(pages),
		"chunks", len(chunks),
	)
	return book, nil
}

// Books lists the user's processed books
func (s *libraryService) Books(ctx context.Context, userID string) ([]*domain.Book, error) {
	return s.books.ListByUser(ctx, userID)
}

// DeleteBook removes a book's chunks from the index and its registry
// entry. Deleting an unknown book fails with ErrNotFound.
func (s *libraryService) DeleteBook(ctx context.Context, userID, bookID string) error {
	if _, err := s.books.Get(ctx, userID, bookID); err != nil {
		return err
	}

	collection, err := s.registry.CollectionFor(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.registry.index.DeleteBySource(ctx, collection, bookID); err != nil {
		return fmt.Errorf("removing chunks: %w", err)
	}
	if err := s.books.Delete(ctx, userID, bookID); err != nil {
		return err
	}

	s.logger.Info("book deleted", "user", userID, "book", bookID)
	return nil
}

package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Shamas245/book-rag-chatbot/internal/adapters/driven/memory"
	"github.com/Shamas245/book-rag-chatbot/internal/chunker"
	"github.com/Shamas245/book-rag-chatbot/internal/core/domain"
	"github.com/Shamas245/book-rag-chatbot/internal/core/ports/driven/mocks"
	"github.com/Shamas245/book-rag-chatbot/internal/core/services"
	"github.com/Shamas245/book-rag-chatbot/internal/runtime"
)

type serverFixture struct {
	server    *Server
	embedder  *mocks.MockEmbeddingService
	generator *mocks.MockGenerationService
	services  *runtime.Services
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	index := memory.NewVectorIndex()
	embedder := mocks.NewMockEmbeddingService()
	embedder.SetDimensions(4)
	generator := mocks.NewMockGenerationService()

	rt := runtime.NewServices(domain.NewRuntimeConfig("memory", "memory"))
	rt.SetEmbeddingService(embedder)
	rt.SetGenerationService(generator)

	registry := services.NewCollectionRegistry(index, domain.DistanceCosine)
	builder := services.NewContextBuilder(registry, rt, 0)
	chat := services.NewChatService(builder, memory.NewConversationStore(), rt, logger)
	library := services.NewLibraryService(registry, mocks.NewMockBookStore(), chunker.New(0), rt, logger)

	server := NewServer(DefaultConfig(), chat, library, rt, logger)

	return &serverFixture{
		server:    server,
		embedder:  embedder,
		generator: generator,
		services:  rt,
	}
}

func (f *serverFixture) do(t *testing.T, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if user != "" {
		req.Header.Set("X-User", user)
	}
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (f *serverFixture) processBook(t *testing.T, user string) *domain.Book {
	t.Helper()

	rec := f.do(t, "POST", "/api/v1/documents", user, map[string]any{
		"title": "Moby Dick",
		"pages": []map[string]any{
			{"page": 1, "text": "Call me Ishmael. Some years ago."},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var book domain.Book
	if err := json.Unmarshal(rec.Body.Bytes(), &book); err != nil {
		t.Fatalf("decoding book: %v", err)
	}
	return &book
}

func TestHealth(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, "GET", "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected ok status, got %v", resp["status"])
	}
	if resp["embedding_available"] != true {
		t.Errorf("expected embedding_available true, got %v", resp["embedding_available"])
	}
}

func TestRequireUser(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, "GET", "/api/v1/documents", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without X-User, got %d", rec.Code)
	}
}

func TestProcessAndListDocuments(t *testing.T) {
	f := newServerFixture(t)

	book := f.processBook(t, "alice")
	if book.Title != "Moby Dick" {
		t.Errorf("unexpected title %q", book.Title)
	}
	if book.Chunks == 0 {
		t.Error("expected chunks on processed book")
	}

	rec := f.do(t, "GET", "/api/v1/documents", "alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Documents []*domain.Book `json:"documents"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Documents) != 1 {
		t.Fatalf("expected 1 document, got %d", len(resp.Documents))
	}

	// Another user sees an empty library
	rec = f.do(t, "GET", "/api/v1/documents", "bob", nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Documents) != 0 {
		t.Errorf("expected empty library for bob, got %d", len(resp.Documents))
	}
}

func TestProcessDocument_EmptyTitle(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, "POST", "/api/v1/documents", "alice", map[string]any{
		"title": "",
		"pages": []map[string]any{{"page": 1, "text": "content"}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestProcessDocument_EmbeddingUnavailable(t *testing.T) {
	f := newServerFixture(t)
	f.embedder.SetFailNext(true)

	rec := f.do(t, "POST", "/api/v1/documents", "alice", map[string]any{
		"title": "Moby Dick",
		"pages": []map[string]any{{"page": 1, "text": "content"}},
	})
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAsk(t *testing.T) {
	f := newServerFixture(t)
	f.processBook(t, "alice")
	f.generator.SetAnswer("Ishmael narrates the story.")

	rec := f.do(t, "POST", "/api/v1/ask", "alice", AskRequest{Query: "who narrates?"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var answer domain.Answer
	if err := json.Unmarshal(rec.Body.Bytes(), &answer); err != nil {
		t.Fatalf("decoding answer: %v", err)
	}
	if answer.Text != "Ishmael narrates the story." {
		t.Errorf("unexpected answer %q", answer.Text)
	}
}

func TestAsk_EmptyQuery(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, "POST", "/api/v1/ask", "alice", AskRequest{Query: "  "})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestAsk_GenerationUnavailable(t *testing.T) {
	f := newServerFixture(t)
	f.generator.SetFailNext(true)

	rec := f.do(t, "POST", "/api/v1/ask", "alice", AskRequest{Query: "anything"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestHistory(t *testing.T) {
	f := newServerFixture(t)
	f.generator.SetAnswer("an answer")

	if rec := f.do(t, "POST", "/api/v1/ask", "alice", AskRequest{Query: "a question"}); rec.Code != http.StatusOK {
		t.Fatalf("Ask failed: %d", rec.Code)
	}

	rec := f.do(t, "GET", "/api/v1/history", "alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Messages []domain.Message `json:"messages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Messages) != 2 {
		t.Errorf("expected 2 messages, got %d", len(resp.Messages))
	}
}

func TestDeleteDocument(t *testing.T) {
	f := newServerFixture(t)
	book := f.processBook(t, "alice")

	rec := f.do(t, "DELETE", fmt.Sprintf("/api/v1/documents/%s", book.ID), "alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = f.do(t, "DELETE", fmt.Sprintf("/api/v1/documents/%s", book.ID), "alice", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", rec.Code)
	}
}

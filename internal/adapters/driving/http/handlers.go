package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Shamas245/book-rag-chatbot/internal/core/domain"
)

// AskRequest is the question payload
type AskRequest struct {
	Query     string   `json:"query"`
	SourceIDs []string `json:"source_ids,omitempty"`
}

// ProcessDocumentRequest carries an extracted document
type ProcessDocumentRequest struct {
	Title string `json:"title"`
	Pages []struct {
		Page int    `json:"page"`
		Text string `json:"text"`
	} `json:"pages"`
}

// Health endpoints

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	cfg := s.services.Config()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":               "ok",
		"vector_backend":       cfg.VectorBackend,
		"conversation_backend": cfg.ConversationBackend,
		"embedding_available":  cfg.EmbeddingAvailable(),
		"generation_available": cfg.GenerationAvailable(),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// Chat endpoints

// handleAsk answers a question about the caller's books
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	answer, err := s.chatService.Ask(r.Context(), userFrom(r), req.Query, req.SourceIDs)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "query must not be empty")
		case errors.Is(err, domain.ErrGenerationUnavailable):
			writeError(w, http.StatusServiceUnavailable, "answer generation is unavailable")
		case errors.Is(err, domain.ErrRetrievalFailed):
			writeError(w, http.StatusServiceUnavailable, "retrieval failed")
		default:
			writeError(w, http.StatusInternalServerError, "failed to answer question")
		}
		return
	}

	writeJSON(w, http.StatusOK, answer)
}

// handleHistory returns the caller's recent conversation
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.chatService.History(r.Context(), userFrom(r), 50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if history == nil {
		history = []domain.Message{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": history})
}

// Document endpoints

// handleProcessDocument ingests an extracted document
func (s *Server) handleProcessDocument(w http.ResponseWriter, r *http.Request) {
	var req ProcessDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pages := make([]domain.PageText, len(req.Pages))
	for i, p := range req.Pages {
		pages[i] = domain.PageText{Page: p.Page, Text: p.Text}
	}

	book, err := s.libraryService.ProcessDocument(r.Context(), userFrom(r), req.Title, pages)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "document needs a title and text content")
		case errors.Is(err, domain.ErrEmbeddingUnavailable):
			writeError(w, http.StatusServiceUnavailable, "embedding is unavailable")
		default:
			writeError(w, http.StatusInternalServerError, "failed to process document")
		}
		return
	}

	writeJSON(w, http.StatusCreated, book)
}

// handleListDocuments lists the caller's processed books
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	books, err := s.libraryService.Books(r.Context(), userFrom(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}
	if books == nil {
		books = []*domain.Book{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": books})
}

// handleDeleteDocument removes a processed book and its chunks
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.libraryService.DeleteBook(r.Context(), userFrom(r), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete document")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

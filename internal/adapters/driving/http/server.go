package http

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shamas245/book-rag-chatbot/internal/core/ports/driving"
	"github.com/Shamas245/book-rag-chatbot/internal/runtime"
)

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	logger     *slog.Logger

	// Services
	chatService    driving.ChatService
	libraryService driving.LibraryService

	// Infrastructure
	services *runtime.Services
}

// Config holds server configuration
type Config struct {
	Host    string
	Port    int
	Version string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:    "0.0.0.0",
		Port:    8080,
		Version: "dev",
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	chatService driving.ChatService,
	libraryService driving.LibraryService,
	services *runtime.Services,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		router:         http.NewServeMux(),
		version:        cfg.Version,
		logger:         logger,
		chatService:    chatService,
		libraryService: libraryService,
		services:       services,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      RequestLogger(logger)(s.router),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // generation can be slow
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	identity := RequireUser()

	// Health endpoints (no identity)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Chat endpoints
	s.router.Handle("POST /api/v1/ask",
		identity(http.HandlerFunc(s.handleAsk)))
	s.router.Handle("GET /api/v1/history",
		identity(http.HandlerFunc(s.handleHistory)))

	// Document endpoints
	s.router.Handle("POST /api/v1/documents",
		identity(http.HandlerFunc(s.handleProcessDocument)))
	s.router.Handle("GET /api/v1/documents",
		identity(http.HandlerFunc(s.handleListDocuments)))
	s.router.Handle("DELETE /api/v1/documents/{id}",
		identity(http.HandlerFunc(s.handleDeleteDocument)))
}

// Handler returns the routed handler, wrapped in middleware. Useful
// for tests that drive the server without a listener.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start runs the server until an interrupt signal arrives, then
// shuts down gracefully
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/Shamas245/book-rag-chatbot/internal/adapters/driven/ai"
	"github.com/Shamas245/book-rag-chatbot/internal/adapters/driven/memory"
	redisadapter "github.com/Shamas245/book-rag-chatbot/internal/adapters/driven/redis"
	"github.com/Shamas245/book-rag-chatbot/internal/adapters/driven/sqlite"
	httpserver "github.com/Shamas245/book-rag-chatbot/internal/adapters/driving/http"
	"github.com/Shamas245/book-rag-chatbot/internal/chunker"
	"github.com/Shamas245/book-rag-chatbot/internal/config"
	"github.com/Shamas245/book-rag-chatbot/internal/core/domain"
	"github.com/Shamas245/book-rag-chatbot/internal/core/ports/driven"
	"github.com/Shamas245/book-rag-chatbot/internal/core/services"
	"github.com/Shamas245/book-rag-chatbot/internal/runtime"
)

var version = "dev"

func main() {
	// .env is optional, real environments set variables directly
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_FILE")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	log.Printf("book-rag %s starting", version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ===== Vector index (sqlite if a data dir is configured) =====
	var (
		vectorIndex   driven.VectorIndex
		bookStore     driven.BookStore
		vectorBackend string
	)
	if cfg.DataDir != "" {
		store, err := sqlite.NewStore(cfg.DataDir)
		if err != nil {
			log.Fatalf("Failed to open sqlite store: %v", err)
		}
		defer store.Close()
		vectorIndex = sqlite.NewVectorIndex(store)
		bookStore = sqlite.NewBookStore(store)
		vectorBackend = "sqlite"
		log.Printf("Using sqlite vector index at %s", store.Path())
	} else {
		vectorIndex = memory.NewVectorIndex()
		bookStore = memory.NewBookStore()
		vectorBackend = "memory"
		log.Println("Using in-memory vector index (set DATA_DIR to persist)")
	}

	// ===== Conversation store (Redis if available) =====
	var (
		conversations       driven.ConversationStore
		conversationBackend string
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient := redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		conversations = redisadapter.NewConversationStore(redisClient)
		conversationBackend = "redis"
		log.Println("Using Redis conversation store")
	} else {
		conversations = memory.NewConversationStore()
		conversationBackend = "memory"
		log.Println("Using in-memory conversation store")
	}

	// ===== Runtime AI services =====
	runtimeConfig := domain.NewRuntimeConfig(vectorBackend, conversationBackend)
	runtimeServices := runtime.NewServices(runtimeConfig)
	defer runtimeServices.Close()

	if cfg.Gemini.APIKey != "" {
		embedder, err := ai.NewGeminiEmbedding(cfg.Gemini.APIKey, cfg.Gemini.EmbeddingModel, cfg.Gemini.BaseURL)
		if err != nil {
			log.Fatalf("Failed to create embedding service: %v", err)
		}
		validateCtx, validateCancel := context.WithTimeout(ctx, 30*time.Second)
		if err := runtimeServices.ValidateAndSetEmbedding(validateCtx, embedder); err != nil {
			log.Printf("Warning: embedding service validation failed: %v", err)
		}

		generator, err := ai.NewGeminiGeneration(cfg.Gemini.APIKey, cfg.Gemini.GenerationModel, cfg.Gemini.BaseURL)
		if err != nil {
			log.Fatalf("Failed to create generation service: %v", err)
		}
		if err := runtimeServices.ValidateAndSetGeneration(validateCtx, generator); err != nil {
			log.Printf("Warning: generation service validation failed: %v", err)
		}
		validateCancel()
	} else {
		log.Println("No GEMINI_API_KEY set, starting without AI services")
	}

	log.Printf("Runtime config: vector=%s, conversations=%s, embedding=%t, generation=%t",
		runtimeConfig.VectorBackend,
		runtimeConfig.ConversationBackend,
		runtimeConfig.EmbeddingAvailable(),
		runtimeConfig.GenerationAvailable())

	// ===== Core services =====
	distance, err := domain.ParseDistanceFunc(cfg.Retrieve.Distance)
	if err != nil {
		log.Fatalf("Invalid distance function: %v", err)
	}

	registry := services.NewCollectionRegistry(vectorIndex, distance)
	builder := services.NewContextBuilder(registry, runtimeServices, cfg.Retrieve.TopK)
	chatService := services.NewChatService(builder, conversations, runtimeServices, logger)
	libraryService := services.NewLibraryService(registry, bookStore, chunker.New(cfg.Retrieve.ChunkBudget), runtimeServices, logger)

	// ===== HTTP server =====
	server := httpserver.NewServer(httpserver.Config{
		Host:    cfg.Host,
		Port:    cfg.Port,
		Version: version,
	}, chatService, libraryService, runtimeServices, logger)

	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server stopped")
}

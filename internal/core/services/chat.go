package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Shamas245/book-rag-chatbot/internal/core/domain"
	"github.com/Shamas245/book-rag-chatbot/internal/core/ports/driven"
	"github.com/Shamas245/book-rag-chatbot/internal/core/ports/driving"
	"github.com/Shamas245/book-rag-chatbot/internal/runtime"
)

// Ensure chatService implements ChatService
var _ driving.ChatService = (*chatService)(nil)

// chatService implements the ChatService interface
type chatService struct {
	builder       *ContextBuilder
	conversations driven.ConversationStore
	services      *runtime.Services // Dynamic AI services
	logger        *slog.Logger
}

// NewChatService creates a new ChatService
func NewChatService(
	builder *ContextBuilder,
	conversations driven.ConversationStore,
	services *runtime.Services,
	logger *slog.Logger,
) driving.ChatService {
	if logger == nil {
		logger = slog.Default()
	}
	return &chatService{
		builder:       builder,
		conversations: conversations,
		services:      services,
		logger:        logger,
	}
}

// Ask answers a question about the user's books. The exchange is
// appended to the conversation only after generation succeeds, so a
// failed question never pollutes the history.
func (s *chatService) Ask(ctx context.Context, userID, query string, sourceIDs []string) (*domain.Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}

	history, err := s.conversations.Recent(ctx, userID, domain.DefaultHistoryWindow)
	if err != nil {
		return nil, fmt.Errorf("%w: loading history: %v", domain.ErrRetrievalFailed, err)
	}

	bundle, err := s.builder.BuildPrompt(ctx, userID, query, sourceIDs, history)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRetrievalFailed, err)
	}

	generator := s.services.GenerationService()
	if generator == nil {
		return nil, fmt.Errorf("%w: no generation service configured", domain.ErrGenerationUnavailable)
	}

	text, err := generator.Generate(ctx, bundle.Prompt)
	if err != nil {
		return nil, err
	}

	if err := s.conversations.Append(ctx, userID,
		domain.NewUserMessage(query),
		domain.NewAssistantMessage(text),
	); err != nil {
		// The answer is already generated; losing one history entry
		// is preferable to failing the question
		s.logger.Warn("failed to record conversation turn", "user", userID, "error", err)
	}

	s.logger.Debug("answered question",
		"user", userID,
		"matches", len(bundle.Matches),
		"citations", len(bundle.Citations),
	)

	return &domain.Answer{
		Text:      text,
		Citations: bundle.Citations,
	}, nil
}

// History returns the user's recent conversation, oldest first
func (s *chatService) History(ctx context.Context, userID string, n int) ([]domain.Message, error) {
	if n <= 0 {
		n = domain.DefaultHistoryWindow
	}
	return s.conversations.Recent(ctx, userID, n)
}

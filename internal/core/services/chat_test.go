package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Shamas245/book-rag-chatbot/internal/adapters/driven/memory"
	"github.com/Shamas245/book-rag-chatbot/internal/core/domain"
	"github.com/Shamas245/book-rag-chatbot/internal/core/ports/driven/mocks"
	"github.com/Shamas245/book-rag-chatbot/internal/runtime"
)

// chatFixture wires a chat service against the in-memory adapters
type chatFixture struct {
	chat          *chatService
	index         *memory.VectorIndex
	embedder      *mocks.MockEmbeddingService
	generator     *mocks.MockGenerationService
	conversations *mocks.MockConversationStore
	services      *runtime.Services
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()

	index := memory.NewVectorIndex()
	embedder := mocks.NewMockEmbeddingService()
	embedder.SetDimensions(2)
	generator := mocks.NewMockGenerationService()
	conversations := mocks.NewMockConversationStore()

	services := runtime.NewServices(domain.NewRuntimeConfig("memory", "memory"))
	services.SetEmbeddingService(embedder)
	services.SetGenerationService(generator)

	registry := NewCollectionRegistry(index, domain.DistanceCosine)
	builder := NewContextBuilder(registry, services, DefaultTopK)
	chat := NewChatService(builder, conversations, services, nil).(*chatService)

	return &chatFixture{
		chat:          chat,
		index:         index,
		embedder:      embedder,
		generator:     generator,
		conversations: conversations,
		services:      services,
	}
}

// seedChunks indexes chunks with pinned vectors into alice's collection
func (f *chatFixture) seedChunks(t *testing.T, chunks []*domain.Chunk) {
	t.Helper()
	ctx := context.Background()
	if err := f.index.EnsureCollection(ctx, "user_alice", domain.DistanceCosine); err != nil {
		t.Fatalf("EnsureCollection failed: %v", err)
	}
	if _, err := f.index.AddDocuments(ctx, "user_alice", chunks, 100); err != nil {
		t.Fatalf("AddDocuments failed: %v", err)
	}
}

func TestChatService_Ask_AnswersWithCitations(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	f.seedChunks(t, []*domain.Chunk{
		{ID: "sky", Text: "The sky is blue.", Metadata: map[string]string{domain.MetaSourceID: "bookX", domain.MetaPage: "3"}, Embedding: []float32{1, 0.1}},
		{ID: "grass", Text: "Grass is green.", Metadata: map[string]string{domain.MetaSourceID: "bookY", domain.MetaPage: "7"}, Embedding: []float32{0.1, 1}},
	})
	f.embedder.SetVector("what color is the sky?", []float32{1, 0})
	f.generator.SetAnswer("The sky is blue.")

	answer, err := f.chat.Ask(ctx, "alice", "what color is the sky?", nil)
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if answer.Text != "The sky is blue." {
		t.Errorf("unexpected answer: %q", answer.Text)
	}
	if len(answer.Citations) == 0 || answer.Citations[0].SourceID != "bookX" {
		t.Errorf("expected bookX cited first, got %+v", answer.Citations)
	}

	// The prompt carries the best matching chunk
	prompts := f.generator.Prompts()
	if len(prompts) != 1 {
		t.Fatalf("expected 1 generation call, got %d", len(prompts))
	}
	if !strings.Contains(prompts[0], "The sky is blue.") {
		t.Errorf("expected context in prompt:\n%s", prompts[0])
	}
	if !strings.Contains(prompts[0], "what color is the sky?") {
		t.Errorf("expected question in prompt:\n%s", prompts[0])
	}
}

func TestChatService_Ask_RecordsTurnPair(t *testing.T) {
	f := newChatFixture(t)
	f.generator.SetAnswer("an answer")

	if _, err := f.chat.Ask(context.Background(), "alice", "a question", nil); err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	history := f.conversations.All("alice")
	if len(history) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(history))
	}
	if history[0].Role != domain.RoleUser || history[0].Content != "a question" {
		t.Errorf("unexpected user turn: %+v", history[0])
	}
	if history[1].Role != domain.RoleAssistant || history[1].Content != "an answer" {
		t.Errorf("unexpected assistant turn: %+v", history[1])
	}
}

func TestChatService_Ask_GenerationFailureLeavesHistoryUntouched(t *testing.T) {
	f := newChatFixture(t)
	f.generator.SetFailNext(true)

	_, err := f.chat.Ask(context.Background(), "alice", "a question", nil)
	if !errors.Is(err, domain.ErrGenerationUnavailable) {
		t.Errorf("expected ErrGenerationUnavailable, got %v", err)
	}
	if got := f.conversations.All("alice"); len(got) != 0 {
		t.Errorf("expected empty history after failure, got %d entries", len(got))
	}
}

func TestChatService_Ask_EmbeddingFailureIsRetrievalFailed(t *testing.T) {
	f := newChatFixture(t)
	f.embedder.SetFailNext(true)

	_, err := f.chat.Ask(context.Background(), "alice", "a question", nil)
	if !errors.Is(err, domain.ErrRetrievalFailed) {
		t.Errorf("expected ErrRetrievalFailed, got %v", err)
	}
}

func TestChatService_Ask_NoGenerationServiceConfigured(t *testing.T) {
	f := newChatFixture(t)
	f.services.SetGenerationService(nil)

	_, err := f.chat.Ask(context.Background(), "alice", "a question", nil)
	if !errors.Is(err, domain.ErrGenerationUnavailable) {
		t.Errorf("expected ErrGenerationUnavailable, got %v", err)
	}
}

func TestChatService_Ask_EmptyQuery(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.chat.Ask(context.Background(), "alice", "   ", nil)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestChatService_Ask_SourceFilterRestrictsRetrieval(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	f.seedChunks(t, []*domain.Chunk{
		{ID: "sky", Text: "The sky is blue.", Metadata: map[string]string{domain.MetaSourceID: "bookX"}, Embedding: []float32{1, 0.1}},
		{ID: "grass", Text: "Grass is green.", Metadata: map[string]string{domain.MetaSourceID: "bookY"}, Embedding: []float32{0.1, 1}},
	})
	f.embedder.SetVector("what color is the sky?", []float32{1, 0})
	f.generator.SetAnswer("whatever")

	answer, err := f.chat.Ask(ctx, "alice", "what color is the sky?", []string{"bookY"})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	for _, c := range answer.Citations {
		if c.SourceID != "bookY" {
			t.Errorf("expected only bookY citations, got %+v", answer.Citations)
		}
	}

	prompts := f.generator.Prompts()
	if strings.Contains(prompts[len(prompts)-1], "The sky is blue.") {
		t.Error("filtered-out chunk leaked into the prompt")
	}
}

func TestChatService_Ask_NoMatchesPromptsFallback(t *testing.T) {
	f := newChatFixture(t)
	f.generator.SetAnswer(domain.FallbackAnswer)

	answer, err := f.chat.Ask(context.Background(), "alice", "anything at all", nil)
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if answer.Text != domain.FallbackAnswer {
		t.Errorf("unexpected answer: %q", answer.Text)
	}
	if len(answer.Citations) != 0 {
		t.Errorf("expected no citations, got %+v", answer.Citations)
	}

	prompts := f.generator.Prompts()
	if !strings.Contains(prompts[0], domain.FallbackAnswer) {
		t.Error("expected fallback instruction in prompt")
	}
}

func TestChatService_History(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	f.generator.SetAnswer("first answer")
	if _, err := f.chat.Ask(ctx, "alice", "first question", nil); err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	history, err := f.chat.History(ctx, "alice", 10)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(history))
	}
	if history[0].Content != "first question" {
		t.Errorf("expected oldest first, got %+v", history)
	}
}

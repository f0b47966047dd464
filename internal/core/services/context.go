package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/Shamas245/book-rag-chatbot/internal/core/domain"
	"github.com/Shamas245/book-rag-chatbot/internal/runtime"
)

const (
	// DefaultTopK is how many nearest chunks retrieval asks for
	DefaultTopK = 10

	// contextBudget bounds the book context block of the prompt
	contextBudget = 2000

	// historyBudget bounds the conversation history block
	historyBudget = 1000
)

// ContextBuilder assembles the grounded prompt for a question: embed
// the query, retrieve the user's nearest chunks, render context and
// history blocks within their budgets.
type ContextBuilder struct {
	registry *CollectionRegistry
	services *runtime.Services // Dynamic AI services
	topK     int
}

// NewContextBuilder creates a ContextBuilder retrieving topK chunks
// per question. topK <= 0 selects the default.
func NewContextBuilder(registry *CollectionRegistry, services *runtime.Services, topK int) *ContextBuilder {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &ContextBuilder{
		registry: registry,
		services: services,
		topK:     topK,
	}
}

// BuildPrompt retrieves context for the query and renders the prompt.
// sourceIDs restricts retrieval to the listed books; empty searches
// everything in the user's collection. Zero retrieved chunks still
// produce a prompt - one whose context block is empty, so the model
// falls back to the no-answer reply instead of fabricating.
func (b *ContextBuilder) BuildPrompt(ctx context.Context, userID, query string, sourceIDs []string, history []domain.Message) (*domain.PromptBundle, error) {
	embedder := b.services.EmbeddingService()
	if embedder == nil {
		return nil, fmt.Errorf("%w: no embedding service configured", domain.ErrEmbeddingUnavailable)
	}

	collection, err := b.registry.CollectionFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	var filters []domain.Filter
	if len(sourceIDs) > 0 {
		filters = append(filters, domain.SourceFilter(sourceIDs))
	}

	matches, err := b.registry.index.QueryByText(ctx, collection, query, embedder, b.topK, filters)
	if err != nil {
		return nil, err
	}

	prompt := renderPrompt(query, buildContextBlock(matches), buildHistoryBlock(history))
	return &domain.PromptBundle{
		Prompt:    prompt,
		Citations: domain.CitationsFrom(matches),
		Matches:   matches,
	}, nil
}

// buildContextBlock concatenates match texts up to the context budget.
// The chunk that crosses the budget is truncated at a sentence
// boundary and ends the block.
func buildContextBlock(matches []domain.QueryMatch) string {
	var sb strings.Builder
	for _, m := range matches {
		if sb.Len()+len(m.Text)+2 > contextBudget {
			remaining := contextBudget - sb.Len() - 2
			if remaining > 0 {
				sb.WriteString("\n\n")
				sb.WriteString(truncateAtSentence(m.Text, remaining))
			}
			break
		}
		sb.WriteString("\n\n")
		sb.WriteString(m.Text)
	}
	return strings.TrimSpace(sb.String())
}

// buildHistoryBlock renders the last few turns oldest first, bounded
// by the history budget
func buildHistoryBlock(history []domain.Message) string {
	recent := domain.RecentWindow(history, domain.DefaultHistoryWindow)
	if len(recent) == 0 {
		return ""
	}

	lines := make([]string, 0, len(recent))
	for _, msg := range recent {
		lines = append(lines, fmt.Sprintf("%s: %s", roleLabel(msg.Role), msg.Content))
	}

	text := strings.Join(lines, "\n")
	if len(text) > historyBudget {
		text = truncateAtSentence(text, historyBudget)
	}
	return text
}

func roleLabel(role domain.Role) string {
	switch role {
	case domain.RoleAssistant:
		return "Assistant"
	default:
		return "User"
	}
}

// truncateAtSentence cuts text to at most max bytes, preferring the
// last full sentence that fits
func truncateAtSentence(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := text[:max]
	if i := strings.LastIndex(cut, "."); i > 0 {
		return cut[:i+1]
	}
	// No sentence boundary, cut on a rune boundary instead
	for max > 0 && !isRuneStart(text[max]) {
		max--
	}
	return text[:max]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// renderPrompt assembles the final prompt sent to the model
func renderPrompt(question, contextBlock, historyBlock string) string {
	var sb strings.Builder
	sb.WriteString("You are a knowledgeable and concise assistant. Answer the question using the provided book context and conversation history.\n")
	sb.WriteString("- If the question is about the conversation itself, answer from the history.\n")
	sb.WriteString("- Prefer answers grounded in the context, even when it is not a direct match.\n")
	sb.WriteString("- Use clear, professional language and format your response in markdown where appropriate.\n")
	sb.WriteString("- If the context and history contain nothing relevant, respond with: \"")
	sb.WriteString(domain.FallbackAnswer)
	sb.WriteString("\"\n")

	sb.WriteString("\nConversation history:\n")
	sb.WriteString(historyBlock)
	sb.WriteString("\n\nContext from books:\n")
	sb.WriteString(contextBlock)
	sb.WriteString("\n\nQuestion:\n")
	sb.WriteString(question)
	sb.WriteString("\n\nAnswer:\n")
	return sb.String()
}

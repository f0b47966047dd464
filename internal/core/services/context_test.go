package services

import (
	"strings"
	"testing"

	"github.com/Shamas245/book-rag-chatbot/internal/core/domain"
)

func TestBuildContextBlock_RespectsBudget(t *testing.T) {
	long := strings.Repeat("Sentence one is here. ", 80) // ~1760 chars
	matches := []domain.QueryMatch{
		{Text: long},
		{Text: strings.Repeat("Another sentence follows. ", 40)},
	}

	block := buildContextBlock(matches)
	if len(block) > contextBudget {
		t.Errorf("context block exceeds budget: %d > %d", len(block), contextBudget)
	}
	if !strings.HasPrefix(block, "Sentence one is here.") {
		t.Errorf("expected first match to lead the block")
	}
	// Truncated tail ends on a sentence boundary
	if !strings.HasSuffix(block, ".") {
		t.Errorf("expected sentence-boundary truncation, got tail %q", block[len(block)-20:])
	}
}

func TestBuildContextBlock_Empty(t *testing.T) {
	if got := buildContextBlock(nil); got != "" {
		t.Errorf("expected empty block, got %q", got)
	}
}

func TestBuildHistoryBlock_WindowAndLabels(t *testing.T) {
	history := []domain.Message{
		{Role: domain.RoleUser, Content: "first"},
		{Role: domain.RoleAssistant, Content: "second"},
		{Role: domain.RoleUser, Content: "third"},
		{Role: domain.RoleAssistant, Content: "fourth"},
		{Role: domain.RoleUser, Content: "fifth"},
	}

	block := buildHistoryBlock(history)
	if strings.Contains(block, "first") {
		t.Error("expected oldest message outside the window to be dropped")
	}
	lines := strings.Split(block, "\n")
	if len(lines) != domain.DefaultHistoryWindow {
		t.Fatalf("expected %d lines, got %d", domain.DefaultHistoryWindow, len(lines))
	}
	if lines[0] != "Assistant: second" {
		t.Errorf("expected oldest-first ordering, got %q", lines[0])
	}
	if lines[3] != "User: fifth" {
		t.Errorf("expected newest last, got %q", lines[3])
	}
}

func TestBuildHistoryBlock_Empty(t *testing.T) {
	if got := buildHistoryBlock(nil); got != "" {
		t.Errorf("expected empty history block, got %q", got)
	}
}

func TestTruncateAtSentence(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want string
	}{
		{"fits", "Short.", 100, "Short."},
		{"sentence boundary", "One. Two. Three is much longer.", 12, "One. Two."},
		{"no boundary", "abcdefghij", 5, "abcde"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateAtSentence(tt.text, tt.max); got != tt.want {
				t.Errorf("truncateAtSentence(%q, %d) = %q, want %q", tt.text, tt.max, got, tt.want)
			}
		})
	}
}

func TestTruncateAtSentence_RuneBoundary(t *testing.T) {
	text := "ééééé" // 2 bytes per rune
	got := truncateAtSentence(text, 5)
	for _, r := range got {
		if r != 'é' {
			t.Fatalf("rune split in truncation: %q", got)
		}
	}
	if len(got) != 4 {
		t.Errorf("expected 4 bytes, got %d", len(got))
	}
}

func TestCollectionName(t *testing.T) {
	tests := []struct {
		userID string
		want   string
	}{
		{"alice", "user_alice"},
		{"Alice Smith", "user_alice_smith"},
		{"user@example.com", "user_user_example_com"},
		{"  padded  ", "user_padded"},
	}
	for _, tt := range tests {
		got, err := collectionName(tt.userID)
		if err != nil {
			t.Errorf("collectionName(%q) failed: %v", tt.userID, err)
			continue
		}
		if got != tt.want {
			t.Errorf("collectionName(%q) = %q, want %q", tt.userID, got, tt.want)
		}
	}

	if _, err := collectionName("  "); err == nil {
		t.Error("expected error for blank user id")
	}
}

func TestRenderPrompt_ContainsBlocks(t *testing.T) {
	prompt := renderPrompt("the question", "the context", "the history")

	for _, want := range []string{"the question", "the context", "the history", domain.FallbackAnswer} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

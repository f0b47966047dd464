// Package chunker splits extracted document text into bounded-size
// passages carrying source metadata. Splitting is a pure function of
// its input: no ids are assigned and nothing is mutated.
package chunker

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Shamas245/book-rag-chatbot/internal/core/domain"
)

// DefaultBudget is the character budget per chunk
const DefaultBudget = 1500

// Splitter produces chunks of at most a fixed character budget.
// Splits may land mid-sentence; semantic boundary preservation is a
// non-goal.
type Splitter struct {
	budget int
}

// New creates a Splitter. A non-positive budget falls back to the
// default.
func New(budget int) *Splitter {
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &Splitter{budget: budget}
}

// Budget returns the configured character budget
func (s *Splitter) Budget() int {
	return s.budget
}

// Split chunks raw text, attaching a copy of meta to every chunk.
// Empty or whitespace-only input yields no chunks.
func (s *Splitter) Split(text string, meta map[string]string) []domain.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []domain.Chunk
	for start := 0; start < len(text); {
		end := s.cut(text, start)
		piece := strings.TrimSpace(text[start:end])
		if piece != "" {
			chunks = append(chunks, domain.Chunk{
				Text:     piece,
				Metadata: cloneMeta(meta),
			})
		}
		start = end
	}
	return chunks
}

// SplitPages chunks a sequence of extracted pages. Pages are joined in
// order; each chunk's metadata records the page its text starts on,
// merged over meta.
func (s *Splitter) SplitPages(pages []domain.PageText, meta map[string]string) []domain.Chunk {
	var chunks []domain.Chunk
	for _, page := range pages {
		for _, c := range s.Split(page.Text, meta) {
			c.Metadata[domain.MetaPage] = pageLabel(page.Page)
			chunks = append(chunks, c)
		}
	}
	return chunks
}

// cut finds the end of the chunk starting at start: the budget
// boundary, backed up so a multi-byte rune is never split.
func (s *Splitter) cut(text string, start int) int {
	end := start + s.budget
	if end >= len(text) {
		return len(text)
	}
	for end > start && !utf8.RuneStart(text[end]) {
		end--
	}
	if end == start {
		// A single rune wider than the budget; take it whole
		_, size := utf8.DecodeRuneInString(text[start:])
		return start + size
	}
	return end
}

func cloneMeta(meta map[string]string) map[string]string {
	cloned := make(map[string]string, len(meta)+1)
	for k, v := range meta {
		cloned[k] = v
	}
	return cloned
}

func pageLabel(page int) string {
	if page <= 0 {
		return ""
	}
	return strconv.Itoa(page)
}

package domain

import "time"

// Metadata keys attached to chunks by the ingestion pipeline.
const (
	MetaSourceID = "source_id"
	MetaTitle    = "title"
	MetaPage     = "page"
	MetaKind     = "kind"
)

// Chunk kinds. Text chunks come from page text, image chunks from
// text extracted out of embedded images.
const (
	ChunkKindText  = "text"
	ChunkKindImage = "image"
)

// Chunk represents a bounded piece of a book held by the vector index
type Chunk struct {
	ID        string            `json:"id"`
	Text      string            `json:"text"`
	Metadata  map[string]string `json:"metadata"`
	Embedding []float32         `json:"embedding,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// SourceID returns the source_id metadata field, or "" when absent
func (c *Chunk) SourceID() string {
	if c.Metadata == nil {
		return ""
	}
	return c.Metadata[MetaSourceID]
}

// Page returns the page metadata field, or "" when absent
func (c *Chunk) Page() string {
	if c.Metadata == nil {
		return ""
	}
	return c.Metadata[MetaPage]
}

// QueryMatch is one entry of a similarity query result, ranked by
// ascending distance (best match first)
type QueryMatch struct {
	ChunkID  string            `json:"chunk_id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
	Distance float64           `json:"distance"`
}

// Citation points at the provenance of a retrieved chunk
type Citation struct {
	SourceID string `json:"source_id"`
	Page     string `json:"page,omitempty"`
}

// CitationsFrom derives citations from query matches, deduplicated by
// (source, page) pair in first-seen order. Matches without a source_id
// are skipped.
func CitationsFrom(matches []QueryMatch) []Citation {
	seen := make(map[Citation]struct{}, len(matches))
	var citations []Citation
	for _, m := range matches {
		source := m.Metadata[MetaSourceID]
		if source == "" {
			continue
		}
		c := Citation{SourceID: source, Page: m.Metadata[MetaPage]}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		citations = append(citations, c)
	}
	return citations
}

// FallbackAnswer is returned when nothing relevant exists in the
// user's books or history. The prompt instructs the model to emit it
// verbatim rather than fabricate.
const FallbackAnswer = "The answer is not available in the provided books."

// Answer is the orchestrator's response to a question
type Answer struct {
	Text      string     `json:"text"`
	Citations []Citation `json:"citations,omitempty"`
}

// PromptBundle is the context builder's output: the rendered prompt
// plus the citations gathered during retrieval
type PromptBundle struct {
	Prompt    string       `json:"prompt"`
	Citations []Citation   `json:"citations,omitempty"`
	Matches   []QueryMatch `json:"matches,omitempty"`
}

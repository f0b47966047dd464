package domain

import "sync"

// RuntimeConfig tracks which services are available at runtime.
// Backends are fixed at startup; AI capability flags change when the
// model services are swapped or reconfigured.
// Thread-safe for concurrent access.
type RuntimeConfig struct {
	mu sync.RWMutex

	// Static (set at startup, read-only)
	VectorBackend       string // "sqlite" or "memory"
	ConversationBackend string // "redis" or "memory"

	// Dynamic capability flags (updated when AI services change)
	embeddingAvailable  bool
	generationAvailable bool
}

// NewRuntimeConfig creates a new RuntimeConfig with initial values
func NewRuntimeConfig(vectorBackend, conversationBackend string) *RuntimeConfig {
	return &RuntimeConfig{
		VectorBackend:       vectorBackend,
		ConversationBackend: conversationBackend,
	}
}

// EmbeddingAvailable returns whether the embedding service is available
func (c *RuntimeConfig) EmbeddingAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.embeddingAvailable
}

// GenerationAvailable returns whether the generation service is available
func (c *RuntimeConfig) GenerationAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generationAvailable
}

// SetEmbeddingAvailable updates the embedding availability flag
func (c *RuntimeConfig) SetEmbeddingAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.embeddingAvailable = available
}

// SetGenerationAvailable updates the generation availability flag
func (c *RuntimeConfig) SetGenerationAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generationAvailable = available
}

// CanIngest returns true if documents can be embedded and indexed
func (c *RuntimeConfig) CanIngest() bool {
	return c.EmbeddingAvailable()
}

// CanAnswer returns true if questions can be answered end to end
func (c *RuntimeConfig) CanAnswer() bool {
	return c.EmbeddingAvailable() && c.GenerationAvailable()
}

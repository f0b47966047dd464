package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Shamas245/book-rag-chatbot/internal/core/domain"
	"github.com/Shamas245/book-rag-chatbot/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ConversationStore = (*ConversationStore)(nil)

const conversationPrefix = "conversation:"

// conversationTTL keeps idle histories from accumulating forever.
// Each append refreshes the clock.
const conversationTTL = 30 * 24 * time.Hour

// ConversationStore implements driven.ConversationStore on a Redis
// list per user. Messages are appended with RPUSH so list order is
// chronological.
type ConversationStore struct {
	client *redis.Client
}

// NewConversationStore creates a Redis-backed ConversationStore
func NewConversationStore(client *redis.Client) *ConversationStore {
	return &ConversationStore{client: client}
}

// Append adds messages to the end of the user's history
func (s *ConversationStore) Append(ctx context.Context, userID string, messages ...domain.Message) error {
	if len(messages) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(messages))
	for _, msg := range messages {
		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
		values = append(values, data)
	}

	key := conversationPrefix + userID
	pipe := s.client.Pipeline()
	pipe.RPush(ctx, key, values...)
	pipe.Expire(ctx, key, conversationTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append conversation: %w", err)
	}
	return nil
}

// Recent returns the last n messages, oldest first
func (s *ConversationStore) Recent(ctx context.Context, userID string, n int) ([]domain.Message, error) {
	if n <= 0 {
		return nil, nil
	}

	raw, err := s.client.LRange(ctx, conversationPrefix+userID, int64(-n), -1).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read conversation: %w", err)
	}

	messages := make([]domain.Message, 0, len(raw))
	for _, item := range raw {
		var msg domain.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// Clear removes the user's history
func (s *ConversationStore) Clear(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, conversationPrefix+userID).Err(); err != nil {
		return fmt.Errorf("failed to clear conversation: %w", err)
	}
	return nil
}

package domain

import "time"

// Role identifies who produced a conversation message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DefaultHistoryWindow is how many recent messages the context builder
// folds into the prompt
const DefaultHistoryWindow = 4

// Message is one turn of a user's conversation. The sequence per user
// is append-only; only the most recent window is used for context.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserMessage builds a user-role message stamped now
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content, CreatedAt: time.Now().UTC()}
}

// NewAssistantMessage builds an assistant-role message stamped now
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content, CreatedAt: time.Now().UTC()}
}

// RecentWindow returns the last n messages, oldest first. It returns
// the input slice untouched when it already fits the window.
func RecentWindow(messages []Message, n int) []Message {
	if n <= 0 || len(messages) <= n {
		return messages
	}
	return messages[len(messages)-n:]
}

package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MessageRole represents the sender of a chat message
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Retention limits for chat history
const (
	MaxSessionsPerUser     = 15
	MaxMessagesPerListing  = 200
	SessionTitleMaxLen     = 100
	HistoryTurnsForContext = 10
)

// ChatSession represents an AI conversation thread owned by a single user.
type ChatSession struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"-"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionTitle derives a session title from the first message.
func SessionTitle(message string) string {
	if message == "" {
		return "New chat"
	}
	runes := []rune(message)
	if len(runes) > SessionTitleMaxLen {
		return string(runes[:SessionTitleMaxLen]) + "..."
	}
	return message
}

// ChatMessage is an append-only transcript entry, ordered by creation time.
type ChatMessage struct {
	ID        uuid.UUID   `json:"id"`
	SessionID uuid.UUID   `json:"-"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
}

// SessionRepository defines the interface for chat session storage
type SessionRepository interface {
	Create(ctx context.Context, session *ChatSession) error
	// GetForUser returns (nil, nil) when the session does not exist or
	// belongs to another user.
	GetForUser(ctx context.Context, id, userID uuid.UUID) (*ChatSession, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]ChatSession, error)
	// Touch bumps the session's updated timestamp.
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
	// Prune deletes all but the user's `keep` most recently updated sessions,
	// cascading their messages. Returns the number of sessions removed.
	Prune(ctx context.Context, userID uuid.UUID, keep int) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// MessageRepository defines the interface for chat message storage
type MessageRepository interface {
	Create(ctx context.Context, message *ChatMessage) error
	// ListBySession returns up to limit messages oldest-first.
	ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]ChatMessage, error)
	// ListRecent returns the last `limit` messages in chronological order.
	ListRecent(ctx context.Context, sessionID uuid.UUID, limit int) ([]ChatMessage, error)
}

package history

import (
	"errors"
	"time"

	"github.com/comigor/dermachat-go/internal/chat"
)

var errMemoryOnly = errors.New("history path not configured")

// Message represents a single chat message persisted in SQLite.
type Message struct {
	Seq       int64     `json:"seq"`
	SessionID string    `json:"session_id"`
	MessageID string    `json:"message_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func fromChat(sessionID string, m chat.Message) Message {
	return Message{
		SessionID: sessionID,
		MessageID: m.ID,
		Role:      string(m.Role),
		Content:   m.Content,
		CreatedAt: m.Timestamp.UTC(),
	}
}

// Search results are not stored, so resumed assistant messages carry text only.
func (m Message) toChat() chat.Message {
	return chat.Message{
		ID:        m.MessageID,
		Role:      chat.Role(m.Role),
		Content:   m.Content,
		Timestamp: m.CreatedAt,
	}
}

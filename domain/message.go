package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is a persisted chat event. Once stored it is never mutated
// except for the monotonic growth of ReadBy.
type Message struct {
	ID             uuid.UUID
	ConversationID string
	SenderID       string
	Text           string
	ReadBy         []string
	CreatedAt      time.Time
}

// NewMessage builds a message with the sender as the initial reader.
// The sender has implicitly read their own message.
func NewMessage(conversationID, senderID, text string, at time.Time) Message {
	return Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Text:           text,
		ReadBy:         []string{senderID},
		CreatedAt:      at,
	}
}

// ReadBySet reports whether userID already appears in ReadBy.
func (m Message) ReadBySet(userID string) bool {
	for _, id := range m.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}

// MarkRead appends userID to ReadBy and reports whether the set changed.
// A second call for the same user is a no-op, which is what makes
// duplicate read receipts harmless.
func (m *Message) MarkRead(userID string) bool {
	if m.ReadBySet(userID) {
		return false
	}
	m.ReadBy = append(m.ReadBy, userID)
	return true
}

// Package event defines the outbound events the relay delivers to live
// sessions. Payload shapes match the wire protocol one to one.
package event

import (
	"time"

	"chat-relay/domain"

	"github.com/google/uuid"
)

// DomainEvent is anything the relay can push to a connected user.
type DomainEvent interface {
	EventName() string
}

// MessagePayload is the canonical persisted record as seen on the wire.
type MessagePayload struct {
	ID             uuid.UUID `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	Text           string    `json:"text"`
	ReadBy         []string  `json:"readBy"`
	CreatedAt      time.Time `json:"createdAt"`
}

// FromMessage converts a stored message into its wire payload.
func FromMessage(m domain.Message) MessagePayload {
	return MessagePayload{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Text:           m.Text,
		ReadBy:         m.ReadBy,
		CreatedAt:      m.CreatedAt,
	}
}

// NewMessage is delivered to the sender (self-echo) and to every other
// live participant after a message is persisted.
type NewMessage struct {
	MessagePayload
}

func (NewMessage) EventName() string { return "message:new" }

// TypingStarted and TypingStopped carry ephemeral presence. They are
// never persisted.
type TypingStarted struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
}

func (TypingStarted) EventName() string { return "typing:start" }

type TypingStopped struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
}

func (TypingStopped) EventName() string { return "typing:stop" }

// MessageRead notifies participants that userID has seen messageId for
// the first time.
type MessageRead struct {
	ConversationID string    `json:"conversationId"`
	MessageID      uuid.UUID `json:"messageId"`
	UserID         string    `json:"userId"`
}

func (MessageRead) EventName() string { return "message:read" }

//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"

	"github.com/google/uuid"
)

// CredentialVerifier turns a presented secret into a verified identity.
type CredentialVerifier interface {
	Verify(token string) (domain.Identity, error)
}

// UserStore owns registered accounts.
type UserStore interface {
	Create(user domain.User, passwordHash string) error
	GetByEmail(email string) (domain.User, string, error)
	GetByID(id string) (domain.User, error)
	List() ([]domain.User, error)
}

// ConversationStore owns conversation records. FindByID returns
// errors.ErrConversationNotFound when the id is unknown.
type ConversationStore interface {
	Create(conversation domain.Conversation) error
	FindByID(id string) (domain.Conversation, error)
	FindBilateral(userA, userB string) (domain.Conversation, error)
	ListForUser(userID string) ([]domain.Conversation, error)
}

// MessageStore owns persisted messages. Save is used both for creation
// and for readBy growth; history comes back createdAt-ascending.
type MessageStore interface {
	Save(message domain.Message) error
	FindByID(id uuid.UUID) (domain.Message, error)
	ListByConversation(conversationID string) ([]domain.Message, error)
}

// EventSink is one live connection's inbox. Consume must never block
// the caller; a full sink drops the event.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// SessionRegistry maps a user to their single live session.
type SessionRegistry interface {
	Register(userID string, connID uuid.UUID, sink EventSink)
	Unregister(userID string, connID uuid.UUID)
	Resolve(userID string) (EventSink, bool)
}

package services

import (
	stderrors "errors"
	"time"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"

	"github.com/google/uuid"
)

type IChatService interface {
	ListUsers() ([]domain.User, error)
	OpenConversation(userID, participantID string) (domain.Conversation, error)
	ListConversations(userID string) ([]domain.Conversation, error)
	History(userID, conversationID string) ([]domain.Message, error)
}

// ChatService is the request/response plumbing around the stores:
// account directory, conversation management, and history reads. The
// real-time path never goes through here.
type ChatService struct {
	users         contract.UserStore
	conversations contract.ConversationStore
	messages      contract.MessageStore
}

func NewChatService(users contract.UserStore, conversations contract.ConversationStore,
	messages contract.MessageStore) *ChatService {
	return &ChatService{users: users, conversations: conversations, messages: messages}
}

func (s *ChatService) ListUsers() ([]domain.User, error) {
	return s.users.List()
}

// OpenConversation finds the bilateral conversation between the caller
// and participantID, creating it on first contact. The pair key in the
// store makes this idempotent.
func (s *ChatService) OpenConversation(userID, participantID string) (domain.Conversation, error) {
	if participantID == "" || participantID == userID {
		return domain.Conversation{}, errors.ErrInvalidPayload
	}
	if _, err := s.users.GetByID(participantID); err != nil {
		return domain.Conversation{}, err
	}

	conversation, err := s.conversations.FindBilateral(userID, participantID)
	if err == nil {
		return conversation, nil
	}
	if !stderrors.Is(err, errors.ErrConversationNotFound) {
		return domain.Conversation{}, err
	}

	conversation = domain.Conversation{
		ID:           uuid.NewString(),
		Participants: []string{userID, participantID},
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.conversations.Create(conversation); err != nil {
		return domain.Conversation{}, err
	}
	return conversation, nil
}

func (s *ChatService) ListConversations(userID string) ([]domain.Conversation, error) {
	return s.conversations.ListForUser(userID)
}

// History returns the conversation's messages createdAt-ascending after
// re-validating membership, mirroring the relay's authorization step.
func (s *ChatService) History(userID, conversationID string) ([]domain.Message, error) {
	conversation, err := s.conversations.FindByID(conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(userID) {
		return nil, errors.ErrAccessDenied
	}
	return s.messages.ListByConversation(conversationID)
}

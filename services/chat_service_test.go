package services

import (
	"testing"
	"time"

	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestChatService_OpenConversation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockUsers := mocks.NewMockUserStore(ctrl)
	mockConversations := mocks.NewMockConversationStore(ctrl)
	svc := NewChatService(mockUsers, mockConversations, mocks.NewMockMessageStore(ctrl))

	alice := uuid.NewString()
	bob := uuid.NewString()

	t.Run("should return the existing bilateral conversation", func(t *testing.T) {
		req := require.New(t)
		existing := domain.Conversation{ID: uuid.NewString(), Participants: []string{alice, bob}}

		mockUsers.EXPECT().GetByID(bob).Return(domain.User{ID: bob}, nil)
		mockConversations.EXPECT().FindBilateral(alice, bob).Return(existing, nil)
		mockConversations.EXPECT().Create(gomock.Any()).Times(0)

		conversation, err := svc.OpenConversation(alice, bob)

		req.NoError(err)
		req.Equal(existing, conversation)
	})

	t.Run("should create the conversation on first contact", func(t *testing.T) {
		req := require.New(t)

		mockUsers.EXPECT().GetByID(bob).Return(domain.User{ID: bob}, nil)
		mockConversations.EXPECT().FindBilateral(alice, bob).
			Return(domain.Conversation{}, errors.ErrConversationNotFound)
		var created domain.Conversation
		mockConversations.EXPECT().Create(gomock.Any()).DoAndReturn(func(c domain.Conversation) error {
			created = c
			return nil
		})

		conversation, err := svc.OpenConversation(alice, bob)

		req.NoError(err)
		req.NotEmpty(conversation.ID)
		req.ElementsMatch([]string{alice, bob}, conversation.Participants)
		req.Equal(created, conversation)
	})

	t.Run("should reject opening a conversation with oneself", func(t *testing.T) {
		req := require.New(t)

		_, err := svc.OpenConversation(alice, alice)

		req.ErrorIs(err, errors.ErrInvalidPayload)
	})

	t.Run("should reject an unknown participant", func(t *testing.T) {
		req := require.New(t)
		ghost := uuid.NewString()

		mockUsers.EXPECT().GetByID(ghost).Return(domain.User{}, errors.ErrUserNotFound)

		_, err := svc.OpenConversation(alice, ghost)

		req.ErrorIs(err, errors.ErrUserNotFound)
	})
}

func TestChatService_History(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockConversations := mocks.NewMockConversationStore(ctrl)
	mockMessages := mocks.NewMockMessageStore(ctrl)
	svc := NewChatService(mocks.NewMockUserStore(ctrl), mockConversations, mockMessages)

	alice := uuid.NewString()
	bob := uuid.NewString()
	conversation := domain.Conversation{ID: uuid.NewString(), Participants: []string{alice, bob}}

	t.Run("should return messages for a participant", func(t *testing.T) {
		req := require.New(t)
		stored := []domain.Message{
			domain.NewMessage(conversation.ID, alice, "hello", time.Now().UTC()),
			domain.NewMessage(conversation.ID, bob, "hi", time.Now().UTC()),
		}

		mockConversations.EXPECT().FindByID(conversation.ID).Return(conversation, nil)
		mockMessages.EXPECT().ListByConversation(conversation.ID).Return(stored, nil)

		messages, err := svc.History(alice, conversation.ID)

		req.NoError(err)
		req.Equal(stored, messages)
	})

	t.Run("should deny a non-participant", func(t *testing.T) {
		req := require.New(t)

		mockConversations.EXPECT().FindByID(conversation.ID).Return(conversation, nil)
		mockMessages.EXPECT().ListByConversation(gomock.Any()).Times(0)

		_, err := svc.History(uuid.NewString(), conversation.ID)

		req.ErrorIs(err, errors.ErrAccessDenied)
	})

	t.Run("should report an unknown conversation", func(t *testing.T) {
		req := require.New(t)
		conversationID := uuid.NewString()

		mockConversations.EXPECT().FindByID(conversationID).
			Return(domain.Conversation{}, errors.ErrConversationNotFound)

		_, err := svc.History(alice, conversationID)

		req.ErrorIs(err, errors.ErrConversationNotFound)
	})
}

package repositories

import (
	"testing"
	"time"

	"chat-relay/domain"
	"chat-relay/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func Test_Create_And_Find_Conversation(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewConversationRepository(db)
	conversation := domain.Conversation{
		ID:           uuid.NewString(),
		Participants: []string{"alice", "bob"},
		CreatedAt:    time.Now().UTC(),
	}
	req.NoError(repository.Create(conversation))

	fetched, err := repository.FindByID(conversation.ID)
	req.NoError(err)
	req.Equal(conversation, fetched)

	_, err = repository.FindByID(uuid.NewString())
	req.ErrorIs(err, errors.ErrConversationNotFound)
}

func Test_Create_Conversation_Requires_Two_Participants(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewConversationRepository(db)
	err := repository.Create(domain.Conversation{ID: uuid.NewString(), Participants: []string{"alice"}})

	req.ErrorIs(err, errors.ErrInvalidPayload)
}

func Test_Find_Bilateral_Is_Order_Independent(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewConversationRepository(db)
	conversation := domain.Conversation{
		ID:           uuid.NewString(),
		Participants: []string{"alice", "bob"},
		CreatedAt:    time.Now().UTC(),
	}
	req.NoError(repository.Create(conversation))

	fetched, err := repository.FindBilateral("alice", "bob")
	req.NoError(err)
	req.Equal(conversation.ID, fetched.ID)

	fetched, err = repository.FindBilateral("bob", "alice")
	req.NoError(err)
	req.Equal(conversation.ID, fetched.ID)

	_, err = repository.FindBilateral("alice", "carol")
	req.ErrorIs(err, errors.ErrConversationNotFound)
}

func Test_List_Conversations_For_User(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewConversationRepository(db)
	withBob := domain.Conversation{ID: uuid.NewString(), Participants: []string{"alice", "bob"}, CreatedAt: time.Now().UTC()}
	withCarol := domain.Conversation{ID: uuid.NewString(), Participants: []string{"alice", "carol"}, CreatedAt: time.Now().UTC()}
	bobCarol := domain.Conversation{ID: uuid.NewString(), Participants: []string{"bob", "carol"}, CreatedAt: time.Now().UTC()}
	for _, conversation := range []domain.Conversation{withBob, withCarol, bobCarol} {
		req.NoError(repository.Create(conversation))
	}

	conversations, err := repository.ListForUser("alice")
	req.NoError(err)
	req.Len(conversations, 2)
	req.ElementsMatch(
		[]string{withBob.ID, withCarol.ID},
		[]string{conversations[0].ID, conversations[1].ID})

	conversations, err = repository.ListForUser("nobody")
	req.NoError(err)
	req.Empty(conversations)
}

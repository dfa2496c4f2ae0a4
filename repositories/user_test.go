package repositories

import (
	"testing"
	"time"

	"chat-relay/domain"
	"chat-relay/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func Test_Create_And_Get_User(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewUserRepository(db)
	user := domain.User{
		ID:        uuid.NewString(),
		Username:  "alice",
		Email:     "alice@example.com",
		CreatedAt: time.Now().UTC(),
	}
	req.NoError(repository.Create(user, "argon2-hash"))

	fetched, hash, err := repository.GetByEmail("alice@example.com")
	req.NoError(err)
	req.Equal(user, fetched)
	req.Equal("argon2-hash", hash)

	fetched, err = repository.GetByID(user.ID)
	req.NoError(err)
	req.Equal(user, fetched)
}

func Test_Get_Unknown_User(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewUserRepository(db)

	_, _, err := repository.GetByEmail("ghost@example.com")
	req.ErrorIs(err, errors.ErrUserNotFound)

	_, err = repository.GetByID(uuid.NewString())
	req.ErrorIs(err, errors.ErrUserNotFound)
}

func Test_Create_User_Enforces_Uniqueness(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewUserRepository(db)
	user := domain.User{ID: uuid.NewString(), Username: "alice", Email: "alice@example.com", CreatedAt: time.Now().UTC()}
	req.NoError(repository.Create(user, "hash"))

	sameEmail := domain.User{ID: uuid.NewString(), Username: "alice2", Email: "alice@example.com"}
	req.ErrorIs(repository.Create(sameEmail, "hash"), errors.ErrUserAlreadyExists)

	sameName := domain.User{ID: uuid.NewString(), Username: "alice", Email: "other@example.com"}
	req.ErrorIs(repository.Create(sameName, "hash"), errors.ErrUserAlreadyExists)
}

func Test_List_Users_Sorted_By_Username(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewUserRepository(db)
	now := time.Now().UTC()
	for _, name := range []string{"carol", "alice", "bob"} {
		user := domain.User{ID: uuid.NewString(), Username: name, Email: name + "@example.com", CreatedAt: now}
		req.NoError(repository.Create(user, "hash"))
	}

	users, err := repository.List()
	req.NoError(err)
	req.Len(users, 3)
	req.Equal("alice", users[0].Username)
	req.Equal("bob", users[1].Username)
	req.Equal("carol", users[2].Username)
}

package auth

import (
	"testing"
	"time"

	"chat-relay/domain"
	"chat-relay/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_Generate_And_Verify(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager("test-secret", 24*time.Hour)
	user := domain.User{
		ID:       uuid.NewString(),
		Username: "alice",
		Email:    "alice@example.com",
	}

	token, err := manager.Generate(user)
	req.NoError(err)
	req.NotEmpty(token)

	identity, err := manager.Verify(token)
	req.NoError(err)
	req.Equal(user.ID, identity.ID)
	req.Equal(user.Username, identity.Username)
	req.Equal(user.Email, identity.Email)
}

func TestTokenManager_Verify_Rejects_Garbage(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager("test-secret", 24*time.Hour)

	_, err := manager.Verify("not.a.token")
	req.ErrorIs(err, errors.ErrAuthentication)

	_, err = manager.Verify("")
	req.ErrorIs(err, errors.ErrAuthentication)
}

func TestTokenManager_Verify_Rejects_Wrong_Secret(t *testing.T) {
	req := require.New(t)
	signer := NewTokenManager("secret-a", 24*time.Hour)
	verifier := NewTokenManager("secret-b", 24*time.Hour)

	token, err := signer.Generate(domain.User{ID: uuid.NewString(), Username: "alice"})
	req.NoError(err)

	_, err = verifier.Verify(token)
	req.ErrorIs(err, errors.ErrAuthentication)
}

func TestTokenManager_Verify_Rejects_Expired_Token(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager("test-secret", -time.Minute)

	token, err := manager.Generate(domain.User{ID: uuid.NewString(), Username: "alice"})
	req.NoError(err)

	_, err = manager.Verify(token)
	req.ErrorIs(err, errors.ErrAuthentication)
}

func TestHashPassword_And_Compare(t *testing.T) {
	req := require.New(t)

	hash, err := HashPassword("Secret123456!")
	req.NoError(err)
	req.NotEqual("Secret123456!", hash)

	ok, err := ComparePassword("Secret123456!", hash)
	req.NoError(err)
	req.True(ok)

	ok, err = ComparePassword("WrongPassword!", hash)
	req.NoError(err)
	req.False(ok)
}

func TestHashPassword_Salts_Every_Hash(t *testing.T) {
	req := require.New(t)

	first, err := HashPassword("Secret123456!")
	req.NoError(err)
	second, err := HashPassword("Secret123456!")
	req.NoError(err)

	req.NotEqual(first, second)
}

func TestValidateRegister(t *testing.T) {
	t.Run("should accept a well-formed request", func(t *testing.T) {
		req := require.New(t)
		err := ValidateRegister(RegisterRequest{
			Username: "alice",
			Email:    "alice@example.com",
			Password: "Secret123456!",
		})
		req.NoError(err)
	})

	t.Run("should reject a short username", func(t *testing.T) {
		req := require.New(t)
		err := ValidateRegister(RegisterRequest{
			Username: "al",
			Email:    "alice@example.com",
			Password: "Secret123456!",
		})
		req.ErrorIs(err, errors.ErrInvalidPayload)
	})

	t.Run("should reject a malformed email", func(t *testing.T) {
		req := require.New(t)
		err := ValidateRegister(RegisterRequest{
			Username: "alice",
			Email:    "not-an-email",
			Password: "Secret123456!",
		})
		req.ErrorIs(err, errors.ErrInvalidPayload)
	})

	t.Run("should reject a short password", func(t *testing.T) {
		req := require.New(t)
		err := ValidateRegister(RegisterRequest{
			Username: "alice",
			Email:    "alice@example.com",
			Password: "short",
		})
		req.ErrorIs(err, errors.ErrInvalidPayload)
	})
}

func TestValidateLogin(t *testing.T) {
	req := require.New(t)

	req.NoError(ValidateLogin(LoginRequest{Email: "alice@example.com", Password: "Secret123456!"}))
	req.ErrorIs(ValidateLogin(LoginRequest{Email: "", Password: "Secret123456!"}), errors.ErrInvalidPayload)
	req.ErrorIs(ValidateLogin(LoginRequest{Email: "alice@example.com", Password: ""}), errors.ErrInvalidPayload)
}

package services

import (
	"fmt"
	"time"

	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"

	"github.com/google/uuid"
)

type IAuthService interface {
	Register(req auth.RegisterRequest) (Token, domain.User, error)
	Login(req auth.LoginRequest) (Token, domain.User, error)
}

type Token string

type AuthService struct {
	users  contract.UserStore
	tokens *auth.TokenManager
}

func NewAuthService(users contract.UserStore, tokens *auth.TokenManager) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// Register validates the input, hashes the password, persists the
// account, and issues the initial session token. Hashing happens in the
// service layer to keep the repository unaware of plain passwords.
func (s *AuthService) Register(req auth.RegisterRequest) (Token, domain.User, error) {
	if err := auth.ValidateRegister(req); err != nil {
		return "", domain.User{}, err
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("hashing failed: %w", err)
	}

	user := domain.User{
		ID:        uuid.NewString(),
		Username:  req.Username,
		Email:     req.Email,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.users.Create(user, hashedPassword); err != nil {
		return "", domain.User{}, err // propagates ErrUserAlreadyExists
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return "", domain.User{}, errors.ErrTokenGeneration
	}
	return Token(token), user, nil
}

// Login verifies credentials and returns a session token. Lookup and
// comparison failures collapse into the same error to prevent user
// enumeration.
func (s *AuthService) Login(req auth.LoginRequest) (Token, domain.User, error) {
	if err := auth.ValidateLogin(req); err != nil {
		return "", domain.User{}, err
	}

	user, passwordHash, err := s.users.GetByEmail(req.Email)
	if err != nil {
		return "", domain.User{}, errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(req.Password, passwordHash)
	if err != nil || !match {
		return "", domain.User{}, errors.ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return "", domain.User{}, errors.ErrTokenGeneration
	}
	return Token(token), user, nil
}

package httpapi

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"

	"github.com/samber/lo"
)

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type conversationResponse struct {
	ID           string    `json:"id"`
	Participants []string  `json:"participants"`
	CreatedAt    time.Time `json:"createdAt"`
}

type openConversationRequest struct {
	ParticipantID string `json:"participantId"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid data")
		return
	}

	token, user, err := s.auth.Register(req)
	if err != nil {
		s.writeAccountError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{Token: string(token), User: toUserResponse(user)})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid data")
		return
	}

	token, user, err := s.auth.Login(req)
	if err != nil {
		s.writeAccountError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: string(token), User: toUserResponse(user)})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.chat.ListUsers()
	if err != nil {
		s.log.Error("user listing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, lo.Map(users, func(u domain.User, _ int) userResponse {
		return toUserResponse(u)
	}))
}

func (s *Server) handleOpenConversation(w http.ResponseWriter, r *http.Request) {
	var req openConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid data")
		return
	}

	conversation, err := s.chat.OpenConversation(identityFrom(r).ID, req.ParticipantID)
	switch {
	case stderrors.Is(err, errors.ErrInvalidPayload):
		writeError(w, http.StatusBadRequest, "Invalid data")
		return
	case stderrors.Is(err, errors.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found")
		return
	case err != nil:
		s.log.Error("conversation open failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, toConversationResponse(conversation))
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	conversations, err := s.chat.ListConversations(identityFrom(r).ID)
	if err != nil {
		s.log.Error("conversation listing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, lo.Map(conversations, func(c domain.Conversation, _ int) conversationResponse {
		return toConversationResponse(c)
	}))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	messages, err := s.chat.History(identityFrom(r).ID, r.PathValue("id"))
	switch {
	case stderrors.Is(err, errors.ErrConversationNotFound):
		writeError(w, http.StatusNotFound, "Conversation not found")
		return
	case stderrors.Is(err, errors.ErrAccessDenied):
		writeError(w, http.StatusForbidden, "Access denied")
		return
	case err != nil:
		s.log.Error("history read failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, lo.Map(messages, func(m domain.Message, _ int) event.MessagePayload {
		return event.FromMessage(m)
	}))
}

func (s *Server) writeAccountError(w http.ResponseWriter, err error) {
	switch {
	case stderrors.Is(err, errors.ErrInvalidPayload):
		writeError(w, http.StatusBadRequest, err.Error())
	case stderrors.Is(err, errors.ErrUserAlreadyExists):
		writeError(w, http.StatusConflict, "Username or email already in use")
	case stderrors.Is(err, errors.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
	default:
		s.log.Error("account operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Server error")
	}
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, Email: u.Email}
}

func toConversationResponse(c domain.Conversation) conversationResponse {
	return conversationResponse{ID: c.ID, Participants: c.Participants, CreatedAt: c.CreatedAt}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

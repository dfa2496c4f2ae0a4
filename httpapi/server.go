// Package httpapi exposes the request/response surface around the
// relay: account registration and login, the user directory, and
// conversation history. The real-time path lives in ws.
package httpapi

import (
	"log/slog"
	"net/http"

	"chat-relay/contract"
	"chat-relay/services"
)

type Server struct {
	log      *slog.Logger
	auth     services.IAuthService
	chat     services.IChatService
	verifier contract.CredentialVerifier
}

func NewServer(log *slog.Logger, auth services.IAuthService,
	chat services.IChatService, verifier contract.CredentialVerifier) *Server {
	return &Server{log: log, auth: auth, chat: chat, verifier: verifier}
}

// Routes configures the ServeMux with all application routes; the
// websocket handler is mounted by the caller alongside these.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.Handle("GET /users", s.authenticated(s.handleListUsers))
	mux.Handle("POST /conversations", s.authenticated(s.handleOpenConversation))
	mux.Handle("GET /conversations", s.authenticated(s.handleListConversations))
	mux.Handle("GET /conversations/{id}/messages", s.authenticated(s.handleHistory))
	mux.HandleFunc("GET /healthz", s.handleHealth)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("chat-relay is running"))
}

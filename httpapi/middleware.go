package httpapi

import (
	"context"
	"net/http"
	"strings"

	"chat-relay/domain"
)

type contextKey string

const identityKey contextKey = "identity"

// authenticated verifies the bearer token and injects the resulting
// identity into the request context for downstream handlers.
func (s *Server) authenticated(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" || token == header {
			writeError(w, http.StatusUnauthorized, "Missing token")
			return
		}

		identity, err := s.verifier.Verify(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func identityFrom(r *http.Request) domain.Identity {
	identity, _ := r.Context().Value(identityKey).(domain.Identity)
	return identity
}

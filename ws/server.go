package ws

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"chat-relay/contract"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin enforcement is delegated to the deployment's reverse proxy.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Server upgrades authenticated HTTP requests into live sessions. The
// credential is verified before the upgrade; a rejected handshake never
// touches the registry.
type Server struct {
	log        *slog.Logger
	verifier   contract.CredentialVerifier
	registry   contract.SessionRegistry
	router     *Router
	bufferSize int

	mu      sync.Mutex
	clients map[*Client]struct{}
}

func NewServer(log *slog.Logger, verifier contract.CredentialVerifier,
	registry contract.SessionRegistry, router *Router, bufferSize int) *Server {
	return &Server{
		log:        log,
		verifier:   verifier,
		registry:   registry,
		router:     router,
		bufferSize: bufferSize,
		clients:    make(map[*Client]struct{}),
	}
}

// Handler serves the /ws endpoint.
func (s *Server) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := handshakeToken(r)
		if token == "" {
			http.Error(w, "Authentication error: Missing token", http.StatusUnauthorized)
			return
		}
		identity, err := s.verifier.Verify(token)
		if err != nil {
			http.Error(w, "Authentication error: Invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.log.Error("websocket upgrade failed", "error", err)
			return
		}

		client := newClient(conn, identity, s.bufferSize, s.router, s.log, s.release)
		s.mu.Lock()
		s.clients[client] = struct{}{}
		s.mu.Unlock()

		// A fresh connection for the same user overwrites the old
		// registry entry; the old session keeps draining until its own
		// teardown, which cannot evict this one.
		s.registry.Register(identity.ID, client.id, client)
		s.log.Info("session established",
			"user_id", identity.ID, "conn_id", client.id.String())

		client.run(r.Context())
	}
}

// release is invoked exactly once per client teardown.
func (s *Server) release(c *Client) {
	s.registry.Unregister(c.identity.ID, c.id)
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
}

// Close tears down every live connection during shutdown.
func (s *Server) Close() {
	s.mu.Lock()
	clients := make([]*Client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

// handshakeToken pulls the credential from the token query parameter,
// with an Authorization bearer fallback.
func handshakeToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	header := r.Header.Get("Authorization")
	return strings.TrimPrefix(header, "Bearer ")
}

package relay

import (
	"sync"

	"chat-relay/contract"

	"github.com/google/uuid"
)

type session struct {
	connID uuid.UUID
	sink   contract.EventSink
}

// Registry is the process-wide mapping from user id to the single live
// session for that user. It is the only state shared across connection
// goroutines; every access is a point operation under the mutex.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]session)}
}

// Register binds userID to a live session, overwriting any previous
// entry. A reconnecting user therefore always resolves to the newest
// connection.
func (r *Registry) Register(userID string, connID uuid.UUID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[userID] = session{connID: connID, sink: sink}
}

// Unregister removes the mapping only while it still belongs to the
// connection being torn down. A delayed disconnect of an old session
// cannot evict the session that replaced it.
func (r *Registry) Unregister(userID string, connID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.sessions[userID]; ok && current.connID == connID {
		delete(r.sessions, userID)
	}
}

// Resolve returns the live sink for userID, if any. Every outbound
// routing decision goes through here.
func (r *Registry) Resolve(userID string) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	current, ok := r.sessions[userID]
	if !ok {
		return nil, false
	}
	return current.sink, true
}

// Count reports the number of live sessions, for operator stats.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

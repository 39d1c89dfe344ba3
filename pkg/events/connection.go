package events

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// ConnectionManager counts active streaming (SSE and WebSocket)
// connections and issues connection ids; the count is exposed through
// ActiveCount and is not reported by the health endpoint. Actual message
// pumping lives in the api package's handlers, which hold the
// RunLog/GraphBroadcaster subscription directly — this type's job is
// bookkeeping, not transport, since our domain has no cross-pod NOTIFY
// to coordinate.
type ConnectionManager struct {
	active int64

	mu    sync.Mutex
	byID  map[string]struct{}
}

// NewConnectionManager constructs an empty manager.
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{byID: make(map[string]struct{})}
}

// Register allocates a connection id and returns it plus a deregister
// func the caller must invoke when the connection closes.
func (m *ConnectionManager) Register() (id string, deregister func()) {
	id = uuid.NewString()
	m.mu.Lock()
	m.byID[id] = struct{}{}
	m.mu.Unlock()
	atomic.AddInt64(&m.active, 1)

	return id, func() {
		m.mu.Lock()
		delete(m.byID, id)
		m.mu.Unlock()
		atomic.AddInt64(&m.active, -1)
	}
}

// ActiveCount returns the number of currently registered connections.
func (m *ConnectionManager) ActiveCount() int {
	return int(atomic.LoadInt64(&m.active))
}

// Package registry owns the process-wide userId↔socketId connection
// map. At most one live socket per userId at any moment; rebinding a
// user atomically displaces the previous socket.
package registry

import "sync"

// ConnectionRegistry is the single authoritative map from users to
// their live sockets. All updates are atomic under one mutex.
type ConnectionRegistry struct {
	mu       sync.Mutex
	byUser   map[string]string // userID -> socketID
	bySocket map[string]string // socketID -> userID
}

func New() *ConnectionRegistry {
	return &ConnectionRegistry{
		byUser:   map[string]string{},
		bySocket: map[string]string{},
	}
}

// Bind associates userID with socketID, returning the socketID it
// displaced ("" if none). Binding the same pair again is a no-op.
func (r *ConnectionRegistry) Bind(userID, socketID string) (displaced string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.byUser[userID]
	if old == socketID {
		return ""
	}
	if old != "" {
		delete(r.bySocket, old)
	}
	r.byUser[userID] = socketID
	r.bySocket[socketID] = userID
	return old
}

// Unbind removes the socket's binding. It is a no-op if the socket was
// already displaced by a newer one, so a stale disconnect never evicts
// a live binding.
func (r *ConnectionRegistry) Unbind(userID, socketID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byUser[userID] != socketID {
		return false
	}
	delete(r.byUser, userID)
	delete(r.bySocket, socketID)
	return true
}

// SocketFor returns the live socket for a user, if any.
func (r *ConnectionRegistry) SocketFor(userID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byUser[userID]
	return id, ok
}

// UserFor returns the user bound to a socket, if any.
func (r *ConnectionRegistry) UserFor(socketID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.bySocket[socketID]
	return id, ok
}

// Len reports how many users are currently bound.
func (r *ConnectionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byUser)
}

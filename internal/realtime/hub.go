package realtime

import "sync"

// Message is the lightweight payload pushed to connected sessions.
type Message struct {
	Kind    string         `json:"kind"`
	ActorID uint           `json:"actor_id,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// Hub is the presence registry: a mapping from user identity to the set
// of currently-connected sessions. Delivery is at-most-once and
// best-effort; a user with no live sessions simply misses the message
// (the notification ledger is the durable path). The hub is constructed
// explicitly and injected wherever publishing is needed.
type Hub struct {
	mu       sync.RWMutex
	sessions map[uint]map[*Session]struct{}
}

func NewHub() *Hub {
	return &Hub{sessions: make(map[uint]map[*Session]struct{})}
}

// Join registers a session under the given identity. Joining the same
// session twice is a no-op.
func (h *Hub) Join(userID uint, s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.sessions[userID]
	if !ok {
		set = make(map[*Session]struct{})
		h.sessions[userID] = set
	}
	set[s] = struct{}{}
	s.userID = userID
}

// Leave removes the session from whatever identity it was registered
// under. Removing the last session leaves the identity with no presence.
func (h *Hub) Leave(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.sessions[s.userID]
	if !ok {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(h.sessions, s.userID)
	}
}

// Publish delivers msg to every session currently registered for userID.
// No sessions registered is a silent no-op. Sends never block: a session
// whose buffer is full drops the message.
func (h *Hub) Publish(userID uint, msg Message) {
	h.mu.RLock()
	set := h.sessions[userID]
	targets := make([]*Session, 0, len(set))
	for s := range set {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	for _, s := range targets {
		s.push(msg)
	}
}

// IsOnline reports whether the identity has at least one live session.
func (h *Hub) IsOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[userID]) > 0
}

// SessionCount returns the number of live sessions for an identity.
func (h *Hub) SessionCount(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[userID])
}

package meeting

import (
	"sync"
	"time"
)

type connEntry struct {
	conn   Connection
	outbox Outbox
}

// Registry is the single source of truth for who a connection is and
// which room it is in.
type Registry struct {
	mu    sync.RWMutex
	conns map[ConnID]*connEntry
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[ConnID]*connEntry)}
}

// Register records an unidentified connection. Registering an id twice
// replaces the outbox and resets the record.
func (r *Registry) Register(id ConnID, out Outbox) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = &connEntry{conn: Connection{ID: id}, outbox: out}
}

func (r *Registry) Identify(id ConnID, participantID, displayName string, role Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return ErrUnknownConnection
	}
	e.conn.ParticipantID = participantID
	e.conn.DisplayName = displayName
	e.conn.Role = role
	return nil
}

func (r *Registry) Lookup(id ConnID) (Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok {
		return Connection{}, false
	}
	return e.conn, true
}

// Remove is idempotent: a second call reports false.
func (r *Registry) Remove(id ConnID) (Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return Connection{}, false
	}
	delete(r.conns, id)
	return e.conn, true
}

func (r *Registry) SetMedia(id ConnID, kind MediaKind, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return ErrUnknownConnection
	}
	switch kind {
	case MediaAudio:
		e.conn.AudioEnabled = enabled
	case MediaVideo:
		e.conn.VideoEnabled = enabled
	default:
		return ErrUnknownMediaKind
	}
	return nil
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (r *Registry) bindRoom(id ConnID, roomID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return ErrUnknownConnection
	}
	e.conn.RoomID = roomID
	e.conn.JoinedAt = at
	e.conn.AudioEnabled = true
	e.conn.VideoEnabled = true
	return nil
}

// unbindRoom drops room and participant identity but keeps the record and
// its display name so the client can join again.
func (r *Registry) unbindRoom(id ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return
	}
	e.conn.RoomID = ""
	e.conn.ParticipantID = ""
	e.conn.Role = ""
	e.conn.JoinedAt = time.Time{}
}

func (r *Registry) outbox(id ConnID) (Outbox, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok || e.outbox == nil {
		return nil, false
	}
	return e.outbox, true
}

// room/room.go
package room

import (
	"sync"
	"time"

	"github.com/ringline/gameserver/session"
)

// Room 是一个对局的连接集合
// A room exists only while connections are attached to a game; the game
// session itself lives and dies independently.
type Room struct {
	GameID     string
	CreatedAt  time.Time
	players    map[string]*session.Session // sessionID -> session (seated participants)
	spectators map[string]*session.Session // sessionID -> session
	cached     []byte                      // last authoritative state, replayed to joiners
	mutex      sync.RWMutex
}

func NewRoom(gameID string) *Room {
	return &Room{
		GameID:     gameID,
		CreatedAt:  time.Now(),
		players:    make(map[string]*session.Session),
		spectators: make(map[string]*session.Session),
	}
}

// AddPlayer admits a seated participant's connection.
func (r *Room) AddPlayer(s *session.Session) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.players[s.ID] = s
}

// AddSpectator admits a non-participant connection.
func (r *Room) AddSpectator(s *session.Session) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.spectators[s.ID] = s
}

// Remove drops a connection from either partition. Returns whether it was
// present.
func (r *Room) Remove(sessionID string) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, ok := r.players[sessionID]; ok {
		delete(r.players, sessionID)
		return true
	}
	if _, ok := r.spectators[sessionID]; ok {
		delete(r.spectators, sessionID)
		return true
	}
	return false
}

// HasPlayer reports whether any connection for playerID currently sits in
// the player partition.
func (r *Room) HasPlayer(playerID string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	for _, s := range r.players {
		if s.PlayerID() == playerID {
			return true
		}
	}
	return false
}

// Sessions returns a snapshot of every connection in the room.
func (r *Room) Sessions() []*session.Session {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	sessions := make([]*session.Session, 0, len(r.players)+len(r.spectators))
	for _, s := range r.players {
		sessions = append(sessions, s)
	}
	for _, s := range r.spectators {
		sessions = append(sessions, s)
	}
	return sessions
}

// Empty reports whether no connection remains.
func (r *Room) Empty() bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.players) == 0 && len(r.spectators) == 0
}

// PlayerCount returns the seated-connection count.
func (r *Room) PlayerCount() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.players)
}

// SetCachedState stores the latest authoritative state for replay to the
// next connection that joins.
func (r *Room) SetCachedState(state []byte) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.cached = state
}

// CachedState returns the last stored state, nil if none yet.
func (r *Room) CachedState() []byte {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.cached
}

// Manager 管理所有房间
type Manager struct {
	rooms map[string]*Room // gameID -> room
	mutex sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		rooms: make(map[string]*Room),
	}
}

// GetOrCreate returns the room for a game, creating it lazily on the
// first join.
func (m *Manager) GetOrCreate(gameID string) *Room {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if room, exists := m.rooms[gameID]; exists {
		return room
	}
	room := NewRoom(gameID)
	m.rooms[gameID] = room
	return room
}

func (m *Manager) Get(gameID string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	room, exists := m.rooms[gameID]
	return room, exists
}

// RemoveIfEmpty deletes the room when its last connection has left.
// Returns whether a deletion happened.
func (m *Manager) RemoveIfEmpty(gameID string) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	room, exists := m.rooms[gameID]
	if !exists || !room.Empty() {
		return false
	}
	delete(m.rooms, gameID)
	return true
}

// Remove deletes a room unconditionally.
func (m *Manager) Remove(gameID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.rooms, gameID)
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}

// session/session.go
package session

import (
	"sync"
	"time"

	"github.com/ringline/gameserver/network"
)

// Session is one live transport connection. The player and game identity
// stays empty until the connection identifies itself / joins a game; both
// are read from timer and broadcast goroutines, so access goes through the
// mutex-guarded accessors.
type Session struct {
	ID            string
	Conn          network.Connection
	CreatedAt     time.Time
	playerID      string
	gameID        string
	spectator     bool
	lastHeartbeat time.Time
	lastMoveAt    time.Time
	alive         bool
	mutex         sync.RWMutex
}

func NewSession(id string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:            id,
		Conn:          conn,
		CreatedAt:     now,
		lastHeartbeat: now,
		alive:         true,
	}
}

func (s *Session) Send(msgID uint16, data []byte) error {
	return s.Conn.Send(msgID, data)
}

func (s *Session) GetID() string {
	return s.ID
}

// BindPlayer fixes the session's player identity. The first call wins;
// later calls only succeed with the same id.
func (s *Session) BindPlayer(playerID string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.playerID == "" {
		s.playerID = playerID
		return true
	}
	return s.playerID == playerID
}

// PlayerID returns the bound player id, "" while unidentified.
func (s *Session) PlayerID() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.playerID
}

// GameID returns the joined game id, "" while outside any room.
func (s *Session) GameID() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.gameID
}

// Spectator reports whether the session joined its game without a seat.
func (s *Session) Spectator() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.spectator
}

// SetGame records which game the session is attached to.
func (s *Session) SetGame(gameID string, spectator bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.gameID = gameID
	s.spectator = spectator
}

// LeaveGame clears the game attachment and returns what it was.
func (s *Session) LeaveGame() (gameID string, spectator bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	gameID, spectator = s.gameID, s.spectator
	s.gameID = ""
	s.spectator = false
	return gameID, spectator
}

// Heartbeat records a liveness signal from the client.
func (s *Session) Heartbeat() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.lastHeartbeat = time.Now()
	s.alive = true
}

// MarkDead flags the session as failed; the next sweep evicts it.
func (s *Session) MarkDead() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.alive = false
}

// Alive reports whether the session answered a ping within the last
// interval. One missed interval is enough to presume the session dead.
func (s *Session) Alive(interval time.Duration) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.alive && time.Since(s.lastHeartbeat) <= interval
}

// AllowMove applies the per-player minimum move interval. It only advances
// the window when the move is allowed, so a throttled client cannot push
// its own window forward.
func (s *Session) AllowMove(minInterval time.Duration) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	now := time.Now()
	if now.Sub(s.lastMoveAt) < minInterval {
		return false
	}
	s.lastMoveAt = now
	return true
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Manager keeps all live sessions, indexed by session id.
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

// GetByPlayerID returns every session bound to a player. Normally at most
// one, but reconnection races can briefly produce two.
func (m *Manager) GetByPlayerID(playerID string) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*Session
	for _, session := range m.sessions {
		if session.PlayerID() == playerID {
			result = append(result, session)
		}
	}
	return result
}

// All returns a snapshot of every live session.
func (m *Manager) All() []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	result := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}

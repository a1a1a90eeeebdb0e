package room

import (
	"net"
	"testing"
	"time"

	"github.com/ringline/gameserver/network"
	"github.com/ringline/gameserver/session"
)

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct{}

func (m *MockConnection) Send(msgID uint16, data []byte) error { return nil }
func (m *MockConnection) Close() error                         { return nil }
func (m *MockConnection) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration)  {}
func (m *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }

func newTestSession(id, playerID string) *session.Session {
	s := session.NewSession(id, &MockConnection{})
	s.BindPlayer(playerID)
	return s
}

func TestManager_LazyCreation(t *testing.T) {
	manager := NewManager()

	if _, exists := manager.Get("game1"); exists {
		t.Fatal("room should not exist before first join")
	}

	room := manager.GetOrCreate("game1")
	if room == nil {
		t.Fatal("GetOrCreate should not return nil")
	}
	if again := manager.GetOrCreate("game1"); again != room {
		t.Error("GetOrCreate should be idempotent per game id")
	}
	if manager.Count() != 1 {
		t.Errorf("expected 1 room, got %d", manager.Count())
	}
}

func TestRoom_Partitions(t *testing.T) {
	room := NewRoom("game1")
	player := newTestSession("conn1", "alice")
	spectator := newTestSession("conn2", "carol")

	room.AddPlayer(player)
	room.AddSpectator(spectator)

	if !room.HasPlayer("alice") {
		t.Error("alice should be in the player partition")
	}
	if room.HasPlayer("carol") {
		t.Error("spectator must not count as a player")
	}
	if room.PlayerCount() != 1 {
		t.Errorf("expected 1 seated connection, got %d", room.PlayerCount())
	}
	if got := len(room.Sessions()); got != 2 {
		t.Errorf("expected 2 total connections, got %d", got)
	}
}

func TestRoom_RemoveAndTeardown(t *testing.T) {
	manager := NewManager()
	room := manager.GetOrCreate("game1")
	player := newTestSession("conn1", "alice")
	room.AddPlayer(player)

	if manager.RemoveIfEmpty("game1") {
		t.Fatal("non-empty room must not be deleted")
	}

	if !room.Remove("conn1") {
		t.Fatal("Remove should report presence")
	}
	if room.Remove("conn1") {
		t.Fatal("second Remove should report absence")
	}

	if !manager.RemoveIfEmpty("game1") {
		t.Fatal("empty room should be deleted")
	}
	if _, exists := manager.Get("game1"); exists {
		t.Fatal("room should be gone after teardown")
	}
}

func TestRoom_CachedState(t *testing.T) {
	room := NewRoom("game1")
	if room.CachedState() != nil {
		t.Error("new room should have no cached state")
	}
	room.SetCachedState([]byte(`{"phase":"placement"}`))
	if string(room.CachedState()) != `{"phase":"placement"}` {
		t.Error("cached state not stored")
	}
}

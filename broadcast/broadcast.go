// broadcast/broadcast.go
package broadcast

import (
	"errors"

	"github.com/ringline/gameserver/room"
	"github.com/ringline/gameserver/session"
)

var (
	ErrRoomNotFound = errors.New("room not found")
)

// 广播接口
type Broadcaster interface {
	BroadcastToRoom(gameID string, msgID uint16, data []byte) error
	BroadcastToPlayer(playerID string, msgID uint16, data []byte) error
}

// 基于房间的广播器
type RoomBroadcaster struct {
	roomManager    *room.Manager
	sessionManager *session.Manager
}

func NewRoomBroadcaster(roomManager *room.Manager, sessionManager *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{
		roomManager:    roomManager,
		sessionManager: sessionManager,
	}
}

// BroadcastToRoom sends a message to every connection in a game's room,
// players and spectators alike. Send failures on individual connections
// are skipped; the heartbeat sweep evicts them.
func (b *RoomBroadcaster) BroadcastToRoom(gameID string, msgID uint16, data []byte) error {
	r, exists := b.roomManager.Get(gameID)
	if !exists {
		return ErrRoomNotFound
	}

	for _, s := range r.Sessions() {
		if err := s.Send(msgID, data); err != nil {
			s.MarkDead()
			continue
		}
	}

	return nil
}

// BroadcastToPlayer sends a message to every live connection a player
// holds.
func (b *RoomBroadcaster) BroadcastToPlayer(playerID string, msgID uint16, data []byte) error {
	for _, s := range b.sessionManager.GetByPlayerID(playerID) {
		if err := s.Send(msgID, data); err != nil {
			s.MarkDead()
			continue
		}
	}
	return nil
}

// services/player_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/ringline/gameserver/models"
	"github.com/ringline/gameserver/persistence"
)

var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrPlayerInactive = errors.New("player is inactive or suspended")
)

// PlayerService is the player directory consumed by matchmaking and the
// sync layer.
type PlayerService struct {
	store persistence.Store
}

func NewPlayerService(store persistence.Store) *PlayerService {
	return &PlayerService{store: store}
}

// GetPlayer returns the directory record for an active player. Inactive
// and suspended players are rejected here so no engine ever sees them.
func (s *PlayerService) GetPlayer(playerID string) (*models.Player, error) {
	player, err := s.store.GetPlayer(playerID)
	if err != nil {
		if errors.Is(err, persistence.ErrRecordNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("load player %s: %w", playerID, err)
	}
	if player.Status != models.PlayerStatusActive {
		return nil, ErrPlayerInactive
	}
	return player, nil
}

// GetRating returns the rating record for a player regardless of status;
// finished matches are settled even for players suspended mid-game.
func (s *PlayerService) GetRating(playerID string) (*models.RatingRecord, error) {
	rec, err := s.store.GetRating(playerID)
	if err != nil {
		if errors.Is(err, persistence.ErrRecordNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("load rating %s: %w", playerID, err)
	}
	return rec, nil
}

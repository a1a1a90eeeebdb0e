// models/models.go
package models

import (
	"time"
)

// PlayerStatus is the account state kept by the player directory.
type PlayerStatus string

const (
	PlayerStatusActive    PlayerStatus = "active"
	PlayerStatusInactive  PlayerStatus = "inactive"
	PlayerStatusSuspended PlayerStatus = "suspended"
)

// Player is the directory view of one player.
type Player struct {
	ID          string       `json:"id"`
	DisplayName string       `json:"display_name"`
	Rating      int          `json:"rating"`
	GamesPlayed int          `json:"games_played"`
	Status      PlayerStatus `json:"status"`
}

// Preferences is the matchmaking preference set attached to a queue entry.
// The ranked flag and game mode gate pairing; the spectator flag does not.
type Preferences struct {
	Ranked          bool   `json:"ranked"`
	GameMode        string `json:"game_mode"`
	AllowSpectators bool   `json:"allow_spectators"`
}

// Match is the persisted record of a formed pairing. Immutable after
// creation except for the terminal fields, written once at game end.
type Match struct {
	ID        string    `json:"id"`
	Seat1ID   string    `json:"seat1_id"`
	Seat2ID   string    `json:"seat2_id"`
	GameMode  string    `json:"game_mode"`
	Ranked    bool      `json:"ranked"`
	CreatedAt time.Time `json:"created_at"`

	// Terminal fields, nil/zero until the session finishes.
	WinnerSeat int        `json:"winner_seat,omitempty"` // 0 = none/draw
	EndedAt    *time.Time `json:"ended_at,omitempty"`
}

// SeatOf returns the seat number (1 or 2) for a player id, or 0 if the
// player is not a participant.
func (m *Match) SeatOf(playerID string) int {
	switch playerID {
	case m.Seat1ID:
		return 1
	case m.Seat2ID:
		return 2
	}
	return 0
}

// Opponent returns the other participant's id, or "" for non-participants.
func (m *Match) Opponent(playerID string) string {
	switch playerID {
	case m.Seat1ID:
		return m.Seat2ID
	case m.Seat2ID:
		return m.Seat1ID
	}
	return ""
}

// RatingRecord is the per-player rating state read before a match and
// written once after it concludes.
type RatingRecord struct {
	PlayerID    string `json:"player_id"`
	Rating      int    `json:"rating"`
	PeakRating  int    `json:"peak_rating"`
	GamesPlayed int    `json:"games_played"`
}

// Outcome is one player's result of a finished match.
type Outcome struct {
	PlayerID    string  `json:"player_id"`
	MatchID     string  `json:"match_id"`
	Result      string  `json:"result"` // win/lose/draw
	RatingDelta int     `json:"rating_delta"`
	Score       float64 `json:"score"` // 1, 0.5, 0
}

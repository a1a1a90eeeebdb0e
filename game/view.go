// game/view.go
package game

import "time"

// StateView is the wire representation of a session for one requester.
// The board itself is perfect information; seat assignment and move hints
// are only present for seated participants.
type StateView struct {
	GameID     string          `json:"game_id"`
	Board      [BoardSize]Slot `json:"board"`
	Phase      Phase           `json:"phase"`
	Placed     [2]int          `json:"placed"`
	Turn       int             `json:"turn"`
	Winner     int             `json:"winner,omitempty"`
	Draw       bool            `json:"draw,omitempty"`
	LastMoveAt time.Time       `json:"last_move_at"`

	// Participant-only fields.
	YourSeat   int    `json:"your_seat,omitempty"`
	ValidMoves []Move `json:"valid_moves,omitempty"`
}

// View builds the state visible to requesterID. A requester without a seat
// receives the spectator view: no seat binding and no move hints.
func (s *Session) View(requesterID string) StateView {
	view := StateView{
		GameID:     s.GameID,
		Board:      s.Board,
		Phase:      s.Phase,
		Placed:     s.Placed,
		Turn:       s.Turn,
		Winner:     s.Winner,
		Draw:       s.Draw,
		LastMoveAt: s.LastMoveAt,
	}

	seat := s.SeatOf(requesterID)
	if seat == 0 {
		return view
	}
	view.YourSeat = seat
	if s.Turn == seat && !s.Finished() {
		view.ValidMoves = s.ValidMoves()
	}
	return view
}

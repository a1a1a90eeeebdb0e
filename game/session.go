// game/session.go
package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Phase is the session state machine tag.
type Phase string

const (
	PhasePlacement Phase = "placement"
	PhaseMovement  Phase = "movement"
	PhaseFinished  Phase = "finished"
)

// MoveType tags the closed move variant.
type MoveType string

const (
	MoveTypePlace   MoveType = "place"
	MoveTypeMove    MoveType = "move"
	MoveTypeForfeit MoveType = "forfeit"
)

// Move is the closed tagged variant for every action a player can take.
// Position is used by place, From/To by move, neither by forfeit.
type Move struct {
	Type     MoveType `json:"type"`
	Position int      `json:"position,omitempty"`
	From     int      `json:"from,omitempty"`
	To       int      `json:"to,omitempty"`
}

// MoveRecord is one entry of the ordered move history.
type MoveRecord struct {
	Type      MoveType  `json:"type"`
	Seat      int       `json:"seat"`
	Position  int       `json:"position,omitempty"`
	From      int       `json:"from,omitempty"`
	To        int       `json:"to,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrNotParticipant is returned when a player id holds no seat in the session.
var ErrNotParticipant = errors.New("player is not a participant of this game")

// Violation names one constraint broken by an attempted move.
type Violation string

const (
	ViolationWrongPhase      Violation = "wrong-phase"
	ViolationNotYourTurn     Violation = "not-your-turn"
	ViolationOutOfRange      Violation = "out-of-range"
	ViolationOccupied        Violation = "occupied"
	ViolationPiecesExhausted Violation = "pieces-exhausted"
	ViolationNoPieceAtFrom   Violation = "no-piece-at-from"
	ViolationNotAdjacent     Violation = "not-adjacent"
	ViolationGameFinished    Violation = "game-finished"
)

// IllegalMoveError lists every constraint an attempted move violated.
// The session state is unchanged when it is returned.
type IllegalMoveError struct {
	Violations []Violation
}

func (e *IllegalMoveError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = string(v)
	}
	return "illegal move: " + strings.Join(parts, ", ")
}

// Session is the full rules state for one match. All mutation goes through
// PlacePiece/MovePiece/Forfeit; a failed validation never touches state.
type Session struct {
	GameID     string       `json:"game_id"`
	Players    [2]string    `json:"players"` // index 0 = seat 1, index 1 = seat 2
	Board      [BoardSize]Slot `json:"board"`
	Phase      Phase        `json:"phase"`
	Placed     [2]int       `json:"placed"` // pieces placed per seat
	Turn       int          `json:"turn"`   // seat to move, 1 or 2
	Winner     int          `json:"winner"` // 0 until decided
	Draw       bool         `json:"draw"`
	History    []MoveRecord `json:"history"`
	CreatedAt  time.Time    `json:"created_at"`
	LastMoveAt time.Time    `json:"last_move_at"`
}

// NewSession creates a session in the placement phase with seat 1 to move.
func NewSession(gameID, seat1ID, seat2ID string) *Session {
	now := time.Now()
	return &Session{
		GameID:     gameID,
		Players:    [2]string{seat1ID, seat2ID},
		Phase:      PhasePlacement,
		Turn:       1,
		CreatedAt:  now,
		LastMoveAt: now,
	}
}

// SeatOf resolves a player id to a seat, 0 for non-participants.
func (s *Session) SeatOf(playerID string) int {
	switch playerID {
	case s.Players[0]:
		return 1
	case s.Players[1]:
		return 2
	}
	return 0
}

// Finished reports whether the session has reached a terminal state.
func (s *Session) Finished() bool {
	return s.Phase == PhaseFinished
}

// PlacePiece places a piece for playerID at position during the placement
// phase. Every violated constraint is reported together.
func (s *Session) PlacePiece(playerID string, position int) error {
	seat := s.SeatOf(playerID)
	if seat == 0 {
		return ErrNotParticipant
	}

	var violations []Violation
	if s.Phase == PhaseFinished {
		violations = append(violations, ViolationGameFinished)
	} else if s.Phase != PhasePlacement {
		violations = append(violations, ViolationWrongPhase)
	}
	if s.Turn != seat {
		violations = append(violations, ViolationNotYourTurn)
	}
	if position < 0 || position >= BoardSize {
		violations = append(violations, ViolationOutOfRange)
	} else if s.Board[position] != Empty {
		violations = append(violations, ViolationOccupied)
	}
	if s.Placed[seat-1] >= PiecesPerSeat {
		violations = append(violations, ViolationPiecesExhausted)
	}
	if len(violations) > 0 {
		return &IllegalMoveError{Violations: violations}
	}

	s.Board[position] = Slot(seat)
	s.Placed[seat-1]++
	s.appendHistory(MoveRecord{Type: MoveTypePlace, Seat: seat, Position: position})
	s.afterMove(seat)
	return nil
}

// MovePiece slides the acting seat's piece from one position to an adjacent
// empty one during the movement phase.
func (s *Session) MovePiece(playerID string, from, to int) error {
	seat := s.SeatOf(playerID)
	if seat == 0 {
		return ErrNotParticipant
	}

	var violations []Violation
	if s.Phase == PhaseFinished {
		violations = append(violations, ViolationGameFinished)
	} else if s.Phase != PhaseMovement {
		violations = append(violations, ViolationWrongPhase)
	}
	if s.Turn != seat {
		violations = append(violations, ViolationNotYourTurn)
	}
	fromValid := from >= 0 && from < BoardSize
	toValid := to >= 0 && to < BoardSize
	if !fromValid || !toValid {
		violations = append(violations, ViolationOutOfRange)
	}
	if fromValid && s.Board[from] != Slot(seat) {
		violations = append(violations, ViolationNoPieceAtFrom)
	}
	if toValid && s.Board[to] != Empty {
		violations = append(violations, ViolationOccupied)
	}
	if fromValid && toValid && !Adjacent(from, to) {
		violations = append(violations, ViolationNotAdjacent)
	}
	if len(violations) > 0 {
		return &IllegalMoveError{Violations: violations}
	}

	s.Board[from] = Empty
	s.Board[to] = Slot(seat)
	s.appendHistory(MoveRecord{Type: MoveTypeMove, Seat: seat, From: from, To: to})
	s.afterMove(seat)
	return nil
}

// Forfeit ends the game in favor of the opposing seat. Legal in any
// non-terminal phase.
func (s *Session) Forfeit(playerID string) error {
	seat := s.SeatOf(playerID)
	if seat == 0 {
		return ErrNotParticipant
	}
	if s.Phase == PhaseFinished {
		return &IllegalMoveError{Violations: []Violation{ViolationGameFinished}}
	}

	s.Winner = 3 - seat
	s.Phase = PhaseFinished
	s.appendHistory(MoveRecord{Type: MoveTypeForfeit, Seat: seat})
	return nil
}

// ApplyMove dispatches one Move variant for playerID.
func (s *Session) ApplyMove(playerID string, move Move) error {
	switch move.Type {
	case MoveTypePlace:
		return s.PlacePiece(playerID, move.Position)
	case MoveTypeMove:
		return s.MovePiece(playerID, move.From, move.To)
	case MoveTypeForfeit:
		return s.Forfeit(playerID)
	default:
		return fmt.Errorf("unknown move type: %s", move.Type)
	}
}

// ValidMoves returns every move the side to move could legally make right
// now. Empty in a terminal state.
func (s *Session) ValidMoves() []Move {
	switch s.Phase {
	case PhasePlacement:
		if s.Placed[s.Turn-1] >= PiecesPerSeat {
			return nil
		}
		var moves []Move
		for pos := 0; pos < BoardSize; pos++ {
			if s.Board[pos] == Empty {
				moves = append(moves, Move{Type: MoveTypePlace, Position: pos})
			}
		}
		return moves
	case PhaseMovement:
		var moves []Move
		for from := 0; from < BoardSize; from++ {
			if s.Board[from] != Slot(s.Turn) {
				continue
			}
			for _, to := range Neighbors(from) {
				if s.Board[to] == Empty {
					moves = append(moves, Move{Type: MoveTypeMove, From: from, To: to})
				}
			}
		}
		return moves
	}
	return nil
}

// Expired reports whether the session has seen no move for longer than
// timeout. Used by the administrative cleanup sweep.
func (s *Session) Expired(timeout time.Duration) bool {
	return time.Since(s.LastMoveAt) > timeout
}

// Serialize encodes the full session for persistence and recovery.
func (s *Session) Serialize() ([]byte, error) {
	return json.Marshal(s)
}

// Restore decodes a serialized session. The restored session behaves
// identically to the instance that produced the bytes.
func Restore(data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	return &s, nil
}

func (s *Session) appendHistory(rec MoveRecord) {
	rec.Timestamp = time.Now()
	s.History = append(s.History, rec)
	s.LastMoveAt = rec.Timestamp
}

// afterMove runs win evaluation, the placement->movement transition and the
// turn flip, in that order of precedence.
func (s *Session) afterMove(seat int) {
	if s.checkWin(Slot(seat)) {
		s.Winner = seat
		s.Phase = PhaseFinished
		return
	}
	if s.Phase == PhasePlacement && s.Placed[0] == PiecesPerSeat && s.Placed[1] == PiecesPerSeat {
		s.Phase = PhaseMovement
	}
	s.Turn = 3 - seat

	// A movement-phase side with no legal move has no way to continue;
	// the stalled position is a draw.
	if s.Phase == PhaseMovement && len(s.ValidMoves()) == 0 {
		s.Draw = true
		s.Phase = PhaseFinished
	}
}

func (s *Session) checkWin(mark Slot) bool {
	for _, line := range winLines {
		if s.Board[line[0]] == mark && s.Board[line[1]] == mark && s.Board[line[2]] == mark {
			return true
		}
	}
	return false
}

// network/payload.go
package network

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ringline/gameserver/game"
	"github.com/ringline/gameserver/models"
)

// ValidationError rejects a malformed request before it reaches any
// engine. It names every missing or malformed field.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid request: " + strings.Join(e.Fields, ", ")
}

// JoinQueueRequest is the payload for MsgTypeJoinQueue. PlayerID binds the
// connection to a player if it is not bound yet.
type JoinQueueRequest struct {
	PlayerID    string             `json:"player_id"`
	Preferences models.Preferences `json:"preferences"`
}

// JoinGameRequest is the payload for MsgTypeJoinGame. PlayerID is optional:
// a request without one is a spectator request.
type JoinGameRequest struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id,omitempty"`
}

// MoveRequest is the payload for MsgTypeMove. The move is the closed
// tagged variant; its shape is checked here so the engine only ever sees
// structurally sound moves.
type MoveRequest struct {
	GameID string    `json:"game_id"`
	Move   game.Move `json:"move"`
}

// DecodeJoinGame parses and validates a join-game payload.
func DecodeJoinGame(data []byte) (*JoinGameRequest, error) {
	var req JoinGameRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, &ValidationError{Fields: []string{"malformed json"}}
	}
	if req.GameID == "" {
		return nil, &ValidationError{Fields: []string{"game_id"}}
	}
	return &req, nil
}

// DecodeJoinQueue parses and validates a join-queue payload.
func DecodeJoinQueue(data []byte) (*JoinQueueRequest, error) {
	var req JoinQueueRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, &ValidationError{Fields: []string{"malformed json"}}
	}
	var fields []string
	if req.PlayerID == "" {
		fields = append(fields, "player_id")
	}
	if req.Preferences.GameMode == "" {
		fields = append(fields, "preferences.game_mode")
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}
	return &req, nil
}

// DecodeMove parses and validates a move payload, including the tagged
// variant's shape for each move type.
func DecodeMove(data []byte) (*MoveRequest, error) {
	var req MoveRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, &ValidationError{Fields: []string{"malformed json"}}
	}

	var fields []string
	if req.GameID == "" {
		fields = append(fields, "game_id")
	}
	switch req.Move.Type {
	case game.MoveTypePlace, game.MoveTypeMove, game.MoveTypeForfeit:
	case "":
		fields = append(fields, "move.type")
	default:
		fields = append(fields, fmt.Sprintf("move.type (%s)", req.Move.Type))
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}
	return &req, nil
}

// ErrorPayload is the structured rejection sent to the requesting
// connection. Internal identifiers and stack traces never leave the
// server; Constraints carries the violated constraint names only.
type ErrorPayload struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Constraints []string `json:"constraints,omitempty"`
}

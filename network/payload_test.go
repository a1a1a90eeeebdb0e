package network

import (
	"testing"

	"github.com/ringline/gameserver/game"
)

func TestDecodeMove(t *testing.T) {
	req, err := DecodeMove([]byte(`{"game_id":"g1","move":{"type":"place","position":4}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.GameID != "g1" || req.Move.Type != game.MoveTypePlace || req.Move.Position != 4 {
		t.Errorf("unexpected decode result: %+v", req)
	}
}

func TestDecodeMove_Invalid(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"malformed json", `{`},
		{"missing game id", `{"move":{"type":"place","position":0}}`},
		{"missing move type", `{"game_id":"g1","move":{}}`},
		{"unknown move type", `{"game_id":"g1","move":{"type":"teleport"}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeMove([]byte(tc.payload))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if _, ok := err.(*ValidationError); !ok {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
		})
	}
}

func TestDecodeJoinQueue(t *testing.T) {
	req, err := DecodeJoinQueue([]byte(`{"player_id":"p1","preferences":{"ranked":true,"game_mode":"standard"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.PlayerID != "p1" {
		t.Errorf("unexpected player id %q", req.PlayerID)
	}
	if !req.Preferences.Ranked || req.Preferences.GameMode != "standard" {
		t.Errorf("unexpected preferences: %+v", req.Preferences)
	}

	if _, err := DecodeJoinQueue([]byte(`{"preferences":{}}`)); err == nil {
		t.Error("expected error for missing player id and game mode")
	}
}

func TestDecodeJoinGame(t *testing.T) {
	if _, err := DecodeJoinGame([]byte(`{}`)); err == nil {
		t.Error("expected error for missing game id")
	}
	req, err := DecodeJoinGame([]byte(`{"game_id":"g2"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.GameID != "g2" {
		t.Errorf("unexpected game id %q", req.GameID)
	}
}

package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/domain-race-backend/internal/engine"
	wire "github.com/DoyleJ11/domain-race-backend/pkg/types"
)

func TestDecode(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    engine.Command
		wantErr error
	}{
		{"start", `{"type":"start_game"}`, engine.Command{Type: engine.CmdStartGame}, nil},
		{"submit", `{"type":"submit_domain","domain":"Example.com"}`, engine.Command{Type: engine.CmdSubmitDomain, Domain: "Example.com"}, nil},
		{"unknown type", `{"type":"kick_player"}`, engine.Command{}, ErrUnknownType},
		{"missing type", `{"domain":"x.com"}`, engine.Command{}, ErrUnknownType},
		{"bad json", `{"type":`, engine.Command{}, ErrBadJSON},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Decode([]byte(tc.in))
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestErrorText(t *testing.T) {
	assert.Equal(t, "Domain already used", ErrorText(fmt.Errorf("submit: %w", engine.ErrDuplicateItem)))
	assert.Equal(t, "Invalid domain", ErrorText(engine.ErrInvalidItem))
	assert.Equal(t, "Game not started", ErrorText(engine.ErrNotActive))
	assert.Equal(t, "Game is over", ErrorText(engine.ErrRoundOver))
	assert.Equal(t, "Room not found", ErrorText(engine.ErrRoomNotFound))
	assert.Equal(t, "Internal error", ErrorText(errors.New("boom")))

	var msg wire.ServerMessage
	require.NoError(t, json.Unmarshal(ErrorMessage(engine.ErrInvalidItem), &msg))
	assert.Equal(t, wire.MsgError, msg.Type)
	assert.Equal(t, "Invalid domain", msg.Message)
}

func TestGameUpdate_Shape(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := engine.NewEmptyState("ABC123")
	s = engine.AddPlayer(s, engine.Player{ID: "b", Name: "bob", Color: "#4ECDC4", Score: 75, Seq: 2})
	s = engine.AddPlayer(s, engine.Player{ID: "a", Name: "alice", Color: "#FF6B6B", Seq: 1})
	s.Active = true
	s.StartTime = start
	entry := engine.Entry{Domain: "example.com", Rank: 5000, PlayerID: "b"}
	s.Entries = []engine.Entry{entry}

	var raw map[string]any
	require.NoError(t, json.Unmarshal(GameUpdate(s, start.Add(10*time.Second), &entry), &raw))
	assert.Equal(t, "game_update", raw["type"])

	gs := raw["game_state"].(map[string]any)
	assert.Equal(t, true, gs["is_active"])
	assert.EqualValues(t, 50, gs["time_remaining"])

	players := gs["players"].([]any)
	require.Len(t, players, 2)
	assert.Equal(t, "alice", players[0].(map[string]any)["username"])
	assert.EqualValues(t, 75, players[1].(map[string]any)["score"])

	latest := gs["latest_domain"].(map[string]any)
	assert.Equal(t, "example.com", latest["domain"])
	assert.Equal(t, "b", latest["player_id"])

	// latest_domain is an explicit null when nothing triggered the update
	require.NoError(t, json.Unmarshal(GameUpdate(s, start, nil), &raw))
	gs = raw["game_state"].(map[string]any)
	v, present := gs["latest_domain"]
	assert.True(t, present)
	assert.Nil(t, v)
}

func TestGameOver(t *testing.T) {
	var msg wire.ServerMessage
	require.NoError(t, json.Unmarshal(GameOver(&engine.Player{Name: "alice", Color: "#FF6B6B", Score: 1000}), &msg))
	assert.Equal(t, wire.MsgGameOver, msg.Type)
	require.NotNil(t, msg.Winner)
	assert.Equal(t, wire.PlayerView{Username: "alice", Color: "#FF6B6B", Score: 1000}, *msg.Winner)

	msg = wire.ServerMessage{}
	require.NoError(t, json.Unmarshal(GameOver(nil), &msg))
	assert.Nil(t, msg.Winner)
}

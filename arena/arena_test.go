package arena

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brensch/toroid/engine"
	"github.com/brensch/toroid/game"
	"github.com/brensch/toroid/rules"
	"github.com/brensch/toroid/store"
)

var small = rules.Settings{
	Width:            10,
	Height:           7,
	WinScore:         5,
	PointsPerApple:   1,
	AppleLife:        10,
	MinimumApples:    2,
	AppleSpawnChance: 20,
	Obstacles:        4,
	StartLength:      2,
	MaxTurns:         40,
}

func quickPlayer() Player {
	cfg := engine.DefaultConfig()
	cfg.Lookahead = 1
	return Player{Config: cfg}
}

func TestPlayMatch_RunsToCompletion(t *testing.T) {
	var seen int
	res, err := PlayMatch(context.Background(), quickPlayer(), quickPlayer(), Options{
		Settings: small,
		Seed:     7,
		Trace:    true,
		OnTurn:   func(*rules.State, store.TurnRow) { seen++ },
	})
	require.NoError(t, err)
	require.NotNil(t, res.Final)
	assert.True(t, res.Final.Outcome.Over)
	assert.NotEmpty(t, res.MatchID)

	require.Len(t, res.Turns, res.Final.Turn)
	assert.Equal(t, len(res.Turns), seen)
	assert.LessOrEqual(t, res.Final.Turn, small.MaxTurns)
	for i, row := range res.Turns {
		assert.Equal(t, int32(i+1), row.Turn)
		assert.Equal(t, res.MatchID, row.MatchID)
		require.Len(t, row.Snakes, 2)
		for _, s := range row.Snakes {
			assert.True(t, game.Direction(s.Move).Valid(), "turn %d side %s move %d", row.Turn, s.Side, s.Move)
			assert.Equal(t, int32(1), s.Depth)
			assert.False(t, s.Fallback)
			assert.LessOrEqual(t, s.SafeMoves, int32(3))
		}
	}

	m := res.Match
	assert.Equal(t, res.MatchID, m.MatchID)
	assert.Equal(t, int32(res.Final.Turn), m.Turns)
	assert.Contains(t, []string{"a", "b", "draw"}, m.Winner)
	assert.Equal(t, int32(1), m.LookaheadA)
	assert.Len(t, m.ObstacleX, small.Obstacles)
	assert.Equal(t, int64(7), m.Seed)
}

func TestPlayMatch_SameSeedReplays(t *testing.T) {
	moves := func() [][2]int32 {
		res, err := PlayMatch(context.Background(), quickPlayer(), quickPlayer(), Options{Settings: small, Seed: 42})
		require.NoError(t, err)
		out := make([][2]int32, len(res.Turns))
		for i, row := range res.Turns {
			out[i] = [2]int32{row.Snakes[0].Move, row.Snakes[1].Move}
		}
		return out
	}
	assert.Equal(t, moves(), moves())
}

func TestPlayMatch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := PlayMatch(ctx, quickPlayer(), quickPlayer(), Options{Settings: small, Seed: 1})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, res.Turns)
	require.NotNil(t, res.Final)
	assert.False(t, res.Final.Outcome.Over)
}

func TestPlayMatch_BadSettings(t *testing.T) {
	bad := small
	bad.Width = 2
	_, err := PlayMatch(context.Background(), quickPlayer(), quickPlayer(), Options{Settings: bad})
	assert.ErrorIs(t, err, rules.ErrSettings)
}

func TestRender(t *testing.T) {
	g := &game.Grid{Width: 5, Height: 3, Obstacles: make([]bool, 15)}
	g.Obstacles[g.Index(game.Location{X: 2, Y: 2})] = true
	b := &game.Board{
		Grid:     g,
		Self:     game.NewSnake(g, []game.Location{{X: 1, Y: 1}, {X: 0, Y: 1}}, game.Right, false),
		Opponent: game.NewSnake(g, []game.Location{{X: 3, Y: 1}, {X: 4, Y: 1}}, game.Left, false),
		Apples:   game.NewAppleSet([]game.Apple{{At: game.Location{X: 2, Y: 0}, LifeLeft: 3}}),
	}
	assert.Equal(t, "..*..\naA.Bb\n..#..\n", Render(b))
}

func TestTally(t *testing.T) {
	var tl Tally
	tl.Add(store.MatchRow{Winner: "a", Turns: 10, CauseA: "none", CauseB: "wall"})
	tl.Add(store.MatchRow{Winner: "draw", Turns: 30, TurnLimit: true, CauseA: "none", CauseB: "none"})
	tl.Add(store.MatchRow{Winner: "b", Turns: 20, CauseA: "opponent", CauseB: "opponent"})

	assert.Equal(t, 3, tl.Matches)
	assert.Equal(t, 1, tl.WinsA)
	assert.Equal(t, 1, tl.WinsB)
	assert.Equal(t, 1, tl.Draws)
	assert.Equal(t, 1, tl.TurnLimit)
	assert.InDelta(t, 20.0, tl.MeanTurns(), 1e-9)
	assert.Equal(t, map[string]int{"wall": 1, "opponent": 2}, tl.Causes)
}

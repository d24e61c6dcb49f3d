// Package arena plays engine-vs-engine matches under the rules package and
// records them as store rows.
package arena

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brensch/toroid/engine"
	"github.com/brensch/toroid/game"
	"github.com/brensch/toroid/rules"
	"github.com/brensch/toroid/store"
)

// Player is one side of a match.
type Player struct {
	Config engine.Config
	// MoveTimeout bounds each decision and switches the engine to iterative
	// deepening. 0 searches the full lookahead every turn.
	MoveTimeout time.Duration
}

type Options struct {
	Settings rules.Settings
	// Seed drives the board layout, apple spawns and both engines' move
	// ordering. Matches with the same seed and no timeouts replay exactly.
	Seed int64

	Logger *slog.Logger
	// Trace logs the rendered board after every turn at debug level.
	Trace bool
	// OnTurn is called after every turn with the new state and its row.
	OnTurn func(*rules.State, store.TurnRow)
}

type Result struct {
	MatchID string
	Match   store.MatchRow
	Turns   []store.TurnRow
	Final   *rules.State
}

// PlayMatch plays a to completion. Both engines decide concurrently each
// turn. If ctx ends first the partial result is returned with ctx.Err().
func PlayMatch(ctx context.Context, a, b Player, opts Options) (Result, error) {
	rng := rand.New(rand.NewSource(opts.Seed))
	state, err := rules.NewMatch(opts.Settings, rng)
	if err != nil {
		return Result{}, err
	}

	res := Result{MatchID: uuid.New().String(), Turns: make([]store.TurnRow, 0, 128)}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("match", res.MatchID))
	created := time.Now()

	rngA := rand.New(rand.NewSource(opts.Seed*2 + 1))
	rngB := rand.New(rand.NewSource(opts.Seed*2 + 2))

	for !state.Outcome.Over {
		select {
		case <-ctx.Done():
			res.Final = state
			return res, ctx.Err()
		default:
		}

		snapA := state.Board.Snapshot(false)
		snapB := state.Board.Snapshot(true)

		var decA, decB engine.Decision
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			decA = decide(ctx, a, snapA, rngA)
		}()
		go func() {
			defer wg.Done()
			decB = decide(ctx, b, snapB, rngB)
		}()
		wg.Wait()

		// A cancelled search falls back to a safe move; don't record it.
		if err := ctx.Err(); err != nil {
			res.Final = state
			return res, err
		}

		safeA := len(rules.SafeMoves(state.Board, state.Board.Self))
		safeB := len(rules.SafeMoves(state.Board, state.Board.Opponent))
		state = rules.NextState(state, decA.Direction, decB.Direction, rng, opts.Settings)
		row := turnRow(res.MatchID, state, decA, decB)
		row.Snakes[0].SafeMoves = int32(safeA)
		row.Snakes[1].SafeMoves = int32(safeB)
		res.Turns = append(res.Turns, row)

		if opts.Trace {
			logger.Debug("turn",
				slog.Int("turn", state.Turn),
				slog.String("a", decA.Direction.String()),
				slog.Int("a_value", decA.Value),
				slog.String("b", decB.Direction.String()),
				slog.Int("b_value", decB.Value),
				slog.String("board", "\n"+Trace(state)),
			)
		}
		if opts.OnTurn != nil {
			opts.OnTurn(state, row)
		}
	}

	res.Final = state
	res.Match = matchRow(res.MatchID, created, opts, a, b, state)
	logger.Info("match finished",
		slog.String("winner", state.Outcome.Winner.String()),
		slog.Int("turns", state.Turn),
		slog.Int("score_a", state.Board.Self.AppleScore),
		slog.Int("score_b", state.Board.Opponent.AppleScore),
	)
	return res, nil
}

func decide(ctx context.Context, p Player, snap game.Snapshot, rng *rand.Rand) engine.Decision {
	if p.MoveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.MoveTimeout)
		defer cancel()
	}
	return engine.Decide(ctx, p.Config, snap, rng)
}

func turnRow(matchID string, s *rules.State, decA, decB engine.Decision) store.TurnRow {
	row := store.TurnRow{MatchID: matchID, Turn: int32(s.Turn)}
	row.AppleX, row.AppleY, row.AppleLife = store.AppleColumns(s.Board.Apples.All())
	row.Snakes = []store.SnakeRow{
		snakeRow("a", s.Board.Self, decA),
		snakeRow("b", s.Board.Opponent, decB),
	}
	return row
}

func snakeRow(side string, s *game.Snake, d engine.Decision) store.SnakeRow {
	row := store.NewSnakeRow(side, s)
	row.Move = int32(d.Direction)
	row.Value = int64(d.Value)
	row.Depth = int32(d.Depth)
	row.Nodes = int64(d.Nodes)
	row.Fallback = d.Depth == 0
	return row
}

func matchRow(id string, created time.Time, opts Options, a, b Player, s *rules.State) store.MatchRow {
	g := s.Board.Grid
	ox, oy := store.ObstacleColumns(g)
	return store.MatchRow{
		MatchID:    id,
		CreatedNs:  created.UnixNano(),
		Seed:       opts.Seed,
		Width:      int32(g.Width),
		Height:     int32(g.Height),
		ObstacleX:  ox,
		ObstacleY:  oy,
		WinScore:   int32(g.WinScore),
		LookaheadA: int32(lookahead(a.Config)),
		LookaheadB: int32(lookahead(b.Config)),
		Turns:      int32(s.Turn),
		Winner:     s.Outcome.Winner.String(),
		CauseA:     s.Outcome.CauseA.String(),
		CauseB:     s.Outcome.CauseB.String(),
		TurnLimit:  s.Outcome.TurnLimit,
		ScoreA:     int32(s.Board.Self.AppleScore),
		ScoreB:     int32(s.Board.Opponent.AppleScore),
	}
}

func lookahead(c engine.Config) int {
	if c.Lookahead > 0 {
		return c.Lookahead
	}
	return engine.DefaultConfig().Lookahead
}

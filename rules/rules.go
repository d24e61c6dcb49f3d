// Package rules is a small host simulator for two-snake toroidal matches.
//
// It is the authority on legality and game over for the arena and the server's
// live matches. Plies follow the engine's convention: apples age, snake A
// moves, snake B moves, then both snakes are checked for defeat.
package rules

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/brensch/toroid/game"
)

var ErrSettings = errors.New("invalid match settings")

// Settings controls the board and apple mechanics of a match.
type Settings struct {
	Width  int
	Height int

	WinScore       int
	PointsPerApple int

	// AppleLife is the lifetime given to spawned apples.
	AppleLife int
	// MinimumApples is enforced after every turn.
	MinimumApples int
	// AppleSpawnChance is the percentage chance (0-100) of one extra apple per turn.
	AppleSpawnChance int

	// Obstacles is the number of random wall cells placed at match start.
	Obstacles   int
	StartLength int
	// MaxTurns ends the match on score when reached. 0 means unlimited.
	MaxTurns int
}

var DefaultSettings = Settings{
	Width:            15,
	Height:           15,
	WinScore:         20,
	PointsPerApple:   1,
	AppleLife:        30,
	MinimumApples:    2,
	AppleSpawnChance: 10,
	Obstacles:        12,
	StartLength:      3,
	MaxTurns:         500,
}

func (s Settings) Validate() error {
	switch {
	case s.Width < 6 || s.Height < 3:
		return fmt.Errorf("%w: board %dx%d too small", ErrSettings, s.Width, s.Height)
	case s.Width > game.MaxDimension || s.Height > game.MaxDimension:
		return fmt.Errorf("%w: board %dx%d too large", ErrSettings, s.Width, s.Height)
	case s.StartLength < 1 || headGap(s.Width, s.StartLength) < 2:
		return fmt.Errorf("%w: start length %d on width %d", ErrSettings, s.StartLength, s.Width)
	case s.AppleLife < 1:
		return fmt.Errorf("%w: apple life %d", ErrSettings, s.AppleLife)
	case s.Obstacles < 0 || s.Obstacles > s.Width*s.Height/4:
		return fmt.Errorf("%w: %d obstacles", ErrSettings, s.Obstacles)
	}
	return nil
}

// headGap is the column distance between the two spawn heads.
func headGap(width, startLength int) int {
	return width - 1 - 2*(width/4+startLength-1)
}

// Winner identifies the side that won a finished match.
type Winner int8

const (
	WinnerNone Winner = iota
	WinnerA
	WinnerB
	Draw
)

func (w Winner) String() string {
	switch w {
	case WinnerA:
		return "a"
	case WinnerB:
		return "b"
	case Draw:
		return "draw"
	default:
		return ""
	}
}

// Outcome is the authoritative result after a turn.
type Outcome struct {
	Over   bool
	Winner Winner
	CauseA game.Cause
	CauseB game.Cause
	// TurnLimit is set when the match ended on MaxTurns.
	TurnLimit bool
}

// State is a match in progress. Board.Self is snake A, Board.Opponent is B.
type State struct {
	Board   *game.Board
	Turn    int
	Outcome Outcome
}

// Clone performs a deep copy of the state.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	return &State{Board: s.Board.Clone(), Turn: s.Turn, Outcome: s.Outcome}
}

// NewMatch creates a symmetric starting position: A on the left heading
// right, B on the right heading left, random obstacles and the minimum apples.
func NewMatch(settings Settings, rng *rand.Rand) (*State, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	g := &game.Grid{
		Width:          settings.Width,
		Height:         settings.Height,
		WinScore:       settings.WinScore,
		PointsPerApple: settings.PointsPerApple,
	}

	y := settings.Height / 2
	bodyA := make([]game.Location, settings.StartLength)
	bodyB := make([]game.Location, settings.StartLength)
	for i := range bodyA {
		bodyA[i] = game.Location{X: settings.Width/4 + settings.StartLength - 1 - i, Y: y}
		bodyB[i] = game.Location{X: settings.Width - 1 - settings.Width/4 - settings.StartLength + 1 + i, Y: y}
	}

	if settings.Obstacles > 0 {
		g.Obstacles = make([]bool, g.Cells())
		placeObstacles(g, settings.Obstacles, y, rng)
	}

	state := &State{
		Board: &game.Board{
			Grid:     g,
			Self:     game.NewSnake(g, bodyA, game.Right, false),
			Opponent: game.NewSnake(g, bodyB, game.Left, false),
			Apples:   game.NewAppleSet(nil),
		},
	}
	spawnApples(state, rng, settings, 0x4150504c455f494e) // "APPLE_IN"
	return state, nil
}

// placeObstacles scatters walls, keeping the spawn row clear.
func placeObstacles(g *game.Grid, n, spawnRow int, rng *rand.Rand) {
	candidates := make([]int, 0, g.Cells())
	for i := 0; i < g.Cells(); i++ {
		if l := g.Location(i); l.Y != spawnRow {
			candidates = append(candidates, i)
		}
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(int64(g.Cells())))
	}
	rng.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })
	for _, i := range candidates[:min(n, len(candidates))] {
		g.Obstacles[i] = true
	}
}

// NextState applies one full turn and returns the new state. The input is
// not modified.
func NextState(state *State, moveA, moveB game.Direction, rng *rand.Rand, settings Settings) *State {
	next := state.Clone()
	if next.Outcome.Over {
		return next
	}
	next.Turn++
	b := next.Board
	pts := b.Grid.PointsPerApple

	b.Apples.Age(nil)
	b.Self.Move(moveA)
	b.Self.ConsumeApples(b.Apples, pts, 1)
	b.Opponent.Move(moveB)
	b.Opponent.ConsumeApples(b.Apples, pts, 1)

	next.Outcome = resolve(b, next.Turn, settings.MaxTurns)
	if !next.Outcome.Over {
		spawnApples(next, rng, settings, 0x4150504c455f5455) // "APPLE_TU"
	}
	return next
}

func resolve(b *game.Board, turn, maxTurns int) Outcome {
	out := Outcome{
		CauseA: b.DefeatCause(b.Self, b.Opponent),
		CauseB: b.DefeatCause(b.Opponent, b.Self),
	}
	deadA, deadB := out.CauseA != game.CauseNone, out.CauseB != game.CauseNone
	switch {
	case deadA && deadB:
		out.Over = true
		out.Winner = byScore(b)
	case deadA:
		out.Over = true
		out.Winner = WinnerB
	case deadB:
		out.Over = true
		out.Winner = WinnerA
	case maxTurns > 0 && turn >= maxTurns:
		out.Over = true
		out.TurnLimit = true
		out.Winner = byScore(b)
	}
	return out
}

func byScore(b *game.Board) Winner {
	switch {
	case b.Self.AppleScore > b.Opponent.AppleScore:
		return WinnerA
	case b.Opponent.AppleScore > b.Self.AppleScore:
		return WinnerB
	}
	return Draw
}

// SafeMoves lists the moves of a snake that do not immediately hit a wall or
// a body cell, assuming both tails move. The arena records the count per turn.
func SafeMoves(b *game.Board, s *game.Snake) []game.Direction {
	moves := make([]game.Direction, 0, 4)
	for _, d := range game.Directions {
		if d == s.LastDirection.Opposite() {
			continue
		}
		next := b.Grid.Neighbor(s.Head(), d)
		if b.Free(next) || (next == s.Tail() && !s.PendingGrowth()) {
			moves = append(moves, d)
		}
	}
	return moves
}

// Package game defines the board model shared by the decision engine and the
// host simulator.
//
// The grid is a torus: every edge wraps to the opposite edge. State is built
// from read-only snapshots and mutated through undoable moves, so a search can
// explore sibling branches on a single Board.
package game

import (
	"errors"
	"fmt"
)

// MaxDimension bounds grid width and height. Boards, snakes and the analyzer
// all allocate per cell.
const MaxDimension = 1024

var (
	ErrGridSize    = errors.New("grid must be between 2x2 and 1024x1024")
	ErrEmptyBody   = errors.New("snake body is empty")
	ErrOutOfBounds = errors.New("location outside grid")
	ErrObstacles   = errors.New("obstacle mask does not match grid size")
	ErrDirection   = errors.New("invalid direction")
	ErrAppleLife   = errors.New("apple life must be at least 1")
)

// Grid describes the static part of a game.
type Grid struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	// Obstacles is a row-major mask of Width*Height cells. Nil means open.
	Obstacles      []bool `json:"obstacles,omitempty"`
	WinScore       int    `json:"win_score"`
	PointsPerApple int    `json:"points_per_apple"`
}

func (g *Grid) Cells() int               { return g.Width * g.Height }
func (g *Grid) Index(l Location) int     { return l.Y*g.Width + l.X }
func (g *Grid) Location(i int) Location  { return Location{X: i % g.Width, Y: i / g.Width} }
func (g *Grid) Contains(l Location) bool { return l.X >= 0 && l.X < g.Width && l.Y >= 0 && l.Y < g.Height }

func (g *Grid) Neighbor(l Location, d Direction) Location {
	return l.Adjacent(d, g.Width, g.Height)
}

func (g *Grid) IsObstacle(l Location) bool {
	return g.Obstacles != nil && g.Obstacles[g.Index(l)]
}

func (g *Grid) isObstacleIndex(i int) bool {
	return g.Obstacles != nil && g.Obstacles[i]
}

// SnakeSnapshot is the host's read-only view of a snake.
type SnakeSnapshot struct {
	// Body is head-first.
	Body  []Location `json:"body"`
	Score int        `json:"score"`
	// LastDirection is nil for a snake that has just spawned.
	LastDirection *Direction `json:"last_direction,omitempty"`
	// Growing is set when the snake's next move keeps its tail.
	Growing bool `json:"growing"`
}

// Snapshot is everything the engine needs for one decision.
type Snapshot struct {
	Grid     Grid          `json:"grid"`
	Self     SnakeSnapshot `json:"self"`
	Opponent SnakeSnapshot `json:"opponent"`
	Apples   []Apple       `json:"apples"`
}

// Validate checks the snapshot is well formed enough to build a Board.
func (s *Snapshot) Validate() error {
	g := &s.Grid
	if g.Width < 2 || g.Height < 2 || g.Width > MaxDimension || g.Height > MaxDimension {
		return fmt.Errorf("%dx%d: %w", g.Width, g.Height, ErrGridSize)
	}
	if g.Obstacles != nil && len(g.Obstacles) != g.Cells() {
		return ErrObstacles
	}
	snakes := []struct {
		name string
		sn   *SnakeSnapshot
	}{{"self", &s.Self}, {"opponent", &s.Opponent}}
	for _, c := range snakes {
		name, sn := c.name, c.sn
		if len(sn.Body) == 0 {
			return fmt.Errorf("%s: %w", name, ErrEmptyBody)
		}
		if sn.LastDirection != nil && !sn.LastDirection.Valid() {
			return fmt.Errorf("%s last direction %d: %w", name, *sn.LastDirection, ErrDirection)
		}
		for _, l := range sn.Body {
			if !g.Contains(l) {
				return fmt.Errorf("%s body (%d,%d): %w", name, l.X, l.Y, ErrOutOfBounds)
			}
		}
	}
	for _, a := range s.Apples {
		if !g.Contains(a.At) {
			return fmt.Errorf("apple (%d,%d): %w", a.At.X, a.At.Y, ErrOutOfBounds)
		}
		if a.LifeLeft < 1 {
			return fmt.Errorf("apple (%d,%d) life %d: %w", a.At.X, a.At.Y, a.LifeLeft, ErrAppleLife)
		}
	}
	return nil
}

// Board is the mutable simulation state: both snakes and the apples.
type Board struct {
	Grid     *Grid
	Self     *Snake
	Opponent *Snake
	Apples   *AppleSet
}

// NewBoard builds an independent board from a snapshot. PlayScore starts at 0.
func NewBoard(snap Snapshot) *Board {
	g := snap.Grid
	return &Board{
		Grid:     &g,
		Self:     newSnakeFromSnapshot(&g, snap.Self),
		Opponent: newSnakeFromSnapshot(&g, snap.Opponent),
		Apples:   NewAppleSet(snap.Apples),
	}
}

func newSnakeFromSnapshot(g *Grid, sn SnakeSnapshot) *Snake {
	last := InferLastDirection(g, sn.Body)
	if sn.LastDirection != nil {
		last = *sn.LastDirection
	}
	s := NewSnake(g, sn.Body, last, sn.Growing)
	s.AppleScore = sn.Score
	return s
}

// InferLastDirection derives the previous move from the neck position.
func InferLastDirection(g *Grid, body []Location) Direction {
	if len(body) < 2 {
		return NoDirection
	}
	return body[1].DirectionTo(body[0], g.Width, g.Height)
}

// Clone performs a deep copy of the board.
func (b *Board) Clone() *Board {
	if b == nil {
		return nil
	}
	return &Board{
		Grid:     b.Grid,
		Self:     b.Self.Clone(),
		Opponent: b.Opponent.Clone(),
		Apples:   b.Apples.Clone(),
	}
}

// Free reports whether l holds neither an obstacle nor any snake segment.
func (b *Board) Free(l Location) bool {
	return b.FreeIndex(b.Grid.Index(l))
}

// FreeIndex is Free for a row-major cell index.
func (b *Board) FreeIndex(i int) bool {
	return !b.Grid.isObstacleIndex(i) && !b.Self.occupiesIndex(i) && !b.Opponent.occupiesIndex(i)
}

// Snapshot renders the board from one snake's perspective. With swap set the
// opponent becomes Self.
func (b *Board) Snapshot(swap bool) Snapshot {
	self, opp := b.Self, b.Opponent
	if swap {
		self, opp = opp, self
	}
	return Snapshot{
		Grid:     *b.Grid,
		Self:     snakeSnapshot(self),
		Opponent: snakeSnapshot(opp),
		Apples:   b.Apples.All(),
	}
}

func snakeSnapshot(s *Snake) SnakeSnapshot {
	out := SnakeSnapshot{
		Body:    s.Body(),
		Score:   s.AppleScore,
		Growing: s.pendingGrowth,
	}
	if s.LastDirection.Valid() {
		d := s.LastDirection
		out.LastDirection = &d
	}
	return out
}

// Cause is the reason a snake is defeated.
type Cause int8

// Causes are ordered from worst to least bad for the defeated snake.
const (
	CauseNone Cause = iota
	CauseWall
	CauseSelf
	CauseOpponent
	CauseScore
)

func (c Cause) String() string {
	switch c {
	case CauseWall:
		return "wall"
	case CauseSelf:
		return "self"
	case CauseOpponent:
		return "opponent"
	case CauseScore:
		return "score"
	default:
		return "none"
	}
}

// DefeatCause returns why s is defeated, if it is. The score cause means other
// reached the win score. A WinScore of 0 disables score wins.
func (b *Board) DefeatCause(s, other *Snake) Cause {
	head := s.Head()
	switch {
	case b.Grid.IsObstacle(head):
		return CauseWall
	case s.HeadInSelf():
		return CauseSelf
	case other.Occupies(head):
		return CauseOpponent
	case b.Grid.WinScore > 0 && other.AppleScore >= b.Grid.WinScore:
		return CauseScore
	}
	return CauseNone
}

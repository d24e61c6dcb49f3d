// Package engine picks a move for one snake with a depth limited minimax
// search with alpha-beta pruning.
//
// Leaves are scored by flood fills from both heads: distance to the nearest
// live apple, the size of the reachable area and the length of the route back
// to the snake's own tail. Boards where a snake is defeated are scored by the
// kind of defeat and how soon it happens.
package engine

import (
	"context"
	"log/slog"
	"math/rand"

	"github.com/brensch/toroid/game"
)

// Decision is the result of one call to Decide.
type Decision struct {
	Direction game.Direction `json:"direction"`
	// Value is the root score of Direction from Self's point of view.
	Value int `json:"value"`
	// Depth is the lookahead, in full turns, of the deepest completed search.
	// 0 means no search completed and Direction is a fallback.
	Depth int `json:"depth"`
	Nodes int `json:"nodes"`
}

// Decide returns the move for snap.Self.
//
// Without a context deadline exactly cfg.Lookahead turns are searched. With a
// deadline the search deepens one turn at a time up to cfg.Lookahead and the
// deepest completed result is returned once the context is done. rng perturbs
// move ordering at maximizing nodes; nil disables it.
//
// snap is not modified.
func Decide(ctx context.Context, cfg Config, snap game.Snapshot, rng *rand.Rand) Decision {
	cfg = cfg.withDefaults()
	b := game.NewBoard(snap)
	seedReach(b)

	dec := Decision{Direction: fallbackDirection(b), Value: 0}

	first := cfg.Lookahead
	if _, ok := ctx.Deadline(); ok {
		first = 1
	}

	s := newSearcher(ctx, cfg, b, rng)
	for look := first; look <= cfg.Lookahead; look++ {
		dir, value, ok := s.run(2 * look)
		if !ok {
			cfg.Logger.Debug("search cancelled", slog.Int("lookahead", look), slog.Int("nodes", s.nodes))
			break
		}
		dec = Decision{Direction: dir, Value: value, Depth: look, Nodes: s.nodes}
		cfg.Logger.Debug("search complete",
			slog.Int("lookahead", look),
			slog.String("direction", dir.String()),
			slog.Int("value", value),
			slog.Int("nodes", s.nodes),
		)
		if IsWin(value) {
			break
		}
	}
	dec.Nodes = s.nodes
	return dec
}

// seedReach runs an unbounded analysis for both snakes so that leaves have a
// previous reachable count and tail distance to compare against.
func seedReach(b *game.Board) {
	a := NewAnalyzer(b.Grid)
	for _, s := range []*game.Snake{b.Self, b.Opponent} {
		r := a.Analyze(b, s, NoLimit)
		s.Reachable = r.Reachable
		s.TailDistance = r.TailDistance
		s.TailReachable = r.TailReachable
	}
}

// fallbackDirection is used when no search completes. It prefers the first
// non reversing move, starting from the last direction, that lands on a free
// cell or the snake's own moving tail.
func fallbackDirection(b *game.Board) game.Direction {
	me := b.Self
	start := startDirection(me.LastDirection)
	first := game.NoDirection
	for i := 0; i < 4; i++ {
		dir := game.Direction((start + i) % 4)
		if dir == me.LastDirection.Opposite() {
			continue
		}
		if first == game.NoDirection {
			first = dir
		}
		next := b.Grid.Neighbor(me.Head(), dir)
		if b.Free(next) || (next == me.Tail() && !me.PendingGrowth()) {
			return dir
		}
	}
	return first
}

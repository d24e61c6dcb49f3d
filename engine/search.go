package engine

import (
	"context"
	"math"
	"math/rand"

	"github.com/brensch/toroid/game"
)

// searcher runs one fixed depth alpha-beta search over a shared board. Every
// mutation is undone before the next sibling is tried.
type searcher struct {
	done  <-chan struct{}
	cfg   Config
	board *game.Board
	eval  *evaluator
	rng   *rand.Rand

	maxDepth int
	nodes    int
	aborted  bool
	// fullWidth disables cutoffs. Tests use it as a reference minimax.
	fullWidth bool

	// ageBufs holds one aging scratch slice per depth.
	ageBufs [][]int
}

func newSearcher(ctx context.Context, cfg Config, b *game.Board, rng *rand.Rand) *searcher {
	return &searcher{
		done:  ctx.Done(),
		cfg:   cfg,
		board: b,
		eval:  newEvaluator(cfg, b.Grid),
		rng:   rng,
	}
}

// cancelled polls the context without blocking.
func (s *searcher) cancelled() bool {
	if s.aborted {
		return true
	}
	if s.done == nil {
		return false
	}
	select {
	case <-s.done:
		s.aborted = true
	default:
	}
	return s.aborted
}

// run searches depth plies and returns the best root move. ok is false when
// the search was cancelled before it completed.
func (s *searcher) run(depth int) (dir game.Direction, value int, ok bool) {
	s.maxDepth = depth
	if len(s.ageBufs) < depth+1 {
		s.ageBufs = make([][]int, depth+1)
	}
	value, dir = s.maxNode(depth, math.MinInt, math.MaxInt)
	if s.aborted || !dir.Valid() {
		return game.NoDirection, 0, false
	}
	return dir, value, true
}

func (s *searcher) search(d int, myTurn bool, alpha, beta int) int {
	s.nodes++
	if s.cancelled() {
		return 0
	}
	if d%2 == 0 {
		if v := evaluateWinner(s.board, s.maxDepth-d+1); v != 0 {
			return v
		}
	}
	if d == 0 {
		return s.eval.evaluateField(s.board)
	}
	if myTurn {
		v, _ := s.maxNode(d, alpha, beta)
		return v
	}
	return s.minNode(d, alpha, beta)
}

// startDirection is where move enumeration begins for a snake.
func startDirection(last game.Direction) int {
	if !last.Valid() {
		return 0
	}
	return int(last)
}

// maxNode moves Self. Apples age once per maximizing ply.
func (s *searcher) maxNode(d int, alpha, beta int) (int, game.Direction) {
	b := s.board
	me := b.Self

	age := b.Apples.Age(s.ageBufs[d])
	defer func() {
		b.Apples.UndoAge(age)
		s.ageBufs[d] = age.Buffer()
	}()

	start := startDirection(me.LastDirection)
	if s.rng != nil && s.rng.Float64() < s.cfg.RandomStartChance {
		start = s.rng.Intn(4)
	}

	best, bestDir := math.MinInt, game.NoDirection
	for i := 0; i < 4; i++ {
		dir := game.Direction((start + i) % 4)
		if dir == me.LastDirection.Opposite() {
			continue
		}

		mv := me.Move(dir)
		eat := me.ConsumeApples(b.Apples, b.Grid.PointsPerApple, d)
		v := s.search(d-1, false, alpha, beta)
		me.UndoConsume(b.Apples, eat)
		me.Undo(mv)

		if s.aborted {
			return 0, game.NoDirection
		}
		if v > best {
			best, bestDir = v, dir
		}
		alpha = max(alpha, best)
		if alpha >= beta && !s.fullWidth {
			break
		}
	}
	return best, bestDir
}

// minNode moves the Opponent. It never randomizes and never ages apples.
func (s *searcher) minNode(d int, alpha, beta int) int {
	b := s.board
	opp := b.Opponent

	start := startDirection(opp.LastDirection)
	best := math.MaxInt
	for i := 0; i < 4; i++ {
		dir := game.Direction((start + i) % 4)
		if dir == opp.LastDirection.Opposite() {
			continue
		}

		mv := opp.Move(dir)
		eat := opp.ConsumeApples(b.Apples, b.Grid.PointsPerApple, d+1)
		v := s.search(d-1, true, alpha, beta)
		opp.UndoConsume(b.Apples, eat)
		opp.Undo(mv)

		if s.aborted {
			return 0
		}
		best = min(best, v)
		beta = min(beta, best)
		if beta <= alpha && !s.fullWidth {
			break
		}
	}
	return best
}

package engine

import (
	"math"

	"github.com/brensch/toroid/game"
)

// Terminal values are banded so that every loss category sorts below the
// next one regardless of depth:
//
//	wall < self < opponent < score < tie < win
//
// Within a band a later loss is worth more, and a win is worth more the
// sooner it happens.
const (
	outcomeBand = 1 << 16
	tieCategory = 5
)

func winValue(elapsed int) int {
	return math.MaxInt - elapsed
}

func lossValue(c game.Cause, elapsed int) int {
	return math.MinInt + int(c)*outcomeBand + elapsed
}

func tieValue(elapsed int) int {
	return math.MinInt + tieCategory*outcomeBand + elapsed
}

// IsWin reports whether v is a forced win found by the search.
func IsWin(v int) bool { return v > math.MaxInt-outcomeBand }

// IsLoss reports whether v is a forced loss or a tie.
func IsLoss(v int) bool { return v < math.MinInt+(tieCategory+1)*outcomeBand }

// evaluateWinner returns a terminal value for b, or 0 when neither snake is
// defeated. elapsed is the number of plies since the root, starting at 1.
func evaluateWinner(b *game.Board, elapsed int) int {
	self := b.DefeatCause(b.Self, b.Opponent)
	opp := b.DefeatCause(b.Opponent, b.Self)
	switch {
	case self != game.CauseNone && opp != game.CauseNone:
		switch {
		case b.Self.AppleScore > b.Opponent.AppleScore:
			return winValue(elapsed)
		case b.Self.AppleScore == b.Opponent.AppleScore:
			return tieValue(elapsed)
		}
		return lossValue(self, elapsed)
	case self != game.CauseNone:
		return lossValue(self, elapsed)
	case opp != game.CauseNone:
		return winValue(elapsed)
	}
	return 0
}

// evaluator scores non terminal leaves. It never mutates the board.
type evaluator struct {
	cfg      Config
	analyzer *Analyzer
}

func newEvaluator(cfg Config, g *game.Grid) *evaluator {
	return &evaluator{cfg: cfg, analyzer: NewAnalyzer(g)}
}

// evaluateField is the zero sum leaf value from Self's point of view.
func (e *evaluator) evaluateField(b *game.Board) int {
	return e.snakeValue(b, b.Self) - e.snakeValue(b, b.Opponent)
}

// snakeValue is s.PlayScore plus the leaf bonuses. The reachability fields on
// s hold the root analysis and serve as the previous values.
func (e *evaluator) snakeValue(b *game.Board, s *game.Snake) int {
	r := e.analyzer.Analyze(b, s, s.Reachable/e.cfg.StaleDivisor)
	v := s.PlayScore
	v += appleReward(b.Apples, e.analyzer.Distances(), b.Grid.PointsPerApple)
	if tailCollapsed(r, s, e.cfg.TailCollapseFactor) {
		v--
	}
	if r.Reachable < s.Reachable/e.cfg.StaleDivisor {
		v -= b.Grid.WinScore
	}
	return v
}

// appleReward favours the nearest apple that can be reached before it
// expires. Apples that will expire first are worth half as much per step.
func appleReward(apples *game.AppleSet, dm DistanceMap, points int) int {
	live, nearest := -1, -1
	for i := 0; i < apples.Len(); i++ {
		a := apples.At(i)
		d, ok := dm.At(a.At)
		if !ok {
			continue
		}
		if d < a.LifeLeft && (live < 0 || d < live) {
			live = d
		}
		if nearest < 0 || d < nearest {
			nearest = d
		}
	}
	switch {
	case live >= 0:
		return points - live - 1
	case nearest >= 0:
		return points - 2*nearest - 1
	}
	return 0
}

// tailCollapsed reports whether the route to the tail got much longer or
// disappeared since the previous analysis.
func tailCollapsed(r Reach, prev *game.Snake, factor int) bool {
	if !prev.TailReachable {
		return false
	}
	if !r.TailReachable {
		return true
	}
	return r.TailDistance > prev.TailDistance*factor
}

package engine

import (
	"math"

	"github.com/brensch/toroid/game"
)

// Reach summarises one flood fill from a snake's head.
type Reach struct {
	// Reachable counts settled cells, not including the head.
	Reachable int
	// TailDistance is the path length from the head back to the tail cell.
	// It is only valid when TailReachable is set.
	TailDistance  int
	TailReachable bool
}

// NoLimit disables the early termination budget.
const NoLimit = math.MaxInt

// DistanceMap is a view of the most recent Analyze call. It is only valid
// until the Analyzer is used again.
type DistanceMap struct {
	grid  *game.Grid
	dist  []int32
	stamp []uint32
	epoch uint32
}

// At returns the distance from the head to l, or false if l was not reached.
func (m DistanceMap) At(l game.Location) (int, bool) {
	return m.atIndex(m.grid.Index(l))
}

func (m DistanceMap) atIndex(i int) (int, bool) {
	if m.stamp[i] != m.epoch {
		return 0, false
	}
	return int(m.dist[i]), true
}

// Analyzer runs level order flood fills over a single grid. Its scratch
// buffers are reused between calls, so an Analyzer must not be shared
// between goroutines.
type Analyzer struct {
	grid *game.Grid

	dist    []int32
	stamp   []uint32
	settled []uint32
	epoch   uint32
	queue   []int32
}

// NewAnalyzer allocates scratch buffers sized to g.
func NewAnalyzer(g *game.Grid) *Analyzer {
	n := g.Cells()
	return &Analyzer{
		grid:    g,
		dist:    make([]int32, n),
		stamp:   make([]uint32, n),
		settled: make([]uint32, n),
		queue:   make([]int32, 0, n),
	}
}

// Distances returns the map produced by the last Analyze call.
func (a *Analyzer) Distances() DistanceMap {
	return DistanceMap{grid: a.grid, dist: a.dist, stamp: a.stamp, epoch: a.epoch}
}

func (a *Analyzer) nextEpoch() {
	a.epoch++
	if a.epoch == 0 {
		clear(a.stamp)
		clear(a.settled)
		a.epoch = 1
	}
}

// Analyze computes distances from s's head through free cells.
//
// Once more than limit cells are settled the sweep may stop early: with no
// apples, as soon as a neighbour of the tail is settled; with apples, as soon
// as the frontier is further away than the longest apple life.
func (a *Analyzer) Analyze(b *game.Board, s *game.Snake, limit int) Reach {
	a.nextEpoch()
	g := a.grid
	head := int32(g.Index(s.Head()))
	tail := s.Tail()
	maxLife := b.Apples.MaxLife()
	noApples := b.Apples.Empty()

	a.queue = append(a.queue[:0], head)
	a.dist[head] = 0
	a.stamp[head] = a.epoch

	count := 0
	for pos := 0; pos < len(a.queue); pos++ {
		cur := a.queue[pos]
		d := a.dist[cur]
		a.settled[cur] = a.epoch
		if count > limit {
			if noApples && a.tailReady(tail) {
				break
			}
			if !noApples && int(d) > maxLife {
				break
			}
		}
		at := g.Location(int(cur))
		for _, dir := range game.Directions {
			n := int32(g.Index(g.Neighbor(at, dir)))
			if a.stamp[n] == a.epoch || !b.FreeIndex(int(n)) {
				continue
			}
			a.dist[n] = d + 1
			a.stamp[n] = a.epoch
			a.queue = append(a.queue, n)
		}
		count++
	}

	r := Reach{Reachable: count - 1}
	r.TailDistance, r.TailReachable = a.tailDistance(tail)
	if r.TailReachable && g.Index(tail) != int(head) {
		ti := g.Index(tail)
		a.dist[ti] = int32(r.TailDistance)
		a.stamp[ti] = a.epoch
	}
	return r
}

func (a *Analyzer) tailReady(tail game.Location) bool {
	for _, dir := range game.Directions {
		if a.settled[a.grid.Index(a.grid.Neighbor(tail, dir))] == a.epoch {
			return true
		}
	}
	return false
}

// tailDistance is one more than the nearest distanced neighbour of the tail.
// The tail cell itself is occupied, so the sweep never enters it.
func (a *Analyzer) tailDistance(tail game.Location) (int, bool) {
	best, ok := 0, false
	for _, dir := range game.Directions {
		i := a.grid.Index(a.grid.Neighbor(tail, dir))
		if a.stamp[i] != a.epoch {
			continue
		}
		if d := int(a.dist[i]) + 1; !ok || d < best {
			best, ok = d, true
		}
	}
	return best, ok
}

package game

// Snake is the mutable snake model used for simulation.
//
// The body is stored tail-first in cells[start:] so a move is an append at
// the end plus an increment of start. Cells below start are never
// overwritten, which lets Undo restore a dropped tail without copying.
type Snake struct {
	grid  *Grid
	cells []Location
	start int
	occ   []uint8

	pendingGrowth bool

	LastDirection Direction
	// AppleScore mirrors the host's score.
	AppleScore int
	// PlayScore accumulates search heuristics and starts at 0 every decision.
	PlayScore int

	// Reachable and TailDistance hold the most recent reachability analysis.
	// TailDistance is only meaningful when TailReachable is set.
	Reachable     int
	TailDistance  int
	TailReachable bool
}

// NewSnake builds a snake from a head-first body.
func NewSnake(g *Grid, body []Location, last Direction, growing bool) *Snake {
	s := &Snake{
		grid:          g,
		cells:         make([]Location, len(body), len(body)+16),
		occ:           make([]uint8, g.Cells()),
		pendingGrowth: growing,
		LastDirection: last,
	}
	for i, l := range body {
		s.cells[len(body)-1-i] = l
		s.occ[g.Index(l)]++
	}
	return s
}

// Clone performs a deep copy.
func (s *Snake) Clone() *Snake {
	out := *s
	out.cells = make([]Location, s.Len(), s.Len()+16)
	copy(out.cells, s.cells[s.start:])
	out.start = 0
	out.occ = make([]uint8, len(s.occ))
	copy(out.occ, s.occ)
	return &out
}

func (s *Snake) Len() int            { return len(s.cells) - s.start }
func (s *Snake) Head() Location      { return s.cells[len(s.cells)-1] }
func (s *Snake) Tail() Location      { return s.cells[s.start] }
func (s *Snake) PendingGrowth() bool { return s.pendingGrowth }

// Segment returns the i-th body cell counting from the head.
func (s *Snake) Segment(i int) Location {
	return s.cells[len(s.cells)-1-i]
}

// Body returns a head-first copy of the body.
func (s *Snake) Body() []Location {
	out := make([]Location, 0, s.Len())
	for i := len(s.cells) - 1; i >= s.start; i-- {
		out = append(out, s.cells[i])
	}
	return out
}

// Occupies reports whether any body segment covers l.
func (s *Snake) Occupies(l Location) bool {
	return s.occ[s.grid.Index(l)] > 0
}

func (s *Snake) occupiesIndex(i int) bool {
	return s.occ[i] > 0
}

// HeadInSelf reports whether the head shares a cell with another segment.
func (s *Snake) HeadInSelf() bool {
	return s.occ[s.grid.Index(s.Head())] > 1
}

// MoveUndo restores a snake to its state before Move.
type MoveUndo struct {
	grew bool
	last Direction
}

// Move advances the head one cell in d. A pending growth is consumed instead
// of dropping the tail.
func (s *Snake) Move(d Direction) MoveUndo {
	u := MoveUndo{grew: s.pendingGrowth, last: s.LastDirection}
	if s.pendingGrowth {
		s.pendingGrowth = false
	} else {
		s.occ[s.grid.Index(s.cells[s.start])]--
		s.start++
	}
	head := s.grid.Neighbor(s.Head(), d)
	s.cells = append(s.cells, head)
	s.occ[s.grid.Index(head)]++
	s.LastDirection = d
	return u
}

// Undo reverts the Move that returned u. Moves must be undone in LIFO order.
func (s *Snake) Undo(u MoveUndo) {
	head := s.cells[len(s.cells)-1]
	s.occ[s.grid.Index(head)]--
	s.cells = s.cells[:len(s.cells)-1]
	if u.grew {
		s.pendingGrowth = true
	} else {
		s.start--
		s.occ[s.grid.Index(s.cells[s.start])]++
	}
	s.LastDirection = u.last
}

// ConsumeUndo restores a snake and apple set to their state before
// ConsumeApples.
type ConsumeUndo struct {
	ate        bool
	index      int
	apple      Apple
	points     int
	playPoints int
	growth     bool
}

// Ate reports whether the move consumed an apple.
func (u ConsumeUndo) Ate() bool { return u.ate }

// ConsumeApples eats at most one apple under the head. Earlier captures are
// worth more to the search: plyDepth counts down towards the leaves.
func (s *Snake) ConsumeApples(apples *AppleSet, pointsPerApple, plyDepth int) ConsumeUndo {
	i := apples.IndexAt(s.Head())
	if i < 0 {
		return ConsumeUndo{}
	}
	u := ConsumeUndo{
		ate:        true,
		index:      i,
		apple:      apples.removeAt(i),
		points:     pointsPerApple,
		playPoints: pointsPerApple * plyDepth,
		growth:     s.pendingGrowth,
	}
	s.AppleScore += u.points
	s.PlayScore += u.playPoints
	s.pendingGrowth = true
	return u
}

// UndoConsume reverts ConsumeApples.
func (s *Snake) UndoConsume(apples *AppleSet, u ConsumeUndo) {
	if !u.ate {
		return
	}
	s.AppleScore -= u.points
	s.PlayScore -= u.playPoints
	s.pendingGrowth = u.growth
	apples.insertAt(u.index, u.apple)
}

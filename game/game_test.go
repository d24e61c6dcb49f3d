package game

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

// dumpBoard renders the board top row first. Heads are upper case.
func dumpBoard(b *Board) string {
	g := b.Grid
	rows := make([][]byte, g.Height)
	for y := range rows {
		rows[y] = make([]byte, g.Width)
		for x := range rows[y] {
			rows[y][x] = '.'
			if g.IsObstacle(Location{X: x, Y: y}) {
				rows[y][x] = '#'
			}
		}
	}
	for i := 0; i < b.Apples.Len(); i++ {
		a := b.Apples.At(i)
		rows[a.At.Y][a.At.X] = '*'
	}
	for i, s := range []*Snake{b.Self, b.Opponent} {
		sym := byte('a' + i)
		for j, l := range s.Body() {
			if j == 0 {
				rows[l.Y][l.X] = sym - 32
			} else {
				rows[l.Y][l.X] = sym
			}
		}
	}
	var sb strings.Builder
	for _, r := range rows {
		sb.Write(r)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func openGrid(w, h int) *Grid {
	return &Grid{Width: w, Height: h, WinScore: 50, PointsPerApple: 5}
}

func TestAdjacent_Wraps(t *testing.T) {
	cases := []struct {
		from Location
		d    Direction
		want Location
	}{
		{Location{0, 0}, Up, Location{0, 4}},
		{Location{0, 4}, Down, Location{0, 0}},
		{Location{0, 2}, Left, Location{6, 2}},
		{Location{6, 2}, Right, Location{0, 2}},
		{Location{3, 3}, Up, Location{3, 2}},
		{Location{3, 3}, Right, Location{4, 3}},
	}
	for _, c := range cases {
		if got := c.from.Adjacent(c.d, 7, 5); got != c.want {
			t.Fatalf("%v.Adjacent(%s)=%v want=%v", c.from, c.d, got, c.want)
		}
	}
}

func TestDirection_Opposite(t *testing.T) {
	if Up.Opposite() != Down || Down.Opposite() != Up || Left.Opposite() != Right || Right.Opposite() != Left {
		t.Fatalf("opposite pairs broken")
	}
	if NoDirection.Opposite() != NoDirection {
		t.Fatalf("NoDirection.Opposite()=%v", NoDirection.Opposite())
	}
	for _, d := range Directions {
		got, err := ParseDirection(d.String())
		if err != nil || got != d {
			t.Fatalf("ParseDirection(%q)=%v,%v", d.String(), got, err)
		}
	}
	if _, err := ParseDirection("sideways"); err == nil {
		t.Fatalf("expected error for unknown direction")
	}
}

func TestInferLastDirection(t *testing.T) {
	g := openGrid(5, 5)
	// Neck to the left of the head: the snake was moving right.
	if d := InferLastDirection(g, []Location{{2, 2}, {1, 2}}); d != Right {
		t.Fatalf("got %v want right", d)
	}
	// Wrapped neck: head at y=0, neck at y=4 means it moved down across the edge.
	if d := InferLastDirection(g, []Location{{2, 0}, {2, 4}}); d != Down {
		t.Fatalf("got %v want down", d)
	}
	if d := InferLastDirection(g, []Location{{2, 0}}); d != NoDirection {
		t.Fatalf("got %v want none", d)
	}
}

func TestSnake_MoveWithoutAppleKeepsLength(t *testing.T) {
	g := openGrid(7, 7)
	s := NewSnake(g, []Location{{3, 3}, {3, 4}, {3, 5}}, Up, false)
	apples := NewAppleSet(nil)

	s.Move(Up)
	eat := s.ConsumeApples(apples, g.PointsPerApple, 4)

	if eat.Ate() {
		t.Fatalf("ate without apples")
	}
	want := []Location{{3, 2}, {3, 3}, {3, 4}}
	if got := s.Body(); !reflect.DeepEqual(got, want) {
		t.Fatalf("body=%v want=%v", got, want)
	}
	if s.Occupies(Location{3, 5}) {
		t.Fatalf("old tail still occupied")
	}
}

func TestSnake_EatingGrowsByOneOnNextMove(t *testing.T) {
	g := openGrid(7, 7)
	s := NewSnake(g, []Location{{3, 3}, {3, 4}, {3, 5}}, Up, false)
	apples := NewAppleSet([]Apple{{At: Location{3, 2}, LifeLeft: 5}})

	s.Move(Up)
	eat := s.ConsumeApples(apples, g.PointsPerApple, 4)
	if !eat.Ate() {
		t.Fatalf("expected to eat apple at (3,2)")
	}
	if s.AppleScore != 5 || s.PlayScore != 20 {
		t.Fatalf("scores apple=%d play=%d want 5/20", s.AppleScore, s.PlayScore)
	}
	if !apples.Empty() {
		t.Fatalf("apple not removed")
	}
	before := s.Len()
	s.Move(Up)
	if s.Len() != before+1 {
		t.Fatalf("len=%d want=%d", s.Len(), before+1)
	}
	if s.Tail() != (Location{3, 4}) {
		t.Fatalf("tail=%v want (3,4)", s.Tail())
	}
}

func TestSnake_UndoRestoresExactState(t *testing.T) {
	g := openGrid(6, 6)
	b := &Board{
		Grid:     g,
		Self:     NewSnake(g, []Location{{1, 1}, {1, 2}}, Up, true),
		Opponent: NewSnake(g, []Location{{4, 4}}, NoDirection, false),
		Apples:   NewAppleSet([]Apple{{At: Location{1, 0}, LifeLeft: 1}, {At: Location{1, 5}, LifeLeft: 4}}),
	}
	before := dumpBoard(b)
	beforeBody := b.Self.Body()

	age := b.Apples.Age(nil)
	m1 := b.Self.Move(Up)
	e1 := b.Self.ConsumeApples(b.Apples, g.PointsPerApple, 3)
	m2 := b.Self.Move(Up)
	e2 := b.Self.ConsumeApples(b.Apples, g.PointsPerApple, 2)
	t.Logf("after moves:\n%s", dumpBoard(b))
	if !e2.Ate() {
		t.Fatalf("expected wrapped apple at (1,5) to be eaten")
	}

	b.Self.UndoConsume(b.Apples, e2)
	b.Self.Undo(m2)
	b.Self.UndoConsume(b.Apples, e1)
	b.Self.Undo(m1)
	b.Apples.UndoAge(age)

	if after := dumpBoard(b); after != before {
		t.Fatalf("board not restored:\nbefore:\n%s\nafter:\n%s", before, after)
	}
	if !reflect.DeepEqual(b.Self.Body(), beforeBody) {
		t.Fatalf("body=%v want=%v", b.Self.Body(), beforeBody)
	}
	if !b.Self.PendingGrowth() || b.Self.LastDirection != Up || b.Self.AppleScore != 0 || b.Self.PlayScore != 0 {
		t.Fatalf("snake fields not restored: %+v", b.Self)
	}
	if got := b.Apples.All(); got[0].LifeLeft != 1 || got[1].LifeLeft != 4 {
		t.Fatalf("apple lives not restored: %v", got)
	}
}

func TestAppleSet_AgingRemovesOnThirdPass(t *testing.T) {
	apples := NewAppleSet([]Apple{{At: Location{0, 0}, LifeLeft: 3}})
	for pass := 1; pass <= 2; pass++ {
		apples.Age(nil)
		if apples.Len() != 1 {
			t.Fatalf("apple gone after pass %d", pass)
		}
	}
	apples.Age(nil)
	if !apples.Empty() {
		t.Fatalf("apple survived third pass: %v", apples.All())
	}
}

func TestAppleSet_AgingRemovesOneExpiredPerPass(t *testing.T) {
	apples := NewAppleSet([]Apple{
		{At: Location{0, 0}, LifeLeft: 1},
		{At: Location{1, 0}, LifeLeft: 1},
		{At: Location{2, 0}, LifeLeft: 4},
	})
	apples.Age(nil)
	got := apples.All()
	want := []Apple{{At: Location{0, 0}, LifeLeft: 1}, {At: Location{2, 0}, LifeLeft: 3}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("after aging=%v want=%v", got, want)
	}
	if apples.MaxLife() != 3 {
		t.Fatalf("MaxLife=%d want=3", apples.MaxLife())
	}
}

func TestBoard_DefeatCauses(t *testing.T) {
	g := openGrid(5, 5)
	g.Obstacles = make([]bool, g.Cells())
	g.Obstacles[g.Index(Location{2, 0})] = true

	cases := []struct {
		name     string
		self     []Location
		opp      []Location
		oppScore int
		want     Cause
	}{
		{"wall", []Location{{2, 0}, {2, 1}}, []Location{{4, 4}}, 0, CauseWall},
		{"self", []Location{{1, 1}, {1, 2}, {2, 2}, {2, 1}, {1, 1}}, []Location{{4, 4}}, 0, CauseSelf},
		{"opponent", []Location{{4, 3}, {3, 3}}, []Location{{4, 4}, {4, 3}}, 0, CauseOpponent},
		{"score", []Location{{0, 3}}, []Location{{4, 4}}, 50, CauseScore},
		{"alive", []Location{{0, 3}}, []Location{{4, 4}}, 49, CauseNone},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			b := &Board{
				Grid:     g,
				Self:     NewSnake(g, c.self, NoDirection, false),
				Opponent: NewSnake(g, c.opp, NoDirection, false),
				Apples:   NewAppleSet(nil),
			}
			b.Opponent.AppleScore = c.oppScore
			if got := b.DefeatCause(b.Self, b.Opponent); got != c.want {
				t.Fatalf("cause=%v want=%v\n%s", got, c.want, dumpBoard(b))
			}
		})
	}
}

func TestSnapshot_RoundTripThroughBoard(t *testing.T) {
	right := Right
	snap := Snapshot{
		Grid:     Grid{Width: 6, Height: 4, WinScore: 20, PointsPerApple: 2},
		Self:     SnakeSnapshot{Body: []Location{{2, 1}, {1, 1}}, Score: 4, LastDirection: &right},
		Opponent: SnakeSnapshot{Body: []Location{{4, 2}, {4, 3}}, Score: 6, Growing: true},
		Apples:   []Apple{{At: Location{0, 0}, LifeLeft: 7}},
	}
	if err := snap.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	b := NewBoard(snap)
	if b.Opponent.LastDirection != Up {
		t.Fatalf("inferred opponent direction=%v want up", b.Opponent.LastDirection)
	}
	back := b.Snapshot(true)
	if !reflect.DeepEqual(back.Self.Body, snap.Opponent.Body) || back.Self.Score != 6 || !back.Self.Growing {
		t.Fatalf("swapped snapshot self=%+v", back.Self)
	}
	if back.Opponent.LastDirection == nil || *back.Opponent.LastDirection != Right {
		t.Fatalf("opponent last direction lost: %+v", back.Opponent)
	}
}

func TestSnapshot_ValidateRejectsBadInput(t *testing.T) {
	bad := Snapshot{
		Grid:     Grid{Width: 4, Height: 4},
		Self:     SnakeSnapshot{Body: []Location{{5, 1}}},
		Opponent: SnakeSnapshot{Body: []Location{{1, 1}}},
	}
	if err := bad.Validate(); err == nil || !strings.Contains(err.Error(), "self body") {
		t.Fatalf("expected out of bounds error, got %v", err)
	}
	bad.Self.Body = nil
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected empty body error")
	}
}

func TestSnapshot_ValidateGridAndApples(t *testing.T) {
	base := func() Snapshot {
		return Snapshot{
			Grid:     Grid{Width: 4, Height: 4},
			Self:     SnakeSnapshot{Body: []Location{{0, 1}}},
			Opponent: SnakeSnapshot{Body: []Location{{2, 2}}},
			Apples:   []Apple{{At: Location{3, 3}, LifeLeft: 1}},
		}
	}
	snap := base()
	if err := snap.Validate(); err != nil {
		t.Fatalf("base snapshot: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Snapshot)
		want   error
	}{
		{"too small", func(s *Snapshot) { s.Grid.Width = 1 }, ErrGridSize},
		{"too wide", func(s *Snapshot) { s.Grid.Width = MaxDimension + 1 }, ErrGridSize},
		{"too tall", func(s *Snapshot) { s.Grid.Height = 1 << 31 }, ErrGridSize},
		{"huge both ways", func(s *Snapshot) { s.Grid.Width, s.Grid.Height = 1<<31, 1<<31 }, ErrGridSize},
		{"expired apple", func(s *Snapshot) { s.Apples[0].LifeLeft = 0 }, ErrAppleLife},
		{"negative apple life", func(s *Snapshot) { s.Apples[0].LifeLeft = -3 }, ErrAppleLife},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := base()
			tt.mutate(&snap)
			if err := snap.Validate(); !errors.Is(err, tt.want) {
				t.Fatalf("validate=%v want %v", err, tt.want)
			}
		})
	}

	edge := base()
	edge.Grid.Width, edge.Grid.Height = MaxDimension, MaxDimension
	if err := edge.Validate(); err != nil {
		t.Fatalf("max size grid rejected: %v", err)
	}
}

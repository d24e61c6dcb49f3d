package arena

import (
	"fmt"
	"strings"

	"github.com/brensch/toroid/game"
	"github.com/brensch/toroid/rules"
)

// Render draws the board one row per line, top row first.
//
//	# obstacle   * apple   A/a snake A head/body   B/b snake B head/body
//
// Heads are drawn last so a collision shows the head that caused it.
func Render(b *game.Board) string {
	g := b.Grid
	cells := make([]byte, g.Cells())
	for i := range cells {
		cells[i] = '.'
		if g.Obstacles != nil && g.Obstacles[i] {
			cells[i] = '#'
		}
	}
	for _, a := range b.Apples.All() {
		cells[g.Index(a.At)] = '*'
	}
	draw := func(s *game.Snake, body byte) {
		segs := s.Body()
		for i := len(segs) - 1; i > 0; i-- {
			cells[g.Index(segs[i])] = body
		}
	}
	draw(b.Self, 'a')
	draw(b.Opponent, 'b')
	cells[g.Index(b.Self.Head())] = 'A'
	cells[g.Index(b.Opponent.Head())] = 'B'

	var sb strings.Builder
	for y := 0; y < g.Height; y++ {
		sb.Write(cells[y*g.Width : (y+1)*g.Width])
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Trace renders a state with a one line header.
func Trace(s *rules.State) string {
	b := s.Board
	header := fmt.Sprintf("turn %d  a=%d b=%d  apples=%d", s.Turn, b.Self.AppleScore, b.Opponent.AppleScore, b.Apples.Len())
	if s.Outcome.Over {
		header += fmt.Sprintf("  winner=%s (a:%s b:%s)", s.Outcome.Winner, s.Outcome.CauseA, s.Outcome.CauseB)
	}
	return header + "\n" + Render(b)
}

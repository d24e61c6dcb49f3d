package engine

import (
	"math/rand"
	"strings"

	"github.com/brensch/toroid/game"
)

// parseBoard builds a snapshot from rows of text, top row first.
//
//	#  obstacle
//	*  apple (life from appleLife)
//	A  self head, a self body
//	B  opponent head, b opponent body
//
// Bodies are ordered by walking from the head through adjacent body cells,
// so each body must form a simple path.
func parseBoard(rows []string, appleLife int) game.Snapshot {
	h, w := len(rows), len(rows[0])
	g := game.Grid{Width: w, Height: h, WinScore: 20, PointsPerApple: 5}
	var heads [2]game.Location
	body := [2]map[game.Location]bool{{}, {}}
	for y, row := range rows {
		for x, c := range row {
			l := game.Location{X: x, Y: y}
			switch c {
			case '#':
				if g.Obstacles == nil {
					g.Obstacles = make([]bool, w*h)
				}
				g.Obstacles[g.Index(l)] = true
			case '*':
				// handled below
			case 'A', 'B':
				heads[c-'A'] = l
				body[c-'A'][l] = true
			case 'a', 'b':
				body[c-'a'][l] = true
			}
		}
	}
	snap := game.Snapshot{Grid: g}
	for y, row := range rows {
		for x, c := range row {
			if c == '*' {
				snap.Apples = append(snap.Apples, game.Apple{At: game.Location{X: x, Y: y}, LifeLeft: appleLife})
			}
		}
	}
	snap.Self.Body = walkBody(&g, heads[0], body[0])
	snap.Opponent.Body = walkBody(&g, heads[1], body[1])
	return snap
}

func walkBody(g *game.Grid, head game.Location, cells map[game.Location]bool) []game.Location {
	out := []game.Location{head}
	seen := map[game.Location]bool{head: true}
	for cur := head; ; {
		next, found := cur, false
		for _, d := range game.Directions {
			n := g.Neighbor(cur, d)
			if cells[n] && !seen[n] {
				next, found = n, true
				break
			}
		}
		if !found {
			return out
		}
		out = append(out, next)
		seen[next] = true
		cur = next
	}
}

// dumpBoard renders a board in the parseBoard format.
func dumpBoard(b *game.Board) string {
	g := b.Grid
	var sb strings.Builder
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			l := game.Location{X: x, Y: y}
			switch {
			case l == b.Self.Head():
				sb.WriteByte('A')
			case l == b.Opponent.Head():
				sb.WriteByte('B')
			case b.Self.Occupies(l):
				sb.WriteByte('a')
			case b.Opponent.Occupies(l):
				sb.WriteByte('b')
			case g.IsObstacle(l):
				sb.WriteByte('#')
			case b.Apples.IndexAt(l) >= 0:
				sb.WriteByte('*')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// randomSnapshot scatters obstacles, two random walk snakes and apples.
func randomSnapshot(rng *rand.Rand, w, h, obstacles, apples int) game.Snapshot {
	g := game.Grid{Width: w, Height: h, WinScore: 15, PointsPerApple: 3, Obstacles: make([]bool, w*h)}
	used := make([]bool, w*h)
	randomFree := func() (game.Location, bool) {
		for tries := 0; tries < 100; tries++ {
			i := rng.Intn(w * h)
			if !used[i] {
				return g.Location(i), true
			}
		}
		return game.Location{}, false
	}
	for i := 0; i < obstacles; i++ {
		if l, ok := randomFree(); ok {
			g.Obstacles[g.Index(l)] = true
			used[g.Index(l)] = true
		}
	}
	snake := func(length int) []game.Location {
		head, _ := randomFree()
		used[g.Index(head)] = true
		body := []game.Location{head}
		for len(body) < length {
			cur := body[len(body)-1]
			var options []game.Location
			for _, d := range game.Directions {
				if n := g.Neighbor(cur, d); !used[g.Index(n)] {
					options = append(options, n)
				}
			}
			if len(options) == 0 {
				break
			}
			n := options[rng.Intn(len(options))]
			used[g.Index(n)] = true
			body = append(body, n)
		}
		return body
	}
	snap := game.Snapshot{Grid: g}
	snap.Self.Body = snake(2 + rng.Intn(4))
	snap.Opponent.Body = snake(2 + rng.Intn(4))
	for i := 0; i < apples; i++ {
		if l, ok := randomFree(); ok {
			used[g.Index(l)] = true
			snap.Apples = append(snap.Apples, game.Apple{At: l, LifeLeft: 1 + rng.Intn(8)})
		}
	}
	return snap
}

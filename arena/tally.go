package arena

import (
	"github.com/brensch/toroid/store"
)

// Tally aggregates finished matches.
type Tally struct {
	Matches   int
	WinsA     int
	WinsB     int
	Draws     int
	TurnLimit int
	Turns     int
	// Causes counts defeat causes across both sides, keyed by cause name.
	Causes map[string]int
}

func (t *Tally) Add(m store.MatchRow) {
	if t.Causes == nil {
		t.Causes = make(map[string]int)
	}
	t.Matches++
	t.Turns += int(m.Turns)
	switch m.Winner {
	case "a":
		t.WinsA++
	case "b":
		t.WinsB++
	case "draw":
		t.Draws++
	}
	if m.TurnLimit {
		t.TurnLimit++
	}
	for _, c := range []string{m.CauseA, m.CauseB} {
		if c != "" && c != "none" {
			t.Causes[c]++
		}
	}
}

func (t *Tally) MeanTurns() float64 {
	if t.Matches == 0 {
		return 0
	}
	return float64(t.Turns) / float64(t.Matches)
}

package engine

import (
	"io"
	"log/slog"
)

// Config holds search configuration
type Config struct {
	// Lookahead is the number of full turns searched. The tree is 2*Lookahead
	// plies deep. With a context deadline it is the iterative deepening cap.
	Lookahead int

	// StaleDivisor scales the previous reachable count into the flood fill
	// visit budget, and is also the collapse ratio for the reachable penalty.
	StaleDivisor int

	// TailCollapseFactor is how many times longer the path to the tail may
	// grow before it is penalised.
	TailCollapseFactor int

	// RandomStartChance is the probability that a maximizing node starts
	// enumerating moves from a random direction instead of its last one.
	RandomStartChance float64

	Logger *slog.Logger
}

// DefaultConfig returns the tuned engine settings.
func DefaultConfig() Config {
	return Config{
		Lookahead:          2,
		StaleDivisor:       5,
		TailCollapseFactor: 10,
		RandomStartChance:  1.0 / 9,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Lookahead <= 0 {
		c.Lookahead = def.Lookahead
	}
	if c.StaleDivisor <= 0 {
		c.StaleDivisor = def.StaleDivisor
	}
	if c.TailCollapseFactor <= 0 {
		c.TailCollapseFactor = def.TailCollapseFactor
	}
	if c.RandomStartChance < 0 {
		c.RandomStartChance = 0
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

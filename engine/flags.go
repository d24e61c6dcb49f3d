package engine

import "flag"

// RegisterFlags binds the config to flags named prefix+"lookahead" and so on,
// using the current values as defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet, prefix string) {
	fs.IntVar(&c.Lookahead, prefix+"lookahead", c.Lookahead, "Full turns searched (iterative deepening cap with a move timeout)")
	fs.IntVar(&c.StaleDivisor, prefix+"stale-divisor", c.StaleDivisor, "Flood fill budget divisor and reachable collapse ratio")
	fs.IntVar(&c.TailCollapseFactor, prefix+"tail-factor", c.TailCollapseFactor, "Tail distance growth that counts as a collapse")
	fs.Float64Var(&c.RandomStartChance, prefix+"random-start", c.RandomStartChance, "Chance a maximizing node starts from a random direction")
}

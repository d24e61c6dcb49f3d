package rules

import "flag"

// RegisterFlags binds the settings to command line flags, using the current
// values as defaults.
func (s *Settings) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&s.Width, "width", s.Width, "Board width")
	fs.IntVar(&s.Height, "height", s.Height, "Board height")
	fs.IntVar(&s.WinScore, "win-score", s.WinScore, "Apple score that wins the match (0 disables)")
	fs.IntVar(&s.PointsPerApple, "points-per-apple", s.PointsPerApple, "Score gained per apple")
	fs.IntVar(&s.AppleLife, "apple-life", s.AppleLife, "Turns a spawned apple stays on the board")
	fs.IntVar(&s.MinimumApples, "min-apples", s.MinimumApples, "Apples kept on the board after every turn")
	fs.IntVar(&s.AppleSpawnChance, "apple-chance", s.AppleSpawnChance, "Percent chance of an extra apple each turn")
	fs.IntVar(&s.Obstacles, "obstacles", s.Obstacles, "Random wall cells placed at match start")
	fs.IntVar(&s.StartLength, "start-length", s.StartLength, "Starting snake length")
	fs.IntVar(&s.MaxTurns, "max-turns", s.MaxTurns, "Turn limit, decided on score (0 is unlimited)")
}

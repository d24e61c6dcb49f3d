package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brensch/toroid/arena"
	"github.com/brensch/toroid/engine"
	"github.com/brensch/toroid/game"
	"github.com/brensch/toroid/logging"
	"github.com/brensch/toroid/rules"
	"github.com/brensch/toroid/store"
)

func main() {
	settings := rules.DefaultSettings
	settings.RegisterFlags(flag.CommandLine)
	cfgA, cfgB := engine.DefaultConfig(), engine.DefaultConfig()
	cfgA.RegisterFlags(flag.CommandLine, "a-")
	cfgB.RegisterFlags(flag.CommandLine, "b-")

	outDir := flag.String("out-dir", "debug_matches", "Output directory for the match parquet")
	seed := flag.Int64("seed", 0, "Match seed (0 picks one from the clock)")
	moveTimeout := flag.Duration("move-timeout", 0, "Per move search budget (0 searches the full lookahead)")
	printBoards := flag.Bool("boards", true, "Print the board after every turn")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn or error")
	flag.Parse()

	logger, err := logging.Setup(*logLevel, false)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	onTurn := func(s *rules.State, row store.TurnRow) {
		a, b := row.Snakes[0], row.Snakes[1]
		fmt.Printf("  Turn %3d | a→%-5s (%d) | b→%-5s (%d)\n", row.Turn, moveName(a.Move), a.Value, moveName(b.Move), b.Value)
		if *printBoards {
			fmt.Print(arena.Trace(s))
		}
	}

	res, err := arena.PlayMatch(ctx,
		arena.Player{Config: cfgA, MoveTimeout: *moveTimeout},
		arena.Player{Config: cfgB, MoveTimeout: *moveTimeout},
		arena.Options{Settings: settings, Seed: *seed, Logger: logger, OnTurn: onTurn},
	)
	if err != nil {
		logger.Error("match aborted", slog.Any("err", err), slog.Int("turns", len(res.Turns)))
		os.Exit(1)
	}

	path, err := store.WriteMatchParquet(*outDir, res.MatchID, res.Turns)
	if err != nil {
		logger.Error("write match", slog.Any("err", err))
		os.Exit(1)
	}

	m := res.Match
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Printf("  Match:   %s (seed %d)\n", m.MatchID, m.Seed)
	fmt.Printf("  Winner:  %s after %d turns (a:%s b:%s)\n", m.Winner, m.Turns, m.CauseA, m.CauseB)
	fmt.Printf("  Score:   a=%d b=%d\n", m.ScoreA, m.ScoreB)
	fmt.Printf("  Parquet: %s\n", path)
	fmt.Println("═══════════════════════════════════════════════════════════════")
}

func moveName(m int32) string {
	return game.Direction(m).String()
}

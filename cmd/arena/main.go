package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/brensch/toroid/arena"
	"github.com/brensch/toroid/engine"
	"github.com/brensch/toroid/logging"
	"github.com/brensch/toroid/rules"
	"github.com/brensch/toroid/store"
)

var totalTurns atomic.Int64
var totalNodes atomic.Int64
var totalMatches atomic.Int64

func main() {
	settings := rules.DefaultSettings
	settings.RegisterFlags(flag.CommandLine)
	cfgA, cfgB := engine.DefaultConfig(), engine.DefaultConfig()
	cfgA.RegisterFlags(flag.CommandLine, "a-")
	cfgB.RegisterFlags(flag.CommandLine, "b-")

	outDir := flag.String("out-dir", "data/arena", "Output directory for match parquet batches")
	workers := flag.Int("workers", runtime.NumCPU(), "Number of concurrent matches")
	matchesPerFlush := flag.Int("matches-per-flush", 50, "Number of matches to buffer per parquet flush")
	maxMatches := flag.Int64("max-matches", 0, "If > 0, stop after playing this many matches")
	moveTimeout := flag.Duration("move-timeout", 0, "Per move search budget (0 searches the full lookahead)")
	seed := flag.Int64("seed", 0, "Seed of the first match; match i uses seed+i (0 picks one from the clock)")
	seedLogPath := flag.String("seed-log", "", "Append-only log of flushed match seeds; seeds found in it are skipped (default <out-dir>/seeds.log, \"-\" disables)")
	useTUI := flag.Bool("tui", true, "Show the interactive dashboard")
	logFile := flag.String("log-file", "arena.log", "Log destination while the dashboard is shown")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn or error")
	flag.Parse()

	if err := settings.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logOut := os.Stderr
	if *useTUI {
		// Logs would tear the dashboard.
		f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	logger, err := logging.New(logOut, *logLevel, false)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	slog.SetDefault(logger)

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	var seeds *store.SeedLog
	if *seedLogPath != "-" {
		path := *seedLogPath
		if path == "" {
			path = filepath.Join(*outDir, "seeds.log")
		}
		if seeds, err = store.OpenSeedLog(path); err != nil {
			logger.Error("open seed log", slog.Any("err", err))
			os.Exit(1)
		}
		defer seeds.Close()
		logger.Info("seed log loaded", slog.String("path", path), slog.Int("seeds", seeds.Count()))
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	logger.Info("starting arena",
		slog.Int("workers", *workers),
		slog.Int64("seed", *seed),
		slog.Int("a_lookahead", cfgA.Lookahead),
		slog.Int("b_lookahead", cfgB.Lookahead),
		slog.Duration("move_timeout", *moveTimeout),
	)

	updates := make(chan MatchUpdate, *workers)
	writeReqs := make(chan matchWriteRequest, (*workers)*4)

	writerDone := make(chan struct{})
	go func() {
		parquetWriterLoop(*outDir, *matchesPerFlush, writeReqs, seeds, logger)
		close(writerDone)
	}()

	playerA := arena.Player{Config: cfgA, MoveTimeout: *moveTimeout}
	playerB := arena.Player{Config: cfgB, MoveTimeout: *moveTimeout}
	var next atomic.Int64

	var workerWG sync.WaitGroup
	for i := 0; i < *workers; i++ {
		workerWG.Add(1)
		go func(workerID int) {
			defer workerWG.Done()
			wlog := logger.With(slog.Int("worker", workerID))
			for ctx.Err() == nil {
				n := next.Add(1)
				if *maxMatches > 0 && n > *maxMatches {
					return
				}
				matchSeed := *seed + n - 1
				if seeds != nil && seeds.Has(matchSeed) {
					continue
				}

				res, err := arena.PlayMatch(ctx, playerA, playerB, arena.Options{
					Settings: settings,
					Seed:     matchSeed,
					Logger:   wlog,
					OnTurn: func(_ *rules.State, row store.TurnRow) {
						totalTurns.Add(1)
						for _, s := range row.Snakes {
							totalNodes.Add(s.Nodes)
						}
					},
				})
				if errors.Is(err, context.Canceled) {
					return
				}
				if err != nil {
					wlog.Error("match failed", slog.Any("err", err))
					continue
				}
				totalMatches.Add(1)

				writeReqs <- matchWriteRequest{turns: res.Turns, match: res.Match}

				// Avoid blocking shutdown if the UI loop stops consuming.
				select {
				case updates <- MatchUpdate{WorkerID: workerID, Match: res.Match, Board: arena.Render(res.Final.Board)}:
				default:
				}
			}
		}(i)
	}

	workersDone := make(chan struct{})
	go func() {
		workerWG.Wait()
		close(workersDone)
	}()

	if *useTUI {
		runDashboard(ctx, cancel, updates, workersDone)
	} else {
		runLogLoop(ctx, updates, workersDone, logger)
	}

	cancel()
	logger.Info("shutdown requested; waiting for workers to finish current matches")
	<-workersDone
	close(writeReqs)
	<-writerDone
	logger.Info("shutdown complete", slog.Int64("matches", totalMatches.Load()))
}

// runDashboard blocks until the user quits, ctx ends or every worker exits.
func runDashboard(ctx context.Context, cancel context.CancelFunc, updates chan MatchUpdate, workersDone <-chan struct{}) {
	p := tea.NewProgram(initialModel(updates), tea.WithAltScreen())
	go func() {
		select {
		case <-ctx.Done():
		case <-workersDone:
			// Let the last updates render before closing.
			time.Sleep(200 * time.Millisecond)
		}
		p.Quit()
	}()
	if _, err := p.Run(); err != nil {
		slog.Error("dashboard failed", slog.Any("err", err))
	}
	cancel()
}

func runLogLoop(ctx context.Context, updates chan MatchUpdate, workersDone <-chan struct{}, logger *slog.Logger) {
	startTime := time.Now()
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	var tally arena.Tally
	for {
		select {
		case <-ctx.Done():
			return
		case <-workersDone:
			logTally(logger, &tally)
			return
		case u := <-updates:
			tally.Add(u.Match)
		case <-ticker.C:
			secs := time.Since(startTime).Seconds()
			logger.Info("stats",
				slog.Float64("matches_per_sec", float64(totalMatches.Load())/secs),
				slog.Float64("turns_per_sec", float64(totalTurns.Load())/secs),
				slog.Float64("nodes_per_sec", float64(totalNodes.Load())/secs),
			)
		}
	}
}

func logTally(logger *slog.Logger, t *arena.Tally) {
	logger.Info("tally",
		slog.Int("matches", t.Matches),
		slog.Int("wins_a", t.WinsA),
		slog.Int("wins_b", t.WinsB),
		slog.Int("draws", t.Draws),
		slog.Float64("mean_turns", t.MeanTurns()),
	)
}

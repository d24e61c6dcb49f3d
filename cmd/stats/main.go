// Command stats summarises arena parquet output.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/brensch/toroid/logging"
	"github.com/brensch/toroid/report"
)

type output struct {
	Summary  report.Summary      `json:"summary"`
	Causes   []report.CauseCount `json:"causes"`
	Matchups []report.Matchup    `json:"matchups"`
	Search   report.SearchStats  `json:"search"`
}

func main() {
	roots := flag.String("data-dirs", "data/arena,debug_matches", "Comma separated directories to scan for parquet files")
	asJSON := flag.Bool("json", false, "Print JSON instead of tables")
	logLevel := flag.String("log-level", "warn", "Log level: debug, info, warn or error")
	flag.Parse()

	logger, err := logging.Setup(*logLevel, false)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	dirs := make([]string, 0)
	for _, d := range strings.Split(*roots, ",") {
		if d = strings.TrimSpace(d); d == "" {
			continue
		}
		if _, err := os.Stat(d); err != nil {
			logger.Warn("skipping data dir", slog.String("dir", d), slog.Any("err", err))
			continue
		}
		dirs = append(dirs, d)
	}

	start := time.Now()
	db, err := report.Open(dirs)
	if err != nil {
		logger.Error("open duckdb", slog.Any("err", err))
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	var out output
	if out.Summary, err = db.Summary(ctx); err == nil {
		if out.Causes, err = db.Causes(ctx); err == nil {
			if out.Matchups, err = db.Matchups(ctx); err == nil {
				out.Search, err = db.Search(ctx)
			}
		}
	}
	if err != nil {
		logger.Error("query failed", slog.Any("err", err))
		os.Exit(1)
	}
	logger.Info("report built", slog.Duration("elapsed", time.Since(start)), slog.Int("dirs", len(dirs)))

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
		return
	}
	printTables(out)
}

func printTables(out output) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	s := out.Summary
	fmt.Fprintf(tw, "matches\t%d\n", s.Matches)
	fmt.Fprintf(tw, "wins a / b / draw\t%d / %d / %d\n", s.WinsA, s.WinsB, s.Draws)
	fmt.Fprintf(tw, "turn limit\t%d\n", s.TurnLimit)
	fmt.Fprintf(tw, "mean turns\t%.1f\n", s.MeanTurns)
	fmt.Fprintf(tw, "mean score a / b\t%.2f / %.2f\n", s.MeanScoreA, s.MeanScoreB)
	fmt.Fprintf(tw, "decisions\t%d (fallback %d, trapped %d)\n", out.Search.Decisions, out.Search.Fallbacks, out.Search.Trapped)
	fmt.Fprintf(tw, "mean depth / nodes\t%.2f / %.0f\n", out.Search.MeanDepth, out.Search.MeanNodes)

	if len(out.Causes) > 0 {
		fmt.Fprintln(tw, "\nside\tcause\tcount")
		for _, c := range out.Causes {
			fmt.Fprintf(tw, "%s\t%s\t%d\n", c.Side, c.Cause, c.Count)
		}
	}
	if len(out.Matchups) > 0 {
		fmt.Fprintln(tw, "\nlookahead a\tlookahead b\tmatches\ta\tb\tdraw")
		for _, m := range out.Matchups {
			fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%d\n", m.LookaheadA, m.LookaheadB, m.Matches, m.WinsA, m.WinsB, m.Draws)
		}
	}
}

// Command server answers move requests over HTTP and streams live
// engine-vs-engine matches over a websocket.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brensch/toroid/engine"
	"github.com/brensch/toroid/logging"
	"github.com/brensch/toroid/rules"
)

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	cfg := engine.DefaultConfig()
	cfg.Lookahead = 4
	cfg.RegisterFlags(fs, "")
	settings := rules.DefaultSettings
	settings.RegisterFlags(fs)

	listen := fs.String("listen", ":8080", "HTTP listen address")
	moveTimeout := fs.Duration("move-timeout", 500*time.Millisecond, "Default move budget; 0 searches the full lookahead")
	reserve := fs.Duration("latency-reserve", 50*time.Millisecond, "Time kept back from each move budget")
	frameDelay := fs.Duration("frame-delay", 150*time.Millisecond, "Pause between turns on /watch")
	maxWatch := fs.Int("max-watchers", 8, "Concurrent /watch streams")
	logLevel := fs.String("log-level", "info", "Log level: debug, info, warn or error")
	pretty := fs.Bool("pretty", false, "Indent log records")

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	logger, err := logging.Setup(*logLevel, *pretty)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := settings.Validate(); err != nil {
		logger.Error("bad settings", slog.Any("err", err))
		os.Exit(2)
	}

	server := NewServer(cfg, settings, *moveTimeout, logger)
	server.reserve = *reserve
	server.frameDelay = *frameDelay
	server.maxWatch = int32(*maxWatch)

	srv := &http.Server{
		Addr:              *listen,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("server listening", slog.String("addr", *listen), slog.Int("lookahead", cfg.Lookahead), slog.Duration("move_timeout", *moveTimeout))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", slog.Any("err", err))
		os.Exit(1)
	}
}

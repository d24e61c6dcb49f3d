package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/brensch/toroid/arena"
	"github.com/brensch/toroid/engine"
	"github.com/brensch/toroid/game"
	"github.com/brensch/toroid/rules"
	"github.com/brensch/toroid/store"
)

type InfoResponse struct {
	APIVersion string `json:"apiversion"`
	Author     string `json:"author"`
	Version    string `json:"version"`
	Lookahead  int    `json:"lookahead"`
}

// MoveRequest is a snapshot plus an optional time budget.
type MoveRequest struct {
	game.Snapshot
	// TimeoutMs overrides the server's move timeout. Negative searches the
	// full lookahead with no deadline.
	TimeoutMs int `json:"timeout_ms,omitempty"`
}

type MoveResponse struct {
	Move      string         `json:"move"`
	Direction game.Direction `json:"direction"`
	Value     int            `json:"value"`
	Depth     int            `json:"depth"`
	Nodes     int            `json:"nodes"`
	ElapsedMs int64          `json:"elapsed_ms"`
}

// Frame is one websocket message on /watch.
type Frame struct {
	Type    string          `json:"type"`
	Turn    *store.TurnRow  `json:"turn,omitempty"`
	Board   string          `json:"board,omitempty"`
	Match   *store.MatchRow `json:"match,omitempty"`
	Message string          `json:"message,omitempty"`
}

const (
	FrameTurn  = "turn"
	FrameEnd   = "end"
	FrameError = "error"
)

// Server answers move requests and streams live arena matches.
type Server struct {
	cfg         engine.Config
	settings    rules.Settings
	moveTimeout time.Duration
	reserve     time.Duration
	frameDelay  time.Duration
	maxWatch    int32
	watching    atomic.Int32
	logger      *slog.Logger
	upgrader    websocket.Upgrader
}

func NewServer(cfg engine.Config, settings rules.Settings, moveTimeout time.Duration, logger *slog.Logger) *Server {
	return &Server{
		cfg:         cfg,
		settings:    settings,
		moveTimeout: moveTimeout,
		reserve:     50 * time.Millisecond,
		frameDelay:  150 * time.Millisecond,
		maxWatch:    8,
		logger:      logger,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/move", s.handleMove)
	mux.HandleFunc("/watch", s.handleWatch)
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, InfoResponse{
		APIVersion: "1",
		Author:     "toroid",
		Version:    "1.0.0",
		Lookahead:  s.cfg.Lookahead,
	})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	startTime := time.Now()

	var req MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := req.Snapshot.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if budget := s.budget(req.TimeoutMs); budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, budget)
		defer cancel()
	}

	rng := rand.New(rand.NewSource(startTime.UnixNano()))
	dec := engine.Decide(ctx, s.cfg, req.Snapshot, rng)

	elapsed := time.Since(startTime)
	s.logger.Info("move",
		slog.String("move", dec.Direction.String()),
		slog.Int("value", dec.Value),
		slog.Int("depth", dec.Depth),
		slog.Int("nodes", dec.Nodes),
		slog.Duration("elapsed", elapsed),
	)

	writeJSON(w, http.StatusOK, MoveResponse{
		Move:      dec.Direction.String(),
		Direction: dec.Direction,
		Value:     dec.Value,
		Depth:     dec.Depth,
		Nodes:     dec.Nodes,
		ElapsedMs: elapsed.Milliseconds(),
	})
}

// budget is the search deadline for a request, or 0 for no deadline. reserve
// is kept back for encoding and network.
func (s *Server) budget(timeoutMs int) time.Duration {
	timeout := s.moveTimeout
	switch {
	case timeoutMs < 0:
		return 0
	case timeoutMs > 0:
		timeout = time.Duration(timeoutMs) * time.Millisecond
	}
	if timeout <= 0 {
		return 0
	}
	compute := timeout - s.reserve
	if compute < 10*time.Millisecond {
		compute = 10 * time.Millisecond
	}
	return compute
}

// handleWatch plays an engine-vs-engine match and streams every turn. The
// seed query parameter replays a specific match.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	seed := time.Now().UnixNano()
	if v := r.URL.Query().Get("seed"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			http.Error(w, "bad seed", http.StatusBadRequest)
			return
		}
		seed = n
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade error", slog.Any("err", err))
		return
	}
	defer ws.Close()

	if s.watching.Add(1) > s.maxWatch {
		s.watching.Add(-1)
		_ = sendFrame(ws, Frame{Type: FrameError, Message: "too many watchers, try again later"})
		return
	}
	defer s.watching.Add(-1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// The client never sends anything; a read error means it went away.
	go func() {
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	player := arena.Player{Config: s.cfg, MoveTimeout: s.moveTimeout}
	var sendErr error
	res, err := arena.PlayMatch(ctx, player, player, arena.Options{
		Settings: s.settings,
		Seed:     seed,
		Logger:   s.logger,
		OnTurn: func(st *rules.State, row store.TurnRow) {
			if sendErr != nil {
				return
			}
			if sendErr = sendFrame(ws, Frame{Type: FrameTurn, Turn: &row, Board: arena.Render(st.Board)}); sendErr != nil {
				cancel()
				return
			}
			if s.frameDelay > 0 {
				select {
				case <-ctx.Done():
				case <-time.After(s.frameDelay):
				}
			}
		},
	})
	switch {
	case errors.Is(err, context.Canceled):
		s.logger.Info("watcher left", slog.String("match", res.MatchID), slog.Int("turns", len(res.Turns)))
		return
	case err != nil:
		_ = sendFrame(ws, Frame{Type: FrameError, Message: err.Error()})
		return
	}
	_ = sendFrame(ws, Frame{Type: FrameEnd, Match: &res.Match})
	_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func sendFrame(ws *websocket.Conn, f Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	_ = ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return ws.WriteMessage(websocket.TextMessage, data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

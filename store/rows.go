// Package store persists arena matches as zstd compressed parquet files.
package store

import (
	"github.com/brensch/toroid/game"
)

// TurnRow is the board after one turn of a match, plus the decisions that
// produced it.
//
// Coordinates follow the game package: (0,0) is top-left.
type TurnRow struct {
	MatchID string `parquet:"match_id,dict" json:"match_id"`
	Turn    int32  `parquet:"turn" json:"turn"`

	AppleX    []int32 `parquet:"apple_x" json:"apple_x"`
	AppleY    []int32 `parquet:"apple_y" json:"apple_y"`
	AppleLife []int32 `parquet:"apple_life" json:"apple_life"`

	Snakes []SnakeRow `parquet:"snakes" json:"snakes"`
}

// SnakeRow is one side of a TurnRow. Move is the direction chosen on this
// turn (0=Up, 1=Down, 2=Left, 3=Right).
type SnakeRow struct {
	Side  string  `parquet:"side,dict" json:"side"`
	BodyX []int32 `parquet:"body_x" json:"body_x"`
	BodyY []int32 `parquet:"body_y" json:"body_y"`
	Score int32   `parquet:"score" json:"score"`

	Move  int32 `parquet:"move" json:"move"`
	Value int64 `parquet:"value" json:"value"`
	Depth int32 `parquet:"depth" json:"depth"`
	Nodes int64 `parquet:"nodes" json:"nodes"`
	// Fallback is set when the engine returned no searched move.
	Fallback bool `parquet:"fallback" json:"fallback"`
	// SafeMoves is how many non-fatal moves the snake had before moving.
	SafeMoves int32 `parquet:"safe_moves" json:"safe_moves"`
}

// MatchRow summarises a finished match.
type MatchRow struct {
	MatchID   string `parquet:"match_id,dict" json:"match_id"`
	CreatedNs int64  `parquet:"created_ns" json:"created_ns"`
	Seed      int64  `parquet:"seed" json:"seed"`

	Width     int32   `parquet:"width" json:"width"`
	Height    int32   `parquet:"height" json:"height"`
	ObstacleX []int32 `parquet:"obstacle_x" json:"obstacle_x"`
	ObstacleY []int32 `parquet:"obstacle_y" json:"obstacle_y"`
	WinScore  int32   `parquet:"win_score" json:"win_score"`

	LookaheadA int32 `parquet:"lookahead_a" json:"lookahead_a"`
	LookaheadB int32 `parquet:"lookahead_b" json:"lookahead_b"`

	Turns     int32  `parquet:"turns" json:"turns"`
	Winner    string `parquet:"winner,dict" json:"winner"`
	CauseA    string `parquet:"cause_a,dict" json:"cause_a"`
	CauseB    string `parquet:"cause_b,dict" json:"cause_b"`
	TurnLimit bool   `parquet:"turn_limit" json:"turn_limit"`
	ScoreA    int32  `parquet:"score_a" json:"score_a"`
	ScoreB    int32  `parquet:"score_b" json:"score_b"`
}

// NewSnakeRow captures a snake's body and score.
func NewSnakeRow(side string, s *game.Snake) SnakeRow {
	row := SnakeRow{Side: side, Score: int32(s.AppleScore), Move: int32(game.NoDirection)}
	for _, l := range s.Body() {
		row.BodyX = append(row.BodyX, int32(l.X))
		row.BodyY = append(row.BodyY, int32(l.Y))
	}
	return row
}

// AppleColumns splits apples into parallel columns.
func AppleColumns(apples []game.Apple) (x, y, life []int32) {
	for _, a := range apples {
		x = append(x, int32(a.At.X))
		y = append(y, int32(a.At.Y))
		life = append(life, int32(a.LifeLeft))
	}
	return x, y, life
}

// ObstacleColumns lists obstacle cells of g as parallel columns.
func ObstacleColumns(g *game.Grid) (x, y []int32) {
	for i, wall := range g.Obstacles {
		if !wall {
			continue
		}
		l := g.Location(i)
		x = append(x, int32(l.X))
		y = append(y, int32(l.Y))
	}
	return x, y
}

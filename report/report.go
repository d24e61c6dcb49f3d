// Package report aggregates arena parquet output with DuckDB.
package report

import (
	"context"
	"database/sql"
	"io/fs"
	"path/filepath"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
)

// DB is an in-memory DuckDB with a matches view and a turns view over every
// parquet file under the roots. Files in tmp directories are skipped.
type DB struct {
	db *sql.DB
}

// Open scans roots for matches_*.parquet, turns_*.parquet and match_*.parquet
// files. Roots with no files give empty views.
func Open(roots []string) (*DB, error) {
	var matchFiles, turnFiles []string
	for _, root := range roots {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if d.Name() == "tmp" {
					return filepath.SkipDir
				}
				return nil
			}
			name := d.Name()
			if filepath.Ext(name) != ".parquet" {
				return nil
			}
			switch {
			case strings.HasPrefix(name, "matches_"):
				matchFiles = append(matchFiles, path)
			case strings.HasPrefix(name, "turns_"), strings.HasPrefix(name, "match_"):
				turnFiles = append(turnFiles, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, err
	}
	// Basic pragmas; ignore errors for compatibility across versions.
	_, _ = db.Exec("PRAGMA threads=4")

	if err := createView(db, "matches", matchFiles, emptyMatches); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := createView(db, "turns", turnFiles, emptyTurns); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{db: db}, nil
}

const emptyMatches = `SELECT * FROM (
	SELECT
		NULL::VARCHAR AS match_id,
		NULL::BIGINT AS seed,
		NULL::INTEGER AS lookahead_a,
		NULL::INTEGER AS lookahead_b,
		NULL::INTEGER AS turns,
		NULL::VARCHAR AS winner,
		NULL::VARCHAR AS cause_a,
		NULL::VARCHAR AS cause_b,
		NULL::BOOLEAN AS turn_limit,
		NULL::INTEGER AS score_a,
		NULL::INTEGER AS score_b
) WHERE 1=0`

const emptyTurns = `SELECT * FROM (
	SELECT
		NULL::VARCHAR AS match_id,
		NULL::INTEGER AS turn,
		NULL::STRUCT(
			side VARCHAR,
			move INTEGER,
			value BIGINT,
			depth INTEGER,
			nodes BIGINT,
			fallback BOOLEAN,
			safe_moves INTEGER
		)[] AS snakes
) WHERE 1=0`

func createView(db *sql.DB, name string, files []string, empty string) error {
	if len(files) == 0 {
		_, err := db.Exec(`CREATE OR REPLACE VIEW ` + name + ` AS ` + empty)
		return err
	}
	quoted := make([]string, len(files))
	for i, f := range files {
		quoted[i] = "'" + escapeSQLString(f) + "'"
	}
	_, err := db.Exec(`CREATE OR REPLACE VIEW ` + name + ` AS
		SELECT * FROM read_parquet([` + strings.Join(quoted, ",") + `], union_by_name=true)`)
	return err
}

func escapeSQLString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func (d *DB) Close() error { return d.db.Close() }

type Summary struct {
	Matches    int64   `json:"matches"`
	WinsA      int64   `json:"wins_a"`
	WinsB      int64   `json:"wins_b"`
	Draws      int64   `json:"draws"`
	TurnLimit  int64   `json:"turn_limit"`
	MeanTurns  float64 `json:"mean_turns"`
	MeanScoreA float64 `json:"mean_score_a"`
	MeanScoreB float64 `json:"mean_score_b"`
}

func (d *DB) Summary(ctx context.Context) (Summary, error) {
	var s Summary
	var turns, scoreA, scoreB sql.NullFloat64
	err := d.db.QueryRowContext(ctx, `SELECT
			count(*),
			count(*) FILTER (WHERE winner = 'a'),
			count(*) FILTER (WHERE winner = 'b'),
			count(*) FILTER (WHERE winner = 'draw'),
			count(*) FILTER (WHERE turn_limit),
			avg(turns),
			avg(score_a),
			avg(score_b)
		FROM matches`).Scan(&s.Matches, &s.WinsA, &s.WinsB, &s.Draws, &s.TurnLimit, &turns, &scoreA, &scoreB)
	if err != nil {
		return Summary{}, err
	}
	s.MeanTurns, s.MeanScoreA, s.MeanScoreB = turns.Float64, scoreA.Float64, scoreB.Float64
	return s, nil
}

type CauseCount struct {
	Side  string `json:"side"`
	Cause string `json:"cause"`
	Count int64  `json:"count"`
}

// Causes counts defeat causes per side, ignoring sides that survived.
func (d *DB) Causes(ctx context.Context) ([]CauseCount, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT side, cause, count(*) AS n FROM (
			SELECT 'a' AS side, cause_a AS cause FROM matches
			UNION ALL
			SELECT 'b' AS side, cause_b AS cause FROM matches
		)
		WHERE cause IS NOT NULL AND cause <> 'none'
		GROUP BY side, cause
		ORDER BY side, n DESC, cause`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CauseCount
	for rows.Next() {
		var c CauseCount
		if err := rows.Scan(&c.Side, &c.Cause, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Matchup is the record of one lookahead pairing.
type Matchup struct {
	LookaheadA int64 `json:"lookahead_a"`
	LookaheadB int64 `json:"lookahead_b"`
	Matches    int64 `json:"matches"`
	WinsA      int64 `json:"wins_a"`
	WinsB      int64 `json:"wins_b"`
	Draws      int64 `json:"draws"`
}

func (d *DB) Matchups(ctx context.Context) ([]Matchup, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT
			lookahead_a::BIGINT,
			lookahead_b::BIGINT,
			count(*),
			count(*) FILTER (WHERE winner = 'a'),
			count(*) FILTER (WHERE winner = 'b'),
			count(*) FILTER (WHERE winner = 'draw')
		FROM matches
		GROUP BY lookahead_a, lookahead_b
		ORDER BY lookahead_a, lookahead_b`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Matchup
	for rows.Next() {
		var m Matchup
		if err := rows.Scan(&m.LookaheadA, &m.LookaheadB, &m.Matches, &m.WinsA, &m.WinsB, &m.Draws); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// SearchStats describes the engine decisions recorded in turn files.
type SearchStats struct {
	Decisions int64 `json:"decisions"`
	Fallbacks int64 `json:"fallbacks"`
	// Trapped counts decisions made with no safe move available.
	Trapped   int64   `json:"trapped"`
	MeanDepth float64 `json:"mean_depth"`
	MeanNodes float64 `json:"mean_nodes"`
}

func (d *DB) Search(ctx context.Context) (SearchStats, error) {
	var s SearchStats
	var depth, nodes sql.NullFloat64
	err := d.db.QueryRowContext(ctx, `SELECT
			count(*),
			count(*) FILTER (WHERE s.fallback),
			count(*) FILTER (WHERE s.safe_moves = 0),
			avg(s.depth),
			avg(s.nodes)
		FROM (SELECT unnest(snakes) AS s FROM turns)`).Scan(&s.Decisions, &s.Fallbacks, &s.Trapped, &depth, &nodes)
	if err != nil {
		return SearchStats{}, err
	}
	s.MeanDepth, s.MeanNodes = depth.Float64, nodes.Float64
	return s, nil
}

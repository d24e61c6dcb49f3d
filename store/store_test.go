package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brensch/toroid/game"
)

func sampleTurns(matchID string) []TurnRow {
	g := &game.Grid{Width: 6, Height: 4}
	a := NewSnakeRow("a", game.NewSnake(g, []game.Location{{X: 2, Y: 1}, {X: 1, Y: 1}}, game.Right, false))
	a.Move = int32(game.Right)
	a.Depth = 2
	b := NewSnakeRow("b", game.NewSnake(g, []game.Location{{X: 4, Y: 2}}, game.NoDirection, false))
	ax, ay, life := AppleColumns([]game.Apple{{At: game.Location{X: 5, Y: 3}, LifeLeft: 7}})
	return []TurnRow{
		{MatchID: matchID, Turn: 1, AppleX: ax, AppleY: ay, AppleLife: life, Snakes: []SnakeRow{a, b}},
		{MatchID: matchID, Turn: 2, Snakes: []SnakeRow{a, b}},
	}
}

func TestWriteMatchParquet_ReadBack(t *testing.T) {
	dir := t.TempDir()
	rows := sampleTurns("m1")

	path, err := WriteMatchParquet(dir, "m1", rows)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "match_m1.parquet"), path)
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "tmp file left behind")

	got, err := ReadTurns(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int32(1), got[0].Turn)
	assert.Equal(t, []int32{5}, got[0].AppleX)
	require.Len(t, got[0].Snakes, 2)
	assert.Equal(t, []int32{2, 1}, got[0].Snakes[0].BodyX)
	assert.Equal(t, int32(game.Right), got[0].Snakes[0].Move)
	assert.Equal(t, int32(game.NoDirection), got[0].Snakes[1].Move)
}

func TestBatchWriter_FinalizeMovesFile(t *testing.T) {
	dir := t.TempDir()
	w, err := NewBatchWriter[MatchRow](dir, "matches", MatchSchema)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tmp"), filepath.Dir(w.StagedPath()))

	require.NoError(t, w.AddMatch([]MatchRow{{MatchID: "x", Winner: "a", Turns: 12}}))
	require.NoError(t, w.AddMatch([]MatchRow{{MatchID: "y", Winner: "draw", Turns: 40}}))
	assert.Equal(t, 2, w.Matches())
	_, err = os.Stat(w.FinalPath())
	assert.True(t, os.IsNotExist(err), "file visible before finalize")

	done, err := w.Finalize()
	require.NoError(t, err)
	assert.Equal(t, Flushed{Path: w.FinalPath(), Rows: 2, Matches: 2}, done)
	_, err = os.Stat(w.StagedPath())
	assert.True(t, os.IsNotExist(err))

	got, err := ReadMatches(done.Path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "draw", got[1].Winner)

	assert.ErrorIs(t, w.AddMatch([]MatchRow{{}}), ErrClosed)
}

func TestBatchWriter_Options(t *testing.T) {
	out, staging := t.TempDir(), t.TempDir()
	at := time.Unix(0, 1234)
	w, err := NewBatchWriter[TurnRow](out, "turns", TurnSchema,
		WithTmpDir(staging),
		WithCompressionLevel(zstd.SpeedFastest),
		withClock(func() time.Time { return at }),
	)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(staging, "turns_1234.parquet"), w.StagedPath())

	require.NoError(t, w.AddMatch([]TurnRow{{MatchID: "m", Turn: 1}, {MatchID: "m", Turn: 2}}))
	done, err := w.Finalize()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "turns_1234.parquet"), done.Path)
	assert.Equal(t, 2, done.Rows)
	assert.Equal(t, 1, done.Matches)

	got, err := ReadTurns(done.Path)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestBatchWriter_EmptyBatchLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	w, err := NewBatchWriter[TurnRow](dir, "turns", TurnSchema)
	require.NoError(t, err)

	done, err := w.Finalize()
	require.NoError(t, err)
	assert.Zero(t, done)
	_, err = os.Stat(w.StagedPath())
	assert.True(t, os.IsNotExist(err))
}

func TestBatchWriter_Discard(t *testing.T) {
	dir := t.TempDir()
	w, err := NewBatchWriter[MatchRow](dir, "matches", MatchSchema)
	require.NoError(t, err)
	require.NoError(t, w.AddMatch([]MatchRow{{MatchID: "x"}}))

	w.Discard()
	for _, p := range []string{w.StagedPath(), w.FinalPath()} {
		_, err := os.Stat(p)
		assert.True(t, os.IsNotExist(err), p)
	}
	done, err := w.Finalize()
	require.NoError(t, err)
	assert.Zero(t, done)
}

func TestObstacleColumns(t *testing.T) {
	g := &game.Grid{Width: 3, Height: 2, Obstacles: []bool{false, true, false, false, false, true}}
	x, y := ObstacleColumns(g)
	assert.Equal(t, []int32{1, 2}, x)
	assert.Equal(t, []int32{0, 1}, y)
}

func TestSeedLog_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "seeds.log")
	l, err := OpenSeedLog(path)
	require.NoError(t, err)
	require.NoError(t, l.AddMany([]int64{5, 9, 5}))
	assert.True(t, l.Has(9))
	assert.False(t, l.Has(6))
	require.NoError(t, l.Close())
	assert.Error(t, l.AddMany([]int64{1}))

	// A torn final line is skipped.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("12x")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	l, err = OpenSeedLog(path)
	require.NoError(t, err)
	defer l.Close()
	assert.Equal(t, 2, l.Count())
	assert.True(t, l.Has(5))
}

package main

import (
	"log/slog"

	"github.com/brensch/toroid/store"
)

type matchWriteRequest struct {
	turns []store.TurnRow
	match store.MatchRow
}

// batch is one pair of open turn and match files.
type batch struct {
	turns   *store.BatchWriter[store.TurnRow]
	matches *store.BatchWriter[store.MatchRow]
	seeds   []int64
}

func openBatch(outDir string) (*batch, error) {
	turns, err := store.NewBatchWriter[store.TurnRow](outDir, "turns", store.TurnSchema)
	if err != nil {
		return nil, err
	}
	matches, err := store.NewBatchWriter[store.MatchRow](outDir, "matches", store.MatchSchema)
	if err != nil {
		turns.Discard()
		return nil, err
	}
	return &batch{turns: turns, matches: matches}, nil
}

func (b *batch) write(req matchWriteRequest) error {
	if err := b.turns.AddMatch(req.turns); err != nil {
		return err
	}
	if err := b.matches.AddMatch([]store.MatchRow{req.match}); err != nil {
		return err
	}
	b.seeds = append(b.seeds, req.match.Seed)
	return nil
}

// finalize flushes both files. Seeds are logged only when both landed.
func (b *batch) finalize(seeds *store.SeedLog, logger *slog.Logger) {
	ok := true
	for _, f := range []interface {
		Finalize() (store.Flushed, error)
	}{b.turns, b.matches} {
		done, err := f.Finalize()
		if err != nil {
			logger.Error("parquet flush failed", slog.Any("err", err))
			ok = false
			continue
		}
		if done.Path != "" {
			logger.Info("parquet flush ok", slog.String("path", done.Path), slog.Int("matches", done.Matches), slog.Int("rows", done.Rows))
		}
	}
	if ok && seeds != nil {
		if err := seeds.AddMany(b.seeds); err != nil {
			logger.Error("seed log append failed", slog.Any("err", err))
		}
	}
}

// parquetWriterLoop streams matches into rolling batch files, starting a new
// pair every matchesPerFlush matches. It returns once in is closed and the
// last batch is flushed. seeds may be nil.
func parquetWriterLoop(outDir string, matchesPerFlush int, in <-chan matchWriteRequest, seeds *store.SeedLog, logger *slog.Logger) {
	if matchesPerFlush <= 0 {
		matchesPerFlush = 50
	}

	var cur *batch
	for req := range in {
		if cur == nil {
			b, err := openBatch(outDir)
			if err != nil {
				logger.Error("open parquet batch", slog.Any("err", err), slog.String("match", req.match.MatchID))
				continue
			}
			cur = b
		}
		if err := cur.write(req); err != nil {
			logger.Error("write match", slog.Any("err", err), slog.String("match", req.match.MatchID))
			continue
		}
		if cur.matches.Matches() >= matchesPerFlush {
			cur.finalize(seeds, logger)
			cur = nil
		}
	}
	if cur != nil {
		cur.finalize(seeds, logger)
	}
}

package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

const (
	TurnSchema  = "toroid_turn_v1"
	MatchSchema = "toroid_match_v1"
)

// WriteMatchParquet writes every turn of a single match to
// outDir/match_<id>.parquet through a tmp file and rename.
func WriteMatchParquet(outDir, matchID string, rows []TurnRow) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	finalPath := filepath.Join(outDir, fmt.Sprintf("match_%s.parquet", matchID))
	tmpPath := finalPath + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", TurnSchema),
	); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("write parquet: %w", err)
	}

	if err := publish(tmpPath, finalPath); err != nil {
		return "", err
	}
	return finalPath, nil
}

// ReadTurns loads all turn rows from a parquet file.
func ReadTurns(path string) ([]TurnRow, error) {
	rows, err := parquet.ReadFile[TurnRow](path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

// ReadMatches loads all match rows from a parquet file.
func ReadMatches(path string) ([]MatchRow, error) {
	rows, err := parquet.ReadFile[MatchRow](path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

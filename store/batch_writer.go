package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

var ErrClosed = errors.New("batch writer is closed")

type batchOptions struct {
	tmpDir string
	level  zstd.Level
	now    func() time.Time
}

// BatchOption configures NewBatchWriter.
type BatchOption func(*batchOptions)

// WithTmpDir stages files in dir instead of outDir/tmp. dir must be on the
// same filesystem as outDir.
func WithTmpDir(dir string) BatchOption {
	return func(o *batchOptions) { o.tmpDir = dir }
}

// WithCompressionLevel sets the zstd level.
func WithCompressionLevel(level zstd.Level) BatchOption {
	return func(o *batchOptions) { o.level = level }
}

// withClock fixes the timestamp used in file names.
func withClock(now func() time.Time) BatchOption {
	return func(o *batchOptions) { o.now = now }
}

// Flushed describes a batch file that reached its output directory.
type Flushed struct {
	Path    string
	Rows    int
	Matches int
}

// BatchWriter appends whole matches to one staged parquet file. Nothing is
// visible in the output directory until Finalize.
type BatchWriter[T any] struct {
	staged string
	final  string

	file   *os.File
	writer *parquet.GenericWriter[T]

	rows    int
	matches int
}

// NewBatchWriter stages <prefix>_<unix ns>.parquet for outDir. schema is
// stored as key/value metadata.
func NewBatchWriter[T any](outDir, prefix, schema string, opts ...BatchOption) (*BatchWriter[T], error) {
	if outDir == "" {
		return nil, errors.New("batch writer: output dir is required")
	}
	o := batchOptions{level: zstd.SpeedBetterCompression, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if abs, err := filepath.Abs(outDir); err == nil {
		outDir = abs
	}
	if o.tmpDir == "" {
		o.tmpDir = filepath.Join(outDir, "tmp")
	}
	for _, dir := range []string{outDir, o.tmpDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("batch writer: %w", err)
		}
	}

	name := fmt.Sprintf("%s_%d.parquet", prefix, o.now().UnixNano())
	staged := filepath.Join(o.tmpDir, name)
	f, err := os.OpenFile(staged, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("batch writer: %w", err)
	}

	w := parquet.NewGenericWriter[T](f, parquet.Compression(&zstd.Codec{Level: o.level}))
	w.SetKeyValueMetadata("schema", schema)
	return &BatchWriter[T]{
		staged: staged,
		final:  filepath.Join(outDir, name),
		file:   f,
		writer: w,
	}, nil
}

func (b *BatchWriter[T]) StagedPath() string { return b.staged }
func (b *BatchWriter[T]) FinalPath() string  { return b.final }

// Matches is the number of AddMatch calls since the writer opened.
func (b *BatchWriter[T]) Matches() int { return b.matches }

// AddMatch appends the rows belonging to one match.
func (b *BatchWriter[T]) AddMatch(rows []T) error {
	if b.writer == nil {
		return ErrClosed
	}
	if len(rows) > 0 {
		if _, err := b.writer.Write(rows); err != nil {
			return fmt.Errorf("write %d rows: %w", len(rows), err)
		}
	}
	b.rows += len(rows)
	b.matches++
	return nil
}

// Finalize closes the file and publishes it. An empty batch is discarded and
// returns a zero Flushed.
func (b *BatchWriter[T]) Finalize() (Flushed, error) {
	if b.writer == nil {
		return Flushed{}, nil
	}
	if err := b.close(); err != nil {
		_ = os.Remove(b.staged)
		return Flushed{}, err
	}
	if b.rows == 0 {
		_ = os.Remove(b.staged)
		return Flushed{}, nil
	}
	if err := publish(b.staged, b.final); err != nil {
		return Flushed{}, err
	}
	return Flushed{Path: b.final, Rows: b.rows, Matches: b.matches}, nil
}

// Discard closes the writer and removes the staged file.
func (b *BatchWriter[T]) Discard() {
	if b.writer == nil {
		return
	}
	_ = b.close()
	_ = os.Remove(b.staged)
}

func (b *BatchWriter[T]) close() error {
	werr := b.writer.Close()
	_ = b.file.Sync()
	ferr := b.file.Close()
	b.writer, b.file = nil, nil
	if werr != nil {
		return fmt.Errorf("close parquet writer: %w", werr)
	}
	if ferr != nil {
		return fmt.Errorf("close parquet file: %w", ferr)
	}
	return nil
}

// publish moves a finished file into place, removing it on failure.
func publish(staged, final string) error {
	if err := os.Rename(staged, final); err != nil {
		_ = os.Remove(staged)
		return fmt.Errorf("publish parquet: %w", err)
	}
	return nil
}

package store

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// SeedLog records the seeds of matches whose rows reached a finalized parquet
// file, so a restarted arena run can skip them.
//
// It is an append-only file with one seed per line. Lines that do not parse,
// such as a partial final line after a crash, are ignored.
type SeedLog struct {
	mu     sync.RWMutex
	file   *os.File
	played map[int64]struct{}
}

func OpenSeedLog(path string) (*SeedLog, error) {
	if path == "" {
		return nil, fmt.Errorf("log path is required")
	}
	played := make(map[int64]struct{})

	if f, err := os.Open(path); err == nil {
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			seed, err := strconv.ParseInt(strings.TrimSpace(scanner.Text()), 10, 64)
			if err != nil {
				continue
			}
			played[seed] = struct{}{}
		}
		_ = f.Close()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return &SeedLog{file: file, played: played}, nil
}

func (l *SeedLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func (l *SeedLog) Has(seed int64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.played[seed]
	return ok
}

func (l *SeedLog) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.played)
}

// AddMany appends seeds not already present and syncs once.
func (l *SeedLog) AddMany(seeds []int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return fmt.Errorf("log file is closed")
	}

	added := 0
	for _, seed := range seeds {
		if _, ok := l.played[seed]; ok {
			continue
		}
		if _, err := l.file.WriteString(strconv.FormatInt(seed, 10) + "\n"); err != nil {
			return fmt.Errorf("append log: %w", err)
		}
		l.played[seed] = struct{}{}
		added++
	}
	if added == 0 {
		return nil
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("sync log: %w", err)
	}
	return nil
}

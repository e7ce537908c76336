// Package cache stores the last detection report in memory and on disk.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/FlowerRealm/oi-code-extension-sub002/internal/toolchain"
	appErr "github.com/FlowerRealm/oi-code-extension-sub002/pkg/errors"
)

const (
	// recordFileName is the fixed cache identifier of the only on-disk
	// artifact this core produces.
	recordFileName = "toolchains.json.zst"
	tempFileName   = "toolchains.tmp"

	// DefaultTTL is how long a persisted report stays valid.
	DefaultTTL = 24 * time.Hour
)

// Store is the two-tier detection report cache. The in-memory tier is
// authoritative; the persisted tier is only consulted on a memory miss.
type Store struct {
	dir string
	ttl time.Duration
	now func() time.Time

	mu  sync.Mutex
	mem *toolchain.Report
}

// NewStore creates a store rooted at dir. A non-positive ttl falls back
// to DefaultTTL.
func NewStore(dir string, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{dir: dir, ttl: ttl, now: time.Now}
}

// Load returns the cached report, if any tier holds a valid one.
func (s *Store) Load() (*toolchain.Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mem != nil {
		return s.mem, true
	}

	report, ok := s.loadDisk()
	if !ok {
		return nil, false
	}
	s.mem = report
	return report, true
}

// Save stores the report in both tiers. A disk write failure degrades to
// memory-only caching and is reported, never fatal.
func (s *Store) Save(report toolchain.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mem = &report
	if s.dir == "" {
		return nil
	}
	if err := s.writeDisk(report); err != nil {
		return appErr.Wrap(err, appErr.CacheWriteFailed)
	}
	return nil
}

// Invalidate clears both tiers. Subsequent Load calls observe a miss.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mem = nil
	if s.dir != "" {
		_ = os.Remove(filepath.Join(s.dir, recordFileName))
	}
}

// loadDisk reads the persisted record, rejecting format-version
// mismatches and entries older than the TTL.
func (s *Store) loadDisk() (*toolchain.Report, bool) {
	if s.dir == "" {
		return nil, false
	}
	raw, err := os.ReadFile(filepath.Join(s.dir, recordFileName))
	if err != nil {
		return nil, false
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, false
	}
	defer decoder.Close()
	data, err := decoder.DecodeAll(raw, nil)
	if err != nil {
		return nil, false
	}

	var report toolchain.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, false
	}
	if report.FormatVersion != toolchain.ReportFormatVersion {
		return nil, false
	}
	if s.now().Sub(report.GeneratedAt) > s.ttl {
		return nil, false
	}
	return &report, true
}

// writeDisk persists the record atomically via a temp file rename, with
// the payload zstd-compressed.
func (s *Store) writeDisk(report toolchain.Report) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return err
	}
	compressed := encoder.EncodeAll(data, nil)
	if err := encoder.Close(); err != nil {
		return err
	}

	tempPath := filepath.Join(s.dir, tempFileName)
	if err := os.WriteFile(tempPath, compressed, 0o644); err != nil {
		return err
	}
	return os.Rename(tempPath, filepath.Join(s.dir, recordFileName))
}

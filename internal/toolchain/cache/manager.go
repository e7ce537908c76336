package cache

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/FlowerRealm/oi-code-extension-sub002/internal/toolchain"
	"github.com/FlowerRealm/oi-code-extension-sub002/pkg/utils/logger"
)

// detectKey is the single-flight key; there is exactly one detection
// pipeline per process.
const detectKey = "toolchain-detect"

// Scanner runs one full detection pass.
type Scanner interface {
	Scan(ctx context.Context) toolchain.Report
}

// Manager fronts the detector with the two-tier cache and single-flight
// discipline: a caller arriving while a scan is in flight shares that
// scan's result instead of launching its own.
type Manager struct {
	store   *Store
	scanner Scanner
	group   singleflight.Group
}

// NewManager creates a manager.
func NewManager(store *Store, scanner Scanner) *Manager {
	return &Manager{store: store, scanner: scanner}
}

// Detect returns the cached report or runs a scan. forceRescan
// invalidates both cache tiers before scanning.
func (m *Manager) Detect(ctx context.Context, forceRescan bool) toolchain.Report {
	if forceRescan {
		m.store.Invalidate()
	}

	if report, ok := m.store.Load(); ok {
		return *report
	}

	// The scan runs without the caller's cancellation so a concurrent
	// caller joining mid-flight cannot have its shared result cut short.
	v, _, shared := m.group.Do(detectKey, func() (interface{}, error) {
		report := m.scanner.Scan(context.WithoutCancel(ctx))
		if err := m.store.Save(report); err != nil {
			logger.Warn(ctx, "persisting detection report failed")
		}
		return report, nil
	})
	if shared {
		logger.Debug(ctx, "joined in-flight toolchain scan")
	}
	return v.(toolchain.Report)
}

// Invalidate clears the cache without triggering a scan.
func (m *Manager) Invalidate() {
	m.store.Invalidate()
}

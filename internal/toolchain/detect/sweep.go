package detect

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/FlowerRealm/oi-code-extension-sub002/pkg/utils/logger"
)

const (
	defaultSweepMaxDepth   = 6
	defaultSweepMaxResults = 16
)

// sweep is the depth- and result-capped last-resort filesystem walk.
// It only runs when every other tier produced nothing and sweeping was
// explicitly enabled in the config.
func (d *Detector) sweep(ctx context.Context) []string {
	maxDepth := d.cfg.SweepMaxDepth
	if maxDepth <= 0 {
		maxDepth = defaultSweepMaxDepth
	}
	maxResults := d.cfg.SweepMaxResults
	if maxResults <= 0 {
		maxResults = defaultSweepMaxResults
	}
	roots := d.cfg.SweepRoots
	if len(roots) == 0 {
		roots = defaultSweepRoots()
	}

	names := make(map[string]struct{}, len(candidateNames()))
	for _, n := range candidateNames() {
		names[strings.ToLower(n)] = struct{}{}
	}

	var found []string
	for _, root := range roots {
		if len(found) >= maxResults {
			break
		}
		rootDepth := strings.Count(filepath.Clean(root), string(filepath.Separator))
		err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return nil // unreadable subtree, keep walking
			}
			if ctx.Err() != nil {
				return filepath.SkipAll
			}
			depth := strings.Count(filepath.Clean(path), string(filepath.Separator)) - rootDepth
			if entry.IsDir() {
				if depth >= maxDepth {
					return filepath.SkipDir
				}
				return nil
			}
			name := strings.ToLower(entry.Name())
			if _, ok := names[name]; !ok && !versionedNamePattern.MatchString(name) {
				return nil
			}
			found = append(found, path)
			if len(found) >= maxResults {
				return filepath.SkipAll
			}
			return nil
		})
		if err != nil {
			logger.Debug(ctx, "sweep aborted", zap.String("root", root), zap.Error(err))
		}
	}
	return found
}

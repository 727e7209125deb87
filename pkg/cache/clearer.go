package cache

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/lumencms/setup/pkg/config"
	"github.com/lumencms/setup/pkg/logging"
)

// Report is the outcome of a cache clear run.
type Report struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	DeletedCount int    `json:"deleted_count,omitempty"`
}

// Clearer removes generated cache files beneath the configured
// cache directory. Directories are left in place; only regular
// files are deleted.
type Clearer struct {
	paths  *config.Paths
	logger *logging.ColoredLogger
}

// NewClearer creates a cache clearer rooted at the given paths.
func NewClearer(paths *config.Paths, logger *logging.ColoredLogger) *Clearer {
	return &Clearer{paths: paths, logger: logger}
}

// ClearAll deletes every file under the cache directory, deepest
// entries first. A missing cache directory is trivial success. On
// any failure the reported count is zero even when some files were
// already removed; partial progress is not surfaced.
func (c *Clearer) ClearAll() *Report {
	dir := c.paths.CacheDir()

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return &Report{Success: true, Message: "cache directory does not exist, nothing to clear"}
	}
	if err != nil || !info.IsDir() {
		return &Report{Success: false, Message: fmt.Sprintf("cannot access cache directory %s", dir)}
	}

	count, err := clearDir(dir)
	if err != nil {
		c.logger.ComponentError(logging.ComponentCache, "cache clear failed",
			zap.String("dir", dir), zap.Error(err))
		return &Report{Success: false, Message: fmt.Sprintf("cache clear failed: %v", err)}
	}

	c.logger.ComponentInfo(logging.ComponentCache, "cache cleared",
		zap.String("dir", dir), zap.Int("deleted", count))
	return &Report{
		Success:      true,
		Message:      fmt.Sprintf("deleted %d cache files", count),
		DeletedCount: count,
	}
}

// clearDir removes all files under dir, descending into
// subdirectories before touching the current level's files.
func clearDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			n, err := clearDir(path)
			deleted += n
			if err != nil {
				return deleted, err
			}
		}
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

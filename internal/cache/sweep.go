package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"
)

// Stats describes the raw on-disk state of the cache. Expired records that
// have not been swept yet are included.
type Stats struct {
	Dir        string `json:"dir"`
	Entries    int    `json:"entries"`
	TotalBytes int64  `json:"totalBytes"`
}

// Sweep removes every expired or corrupt record and returns how many were
// removed. Orphaned temp files older than the temp grace period are removed
// as well but are not counted.
func (c *Cache) Sweep() (int, error) {
	if !c.enabled {
		return 0, nil
	}
	infos, err := c.list()
	if err != nil || len(infos) == 0 {
		return 0, err
	}

	now := c.now()
	var removed, orphans atomic.Int64
	p := pool.New().WithMaxGoroutines(c.sweepWorkers)
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		path := filepath.Join(c.dir, info.Name())
		switch filepath.Ext(info.Name()) {
		case entryExt:
			p.Go(func() {
				if c.sweepRecord(path, now) {
					removed.Add(1)
				}
			})
		case tempExt:
			if now.Sub(info.ModTime()) > c.tempGrace && c.remove(path) {
				orphans.Add(1)
			}
		}
	}
	p.Wait()

	n := int(removed.Load())
	c.metrics.sweptN(n)
	if n > 0 || orphans.Load() > 0 {
		c.logger.Info().
			Int("removed", n).
			Int64("orphaned_temp_files", orphans.Load()).
			Msg("cleared expired cache files")
	}
	return n, nil
}

// sweepRecord removes path if it is expired or corrupt. Records that vanish
// while being inspected are skipped.
func (c *Cache) sweepRecord(path string, now time.Time) bool {
	data, err := afero.ReadFile(c.fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return false
	}
	if err == nil {
		entry, decodeErr := decodeEntry(data)
		if decodeErr == nil && !c.expired(entry, now) {
			return false
		}
	}
	return c.remove(path)
}

// Stats reports the number and total size of records on disk.
func (c *Cache) Stats() (Stats, error) {
	stats := Stats{Dir: c.dir}
	if !c.enabled {
		return stats, nil
	}
	infos, err := c.list()
	if err != nil {
		return stats, err
	}
	for _, info := range infos {
		if info.IsDir() || filepath.Ext(info.Name()) != entryExt {
			continue
		}
		stats.Entries++
		stats.TotalBytes += info.Size()
	}
	return stats, nil
}

// Clear removes every record regardless of age and returns how many were
// removed.
func (c *Cache) Clear() (int, error) {
	if !c.enabled {
		return 0, nil
	}
	infos, err := c.list()
	if err != nil {
		return 0, err
	}
	var removed int
	for _, info := range infos {
		if info.IsDir() || filepath.Ext(info.Name()) != entryExt {
			continue
		}
		if c.remove(filepath.Join(c.dir, info.Name())) {
			removed++
		}
	}
	return removed, nil
}

// list returns the directory contents; a missing directory is empty.
func (c *Cache) list() ([]os.FileInfo, error) {
	infos, err := afero.ReadDir(c.fs, c.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading cache directory: %w", err)
	}
	return infos, nil
}

package boundary

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrCacheMiss is returned by a Cache that holds no copy of a layer.
var ErrCacheMiss = errors.New("boundary cache miss")

// Cache keeps the raw bytes of fetched boundary documents so a restart can
// draw the overlays before (or without) reaching the upstream source.
type Cache interface {
	Name() string
	Load(ctx context.Context, layer Layer) ([]byte, time.Time, error)
	Save(ctx context.Context, layer Layer, data []byte, ts time.Time) error
}

// DiskCache stores boundary documents as timestamped files on disk.
type DiskCache struct {
	dir      string
	maxFiles int
}

// NewDiskCache creates a DiskCache that stores files in dir and keeps at most
// maxFiles per layer.
func NewDiskCache(dir string, maxFiles int) *DiskCache {
	if maxFiles <= 0 {
		maxFiles = 3
	}
	return &DiskCache{
		dir:      dir,
		maxFiles: maxFiles,
	}
}

// Name implements Cache.
func (c *DiskCache) Name() string {
	return OriginDiskCache
}

// Save writes data to a timestamped file and prunes old files beyond maxFiles.
func (c *DiskCache) Save(_ context.Context, layer Layer, data []byte, ts time.Time) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	filename := fmt.Sprintf("%s_%d.json", layer, ts.Unix())
	if err := os.WriteFile(filepath.Join(c.dir, filename), data, 0644); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}

	return c.prune(layer)
}

// Load reads the newest cache file for layer.
func (c *DiskCache) Load(_ context.Context, layer Layer) ([]byte, time.Time, error) {
	files, err := c.listFiles(layer)
	if err != nil {
		return nil, time.Time{}, err
	}
	if len(files) == 0 {
		return nil, time.Time{}, ErrCacheMiss
	}

	// Files are sorted oldest first; take the last one.
	latest := files[len(files)-1]
	data, err := os.ReadFile(filepath.Join(c.dir, latest.name))
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("reading cache file: %w", err)
	}

	return data, latest.ts, nil
}

type cacheFile struct {
	name string
	ts   time.Time
}

func (c *DiskCache) listFiles(layer Layer) ([]cacheFile, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing cache dir: %w", err)
	}

	prefix := string(layer) + "_"
	var files []cacheFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		tsStr := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".json")
		unix, err := strconv.ParseInt(tsStr, 10, 64)
		if err != nil {
			continue
		}
		files = append(files, cacheFile{name: name, ts: time.Unix(unix, 0)})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ts.Before(files[j].ts)
	})

	return files, nil
}

func (c *DiskCache) prune(layer Layer) error {
	files, err := c.listFiles(layer)
	if err != nil {
		return err
	}
	if len(files) <= c.maxFiles {
		return nil
	}

	for _, f := range files[:len(files)-c.maxFiles] {
		if err := os.Remove(filepath.Join(c.dir, f.name)); err != nil {
			return fmt.Errorf("pruning cache file %s: %w", f.name, err)
		}
	}
	return nil
}

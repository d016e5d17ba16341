package diskcache

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"slippymap/geo"
	"slippymap/params"
)

const tilesDir = "tiles"

// Store persists tile image bytes under a size budget, keyed by tile
// address, below a provided base directory. All operations are best-effort:
// caching is an optimization, and failures never surface to tile display.
//
// The directory tree may be shared by more than one process. Writes are
// plain whole-file overwrites with no rename step, so a concurrent external
// reader can observe a half-written file; it reads back as a decode failure
// and is re-fetched. Known, accepted.
type Store struct {
	// root is the base cache directory. Empty disables the store entirely.
	root   string
	budget int64
	logger *slog.Logger
}

func NewStore(config *params.DiskCacheConfig) *Store {
	if config == nil {
		config = params.DefaultDiskCacheConfig()
	}
	root := config.RootDir
	if root != "" {
		root = filepath.Clean(root)
		if !filepath.IsAbs(root) {
			root, _ = filepath.Abs(root)
		}
	}
	return &Store{
		root:   root,
		budget: config.MaxCacheSize,
		logger: slog.With("cache", "disk"),
	}
}

// Enabled reports whether a base directory was resolved.
// A disabled store no-ops everywhere; it is never an error.
func (s *Store) Enabled() bool {
	return s.root != ""
}

func (s *Store) Path() string {
	return s.root
}

// TilePath returns the deterministic file path for a tile address:
// {root}/tiles/{z}/{x}/{y}.png.
func (s *Store) TilePath(addr geo.TileAddress) string {
	return filepath.Join(s.root, tilesDir,
		strconv.Itoa(int(addr.Z)),
		strconv.FormatUint(uint64(addr.X), 10),
		strconv.FormatUint(uint64(addr.Y), 10)+".png")
}

// Load reads cached bytes for a tile, absent if missing or unreadable.
func (s *Store) Load(addr geo.TileAddress) ([]byte, bool) {
	if !s.Enabled() {
		return nil, false
	}
	data, err := os.ReadFile(s.TilePath(addr))
	if err != nil {
		return nil, false
	}
	return data, true
}

// Save writes tile bytes, creating intermediate directories as needed.
// Only validated (decoded) bytes should reach here; see tiles.Cache.
func (s *Store) Save(addr geo.TileAddress, data []byte) bool {
	if !s.Enabled() {
		return false
	}
	path := s.TilePath(addr)
	if err := os.MkdirAll(filepath.Dir(path), 0770); err != nil {
		s.logger.Debug("Tile dir create failed", "path", path, "error", err)
		return false
	}
	if err := os.WriteFile(path, data, 0660); err != nil {
		s.logger.Debug("Tile write failed", "path", path, "error", err)
		return false
	}
	return true
}

// TotalSize is the recursive sum of file sizes under the tile root.
func (s *Store) TotalSize() int64 {
	if !s.Enabled() {
		return 0
	}
	var total int64
	_ = filepath.WalkDir(filepath.Join(s.root, tilesDir), func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}

type agedFile struct {
	path    string
	size    int64
	modTime time.Time
}

// EvictIfNeeded deletes the oldest tile files (by modification time, oldest
// first) until the store is at or below budget, then prunes empty
// directories. A no-op while under budget. Approximate LRU: a tile
// re-fetched from network refreshes its timestamp, a tile merely read from
// cache does not.
func (s *Store) EvictIfNeeded() {
	if !s.Enabled() {
		return
	}
	size := s.TotalSize()
	if size <= s.budget {
		return
	}

	root := filepath.Join(s.root, tilesDir)
	var files []agedFile
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, agedFile{path: path, size: info.Size(), modTime: info.ModTime()})
		return nil
	})
	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime.Before(files[j].modTime)
	})

	var freed int64
	for _, f := range files {
		if size <= s.budget {
			break
		}
		if err := os.Remove(f.path); err == nil {
			size -= f.size
			freed += f.size
		}
	}
	pruneEmptyDirs(root)

	s.logger.Info("Evicted tile cache",
		"freed", humanize.Bytes(uint64(freed)),
		"size", humanize.Bytes(uint64(size)),
		"budget", humanize.Bytes(uint64(s.budget)))
}

func pruneEmptyDirs(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			sub := filepath.Join(dir, entry.Name())
			pruneEmptyDirs(sub)
			// Fails silently if not empty.
			_ = os.Remove(sub)
		}
	}
}

// Clear removes the entire tile subtree.
func (s *Store) Clear() {
	if !s.Enabled() {
		return
	}
	_ = os.RemoveAll(filepath.Join(s.root, tilesDir))
}

package params

import (
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

const (
	// UserAgent is sent with every tile request.
	UserAgent = "MakepadMap/0.1"

	// DefaultTileServer is Carto Voyager - clean, modern style (free, no API key required).
	DefaultTileServer = "https://a.basemaps.cartocdn.com/rastertiles/voyager/{z}/{x}/{y}@2x.png"
)

// CacheDirRoot resolves the default writable base directory for the disk
// tile cache. The empty string disables disk caching; it is never an error.
var CacheDirRoot = func() string {
	home, err := homedir.Dir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cache", "slippymap")
}()

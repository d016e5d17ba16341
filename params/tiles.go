package params

type TileCacheConfig struct {
	// TileServer is a URL template with literal {z}/{x}/{y} placeholders.
	TileServer string

	// LoadedTileLimit bounds the in-memory index of decoded tiles.
	// Loading and error entries are not counted; they are small and their
	// lifecycle is terminal.
	LoadedTileLimit int

	// EvictEvery is the save cadence for disk eviction sweeps.
	// Every Nth successful network-backed save triggers one; this amortizes
	// the cost of walking the cache directory.
	EvictEvery uint64
}

func DefaultTileCacheConfig() *TileCacheConfig {
	return &TileCacheConfig{
		TileServer:      DefaultTileServer,
		LoadedTileLimit: 512,
		EvictEvery:      100,
	}
}

type DiskCacheConfig struct {
	// RootDir is the base cache directory. Tiles are stored under
	// rootdir/tiles/{z}/{x}/{y}.png. Empty disables the store.
	RootDir string

	// MaxCacheSize is the eviction budget in bytes.
	MaxCacheSize int64
}

func DefaultDiskCacheConfig() *DiskCacheConfig {
	return &DiskCacheConfig{
		RootDir:      CacheDirRoot,
		MaxCacheSize: 50 * 1024 * 1024,
	}
}

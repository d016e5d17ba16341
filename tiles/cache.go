package tiles

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"slippymap/diskcache"
	"slippymap/geo"
	"slippymap/params"
)

// RequestID tags one in-flight network fetch. IDs come from a strictly
// increasing counter scoped to one Cache instance and are never reused
// within a process lifetime.
type RequestID uint64

// Fetcher is the consumed network contract: issue a GET for url, keyed by
// id, fire-and-forget. The result must come back through HandleResponse or
// HandleError on the same loop that owns the Cache.
type Fetcher interface {
	Fetch(id RequestID, url string)
}

// DecodeFunc validates and decodes tile image bytes. Only a successful
// decode may be persisted to disk or installed as Loaded.
type DecodeFunc func(data []byte) (image.Image, error)

// DecodePNG is the default DecodeFunc.
func DecodePNG(data []byte) (image.Image, error) {
	return png.Decode(bytes.NewReader(data))
}

// Cache is the in-memory tile index: it deduplicates concurrent fetch
// requests, orchestrates disk-store lookups with network fallback, and
// exposes a tile-pyramid fallback lookup for progressive rendering.
//
// All mutation happens on one logical thread driven by the host's event
// loop; there is no internal locking.
type Cache struct {
	server string

	// states is the authoritative one-of index per address.
	// pending is the secondary index from request id to address; an entry
	// is removed exactly once, on response or error delivery.
	states  map[geo.TileAddress]State
	pending map[RequestID]geo.TileAddress

	requestCounter uint64

	// loadedLRU bounds the memory tier. It tracks Loaded entries only;
	// evicting one drops its states entry, so a later request falls back
	// to disk. Loading and Errored entries are never evicted.
	loadedLRU *lru.Cache[geo.TileAddress, struct{}]

	disk    *diskcache.Store
	fetcher Fetcher
	decode  DecodeFunc

	// netSaves counts successful network-backed saves; every EvictEvery-th
	// one triggers a synchronous disk eviction sweep.
	netSaves   uint64
	evictEvery uint64

	logger *slog.Logger
}

func NewCache(config *params.TileCacheConfig, disk *diskcache.Store, fetcher Fetcher) *Cache {
	if config == nil {
		config = params.DefaultTileCacheConfig()
	}
	if config.EvictEvery == 0 {
		config.EvictEvery = params.DefaultTileCacheConfig().EvictEvery
	}
	if config.LoadedTileLimit <= 0 {
		config.LoadedTileLimit = params.DefaultTileCacheConfig().LoadedTileLimit
	}
	if disk == nil {
		// Rootless store: disk caching disabled, memory and network only.
		disk = diskcache.NewStore(&params.DiskCacheConfig{})
	}
	c := &Cache{
		server:     config.TileServer,
		states:     make(map[geo.TileAddress]State),
		pending:    make(map[RequestID]geo.TileAddress),
		disk:       disk,
		fetcher:    fetcher,
		decode:     DecodePNG,
		evictEvery: config.EvictEvery,
		logger:     slog.With("cache", "tiles"),
	}
	c.loadedLRU, _ = lru.NewWithEvict[geo.TileAddress, struct{}](
		config.LoadedTileLimit,
		func(addr geo.TileAddress, _ struct{}) {
			if _, ok := c.states[addr].(Loaded); ok {
				delete(c.states, addr)
			}
		})
	return c
}

// SetTileServer swaps the URL template ({z}/{x}/{y} placeholders).
func (c *Cache) SetTileServer(server string) {
	c.server = server
}

// SetDecodeFunc swaps the image decode contract.
func (c *Cache) SetDecodeFunc(fn DecodeFunc) {
	c.decode = fn
}

// URL substitutes the tile address into the server template.
func (c *Cache) URL(addr geo.TileAddress) string {
	r := strings.NewReplacer(
		"{z}", strconv.Itoa(int(addr.Z)),
		"{x}", strconv.FormatUint(uint64(addr.X), 10),
		"{y}", strconv.FormatUint(uint64(addr.Y), 10),
	)
	return r.Replace(c.server)
}

// RequestTile is idempotent: if addr already has any state entry it returns
// immediately, so at most one fetch is in flight per address. The disk store
// is the fast path; bytes that decode cleanly from disk install Loaded
// without touching the network.
func (c *Cache) RequestTile(addr geo.TileAddress) {
	if _, ok := c.states[addr]; ok {
		return
	}

	if data, ok := c.disk.Load(addr); ok {
		if img, err := c.decode(data); err == nil {
			c.install(addr, img)
			return
		}
		// Corrupted cache file, will re-download.
		c.logger.Debug("Cached tile failed decode, refetching", "tile", addr)
	}

	c.requestCounter++
	id := RequestID(c.requestCounter)

	c.states[addr] = Loading{}
	c.pending[id] = addr
	c.fetcher.Fetch(id, c.URL(addr))
}

// GetTile returns the decoded image only if the tile is Loaded.
// Never blocks.
func (c *Cache) GetTile(addr geo.TileAddress) (image.Image, bool) {
	st, ok := c.states[addr]
	if !ok {
		return nil, false
	}
	loaded, ok := st.(Loaded)
	if !ok {
		return nil, false
	}
	// Refresh recency in the memory tier.
	c.loadedLRU.Get(addr)
	return loaded.Image, true
}

// HandleResponse delivers a network response for a pending request.
// Returns whether a redraw-worthy state change occurred (decode success).
// Bytes are persisted to disk only after a successful decode.
func (c *Cache) HandleResponse(id RequestID, status int, body []byte) bool {
	addr, ok := c.pending[id]
	if !ok {
		return false
	}
	delete(c.pending, id)

	if status != 200 {
		c.states[addr] = Errored{Msg: fmt.Sprintf("HTTP %d", status)}
		return false
	}
	if len(body) == 0 {
		c.states[addr] = Errored{Msg: "Empty response body"}
		return false
	}

	img, err := c.decode(body)
	if err != nil {
		c.states[addr] = Errored{Msg: fmt.Sprintf("PNG decode error: %v", err)}
		return false
	}

	if c.disk.Save(addr, body) {
		c.netSaves++
		if c.netSaves%c.evictEvery == 0 {
			c.disk.EvictIfNeeded()
		}
	}
	c.install(addr, img)
	return true
}

// HandleError delivers a transport-level failure for a pending request.
func (c *Cache) HandleError(id RequestID, err error) {
	addr, ok := c.pending[id]
	if !ok {
		return
	}
	delete(c.pending, id)
	c.states[addr] = Errored{Msg: err.Error()}
}

// Clear drops all in-memory state and purges the disk store.
func (c *Cache) Clear() {
	c.states = make(map[geo.TileAddress]State)
	c.pending = make(map[RequestID]geo.TileAddress)
	c.loadedLRU.Purge()
	c.disk.Clear()
}

func (c *Cache) install(addr geo.TileAddress, img image.Image) {
	// Add to the LRU first: if this evicts an older entry, the eviction
	// callback must not race the new state.
	c.loadedLRU.Add(addr, struct{}{})
	c.states[addr] = Loaded{Image: img}
}

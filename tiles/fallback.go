package tiles

import (
	"slippymap/geo"
)

// Fallback describes the normalized sub-rectangle of a loaded ancestor tile
// that covers a missing tile's geographic footprint, so the renderer can
// draw a coarser image while the exact tile streams in.
type Fallback struct {
	Addr     geo.TileAddress
	UVOffset [2]float64
	UVScale  float64
}

// DefaultFallbackDepth is how many zoom levels FindFallback walks toward the
// pyramid root.
const DefaultFallbackDepth = 4

// FindFallback walks up to maxLevelsUp levels toward the root and stops at
// the first ancestor with a Loaded state. UVScale is 1/2^depth and UVOffset
// is the tile's position within the ancestor's quadrant grid. Absent if no
// ancestor within the search depth is loaded.
func (c *Cache) FindFallback(addr geo.TileAddress, maxLevelsUp int) (Fallback, bool) {
	ancestor := addr
	for depth := 1; depth <= maxLevelsUp; depth++ {
		if ancestor.Z == 0 {
			break
		}
		ancestor = geo.ParentTile(ancestor)
		if _, ok := c.states[ancestor].(Loaded); !ok {
			continue
		}
		offset, scale := geo.UVInAncestor(addr, ancestor)
		return Fallback{Addr: ancestor, UVOffset: offset, UVScale: scale}, true
	}
	return Fallback{}, false
}

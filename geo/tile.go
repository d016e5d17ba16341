package geo

import (
	"math"

	"github.com/paulmach/orb"
)

const (
	// TileSize is the standard OSM raster tile edge in logical pixels.
	TileSize = 256.0

	// MaxTileZoom is the deepest zoom level with tile addressing.
	MaxTileZoom = 19

	// MercatorLatMax bounds the latitude band where Web Mercator is valid.
	MercatorLatMax = 85.0

	// EarthCircumference in meters, at the equator.
	EarthCircumference = 40075016.686
)

// TileAddress identifies one raster tile in the slippy quad-tree pyramid.
// At zoom Z the world is 2^Z tiles per axis.
type TileAddress struct {
	X uint32
	Y uint32
	Z uint8
}

// GeoToTile converts a geographic point (orb convention: {lng, lat})
// to the address of the tile containing it at the given zoom.
// Latitude is expected pre-clamped to the Mercator band.
func GeoToTile(pt orb.Point, zoom uint8) TileAddress {
	n := math.Exp2(float64(zoom))
	x := math.Floor((pt.Lon() + 180.0) / 360.0 * n)
	latRad := pt.Lat() * math.Pi / 180.0
	y := math.Floor((1.0 - math.Asinh(math.Tan(latRad))/math.Pi) / 2.0 * n)
	// Guard the band edges against under/overflow of the unsigned address.
	x = math.Max(0, math.Min(x, n-1))
	y = math.Max(0, math.Min(y, n-1))
	return TileAddress{X: uint32(x), Y: uint32(y), Z: zoom}
}

// TileToGeo returns the northwest corner of the tile.
func TileToGeo(addr TileAddress) orb.Point {
	n := math.Exp2(float64(addr.Z))
	lng := float64(addr.X)/n*360.0 - 180.0
	latRad := math.Atan(math.Sinh(math.Pi * (1.0 - 2.0*float64(addr.Y)/n)))
	return orb.Point{lng, latRad * 180.0 / math.Pi}
}

// ParentTile halves the address into the next-coarser pyramid level.
// Z=0 is its own parent.
func ParentTile(addr TileAddress) TileAddress {
	if addr.Z == 0 {
		return addr
	}
	return TileAddress{X: addr.X / 2, Y: addr.Y / 2, Z: addr.Z - 1}
}

// UVInAncestor returns the normalized sub-rectangle of the ancestor tile
// covering addr's geographic footprint: scale = 1/2^depth, offset = addr's
// position within the ancestor's quadrant grid.
func UVInAncestor(addr, ancestor TileAddress) (offset [2]float64, scale float64) {
	depth := addr.Z - ancestor.Z
	span := math.Exp2(float64(depth))
	scale = 1.0 / span
	offset[0] = float64(addr.X-ancestor.X<<depth) / span
	offset[1] = float64(addr.Y-ancestor.Y<<depth) / span
	return offset, scale
}

// MetersPerPixel reports ground resolution at the given zoom and latitude,
// for scale bars and for translating pixel velocity into degrees.
func MetersPerPixel(zoom float64, lat float64) float64 {
	return EarthCircumference / (TileSize * math.Exp2(zoom)) * math.Cos(lat*math.Pi/180.0)
}

// ClampLat clamps latitude to the valid Mercator band.
func ClampLat(lat float64) float64 {
	return math.Max(-MercatorLatMax, math.Min(MercatorLatMax, lat))
}

// WrapLng normalizes longitude to (-180, 180].
func WrapLng(lng float64) float64 {
	for lng > 180.0 {
		lng -= 360.0
	}
	for lng <= -180.0 {
		lng += 360.0
	}
	return lng
}

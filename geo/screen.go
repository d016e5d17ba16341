package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// Screen conversions work in pixel offsets from the viewport's visual center.
// Tiles are addressed at the integer tile-zoom and continuously scaled by
// ZoomScale, so a fractional viewport zoom never re-addresses the pyramid.

// TileZoom returns the integer zoom used for tile addressing.
func TileZoom(zoom float64) uint8 {
	tz := math.Floor(zoom)
	if tz < 0 {
		tz = 0
	}
	if tz > MaxTileZoom {
		tz = MaxTileZoom
	}
	return uint8(tz)
}

// ZoomScale is the continuous scaling factor applied to tiles drawn at the
// integer tile-zoom: 2^(zoom - floor(zoom)).
func ZoomScale(zoom float64) float64 {
	return math.Exp2(zoom - float64(TileZoom(zoom)))
}

// worldCoords projects a point into world pixel space at the integer
// tile-zoom of the given viewport zoom.
func worldCoords(pt orb.Point, zoom float64) (wx, wy, worldSize float64) {
	worldSize = TileSize * math.Exp2(float64(TileZoom(zoom)))
	wx = (pt.Lon() + 180.0) / 360.0 * worldSize
	latRad := pt.Lat() * math.Pi / 180.0
	wy = (1.0 - math.Asinh(math.Tan(latRad))/math.Pi) / 2.0 * worldSize
	return wx, wy, worldSize
}

// ScreenToGeo converts a pixel offset from the viewport center into a
// geographic point.
func ScreenToGeo(center orb.Point, zoom float64, dx, dy float64) orb.Point {
	scale := ZoomScale(zoom)
	cx, cy, worldSize := worldCoords(center, zoom)

	wx := cx + dx/scale
	wy := cy + dy/scale

	lng := wx/worldSize*360.0 - 180.0
	latRad := math.Atan(math.Sinh(math.Pi * (1.0 - 2.0*wy/worldSize)))
	return orb.Point{lng, latRad * 180.0 / math.Pi}
}

// GeoToScreen is the inverse of ScreenToGeo: the pixel offset of pt from the
// viewport center.
func GeoToScreen(center orb.Point, zoom float64, pt orb.Point) (dx, dy float64) {
	scale := ZoomScale(zoom)
	cx, cy, _ := worldCoords(center, zoom)
	px, py, _ := worldCoords(pt, zoom)
	return (px - cx) * scale, (py - cy) * scale
}

// DegreesPerPixel reports the geographic span of one screen pixel at the
// given fractional zoom and latitude. The latitude axis is Mercator-scaled.
func DegreesPerPixel(zoom float64, lat float64) (dppLng, dppLat float64) {
	worldSize := TileSize * math.Exp2(zoom)
	dppLng = 360.0 / worldSize
	dppLat = dppLng / math.Cos(lat*math.Pi/180.0)
	return dppLng, dppLat
}

package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// VisibleTiles returns the tile addresses needed to cover a viewport of the
// given pixel size centered on center, with one tile of slack per edge.
// The x axis wraps around the antimeridian; the y axis is clipped at the
// poles.
func VisibleTiles(center orb.Point, zoom float64, width, height float64) []TileAddress {
	tz := TileZoom(zoom)
	scaled := TileSize * ZoomScale(zoom)

	tilesX := int(math.Ceil(width/scaled/2.0)) + 1
	tilesY := int(math.Ceil(height/scaled/2.0)) + 1

	centerTile := GeoToTile(center, tz)
	maxTile := int64(1) << tz

	tiles := make([]TileAddress, 0, (2*tilesX+1)*(2*tilesY+1))
	for dy := -tilesY; dy <= tilesY; dy++ {
		y := int64(centerTile.Y) + int64(dy)
		if y < 0 || y >= maxTile {
			continue
		}
		for dx := -tilesX; dx <= tilesX; dx++ {
			x := (int64(centerTile.X) + int64(dx)) % maxTile
			if x < 0 {
				x += maxTile
			}
			tiles = append(tiles, TileAddress{X: uint32(x), Y: uint32(y), Z: tz})
		}
	}
	return tiles
}

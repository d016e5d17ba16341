package markers

import (
	"math"

	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"

	"slippymap/geo"
)

// bucketLevel is the s2 cell level markers are grouped at. Level 12 cells
// are a few kilometers across, small enough that a tap only ever scans a
// handful of markers.
const bucketLevel = 12

// Marker is one tappable point of interest.
type Marker struct {
	ID string
	At orb.Point
}

// Layer holds markers bucketed by s2 cell so hit-testing scans only the
// cell under the tap and its neighbors, not the whole set.
type Layer struct {
	cells map[s2.CellID][]Marker
	count int
}

func NewLayer() *Layer {
	return &Layer{cells: make(map[s2.CellID][]Marker)}
}

func cellOf(pt orb.Point) s2.CellID {
	ll := s2.LatLngFromDegrees(pt.Lat(), pt.Lon())
	return s2.CellIDFromLatLng(ll).Parent(bucketLevel)
}

func (l *Layer) Add(m Marker) {
	cell := cellOf(m.At)
	l.cells[cell] = append(l.cells[cell], m)
	l.count++
}

func (l *Layer) Remove(id string) {
	for cell, ms := range l.cells {
		for i, m := range ms {
			if m.ID == id {
				l.cells[cell] = append(ms[:i], ms[i+1:]...)
				if len(l.cells[cell]) == 0 {
					delete(l.cells, cell)
				}
				l.count--
				return
			}
		}
	}
}

func (l *Layer) Len() int {
	return l.count
}

// HitTest finds the marker nearest to the tap, within radiusPx on screen.
// The tap is given as a pixel offset from the viewport center under the
// current view; distances are measured in screen space via the projection,
// so hit radius is zoom-independent.
func (l *Layer) HitTest(center orb.Point, zoom float64, dx, dy, radiusPx float64) (string, bool) {
	if l.count == 0 {
		return "", false
	}

	tapPt := geo.ScreenToGeo(center, zoom, dx, dy)
	tapCell := cellOf(tapPt)

	cells := append(tapCell.AllNeighbors(bucketLevel), tapCell)

	bestID := ""
	bestDist := radiusPx
	for _, cell := range cells {
		for _, m := range l.cells[cell] {
			mx, my := geo.GeoToScreen(center, zoom, m.At)
			d := math.Hypot(mx-dx, my-dy)
			if d <= bestDist {
				bestDist = d
				bestID = m.ID
			}
		}
	}
	if bestID == "" {
		return "", false
	}
	return bestID, true
}

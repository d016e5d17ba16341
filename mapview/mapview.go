package mapview

import (
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/paulmach/orb"

	"slippymap/common"
	"slippymap/geo"
	"slippymap/markers"
	"slippymap/params"
)

// View is the committed viewport: center in geographic coordinates plus a
// fractional zoom. Bearing and pitch are stored but carry no tilt/rotation
// semantics here.
type View struct {
	Center  orb.Point
	Zoom    float64
	MinZoom float64
	MaxZoom float64
	Bearing float64
	Pitch   float64
}

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDragging
	PhasePinching
	PhaseFlicking
)

// Sample is one time-stamped pointer position in viewport coordinates.
type Sample struct {
	X, Y float64
	T    time.Time
}

// dragSession is transient per-drag state, created on pointer-down and
// destroyed on pointer-up or when superseded by a second touch point.
type dragSession struct {
	startX, startY float64
	startCenter    orb.Point
	samples        *common.RingBuffer[Sample]
}

// pinchSession anchors a pinch against the distance and zoom recorded at
// pinch start.
type pinchSession struct {
	initialDistance float64
	startZoom       float64
}

// Momentum is the post-release flick state: velocity in pixels per frame,
// decayed geometrically each animation frame until speed falls below
// StopThreshold * 0.01.
type Momentum struct {
	Velocity [2]float64
	Decay    float64

	// StopThreshold is the momentum start threshold; ticking stops at one
	// hundredth of it.
	StopThreshold float64
}

// Map is the viewport gesture engine: a state machine over the committed
// view plus transient gesture and momentum state, consuming raw pointer,
// touch, and scroll input from the host's event dispatch.
//
// Like the tile cache, it expects to be driven from one logical thread.
type Map struct {
	config *params.MapConfig
	view   View

	viewportW float64
	viewportH float64

	phase    Phase
	drag     *dragSession
	pinch    *pinchSession
	momentum *Momentum

	markerLayer *markers.Layer

	feed        event.FeedOf[Action]
	needsRedraw bool
	logger      *slog.Logger
}

// NewMap starts over San Francisco at zoom 12, matching the widget default.
func NewMap(config *params.MapConfig) *Map {
	if config == nil {
		config = params.DefaultMapConfig()
	}
	return &Map{
		config: config,
		view: View{
			Center:  orb.Point{-122.4194, 37.7749},
			Zoom:    12.0,
			MinZoom: config.MinZoom,
			MaxZoom: config.MaxZoom,
		},
		logger: slog.With("view", "map"),
	}
}

func (m *Map) View() View {
	return m.view
}

func (m *Map) Phase() Phase {
	return m.phase
}

// SetViewportSize records the surface size in pixels; screen positions are
// interpreted as offsets from its center.
func (m *Map) SetViewportSize(w, h float64) {
	m.viewportW, m.viewportH = w, h
}

// SetMarkers attaches a marker layer consulted for hit-testing on tap.
func (m *Map) SetMarkers(layer *markers.Layer) {
	m.markerLayer = layer
}

// SetCenter clamps and commits a new center, and signals a redraw.
func (m *Map) SetCenter(lng, lat float64) {
	m.view.Center = orb.Point{geo.WrapLng(lng), geo.ClampLat(lat)}
	m.needsRedraw = true
}

// SetZoom clamps and commits a new zoom, and signals a redraw.
func (m *Map) SetZoom(zoom float64) {
	m.view.Zoom = m.clampZoom(zoom)
	m.needsRedraw = true
}

// ConsumeRedraw reports and resets the pending redraw signal. The host
// polls it once per frame.
func (m *Map) ConsumeRedraw() bool {
	d := m.needsRedraw
	m.needsRedraw = false
	return d
}

// NeedsFrame reports whether the host should schedule another animation
// frame (momentum still running).
func (m *Map) NeedsFrame() bool {
	return m.phase == PhaseFlicking
}

// VisibleTiles returns the tile addresses covering the current viewport.
func (m *Map) VisibleTiles() []geo.TileAddress {
	return geo.VisibleTiles(m.view.Center, m.view.Zoom, m.viewportW, m.viewportH)
}

// ScreenToGeo converts an absolute viewport position to geographic
// coordinates under the current view.
func (m *Map) ScreenToGeo(x, y float64) orb.Point {
	return geo.ScreenToGeo(m.view.Center, m.view.Zoom, x-m.viewportW/2.0, y-m.viewportH/2.0)
}

func (m *Map) clampZoom(zoom float64) float64 {
	if zoom < m.view.MinZoom {
		return m.view.MinZoom
	}
	if zoom > m.view.MaxZoom {
		return m.view.MaxZoom
	}
	return zoom
}

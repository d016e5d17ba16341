package mapview

import (
	"math"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/paulmach/orb"

	"slippymap/common"
	"slippymap/geo"
)

// Touch is one active contact point in viewport coordinates.
type Touch struct {
	X, Y float64
}

// PointerDown begins a drag: records the start position and start center,
// and resets and seeds the velocity sample ring. Any running flick stops.
func (m *Map) PointerDown(x, y float64, t time.Time) {
	m.momentum = nil
	m.phase = PhaseDragging
	m.drag = &dragSession{
		startX:      x,
		startY:      y,
		startCenter: m.view.Center,
		samples:     common.NewRingBuffer[Sample](m.config.VelocitySamples),
	}
	m.drag.samples.Add(Sample{X: x, Y: y, T: t})
}

// PointerMove pans the center by the inverse of the pixel delta from the
// drag start, latitude clamped and longitude wrapped, and appends a
// velocity sample. Ignored while pinching.
func (m *Map) PointerMove(x, y float64, t time.Time) {
	if m.phase != PhaseDragging || m.drag == nil {
		return
	}

	dx := x - m.drag.startX
	dy := y - m.drag.startY

	dppLng, dppLat := geo.DegreesPerPixel(m.view.Zoom, m.view.Center.Lat())

	m.view.Center = orb.Point{
		geo.WrapLng(m.drag.startCenter.Lon() - dx*dppLng),
		geo.ClampLat(m.drag.startCenter.Lat() + dy*dppLat),
	}

	m.drag.samples.Add(Sample{X: x, Y: y, T: t})
	m.needsRedraw = true
}

// TouchUpdate consumes the full set of active contact points. Two or more
// simultaneous contacts force a pinch, clearing any drag state. Zoom
// follows log2 of the running distance ratio against the pinch-start
// distance; changes below the configured epsilon are suppressed.
func (m *Map) TouchUpdate(touches []Touch) {
	if len(touches) < 2 {
		return
	}

	dx := touches[1].X - touches[0].X
	dy := touches[1].Y - touches[0].Y
	distance := math.Hypot(dx, dy)

	if m.phase != PhasePinching || m.pinch == nil {
		m.pinch = &pinchSession{
			initialDistance: distance,
			startZoom:       m.view.Zoom,
		}
		m.drag = nil
		m.phase = PhasePinching
		return
	}

	ratio := distance / m.pinch.initialDistance
	zoomDelta := math.Log2(ratio)
	newZoom := m.clampZoom(m.pinch.startZoom + zoomDelta)

	if math.Abs(newZoom-m.view.Zoom) > m.config.PinchZoomEpsilon {
		m.view.Zoom = newZoom
		m.needsRedraw = true
	}
}

// PointerUp ends the gesture. A release within the tap threshold is a tap
// (double tap zooms in by one level) and starts no momentum; a drag release
// commits the region and, if the release velocity is fast enough, starts a
// flick.
func (m *Map) PointerUp(x, y float64, t time.Time, tapCount int) {
	if m.phase == PhasePinching {
		m.pinch = nil
		m.phase = PhaseIdle
		m.emitRegionChanged()
		return
	}
	if m.phase != PhaseDragging || m.drag == nil {
		m.phase = PhaseIdle
		return
	}

	drag := m.drag
	m.drag = nil

	moved := math.Hypot(x-drag.startX, y-drag.startY)
	if moved < m.config.TapThresholdPx {
		m.phase = PhaseIdle
		if tapCount >= 2 {
			m.view.Zoom = m.clampZoom(m.view.Zoom + m.config.DoubleTapZoomDelta)
			m.needsRedraw = true
			m.emitRegionChanged()
			return
		}
		m.tap(x, y)
		return
	}

	m.phase = PhaseIdle
	if vx, vy, ok := m.releaseVelocity(drag.samples); ok {
		speed := math.Hypot(vx, vy)
		if speed > m.config.MomentumThreshold {
			m.momentum = &Momentum{
				Velocity:      [2]float64{vx, vy},
				Decay:         m.config.MomentumDecay,
				StopThreshold: m.config.MomentumThreshold,
			}
			m.phase = PhaseFlicking
		}
	}
	m.emitRegionChanged()
}

// LongPress reports the geographic point under the press.
func (m *Map) LongPress(x, y float64) {
	m.feed.Send(Action{Kind: ActionLongPressed, Point: m.ScreenToGeo(x, y)})
}

// Scroll adjusts zoom by one configured step per discrete scroll event,
// desktop style: no animation, immediate region commit. Ignored while
// pinching.
func (m *Map) Scroll(dy float64) {
	if m.phase == PhasePinching {
		return
	}
	delta := m.config.ScrollZoomStep
	if dy <= 0 {
		delta = -m.config.ScrollZoomStep
	}
	newZoom := m.clampZoom(m.view.Zoom + delta)
	if newZoom != m.view.Zoom {
		m.view.Zoom = newZoom
		m.needsRedraw = true
		m.emitRegionChanged()
	}
}

func (m *Map) tap(x, y float64) {
	pt := m.ScreenToGeo(x, y)
	if m.markerLayer != nil {
		dx := x - m.viewportW/2.0
		dy := y - m.viewportH/2.0
		if id, ok := m.markerLayer.HitTest(m.view.Center, m.view.Zoom, dx, dy, m.config.TapThresholdPx); ok {
			m.feed.Send(Action{Kind: ActionMarkerTapped, MarkerID: id})
			return
		}
	}
	m.feed.Send(Action{Kind: ActionTapped, Point: pt})
}

// releaseVelocity estimates pixels-per-frame release velocity as the mean of
// per-sample-pair velocities over the trailing ring. A short trailing window
// damps jitter from discrete input sampling better than the last pair alone.
func (m *Map) releaseVelocity(ring *common.RingBuffer[Sample]) (vx, vy float64, ok bool) {
	samples := ring.Get()
	if len(samples) < 2 {
		return 0, 0, false
	}

	frame := m.config.FrameTime.Seconds()
	vxs := make([]float64, 0, len(samples)-1)
	vys := make([]float64, 0, len(samples)-1)
	for i := 1; i < len(samples); i++ {
		dt := samples[i].T.Sub(samples[i-1].T).Seconds()
		if dt <= 0 {
			continue
		}
		vxs = append(vxs, (samples[i].X-samples[i-1].X)/dt*frame)
		vys = append(vys, (samples[i].Y-samples[i-1].Y)/dt*frame)
	}
	if len(vxs) == 0 {
		return 0, 0, false
	}

	mx, errX := stats.Mean(vxs)
	my, errY := stats.Mean(vys)
	if errX != nil || errY != nil {
		return 0, 0, false
	}
	return mx, my, true
}

package mapview

import (
	"math"

	"github.com/paulmach/orb"

	"slippymap/geo"
)

// AnimationTick advances a running flick by one frame: velocity decays
// geometrically, the center pans by the same pixel-to-degree conversion as
// dragging, and the flick stops once speed falls below one hundredth of the
// start threshold. Each surviving tick commits a region change; the host
// keeps scheduling frames while NeedsFrame reports true.
func (m *Map) AnimationTick() {
	if m.phase != PhaseFlicking || m.momentum == nil {
		return
	}

	mo := m.momentum
	mo.Velocity[0] *= mo.Decay
	mo.Velocity[1] *= mo.Decay

	if math.Hypot(mo.Velocity[0], mo.Velocity[1]) < mo.StopThreshold*0.01 {
		m.momentum = nil
		m.phase = PhaseIdle
		m.emitRegionChanged()
		return
	}

	dppLng, dppLat := geo.DegreesPerPixel(m.view.Zoom, m.view.Center.Lat())
	m.view.Center = orb.Point{
		geo.WrapLng(m.view.Center.Lon() - mo.Velocity[0]*dppLng),
		geo.ClampLat(m.view.Center.Lat() + mo.Velocity[1]*dppLat),
	}

	m.needsRedraw = true
	m.emitRegionChanged()
}

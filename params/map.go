package params

import "time"

type MapConfig struct {
	MinZoom float64
	MaxZoom float64

	// TapThresholdPx separates a tap from a micro-drag, uniformly across
	// touch and mouse input.
	TapThresholdPx float64

	// ScrollZoomStep is the zoom delta per discrete scroll-wheel event.
	ScrollZoomStep float64

	// DoubleTapZoomDelta is added to zoom on a double tap, clamped to MaxZoom.
	DoubleTapZoomDelta float64

	// PinchZoomEpsilon suppresses zoom changes below this magnitude
	// during a pinch, avoiding redraw churn.
	PinchZoomEpsilon float64

	// MomentumDecay is the multiplicative per-frame velocity factor, in (0,1).
	MomentumDecay float64

	// MomentumThreshold is the minimum release speed, in pixels per frame,
	// to start a flick. Momentum stops once speed falls below
	// MomentumThreshold * 0.01.
	MomentumThreshold float64

	// FrameTime converts sampled pixels-per-second velocity into
	// pixels-per-frame.
	FrameTime time.Duration

	// VelocitySamples is the ring size of trailing (position, time) samples
	// used to estimate release velocity.
	VelocitySamples int
}

func DefaultMapConfig() *MapConfig {
	return &MapConfig{
		MinZoom:            1.0,
		MaxZoom:            19.0,
		TapThresholdPx:     10.0,
		ScrollZoomStep:     0.5,
		DoubleTapZoomDelta: 1.0,
		PinchZoomEpsilon:   0.01,
		MomentumDecay:      0.95,
		MomentumThreshold:  1.0,
		FrameTime:          16 * time.Millisecond,
		VelocitySamples:    4,
	}
}

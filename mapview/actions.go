package mapview

import (
	"github.com/ethereum/go-ethereum/event"
	"github.com/paulmach/orb"
)

type ActionKind int

const (
	// ActionRegionChanged is emitted after any committed pan, zoom, or
	// momentum step. A pure tap does not move the region and emits nothing.
	ActionRegionChanged ActionKind = iota
	ActionTapped
	ActionLongPressed
	ActionMarkerTapped
)

// Action is one notification to the host UI.
type Action struct {
	Kind ActionKind

	// Point is the region center for RegionChanged, the geographic tap
	// point for Tapped and LongPressed.
	Point orb.Point

	// Zoom accompanies RegionChanged.
	Zoom float64

	// MarkerID accompanies MarkerTapped.
	MarkerID string
}

// Subscribe registers a channel on the action feed. Sends are synchronous;
// subscribers should buffer.
func (m *Map) Subscribe(ch chan<- Action) event.Subscription {
	return m.feed.Subscribe(ch)
}

func (m *Map) emitRegionChanged() {
	m.feed.Send(Action{
		Kind:  ActionRegionChanged,
		Point: m.view.Center,
		Zoom:  m.view.Zoom,
	})
}

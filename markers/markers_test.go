package markers

import (
	"testing"

	"github.com/paulmach/orb"
)

func TestLayer_AddRemove(t *testing.T) {
	l := NewLayer()
	l.Add(Marker{ID: "a", At: orb.Point{0, 0}})
	l.Add(Marker{ID: "b", At: orb.Point{10, 10}})
	if got := l.Len(); got != 2 {
		t.Errorf("Expected 2, got %d", got)
	}
	l.Remove("a")
	if got := l.Len(); got != 1 {
		t.Errorf("Expected 1, got %d", got)
	}
	l.Remove("missing")
	if got := l.Len(); got != 1 {
		t.Errorf("Expected remove of unknown id to be a no-op, got %d", got)
	}
}

func TestHitTest_WithinRadius(t *testing.T) {
	l := NewLayer()
	l.Add(Marker{ID: "ferry-building", At: orb.Point{-122.3937, 37.7955}})

	center := orb.Point{-122.3937, 37.7955}
	id, ok := l.HitTest(center, 15, 3, -2, 10)
	if !ok {
		t.Fatal("Expected hit near the marker")
	}
	if id != "ferry-building" {
		t.Errorf("Expected ferry-building, got %q", id)
	}
}

func TestHitTest_OutsideRadius(t *testing.T) {
	l := NewLayer()
	l.Add(Marker{ID: "m", At: orb.Point{-122.3937, 37.7955}})

	if _, ok := l.HitTest(orb.Point{-122.3937, 37.7955}, 15, 200, 200, 10); ok {
		t.Errorf("Expected miss outside the hit radius")
	}
}

func TestHitTest_NearestWins(t *testing.T) {
	l := NewLayer()
	l.Add(Marker{ID: "near", At: orb.Point{0, 0}})
	l.Add(Marker{ID: "far", At: orb.Point{0.0001, 0}})

	id, ok := l.HitTest(orb.Point{0, 0}, 12, 0, 0, 50)
	if !ok {
		t.Fatal("Expected a hit")
	}
	if id != "near" {
		t.Errorf("Expected nearest marker, got %q", id)
	}
}

func TestHitTest_Empty(t *testing.T) {
	l := NewLayer()
	if _, ok := l.HitTest(orb.Point{0, 0}, 12, 0, 0, 10); ok {
		t.Errorf("Expected miss on empty layer")
	}
}

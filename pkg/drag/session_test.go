package drag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvasnote/canvasnote/pkg/geometry"
)

func TestNewSessionUnknownEntity(t *testing.T) {
	_, err := NewSession(Config{}, "ghost", nil, nil, false, 1)
	assert.Error(t, err)
}

func TestSessionZoomScalesDeltas(t *testing.T) {
	entities := []Entity{{ID: "a", Rect: geometry.Rect{X: 100, Y: 100, W: 100, H: 100}}}
	s, err := NewSession(Config{SnapDisabled: true}, "a", entities, nil, false, 2)
	require.NoError(t, err)

	res := s.Move(100, 50)
	assert.Equal(t, geometry.Point{X: 50, Y: 25}, res.Offsets["a"])
	assert.Nil(t, res.Guides.X)
	assert.Nil(t, res.Guides.Y)
}

func TestSessionSelectionMovesTogether(t *testing.T) {
	entities := []Entity{
		{ID: "a", Rect: geometry.Rect{X: 0, Y: 0, W: 100, H: 100}},
		{ID: "b", Rect: geometry.Rect{X: 300, Y: 0, W: 100, H: 100}},
		{ID: "c", Rect: geometry.Rect{X: 600, Y: 0, W: 100, H: 100}},
	}

	// Grabbing a selected entity drags the whole selection.
	s, err := NewSession(Config{SnapDisabled: true}, "a", entities, []string{"a", "b"}, false, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, s.MovedIDs())

	// Grabbing outside the selection drags only the grabbed entity.
	s, err = NewSession(Config{SnapDisabled: true}, "c", entities, []string{"a", "b"}, false, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"c"}, s.MovedIDs())
}

func TestSessionRegionCarriesContents(t *testing.T) {
	entities := []Entity{
		{ID: "p", Rect: geometry.Rect{X: 1000, Y: 1000, W: 600, H: 400}, Region: true},
		{ID: "inside", Rect: geometry.Rect{X: 1100, Y: 1100, W: 100, H: 100}},
		{ID: "edge", Rect: geometry.Rect{X: 1550, Y: 1350, W: 100, H: 100}},
	}
	s, err := NewSession(Config{SnapDisabled: true}, "p", entities, nil, false, 1)
	require.NoError(t, err)

	// "inside" overlaps the region fully, "edge" by only a quarter.
	assert.ElementsMatch(t, []string{"p", "inside"}, s.MovedIDs())
	carrier, ok := s.CarriedBy("inside")
	require.True(t, ok)
	assert.Equal(t, "p", carrier)
	_, ok = s.CarriedBy("edge")
	assert.False(t, ok)
}

func TestSessionDemotesCarriedSelection(t *testing.T) {
	entities := []Entity{
		{ID: "p", Rect: geometry.Rect{X: 1000, Y: 1000, W: 600, H: 400}, Region: true},
		{ID: "c", Rect: geometry.Rect{X: 1100, Y: 1100, W: 100, H: 100}},
	}
	s, err := NewSession(Config{SnapDisabled: true}, "p", entities, []string{"p", "c"}, false, 1)
	require.NoError(t, err)

	// "c" is selected but also carried by the selected region; the carry
	// covers it, so it must not sit in the drag set as well.
	carrier, ok := s.CarriedBy("c")
	require.True(t, ok)
	assert.Equal(t, "p", carrier)
	assert.ElementsMatch(t, []string{"p", "c"}, s.MovedIDs())

	// Both receive exactly one offset per tick.
	res := s.Move(50, 0)
	assert.Len(t, res.Offsets, 2)
	assert.Equal(t, geometry.Point{X: 50, Y: 0}, res.Offsets["c"])
}

func TestSessionSnapToEdge(t *testing.T) {
	entities := []Entity{
		{ID: "static", Rect: geometry.Rect{X: 0, Y: 0, W: 100, H: 100}},
		{ID: "b", Rect: geometry.Rect{X: 205, Y: 500, W: 100, H: 100}},
	}
	s, err := NewSession(Config{}, "b", entities, nil, false, 1)
	require.NoError(t, err)

	// Moving b to x=105 is 5 units from the static right edge at 100;
	// within the 8px threshold, so the delta is corrected to land exactly.
	res := s.Move(-100, 0)
	require.NotNil(t, res.Guides.X)
	assert.Equal(t, 100.0, *res.Guides.X)
	assert.Equal(t, geometry.Point{X: -105, Y: 0}, res.Offsets["b"])
	assert.Nil(t, res.Guides.Y)
}

func TestSessionSnapAdjacencyGap(t *testing.T) {
	entities := []Entity{
		{ID: "static", Rect: geometry.Rect{X: 0, Y: 0, W: 100, H: 100}},
		{ID: "b", Rect: geometry.Rect{X: 400, Y: 0, W: 100, H: 100}},
	}
	s, err := NewSession(Config{}, "b", entities, nil, false, 1)
	require.NoError(t, err)

	// b's left edge lands at 117, one unit off the adjacency stop at
	// 100 + AdjacencyGap = 116.
	res := s.Move(-283, 0)
	require.NotNil(t, res.Guides.X)
	assert.Equal(t, 100.0, *res.Guides.X)
	assert.Equal(t, -284.0, res.Offsets["b"].X)
}

func TestSessionSnapDisabled(t *testing.T) {
	entities := []Entity{
		{ID: "static", Rect: geometry.Rect{X: 0, Y: 0, W: 100, H: 100}},
		{ID: "b", Rect: geometry.Rect{X: 205, Y: 500, W: 100, H: 100}},
	}
	s, err := NewSession(Config{SnapDisabled: true}, "b", entities, nil, false, 1)
	require.NoError(t, err)

	res := s.Move(-100, 0)
	assert.Nil(t, res.Guides.X)
	assert.Equal(t, geometry.Point{X: -100, Y: 0}, res.Offsets["b"])
}

func dropPosition(t *testing.T, finals []FinalPosition, id string) geometry.Point {
	t.Helper()
	for _, f := range finals {
		if f.ID == id {
			return f.Position
		}
	}
	t.Fatalf("no final position for %s", id)
	return geometry.Point{}
}

func TestSessionDropCapturedByRegion(t *testing.T) {
	entities := []Entity{
		{ID: "p", Rect: geometry.Rect{X: 1000, Y: 1000, W: 600, H: 400}, Region: true},
		{ID: "b", Rect: geometry.Rect{X: 100, Y: 100, W: 100, H: 100}},
	}
	s, err := NewSession(Config{SnapDisabled: true}, "b", entities, nil, false, 1)
	require.NoError(t, err)

	// 60% of b overlaps the region; it is captured and clamped into the
	// padded interior starting at x=1020.
	s.Move(860, 950)
	finals := s.Drop()
	assert.Equal(t, geometry.Point{X: 1020, Y: 1050}, dropPosition(t, finals, "b"))
	assert.Equal(t, Dropped, s.State())
}

func TestSessionDropPushedOutOfRegion(t *testing.T) {
	entities := []Entity{
		{ID: "p", Rect: geometry.Rect{X: 1000, Y: 1000, W: 600, H: 400}, Region: true},
		{ID: "b", Rect: geometry.Rect{X: 100, Y: 100, W: 100, H: 100}},
	}
	s, err := NewSession(Config{SnapDisabled: true}, "b", entities, nil, false, 1)
	require.NoError(t, err)

	// Only 20% of b overlaps; it is expelled leftward clear of the padded
	// footprint.
	s.Move(820, 950)
	finals := s.Drop()
	assert.Equal(t, geometry.Point{X: 880, Y: 1050}, dropPosition(t, finals, "b"))
}

func TestSessionDropRoomBackZone(t *testing.T) {
	entities := []Entity{{ID: "b", Rect: geometry.Rect{X: 200, Y: 50, W: 100, H: 100}}}
	s, err := NewSession(Config{SnapDisabled: true}, "b", entities, nil, true, 1)
	require.NoError(t, err)

	// The drop lands over the back-navigation zone at the room origin and
	// is pushed out below it.
	s.Move(-150, -20)
	finals := s.Drop()
	assert.Equal(t, geometry.Point{X: 50, Y: 90}, dropPosition(t, finals, "b"))
}

func TestSessionDropClampsToCanvas(t *testing.T) {
	entities := []Entity{{ID: "b", Rect: geometry.Rect{X: 100, Y: 100, W: 100, H: 100}}}
	s, err := NewSession(Config{SnapDisabled: true}, "b", entities, nil, false, 1)
	require.NoError(t, err)

	s.Move(10000, 0)
	finals := s.Drop()
	bounds := geometry.CanvasBounds()
	assert.Equal(t, geometry.Point{X: bounds.X + bounds.W - 100, Y: 100}, dropPosition(t, finals, "b"))
}

func TestSessionDropRegionTranslatesCarriedRigidly(t *testing.T) {
	entities := []Entity{
		{ID: "p", Rect: geometry.Rect{X: 1000, Y: 1000, W: 600, H: 400}, Region: true},
		{ID: "c", Rect: geometry.Rect{X: 1100, Y: 1100, W: 100, H: 100}},
	}
	s, err := NewSession(Config{SnapDisabled: true}, "p", entities, nil, false, 1)
	require.NoError(t, err)

	s.Move(50, 30)
	finals := s.Drop()
	assert.Equal(t, geometry.Point{X: 1050, Y: 1030}, dropPosition(t, finals, "p"))
	assert.Equal(t, geometry.Point{X: 1150, Y: 1130}, dropPosition(t, finals, "c"))
}

func TestSessionDropRegionClampCarriesExactDelta(t *testing.T) {
	// The region is clamped at the canvas edge; its contents receive the
	// clamped delta, not the raw pointer delta, so they stay aligned.
	entities := []Entity{
		{ID: "p", Rect: geometry.Rect{X: 5000, Y: 1000, W: 600, H: 400}, Region: true},
		{ID: "c", Rect: geometry.Rect{X: 5100, Y: 1100, W: 100, H: 100}},
	}
	s, err := NewSession(Config{SnapDisabled: true}, "p", entities, nil, false, 1)
	require.NoError(t, err)

	s.Move(2000, 0)
	finals := s.Drop()

	bounds := geometry.CanvasBounds()
	wantX := bounds.X + bounds.W - 600
	assert.Equal(t, geometry.Point{X: wantX, Y: 1000}, dropPosition(t, finals, "p"))
	assert.Equal(t, geometry.Point{X: wantX + 100, Y: 1100}, dropPosition(t, finals, "c"))
}

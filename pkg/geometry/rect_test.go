package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRectIntersects(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 100, H: 100}

	assert.True(t, a.Intersects(Rect{X: 50, Y: 50, W: 100, H: 100}))
	assert.False(t, a.Intersects(Rect{X: 200, Y: 0, W: 50, H: 50}))

	// Edge contact is not an intersection.
	assert.False(t, a.Intersects(Rect{X: 100, Y: 0, W: 50, H: 50}))
	assert.False(t, a.Intersects(Rect{X: 0, Y: 100, W: 50, H: 50}))
}

func TestRectIntersectionArea(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 100, H: 100}

	assert.Equal(t, 2500.0, a.IntersectionArea(Rect{X: 50, Y: 50, W: 100, H: 100}))
	assert.Equal(t, 0.0, a.IntersectionArea(Rect{X: 200, Y: 200, W: 10, H: 10}))
	assert.Equal(t, 10000.0, a.IntersectionArea(a))
}

func TestRectInflate(t *testing.T) {
	r := Rect{X: 10, Y: 10, W: 100, H: 50}

	grown := r.Inflate(20)
	assert.Equal(t, Rect{X: -10, Y: -10, W: 140, H: 90}, grown)

	shrunk := r.Inflate(-10)
	assert.Equal(t, Rect{X: 20, Y: 20, W: 80, H: 30}, shrunk)
}

func TestRectClampInto(t *testing.T) {
	bounds := Rect{X: 0, Y: 0, W: 1000, H: 1000}

	t.Run("already inside", func(t *testing.T) {
		p := Rect{X: 100, Y: 100, W: 50, H: 50}.ClampInto(bounds)
		assert.Equal(t, Point{X: 100, Y: 100}, p)
	})

	t.Run("past the right edge", func(t *testing.T) {
		p := Rect{X: 990, Y: 100, W: 50, H: 50}.ClampInto(bounds)
		assert.Equal(t, Point{X: 950, Y: 100}, p)
	})

	t.Run("past the origin", func(t *testing.T) {
		p := Rect{X: -30, Y: -5, W: 50, H: 50}.ClampInto(bounds)
		assert.Equal(t, Point{X: 0, Y: 0}, p)
	})
}

func TestRectContains(t *testing.T) {
	r := Rect{X: 0, Y: 0, W: 100, H: 100}

	assert.True(t, r.ContainsPoint(Point{X: 50, Y: 50}))
	assert.False(t, r.ContainsPoint(Point{X: 150, Y: 50}))
	assert.True(t, r.ContainsRect(Rect{X: 10, Y: 10, W: 20, H: 20}))
	assert.False(t, r.ContainsRect(Rect{X: 90, Y: 90, W: 20, H: 20}))
}

func TestRectCenter(t *testing.T) {
	r := Rect{X: 10, Y: 20, W: 100, H: 40}
	assert.Equal(t, 60.0, r.CenterX())
	assert.Equal(t, 40.0, r.CenterY())
}

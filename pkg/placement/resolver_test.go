package placement

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvasnote/canvasnote/pkg/geometry"
)

func TestFindSafePositionEmptyCanvas(t *testing.T) {
	var r Resolver
	p := r.FindSafePosition("a", geometry.Point{X: 100, Y: 100}, geometry.Size{W: 280, H: 40}, nil)
	assert.Equal(t, geometry.Point{X: 100, Y: 100}, p)
}

func TestFindSafePositionSlidesRight(t *testing.T) {
	// A 280x40 link sits at (100,100). A second link wanting the same spot
	// must land one slide step to the right, at (420,100).
	var r Resolver
	obstacles := []Obstacle{
		{ID: "a", Rect: geometry.Rect{X: 100, Y: 100, W: 280, H: 40}},
	}
	p := r.FindSafePosition("b", geometry.Point{X: 100, Y: 100}, geometry.Size{W: 280, H: 40}, obstacles)
	assert.Equal(t, geometry.Point{X: 420, Y: 100}, p)
}

func TestFindSafePositionRespectsBuffer(t *testing.T) {
	// A candidate just past an obstacle's edge but inside the 20-unit
	// buffer still counts as a collision.
	var r Resolver
	obstacles := []Obstacle{
		{ID: "a", Rect: geometry.Rect{X: 390, Y: 100, W: 280, H: 40}},
	}
	p := r.FindSafePosition("b", geometry.Point{X: 100, Y: 100}, geometry.Size{W: 280, H: 40}, obstacles)

	// (100,100) overlaps the inflated obstacle (x 370..690 vs 100..380),
	// and so does (420,100); the next slide clears it.
	assert.Equal(t, geometry.Point{X: 740, Y: 100}, p)
}

func TestFindSafePositionSkipsOwnID(t *testing.T) {
	// Re-placing an entity whose old rectangle is still in the obstacle
	// set must not collide with itself.
	var r Resolver
	obstacles := []Obstacle{
		{ID: "self", Rect: geometry.Rect{X: 100, Y: 100, W: 280, H: 40}},
	}
	p := r.FindSafePosition("self", geometry.Point{X: 100, Y: 100}, geometry.Size{W: 280, H: 40}, obstacles)
	assert.Equal(t, geometry.Point{X: 100, Y: 100}, p)
}

func TestFindSafePositionSpiralFallback(t *testing.T) {
	// Block the whole rightward corridor so the slide phase fails and the
	// ring search has to find a spot off the row.
	var r Resolver
	obstacles := make([]Obstacle, 0, SlideAttempts+1)
	for step := 0; step <= SlideAttempts; step++ {
		obstacles = append(obstacles, Obstacle{
			ID:   fmt.Sprintf("row-%d", step),
			Rect: geometry.Rect{X: 100 + float64(step)*StepX, Y: 100, W: 280, H: 40},
		})
	}

	p := r.FindSafePosition("b", geometry.Point{X: 100, Y: 100}, geometry.Size{W: 280, H: 40}, obstacles)
	assert.False(t, collides("b", p, geometry.Size{W: 280, H: 40}, obstacles))
	assert.NotEqual(t, geometry.Point{X: 100, Y: 100}, p)
}

func TestFindSafePositionDeterministic(t *testing.T) {
	var r Resolver
	rng := rand.New(rand.NewSource(42))

	obstacles := make([]Obstacle, 0, 40)
	for i := 0; i < 40; i++ {
		obstacles = append(obstacles, Obstacle{
			ID: fmt.Sprintf("o%d", i),
			Rect: geometry.Rect{
				X: float64(rng.Intn(3000)),
				Y: float64(rng.Intn(3000)),
				W: 280,
				H: float64(40 + rng.Intn(200)),
			},
		})
	}

	desired := geometry.Point{X: 1500, Y: 1500}
	size := geometry.Size{W: 280, H: 120}
	first := r.FindSafePosition("n", desired, size, obstacles)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, r.FindSafePosition("n", desired, size, obstacles))
	}
}

func TestFindSafePositionSeededPlacements(t *testing.T) {
	// Place a sequence of items one after another, feeding each result back
	// as an obstacle. Every resolved position that was not a give-up must
	// clear all prior rectangles by the buffer.
	var r Resolver
	rng := rand.New(rand.NewSource(7))
	size := geometry.Size{W: 280, H: 120}

	var obstacles []Obstacle
	for i := 0; i < 30; i++ {
		id := fmt.Sprintf("p%d", i)
		desired := geometry.Point{X: float64(rng.Intn(2000)), Y: float64(rng.Intn(2000))}
		p := r.FindSafePosition(id, desired, size, obstacles)

		if collides(id, p, size, obstacles) {
			// Only the give-up fallback may overlap.
			require.Equal(t, desired, p, "placement %d overlaps away from the desired point", i)
		}
		obstacles = append(obstacles, Obstacle{ID: id, Rect: geometry.RectAt(p, size)})
	}
}

// Package placement implements the collision-free placement search used
// whenever an entity transitions into a top-level active position: creation,
// duplication, un-archiving, leaving a folder, or arriving from the change
// feed at a position that collides locally.
package placement

import "github.com/canvasnote/canvasnote/pkg/geometry"

// Search parameters, in canvas units. StepX exceeds the widest default card
// plus the buffer so a single rightward step always clears a directly
// overlapping neighbor.
const (
	StepX         = 320
	SlideAttempts = 6
	Buffer        = 20
	SpiralStep    = 160
	MaxRings      = 12
)

// Obstacle is an occupied rectangle the resolver must avoid. ID lets the
// resolver skip the entity being placed when its own previous position is
// still present in the obstacle set.
type Obstacle struct {
	ID   string
	Rect geometry.Rect
}

// Resolver runs the placement search. The zero value is ready to use.
type Resolver struct{}

// FindSafePosition returns the nearest collision-free top-left position for
// a rectangle of the given size, starting from the desired point.
//
// The search has three phases:
//  1. Slide rightward from the desired point in StepX increments, accepting
//     the first candidate that clears every obstacle by the buffer margin.
//  2. Walk expanding square rings on a SpiralStep grid centered on the
//     desired point, testing candidates in deterministic row-major order.
//  3. Give up and return the desired point unchanged, tolerating the
//     overlap so that placement always terminates.
//
// The result is deterministic for fixed inputs.
func (Resolver) FindSafePosition(id string, desired geometry.Point, size geometry.Size, obstacles []Obstacle) geometry.Point {
	for step := 0; step <= SlideAttempts; step++ {
		candidate := geometry.Point{X: desired.X + float64(step)*StepX, Y: desired.Y}
		if !collides(id, candidate, size, obstacles) {
			return candidate
		}
	}

	for ring := 1; ring <= MaxRings; ring++ {
		for dy := -ring; dy <= ring; dy++ {
			for dx := -ring; dx <= ring; dx++ {
				if max(abs(dx), abs(dy)) != ring {
					continue
				}
				candidate := geometry.Point{
					X: desired.X + float64(dx)*SpiralStep,
					Y: desired.Y + float64(dy)*SpiralStep,
				}
				if !collides(id, candidate, size, obstacles) {
					return candidate
				}
			}
		}
	}

	return desired
}

func collides(id string, p geometry.Point, size geometry.Size, obstacles []Obstacle) bool {
	r := geometry.RectAt(p, size)
	for _, o := range obstacles {
		if o.ID == id {
			continue
		}
		if r.Intersects(o.Rect.Inflate(Buffer)) {
			return true
		}
	}
	return false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

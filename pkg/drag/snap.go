package drag

import (
	"math"

	"github.com/canvasnote/canvasnote/pkg/geometry"
)

type snapMatch struct {
	correction float64
	guide      float64
}

// snapAxis finds the closest alignment between the moved rectangle and the
// visible non-dragged rectangles on one axis. Edges and centerlines align
// directly; additionally each neighbor edge offers an adjacency stop one
// AdjacencyGap away. The horizontal and vertical axes snap independently.
func (s *Session) snapAxis(moved geometry.Rect, threshold float64, horizontal bool) (snapMatch, bool) {
	var own [3]float64
	if horizontal {
		own = [3]float64{moved.X, moved.X + moved.W, moved.CenterX()}
	} else {
		own = [3]float64{moved.Y, moved.Y + moved.H, moved.CenterY()}
	}

	best := snapMatch{}
	bestDist := math.Inf(1)

	consider := func(ownCoord, target, guide float64) {
		d := math.Abs(target - ownCoord)
		if d <= threshold && d < bestDist {
			bestDist = d
			best = snapMatch{correction: target - ownCoord, guide: guide}
		}
	}

	for id, e := range s.entities {
		if s.dragSet[id] {
			continue
		}
		if _, carried := s.carried[id]; carried {
			continue
		}

		var lo, hi, center float64
		if horizontal {
			lo, hi, center = e.Rect.X, e.Rect.X+e.Rect.W, e.Rect.CenterX()
		} else {
			lo, hi, center = e.Rect.Y, e.Rect.Y+e.Rect.H, e.Rect.CenterY()
		}

		for _, o := range own {
			consider(o, lo, lo)
			consider(o, hi, hi)
			consider(o, center, center)
		}
		// Adjacency stops: own trailing edge a gap before the neighbor, or
		// own leading edge a gap after it.
		consider(own[1], lo-AdjacencyGap, lo)
		consider(own[0], hi+AdjacencyGap, hi)
	}

	if math.IsInf(bestDist, 1) {
		return snapMatch{}, false
	}
	return best, true
}

// Package layout implements the deterministic masonry re-flow used for bulk
// reorganization of canvas entities.
package layout

import (
	"math"
	"sort"

	"github.com/canvasnote/canvasnote/pkg/geometry"
)

const (
	// Gap separates items horizontally and vertically after a re-flow.
	Gap = 24
	// RowTolerance buckets input rows: items whose vertical positions fall
	// into the same bucket are treated as one reading-order row.
	RowTolerance = 40
)

// Box is an entity participating in a layout pass.
type Box struct {
	ID   string
	Rect geometry.Rect
}

// Placement is the computed position for one box.
type Placement struct {
	ID       string
	Position geometry.Point
}

// Masonry re-flows the boxes into a shortest-column bin pack anchored at
// the top-left corner of the input bounding box.
//
// The boxes are first sorted into reading order (row buckets by vertical
// tolerance, then left to right), then distributed over ceil(sqrt(n))
// columns: each box lands in the currently shortest column at its next free
// vertical offset. Output is deterministic for fixed input ordering and
// dimensions.
func Masonry(boxes []Box) []Placement {
	if len(boxes) == 0 {
		return nil
	}

	ordered := make([]Box, len(boxes))
	copy(ordered, boxes)
	sort.SliceStable(ordered, func(i, j int) bool {
		bi := math.Floor(ordered[i].Rect.Y / RowTolerance)
		bj := math.Floor(ordered[j].Rect.Y / RowTolerance)
		if bi != bj {
			return bi < bj
		}
		if ordered[i].Rect.X != ordered[j].Rect.X {
			return ordered[i].Rect.X < ordered[j].Rect.X
		}
		return ordered[i].ID < ordered[j].ID
	})

	origin := geometry.Point{X: ordered[0].Rect.X, Y: ordered[0].Rect.Y}
	maxWidth := 0.0
	for _, b := range ordered {
		if b.Rect.X < origin.X {
			origin.X = b.Rect.X
		}
		if b.Rect.Y < origin.Y {
			origin.Y = b.Rect.Y
		}
		if b.Rect.W > maxWidth {
			maxWidth = b.Rect.W
		}
	}

	columns := int(math.Ceil(math.Sqrt(float64(len(ordered)))))
	heights := make([]float64, columns)

	placements := make([]Placement, 0, len(ordered))
	for _, b := range ordered {
		col := 0
		for c := 1; c < columns; c++ {
			if heights[c] < heights[col] {
				col = c
			}
		}
		p := geometry.Point{
			X: origin.X + float64(col)*(maxWidth+Gap),
			Y: origin.Y + heights[col],
		}
		heights[col] += b.Rect.H + Gap
		placements = append(placements, Placement{ID: b.ID, Position: p})
	}
	return placements
}

// Package geometry provides the pure rectangle math the placement, drag and
// layout packages are built on: axis-aligned rectangles in canvas units,
// overlap tests, and the typed per-kind sizing function for items and
// folders. The package holds no state.
package geometry

// Point is a location in canvas units.
type Point struct {
	X float64
	Y float64
}

// Size is a width and height in canvas units.
type Size struct {
	W float64
	H float64
}

// Rect is an axis-aligned rectangle in canvas units, anchored at its
// top-left corner.
type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

// RectAt builds a rectangle from a top-left point and a size.
func RectAt(p Point, s Size) Rect {
	return Rect{X: p.X, Y: p.Y, W: s.W, H: s.H}
}

// Min returns the top-left corner.
func (r Rect) Min() Point { return Point{X: r.X, Y: r.Y} }

// Max returns the bottom-right corner.
func (r Rect) Max() Point { return Point{X: r.X + r.W, Y: r.Y + r.H} }

// CenterX returns the horizontal centerline coordinate.
func (r Rect) CenterX() float64 { return r.X + r.W/2 }

// CenterY returns the vertical centerline coordinate.
func (r Rect) CenterY() float64 { return r.Y + r.H/2 }

// Area returns the rectangle area.
func (r Rect) Area() float64 { return r.W * r.H }

// Inflate grows the rectangle by m on every side. Negative m shrinks it.
func (r Rect) Inflate(m float64) Rect {
	return Rect{X: r.X - m, Y: r.Y - m, W: r.W + 2*m, H: r.H + 2*m}
}

// Translate moves the rectangle by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W, H: r.H}
}

// Intersects reports whether the two rectangles overlap. Touching edges do
// not count as overlap.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.X+o.W && o.X < r.X+r.W && r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// IntersectionArea returns the area of the overlap between r and o, or zero
// when they do not intersect.
func (r Rect) IntersectionArea(o Rect) float64 {
	w := min(r.X+r.W, o.X+o.W) - max(r.X, o.X)
	h := min(r.Y+r.H, o.Y+o.H) - max(r.Y, o.Y)
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// ContainsPoint reports whether p lies inside the rectangle. The top and
// left edges are inclusive, the bottom and right edges exclusive.
func (r Rect) ContainsPoint(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// ContainsRect reports whether o lies entirely within r.
func (r Rect) ContainsRect(o Rect) bool {
	return o.X >= r.X && o.Y >= r.Y && o.X+o.W <= r.X+r.W && o.Y+o.H <= r.Y+r.H
}

// ClampInto returns the position that keeps a rectangle of r's size inside
// bounds, moving it by the minimal amount. A rectangle larger than bounds
// is pinned to the bounds origin.
func (r Rect) ClampInto(bounds Rect) Point {
	x := r.X
	y := r.Y
	if x+r.W > bounds.X+bounds.W {
		x = bounds.X + bounds.W - r.W
	}
	if y+r.H > bounds.Y+bounds.H {
		y = bounds.Y + bounds.H - r.H
	}
	if x < bounds.X {
		x = bounds.X
	}
	if y < bounds.Y {
		y = bounds.Y
	}
	return Point{X: x, Y: y}
}

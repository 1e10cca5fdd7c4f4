// Package geom holds the planar primitives shared by the codec, the
// quadtree and the editor, plus the pure geometry algorithms they use.
package geom

import "math"

// Point is a planar coordinate pair.
type Point struct {
	X, Y float64
}

// BBox is an axis-aligned bounding box (xmin, ymin, xmax, ymax).
type BBox struct {
	MinX, MinY, MaxX, MaxY float64
}

// Disjoint reports whether the two boxes share no point. Touching edges
// are not disjoint.
func (b BBox) Disjoint(other BBox) bool {
	return b.MinX > other.MaxX || b.MinY > other.MaxY ||
		other.MinX > b.MaxX || other.MinY > b.MaxY
}

// Intersects is the negation of Disjoint.
func (b BBox) Intersects(other BBox) bool {
	return !b.Disjoint(other)
}

// ContainsStrict reports whether (x, y) lies strictly inside the box.
// Points on an edge are outside.
func (b BBox) ContainsStrict(x, y float64) bool {
	return b.MinX < x && x < b.MaxX && b.MinY < y && y < b.MaxY
}

// Contains reports whether (x, y) lies inside the box or on its edge.
func (b BBox) Contains(x, y float64) bool {
	return x >= b.MinX && x <= b.MaxX && y >= b.MinY && y <= b.MaxY
}

// Mid returns the center of the box.
func (b BBox) Mid() Point {
	return Point{X: 0.5 * (b.MinX + b.MaxX), Y: 0.5 * (b.MinY + b.MaxY)}
}

// Width returns MaxX - MinX.
func (b BBox) Width() float64 { return b.MaxX - b.MinX }

// Height returns MaxY - MinY.
func (b BBox) Height() float64 { return b.MaxY - b.MinY }

// Union returns the smallest box covering both.
func (b BBox) Union(other BBox) BBox {
	return BBox{
		MinX: math.Min(b.MinX, other.MinX),
		MinY: math.Min(b.MinY, other.MinY),
		MaxX: math.Max(b.MaxX, other.MaxX),
		MaxY: math.Max(b.MaxY, other.MaxY),
	}
}

// Extend grows the box to include (x, y).
func (b BBox) Extend(x, y float64) BBox {
	return BBox{
		MinX: math.Min(b.MinX, x),
		MinY: math.Min(b.MinY, y),
		MaxX: math.Max(b.MaxX, x),
		MaxY: math.Max(b.MaxY, y),
	}
}

// BoundsOf returns the bounding box of points and false when points is empty.
func BoundsOf(points []Point) (BBox, bool) {
	if len(points) == 0 {
		return BBox{}, false
	}
	b := BBox{MinX: points[0].X, MinY: points[0].Y, MaxX: points[0].X, MaxY: points[0].Y}
	for _, p := range points[1:] {
		b = b.Extend(p.X, p.Y)
	}
	return b, true
}

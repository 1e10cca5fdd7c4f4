package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func square(minX, minY, maxX, maxY float64) []Point {
	// Clockwise, closed.
	return []Point{
		{minX, minY}, {minX, maxY}, {maxX, maxY}, {maxX, minY}, {minX, minY},
	}
}

func TestSimplexArea(t *testing.T) {
	tests := []struct {
		name string
		ring []Point
		want float64
	}{
		{"unit square ccw", []Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}}, -1},
		{"unit square cw", []Point{{0, 0}, {0, 1}, {1, 1}, {1, 0}}, 1},
		{"closed cw ring", square(0, 0, 2, 3), 6},
		{"two points", []Point{{0, 0}, {1, 1}}, 0},
		{"empty", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SimplexArea(tt.ring), 1e-12)
		})
	}
}

func TestAreaOfParts(t *testing.T) {
	outer := square(0, 0, 4, 4)
	// Hole wound the opposite way.
	hole := []Point{{1, 1}, {3, 1}, {3, 3}, {1, 3}, {1, 1}}
	points := append(append([]Point{}, outer...), hole...)

	assert.InDelta(t, 16.0, AreaOf(outer, nil), 1e-12)
	assert.InDelta(t, 12.0, AreaOf(points, []int{0, len(outer)}), 1e-12)
}

func TestLengthOf(t *testing.T) {
	line := []Point{{0, 0}, {3, 4}, {3, 10}}
	assert.InDelta(t, 11.0, LengthOf(line, []int{0}), 1e-12)

	// Parts are not joined to each other.
	twoParts := []Point{{0, 0}, {1, 0}, {10, 10}, {10, 12}}
	assert.InDelta(t, 3.0, LengthOf(twoParts, []int{0, 2}), 1e-12)
}

func TestPointInPoly(t *testing.T) {
	ring := square(0, 0, 2, 2)
	tests := []struct {
		name string
		x, y float64
		want bool
	}{
		{"centroid", 1, 1, true},
		{"far outside", 10, 10, false},
		{"left of ring", -1, 1, false},
		{"on bottom edge", 1, 0, false},
		{"on top edge", 1, 2, true},
		{"on left edge", 0, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PointInPoly(tt.x, tt.y, ring))
		})
	}
}

func TestPointInPolyConvexCentroid(t *testing.T) {
	// Regular polygons of increasing vertex count.
	for n := 3; n <= 12; n++ {
		ring := make([]Point, 0, n+1)
		for k := 0; k < n; k++ {
			a := -2 * math.Pi * float64(k) / float64(n)
			ring = append(ring, Point{X: 5 + 2*math.Cos(a), Y: -3 + 2*math.Sin(a)})
		}
		ring = append(ring, ring[0])

		assert.True(t, PointInPoly(5, -3, ring), "n=%d", n)
		assert.False(t, PointInPoly(50, 50, ring), "n=%d", n)
	}
}

// TestIsPolyIntersectGolden pins every stage of the predicate, including the
// crossing-count mismatch branch.
func TestIsPolyIntersectGolden(t *testing.T) {
	box := BBox{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1}

	tests := []struct {
		name string
		ring []Point
		want bool
	}{
		{"bbox disjoint", square(2, 2, 3, 3), false},
		{"vertex inside", []Point{{0.5, 0.5}, {3, 3}, {3, 0.5}, {0.5, 0.5}}, true},
		{"box inside polygon", square(-1, -1, 2, 2), true},
		{"bar across box", []Point{{-1, 0.4}, {-1, 0.6}, {2, 0.6}, {2, 0.4}, {-1, 0.4}}, true},
		{"bbox overlap only", []Point{{3, 0}, {3, 3}, {0, 3}, {3, 0}}, false},
		{"triangle through bottom edge", []Point{{-1, 2}, {2, 2}, {0.5, -1}, {-1, 2}}, true},
		{"vertical bar parity mismatch", []Point{{0.3, -1}, {0.3, 2}, {0.6, 2}, {0.6, -1}, {0.3, -1}}, true},
		{"touching edge only", square(1, 0, 2, 1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			polyBox, _ := BoundsOf(tt.ring)
			assert.Equal(t, tt.want, IsPolyIntersect(box, tt.ring, polyBox))
		})
	}
}

func TestDistPointToSeg(t *testing.T) {
	a, b := Point{0, 0}, Point{10, 0}
	tests := []struct {
		name string
		p    Point
		want float64
	}{
		{"perpendicular", Point{5, 3}, 3},
		{"before start", Point{-3, 4}, 5},
		{"after end", Point{13, 4}, 5},
		{"on segment", Point{2, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, DistPointToSeg(tt.p, a, b), 1e-12)
		})
	}

	assert.InDelta(t, 5.0, DistPointToSeg(Point{3, 4}, a, a), 1e-12)
}

func TestBBox(t *testing.T) {
	b := BBox{MinX: 0, MinY: 0, MaxX: 2, MaxY: 2}

	assert.True(t, b.Intersects(BBox{MinX: 2, MinY: 2, MaxX: 3, MaxY: 3}))
	assert.True(t, b.Disjoint(BBox{MinX: 2.1, MinY: 0, MaxX: 3, MaxY: 1}))
	assert.False(t, b.ContainsStrict(0, 1))
	assert.True(t, b.Contains(0, 1))
	assert.Equal(t, Point{1, 1}, b.Mid())

	got, ok := BoundsOf([]Point{{3, -1}, {-2, 4}})
	assert.True(t, ok)
	assert.Equal(t, BBox{MinX: -2, MinY: -1, MaxX: 3, MaxY: 4}, got)

	_, ok = BoundsOf(nil)
	assert.False(t, ok)
}

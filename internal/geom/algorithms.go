package geom

import "math"

// SimplexArea returns the signed area of a single ring. The ring is closed
// implicitly back to its first vertex. Clockwise rings (the shapefile
// convention for outer rings) come out positive, counter-clockwise rings
// negative. Rings with fewer than 3 vertices have zero area.
func SimplexArea(ring []Point) float64 {
	if len(ring) < 3 {
		return 0
	}
	var sum float64
	last := ring[0]
	for i := 1; i <= len(ring); i++ {
		next := ring[i%len(ring)]
		sum += last.Y*next.X - last.X*next.Y
		last = next
	}
	return sum / 2
}

// AreaOf sums SimplexArea over every part of a shape. Parts are start
// indices into points; an empty parts slice means a single part.
//
// Holes only subtract when their winding is opposite to the outer ring.
func AreaOf(points []Point, parts []int) float64 {
	var total float64
	forEachPart(points, parts, func(part []Point) {
		total += SimplexArea(part)
	})
	return total
}

// LengthOf sums the distance between consecutive vertices within each part.
func LengthOf(points []Point, parts []int) float64 {
	var total float64
	forEachPart(points, parts, func(part []Point) {
		for k := 0; k+1 < len(part); k++ {
			total += Dist(part[k], part[k+1])
		}
	})
	return total
}

// Rings splits points into its parts.
func Rings(points []Point, parts []int) [][]Point {
	rings := make([][]Point, 0, len(parts))
	forEachPart(points, parts, func(part []Point) {
		rings = append(rings, part)
	})
	return rings
}

func forEachPart(points []Point, parts []int, fn func([]Point)) {
	if len(parts) == 0 {
		parts = []int{0}
	}
	for i, start := range parts {
		end := len(points)
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || start > end || end > len(points) {
			continue
		}
		fn(points[start:end])
	}
}

// PointInPoly reports whether (x, y) lies inside ring using ray casting.
//
// An edge counts when y > min(y1,y2) && y <= max(y1,y2) && x <= max(x1,x2);
// vertical edges toggle without computing an intersection. Boundary points
// therefore resolve the same way every time, which the quadtree relies on.
func PointInPoly(x, y float64, ring []Point) bool {
	if len(ring) == 0 {
		return false
	}
	inside := false
	p1 := ring[0]
	for i := 1; i < len(ring); i++ {
		p2 := ring[i]
		if y > math.Min(p1.Y, p2.Y) && y <= math.Max(p1.Y, p2.Y) && x <= math.Max(p1.X, p2.X) {
			// The y test above excludes horizontal edges, so the division is safe.
			var xints float64
			if p1.Y != p2.Y {
				xints = (y-p1.Y)*(p2.X-p1.X)/(p2.Y-p1.Y) + p1.X
			}
			if p1.X == p2.X || x <= xints {
				inside = !inside
			}
		}
		p1 = p2
	}
	return inside
}

// IsPolyIntersect reports whether the polygon described by points (with
// bounding box polyBox) shares any part with box.
//
// The test runs in stages:
//  1. bounding boxes disjoint: false
//  2. any vertex strictly inside box: true
//  3. horizontal scan lines along the box's bottom and top edges: count
//     polygon crossings left/right of each vertical box edge; an odd/odd
//     split, or fewer crossings left of the left edge than left of the
//     right edge, means the outlines cross
//  4. vertical scan lines along the box's left and right edges: any
//     crossing within [MinY, MaxY] means the outlines cross
func IsPolyIntersect(box BBox, points []Point, polyBox BBox) bool {
	if box.Disjoint(polyBox) {
		return false
	}
	if len(points) == 0 {
		return false
	}

	for _, p := range points {
		if box.ContainsStrict(p.X, p.Y) {
			return true
		}
	}

	// count[line][edge][side]: line 0/1 = bottom/top scan line,
	// edge 0/1 = left/right box edge, side 0/1 = crossing left/right of it.
	var count [2][2][2]int
	ys := [2]float64{box.MinY, box.MaxY}
	for i := 0; i < 2; i++ {
		flag := points[0].Y >= ys[i]
		for j := 1; j < len(points); j++ {
			next := points[j].Y >= ys[i]
			if next != flag {
				prev, cur := points[j-1], points[j]
				var tx float64
				if cur.Y == prev.Y {
					tx = cur.X
				} else {
					tx = (ys[i]-prev.Y)/(cur.Y-prev.Y)*(cur.X-prev.X) + prev.X
				}
				if tx < box.MinX {
					count[i][0][0]++
				} else {
					count[i][0][1]++
				}
				if tx < box.MaxX {
					count[i][1][0]++
				} else {
					count[i][1][1]++
				}
			}
			flag = next
		}
	}

	for _, line := range count {
		for _, edge := range line {
			if edge[0]&1 == 1 && edge[1]&1 == 1 {
				return true
			}
		}
	}

	if count[0][0][0] < count[0][1][0] || count[1][0][0] < count[1][1][0] {
		return true
	}

	xs := [2]float64{box.MinX, box.MaxX}
	for i := 0; i < 2; i++ {
		flag := points[0].X >= xs[i]
		for j := 1; j < len(points); j++ {
			next := points[j].X >= xs[i]
			if next != flag {
				prev, cur := points[j-1], points[j]
				var ty float64
				if cur.X == prev.X {
					ty = cur.Y
				} else {
					ty = (xs[i]-prev.X)/(cur.X-prev.X)*(cur.Y-prev.Y) + prev.Y
				}
				if box.MinY <= ty && ty <= box.MaxY {
					return true
				}
			}
			flag = next
		}
	}

	return false
}

// DistPointToSeg returns the distance from p to the segment ab. When the
// perpendicular foot falls outside the segment the distance to the nearer
// endpoint is returned.
func DistPointToSeg(p, a, b Point) float64 {
	apx, apy := p.X-a.X, p.Y-a.Y
	abx, aby := b.X-a.X, b.Y-a.Y
	base := math.Sqrt(abx*abx + aby*aby)
	if base == 0 {
		return math.Sqrt(apx*apx + apy*apy)
	}
	tp := (apx*abx + apy*aby) / base
	switch {
	case tp <= 0:
		return math.Sqrt(apx*apx + apy*apy)
	case tp <= base:
		return math.Abs((apx*aby - apy*abx) / base)
	default:
		return Dist(p, b)
	}
}

// Dist returns the Euclidean distance between a and b.
func Dist(a, b Point) float64 {
	return math.Sqrt(DistSquared(a, b))
}

// DistSquared returns the squared Euclidean distance between a and b.
func DistSquared(a, b Point) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}

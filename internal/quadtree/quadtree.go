// Package quadtree implements a static four-way partition over the shapes
// of a dataset. The tree stores shape indices only; geometry stays in the
// dataset and is reached through the Dataset interface.
package quadtree

import (
	"github.com/beetlebugorg/shapefile/internal/geom"
)

const (
	// SplitThreshold is the member count at which a node is split.
	SplitThreshold = 100
	// MaxDepth is the deepest level that may still be split.
	MaxDepth = 10
)

// Dataset is the view of a shape collection the tree is built over.
type Dataset interface {
	// Len returns the number of shapes.
	Len() int
	// Bounds returns the extent of every shape.
	Bounds() geom.BBox
	// IntersectsBox is the membership test for line and area shapes.
	IntersectsBox(i int, box geom.BBox) bool
	// Vertices returns the points of a point or multipoint shape. Such
	// shapes join the children their vertices descend into, the same rule
	// queries use, so a vertex on a cell edge still lands in exactly one
	// child. ok is false for every other shape.
	Vertices(i int) (pts []geom.Point, ok bool)
	// ContainsPoint reports whether shape i contains (x, y).
	ContainsPoint(i int, x, y float64) bool
	// PointAt returns the single point of a point-like shape.
	PointAt(i int) (geom.Point, bool)
}

// Node is one cell of the tree. Child is the arena index of the first of
// four consecutive children, or -1 for a leaf.
type Node struct {
	Members []int
	Box     geom.BBox
	Child   int
	Depth   int
}

// IsLeaf reports whether the node has no children.
func (n Node) IsLeaf() bool {
	return n.Child < 0
}

// Tree is an arena of nodes rooted at index 0. It is immutable once built
// and goes stale silently if the dataset's shapes change.
type Tree struct {
	nodes []Node
	ds    Dataset
}

func shouldSplit(members, depth int) bool {
	return members >= SplitThreshold && depth <= MaxDepth
}

// childBox returns the box of child i: x spans from the midpoint to corner
// i&1 and y from the midpoint to corner i>>1.
func childBox(box geom.BBox, i int) geom.BBox {
	mid := box.Mid()
	corners := [2]geom.Point{{X: box.MinX, Y: box.MinY}, {X: box.MaxX, Y: box.MaxY}}
	cx, cy := corners[i&1].X, corners[i>>1].Y
	return geom.BBox{
		MinX: min(mid.X, cx),
		MinY: min(mid.Y, cy),
		MaxX: max(mid.X, cx),
		MaxY: max(mid.Y, cy),
	}
}

// childIndex picks the single child covering (x, y).
func childIndex(box geom.BBox, x, y float64) int {
	mid := box.Mid()
	i := 0
	if x > mid.X {
		i++
	}
	if y > mid.Y {
		i += 2
	}
	return i
}

// Build partitions ds breadth-first. A line or area shape joins every child
// whose box it intersects, so it may appear in several leaves.
func Build(ds Dataset) *Tree {
	members := make([]int, ds.Len())
	for i := range members {
		members[i] = i
	}
	t := &Tree{ds: ds}
	t.nodes = append(t.nodes, Node{Members: members, Box: ds.Bounds(), Child: -1})

	for queue := []int{0}; len(queue) > 0; queue = queue[1:] {
		idx := queue[0]
		n := t.nodes[idx]
		if !shouldSplit(len(n.Members), n.Depth) {
			continue
		}
		first := len(t.nodes)
		t.nodes[idx].Child = first
		for i := 0; i < 4; i++ {
			box := childBox(n.Box, i)
			var sub []int
			for _, m := range n.Members {
				if joins(ds, m, n.Box, box, i) {
					sub = append(sub, m)
				}
			}
			t.nodes = append(t.nodes, Node{Members: sub, Box: box, Child: -1, Depth: n.Depth + 1})
			queue = append(queue, first+i)
		}
	}
	return t
}

// joins reports whether shape m belongs to child i of a node covering parent.
func joins(ds Dataset, m int, parent, child geom.BBox, i int) bool {
	pts, ok := ds.Vertices(m)
	if !ok {
		return ds.IntersectsBox(m, child)
	}
	for _, p := range pts {
		if childIndex(parent, p.X, p.Y) == i {
			return true
		}
	}
	return false
}

// Nodes returns the arena. Index 0 is the root.
func (t *Tree) Nodes() []Node {
	return t.nodes
}

// Root returns the root node.
func (t *Tree) Root() Node {
	return t.nodes[0]
}

// Depth returns the depth of the deepest node.
func (t *Tree) Depth() int {
	d := 0
	for _, n := range t.nodes {
		d = max(d, n.Depth)
	}
	return d
}

// leaf descends from the root to the leaf covering (x, y).
func (t *Tree) leaf(x, y float64) Node {
	n := t.nodes[0]
	for !n.IsLeaf() {
		n = t.nodes[n.Child+childIndex(n.Box, x, y)]
	}
	return n
}

// Contains returns the first member of the covering leaf that contains
// (x, y), or -1.
func (t *Tree) Contains(x, y float64) int {
	for _, m := range t.leaf(x, y).Members {
		if t.ds.ContainsPoint(m, x, y) {
			return m
		}
	}
	return -1
}

// Nearest returns the closest point-like member to (x, y). The descent
// stops at the deepest non-empty node on the path; ties go to the lowest
// index. It returns -1 when that node is empty.
func (t *Tree) Nearest(x, y float64) int {
	n := t.nodes[0]
	for !n.IsLeaf() {
		next := t.nodes[n.Child+childIndex(n.Box, x, y)]
		if len(next.Members) == 0 {
			break
		}
		n = next
	}
	return nearestOf(t.ds, n.Members, geom.Point{X: x, Y: y})
}

func nearestOf(ds Dataset, members []int, q geom.Point) int {
	best, bestDist := -1, 0.0
	for _, m := range members {
		p, ok := ds.PointAt(m)
		if !ok {
			continue
		}
		d := geom.DistSquared(p, q)
		if best < 0 || d < bestDist || (d == bestDist && m < best) {
			best, bestDist = m, d
		}
	}
	return best
}

// LinearContains is the scan the tree accelerates: the lowest index whose
// shape contains (x, y), or -1.
func LinearContains(ds Dataset, x, y float64) int {
	for i := 0; i < ds.Len(); i++ {
		if ds.ContainsPoint(i, x, y) {
			return i
		}
	}
	return -1
}

// LinearNearest returns the lowest index among the point-like shapes
// closest to (x, y), or -1.
func LinearNearest(ds Dataset, x, y float64) int {
	members := make([]int, ds.Len())
	for i := range members {
		members[i] = i
	}
	return nearestOf(ds, members, geom.Point{X: x, Y: y})
}

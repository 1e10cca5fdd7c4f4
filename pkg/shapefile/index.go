package shapefile

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/dhconnelly/rtreego"
	"go.uber.org/zap"

	"github.com/beetlebugorg/shapefile/internal/codec"
	"github.com/beetlebugorg/shapefile/internal/geom"
	"github.com/beetlebugorg/shapefile/internal/quadtree"
)

// dataset adapts an Editor to the quadtree.
type dataset struct {
	e *Editor
}

func (d dataset) Len() int {
	return len(d.e.shapes)
}

func (d dataset) Bounds() geom.BBox {
	return d.e.Bounds()
}

// IntersectsBox is the line and area membership test. Point and multipoint
// shapes go through Vertices instead.
func (d dataset) IntersectsBox(i int, box geom.BBox) bool {
	s := d.e.shapes[i]
	if s.Type == TypeNull || len(s.Points) == 0 {
		return false
	}
	return geom.IsPolyIntersect(box, s.Points, s.BBox)
}

func (d dataset) Vertices(i int) ([]geom.Point, bool) {
	s := d.e.shapes[i]
	switch {
	case s.Type == TypeNull:
		return nil, true
	case s.Type.IsPointLike(), s.Type.IsMultiPoint():
		return s.Points, true
	default:
		return nil, false
	}
}

func (d dataset) ContainsPoint(i int, x, y float64) bool {
	return containsPoint(d.e.shapes[i], x, y)
}

func (d dataset) PointAt(i int) (geom.Point, bool) {
	s := d.e.shapes[i]
	if !s.Type.IsPointLike() || len(s.Points) == 0 {
		return geom.Point{}, false
	}
	return s.Points[0], true
}

// BuildQuadtree indexes the current shapes for point queries. Mutations
// through the editor drop the tree; editing shape slices directly leaves it
// stale.
func (e *Editor) BuildQuadtree() {
	e.qtree = quadtree.Build(dataset{e})
	e.qtreeRev = e.rev.n
	e.log.Debug("built quadtree",
		zap.Int("shapes", len(e.shapes)),
		zap.Int("nodes", len(e.qtree.Nodes())),
		zap.Int("depth", e.qtree.Depth()))
}

// HasQuadtree reports whether a quadtree is currently attached.
func (e *Editor) HasQuadtree() bool {
	return e.quadtree() != nil
}

// WriteQuadtree writes the attached quadtree in .qdt text form, building it
// first if needed.
func (e *Editor) WriteQuadtree(w io.Writer) error {
	if e.quadtree() == nil {
		e.BuildQuadtree()
	}
	return e.qtree.Write(w)
}

// ReadQuadtree attaches a quadtree previously written by WriteQuadtree for
// the same shapes.
func (e *Editor) ReadQuadtree(r io.Reader) error {
	t, err := quadtree.Read(r, dataset{e})
	if err != nil {
		return err
	}
	e.qtree = t
	e.qtreeRev = e.rev.n
	return nil
}

// SaveQuadtree writes base.qdt.
func (e *Editor) SaveQuadtree(base string) error {
	path := codec.TrimExt(base) + ".qdt"
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := e.WriteQuadtree(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadQuadtree attaches the tree stored in base.qdt.
func (e *Editor) LoadQuadtree(base string) error {
	path := codec.TrimExt(base) + ".qdt"
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return e.ReadQuadtree(f)
}

// IndexOfFirstFeatureContainingPoint returns the lowest index whose shape
// contains (x, y), or -1. The quadtree is used when one is attached.
func (e *Editor) IndexOfFirstFeatureContainingPoint(x, y float64) int {
	if t := e.quadtree(); t != nil {
		return t.Contains(x, y)
	}
	return quadtree.LinearContains(dataset{e}, x, y)
}

// IndexOfClosestFeature returns the index of the point nearest to (x, y),
// or -1 on an empty dataset. Only point datasets are supported. With a
// quadtree attached the search is confined to the covering cell.
func (e *Editor) IndexOfClosestFeature(x, y float64) (int, error) {
	if !e.shapeType.IsPointLike() {
		return -1, fmt.Errorf("closest feature in %s dataset: %w", e.shapeType, ErrUnsupportedShapeType)
	}
	if t := e.quadtree(); t != nil {
		return t.Nearest(x, y), nil
	}
	return quadtree.LinearNearest(dataset{e}, x, y), nil
}

// DistanceToBoundary finds the feature containing (x, y) and returns its
// index with the distance to the nearest segment of its rings. It returns
// -1, -1 when no feature contains the point.
func (e *Editor) DistanceToBoundary(x, y float64) (int, float64) {
	i := e.IndexOfFirstFeatureContainingPoint(x, y)
	if i < 0 {
		return -1, -1
	}
	p := geom.Point{X: x, Y: y}
	best := math.Inf(1)
	for _, ring := range e.shapes[i].Rings() {
		for k := 0; k+1 < len(ring); k++ {
			best = math.Min(best, geom.DistPointToSeg(p, ring[k], ring[k+1]))
		}
	}
	return i, best
}

// indexedShape is a shape box stored in the R-tree.
type indexedShape struct {
	index int
	box   geom.BBox
}

// Bounds implements rtreego.Spatial.
func (s indexedShape) Bounds() rtreego.Rect {
	return rectOf(s.box, 0)
}

// rectOf converts box to an R-tree rectangle grown by pad on every side.
// Zero extents are widened to a small epsilon scaled to the coordinates.
func rectOf(box geom.BBox, pad float64) rtreego.Rect {
	eps := 1e-9 * (1 + math.Max(math.Max(math.Abs(box.MinX), math.Abs(box.MaxX)),
		math.Max(math.Abs(box.MinY), math.Abs(box.MaxY))))
	w := math.Max(box.Width()+2*pad, eps)
	h := math.Max(box.Height()+2*pad, eps)
	rect, _ := rtreego.NewRect(rtreego.Point{box.MinX - pad, box.MinY - pad}, []float64{w, h})
	return rect
}

func (e *Editor) buildRtree() {
	e.rtree = rtreego.NewTree(2, 25, 50)
	e.rtreeRev = e.rev.n
	for i, s := range e.shapes {
		if s.Type == TypeNull || len(s.Points) == 0 {
			continue
		}
		e.rtree.Insert(indexedShape{index: i, box: s.BBox})
	}
	e.log.Debug("built r-tree", zap.Int("entries", e.rtree.Size()))
}

// bboxCandidates returns a superset of the indices whose boxes touch box.
func (e *Editor) bboxCandidates(box BBox) []int {
	if e.rtree == nil || e.rtreeRev != e.rev.n {
		e.buildRtree()
	}
	pad := 1e-9 * (1 + math.Max(math.Max(math.Abs(box.MinX), math.Abs(box.MaxX)),
		math.Max(math.Abs(box.MinY), math.Abs(box.MaxY))))
	hits := e.rtree.SearchIntersect(rectOf(box, pad))
	out := make([]int, len(hits))
	for k, h := range hits {
		out[k] = h.(indexedShape).index
	}
	return out
}

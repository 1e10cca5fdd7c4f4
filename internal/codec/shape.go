package codec

import (
	"math"

	"github.com/beetlebugorg/shapefile/internal/geom"
)

// NoDataThreshold is the measure value below which an M value means
// "no data".
const NoDataThreshold = -1e38

// noDataValue is written for unset M values.
const noDataValue = -1e39

// Shape is one geometry record.
//
// Points holds the planar coordinates. Parts holds the start index of each
// part into Points and is empty for point-like and multipoint types.
// PartTypes is only used by multipatch. Z and M are either empty or exactly
// len(Points) long; an M value of NaN is unset.
type Shape struct {
	Type      ShapeType
	Points    []geom.Point
	Parts     []int
	PartTypes []int
	Z         []float64
	M         []float64
	BBox      geom.BBox
}

// NewNull returns a NULL placeholder shape.
func NewNull() *Shape {
	return &Shape{Type: Null}
}

// NewPoint returns a single-point shape of type t (Point, PointZ or PointM).
// z is ignored unless t has elevation; m is ignored unless t has measures.
func NewPoint(t ShapeType, x, y, z, m float64) *Shape {
	s := &Shape{Type: t, Points: []geom.Point{{X: x, Y: y}}}
	if t.HasZ() {
		s.Z = []float64{z}
	}
	if t.HasM() {
		s.M = []float64{normalizeM(m)}
	}
	s.UpdateBounds()
	return s
}

// NewPoly builds a multi-part shape of type t from one point slice per part.
// Multipatch parts default to part type t when partTypes is empty.
func NewPoly(t ShapeType, parts [][]geom.Point, partTypes []int) *Shape {
	s := &Shape{Type: t}
	for _, part := range parts {
		if t.HasParts() {
			s.Parts = append(s.Parts, len(s.Points))
		}
		s.Points = append(s.Points, part...)
	}
	if t.HasPartTypes() {
		if len(partTypes) == 0 {
			partTypes = make([]int, len(parts))
			for i := range partTypes {
				partTypes[i] = int(t)
			}
		}
		s.PartTypes = append([]int(nil), partTypes...)
	}
	if t.HasZ() {
		s.Z = make([]float64, len(s.Points))
	}
	if t.HasM() {
		s.M = make([]float64, len(s.Points))
	}
	s.UpdateBounds()
	return s
}

// UpdateBounds recomputes BBox from Points. Shapes without points get a
// zero box.
func (s *Shape) UpdateBounds() {
	s.BBox, _ = geom.BoundsOf(s.Points)
}

// Clone returns a deep copy.
func (s *Shape) Clone() *Shape {
	if s == nil {
		return nil
	}
	c := *s
	c.Points = append([]geom.Point(nil), s.Points...)
	c.Parts = append([]int(nil), s.Parts...)
	c.PartTypes = append([]int(nil), s.PartTypes...)
	c.Z = append([]float64(nil), s.Z...)
	c.M = append([]float64(nil), s.M...)
	return &c
}

// Rings returns the point slices of each part. Shapes without a part array
// yield one ring holding every point.
func (s *Shape) Rings() [][]geom.Point {
	return geom.Rings(s.Points, s.Parts)
}

// ZRange returns the min and max elevation. Shapes without Z values
// report [0, 0].
func (s *Shape) ZRange() (float64, float64) {
	if len(s.Z) == 0 {
		return 0, 0
	}
	lo, hi := s.Z[0], s.Z[0]
	for _, z := range s.Z[1:] {
		lo = math.Min(lo, z)
		hi = math.Max(hi, z)
	}
	return lo, hi
}

// MRange returns the min and max measure. The range is seeded with 0 and
// unset values are ignored.
func (s *Shape) MRange() (float64, float64) {
	var lo, hi float64
	for _, m := range s.M {
		if math.IsNaN(m) {
			continue
		}
		lo = math.Min(lo, m)
		hi = math.Max(hi, m)
	}
	return lo, hi
}

// RemovePart deletes part j and its points. Negative indices count from
// the end. A shape left without points becomes NULL.
func (s *Shape) RemovePart(j int) error {
	if !s.Type.HasParts() {
		return formatErr("remove part", 0, "%s has no parts", s.Type)
	}
	k, err := ResolveIndex("remove part", j, len(s.Parts))
	if err != nil {
		return err
	}
	lo, hi := s.Parts[k], len(s.Points)
	if k+1 < len(s.Parts) {
		hi = s.Parts[k+1]
	}
	s.cutPoints(lo, hi)
	s.Parts = append(s.Parts[:k:k], s.Parts[k+1:]...)
	for i := k; i < len(s.Parts); i++ {
		s.Parts[i] -= hi - lo
	}
	if k < len(s.PartTypes) {
		s.PartTypes = append(s.PartTypes[:k:k], s.PartTypes[k+1:]...)
	}
	s.settle()
	return nil
}

// RemovePoint deletes point j, counted across all parts. Negative indices
// count from the end. Parts left empty are dropped, and a shape left
// without points becomes NULL.
func (s *Shape) RemovePoint(j int) error {
	k, err := ResolveIndex("remove point", j, len(s.Points))
	if err != nil {
		return err
	}
	s.cutPoints(k, k+1)
	for i := range s.Parts {
		if s.Parts[i] > k {
			s.Parts[i]--
		}
	}
	var parts, types []int
	for i, p := range s.Parts {
		end := len(s.Points)
		if i+1 < len(s.Parts) {
			end = s.Parts[i+1]
		}
		if p == end {
			continue
		}
		parts = append(parts, p)
		if i < len(s.PartTypes) {
			types = append(types, s.PartTypes[i])
		}
	}
	s.Parts = parts
	if len(s.PartTypes) > 0 {
		s.PartTypes = types
	}
	s.settle()
	return nil
}

// cutPoints removes points [lo, hi) along with their Z and M values.
func (s *Shape) cutPoints(lo, hi int) {
	s.Points = append(s.Points[:lo:lo], s.Points[hi:]...)
	if len(s.Z) > 0 {
		s.Z = append(s.Z[:lo:lo], s.Z[hi:]...)
	}
	if len(s.M) > 0 {
		s.M = append(s.M[:lo:lo], s.M[hi:]...)
	}
}

func (s *Shape) settle() {
	if len(s.Points) == 0 {
		*s = Shape{Type: Null}
		return
	}
	s.UpdateBounds()
}

// Validate checks the structural invariants the encoder depends on. It does
// not look at topology.
func (s *Shape) Validate() error {
	const op = "validate shape"
	if !s.Type.IsValid() {
		return formatErr(op, 0, "invalid shape type %d", int32(s.Type))
	}
	n := len(s.Points)
	switch {
	case s.Type == Null:
		return nil
	case s.Type.IsPointLike():
		if n != 1 {
			return formatErr(op, 0, "%s needs exactly one point, got %d", s.Type, n)
		}
	}
	if len(s.Z) != 0 && len(s.Z) != n {
		return formatErr(op, 0, "%d z values for %d points", len(s.Z), n)
	}
	if len(s.M) != 0 && len(s.M) != n {
		return formatErr(op, 0, "%d m values for %d points", len(s.M), n)
	}
	if s.Type.HasParts() {
		prev := -1
		for _, p := range s.Parts {
			if p < 0 || p > n || p < prev {
				return formatErr(op, 0, "part index %d outside [0,%d]", p, n)
			}
			prev = p
		}
	}
	if s.Type.HasPartTypes() && len(s.PartTypes) != len(s.Parts) {
		return formatErr(op, 0, "%d part types for %d parts", len(s.PartTypes), len(s.Parts))
	}
	return nil
}

func normalizeM(m float64) float64 {
	if m < NoDataThreshold {
		return math.NaN()
	}
	return m
}

func encodeM(m float64) float64 {
	if math.IsNaN(m) {
		return noDataValue
	}
	return m
}

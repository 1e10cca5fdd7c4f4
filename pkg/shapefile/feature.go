package shapefile

import (
	"github.com/beetlebugorg/shapefile/internal/codec"
	"github.com/beetlebugorg/shapefile/internal/geom"
)

// Feature is a view of one shape and its record. It reads through to the
// editor, so it reflects later edits to the same index.
type Feature struct {
	e     *Editor
	index int
}

// Index returns the feature's position in the dataset.
func (f *Feature) Index() int {
	return f.index
}

// Shape returns the underlying shape.
func (f *Feature) Shape() *Shape {
	return f.e.shapes[f.index]
}

// Record returns the attribute row, or nil if the dataset has fewer rows
// than shapes.
func (f *Feature) Record() Record {
	if f.index >= len(f.e.records) {
		return nil
	}
	return f.e.records[f.index]
}

// Len returns the number of points.
func (f *Feature) Len() int {
	return len(f.Shape().Points)
}

// Points returns the shape's points. The slice is shared.
func (f *Feature) Points() []Point {
	return f.Shape().Points
}

// BBox returns the shape's bounding box.
func (f *Feature) BBox() BBox {
	return f.Shape().BBox
}

// Point returns point i. Negative indices count from the end.
func (f *Feature) Point(i int) (Point, error) {
	pts := f.Shape().Points
	j, err := codec.ResolveIndex("point", i, len(pts))
	if err != nil {
		return Point{}, err
	}
	return pts[j], nil
}

// SetPoint replaces point i and refreshes the shape's bounding box.
func (f *Feature) SetPoint(i int, p Point) error {
	s := f.Shape()
	j, err := codec.ResolveIndex("set point", i, len(s.Points))
	if err != nil {
		return err
	}
	s.Points[j] = p
	s.UpdateBounds()
	f.e.invalidate()
	return nil
}

// DoesContain reports whether (x, y) lies inside any ring of the shape.
// Shapes without a part array are treated as one ring; NULL shapes contain
// nothing.
func (f *Feature) DoesContain(x, y float64) bool {
	return containsPoint(f.Shape(), x, y)
}

func containsPoint(s *Shape, x, y float64) bool {
	if s.Type == TypeNull || len(s.Points) == 0 {
		return false
	}
	for _, ring := range s.Rings() {
		if geom.PointInPoly(x, y, ring) {
			return true
		}
	}
	return false
}

// Field returns the value of the named column.
func (f *Feature) Field(name string) (interface{}, error) {
	col, err := f.e.schema.MustIndex(name)
	if err != nil {
		return nil, err
	}
	rec := f.Record()
	if rec == nil {
		return nil, &FormatError{Op: "field", Record: f.index + 1, Reason: "feature has no record"}
	}
	return rec[col], nil
}

// SetField stores v in the named column, coerced to the column type.
func (f *Feature) SetField(name string, v interface{}) error {
	col, err := f.e.schema.MustIndex(name)
	if err != nil {
		return err
	}
	rec := f.Record()
	if rec == nil {
		return &FormatError{Op: "set field", Record: f.index + 1, Reason: "feature has no record"}
	}
	cv, err := coerce(f.e.schema.Field(col), v)
	if err != nil {
		return &FormatError{Op: "set field", Record: f.index + 1, Reason: "field " + name, Err: err}
	}
	rec[col] = cv
	return nil
}

// Area returns the summed signed area of the shape's rings. Clockwise rings
// count positive, so holes wound counter-clockwise subtract.
func (f *Feature) Area() float64 {
	s := f.Shape()
	return geom.AreaOf(s.Points, s.Parts)
}

// Length returns the summed length of the shape's parts.
func (f *Feature) Length() float64 {
	s := f.Shape()
	return geom.LengthOf(s.Points, s.Parts)
}

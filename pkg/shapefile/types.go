package shapefile

import (
	"errors"

	"github.com/beetlebugorg/shapefile/internal/codec"
	"github.com/beetlebugorg/shapefile/internal/geom"
)

// Point is a planar coordinate.
type Point = geom.Point

// BBox is an axis-aligned bounding box.
type BBox = geom.BBox

// Shape is one geometry record.
type Shape = codec.Shape

// ShapeType is the geometry tag of a dataset.
type ShapeType = codec.ShapeType

// Record is one attribute row.
type Record = codec.Record

// FieldDescriptor describes one attribute column.
type FieldDescriptor = codec.FieldDescriptor

// FieldType is the dBase column type.
type FieldType = codec.FieldType

// Schema is the compiled list of attribute columns.
type Schema = codec.Schema

// FormatError reports a missing stream, a pack or unpack failure, an index
// out of range, or an incompatible merge.
type FormatError = codec.FormatError

// Shape types.
const (
	TypeNull        = codec.Null
	TypePoint       = codec.Point
	TypePolyLine    = codec.PolyLine
	TypePolygon     = codec.Polygon
	TypeMultiPoint  = codec.MultiPoint
	TypePointZ      = codec.PointZ
	TypePolyLineZ   = codec.PolyLineZ
	TypePolygonZ    = codec.PolygonZ
	TypeMultiPointZ = codec.MultiPointZ
	TypePointM      = codec.PointM
	TypePolyLineM   = codec.PolyLineM
	TypePolygonM    = codec.PolygonM
	TypeMultiPointM = codec.MultiPointM
	TypeMultiPatch  = codec.MultiPatch
)

// Field types.
const (
	Character = codec.Character
	Numeric   = codec.Numeric
	Float     = codec.Float
	Date      = codec.Date
	Logical   = codec.Logical
)

// ErrUnsupportedShapeType is returned by queries that are only defined for
// some geometry families.
var ErrUnsupportedShapeType = errors.New("shapefile: operation not supported for this shape type")

// IsFormatError reports whether err is, or wraps, a *FormatError.
func IsFormatError(err error) bool {
	return codec.IsFormatError(err)
}

// ParseShapeType resolves a shape type name such as "POLYGON".
func ParseShapeType(name string) (ShapeType, error) {
	return codec.ParseShapeType(name)
}

// NewNull returns a NULL placeholder shape.
func NewNull() *Shape {
	return codec.NewNull()
}

// NewPoint returns a single-point shape of type t.
func NewPoint(t ShapeType, x, y, z, m float64) *Shape {
	return codec.NewPoint(t, x, y, z, m)
}

// NewPoly builds a multi-part shape of type t, one point slice per part.
func NewPoly(t ShapeType, parts [][]Point, partTypes []int) *Shape {
	return codec.NewPoly(t, parts, partTypes)
}

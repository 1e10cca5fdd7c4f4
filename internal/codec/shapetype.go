package codec

import (
	"fmt"
	"strings"
)

// ShapeType is the numeric geometry tag stored in file headers and at the
// start of every shape record.
//
// The predicates below switch over every code explicitly so that adding a
// code forces each dispatch to be revisited.
type ShapeType int32

const (
	Null        ShapeType = 0
	Point       ShapeType = 1
	PolyLine    ShapeType = 3
	Polygon     ShapeType = 5
	MultiPoint  ShapeType = 8
	PointZ      ShapeType = 11
	PolyLineZ   ShapeType = 13
	PolygonZ    ShapeType = 15
	MultiPointZ ShapeType = 18
	PointM      ShapeType = 21
	PolyLineM   ShapeType = 23
	PolygonM    ShapeType = 25
	MultiPointM ShapeType = 28
	MultiPatch  ShapeType = 31
)

// ShapeTypes lists every valid code in ascending order.
var ShapeTypes = []ShapeType{
	Null, Point, PolyLine, Polygon, MultiPoint,
	PointZ, PolyLineZ, PolygonZ, MultiPointZ,
	PointM, PolyLineM, PolygonM, MultiPointM,
	MultiPatch,
}

// String returns the conventional upper-case name of the type.
func (t ShapeType) String() string {
	switch t {
	case Null:
		return "NULL"
	case Point:
		return "POINT"
	case PolyLine:
		return "POLYLINE"
	case Polygon:
		return "POLYGON"
	case MultiPoint:
		return "MULTIPOINT"
	case PointZ:
		return "POINTZ"
	case PolyLineZ:
		return "POLYLINEZ"
	case PolygonZ:
		return "POLYGONZ"
	case MultiPointZ:
		return "MULTIPOINTZ"
	case PointM:
		return "POINTM"
	case PolyLineM:
		return "POLYLINEM"
	case PolygonM:
		return "POLYGONM"
	case MultiPointM:
		return "MULTIPOINTM"
	case MultiPatch:
		return "MULTIPATCH"
	default:
		return fmt.Sprintf("ShapeType(%d)", int32(t))
	}
}

// ParseShapeType resolves a name as returned by String (case-insensitive).
func ParseShapeType(name string) (ShapeType, error) {
	for _, t := range ShapeTypes {
		if strings.EqualFold(t.String(), strings.TrimSpace(name)) {
			return t, nil
		}
	}
	return Null, &FormatError{Op: "parse shape type", Reason: fmt.Sprintf("unknown shape type %q", name)}
}

// IsValid reports whether t is one of the fourteen defined codes.
func (t ShapeType) IsValid() bool {
	switch t {
	case Null, Point, PolyLine, Polygon, MultiPoint,
		PointZ, PolyLineZ, PolygonZ, MultiPointZ,
		PointM, PolyLineM, PolygonM, MultiPointM,
		MultiPatch:
		return true
	default:
		return false
	}
}

// IsPointLike reports whether records of this type carry exactly one point
// and no bounding box.
func (t ShapeType) IsPointLike() bool {
	switch t {
	case Point, PointZ, PointM:
		return true
	case Null, PolyLine, Polygon, MultiPoint,
		PolyLineZ, PolygonZ, MultiPointZ,
		PolyLineM, PolygonM, MultiPointM,
		MultiPatch:
		return false
	default:
		return false
	}
}

// HasBox reports whether records of this type start with a bounding box.
func (t ShapeType) HasBox() bool {
	switch t {
	case PolyLine, Polygon, MultiPoint,
		PolyLineZ, PolygonZ, MultiPointZ,
		PolyLineM, PolygonM, MultiPointM,
		MultiPatch:
		return true
	case Null, Point, PointZ, PointM:
		return false
	default:
		return false
	}
}

// HasParts reports whether records of this type carry a part index array.
func (t ShapeType) HasParts() bool {
	switch t {
	case PolyLine, Polygon, PolyLineZ, PolygonZ, PolyLineM, PolygonM, MultiPatch:
		return true
	case Null, Point, MultiPoint, PointZ, MultiPointZ, PointM, MultiPointM:
		return false
	default:
		return false
	}
}

// HasPartTypes reports whether records of this type carry per-part type
// tags (multipatch only).
func (t ShapeType) HasPartTypes() bool {
	return t == MultiPatch
}

// HasPoints reports whether records of this type carry a counted point
// array (as opposed to a single inline point).
func (t ShapeType) HasPoints() bool {
	switch t {
	case PolyLine, Polygon, MultiPoint,
		PolyLineZ, PolygonZ, MultiPointZ,
		PolyLineM, PolygonM, MultiPointM,
		MultiPatch:
		return true
	case Null, Point, PointZ, PointM:
		return false
	default:
		return false
	}
}

// HasZ reports whether records of this type carry elevation values.
func (t ShapeType) HasZ() bool {
	switch t {
	case PointZ, PolyLineZ, PolygonZ, MultiPointZ, MultiPatch:
		return true
	case Null, Point, PolyLine, Polygon, MultiPoint,
		PointM, PolyLineM, PolygonM, MultiPointM:
		return false
	default:
		return false
	}
}

// HasM reports whether records of this type may carry measure values. For
// the Z family (except PointZ) the measure block is optional on disk.
func (t ShapeType) HasM() bool {
	switch t {
	case PointZ, PolyLineZ, PolygonZ, MultiPointZ, MultiPatch,
		PointM, PolyLineM, PolygonM, MultiPointM:
		return true
	case Null, Point, PolyLine, Polygon, MultiPoint:
		return false
	default:
		return false
	}
}

// IsPolygon reports whether the type describes areas.
func (t ShapeType) IsPolygon() bool {
	switch t {
	case Polygon, PolygonZ, PolygonM:
		return true
	default:
		return false
	}
}

// IsMultiPoint reports whether the type is an unordered point set.
func (t ShapeType) IsMultiPoint() bool {
	switch t {
	case MultiPoint, MultiPointZ, MultiPointM:
		return true
	default:
		return false
	}
}

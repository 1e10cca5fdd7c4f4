package codec

import (
	"encoding/binary"
	"math"

	"github.com/beetlebugorg/shapefile/internal/geom"
)

// cursor walks a little-endian record body. The first out-of-bounds read
// latches short and every later read returns zero.
type cursor struct {
	buf   []byte
	off   int
	short bool
}

func (c *cursor) remaining() int {
	return len(c.buf) - c.off
}

func (c *cursor) take(n int) []byte {
	if c.short || n < 0 || c.remaining() < n {
		c.short = true
		return nil
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b
}

func (c *cursor) int32() int32 {
	b := c.take(4)
	if b == nil {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(b))
}

func (c *cursor) float64() float64 {
	b := c.take(8)
	if b == nil {
		return 0
	}
	return leFloat(b)
}

func (c *cursor) floats(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = c.float64()
	}
	return out
}

// decodeShape parses one record body (the bytes after the 8-byte record
// header). record is the 1-based record number used in errors.
func decodeShape(body []byte, record int) (*Shape, error) {
	const op = "read shape"
	c := &cursor{buf: body}
	t := ShapeType(c.int32())
	if c.short {
		return nil, formatErr(op, record, "record body is %d bytes", len(body))
	}
	if !t.IsValid() {
		return nil, formatErr(op, record, "unknown shape type %d", int32(t))
	}
	s := &Shape{Type: t}
	if t == Null {
		return s, nil
	}

	if t.HasBox() {
		s.BBox = geom.BBox{MinX: c.float64(), MinY: c.float64(), MaxX: c.float64(), MaxY: c.float64()}
	}
	var nParts, nPoints int
	if t.HasParts() {
		nParts = int(c.int32())
	}
	if t.HasPoints() {
		nPoints = int(c.int32())
	}
	if c.short {
		return nil, formatErr(op, record, "truncated record header")
	}
	if nParts < 0 || nPoints < 0 {
		return nil, formatErr(op, record, "negative count (parts %d, points %d)", nParts, nPoints)
	}
	if nParts*4 > c.remaining() || nPoints*16 > c.remaining() {
		return nil, formatErr(op, record, "counts (parts %d, points %d) exceed record length %d",
			nParts, nPoints, len(body))
	}

	if t.HasParts() {
		s.Parts = make([]int, nParts)
		for i := range s.Parts {
			s.Parts[i] = int(c.int32())
		}
	}
	if t.HasPartTypes() {
		s.PartTypes = make([]int, nParts)
		for i := range s.PartTypes {
			s.PartTypes[i] = int(c.int32())
		}
	}

	if t.HasPoints() {
		s.Points = make([]geom.Point, nPoints)
		for i := range s.Points {
			s.Points[i] = geom.Point{X: c.float64(), Y: c.float64()}
		}
		if t.HasZ() {
			c.take(16) // z range, recomputed on write
			s.Z = c.floats(nPoints)
		}
		// The Z family may omit the measure block.
		if t.HasM() && (!t.HasZ() || c.remaining() >= 16+8*nPoints) {
			c.take(16)
			s.M = c.floats(nPoints)
		}
	} else {
		s.Points = []geom.Point{{X: c.float64(), Y: c.float64()}}
		if t.HasZ() {
			s.Z = []float64{c.float64()}
		}
		if t.HasM() && (!t.HasZ() || c.remaining() >= 8) {
			s.M = []float64{c.float64()}
		}
		s.UpdateBounds()
	}
	if c.short {
		return nil, formatErr(op, record, "record body of %d bytes is too short for %s with %d points",
			len(body), t, len(s.Points))
	}
	for i, m := range s.M {
		s.M[i] = normalizeM(m)
	}
	return s, nil
}

// encodeShape renders the record body for s. Every shape must be NULL or
// of the file's type. The body always carries the full Z and M blocks its
// type allows; missing M values are written as no-data.
func encodeShape(s *Shape, fileType ShapeType, record int) ([]byte, error) {
	const op = "pack shape"
	if s == nil {
		s = NewNull()
	}
	if s.Type != Null && s.Type != fileType {
		return nil, formatErr(op, record, "shape type %s in a %s file", s.Type, fileType)
	}
	if err := s.Validate(); err != nil {
		fe := err.(*FormatError)
		fe.Op, fe.Record = op, record
		return nil, fe
	}

	t := s.Type
	buf := make([]byte, 0, shapeSize(s))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(int32(t)))
	if t == Null {
		return buf, nil
	}
	n := len(s.Points)

	if t.HasBox() {
		box, _ := geom.BoundsOf(s.Points)
		buf = appendFloats(buf, box.MinX, box.MinY, box.MaxX, box.MaxY)
	}
	if t.HasParts() {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(int32(len(s.Parts))))
	}
	if t.HasPoints() {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(int32(n)))
	}
	if t.HasParts() {
		for _, p := range s.Parts {
			buf = binary.LittleEndian.AppendUint32(buf, uint32(int32(p)))
		}
	}
	if t.HasPartTypes() {
		for _, p := range s.PartTypes {
			buf = binary.LittleEndian.AppendUint32(buf, uint32(int32(p)))
		}
	}

	if t.HasPoints() {
		for _, p := range s.Points {
			buf = appendFloats(buf, p.X, p.Y)
		}
		if t.HasZ() {
			lo, hi := s.ZRange()
			buf = appendFloats(buf, lo, hi)
			for i := 0; i < n; i++ {
				buf = appendFloats(buf, valueAt(s.Z, i, 0))
			}
		}
		if t.HasM() {
			lo, hi := s.MRange()
			buf = appendFloats(buf, lo, hi)
			for i := 0; i < n; i++ {
				buf = appendFloats(buf, encodeM(valueAt(s.M, i, math.NaN())))
			}
		}
		return buf, nil
	}

	p := s.Points[0]
	buf = appendFloats(buf, p.X, p.Y)
	if t.HasZ() {
		buf = appendFloats(buf, valueAt(s.Z, 0, 0))
	}
	if t.HasM() {
		buf = appendFloats(buf, encodeM(valueAt(s.M, 0, math.NaN())))
	}
	return buf, nil
}

// shapeSize is the encoded body length of s in bytes.
func shapeSize(s *Shape) int {
	t := s.Type
	size := 4
	if t == Null {
		return size
	}
	n := len(s.Points)
	if t.HasBox() {
		size += 32
	}
	if t.HasParts() {
		size += 4 + 4*len(s.Parts)
	}
	if t.HasPartTypes() {
		size += 4 * len(s.PartTypes)
	}
	if t.HasPoints() {
		size += 4 + 16*n
		if t.HasZ() {
			size += 16 + 8*n
		}
		if t.HasM() {
			size += 16 + 8*n
		}
		return size
	}
	size += 16
	if t.HasZ() {
		size += 8
	}
	if t.HasM() {
		size += 8
	}
	return size
}

func appendFloats(buf []byte, vs ...float64) []byte {
	for _, v := range vs {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
	}
	return buf
}

func valueAt(vs []float64, i int, def float64) float64 {
	if i < len(vs) {
		return vs[i]
	}
	return def
}

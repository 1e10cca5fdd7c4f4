package codec

import (
	"encoding/binary"
	"math"

	"github.com/beetlebugorg/shapefile/internal/geom"
)

const (
	fileCode      = 9994
	fileVersion   = 1000
	headerSize    = 100
	recordHdrSize = 8
	indexRecSize  = 8
)

// Header is the 100-byte header shared by the geometry and index files.
//
// Layout:
//
//	0   int32 BE  file code (9994)
//	4   5×int32   unused
//	24  int32 BE  file length in 16-bit words
//	28  int32 LE  version (1000)
//	32  int32 LE  shape type
//	36  4×float64 LE  bbox (xmin, ymin, xmax, ymax)
//	68  2×float64 LE  z range
//	84  2×float64 LE  m range
type Header struct {
	FileLength int64 // bytes
	ShapeType  ShapeType
	BBox       geom.BBox
	ZMin, ZMax float64
	MMin, MMax float64
}

func decodeHeader(buf []byte) (Header, error) {
	if len(buf) < headerSize {
		return Header{}, formatErr("read header", 0, "header is %d bytes, want %d", len(buf), headerSize)
	}
	if code := int32(binary.BigEndian.Uint32(buf[0:4])); code != fileCode {
		return Header{}, formatErr("read header", 0, "bad file code %d", code)
	}
	h := Header{
		FileLength: int64(int32(binary.BigEndian.Uint32(buf[24:28]))) * 2,
		ShapeType:  ShapeType(int32(binary.LittleEndian.Uint32(buf[32:36]))),
	}
	if !h.ShapeType.IsValid() {
		return Header{}, formatErr("read header", 0, "unknown shape type %d", int32(h.ShapeType))
	}
	h.BBox = geom.BBox{
		MinX: leFloat(buf[36:]),
		MinY: leFloat(buf[44:]),
		MaxX: leFloat(buf[52:]),
		MaxY: leFloat(buf[60:]),
	}
	h.ZMin, h.ZMax = leFloat(buf[68:]), leFloat(buf[76:])
	h.MMin, h.MMax = leFloat(buf[84:]), leFloat(buf[92:])
	return h, nil
}

func (h Header) encode() []byte {
	buf := make([]byte, headerSize)
	binary.BigEndian.PutUint32(buf[0:4], fileCode)
	binary.BigEndian.PutUint32(buf[24:28], uint32(int32(h.FileLength/2)))
	binary.LittleEndian.PutUint32(buf[28:32], fileVersion)
	binary.LittleEndian.PutUint32(buf[32:36], uint32(int32(h.ShapeType)))
	putLEFloat(buf[36:], h.BBox.MinX)
	putLEFloat(buf[44:], h.BBox.MinY)
	putLEFloat(buf[52:], h.BBox.MaxX)
	putLEFloat(buf[60:], h.BBox.MaxY)
	putLEFloat(buf[68:], h.ZMin)
	putLEFloat(buf[76:], h.ZMax)
	putLEFloat(buf[84:], h.MMin)
	putLEFloat(buf[92:], h.MMax)
	return buf
}

func leFloat(b []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

func putLEFloat(b []byte, v float64) {
	binary.LittleEndian.PutUint64(b, math.Float64bits(v))
}

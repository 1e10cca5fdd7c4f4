package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/text/encoding"

	"github.com/beetlebugorg/shapefile/internal/geom"
)

// WriterOptions configures a Writer.
type WriterOptions struct {
	// Encoding encodes character columns. Nil writes bytes as is.
	Encoding encoding.Encoding
	// CodePage, when set, is written to a .cpg sidecar by Save.
	CodePage string
	// Now supplies the date stamped into the attribute header.
	Now func() time.Time
}

// DefaultWriterOptions returns the default writer configuration.
func DefaultWriterOptions() WriterOptions {
	return WriterOptions{Now: time.Now}
}

// Writer accumulates shapes, fields and records in memory. Nothing touches
// disk until Save or WriteTo.
type Writer struct {
	ShapeType ShapeType
	Shapes    []*Shape
	Schema    *Schema
	Records   []Record

	opts WriterOptions
}

// NewWriter returns an empty writer for shapes of type t.
func NewWriter(t ShapeType, opts WriterOptions) *Writer {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Writer{ShapeType: t, Schema: &Schema{}, opts: opts}
}

// AddShape appends a shape.
func (w *Writer) AddShape(s *Shape) {
	w.Shapes = append(w.Shapes, s)
}

// AddField appends a column to the schema.
func (w *Writer) AddField(f FieldDescriptor) error {
	return w.Schema.Add(f)
}

// AddRecord appends an attribute row.
func (w *Writer) AddRecord(rec Record) {
	w.Records = append(w.Records, rec)
}

// Save writes base.shp, base.shx and base.dbf (plus base.cpg when a code
// page is configured). A known extension on base is ignored. Parent
// directories are created.
func (w *Writer) Save(base string) error {
	base = TrimExt(base)
	if dir := filepath.Dir(base); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	var shp, shx, dbf bytes.Buffer
	if err := w.WriteTo(&shp, &shx, &dbf); err != nil {
		return err
	}
	files := []struct {
		ext  string
		data []byte
	}{
		{"shp", shp.Bytes()},
		{"shx", shx.Bytes()},
		{"dbf", dbf.Bytes()},
	}
	if w.opts.CodePage != "" {
		files = append(files, struct {
			ext  string
			data []byte
		}{"cpg", []byte(w.opts.CodePage)})
	}
	for _, f := range files {
		path := base + "." + f.ext
		if err := os.WriteFile(path, f.data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return nil
}

// WriteTo encodes the dataset onto caller streams. Any stream may be nil to
// skip that file. Every record is encoded before the first byte is written,
// so a packing failure leaves the streams untouched.
func (w *Writer) WriteTo(shp, shx, dbf io.Writer) error {
	if shp != nil || shx != nil {
		body, index, err := w.encodeGeometry()
		if err != nil {
			return err
		}
		if shp != nil {
			if _, err := shp.Write(body); err != nil {
				return fmt.Errorf("failed to write geometry: %w", err)
			}
		}
		if shx != nil {
			if _, err := shx.Write(index); err != nil {
				return fmt.Errorf("failed to write index: %w", err)
			}
		}
	}
	if dbf != nil {
		table, err := w.encodeAttributes()
		if err != nil {
			return err
		}
		if _, err := dbf.Write(table); err != nil {
			return fmt.Errorf("failed to write attributes: %w", err)
		}
	}
	return nil
}

// encodeGeometry builds the geometry and index files. Each body is encoded
// first and then emitted behind its length prefix.
func (w *Writer) encodeGeometry() ([]byte, []byte, error) {
	var records bytes.Buffer
	index := make([]byte, 0, 8*len(w.Shapes))
	offset := int64(headerSize)
	for i, s := range w.Shapes {
		body, err := encodeShape(s, w.ShapeType, i+1)
		if err != nil {
			return nil, nil, err
		}
		words := uint32(len(body) / 2)
		var head [recordHdrSize]byte
		binary.BigEndian.PutUint32(head[0:4], uint32(i+1))
		binary.BigEndian.PutUint32(head[4:8], words)
		records.Write(head[:])
		records.Write(body)

		index = binary.BigEndian.AppendUint32(index, uint32(offset/2))
		index = binary.BigEndian.AppendUint32(index, words)
		offset += int64(recordHdrSize + len(body))
	}

	h := w.header()
	h.FileLength = offset
	shp := append(h.encode(), records.Bytes()...)

	h.FileLength = int64(headerSize + indexRecSize*len(w.Shapes))
	shx := append(h.encode(), index...)
	return shp, shx, nil
}

// header computes the dataset bbox and ranges from the current shapes.
// NULL shapes are skipped; Z defaults to [0,0]; the M range includes 0.
func (w *Writer) header() Header {
	h := Header{ShapeType: w.ShapeType}
	var haveBox, haveZ bool
	for _, s := range w.Shapes {
		if s == nil || s.Type == Null || len(s.Points) == 0 {
			continue
		}
		box, _ := geom.BoundsOf(s.Points)
		if haveBox {
			h.BBox = h.BBox.Union(box)
		} else {
			h.BBox, haveBox = box, true
		}
		if len(s.Z) > 0 {
			lo, hi := s.ZRange()
			if haveZ {
				h.ZMin, h.ZMax = math.Min(h.ZMin, lo), math.Max(h.ZMax, hi)
			} else {
				h.ZMin, h.ZMax, haveZ = lo, hi, true
			}
		}
		lo, hi := s.MRange()
		h.MMin, h.MMax = math.Min(h.MMin, lo), math.Max(h.MMax, hi)
	}
	return h
}

func (w *Writer) encodeAttributes() ([]byte, error) {
	var enc *encoding.Encoder
	if w.opts.Encoding != nil {
		enc = w.opts.Encoding.NewEncoder()
	}
	schema := w.Schema
	if schema == nil {
		schema = &Schema{}
	}
	var buf bytes.Buffer
	buf.Write(encodeDBFHeader(schema, len(w.Records), w.opts.Now()))
	for i, rec := range w.Records {
		row, err := encodeRecord(rec, schema, enc, i+1)
		if err != nil {
			return nil, err
		}
		buf.Write(row)
	}
	return buf.Bytes(), nil
}

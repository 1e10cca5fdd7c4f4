package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// ReaderOptions configures a Reader.
type ReaderOptions struct {
	// Encoding decodes character columns. When nil the reader looks for a
	// .cpg sidecar next to the dataset; without one, bytes are taken as is.
	Encoding encoding.Encoding
}

// DefaultReaderOptions returns the default reader configuration.
func DefaultReaderOptions() ReaderOptions {
	return ReaderOptions{}
}

// Reader decodes a shapefile triple. A Reader created with Open opens the
// files on first access; callers must Close it.
type Reader struct {
	base string
	opts ReaderOptions

	shp, shx, dbf io.ReadSeeker
	closers       []io.Closer
	opened        bool

	header    *Header
	shpSize   int64
	offsets   []int64
	offsetsOK bool

	dbfHeader *dbfHeader
	schema    *Schema
	decoder   *encoding.Decoder
}

// Open returns a Reader for the dataset at path. The extension is optional;
// any of .shp, .shx or .dbf is stripped to find the base name.
func Open(path string, opts ReaderOptions) (*Reader, error) {
	if path == "" {
		return nil, formatErr("open", 0, "empty path")
	}
	return &Reader{base: TrimExt(path), opts: opts}, nil
}

// NewReader wraps already-open streams. shx may be nil, in which case shapes
// are located by a sequential scan. At least one of shp and dbf is required.
func NewReader(shp, shx, dbf io.ReadSeeker, opts ReaderOptions) (*Reader, error) {
	if shp == nil && dbf == nil {
		return nil, formatErr("open", 0, "neither a geometry nor an attribute stream was given")
	}
	r := &Reader{shp: shp, shx: shx, dbf: dbf, opts: opts, opened: true}
	if opts.Encoding != nil {
		r.decoder = opts.Encoding.NewDecoder()
	}
	return r, nil
}

// TrimExt strips a known shapefile extension from path.
func TrimExt(path string) string {
	ext := filepath.Ext(path)
	switch strings.ToLower(ext) {
	case ".shp", ".shx", ".dbf", ".cpg", ".qdt":
		return strings.TrimSuffix(path, ext)
	}
	return path
}

func (r *Reader) ensureOpen() error {
	if r.opened {
		return nil
	}
	r.opened = true
	var err error
	if r.shp, err = r.openSidecar("shp"); err != nil {
		return err
	}
	if r.shx, err = r.openSidecar("shx"); err != nil {
		return err
	}
	if r.dbf, err = r.openSidecar("dbf"); err != nil {
		return err
	}
	if r.shp == nil && r.dbf == nil {
		return formatErr("open", 0, "unable to open %s.shp or %s.dbf", r.base, r.base)
	}
	enc := r.opts.Encoding
	if enc == nil {
		enc = r.codePage()
	}
	if enc != nil {
		r.decoder = enc.NewDecoder()
	}
	return nil
}

// openSidecar opens base.ext, trying the upper-case extension as well. A
// missing file yields a nil stream.
func (r *Reader) openSidecar(ext string) (io.ReadSeeker, error) {
	for _, e := range []string{ext, strings.ToUpper(ext)} {
		f, err := os.Open(r.base + "." + e)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to open %s.%s: %w", r.base, e, err)
		}
		r.closers = append(r.closers, f)
		return f, nil
	}
	return nil, nil
}

// codePage resolves the .cpg sidecar, if any. Unknown names are ignored.
func (r *Reader) codePage() encoding.Encoding {
	data, err := os.ReadFile(r.base + ".cpg")
	if err != nil {
		return nil
	}
	return LookupCodePage(string(data))
}

// LookupCodePage maps a code page name such as "UTF-8" or "CP1252" onto an
// encoding. It returns nil for unknown names and for UTF-8, which needs no
// transcoding.
func LookupCodePage(name string) encoding.Encoding {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "utf-8") || strings.EqualFold(name, "utf8") {
		return nil
	}
	if n, err := ianaindex.IANA.Encoding(name); err == nil && n != nil {
		return n
	}
	if n, err := ianaindex.IANA.Encoding("windows-" + strings.TrimPrefix(strings.ToUpper(name), "CP")); err == nil && n != nil {
		return n
	}
	return nil
}

// Close releases any files opened by the reader.
func (r *Reader) Close() error {
	var errs []error
	for _, c := range r.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

// HasGeometry reports whether a geometry stream is available.
func (r *Reader) HasGeometry() (bool, error) {
	if err := r.ensureOpen(); err != nil {
		return false, err
	}
	return r.shp != nil, nil
}

// HasAttributes reports whether an attribute stream is available.
func (r *Reader) HasAttributes() (bool, error) {
	if err := r.ensureOpen(); err != nil {
		return false, err
	}
	return r.dbf != nil, nil
}

func (r *Reader) geometry(op string) (io.ReadSeeker, error) {
	if err := r.ensureOpen(); err != nil {
		return nil, err
	}
	if r.shp == nil {
		return nil, formatErr(op, 0, "no geometry stream")
	}
	if r.header == nil {
		buf := make([]byte, headerSize)
		if err := readAt(r.shp, 0, buf); err != nil {
			return nil, &FormatError{Op: op, Reason: "read header", Err: err}
		}
		h, err := decodeHeader(buf)
		if err != nil {
			return nil, err
		}
		size, err := streamSize(r.shp)
		if err != nil {
			return nil, fmt.Errorf("failed to measure geometry stream: %w", err)
		}
		r.header, r.shpSize = &h, size
	}
	return r.shp, nil
}

// Header returns the geometry file header.
func (r *Reader) Header() (Header, error) {
	if _, err := r.geometry("read header"); err != nil {
		return Header{}, err
	}
	return *r.header, nil
}

// ShapeType returns the dataset's declared shape type.
func (r *Reader) ShapeType() (ShapeType, error) {
	h, err := r.Header()
	return h.ShapeType, err
}

// loadOffsets reads the index file once. Without one, offsets stays nil.
func (r *Reader) loadOffsets() error {
	if r.offsetsOK || r.shx == nil {
		return nil
	}
	head := make([]byte, headerSize)
	if err := readAt(r.shx, 0, head); err != nil {
		return &FormatError{Op: "read index", Reason: "read header", Err: err}
	}
	length := int64(int32(binary.BigEndian.Uint32(head[24:28]))) * 2
	size, err := streamSize(r.shx)
	if err != nil {
		return fmt.Errorf("failed to measure index stream: %w", err)
	}
	if length < headerSize || length > size {
		return formatErr("read index", 0, "index length %d for a %d byte stream", length, size)
	}
	n := int((length - headerSize) / indexRecSize)
	if _, err := r.shx.Seek(headerSize, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek past index header: %w", err)
	}
	body := make([]byte, n*indexRecSize)
	if _, err := io.ReadFull(r.shx, body); err != nil {
		return &FormatError{Op: "read index", Reason: fmt.Sprintf("%d entries", n), Err: err}
	}
	r.offsets = make([]int64, n)
	for i := range r.offsets {
		r.offsets[i] = int64(int32(binary.BigEndian.Uint32(body[i*indexRecSize:]))) * 2
	}
	r.offsetsOK = true
	return nil
}

// NumShapes returns the number of geometry records. Without an index file
// this scans the whole geometry file.
func (r *Reader) NumShapes() (int, error) {
	if _, err := r.geometry("count shapes"); err != nil {
		return 0, err
	}
	if err := r.loadOffsets(); err != nil {
		return 0, err
	}
	if r.offsetsOK {
		return len(r.offsets), nil
	}
	shapes, err := r.Shapes()
	return len(shapes), err
}

// Shape returns the i-th shape. Negative indices count from the end.
func (r *Reader) Shape(i int) (*Shape, error) {
	shp, err := r.geometry("read shape")
	if err != nil {
		return nil, err
	}
	if err := r.loadOffsets(); err != nil {
		return nil, err
	}
	if !r.offsetsOK {
		shapes, err := r.Shapes()
		if err != nil {
			return nil, err
		}
		j, err := ResolveIndex("read shape", i, len(shapes))
		if err != nil {
			return nil, err
		}
		return shapes[j], nil
	}
	j, err := ResolveIndex("read shape", i, len(r.offsets))
	if err != nil {
		return nil, err
	}
	if off := r.offsets[j]; off < headerSize || off >= r.shpSize {
		return nil, formatErr("read shape", j+1, "offset %d outside a %d byte stream", off, r.shpSize)
	}
	if _, err := shp.Seek(r.offsets[j], io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to shape %d: %w", j, err)
	}
	s, _, err := readShape(shp, j+1, r.shpSize-r.offsets[j])
	return s, err
}

// Shapes decodes every geometry record in file order.
func (r *Reader) Shapes() ([]*Shape, error) {
	shp, err := r.geometry("read shapes")
	if err != nil {
		return nil, err
	}
	if _, err := shp.Seek(headerSize, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek past header: %w", err)
	}
	var shapes []*Shape
	end := min(r.header.FileLength, r.shpSize)
	pos := int64(headerSize)
	for pos < r.header.FileLength {
		s, n, err := readShape(shp, len(shapes)+1, end-pos)
		if errors.Is(err, io.EOF) && n == 0 {
			break
		}
		if err != nil {
			return nil, err
		}
		shapes = append(shapes, s)
		pos += n
	}
	return shapes, nil
}

// readShape reads one record header and body from the current position,
// which has remain bytes left before the end of the data. It returns the
// number of bytes consumed.
func readShape(rd io.Reader, record int, remain int64) (*Shape, int64, error) {
	head := make([]byte, recordHdrSize)
	if n, err := io.ReadFull(rd, head); err != nil {
		if n == 0 && errors.Is(err, io.EOF) {
			return nil, 0, io.EOF
		}
		return nil, int64(n), &FormatError{Op: "read shape", Record: record, Reason: "truncated record header", Err: err}
	}
	length := int64(int32(binary.BigEndian.Uint32(head[4:8]))) * 2
	if length < 4 {
		return nil, recordHdrSize, formatErr("read shape", record, "content length %d bytes", length)
	}
	if length > remain-recordHdrSize {
		return nil, recordHdrSize, formatErr("read shape", record, "content length %d exceeds the %d bytes left", length, max(remain-recordHdrSize, 0))
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(rd, body); err != nil {
		return nil, recordHdrSize, &FormatError{Op: "read shape", Record: record, Reason: "truncated record body", Err: err}
	}
	s, err := decodeShape(body, record)
	return s, recordHdrSize + length, err
}

func (r *Reader) attributes(op string) (io.ReadSeeker, error) {
	if err := r.ensureOpen(); err != nil {
		return nil, err
	}
	if r.dbf == nil {
		return nil, formatErr(op, 0, "no attribute stream")
	}
	if r.dbfHeader == nil {
		head := make([]byte, dbfHeaderSize)
		if err := readAt(r.dbf, 0, head); err != nil {
			return nil, &FormatError{Op: op, Reason: "read dbf header", Err: err}
		}
		h, err := decodeDBFHeader(head)
		if err != nil {
			return nil, err
		}
		desc := make([]byte, h.HeaderLength-dbfHeaderSize)
		if _, err := io.ReadFull(r.dbf, desc); err != nil {
			return nil, &FormatError{Op: op, Reason: "read field descriptors", Err: err}
		}
		s, err := decodeDescriptors(desc)
		if err != nil {
			return nil, err
		}
		if h.RecordLength != s.RecordLength() {
			return nil, formatErr(op, 0, "record length %d does not match fields (%d)", h.RecordLength, s.RecordLength())
		}
		r.dbfHeader, r.schema = &h, s
	}
	return r.dbf, nil
}

// Schema returns the attribute columns.
func (r *Reader) Schema() (*Schema, error) {
	if _, err := r.attributes("read fields"); err != nil {
		return nil, err
	}
	return r.schema, nil
}

// Fields returns the attribute column descriptors.
func (r *Reader) Fields() ([]FieldDescriptor, error) {
	s, err := r.Schema()
	if err != nil {
		return nil, err
	}
	return s.Fields(), nil
}

// NumRecords returns the row count from the attribute header, deleted rows
// included.
func (r *Reader) NumRecords() (int, error) {
	if _, err := r.attributes("count records"); err != nil {
		return 0, err
	}
	return r.dbfHeader.NumRecords, nil
}

// Record returns the i-th attribute row, or nil if the row is deleted.
// Negative indices count from the end.
func (r *Reader) Record(i int) (Record, error) {
	dbf, err := r.attributes("read record")
	if err != nil {
		return nil, err
	}
	j, err := ResolveIndex("read record", i, r.dbfHeader.NumRecords)
	if err != nil {
		return nil, err
	}
	row := make([]byte, r.dbfHeader.RecordLength)
	off := int64(r.dbfHeader.HeaderLength) + int64(j)*int64(r.dbfHeader.RecordLength)
	if err := readAt(dbf, off, row); err != nil {
		return nil, &FormatError{Op: "read record", Record: j + 1, Reason: "truncated row", Err: err}
	}
	return decodeRecord(row, r.schema, r.decoder, j+1)
}

// Records returns every live row, skipping deleted ones.
func (r *Reader) Records() ([]Record, error) {
	all, err := r.AllRecords()
	if err != nil {
		return nil, err
	}
	live := all[:0]
	for _, rec := range all {
		if rec != nil {
			live = append(live, rec)
		}
	}
	return live, nil
}

// AllRecords returns one entry per row in file order, with nil for deleted
// rows, so that positions line up with the geometry records.
func (r *Reader) AllRecords() ([]Record, error) {
	dbf, err := r.attributes("read records")
	if err != nil {
		return nil, err
	}
	h := r.dbfHeader
	size, err := streamSize(dbf)
	if err != nil {
		return nil, fmt.Errorf("failed to measure attribute stream: %w", err)
	}
	if avail := (size - int64(h.HeaderLength)) / int64(h.RecordLength); int64(h.NumRecords) > avail {
		return nil, formatErr("read records", 0, "header claims %d rows but the stream holds %d", h.NumRecords, max(avail, 0))
	}
	if _, err := dbf.Seek(int64(h.HeaderLength), io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to first record: %w", err)
	}
	records := make([]Record, h.NumRecords)
	row := make([]byte, h.RecordLength)
	for i := range records {
		if _, err := io.ReadFull(dbf, row); err != nil {
			return nil, &FormatError{Op: "read records", Record: i + 1, Reason: "truncated row", Err: err}
		}
		if records[i], err = decodeRecord(row, r.schema, r.decoder, i+1); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// streamSize returns the length of rs, leaving its position unchanged.
func streamSize(rs io.Seeker) (int64, error) {
	cur, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	end, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := rs.Seek(cur, io.SeekStart); err != nil {
		return 0, err
	}
	return end, nil
}

func readAt(rs io.ReadSeeker, off int64, buf []byte) error {
	if _, err := rs.Seek(off, io.SeekStart); err != nil {
		return err
	}
	_, err := io.ReadFull(rs, buf)
	return err
}

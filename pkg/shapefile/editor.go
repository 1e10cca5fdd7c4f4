package shapefile

import (
	"fmt"
	"io"

	"github.com/dhconnelly/rtreego"
	"go.uber.org/zap"

	"github.com/beetlebugorg/shapefile/internal/codec"
	"github.com/beetlebugorg/shapefile/internal/geom"
	"github.com/beetlebugorg/shapefile/internal/quadtree"
)

// Editor is an in-memory dataset: one shape type, an ordered list of shapes,
// an attribute schema and one record per shape.
//
// An Editor is not safe for concurrent use. Sub-datasets returned by Select
// and Clip share shapes and records with their parent; edits through one are
// visible through the other, and a geometry edit through either drops the
// spatial indexes of both.
//
// Example:
//
//	e, err := shapefile.Open("parcels.shp", shapefile.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	big, err := e.Select("AREA", ">", 1000)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = big.Save("big_parcels")
type Editor struct {
	shapeType ShapeType
	shapes    []*Shape
	schema    *Schema
	records   []Record

	opts Options
	log  *zap.Logger

	// rev is shared with sub-datasets; indexes built at an older revision
	// are stale.
	rev      *revision
	qtree    *quadtree.Tree
	qtreeRev uint64
	rtree    *rtreego.Rtree
	rtreeRev uint64
}

// revision counts geometry edits to a set of shapes.
type revision struct {
	n uint64
}

// New returns an empty dataset for shapes of type t.
func New(t ShapeType, opts Options) *Editor {
	return &Editor{
		shapeType: t,
		schema:    &Schema{},
		opts:      opts,
		log:       opts.logger(),
		rev:       &revision{},
	}
}

// Open loads the dataset at path (extension optional). Rows marked deleted
// in the attribute file are dropped together with their shapes. A dataset
// without an attribute file loads with an empty schema.
func Open(path string, opts Options) (*Editor, error) {
	r, err := codec.Open(path, opts.readerOptions())
	if err != nil {
		return nil, err
	}
	defer r.Close()

	hasShp, err := r.HasGeometry()
	if err != nil {
		return nil, err
	}
	if !hasShp {
		return nil, formatError("open", "no geometry file for %s", path)
	}
	t, err := r.ShapeType()
	if err != nil {
		return nil, err
	}
	shapes, err := r.Shapes()
	if err != nil {
		return nil, err
	}

	e := New(t, opts)
	var rows []Record
	hasDbf, err := r.HasAttributes()
	if err != nil {
		return nil, err
	}
	if hasDbf {
		if e.schema, err = r.Schema(); err != nil {
			return nil, err
		}
		if rows, err = r.AllRecords(); err != nil {
			return nil, err
		}
	} else {
		e.log.Warn("no attribute file; loading geometry only", zap.String("path", path))
	}

	deleted := 0
	for i, s := range shapes {
		if i < len(rows) && rows[i] == nil {
			deleted++
			continue
		}
		e.shapes = append(e.shapes, s)
		if i < len(rows) {
			e.records = append(e.records, rows[i])
		}
	}
	for i := len(shapes); i < len(rows); i++ {
		if rows[i] == nil {
			deleted++
			continue
		}
		e.records = append(e.records, rows[i])
	}
	if deleted > 0 {
		e.log.Warn("skipped deleted rows", zap.String("path", path), zap.Int("count", deleted))
	}
	e.log.Debug("opened dataset",
		zap.String("path", path),
		zap.Stringer("type", t),
		zap.Int("shapes", len(e.shapes)),
		zap.Int("records", len(e.records)),
		zap.Stringer("fields", e.schema))

	if opts.AutoBalance {
		e.Balance()
	}
	return e, nil
}

func formatError(op, format string, args ...interface{}) *FormatError {
	return &FormatError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// ShapeType returns the dataset's geometry type.
func (e *Editor) ShapeType() ShapeType {
	return e.shapeType
}

// Len returns the number of shapes.
func (e *Editor) Len() int {
	return len(e.shapes)
}

// NumRecords returns the number of attribute rows.
func (e *Editor) NumRecords() int {
	return len(e.records)
}

// Shapes returns the shape list. The slice is shared with the editor.
func (e *Editor) Shapes() []*Shape {
	return e.shapes
}

// Shape returns shape i. Negative indices count from the end.
func (e *Editor) Shape(i int) (*Shape, error) {
	j, err := codec.ResolveIndex("shape", i, len(e.shapes))
	if err != nil {
		return nil, err
	}
	return e.shapes[j], nil
}

// Records returns the attribute rows. The slice is shared with the editor.
func (e *Editor) Records() []Record {
	return e.records
}

// Record returns row i. Negative indices count from the end.
func (e *Editor) Record(i int) (Record, error) {
	j, err := codec.ResolveIndex("record", i, len(e.records))
	if err != nil {
		return nil, err
	}
	return e.records[j], nil
}

// Schema returns the attribute columns.
func (e *Editor) Schema() *Schema {
	return e.schema
}

// Fields returns a copy of the column descriptors.
func (e *Editor) Fields() []FieldDescriptor {
	return e.schema.Fields()
}

// Bounds returns the extent of every non-NULL shape, recomputed from the
// points. An empty dataset has a zero box.
func (e *Editor) Bounds() BBox {
	var out BBox
	have := false
	for _, s := range e.shapes {
		b, ok := geom.BoundsOf(s.Points)
		if !ok || s.Type == TypeNull {
			continue
		}
		if have {
			out = out.Union(b)
		} else {
			out, have = b, true
		}
	}
	return out
}

// Feature returns a view of shape i and its record.
func (e *Editor) Feature(i int) (*Feature, error) {
	j, err := codec.ResolveIndex("feature", i, len(e.shapes))
	if err != nil {
		return nil, err
	}
	return &Feature{e: e, index: j}, nil
}

// invalidate drops the spatial indexes of e and of every dataset sharing
// its shapes after a geometry change.
func (e *Editor) invalidate() {
	if e.qtree != nil {
		e.log.Debug("dropping quadtree after mutation")
	}
	e.rev.n++
	e.qtree = nil
	e.rtree = nil
}

// quadtree returns the attached tree, or nil when there is none or the
// shapes changed since it was built.
func (e *Editor) quadtree() *quadtree.Tree {
	if e.qtree != nil && e.qtreeRev != e.rev.n {
		e.qtree = nil
	}
	return e.qtree
}

func (e *Editor) autoBalance() {
	if e.opts.AutoBalance {
		e.Balance()
	}
}

// Balance pads the shorter of the shape and record lists, with NULL shapes
// or blank records, until both have the same length.
func (e *Editor) Balance() {
	shapes, records := len(e.shapes), len(e.records)
	if shapes == records {
		return
	}
	for len(e.records) < len(e.shapes) {
		e.records = append(e.records, make(Record, e.schema.Len()))
	}
	for len(e.shapes) < len(e.records) {
		e.shapes = append(e.shapes, NewNull())
	}
	e.invalidate()
	e.log.Warn("balanced shapes and records",
		zap.Int("shapes", shapes),
		zap.Int("records", records),
		zap.Int("len", len(e.shapes)))
}

// AddShape appends a shape. Its type must be NULL or the dataset's type.
func (e *Editor) AddShape(s *Shape) error {
	if s == nil {
		s = NewNull()
	}
	if s.Type != TypeNull && s.Type != e.shapeType {
		return formatError("add shape", "shape type %s in a %s dataset", s.Type, e.shapeType)
	}
	if err := s.Validate(); err != nil {
		return err
	}
	e.shapes = append(e.shapes, s)
	e.invalidate()
	e.autoBalance()
	return nil
}

// AddNull appends a NULL placeholder.
func (e *Editor) AddNull() {
	_ = e.AddShape(NewNull())
}

// AddPoint appends a point. The dataset must be of a point-like type; z and
// m are kept only when the type carries them.
func (e *Editor) AddPoint(x, y, z, m float64) error {
	if !e.shapeType.IsPointLike() {
		return fmt.Errorf("add point to %s dataset: %w", e.shapeType, ErrUnsupportedShapeType)
	}
	return e.AddShape(NewPoint(e.shapeType, x, y, z, m))
}

// AddPoly appends a multi-point, line, polygon or multipatch shape with one
// point slice per part.
func (e *Editor) AddPoly(parts [][]Point, partTypes ...int) error {
	if !e.shapeType.HasPoints() {
		return fmt.Errorf("add poly to %s dataset: %w", e.shapeType, ErrUnsupportedShapeType)
	}
	return e.AddShape(NewPoly(e.shapeType, parts, partTypes))
}

// AddRecord appends a row. Missing trailing values are blank; values are
// coerced to their column types.
func (e *Editor) AddRecord(values ...interface{}) error {
	if len(values) > e.schema.Len() {
		return formatError("add record", "%d values for %d fields", len(values), e.schema.Len())
	}
	rec := make(Record, e.schema.Len())
	for i, v := range values {
		cv, err := coerce(e.schema.Field(i), v)
		if err != nil {
			return &FormatError{Op: "add record", Record: len(e.records) + 1, Reason: "field " + e.schema.Field(i).Name, Err: err}
		}
		rec[i] = cv
	}
	e.records = append(e.records, rec)
	e.autoBalance()
	return nil
}

// AddField appends a blank column.
func (e *Editor) AddField(f FieldDescriptor) error {
	if err := e.schema.Add(f); err != nil {
		return err
	}
	for i := range e.records {
		e.records[i] = append(e.records[i], nil)
	}
	return nil
}

// DeleteShape removes shape i and its record.
func (e *Editor) DeleteShape(i int) error {
	j, err := codec.ResolveIndex("delete shape", i, len(e.shapes))
	if err != nil {
		return err
	}
	e.shapes = append(e.shapes[:j:j], e.shapes[j+1:]...)
	if j < len(e.records) {
		e.records = append(e.records[:j:j], e.records[j+1:]...)
	}
	e.invalidate()
	return nil
}

// DeletePart removes part j of shape i together with its points. A shape
// left without points becomes NULL; its record is kept.
func (e *Editor) DeletePart(i, j int) error {
	k, err := codec.ResolveIndex("delete part", i, len(e.shapes))
	if err != nil {
		return err
	}
	if err := e.shapes[k].RemovePart(j); err != nil {
		return err
	}
	e.invalidate()
	return nil
}

// DeletePoint removes point j of shape i, counting across parts. Parts
// left empty are dropped; a shape left without points becomes NULL and its
// record is kept.
func (e *Editor) DeletePoint(i, j int) error {
	k, err := codec.ResolveIndex("delete point", i, len(e.shapes))
	if err != nil {
		return err
	}
	if err := e.shapes[k].RemovePoint(j); err != nil {
		return err
	}
	e.invalidate()
	return nil
}

// subset returns a dataset holding the given shapes and records of e, in
// order. Shapes and records are shared; the schema is copied.
func (e *Editor) subset(indices []int) *Editor {
	sub := New(e.shapeType, e.opts)
	sub.rev = e.rev
	sub.schema = e.schema.Clone()
	sub.shapes = make([]*Shape, 0, len(indices))
	sub.records = make([]Record, 0, len(indices))
	for _, i := range indices {
		sub.shapes = append(sub.shapes, e.shapes[i])
		if i < len(e.records) {
			sub.records = append(sub.records, e.records[i])
		}
	}
	return sub
}

// Clone returns a deep copy.
func (e *Editor) Clone() *Editor {
	c := New(e.shapeType, e.opts)
	c.schema = e.schema.Clone()
	c.shapes = make([]*Shape, len(e.shapes))
	for i, s := range e.shapes {
		c.shapes[i] = s.Clone()
	}
	c.records = make([]Record, len(e.records))
	for i, r := range e.records {
		c.records[i] = r.Clone()
	}
	return c
}

func (e *Editor) writer() (*codec.Writer, error) {
	if len(e.shapes) != len(e.records) {
		return nil, formatError("save", "%d shapes but %d records; call Balance first", len(e.shapes), len(e.records))
	}
	w := codec.NewWriter(e.shapeType, e.opts.writerOptions())
	w.Shapes, w.Schema, w.Records = e.shapes, e.schema, e.records
	return w, nil
}

// Save writes base.shp, base.shx and base.dbf. The three files are written
// one after another; a failure part-way can leave them inconsistent.
func (e *Editor) Save(base string) error {
	w, err := e.writer()
	if err != nil {
		return err
	}
	if err := w.Save(base); err != nil {
		return err
	}
	e.log.Debug("saved dataset", zap.String("base", base), zap.Int("shapes", len(e.shapes)))
	return nil
}

// WriteTo encodes the dataset onto caller streams. Any stream may be nil.
func (e *Editor) WriteTo(shp, shx, dbf io.Writer) error {
	w, err := e.writer()
	if err != nil {
		return err
	}
	return w.WriteTo(shp, shx, dbf)
}

package shapefile

// Merge concatenates a and b into a new dataset, a's features first. Both
// must have the same shape type and schema. Shapes and records are copied,
// so edits to the result leave the inputs untouched; the result takes a's
// options.
func Merge(a, b *Editor) (*Editor, error) {
	if a.shapeType != b.shapeType {
		return nil, formatError("merge", "shape types differ (%s, %s)", a.shapeType, b.shapeType)
	}
	if !a.schema.Equal(b.schema) {
		return nil, formatError("merge", "schemas differ (%s | %s)", a.schema, b.schema)
	}
	m := New(a.shapeType, a.opts)
	m.schema = a.schema.Clone()
	m.shapes = make([]*Shape, 0, len(a.shapes)+len(b.shapes))
	m.records = make([]Record, 0, len(a.records)+len(b.records))
	for _, in := range []*Editor{a, b} {
		for _, s := range in.shapes {
			m.shapes = append(m.shapes, s.Clone())
		}
		for _, r := range in.records {
			m.records = append(m.records, r.Clone())
		}
	}
	return m, nil
}

// MergeWith is Merge(e, other).
func (e *Editor) MergeWith(other *Editor) (*Editor, error) {
	return Merge(e, other)
}

package codec

import (
	"bytes"
	"encoding/binary"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/beetlebugorg/shapefile/internal/geom"
)

var fixedNow = func() time.Time { return time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC) }

func testOptions() WriterOptions {
	opts := DefaultWriterOptions()
	opts.Now = fixedNow
	return opts
}

func square(x, y, size float64) []geom.Point {
	return []geom.Point{{X: x, Y: y}, {X: x, Y: y + size}, {X: x + size, Y: y + size}, {X: x + size, Y: y}, {X: x, Y: y}}
}

func polygonWriter(t *testing.T) *Writer {
	t.Helper()
	w := NewWriter(Polygon, testOptions())
	require.NoError(t, w.AddField(FieldDescriptor{Name: "name", Type: Character, Size: 20}))
	require.NoError(t, w.AddField(FieldDescriptor{Name: "pop", Type: Numeric, Size: 8}))
	require.NoError(t, w.AddField(FieldDescriptor{Name: "ratio", Type: Numeric, Size: 10, Decimal: 3}))
	require.NoError(t, w.AddField(FieldDescriptor{Name: "founded", Type: Date, Size: 8}))
	require.NoError(t, w.AddField(FieldDescriptor{Name: "capital", Type: Logical, Size: 1}))

	w.AddShape(NewPoly(Polygon, [][]geom.Point{square(0, 0, 10)}, nil))
	w.AddShape(NewPoly(Polygon, [][]geom.Point{square(20, 20, 5), square(21, 21, 1)}, nil))
	w.AddShape(NewNull())
	w.AddRecord(Record{"alpha", int64(120), 0.5, time.Date(1901, 2, 3, 0, 0, 0, 0, time.UTC), true})
	w.AddRecord(Record{"beta", int64(-7), 12.125, time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC), false})
	w.AddRecord(Record{"", int64(0), 0.0, nil, nil})
	return w
}

func encode(t *testing.T, w *Writer) (shp, shx, dbf []byte) {
	t.Helper()
	var a, b, c bytes.Buffer
	require.NoError(t, w.WriteTo(&a, &b, &c))
	return a.Bytes(), b.Bytes(), c.Bytes()
}

func readerFor(t *testing.T, shp, shx, dbf []byte) *Reader {
	t.Helper()
	var shxStream *bytes.Reader
	if shx != nil {
		shxStream = bytes.NewReader(shx)
	}
	var r *Reader
	var err error
	if shxStream == nil {
		r, err = NewReader(bytes.NewReader(shp), nil, bytes.NewReader(dbf), DefaultReaderOptions())
	} else {
		r, err = NewReader(bytes.NewReader(shp), shxStream, bytes.NewReader(dbf), DefaultReaderOptions())
	}
	require.NoError(t, err)
	return r
}

func TestRoundTrip(t *testing.T) {
	w := polygonWriter(t)
	shp, shx, dbf := encode(t, w)
	r := readerFor(t, shp, shx, dbf)

	h, err := r.Header()
	require.NoError(t, err)
	assert.Equal(t, Polygon, h.ShapeType)
	assert.Equal(t, int64(len(shp)), h.FileLength)
	assert.Equal(t, geom.BBox{MinX: 0, MinY: 0, MaxX: 25, MaxY: 25}, h.BBox)
	assert.Equal(t, [2]float64{0, 0}, [2]float64{h.ZMin, h.ZMax})

	shapes, err := r.Shapes()
	require.NoError(t, err)
	require.Len(t, shapes, 3)
	for i, want := range w.Shapes {
		got := shapes[i]
		assert.Equal(t, want.Type, got.Type, "shape %d", i)
		assert.Equal(t, want.Points, got.Points, "shape %d", i)
		assert.Equal(t, want.Parts, got.Parts, "shape %d", i)
	}
	assert.Equal(t, []int{0, 5}, shapes[1].Parts)
	assert.Equal(t, geom.BBox{MinX: 20, MinY: 20, MaxX: 25, MaxY: 25}, shapes[1].BBox)

	fields, err := r.Fields()
	require.NoError(t, err)
	require.Len(t, fields, 5)
	assert.Equal(t, "NAME", fields[0].Name)
	assert.Equal(t, FieldDescriptor{Name: "RATIO", Type: Numeric, Size: 10, Decimal: 3}, fields[2])

	records, err := r.Records()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, w.Records[0], records[0])
	assert.Equal(t, w.Records[1], records[1])
	assert.Equal(t, Record{"", int64(0), 0.0, nil, nil}, records[2])
}

func TestSaveIsIdempotent(t *testing.T) {
	w := polygonWriter(t)
	shp1, shx1, dbf1 := encode(t, w)
	shp2, shx2, dbf2 := encode(t, w)
	assert.Equal(t, shp1, shp2)
	assert.Equal(t, shx1, shx2)
	assert.Equal(t, dbf1, dbf2)

	// Reading back and writing again yields the same bytes.
	r := readerFor(t, shp1, shx1, dbf1)
	shapes, err := r.Shapes()
	require.NoError(t, err)
	records, err := r.Records()
	require.NoError(t, err)
	schema, err := r.Schema()
	require.NoError(t, err)
	w2 := NewWriter(Polygon, testOptions())
	w2.Shapes, w2.Records, w2.Schema = shapes, records, schema
	shp3, shx3, dbf3 := encode(t, w2)
	assert.Equal(t, shp1, shp3)
	assert.Equal(t, shx1, shx3)
	assert.Equal(t, dbf1, dbf3)
}

func TestIndexLayout(t *testing.T) {
	w := polygonWriter(t)
	shp, shx, _ := encode(t, w)
	require.Len(t, shx, headerSize+3*indexRecSize)
	assert.Equal(t, uint32((headerSize+3*8)/2), binary.BigEndian.Uint32(shx[24:28]))
	assert.Equal(t, uint32(len(shp)/2), binary.BigEndian.Uint32(shp[24:28]))

	// First record starts right after the header.
	assert.Equal(t, uint32(50), binary.BigEndian.Uint32(shx[100:104]))
	// Each record's offset matches its record-number prefix in the geometry file.
	for i := 0; i < 3; i++ {
		off := int(binary.BigEndian.Uint32(shx[100+8*i:])) * 2
		assert.Equal(t, uint32(i+1), binary.BigEndian.Uint32(shp[off:]))
	}
}

func TestMissingIndexFallsBackToScan(t *testing.T) {
	shp, shx, dbf := encode(t, polygonWriter(t))
	indexed := readerFor(t, shp, shx, dbf)
	sequential := readerFor(t, shp, nil, dbf)

	n, err := sequential.NumShapes()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for _, i := range []int{0, 1, 2, -1, -3} {
		a, err := indexed.Shape(i)
		require.NoError(t, err)
		b, err := sequential.Shape(i)
		require.NoError(t, err)
		assert.Equal(t, a, b, "index %d", i)
	}

	_, err = sequential.Shape(3)
	assert.True(t, IsFormatError(err))
	_, err = indexed.Shape(-4)
	assert.True(t, IsFormatError(err))
}

func TestMissingStreams(t *testing.T) {
	_, err := NewReader(nil, nil, nil, DefaultReaderOptions())
	assert.True(t, IsFormatError(err))

	shp, _, dbf := encode(t, polygonWriter(t))
	onlyShp, err := NewReader(bytes.NewReader(shp), nil, nil, DefaultReaderOptions())
	require.NoError(t, err)
	_, err = onlyShp.Records()
	assert.True(t, IsFormatError(err))

	onlyDbf, err := NewReader(nil, nil, bytes.NewReader(dbf), DefaultReaderOptions())
	require.NoError(t, err)
	_, err = onlyDbf.Shape(0)
	assert.True(t, IsFormatError(err))

	r, err := Open(filepath.Join(t.TempDir(), "absent"), DefaultReaderOptions())
	require.NoError(t, err)
	_, err = r.Shapes()
	assert.True(t, IsFormatError(err))
}

func TestDeletedRows(t *testing.T) {
	shp, shx, dbf := encode(t, polygonWriter(t))
	h, err := decodeDBFHeader(dbf)
	require.NoError(t, err)
	dbf[h.HeaderLength+h.RecordLength] = deletedFlag

	r := readerFor(t, shp, shx, dbf)
	n, err := r.NumRecords()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	rec, err := r.Record(1)
	require.NoError(t, err)
	assert.Nil(t, rec)

	records, err := r.Records()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "alpha", records[0][0])
	assert.Equal(t, "", records[1][0])

	all, err := r.AllRecords()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Nil(t, all[1])

	last, err := r.Record(-1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), last[1])
}

func TestMeasures(t *testing.T) {
	w := NewWriter(PolyLineM, testOptions())
	line := NewPoly(PolyLineM, [][]geom.Point{{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 0}}}, nil)
	line.M = []float64{-3, math.NaN(), 4}
	w.AddShape(line)
	w.AddRecord(Record{})
	shp, shx, dbf := encode(t, w)

	// The unset value is stored as the no-data sentinel.
	body := shp[headerSize+recordHdrSize:]
	mStart := 4 + 32 + 4 + 4 + 4 + 3*16
	assert.Equal(t, -3.0, leFloat(body[mStart:]))
	assert.Equal(t, 4.0, leFloat(body[mStart+8:]))
	assert.Equal(t, noDataValue, leFloat(body[mStart+16+8:]))

	r := readerFor(t, shp, shx, dbf)
	s, err := r.Shape(0)
	require.NoError(t, err)
	require.Len(t, s.M, 3)
	assert.Equal(t, -3.0, s.M[0])
	assert.True(t, math.IsNaN(s.M[1]))
	assert.Equal(t, 4.0, s.M[2])

	h, err := r.Header()
	require.NoError(t, err)
	assert.Equal(t, -3.0, h.MMin)
	assert.Equal(t, 4.0, h.MMax)
}

func TestZShapeWithoutMeasures(t *testing.T) {
	s := NewPoly(PolyLineZ, [][]geom.Point{{{X: 0, Y: 0}, {X: 3, Y: 4}}}, nil)
	s.Z = []float64{7, 9}
	body, err := encodeShape(s, PolyLineZ, 1)
	require.NoError(t, err)

	full, err := decodeShape(body, 1)
	require.NoError(t, err)
	assert.Len(t, full.M, 2)

	trimmed := body[:len(body)-16-8*2]
	short, err := decodeShape(trimmed, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{7, 9}, short.Z)
	assert.Empty(t, short.M)

	p, err := encodeShape(NewPoint(PointZ, 1, 2, 3, 0), PointZ, 1)
	require.NoError(t, err)
	pz, err := decodeShape(p[:len(p)-8], 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{3}, pz.Z)
	assert.Empty(t, pz.M)
}

func TestDecodeShapeRejectsShortBodies(t *testing.T) {
	body, err := encodeShape(NewPoly(Polygon, [][]geom.Point{square(0, 0, 1)}, nil), Polygon, 1)
	require.NoError(t, err)

	for _, n := range []int{0, 3, 20, len(body) - 1} {
		_, err := decodeShape(body[:n], 4)
		require.Error(t, err, "length %d", n)
		var fe *FormatError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, 4, fe.Record)
	}

	bad := append([]byte(nil), body...)
	binary.LittleEndian.PutUint32(bad, 2)
	_, err = decodeShape(bad, 1)
	assert.True(t, IsFormatError(err))
}

func TestPackFailuresNameTheRecord(t *testing.T) {
	t.Run("value too wide", func(t *testing.T) {
		w := NewWriter(Point, testOptions())
		require.NoError(t, w.AddField(FieldDescriptor{Name: "n", Type: Numeric, Size: 3}))
		w.AddShape(NewPoint(Point, 0, 0, 0, 0))
		w.AddShape(NewPoint(Point, 1, 1, 0, 0))
		w.AddRecord(Record{int64(12)})
		w.AddRecord(Record{int64(12345)})

		var shp, shx, dbf bytes.Buffer
		err := w.WriteTo(&shp, &shx, &dbf)
		var fe *FormatError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, 2, fe.Record)
		assert.Zero(t, dbf.Len())
	})

	t.Run("wrong shape type", func(t *testing.T) {
		w := NewWriter(Point, testOptions())
		w.AddShape(NewPoint(Point, 0, 0, 0, 0))
		w.AddShape(NewNull())
		w.AddShape(NewPoly(PolyLine, [][]geom.Point{{{X: 0, Y: 0}, {X: 1, Y: 1}}}, nil))
		err := w.WriteTo(&bytes.Buffer{}, &bytes.Buffer{}, nil)
		var fe *FormatError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, 3, fe.Record)
	})

	t.Run("non-numeric string", func(t *testing.T) {
		w := NewWriter(Point, testOptions())
		require.NoError(t, w.AddField(FieldDescriptor{Name: "n", Type: Float, Size: 8, Decimal: 2}))
		w.AddRecord(Record{"abc"})
		err := w.WriteTo(nil, nil, &bytes.Buffer{})
		assert.True(t, IsFormatError(err))
	})
}

func TestDecodeNumericContent(t *testing.T) {
	integer := FieldDescriptor{Name: "I", Type: Numeric, Size: 6}
	decimal := FieldDescriptor{Name: "D", Type: Numeric, Size: 8, Decimal: 2}

	tests := []struct {
		name  string
		raw   string
		field FieldDescriptor
		want  interface{}
	}{
		{"empty integer", "      ", integer, int64(0)},
		{"empty decimal", "        ", decimal, 0.0},
		{"overflow", "******", integer, nil},
		{"integer", "   -42", integer, int64(-42)},
		{"decimal", "   12.50", decimal, 12.5},
		{"infinity marker", "  1.#INF", decimal, 1.0},
		{"nul padded", "\x00\x00  7\x00", integer, int64(7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeValue([]byte(tt.raw), tt.field, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := decodeValue([]byte("  abc "), integer, nil)
	assert.Error(t, err)
}

func TestDecodeDateAndLogical(t *testing.T) {
	date := FieldDescriptor{Name: "D", Type: Date, Size: 8}
	v, err := decodeValue([]byte("19991231"), date, nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC), v)

	v, err = decodeValue([]byte("not-date"), date, nil)
	require.NoError(t, err)
	assert.Equal(t, "not-date", v)

	logical := FieldDescriptor{Name: "L", Type: Logical, Size: 1}
	for raw, want := range map[string]interface{}{"Y": true, "t": true, "N": false, "f": false, "?": nil, " ": nil} {
		v, err := decodeValue([]byte(raw), logical, nil)
		require.NoError(t, err)
		assert.Equal(t, want, v, "raw %q", raw)
	}
}

func TestSaveAndOpenWithCodePage(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "towns")
	opts := testOptions()
	opts.Encoding = charmap.Windows1252
	opts.CodePage = "CP1252"

	w := NewWriter(Point, opts)
	require.NoError(t, w.AddField(FieldDescriptor{Name: "name", Type: Character, Size: 10}))
	w.AddShape(NewPoint(Point, 2.35, 48.85, 0, 0))
	w.AddRecord(Record{"café"})
	require.NoError(t, w.Save(base+".shp"))

	r, err := Open(base+".SHP", DefaultReaderOptions())
	require.NoError(t, err)
	defer r.Close()

	s, err := r.Shape(0)
	require.NoError(t, err)
	assert.Equal(t, []geom.Point{{X: 2.35, Y: 48.85}}, s.Points)
	assert.Equal(t, geom.BBox{MinX: 2.35, MinY: 48.85, MaxX: 2.35, MaxY: 48.85}, s.BBox)

	rec, err := r.Record(0)
	require.NoError(t, err)
	assert.Equal(t, "café", rec[0])
}

func TestLookupCodePage(t *testing.T) {
	assert.Nil(t, LookupCodePage("UTF-8"))
	assert.Nil(t, LookupCodePage("no-such-page"))
	assert.NotNil(t, LookupCodePage("ISO-8859-1"))
	assert.NotNil(t, LookupCodePage("1252"))
}

func TestDBFHeaderLayout(t *testing.T) {
	_, _, dbf := encode(t, polygonWriter(t))
	assert.Equal(t, byte(3), dbf[0])
	assert.Equal(t, []byte{124, 3, 9}, dbf[1:4])
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(dbf[4:8]))
	assert.Equal(t, uint16(5*32+33), binary.LittleEndian.Uint16(dbf[8:10]))
	assert.Equal(t, uint16(20+8+10+8+1+1), binary.LittleEndian.Uint16(dbf[10:12]))
	assert.Equal(t, byte(dbfTerminator), dbf[5*32+32])
	// Numbers are right-justified, text left-justified.
	row := dbf[5*32+33:]
	assert.Equal(t, "alpha               ", string(row[1:21]))
	assert.Equal(t, "     120", string(row[21:29]))
	assert.Equal(t, "     0.500", string(row[29:39]))
	assert.Equal(t, "19010203T", string(row[39:48]))
}

func TestRowCountBeyondStream(t *testing.T) {
	w := NewWriter(Point, testOptions())
	require.NoError(t, w.AddField(FieldDescriptor{Name: "n", Type: Numeric, Size: 4}))
	var dbf bytes.Buffer
	require.NoError(t, w.WriteTo(nil, nil, &dbf))
	raw := dbf.Bytes()
	require.Len(t, raw, 65)
	binary.LittleEndian.PutUint32(raw[4:8], 1<<26)

	r, err := NewReader(nil, nil, bytes.NewReader(raw), DefaultReaderOptions())
	require.NoError(t, err)
	_, err = r.AllRecords()
	require.Error(t, err)
	assert.True(t, IsFormatError(err))
	_, err = r.Records()
	assert.True(t, IsFormatError(err))
	_, err = r.Record(5)
	assert.True(t, IsFormatError(err))
}

func TestContentLengthBeyondStream(t *testing.T) {
	shp, shx, dbf := encode(t, polygonWriter(t))
	binary.BigEndian.PutUint32(shp[headerSize+4:], 0x3fffffff)

	_, err := readerFor(t, shp, nil, dbf).Shapes()
	require.Error(t, err)
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 1, fe.Record)

	_, err = readerFor(t, shp, shx, dbf).Shape(0)
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 1, fe.Record)
}

func TestIndexLengthBeyondStream(t *testing.T) {
	shp, shx, dbf := encode(t, polygonWriter(t))
	binary.BigEndian.PutUint32(shx[24:28], 0x3fffffff)

	_, err := readerFor(t, shp, shx, dbf).NumShapes()
	assert.True(t, IsFormatError(err))
}

func TestWideDoublesDropDecimals(t *testing.T) {
	f := FieldDescriptor{Name: "V", Type: Float, Size: 19, Decimal: 11}
	tests := []struct {
		v    float64
		want string
	}{
		{1.5, "      1.50000000000"},
		{12345678.5, "12345678.5000000000"},
		{-123456789012345.5, "-123456789012345.50"},
		{1234567890123456789, "1234567890123456768"},
	}
	for _, tt := range tests {
		got, err := encodeValue(tt.v, f, nil)
		require.NoError(t, err, "%v", tt.v)
		assert.Equal(t, tt.want, string(got))
	}

	_, err := encodeValue(1e20, f, nil)
	assert.Error(t, err)

	w := NewWriter(Point, testOptions())
	require.NoError(t, w.AddField(f))
	w.AddShape(NewPoint(Point, 0, 0, 0, 0))
	w.AddRecord(Record{12345678.5})
	shp, shx, dbf := encode(t, w)
	rec, err := readerFor(t, shp, shx, dbf).Record(0)
	require.NoError(t, err)
	assert.Equal(t, Record{12345678.5}, rec)
}

func TestTruncationKeepsWholeRunes(t *testing.T) {
	f := FieldDescriptor{Name: "S", Type: Character, Size: 4}
	got, err := encodeValue("abcé", f, nil)
	require.NoError(t, err)
	assert.Equal(t, "abc ", string(got))

	got, err = encodeValue("日本", f, nil)
	require.NoError(t, err)
	assert.Equal(t, "日 ", string(got))

	got, err = encodeValue("abcd", f, nil)
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(got))

	got, err = encodeValue("abcé", f, charmap.Windows1252.NewEncoder())
	require.NoError(t, err)
	assert.Equal(t, []byte{'a', 'b', 'c', 0xE9}, got)
}

func TestRemovePart(t *testing.T) {
	s := NewPoly(PolygonZ, [][]geom.Point{square(0, 0, 10), square(20, 20, 5)}, nil)
	for i := range s.Z {
		s.Z[i] = float64(i)
	}

	require.NoError(t, s.RemovePart(0))
	assert.Equal(t, square(20, 20, 5), s.Points)
	assert.Equal(t, []int{0}, s.Parts)
	assert.Equal(t, []float64{5, 6, 7, 8, 9}, s.Z)
	assert.Equal(t, geom.BBox{MinX: 20, MinY: 20, MaxX: 25, MaxY: 25}, s.BBox)
	require.NoError(t, s.Validate())

	assert.Error(t, s.RemovePart(1))
	require.NoError(t, s.RemovePart(-1))
	assert.Equal(t, Null, s.Type)
	assert.Empty(t, s.Points)
	assert.Error(t, s.RemovePart(0))

	assert.Error(t, NewPoint(Point, 1, 1, 0, 0).RemovePart(0))
}

func TestRemovePoint(t *testing.T) {
	line := NewPoly(PolyLine, [][]geom.Point{{{X: 0, Y: 0}, {X: 1, Y: 1}}, {{X: 5, Y: 5}}}, nil)
	require.NoError(t, line.RemovePoint(2))
	assert.Equal(t, []int{0}, line.Parts, "emptied part is dropped")
	assert.Equal(t, geom.BBox{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1}, line.BBox)
	require.NoError(t, line.RemovePoint(0))
	assert.Equal(t, []geom.Point{{X: 1, Y: 1}}, line.Points)
	assert.Equal(t, []int{0}, line.Parts)

	patch := NewPoly(MultiPatch, [][]geom.Point{{{X: 0, Y: 0}}, {{X: 1, Y: 1}, {X: 2, Y: 2}}}, []int{0, 1})
	require.NoError(t, patch.RemovePoint(0))
	assert.Equal(t, []int{0}, patch.Parts)
	assert.Equal(t, []int{1}, patch.PartTypes)
	assert.Len(t, patch.Z, 2)
	require.NoError(t, patch.Validate())

	p := NewPoint(PointM, 3, 4, 0, 7)
	require.NoError(t, p.RemovePoint(0))
	assert.Equal(t, Null, p.Type)
	assert.Error(t, p.RemovePoint(0))
}

package shapefile

import (
	"bytes"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureGeometry(t *testing.T) {
	e := parcels(t)
	f, err := e.Feature(0)
	require.NoError(t, err)

	assert.Equal(t, 5, f.Len())
	assert.InDelta(t, 100.0, f.Area(), 1e-12)
	assert.InDelta(t, 40.0, f.Length(), 1e-12)
	assert.True(t, f.DoesContain(5, 5))
	assert.False(t, f.DoesContain(15, 5))

	p, err := f.Point(-2)
	require.NoError(t, err)
	assert.Equal(t, Point{X: 10, Y: 0}, p)
	_, err = f.Point(5)
	assert.Error(t, err)

	require.NoError(t, f.SetPoint(2, Point{X: 30, Y: 12}))
	assert.Equal(t, BBox{MinX: 0, MinY: 0, MaxX: 30, MaxY: 12}, f.BBox())
}

func TestFeatureFields(t *testing.T) {
	e := parcels(t)
	f, err := e.Feature(1)
	require.NoError(t, err)

	v, err := f.Field("name")
	require.NoError(t, err)
	assert.Equal(t, "b", v)

	require.NoError(t, f.SetField("AREA", "26"))
	v, err = f.Field("AREA")
	require.NoError(t, err)
	assert.Equal(t, int64(26), v)

	_, err = f.Field("NOPE")
	assert.Error(t, err)
	assert.Error(t, f.SetField("AREA", struct{}{}))

	null, err := New(TypePoint, testOptions()).Feature(0)
	assert.Nil(t, null)
	assert.Error(t, err)
}

func TestNullFeatureContainsNothing(t *testing.T) {
	e := New(TypePolygon, testOptions())
	e.AddNull()
	f, err := e.Feature(0)
	require.NoError(t, err)
	assert.False(t, f.DoesContain(0, 0))
	assert.Equal(t, 0.0, f.Area())
}

func TestAppendField(t *testing.T) {
	e := parcels(t)

	require.NoError(t, e.AppendField("AREA2", FieldDouble, func(i int) interface{} {
		f, _ := e.Feature(i)
		return f.Area()
	}))
	require.NoError(t, e.AppendField("RANK", FieldInt, func(i int) interface{} {
		return float64(i) + 0.6
	}))

	assert.Equal(t, FieldDescriptor{Name: "AREA2", Type: Float, Size: 19, Decimal: 11}, e.Fields()[2])
	assert.Equal(t, FieldDescriptor{Name: "RANK", Type: Numeric, Size: 6}, e.Fields()[3])
	assert.Equal(t, Record{"b", int64(25), 25.0, int64(2)}, e.Records()[1])

	err := e.AppendField("BAD", FieldInt, func(int) interface{} { return "abc" })
	require.Error(t, err)
	assert.Equal(t, 4, e.Schema().Len(), "failed append leaves the schema alone")
	assert.Len(t, e.Records()[0], 4)

	assert.Error(t, e.AppendField("RANK", FieldInt, func(int) interface{} { return 1 }))

	base := filepath.Join(t.TempDir(), "appended")
	require.NoError(t, e.Save(base))
	back, err := Open(base, testOptions())
	require.NoError(t, err)
	assert.Equal(t, Record{"c", int64(4), 4.0, int64(3)}, back.Records()[2])
}

func TestAppendLargeDoubles(t *testing.T) {
	e := parcels(t)
	values := []float64{12345678.5, -98765432.25, 1e15}
	require.NoError(t, e.AppendField("BIG", FieldDouble, func(i int) interface{} { return values[i] }))

	var shp, shx, dbf bytes.Buffer
	require.NoError(t, e.WriteTo(&shp, &shx, &dbf))

	base := filepath.Join(t.TempDir(), "big")
	require.NoError(t, e.Save(base))
	back, err := Open(base, testOptions())
	require.NoError(t, err)
	col, err := back.Schema().MustIndex("BIG")
	require.NoError(t, err)
	for i, want := range values {
		assert.Equal(t, want, back.Records()[i][col], "row %d", i)
	}

	require.NoError(t, e.SetField("BIG", func(int) interface{} { return 1e25 }))
	assert.Error(t, e.WriteTo(&shp, &shx, &dbf), "integer part wider than the column")
}

func TestSetField(t *testing.T) {
	e := parcels(t)
	require.NoError(t, e.SetField("NAME", func(i int) interface{} { return fmt.Sprintf("n%d", i) }))
	assert.Equal(t, []string{"n0", "n1", "n2"}, names(t, e))

	assert.Error(t, e.SetField("MISSING", func(int) interface{} { return nil }))
	assert.Error(t, e.SetField("AREA", func(int) interface{} { return "x" }))
}

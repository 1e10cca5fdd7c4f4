package shapefile

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lines(t *testing.T) *Editor {
	t.Helper()
	e := New(TypePolyLine, DefaultOptions())
	require.NoError(t, e.AddPoly([][]Point{{{X: 0, Y: 0}, {X: 1, Y: 2}}}))
	require.NoError(t, e.AddPoly([][]Point{{{X: 3, Y: 4}}, {{X: 5.5, Y: -6.25}}}))
	return e
}

func TestExportText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, lines(t).ExportText(&buf))
	assert.Equal(t,
		"0.000000 0.000000\n1.000000 2.000000\n\n3.000000 4.000000\n5.500000 -6.250000\n",
		buf.String())
}

func TestLoadText(t *testing.T) {
	e := lines(t)
	e.BuildQuadtree()
	in := "\n10 11\n12 13 extra\n\n\n14 15\n16.5 17.5\n"
	require.NoError(t, e.LoadText(strings.NewReader(in)))

	assert.Equal(t, []Point{{X: 10, Y: 11}, {X: 12, Y: 13}}, e.Shapes()[0].Points)
	assert.Equal(t, []Point{{X: 14, Y: 15}, {X: 16.5, Y: 17.5}}, e.Shapes()[1].Points)
	assert.Equal(t, BBox{MinX: 14, MinY: 15, MaxX: 16.5, MaxY: 17.5}, e.Shapes()[1].BBox)
	assert.Equal(t, []int{0, 1}, e.Shapes()[1].Parts)
	assert.False(t, e.HasQuadtree())
}

func TestTextRoundTrip(t *testing.T) {
	e := lines(t)
	var buf bytes.Buffer
	require.NoError(t, e.ExportText(&buf))

	c := e.Clone()
	require.NoError(t, c.StretchExtent(BBox{MinX: -1, MinY: -1, MaxX: 1, MaxY: 1}))
	require.NoError(t, c.LoadText(&buf))
	for i, s := range e.Shapes() {
		assert.Equal(t, s.Points, c.Shapes()[i].Points)
	}
}

func TestLoadTextErrors(t *testing.T) {
	err := lines(t).LoadText(strings.NewReader("1 2\n3 4\n5 6\n"))
	require.Error(t, err)
	assert.True(t, IsFormatError(err))

	err = lines(t).LoadText(strings.NewReader("1 2\nx y\n"))
	require.Error(t, err)
	assert.True(t, IsFormatError(err))

	err = lines(t).LoadText(strings.NewReader("1\n"))
	require.Error(t, err)
	assert.True(t, IsFormatError(err))
}

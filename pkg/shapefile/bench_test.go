package shapefile

import (
	"math/rand"
	"testing"
)

// largeDataset spreads n small squares over a 1000x1000 extent.
func largeDataset(b *testing.B, n int) *Editor {
	b.Helper()
	rng := rand.New(rand.NewSource(1))
	e := New(TypePolygon, DefaultOptions())
	for i := 0; i < n; i++ {
		if err := e.AddPoly([][]Point{square(rng.Float64()*995, rng.Float64()*995, 5)}); err != nil {
			b.Fatal(err)
		}
	}
	return e
}

// BenchmarkClip_SmallViewport measures bbox queries through the R-tree.
func BenchmarkClip_SmallViewport(b *testing.B) {
	e := largeDataset(b, 10000)
	viewport := BBox{MinX: 100, MinY: 100, MaxX: 200, MaxY: 200}
	_ = e.Clip(viewport) // build the index outside the timer

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = e.Clip(viewport)
	}
}

func BenchmarkClip_LargeViewport(b *testing.B) {
	e := largeDataset(b, 10000)
	viewport := BBox{MinX: 0, MinY: 0, MaxX: 500, MaxY: 500}
	_ = e.Clip(viewport)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = e.Clip(viewport)
	}
}

// BenchmarkContains_Quadtree and BenchmarkContains_Linear compare point
// queries with and without the quadtree.
func BenchmarkContains_Quadtree(b *testing.B) {
	e := largeDataset(b, 10000)
	e.BuildQuadtree()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = e.IndexOfFirstFeatureContainingPoint(float64(i%1000), float64((i*7)%1000))
	}
}

func BenchmarkContains_Linear(b *testing.B) {
	e := largeDataset(b, 10000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = e.IndexOfFirstFeatureContainingPoint(float64(i%1000), float64((i*7)%1000))
	}
}

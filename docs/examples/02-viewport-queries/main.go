package main

import (
	"fmt"
	"log"

	"github.com/beetlebugorg/shapefile/pkg/shapefile"
)

func main() {
	e, err := shapefile.Open("harbor.shp", shapefile.DefaultOptions())
	if err != nil {
		log.Fatal(err)
	}

	// Define viewport (Boston Harbor area)
	viewport := shapefile.BBox{
		MinX: -71.1, MaxX: -71.0,
		MinY: 42.3, MaxY: 42.4,
	}

	// Query R-tree index for visible features
	features := e.FeaturesInBounds(viewport)
	fmt.Printf("Visible features: %d\n", len(features))
	for _, f := range features {
		fmt.Printf("  #%d: %d points\n", f.Index(), f.Len())
	}

	// Or write them out as a new dataset
	if err := e.Clip(viewport).Save("harbor_viewport"); err != nil {
		log.Fatal(err)
	}
}

package main

import (
	"fmt"
	"log"

	"github.com/beetlebugorg/shapefile/pkg/shapefile"
)

func main() {
	// Open dataset (parcels.shp, parcels.shx, parcels.dbf)
	e, err := shapefile.Open("parcels.shp", shapefile.DefaultOptions())
	if err != nil {
		log.Fatal(err)
	}

	// Print dataset info
	fmt.Printf("Type: %s\n", e.ShapeType())
	fmt.Printf("Shapes: %d\n", e.Len())
	fmt.Printf("Fields: %s\n", e.Schema())

	// Get dataset bounds
	bounds := e.Bounds()
	fmt.Printf("Bounds: [%.4f,%.4f] to [%.4f,%.4f]\n",
		bounds.MinX, bounds.MinY,
		bounds.MaxX, bounds.MaxY)
}

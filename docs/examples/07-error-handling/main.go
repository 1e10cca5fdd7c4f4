package main

import (
	"errors"
	"fmt"
	"log"

	"github.com/beetlebugorg/shapefile/pkg/shapefile"
)

func safeOpen(path string) (*shapefile.Editor, error) {
	e, err := shapefile.Open(path, shapefile.DefaultOptions())
	if err != nil {
		// Structural problems carry the operation and record number
		var fe *shapefile.FormatError
		if errors.As(err, &fe) {
			log.Printf("Malformed %s: op=%s record=%d: %s", path, fe.Op, fe.Record, fe.Reason)
		}
		return nil, err
	}

	if e.Len() == 0 {
		log.Printf("Warning: %s contains no shapes", path)
	}
	return e, nil
}

func main() {
	e, err := safeOpen("parcels.shp")
	if err != nil {
		log.Printf("Error: %v", err)
		return
	}
	fmt.Printf("Loaded %d shapes\n", e.Len())

	// Point queries are only defined for point datasets
	if _, err := e.IndexOfClosestFeature(0, 0); errors.Is(err, shapefile.ErrUnsupportedShapeType) {
		log.Printf("Expected error: %v", err)
	}

	// Missing dataset
	if _, err := safeOpen("NONEXISTENT.shp"); err != nil {
		log.Printf("Expected error: %v", err)
	}
}

package main

import (
	"fmt"
	"log"

	"github.com/beetlebugorg/shapefile/pkg/shapefile"
)

func main() {
	e, err := shapefile.Open("parcels.shp", shapefile.DefaultOptions())
	if err != nil {
		log.Fatal(err)
	}

	// Parcels larger than one hectare
	large, err := e.Select("AREA", ">", 10000)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Large parcels: %d\n", large.Len())

	// Same query as a command string
	small, err := e.Exec("select * where AREA < 500")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Small parcels: %d\n", small.Len())

	// Tag the large ones in place
	if _, err := e.Exec("set ZONE = 2 where AREA > 10000"); err != nil {
		log.Fatal(err)
	}
	if err := e.Save("parcels_zoned"); err != nil {
		log.Fatal(err)
	}
}

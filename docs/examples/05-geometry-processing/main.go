package main

import (
	"fmt"
	"log"

	"github.com/beetlebugorg/shapefile/pkg/shapefile"
)

func main() {
	e, err := shapefile.Open("lakes.shp", shapefile.DefaultOptions())
	if err != nil {
		log.Fatal(err)
	}

	// Project lon/lat to Web Mercator so areas come out in square metres
	if err := e.Reproject("EPSG:4326", "EPSG:3857"); err != nil {
		log.Fatal(err)
	}

	for i := 0; i < e.Len(); i++ {
		f, _ := e.Feature(i)
		fmt.Printf("Lake %d: area %.0f m², shoreline %.0f m\n", i, f.Area(), f.Length())
	}

	// Point queries through the quadtree
	e.BuildQuadtree()
	x, y := -7910000.0, 5215000.0
	if i, d := e.DistanceToBoundary(x, y); i >= 0 {
		fmt.Printf("Point is in lake %d, %.1f m from shore\n", i, d)
	}
	if err := e.SaveQuadtree("lakes_3857"); err != nil {
		log.Fatal(err)
	}
	if err := e.Save("lakes_3857"); err != nil {
		log.Fatal(err)
	}
}

package main

import (
	"fmt"
	"log"
	"time"

	"github.com/beetlebugorg/shapefile/pkg/shapefile"
)

func main() {
	e := shapefile.New(shapefile.TypePoint, shapefile.DefaultOptions())

	// Define the attribute table
	fields := []shapefile.FieldDescriptor{
		{Name: "NAME", Type: shapefile.Character, Size: 32},
		{Name: "POP", Type: shapefile.Numeric, Size: 9},
		{Name: "FOUNDED", Type: shapefile.Date, Size: 8},
		{Name: "CAPITAL", Type: shapefile.Logical, Size: 1},
	}
	for _, f := range fields {
		if err := e.AddField(f); err != nil {
			log.Fatal(err)
		}
	}

	// AddPoint pads a blank record; fill it through the feature
	cities := []struct {
		name     string
		lon, lat float64
		pop      int
		founded  time.Time
		capital  bool
	}{
		{"Boston", -71.06, 42.36, 650706, time.Date(1630, 9, 17, 0, 0, 0, 0, time.UTC), true},
		{"Worcester", -71.80, 42.26, 206518, time.Date(1722, 6, 14, 0, 0, 0, 0, time.UTC), false},
	}
	for i, c := range cities {
		if err := e.AddPoint(c.lon, c.lat, 0, 0); err != nil {
			log.Fatal(err)
		}
		f, _ := e.Feature(i)
		f.SetField("NAME", c.name)
		f.SetField("POP", c.pop)
		f.SetField("FOUNDED", c.founded)
		f.SetField("CAPITAL", c.capital)
	}

	// Derived column computed per feature
	err := e.AppendField("LON", shapefile.FieldDouble, func(i int) interface{} {
		s, _ := e.Shape(i)
		return s.Points[0].X
	})
	if err != nil {
		log.Fatal(err)
	}

	for i := 0; i < e.Len(); i++ {
		f, _ := e.Feature(i)
		name, _ := f.Field("NAME")
		pop, _ := f.Field("POP")
		fmt.Printf("%s: %v\n", name, pop)
	}

	if err := e.Save("cities"); err != nil {
		log.Fatal(err)
	}
}

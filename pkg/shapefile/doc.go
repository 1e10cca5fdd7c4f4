// Package shapefile reads, edits and writes ESRI shapefile datasets.
//
// A dataset is three sibling files sharing a base name: the geometry file
// (.shp), its offset index (.shx) and a dBase III attribute table (.dbf).
// An optional .cpg sidecar names the attribute code page, and a .qdt file
// can hold a serialised quadtree for point queries.
//
// # Opening and saving
//
//	e, err := shapefile.Open("roads", shapefile.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(e.ShapeType(), e.Len(), e.Fields())
//	err = e.Save("roads_copy")
//
// Saving writes all three files; reading tolerates a missing .shx (records
// are scanned sequentially) and a missing .dbf (empty schema).
//
// # Editing
//
// Shapes and records are kept in two parallel lists. With
// Options.AutoBalance (the default) every mutation helper pads the shorter
// list so they stay aligned; Save refuses unbalanced datasets.
//
//	e := shapefile.New(shapefile.TypePoint, shapefile.DefaultOptions())
//	e.AddField(shapefile.FieldDescriptor{Name: "NAME", Type: shapefile.Character, Size: 32})
//	e.AddPoint(-71.06, 42.36, 0, 0)
//	e.AddRecord("Boston")
//
// # Queries
//
// Select, Set and Exec filter on numeric attribute comparisons. Clip and
// FeaturesInBounds filter on bounding boxes through an R-tree.
// IndexOfFirstFeatureContainingPoint, IndexOfClosestFeature and
// DistanceToBoundary answer point queries, using a quadtree when one has
// been built or loaded.
//
// # Transforms
//
// Reproject converts coordinates between a small set of EPSG systems.
// StretchExtent rescales a dataset onto a target box. ExportText and
// LoadText round-trip raw coordinates through a plain text form.
//
// # Multiple files
//
// OpenAll loads many datasets concurrently and Cache keeps opened datasets
// under an LRU memory bound.
package shapefile

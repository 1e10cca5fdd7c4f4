package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/beetlebugorg/shapefile/pkg/shapefile"
)

func main() {
	paths, err := filepath.Glob("tiles/*.shp")
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load all tiles concurrently
	opts := shapefile.DefaultLoadOptions()
	opts.Options.Logger = logger
	opts.ErrorLog = os.Stderr
	opts.Progress = func(loaded, total int) {
		fmt.Printf("\rLoading: %d/%d", loaded, total)
	}
	tiles, errs := shapefile.OpenAll(context.Background(), paths, opts)
	fmt.Printf("\nLoaded %d tiles, skipped %d\n", len(tiles), len(errs))

	// Keep recently used datasets in a 256MB cache
	cache := shapefile.NewCache(256 << 20)
	for _, path := range paths {
		e, err := cache.Get(path, func() (*shapefile.Editor, error) {
			return shapefile.Open(path, opts.Options)
		})
		if err != nil {
			continue
		}
		fmt.Printf("%s: %d shapes\n", filepath.Base(path), e.Len())
	}
	stats := cache.Stats()
	fmt.Printf("Cache: %d datasets, %d bytes\n", stats.Datasets, stats.UsedMemory)
}

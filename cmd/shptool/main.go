// Command shptool inspects and edits shapefile datasets.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/beetlebugorg/shapefile/pkg/shapefile"
)

var (
	verbose bool
	workers int
	output  string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "shptool",
	Short: "Inspect, query and rewrite ESRI shapefiles",
	Long: `shptool reads .shp/.shx/.dbf datasets, runs attribute and spatial
queries against them and writes the results back as new datasets.

Paths may be given with or without the .shp extension.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if verbose {
			logger, err = zap.NewDevelopment()
		} else {
			config := zap.NewProductionConfig()
			config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
			logger, err = config.Build()
		}
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "Files opened concurrently (default: number of CPUs)")

	for _, c := range []*cobra.Command{selectCmd, execCmd, clipCmd, mergeCmd, reprojectCmd, stretchCmd} {
		c.Flags().StringVarP(&output, "out", "o", "", "Output dataset base path")
		_ = c.MarkFlagRequired("out")
	}
	reprojectCmd.Flags().StringVar(&fromCRS, "from", "EPSG:4326", "Source CRS")
	reprojectCmd.Flags().StringVar(&toCRS, "to", "EPSG:3857", "Target CRS")
	locateCmd.Flags().BoolVar(&useQuadtree, "quadtree", false, "Use (or build) the .qdt index next to the dataset")

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(clipCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(reprojectCmd)
	rootCmd.AddCommand(stretchCmd)
	rootCmd.AddCommand(quadtreeCmd)
	rootCmd.AddCommand(locateCmd)
	rootCmd.AddCommand(exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func options() shapefile.Options {
	opts := shapefile.DefaultOptions()
	if logger != nil {
		opts.Logger = logger
	}
	return opts
}

func open(path string) (*shapefile.Editor, error) {
	return shapefile.Open(path, options())
}

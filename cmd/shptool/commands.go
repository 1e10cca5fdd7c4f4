package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/beetlebugorg/shapefile/pkg/shapefile"
)

var (
	fromCRS     string
	toCRS       string
	useQuadtree bool
)

var infoCmd = &cobra.Command{
	Use:   "info PATH...",
	Short: "Print shape type, counts, extent and fields",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runInfo,
}

var selectCmd = &cobra.Command{
	Use:   "select PATH FIELD OP VALUE",
	Short: "Write the features whose numeric FIELD compares true against VALUE",
	Args:  cobra.ExactArgs(4),
	RunE:  runSelect,
}

var execCmd = &cobra.Command{
	Use:   "exec PATH COMMAND",
	Short: `Run "select * where F OP V" or "set F = V where F OP V"`,
	Args:  cobra.ExactArgs(2),
	RunE:  runExec,
}

var clipCmd = &cobra.Command{
	Use:   "clip PATH MINX MINY MAXX MAXY",
	Short: "Write the features whose bounding boxes touch the given box",
	Args:  cobra.ExactArgs(5),
	RunE:  runClip,
}

var mergeCmd = &cobra.Command{
	Use:   "merge PATH PATH...",
	Short: "Concatenate datasets with identical shape type and fields",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runMerge,
}

var reprojectCmd = &cobra.Command{
	Use:   "reproject PATH",
	Short: "Convert coordinates between EPSG:4326, 3857, 3395 and 4087",
	Args:  cobra.ExactArgs(1),
	RunE:  runReproject,
}

var stretchCmd = &cobra.Command{
	Use:   "stretch PATH MINX MINY MAXX MAXY",
	Short: "Rescale the dataset onto the given extent",
	Args:  cobra.ExactArgs(5),
	RunE:  runStretch,
}

var quadtreeCmd = &cobra.Command{
	Use:   "quadtree PATH",
	Short: "Build the point-query index and save it as PATH.qdt",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuadtree,
}

var locateCmd = &cobra.Command{
	Use:   "locate PATH X Y",
	Short: "Report the feature containing, or for points closest to, (X, Y)",
	Args:  cobra.ExactArgs(3),
	RunE:  runLocate,
}

var exportCmd = &cobra.Command{
	Use:   "export PATH",
	Short: "Print every vertex as an \"x y\" line",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func runInfo(cmd *cobra.Command, args []string) error {
	opts := shapefile.DefaultLoadOptions()
	opts.Options = options()
	opts.SkipErrors = false
	if workers > 0 {
		opts.Workers = workers
	}
	editors, errs := shapefile.OpenAll(context.Background(), args, opts)
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	out := cmd.OutOrStdout()
	for i, e := range editors {
		b := e.Bounds()
		fmt.Fprintf(out, "%s\n", args[i])
		fmt.Fprintf(out, "  type:    %s\n", e.ShapeType())
		fmt.Fprintf(out, "  shapes:  %d\n", e.Len())
		fmt.Fprintf(out, "  records: %d\n", e.NumRecords())
		fmt.Fprintf(out, "  extent:  %g %g %g %g\n", b.MinX, b.MinY, b.MaxX, b.MaxY)
		for _, f := range e.Fields() {
			fmt.Fprintf(out, "  field:   %-10s %s %d.%d\n", f.Name, f.Type, f.Size, f.Decimal)
		}
	}
	return nil
}

func runSelect(cmd *cobra.Command, args []string) error {
	e, err := open(args[0])
	if err != nil {
		return err
	}
	standard, err := strconv.ParseFloat(args[3], 64)
	if err != nil {
		return fmt.Errorf("invalid comparison value %q: %w", args[3], err)
	}
	sub, err := e.Select(args[1], args[2], standard)
	if err != nil {
		return err
	}
	return save(cmd, sub)
}

func runExec(cmd *cobra.Command, args []string) error {
	e, err := open(args[0])
	if err != nil {
		return err
	}
	result, err := e.Exec(args[1])
	if err != nil {
		return err
	}
	return save(cmd, result)
}

func runClip(cmd *cobra.Command, args []string) error {
	e, err := open(args[0])
	if err != nil {
		return err
	}
	box, err := parseBox(args[1:])
	if err != nil {
		return err
	}
	return save(cmd, e.Clip(box))
}

func runMerge(cmd *cobra.Command, args []string) error {
	opts := shapefile.DefaultLoadOptions()
	opts.Options = options()
	opts.SkipErrors = false
	if workers > 0 {
		opts.Workers = workers
	}
	editors, errs := shapefile.OpenAll(context.Background(), args, opts)
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	merged := editors[0]
	for i, e := range editors[1:] {
		var err error
		if merged, err = shapefile.Merge(merged, e); err != nil {
			return fmt.Errorf("%s: %w", args[i+1], err)
		}
	}
	return save(cmd, merged)
}

func runReproject(cmd *cobra.Command, args []string) error {
	e, err := open(args[0])
	if err != nil {
		return err
	}
	if err := e.Reproject(fromCRS, toCRS); err != nil {
		return err
	}
	return save(cmd, e)
}

func runStretch(cmd *cobra.Command, args []string) error {
	e, err := open(args[0])
	if err != nil {
		return err
	}
	box, err := parseBox(args[1:])
	if err != nil {
		return err
	}
	if err := e.StretchExtent(box); err != nil {
		return err
	}
	return save(cmd, e)
}

func runQuadtree(cmd *cobra.Command, args []string) error {
	e, err := open(args[0])
	if err != nil {
		return err
	}
	e.BuildQuadtree()
	if err := e.SaveQuadtree(args[0]); err != nil {
		return err
	}
	logger.Info("saved quadtree", zap.String("path", args[0]))
	return nil
}

func runLocate(cmd *cobra.Command, args []string) error {
	e, err := open(args[0])
	if err != nil {
		return err
	}
	x, errX := strconv.ParseFloat(args[1], 64)
	y, errY := strconv.ParseFloat(args[2], 64)
	if err := errors.Join(errX, errY); err != nil {
		return fmt.Errorf("invalid coordinates: %w", err)
	}
	if useQuadtree {
		if err := e.LoadQuadtree(args[0]); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return err
			}
			logger.Debug("no saved quadtree; building one", zap.String("path", args[0]))
			e.BuildQuadtree()
		}
	}

	out := cmd.OutOrStdout()
	if e.ShapeType().IsPointLike() {
		i, err := e.IndexOfClosestFeature(x, y)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "closest %d\n", i)
		return nil
	}
	i, d := e.DistanceToBoundary(x, y)
	if i < 0 {
		fmt.Fprintln(out, "none")
		return nil
	}
	fmt.Fprintf(out, "contained-by %d distance %g\n", i, d)
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	e, err := open(args[0])
	if err != nil {
		return err
	}
	return e.ExportText(cmd.OutOrStdout())
}

func save(cmd *cobra.Command, e *shapefile.Editor) error {
	if err := e.Save(output); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d features to %s\n", e.Len(), strings.TrimSuffix(output, ".shp"))
	return nil
}

func parseBox(args []string) (shapefile.BBox, error) {
	var v [4]float64
	for i := range v {
		f, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return shapefile.BBox{}, fmt.Errorf("invalid box coordinate %q: %w", args[i], err)
		}
		v[i] = f
	}
	if v[0] > v[2] || v[1] > v[3] {
		return shapefile.BBox{}, fmt.Errorf("box min exceeds max: %v", v)
	}
	return shapefile.BBox{MinX: v[0], MinY: v[1], MaxX: v[2], MaxY: v[3]}, nil
}

package shapefile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-spatial/proj"
	"go.uber.org/zap"
)

// ParseCRS resolves "EPSG:3857", "epsg:4326" or a bare code. Supported
// systems are geographic WGS84 (4326), Web Mercator (3857), World Mercator
// (3395) and World Equidistant Cylindrical (4087).
func ParseCRS(s string) (proj.EPSGCode, error) {
	t := strings.TrimSpace(s)
	if i := strings.IndexByte(t, ':'); i >= 0 {
		if !strings.EqualFold(t[:i], "epsg") {
			return 0, fmt.Errorf("unsupported CRS authority in %q", s)
		}
		t = t[i+1:]
	}
	n, err := strconv.Atoi(t)
	if err != nil {
		return 0, fmt.Errorf("invalid CRS %q: %w", s, err)
	}
	switch code := proj.EPSGCode(n); code {
	case proj.EPSG4326, proj.EPSG3857, proj.EPSG3395, proj.EPSG4087:
		return code, nil
	default:
		return 0, fmt.Errorf("unsupported CRS EPSG:%d", n)
	}
}

// Reproject converts every point from src to dst (see ParseCRS) and
// recomputes the shape boxes. Conversion goes through geographic WGS84.
func (e *Editor) Reproject(src, dst string) error {
	from, err := ParseCRS(src)
	if err != nil {
		return err
	}
	to, err := ParseCRS(dst)
	if err != nil {
		return err
	}
	if from == to {
		return nil
	}

	seen := make(map[*Shape]bool, len(e.shapes))
	for i, s := range e.shapes {
		if len(s.Points) == 0 || seen[s] {
			continue
		}
		seen[s] = true
		xy := make([]float64, 0, 2*len(s.Points))
		for _, p := range s.Points {
			xy = append(xy, p.X, p.Y)
		}
		if from != proj.EPSG4326 {
			if xy, err = proj.Inverse(from, xy); err != nil {
				return fmt.Errorf("reproject shape %d from EPSG:%d: %w", i, from, err)
			}
		}
		if to != proj.EPSG4326 {
			if xy, err = proj.Convert(to, xy); err != nil {
				return fmt.Errorf("reproject shape %d to EPSG:%d: %w", i, to, err)
			}
		}
		for k := range s.Points {
			s.Points[k] = Point{X: xy[2*k], Y: xy[2*k+1]}
		}
		s.UpdateBounds()
	}
	e.invalidate()
	e.log.Debug("reprojected", zap.Int("from", int(from)), zap.Int("to", int(to)), zap.Int("shapes", len(e.shapes)))
	return nil
}

// StretchExtent maps every point affinely from the dataset's current
// extent onto target and recomputes the shape boxes. A dataset whose extent
// has zero width or height cannot be stretched.
func (e *Editor) StretchExtent(target BBox) error {
	cur := e.Bounds()
	if cur.Width() == 0 || cur.Height() == 0 {
		return fmt.Errorf("stretch extent: current extent %v is degenerate", cur)
	}
	sx := target.Width() / cur.Width()
	sy := target.Height() / cur.Height()
	seen := make(map[*Shape]bool, len(e.shapes))
	for _, s := range e.shapes {
		if seen[s] {
			continue
		}
		seen[s] = true
		for k, p := range s.Points {
			s.Points[k] = Point{
				X: (p.X-cur.MinX)*sx + target.MinX,
				Y: (p.Y-cur.MinY)*sy + target.MinY,
			}
		}
		if len(s.Points) > 0 {
			s.UpdateBounds()
		}
	}
	e.invalidate()
	return nil
}

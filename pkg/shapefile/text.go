package shapefile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ExportText writes every vertex as an "x y" line, features separated by a
// blank line.
func (e *Editor) ExportText(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for i, s := range e.shapes {
		if i > 0 {
			bw.WriteByte('\n')
		}
		for _, p := range s.Points {
			fmt.Fprintf(bw, "%f %f\n", p.X, p.Y)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("export text: %w", err)
	}
	return nil
}

// LoadText overwrites vertex coordinates, in feature and point order, from
// "x y" lines as written by ExportText. Blank lines are skipped; extra
// columns are ignored. The input must supply every vertex.
func (e *Editor) LoadText(r io.Reader) error {
	sc := bufio.NewScanner(r)
	line := 0
	next := func() ([]string, error) {
		for sc.Scan() {
			line++
			if f := strings.Fields(sc.Text()); len(f) > 0 {
				return f, nil
			}
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("load text: %w", err)
		}
		return nil, formatError("load text", "input ended after line %d", line)
	}

	for _, s := range e.shapes {
		for k := range s.Points {
			f, err := next()
			if err != nil {
				return err
			}
			if len(f) < 2 {
				return formatError("load text", "line %d: want \"x y\"", line)
			}
			x, errX := strconv.ParseFloat(f[0], 64)
			y, errY := strconv.ParseFloat(f[1], 64)
			if errX != nil || errY != nil {
				return formatError("load text", "line %d: bad coordinates %q", line, sc.Text())
			}
			s.Points[k] = Point{X: x, Y: y}
		}
		if len(s.Points) > 0 {
			s.UpdateBounds()
		}
	}
	e.invalidate()
	return nil
}

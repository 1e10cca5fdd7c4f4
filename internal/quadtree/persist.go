package quadtree

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/beetlebugorg/shapefile/internal/geom"
)

// Write serialises the tree in the .qdt text form: for each node, depth
// first, a depth line, a line with the four bbox values and a line with the
// member indices. Children follow their parent and are implied by the split
// rule, so no child count is stored.
func (t *Tree) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	var write func(idx int)
	write = func(idx int) {
		n := t.nodes[idx]
		fmt.Fprintf(bw, "%d\n", n.Depth)
		for _, v := range []float64{n.Box.MinX, n.Box.MinY, n.Box.MaxX, n.Box.MaxY} {
			bw.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
			bw.WriteByte(' ')
		}
		bw.WriteByte('\n')
		for _, m := range n.Members {
			bw.WriteString(strconv.Itoa(m))
			bw.WriteByte(' ')
		}
		bw.WriteByte('\n')
		if !n.IsLeaf() {
			for i := 0; i < 4; i++ {
				write(n.Child + i)
			}
		}
	}
	write(0)
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write quadtree: %w", err)
	}
	return nil
}

// Read loads a tree written by Write and binds it to ds. Member indices must
// be valid for ds.
func Read(r io.Reader, ds Dataset) (*Tree, error) {
	p := &treeParser{sc: bufio.NewScanner(r), n: ds.Len()}
	p.sc.Buffer(make([]byte, 64*1024), 64*1024*1024)

	t := &Tree{ds: ds, nodes: make([]Node, 1)}
	if err := p.node(t, 0, 0); err != nil {
		return nil, err
	}
	return t, nil
}

type treeParser struct {
	sc   *bufio.Scanner
	line int
	n    int
}

func (p *treeParser) next() (string, error) {
	if !p.sc.Scan() {
		if err := p.sc.Err(); err != nil {
			return "", fmt.Errorf("failed to read quadtree: %w", err)
		}
		return "", fmt.Errorf("quadtree: unexpected end of input after line %d", p.line)
	}
	p.line++
	return strings.TrimSpace(p.sc.Text()), nil
}

// node fills t.nodes[idx] and, when the split rule holds, reserves four
// consecutive slots for its children before reading them.
func (p *treeParser) node(t *Tree, idx, wantDepth int) error {
	line, err := p.next()
	if err != nil {
		return err
	}
	depth, err := strconv.Atoi(line)
	if err != nil || depth != wantDepth {
		return fmt.Errorf("quadtree: line %d: want depth %d, got %q", p.line, wantDepth, line)
	}

	if line, err = p.next(); err != nil {
		return err
	}
	fields := strings.Fields(line)
	if len(fields) != 4 {
		return fmt.Errorf("quadtree: line %d: want 4 bbox values, got %d", p.line, len(fields))
	}
	var vals [4]float64
	for i, f := range fields {
		if vals[i], err = strconv.ParseFloat(f, 64); err != nil {
			return fmt.Errorf("quadtree: line %d: %w", p.line, err)
		}
	}

	if line, err = p.next(); err != nil {
		return err
	}
	var members []int
	for _, f := range strings.Fields(line) {
		m, err := strconv.Atoi(f)
		if err != nil {
			return fmt.Errorf("quadtree: line %d: %w", p.line, err)
		}
		if m < 0 || m >= p.n {
			return fmt.Errorf("quadtree: line %d: member %d out of range [0,%d)", p.line, m, p.n)
		}
		members = append(members, m)
	}

	t.nodes[idx] = Node{
		Members: members,
		Box:     geom.BBox{MinX: vals[0], MinY: vals[1], MaxX: vals[2], MaxY: vals[3]},
		Child:   -1,
		Depth:   depth,
	}
	if !shouldSplit(len(members), depth) {
		return nil
	}
	first := len(t.nodes)
	t.nodes[idx].Child = first
	t.nodes = append(t.nodes, make([]Node, 4)...)
	for i := 0; i < 4; i++ {
		if err := p.node(t, first+i, depth+1); err != nil {
			return err
		}
	}
	return nil
}

package shapefile

import (
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Op is a numeric comparison used by Select and Set.
type Op string

const (
	OpEqual   Op = "="
	OpLess    Op = "<"
	OpGreater Op = ">"
)

// ParseOp validates a comparison operator.
func ParseOp(s string) (Op, error) {
	switch op := Op(strings.TrimSpace(s)); op {
	case OpEqual, OpLess, OpGreater:
		return op, nil
	default:
		return "", formatError("parse operator", "unknown operator %q (want =, < or >)", s)
	}
}

func (op Op) compare(candidate, standard float64) bool {
	switch op {
	case OpEqual:
		return candidate == standard
	case OpLess:
		return candidate < standard
	case OpGreater:
		return candidate > standard
	default:
		return false
	}
}

// matching returns the indices whose field compares true against standard.
// Rows whose value is not numeric never match.
func (e *Editor) matching(field string, op string, standard float64) ([]int, error) {
	o, err := ParseOp(op)
	if err != nil {
		return nil, err
	}
	col, err := e.schema.MustIndex(field)
	if err != nil {
		return nil, err
	}
	var out []int
	for i, rec := range e.records {
		if i >= len(e.shapes) {
			break
		}
		v, ok := toFloat(rec[col])
		if ok && o.compare(v, standard) {
			out = append(out, i)
		}
	}
	return out, nil
}

// Select returns the sub-dataset whose field compares true against
// standard. Comparison is numeric.
func (e *Editor) Select(field, op string, standard float64) (*Editor, error) {
	idx, err := e.matching(field, op, standard)
	if err != nil {
		return nil, err
	}
	e.log.Debug("select", zap.String("field", field), zap.String("op", op),
		zap.Float64("standard", standard), zap.Int("matched", len(idx)))
	return e.subset(idx), nil
}

// Set stores value in target for every row whose cond field compares true
// against standard. It returns e.
func (e *Editor) Set(cond, op string, standard float64, target string, value interface{}) (*Editor, error) {
	idx, err := e.matching(cond, op, standard)
	if err != nil {
		return nil, err
	}
	col, err := e.schema.MustIndex(target)
	if err != nil {
		return nil, err
	}
	f := e.schema.Field(col)
	v, err := coerce(f, value)
	if err != nil {
		return nil, &FormatError{Op: "set", Reason: "field " + target, Err: err}
	}
	for _, i := range idx {
		e.records[i][col] = v
	}
	e.log.Debug("set", zap.String("target", target), zap.Int("updated", len(idx)))
	return e, nil
}

// Clip returns the sub-dataset whose shape boxes are not disjoint from box.
// Touching boxes count as intersecting. NULL shapes are never included.
func (e *Editor) Clip(box BBox) *Editor {
	return e.subset(e.indicesInBounds(box))
}

// FeaturesInBounds returns views of the features whose boxes are not
// disjoint from box, in index order.
func (e *Editor) FeaturesInBounds(box BBox) []*Feature {
	idx := e.indicesInBounds(box)
	out := make([]*Feature, len(idx))
	for k, i := range idx {
		out[k] = &Feature{e: e, index: i}
	}
	return out
}

func (e *Editor) indicesInBounds(box BBox) []int {
	var out []int
	for _, i := range e.bboxCandidates(box) {
		s := e.shapes[i]
		if s.Type != TypeNull && !s.BBox.Disjoint(box) {
			out = append(out, i)
		}
	}
	sort.Ints(out)
	return out
}

// Exec runs a command string:
//
//	select * where FIELD OP VALUE
//	set FIELD = VALUE where FIELD OP VALUE
//
// Keywords are case-insensitive and tokens are separated by spaces. A
// select returns the matching sub-dataset; a set updates e and returns it.
func (e *Editor) Exec(command string) (*Editor, error) {
	tok := strings.Fields(command)
	if len(tok) == 0 {
		return nil, formatError("exec", "empty command")
	}
	switch strings.ToLower(tok[0]) {
	case "select":
		if len(tok) != 6 || tok[1] != "*" || !strings.EqualFold(tok[2], "where") {
			return nil, formatError("exec", "want \"select * where FIELD OP VALUE\", got %q", command)
		}
		standard, err := parseStandard(tok[5])
		if err != nil {
			return nil, err
		}
		return e.Select(tok[3], tok[4], standard)
	case "set":
		if len(tok) != 8 || tok[2] != "=" || !strings.EqualFold(tok[4], "where") {
			return nil, formatError("exec", "want \"set FIELD = VALUE where FIELD OP VALUE\", got %q", command)
		}
		standard, err := parseStandard(tok[7])
		if err != nil {
			return nil, err
		}
		return e.Set(tok[5], tok[6], standard, tok[1], tok[3])
	default:
		return nil, formatError("exec", "unknown command %q", tok[0])
	}
}

func parseStandard(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &FormatError{Op: "exec", Reason: "comparison value " + strconv.Quote(s), Err: err}
	}
	return v, nil
}

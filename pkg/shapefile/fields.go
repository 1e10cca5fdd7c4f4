package shapefile

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FieldKind selects the column layout used by AppendField.
type FieldKind int

const (
	// FieldDouble is a float column, 19 wide with 11 decimals.
	FieldDouble FieldKind = iota
	// FieldInt is a numeric column, 6 wide with no decimals.
	FieldInt
)

func (k FieldKind) descriptor(name string) (FieldDescriptor, error) {
	switch k {
	case FieldDouble:
		return FieldDescriptor{Name: name, Type: Float, Size: 19, Decimal: 11}, nil
	case FieldInt:
		return FieldDescriptor{Name: name, Type: Numeric, Size: 6}, nil
	default:
		return FieldDescriptor{}, formatError("append field", "unknown field kind %d", int(k))
	}
}

// ValueFunc computes a column value from a feature index.
type ValueFunc func(i int) interface{}

// AppendField adds a column and fills it with fn(i) for every record.
func (e *Editor) AppendField(name string, kind FieldKind, fn ValueFunc) error {
	f, err := kind.descriptor(name)
	if err != nil {
		return err
	}
	values := make([]interface{}, len(e.records))
	for i := range e.records {
		if values[i], err = coerce(f, fn(i)); err != nil {
			return &FormatError{Op: "append field", Record: i + 1, Reason: "field " + name, Err: err}
		}
	}
	if err := e.schema.Add(f); err != nil {
		return err
	}
	for i := range e.records {
		e.records[i] = append(e.records[i], values[i])
	}
	return nil
}

// SetField overwrites an existing column with fn(i) for every record.
func (e *Editor) SetField(name string, fn ValueFunc) error {
	col, err := e.schema.MustIndex(name)
	if err != nil {
		return err
	}
	f := e.schema.Field(col)
	for i, rec := range e.records {
		v, err := coerce(f, fn(i))
		if err != nil {
			return &FormatError{Op: "set field", Record: i + 1, Reason: "field " + name, Err: err}
		}
		rec[col] = v
	}
	return nil
}

// coerce converts v to the Go type used for values of column f: int64 for
// integer columns, float64 for decimal and float columns, string for
// character columns, time.Time or string for dates and bool for logicals.
// nil passes through.
func coerce(f FieldDescriptor, v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	switch f.Type {
	case Numeric, Float:
		x, ok := toFloat(v)
		if !ok {
			return nil, fmt.Errorf("non-numeric value %v", v)
		}
		if f.Type == Numeric && f.Decimal == 0 {
			if n, isInt := v.(int64); isInt {
				return n, nil
			}
			return int64(math.Round(x)), nil
		}
		return x, nil
	case Date:
		switch d := v.(type) {
		case time.Time:
			return d, nil
		case string:
			if t, err := time.Parse("20060102", strings.TrimSpace(d)); err == nil {
				return t, nil
			}
			return d, nil
		default:
			return nil, fmt.Errorf("unsupported date value of type %T", v)
		}
	case Logical:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			s := strings.TrimSpace(b)
			if s == "" {
				return nil, nil
			}
			switch s[0] {
			case 'Y', 'y', 'T', 't':
				return true, nil
			case 'N', 'n', 'F', 'f':
				return false, nil
			}
			return nil, nil
		default:
			return nil, fmt.Errorf("unsupported logical value of type %T", v)
		}
	default:
		if s, ok := v.(string); ok {
			return s, nil
		}
		return fmt.Sprint(v), nil
	}
}

// toFloat converts the numeric kinds a record may hold, and numeric
// strings, to float64.
func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint32:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

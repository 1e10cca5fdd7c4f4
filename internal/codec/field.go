package codec

import (
	"fmt"
	"strings"
)

// FieldType is the single-character dBase column type.
type FieldType byte

const (
	Character FieldType = 'C'
	Numeric   FieldType = 'N'
	Float     FieldType = 'F'
	Date      FieldType = 'D'
	Logical   FieldType = 'L'
)

func (t FieldType) String() string {
	return string(rune(t))
}

// IsNumeric reports whether values of this type are numbers.
func (t FieldType) IsNumeric() bool {
	return t == Numeric || t == Float
}

// MaxFieldNameLen is the longest column name the attribute file can hold.
const MaxFieldNameLen = 10

// FieldDescriptor describes one attribute column.
type FieldDescriptor struct {
	Name    string
	Type    FieldType
	Size    int
	Decimal int
}

// NormalizeFieldName applies the on-disk naming rules: spaces become
// underscores, the name is upper-cased and truncated to MaxFieldNameLen.
func NormalizeFieldName(name string) string {
	name = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
	if len(name) > MaxFieldNameLen {
		name = name[:MaxFieldNameLen]
	}
	return name
}

// Record is one attribute row, one value per field in schema order.
//
// Values are string (character), int64 (numeric without decimals),
// float64 (numeric with decimals, float), time.Time (date), bool
// (logical) or nil (blank or unknown).
type Record []interface{}

// Clone returns a shallow copy of the row.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return append(Record(nil), r...)
}

// Schema is an ordered list of field descriptors with a compiled
// name-to-position table. The on-disk deletion flag is not part of it.
type Schema struct {
	fields []FieldDescriptor
	index  map[string]int
}

// NewSchema compiles fields. Names are matched case-insensitively after
// normalisation; two fields that normalise to the same name are rejected.
func NewSchema(fields []FieldDescriptor) (*Schema, error) {
	s := &Schema{index: make(map[string]int, len(fields))}
	for _, f := range fields {
		if err := s.Add(f); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add appends a field to the schema.
func (s *Schema) Add(f FieldDescriptor) error {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	key := NormalizeFieldName(f.Name)
	if key == "" {
		return formatErr("add field", 0, "empty field name")
	}
	if _, dup := s.index[key]; dup {
		return formatErr("add field", 0, "field name %q collides with an existing field", f.Name)
	}
	if f.Size <= 0 || f.Size > 255 {
		return formatErr("add field", 0, "field %q has invalid size %d", f.Name, f.Size)
	}
	if f.Decimal < 0 || f.Decimal > 255 {
		return formatErr("add field", 0, "field %q has invalid decimal count %d", f.Name, f.Decimal)
	}
	s.index[key] = len(s.fields)
	s.fields = append(s.fields, f)
	return nil
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.fields)
}

// Fields returns a copy of the descriptors.
func (s *Schema) Fields() []FieldDescriptor {
	if s == nil {
		return nil
	}
	return append([]FieldDescriptor(nil), s.fields...)
}

// Field returns the i-th descriptor.
func (s *Schema) Field(i int) FieldDescriptor {
	return s.fields[i]
}

// Index resolves a field name to its position.
func (s *Schema) Index(name string) (int, bool) {
	if s == nil {
		return 0, false
	}
	i, ok := s.index[NormalizeFieldName(name)]
	return i, ok
}

// MustIndex resolves a field name or returns a FormatError.
func (s *Schema) MustIndex(name string) (int, error) {
	i, ok := s.Index(name)
	if !ok {
		return 0, formatErr("resolve field", 0, "no field named %q", name)
	}
	return i, nil
}

// Equal reports whether both schemas list the same descriptors in the same
// order. Names are compared after normalisation.
func (s *Schema) Equal(other *Schema) bool {
	if s.Len() != other.Len() {
		return false
	}
	for i := 0; i < s.Len(); i++ {
		a, b := s.fields[i], other.fields[i]
		if NormalizeFieldName(a.Name) != NormalizeFieldName(b.Name) ||
			a.Type != b.Type || a.Size != b.Size || a.Decimal != b.Decimal {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (s *Schema) Clone() *Schema {
	c, _ := NewSchema(s.Fields())
	return c
}

// RecordLength returns the on-disk width of one row, including the
// liveness byte.
func (s *Schema) RecordLength() int {
	n := 1
	for _, f := range s.fields {
		n += f.Size
	}
	return n
}

// String renders the schema as NAME:TYPE(size,decimal) pairs.
func (s *Schema) String() string {
	parts := make([]string, 0, s.Len())
	for _, f := range s.fields {
		parts = append(parts, fmt.Sprintf("%s:%s(%d,%d)", f.Name, f.Type, f.Size, f.Decimal))
	}
	return strings.Join(parts, " ")
}

package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding"
)

const (
	dbfVersion        = 3
	dbfHeaderSize     = 32
	dbfDescriptorSize = 32
	dbfTerminator     = 0x0D
	dbfDateLayout     = "20060102"

	liveFlag    = ' '
	deletedFlag = '*'
)

// infinityMarker is the text some writers emit for overflowing floats.
const infinityMarker = "#INF"

type dbfHeader struct {
	Date         time.Time
	NumRecords   int
	HeaderLength int
	RecordLength int
}

// decodeDBFHeader parses the fixed 32-byte prefix of an attribute file.
func decodeDBFHeader(buf []byte) (dbfHeader, error) {
	if len(buf) < dbfHeaderSize {
		return dbfHeader{}, formatErr("read dbf header", 0, "header is %d bytes, want %d", len(buf), dbfHeaderSize)
	}
	h := dbfHeader{
		Date:         time.Date(1900+int(buf[1]), time.Month(buf[2]), int(buf[3]), 0, 0, 0, 0, time.UTC),
		NumRecords:   int(binary.LittleEndian.Uint32(buf[4:8])),
		HeaderLength: int(binary.LittleEndian.Uint16(buf[8:10])),
		RecordLength: int(binary.LittleEndian.Uint16(buf[10:12])),
	}
	if h.HeaderLength < dbfHeaderSize+1 {
		return dbfHeader{}, formatErr("read dbf header", 0, "header length %d is too small", h.HeaderLength)
	}
	return h, nil
}

// decodeDescriptors parses the descriptor block that follows the header,
// up to and including the terminator.
func decodeDescriptors(buf []byte) (*Schema, error) {
	const op = "read dbf fields"
	var fields []FieldDescriptor
	off := 0
	for {
		if off >= len(buf) {
			return nil, formatErr(op, 0, "descriptor block is missing its terminator")
		}
		if buf[off] == dbfTerminator {
			break
		}
		if len(buf)-off < dbfDescriptorSize {
			return nil, formatErr(op, 0, "truncated field descriptor at byte %d", dbfHeaderSize+off)
		}
		d := buf[off : off+dbfDescriptorSize]
		name := d[:11]
		if i := bytes.IndexByte(name, 0); i >= 0 {
			name = name[:i]
		}
		fields = append(fields, FieldDescriptor{
			Name:    strings.TrimSpace(string(name)),
			Type:    FieldType(d[11]),
			Size:    int(d[16]),
			Decimal: int(d[17]),
		})
		off += dbfDescriptorSize
	}
	s, err := NewSchema(fields)
	if err != nil {
		return nil, &FormatError{Op: op, Reason: "invalid field table", Err: err}
	}
	return s, nil
}

// encodeDBFHeader renders the header, descriptors and terminator.
func encodeDBFHeader(s *Schema, numRecords int, date time.Time) []byte {
	n := s.Len()
	buf := make([]byte, dbfHeaderSize, dbfHeaderSize+n*dbfDescriptorSize+1)
	buf[0] = dbfVersion
	buf[1] = byte(date.Year() - 1900)
	buf[2] = byte(date.Month())
	buf[3] = byte(date.Day())
	binary.LittleEndian.PutUint32(buf[4:8], uint32(numRecords))
	binary.LittleEndian.PutUint16(buf[8:10], uint16(n*dbfDescriptorSize+dbfHeaderSize+1))
	binary.LittleEndian.PutUint16(buf[10:12], uint16(s.RecordLength()))
	for _, f := range s.fields {
		d := make([]byte, dbfDescriptorSize)
		copy(d[:11], NormalizeFieldName(f.Name))
		d[11] = byte(f.Type)
		d[16] = byte(f.Size)
		d[17] = byte(f.Decimal)
		buf = append(buf, d...)
	}
	return append(buf, dbfTerminator)
}

// decodeRecord parses one fixed-width row. It returns a nil Record for
// rows whose liveness byte marks them deleted.
func decodeRecord(row []byte, s *Schema, dec *encoding.Decoder, record int) (Record, error) {
	const op = "read record"
	if len(row) != s.RecordLength() {
		return nil, formatErr(op, record, "row is %d bytes, want %d", len(row), s.RecordLength())
	}
	if row[0] != liveFlag {
		return nil, nil
	}
	rec := make(Record, s.Len())
	off := 1
	for i, f := range s.fields {
		raw := row[off : off+f.Size]
		off += f.Size
		v, err := decodeValue(raw, f, dec)
		if err != nil {
			return nil, &FormatError{Op: op, Record: record, Reason: fmt.Sprintf("field %s", f.Name), Err: err}
		}
		rec[i] = v
	}
	return rec, nil
}

func decodeValue(raw []byte, f FieldDescriptor, dec *encoding.Decoder) (interface{}, error) {
	switch f.Type {
	case Numeric, Float:
		text := strings.TrimSpace(strings.ReplaceAll(string(raw), "\x00", ""))
		if text == "" {
			if f.Type == Numeric && f.Decimal == 0 {
				return int64(0), nil
			}
			return float64(0), nil
		}
		if strings.Trim(text, "*") == "" {
			return nil, nil
		}
		return parseNumber(text, f.Type == Numeric && f.Decimal == 0)
	case Date:
		text := strings.TrimSpace(strings.TrimRight(string(raw), "\x00"))
		if text == "" {
			return nil, nil
		}
		if t, err := time.Parse(dbfDateLayout, text); err == nil {
			return t, nil
		}
		return text, nil
	case Logical:
		text := strings.TrimSpace(string(raw))
		if text == "" {
			return nil, nil
		}
		switch text[0] {
		case 'Y', 'y', 'T', 't':
			return true, nil
		case 'N', 'n', 'F', 'f':
			return false, nil
		}
		return nil, nil
	default:
		raw = bytes.TrimRight(raw, "\x00")
		if dec != nil {
			decoded, err := dec.Bytes(raw)
			if err != nil {
				return nil, fmt.Errorf("decode text: %w", err)
			}
			raw = decoded
		}
		return strings.TrimSpace(string(raw)), nil
	}
}

// parseNumber parses numeric column text. Text carrying the infinity marker
// is parsed with the marker removed.
func parseNumber(text string, integer bool) (interface{}, error) {
	if integer {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return n, nil
		}
	} else if v, err := strconv.ParseFloat(text, 64); err == nil {
		return v, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(text, infinityMarker, ""), 64)
	if err != nil {
		return nil, fmt.Errorf("non-numeric content %q", text)
	}
	if integer {
		return int64(v), nil
	}
	return v, nil
}

// encodeRecord renders one live row.
func encodeRecord(rec Record, s *Schema, enc *encoding.Encoder, record int) ([]byte, error) {
	const op = "pack record"
	if len(rec) != s.Len() {
		return nil, formatErr(op, record, "%d values for %d fields", len(rec), s.Len())
	}
	row := make([]byte, 1, s.RecordLength())
	row[0] = liveFlag
	for i, f := range s.fields {
		cell, err := encodeValue(rec[i], f, enc)
		if err != nil {
			return nil, &FormatError{Op: op, Record: record, Reason: fmt.Sprintf("field %s", f.Name), Err: err}
		}
		row = append(row, cell...)
	}
	return row, nil
}

func encodeValue(v interface{}, f FieldDescriptor, enc *encoding.Encoder) ([]byte, error) {
	switch f.Type {
	case Numeric, Float:
		text, err := formatNumber(v, f)
		if err != nil {
			return nil, err
		}
		if len(text) > f.Size {
			return nil, fmt.Errorf("%q does not fit in %d bytes", text, f.Size)
		}
		return []byte(strings.Repeat(" ", f.Size-len(text)) + text), nil
	case Logical:
		c := byte('?')
		switch x := v.(type) {
		case bool:
			if x {
				c = 'T'
			} else {
				c = 'F'
			}
		case string:
			if x != "" {
				c = strings.ToUpper(x)[0]
			}
		}
		return padRight([]byte{c}, f.Size), nil
	case Date:
		var text string
		switch x := v.(type) {
		case nil:
		case time.Time:
			text = x.Format(dbfDateLayout)
		default:
			text = fmt.Sprint(x)
		}
		return padRight([]byte(text), f.Size), nil
	default:
		var raw []byte
		if v != nil {
			raw = []byte(fmt.Sprint(v))
		}
		if enc != nil {
			encoded, err := enc.Bytes(raw)
			if err != nil {
				return nil, fmt.Errorf("encode text: %w", err)
			}
			raw = encoded
		} else if len(raw) > f.Size {
			n := f.Size
			for n > 0 && !utf8.RuneStart(raw[n]) {
				n--
			}
			raw = raw[:n]
		}
		return padRight(raw, f.Size), nil
	}
}

// formatNumber renders v with the field's decimal count. nil is blank.
func formatNumber(v interface{}, f FieldDescriptor) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case int:
		return formatInt(int64(x), f), nil
	case int32:
		return formatInt(int64(x), f), nil
	case int64:
		return formatInt(x, f), nil
	case uint32:
		return formatInt(int64(x), f), nil
	case float32:
		return formatFloat(float64(x), f)
	case float64:
		return formatFloat(x, f)
	case string:
		t := strings.TrimSpace(x)
		if t == "" {
			return "", nil
		}
		if _, err := strconv.ParseFloat(t, 64); err != nil {
			return "", fmt.Errorf("non-numeric value %q", x)
		}
		return t, nil
	default:
		return "", fmt.Errorf("unsupported numeric value of type %T", v)
	}
}

func formatInt(n int64, f FieldDescriptor) string {
	if f.Decimal > 0 {
		return fitDecimals(float64(n), f)
	}
	return strconv.FormatInt(n, 10)
}

func formatFloat(v float64, f FieldDescriptor) (string, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", fmt.Errorf("cannot store %v", v)
	}
	return fitDecimals(v, f), nil
}

// fitDecimals formats v with the field's decimal count, dropping decimals
// until the text fits the field. The result is still too wide when the
// integer part alone does not fit.
func fitDecimals(v float64, f FieldDescriptor) string {
	text := strconv.FormatFloat(v, 'f', f.Decimal, 64)
	for d := f.Decimal - 1; len(text) > f.Size && d >= 0; d-- {
		text = strconv.FormatFloat(v, 'f', d, 64)
	}
	return text
}

// padRight left-justifies b in a field of the given width, truncating.
func padRight(b []byte, width int) []byte {
	if len(b) >= width {
		return b[:width]
	}
	return append(b, bytes.Repeat([]byte{' '}, width-len(b))...)
}

package domain

import (
	"fmt"
	"math"
)

// Field is one key/value pair of a source document. Documents keep the
// field order the store returned them in.
type Field struct {
	Key   string
	Value any
}

// Document is a single raw customer record as read from a record source.
type Document []Field

// Frame is a small row-major table. Cells hold float64, string or nil (null).
// A Frame is never mutated once handed to another stage; helpers that change
// shape return a new Frame.
type Frame struct {
	columns []string
	index   map[string]int
	rows    [][]any
}

func NewFrame(columns []string) *Frame {
	cols := make([]string, len(columns))
	copy(cols, columns)
	index := make(map[string]int, len(cols))
	for i, c := range cols {
		index[c] = i
	}
	return &Frame{columns: cols, index: index}
}

// FrameFromDocuments builds a frame from documents. Columns appear in the
// order they are first seen; a document missing a column gets a null cell.
// Columns named in drop are skipped.
func FrameFromDocuments(docs []Document, drop ...string) (*Frame, error) {
	skip := make(map[string]bool, len(drop))
	for _, d := range drop {
		skip[d] = true
	}

	var columns []string
	seen := make(map[string]bool)
	for _, doc := range docs {
		for _, f := range doc {
			if skip[f.Key] || seen[f.Key] {
				continue
			}
			seen[f.Key] = true
			columns = append(columns, f.Key)
		}
	}

	frame := NewFrame(columns)
	for i, doc := range docs {
		row := make([]any, len(columns))
		for _, f := range doc {
			idx, ok := frame.index[f.Key]
			if !ok {
				continue
			}
			v, err := NormalizeValue(f.Value)
			if err != nil {
				return nil, fmt.Errorf("document %d field %q: %w", i, f.Key, err)
			}
			row[idx] = v
		}
		frame.rows = append(frame.rows, row)
	}
	return frame, nil
}

// NormalizeValue maps store-native scalars onto the three cell kinds.
func NormalizeValue(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case float64:
		if math.IsNaN(t) {
			return nil, nil
		}
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int8:
		return float64(t), nil
	case int16:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case uint8:
		return float64(t), nil
	case uint16:
		return float64(t), nil
	case uint32:
		return float64(t), nil
	case uint64:
		return float64(t), nil
	case bool:
		if t {
			return 1.0, nil
		}
		return 0.0, nil
	case string:
		return t, nil
	case fmt.Stringer:
		return t.String(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported type %T", ErrInvalidRecord, v)
	}
}

func (f *Frame) Columns() []string {
	out := make([]string, len(f.columns))
	copy(out, f.columns)
	return out
}

func (f *Frame) Len() int { return len(f.rows) }

func (f *Frame) Has(column string) bool {
	_, ok := f.index[column]
	return ok
}

func (f *Frame) ColumnIndex(column string) (int, bool) {
	i, ok := f.index[column]
	return i, ok
}

// Append adds a row. The row is copied.
func (f *Frame) Append(row []any) error {
	if len(row) != len(f.columns) {
		return fmt.Errorf("%w: row has %d cells, frame has %d columns", ErrInvalidRecord, len(row), len(f.columns))
	}
	r := make([]any, len(row))
	copy(r, row)
	f.rows = append(f.rows, r)
	return nil
}

// Row returns a copy of row i.
func (f *Frame) Row(i int) []any {
	r := make([]any, len(f.rows[i]))
	copy(r, f.rows[i])
	return r
}

func (f *Frame) Value(i int, column string) (any, bool) {
	idx, ok := f.index[column]
	if !ok {
		return nil, false
	}
	return f.rows[i][idx], true
}

// RecordAt returns row i keyed by column name.
func (f *Frame) RecordAt(i int) map[string]any {
	rec := make(map[string]any, len(f.columns))
	for j, c := range f.columns {
		rec[c] = f.rows[i][j]
	}
	return rec
}

func (f *Frame) Column(column string) ([]any, error) {
	idx, ok := f.index[column]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, column)
	}
	out := make([]any, len(f.rows))
	for i, r := range f.rows {
		out[i] = r[idx]
	}
	return out, nil
}

// Labels reads a binary label column as ints.
func (f *Frame) Labels(column string) ([]int, error) {
	values, err := f.Column(column)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(values))
	for i, v := range values {
		n, ok := v.(float64)
		if !ok || (n != 0 && n != 1) {
			return nil, fmt.Errorf("%w: row %d label %v", ErrInvalidRecord, i, v)
		}
		out[i] = int(n)
	}
	return out, nil
}

// Drop returns a new frame without the named columns. Unknown names are ignored.
func (f *Frame) Drop(columns ...string) *Frame {
	skip := make(map[string]bool, len(columns))
	for _, c := range columns {
		skip[c] = true
	}
	var keep []int
	var names []string
	for i, c := range f.columns {
		if !skip[c] {
			keep = append(keep, i)
			names = append(names, c)
		}
	}
	out := NewFrame(names)
	out.rows = make([][]any, len(f.rows))
	for i, r := range f.rows {
		row := make([]any, len(keep))
		for j, k := range keep {
			row[j] = r[k]
		}
		out.rows[i] = row
	}
	return out
}

// Take returns a new frame holding the given rows in the given order.
func (f *Frame) Take(indices []int) *Frame {
	out := NewFrame(f.columns)
	out.rows = make([][]any, len(indices))
	for i, idx := range indices {
		out.rows[i] = f.Row(idx)
	}
	return out
}

func (f *Frame) Clone() *Frame {
	out := NewFrame(f.columns)
	out.rows = make([][]any, len(f.rows))
	for i := range f.rows {
		out.rows[i] = f.Row(i)
	}
	return out
}

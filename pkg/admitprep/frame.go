package admitprep

import (
	"errors"
	"fmt"
)

var (
	ErrColumnNotFound = errors.New("column not found")
	ErrColumnExists   = errors.New("column already exists")
	ErrLengthMismatch = errors.New("column length mismatch")
)

// Schema describes the logical shape of a dataset. Column order is the
// order in which columns are written out.
type Schema struct {
	Columns []ColumnSchema
}

type ColumnSchema struct {
	Name     string
	Type     Kind
	Nullable bool
}

// Names returns the column names in schema order.
func (s Schema) Names() []string {
	out := make([]string, len(s.Columns))
	for i, cs := range s.Columns {
		out[i] = cs.Name
	}
	return out
}

// Kind enumerates supported logical types.
type Kind int

const (
	KindInvalid Kind = iota
	KindInt
	KindFloat
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return "invalid"
	}
}

// Column is a typed, nullable column abstraction.
type Column interface {
	Name() string
	Kind() Kind
	Len() int
	IsNull(i int) bool
	SetNull(i int)
	// Value returns the cell as int64, float64 or string, or nil when null.
	Value(i int) any
	take(rows []int) Column
	appendFrom(src Column)
}

type IntColumn struct {
	name  string
	data  []int64
	nulls []bool
}

func NewIntColumn(name string, n int) *IntColumn {
	return &IntColumn{name: name, data: make([]int64, n), nulls: make([]bool, n)}
}
func (c *IntColumn) Name() string            { return c.name }
func (c *IntColumn) Kind() Kind              { return KindInt }
func (c *IntColumn) Len() int                { return len(c.data) }
func (c *IntColumn) IsNull(i int) bool       { return c.nulls[i] }
func (c *IntColumn) SetNull(i int)           { c.nulls[i] = true }
func (c *IntColumn) Get(i int) (int64, bool) { return c.data[i], !c.nulls[i] }
func (c *IntColumn) Set(i int, v int64)      { c.data[i] = v; c.nulls[i] = false }
func (c *IntColumn) AppendNull()             { c.data = append(c.data, 0); c.nulls = append(c.nulls, true) }
func (c *IntColumn) Append(v int64)          { c.data = append(c.data, v); c.nulls = append(c.nulls, false) }
func (c *IntColumn) Value(i int) any {
	if c.nulls[i] {
		return nil
	}
	return c.data[i]
}

func (c *IntColumn) take(rows []int) Column {
	out := NewIntColumn(c.name, len(rows))
	for i, r := range rows {
		out.data[i], out.nulls[i] = c.data[r], c.nulls[r]
	}
	return out
}

func (c *IntColumn) appendFrom(src Column) {
	s := src.(*IntColumn)
	c.data = append(c.data, s.data...)
	c.nulls = append(c.nulls, s.nulls...)
}

type FloatColumn struct {
	name  string
	data  []float64
	nulls []bool
}

func NewFloatColumn(name string, n int) *FloatColumn {
	return &FloatColumn{name: name, data: make([]float64, n), nulls: make([]bool, n)}
}
func (c *FloatColumn) Name() string              { return c.name }
func (c *FloatColumn) Kind() Kind                { return KindFloat }
func (c *FloatColumn) Len() int                  { return len(c.data) }
func (c *FloatColumn) IsNull(i int) bool         { return c.nulls[i] }
func (c *FloatColumn) SetNull(i int)             { c.nulls[i] = true }
func (c *FloatColumn) Get(i int) (float64, bool) { return c.data[i], !c.nulls[i] }
func (c *FloatColumn) Set(i int, v float64)      { c.data[i] = v; c.nulls[i] = false }
func (c *FloatColumn) AppendNull()               { c.data = append(c.data, 0); c.nulls = append(c.nulls, true) }
func (c *FloatColumn) Append(v float64)          { c.data = append(c.data, v); c.nulls = append(c.nulls, false) }
func (c *FloatColumn) Value(i int) any {
	if c.nulls[i] {
		return nil
	}
	return c.data[i]
}

func (c *FloatColumn) take(rows []int) Column {
	out := NewFloatColumn(c.name, len(rows))
	for i, r := range rows {
		out.data[i], out.nulls[i] = c.data[r], c.nulls[r]
	}
	return out
}

func (c *FloatColumn) appendFrom(src Column) {
	s := src.(*FloatColumn)
	c.data = append(c.data, s.data...)
	c.nulls = append(c.nulls, s.nulls...)
}

type StringColumn struct {
	name  string
	data  []string
	nulls []bool
}

func NewStringColumn(name string, n int) *StringColumn {
	return &StringColumn{name: name, data: make([]string, n), nulls: make([]bool, n)}
}
func (c *StringColumn) Name() string             { return c.name }
func (c *StringColumn) Kind() Kind               { return KindString }
func (c *StringColumn) Len() int                 { return len(c.data) }
func (c *StringColumn) IsNull(i int) bool        { return c.nulls[i] }
func (c *StringColumn) SetNull(i int)            { c.nulls[i] = true }
func (c *StringColumn) Get(i int) (string, bool) { return c.data[i], !c.nulls[i] }
func (c *StringColumn) Set(i int, v string)      { c.data[i] = v; c.nulls[i] = false }
func (c *StringColumn) AppendNull()              { c.data = append(c.data, ""); c.nulls = append(c.nulls, true) }
func (c *StringColumn) Append(v string)          { c.data = append(c.data, v); c.nulls = append(c.nulls, false) }
func (c *StringColumn) Value(i int) any {
	if c.nulls[i] {
		return nil
	}
	return c.data[i]
}

func (c *StringColumn) take(rows []int) Column {
	out := NewStringColumn(c.name, len(rows))
	for i, r := range rows {
		out.data[i], out.nulls[i] = c.data[r], c.nulls[r]
	}
	return out
}

func (c *StringColumn) appendFrom(src Column) {
	s := src.(*StringColumn)
	c.data = append(c.data, s.data...)
	c.nulls = append(c.nulls, s.nulls...)
}

func newColumn(cs ColumnSchema) Column {
	switch cs.Type {
	case KindInt:
		return NewIntColumn(cs.Name, 0)
	case KindFloat:
		return NewFloatColumn(cs.Name, 0)
	case KindString:
		return NewStringColumn(cs.Name, 0)
	default:
		panic(fmt.Sprintf("invalid column kind for %q", cs.Name))
	}
}

// Frame is a columnar container for tabular data.
type Frame struct {
	schema Schema
	cols   []Column
	index  map[string]int // name -> col index
	nrows  int
}

func NewFrame(s Schema) *Frame {
	f := &Frame{schema: Schema{Columns: append([]ColumnSchema(nil), s.Columns...)}, cols: make([]Column, len(s.Columns)), index: make(map[string]int)}
	for i, cs := range s.Columns {
		f.cols[i] = newColumn(cs)
		f.index[cs.Name] = i
	}
	return f
}

func (f *Frame) Schema() Schema  { return f.schema }
func (f *Frame) Rows() int       { return f.nrows }
func (f *Frame) Cols() int       { return len(f.cols) }
func (f *Frame) Names() []string { return f.schema.Names() }

func (f *Frame) ColumnByName(name string) (Column, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.cols[i], true
}

// Lookup is ColumnByName returning ErrColumnNotFound for absent columns.
func (f *Frame) Lookup(name string) (Column, error) {
	c, ok := f.ColumnByName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	return c, nil
}

// AppendNullRow appends a row with all-null values.
func (f *Frame) AppendNullRow() {
	for _, c := range f.cols {
		switch col := c.(type) {
		case *IntColumn:
			col.AppendNull()
		case *FloatColumn:
			col.AppendNull()
		case *StringColumn:
			col.AppendNull()
		default:
			panic("unknown column type")
		}
	}
	f.nrows++
}

// SetCell sets a single cell value by name (row must exist).
func (f *Frame) SetCell(row int, name string, v any) error {
	i, ok := f.index[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	c := f.cols[i]
	if v == nil {
		c.SetNull(row)
		return nil
	}
	switch col := c.(type) {
	case *IntColumn:
		switch t := v.(type) {
		case int:
			col.Set(row, int64(t))
		case int64:
			col.Set(row, t)
		case float64:
			col.Set(row, int64(t))
		default:
			return fmt.Errorf("column %s expects int/int64", name)
		}
	case *FloatColumn:
		switch t := v.(type) {
		case float32:
			col.Set(row, float64(t))
		case float64:
			col.Set(row, t)
		case int:
			col.Set(row, float64(t))
		case int64:
			col.Set(row, float64(t))
		default:
			return fmt.Errorf("column %s expects float64", name)
		}
	case *StringColumn:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("column %s expects string", name)
		}
		col.Set(row, s)
	default:
		return fmt.Errorf("unknown column kind")
	}
	return nil
}

// RowHasNull reports whether any field of row is null.
func (f *Frame) RowHasNull(row int) bool {
	for _, c := range f.cols {
		if c.IsNull(row) {
			return true
		}
	}
	return false
}

// NullCount returns the total number of null cells.
func (f *Frame) NullCount() int {
	n := 0
	for _, c := range f.cols {
		for i := 0; i < c.Len(); i++ {
			if c.IsNull(i) {
				n++
			}
		}
	}
	return n
}

// Take returns a new Frame holding the given rows, in the given order.
func (f *Frame) Take(rows []int) *Frame {
	out := &Frame{schema: f.schema, cols: make([]Column, len(f.cols)), index: f.index, nrows: len(rows)}
	for i, c := range f.cols {
		out.cols[i] = c.take(rows)
	}
	return out
}

// Filter returns a new Frame with the rows for which keep returns true.
func (f *Frame) Filter(keep func(row int) bool) *Frame {
	rows := make([]int, 0, f.nrows)
	for r := 0; r < f.nrows; r++ {
		if keep(r) {
			rows = append(rows, r)
		}
	}
	return f.Take(rows)
}

// AddColumn appends c as the last column. The column must have one value
// per row and a name not already present.
func (f *Frame) AddColumn(c Column, nullable bool) error {
	if _, ok := f.index[c.Name()]; ok {
		return fmt.Errorf("%w: %q", ErrColumnExists, c.Name())
	}
	if c.Len() != f.nrows {
		return fmt.Errorf("%w: %q has %d values, frame has %d rows", ErrLengthMismatch, c.Name(), c.Len(), f.nrows)
	}
	cols := append([]ColumnSchema(nil), f.schema.Columns...)
	f.schema = Schema{Columns: append(cols, ColumnSchema{Name: c.Name(), Type: c.Kind(), Nullable: nullable})}
	index := make(map[string]int, len(f.index)+1)
	for k, v := range f.index {
		index[k] = v
	}
	index[c.Name()] = len(f.cols)
	f.index = index
	f.cols = append(f.cols[:len(f.cols):len(f.cols)], c)
	return nil
}

// Concat appends the rows of other, which must share f's schema.
func (f *Frame) Concat(other *Frame) error {
	if len(other.cols) != len(f.cols) {
		return fmt.Errorf("concat: %d columns vs %d", len(other.cols), len(f.cols))
	}
	for i, cs := range f.schema.Columns {
		oc := other.schema.Columns[i]
		if oc.Name != cs.Name || oc.Type != cs.Type {
			return fmt.Errorf("concat: column %d is %s/%v, want %s/%v", i, oc.Name, oc.Type, cs.Name, cs.Type)
		}
	}
	for i, c := range f.cols {
		c.appendFrom(other.cols[i])
	}
	f.nrows += other.nrows
	return nil
}

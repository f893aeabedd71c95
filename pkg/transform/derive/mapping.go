package derive

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	ap "github.com/wdm0006/admitprep/pkg/admitprep"
)

// MapNumber maps the labels of Column to numbers through Table and stores
// the result in Output. Labels missing from Table yield null, or
// ErrUnmapped when Strict is set.
type MapNumber struct {
	Column string
	Output string
	Table  map[string]float64
	// Kind is the output kind, KindFloat (default) or KindInt.
	Kind   ap.Kind
	Strict bool

	// Unmapped holds the distinct unmapped labels seen by Apply, sorted.
	Unmapped []string
	// UnmappedRows counts rows that received a null.
	UnmappedRows int
}

func (t *MapNumber) Name() string { return "map_number:" + t.Output }

func (t *MapNumber) Apply(ctx context.Context, f *ap.Frame) (*ap.Frame, error) {
	col, err := f.Lookup(t.Column)
	if err != nil {
		return nil, err
	}
	n := f.Rows()
	var set func(row int, v float64)
	var setNull func(row int)
	var out ap.Column
	switch t.Kind {
	case ap.KindInt:
		c := ap.NewIntColumn(t.Output, n)
		set, setNull, out = func(row int, v float64) { c.Set(row, int64(v)) }, c.SetNull, c
	case ap.KindFloat, ap.KindInvalid:
		c := ap.NewFloatColumn(t.Output, n)
		set, setNull, out = c.Set, c.SetNull, c
	default:
		return nil, fmt.Errorf("map_number: unsupported output kind %v", t.Kind)
	}

	unmapped := map[string]struct{}{}
	t.UnmappedRows = 0
	for row := 0; row < n; row++ {
		label, ok := keyAt(col, row)
		if !ok {
			setNull(row)
			continue
		}
		v, ok := t.Table[label]
		if !ok {
			if t.Strict {
				return nil, fmt.Errorf("%w: %s=%q at row %d", ErrUnmapped, t.Column, label, row)
			}
			unmapped[label] = struct{}{}
			t.UnmappedRows++
			setNull(row)
			continue
		}
		set(row, v)
	}
	t.Unmapped = sortedKeys(unmapped)
	if err := f.AddColumn(out, true); err != nil {
		return nil, err
	}
	return f, nil
}

func (t *MapNumber) Details() []slog.Attr {
	return []slog.Attr{
		slog.String("source", t.Column),
		slog.Int("unmapped_rows", t.UnmappedRows),
		slog.Any("unmapped_labels", t.Unmapped),
	}
}

// MapLabel maps labels of Column to other labels. Labels missing from Table
// get Default; with an empty Default they yield null.
type MapLabel struct {
	Column  string
	Output  string
	Table   map[string]string
	Default string
}

func (t *MapLabel) Name() string { return "map_label:" + t.Output }

func (t *MapLabel) Apply(ctx context.Context, f *ap.Frame) (*ap.Frame, error) {
	col, err := f.Lookup(t.Column)
	if err != nil {
		return nil, err
	}
	out := ap.NewStringColumn(t.Output, f.Rows())
	for row := 0; row < f.Rows(); row++ {
		label, ok := keyAt(col, row)
		if !ok {
			out.SetNull(row)
			continue
		}
		if v, ok := t.Table[label]; ok {
			out.Set(row, v)
		} else if t.Default != "" {
			out.Set(row, t.Default)
		} else {
			out.SetNull(row)
		}
	}
	if err := f.AddColumn(out, true); err != nil {
		return nil, err
	}
	return f, nil
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

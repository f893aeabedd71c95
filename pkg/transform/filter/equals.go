package filter

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	ap "github.com/wdm0006/admitprep/pkg/admitprep"
)

// DropEquals removes rows whose Column equals Value. Numeric columns are
// compared against Value's formatted form. Nulls never match.
type DropEquals struct {
	Column string
	Value  string

	// Removed is set by Apply, including when nothing matched.
	Removed int
}

func (t *DropEquals) Name() string { return "drop_equals" }

func (t *DropEquals) Apply(ctx context.Context, f *ap.Frame) (*ap.Frame, error) {
	col, err := f.Lookup(t.Column)
	if err != nil {
		return nil, err
	}
	var match func(row int) bool
	switch c := col.(type) {
	case *ap.StringColumn:
		match = func(row int) bool {
			v, ok := c.Get(row)
			return ok && v == t.Value
		}
	case *ap.IntColumn:
		want, perr := strconv.ParseInt(t.Value, 10, 64)
		match = func(row int) bool {
			v, ok := c.Get(row)
			return ok && perr == nil && v == want
		}
	case *ap.FloatColumn:
		want, perr := strconv.ParseFloat(t.Value, 64)
		match = func(row int) bool {
			v, ok := c.Get(row)
			return ok && perr == nil && v == want
		}
	default:
		return nil, fmt.Errorf("drop_equals: unsupported column kind %v", col.Kind())
	}
	out := f.Filter(func(row int) bool { return !match(row) })
	t.Removed = f.Rows() - out.Rows()
	return out, nil
}

func (t *DropEquals) Details() []slog.Attr {
	return []slog.Attr{
		slog.String("column", t.Column),
		slog.String("value", t.Value),
		slog.Int("matched_rows", t.Removed),
	}
}

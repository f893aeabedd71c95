package filter

import (
	"context"
	"log/slog"

	ap "github.com/wdm0006/admitprep/pkg/admitprep"
)

// DropNulls keeps only rows where every field is present.
type DropNulls struct {
	// Removed is set by Apply.
	Removed int
}

func (t *DropNulls) Name() string { return "drop_nulls" }

func (t *DropNulls) Apply(ctx context.Context, f *ap.Frame) (*ap.Frame, error) {
	out := f.Filter(func(row int) bool { return !f.RowHasNull(row) })
	t.Removed = f.Rows() - out.Rows()
	return out, nil
}

func (t *DropNulls) Details() []slog.Attr {
	return []slog.Attr{slog.Int("null_rows", t.Removed)}
}

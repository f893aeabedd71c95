package derive

import (
	"context"
	"log/slog"

	ap "github.com/wdm0006/admitprep/pkg/admitprep"
)

// Ratio stores Numerator / Denominator in Output. A null operand or a zero
// denominator yields null.
type Ratio struct {
	Numerator   string
	Denominator string
	Output      string

	// ZeroDenominators counts rows guarded against division by zero.
	ZeroDenominators int
}

func (t *Ratio) Name() string { return "ratio:" + t.Output }

func (t *Ratio) Apply(ctx context.Context, f *ap.Frame) (*ap.Frame, error) {
	num, err := numericColumn(f, t.Numerator)
	if err != nil {
		return nil, err
	}
	den, err := numericColumn(f, t.Denominator)
	if err != nil {
		return nil, err
	}
	out := ap.NewFloatColumn(t.Output, f.Rows())
	t.ZeroDenominators = 0
	for row := 0; row < f.Rows(); row++ {
		a, okA := num(row)
		b, okB := den(row)
		switch {
		case !okA || !okB:
			out.SetNull(row)
		case b == 0:
			t.ZeroDenominators++
			out.SetNull(row)
		default:
			out.Set(row, a/b)
		}
	}
	if err := f.AddColumn(out, true); err != nil {
		return nil, err
	}
	return f, nil
}

func (t *Ratio) Details() []slog.Attr {
	return []slog.Attr{slog.Int("zero_denominators", t.ZeroDenominators)}
}

// Package scale normalizes numeric columns.
package scale

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/stat"

	ap "github.com/wdm0006/admitprep/pkg/admitprep"
)

// ErrZeroVariance is returned when a column to be scaled is constant.
var ErrZeroVariance = errors.New("zero variance")

const epsilon = 0x1p-52

// ZeroVariancePolicy selects what ZScore does with a constant column.
type ZeroVariancePolicy string

const (
	// ZeroVarianceError fails the transform.
	ZeroVarianceError ZeroVariancePolicy = "error"
	// ZeroVarianceZero writes 0 for every non-null value, like sklearn's
	// StandardScaler.
	ZeroVarianceZero ZeroVariancePolicy = "zero"
)

// ParseZeroVariancePolicy accepts "", "error" and "zero".
func ParseZeroVariancePolicy(s string) (ZeroVariancePolicy, error) {
	switch ZeroVariancePolicy(s) {
	case "", ZeroVarianceError:
		return ZeroVarianceError, nil
	case ZeroVarianceZero:
		return ZeroVarianceZero, nil
	}
	return "", fmt.Errorf("unknown zero variance policy %q", s)
}

// Stats are the fitted parameters of one column.
type Stats struct {
	Column string  `json:"column"`
	Output string  `json:"output"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// ZScore appends (x - mean) / std for each of Columns as a new column named
// with Suffix. Statistics are computed over the non-null values of the
// frame being transformed; nulls stay null.
type ZScore struct {
	Columns []string
	// Suffix defaults to "_scaled".
	Suffix string
	// Sample uses the n-1 standard deviation instead of the population one.
	Sample       bool
	ZeroVariance ZeroVariancePolicy

	// Stats is set by Apply, one entry per column.
	Stats []Stats
}

func (t *ZScore) Name() string { return "zscore" }

func (t *ZScore) suffix() string {
	if t.Suffix == "" {
		return "_scaled"
	}
	return t.Suffix
}

func (t *ZScore) Apply(ctx context.Context, f *ap.Frame) (*ap.Frame, error) {
	t.Stats = make([]Stats, 0, len(t.Columns))
	outs := make([]*ap.FloatColumn, 0, len(t.Columns))
	for _, name := range t.Columns {
		col, err := f.Lookup(name)
		if err != nil {
			return nil, err
		}
		values, present, err := floats(col)
		if err != nil {
			return nil, err
		}
		st := t.fit(name, values)
		if st.Count > 0 && st.StdDev == 0 && t.ZeroVariance != ZeroVarianceZero {
			return nil, fmt.Errorf("%w: column %q (n=%d)", ErrZeroVariance, name, st.Count)
		}
		t.Stats = append(t.Stats, st)

		out := ap.NewFloatColumn(st.Output, f.Rows())
		for row := 0; row < f.Rows(); row++ {
			x, ok := present(row)
			switch {
			case !ok:
				out.SetNull(row)
			case st.StdDev == 0:
				out.Set(row, 0)
			default:
				out.Set(row, (x-st.Mean)/st.StdDev)
			}
		}
		outs = append(outs, out)
	}
	for _, out := range outs {
		if err := f.AddColumn(out, true); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (t *ZScore) fit(name string, x []float64) Stats {
	st := Stats{Column: name, Output: name + t.suffix(), Count: len(x)}
	switch {
	case len(x) == 0:
	case len(x) == 1:
		st.Mean = x[0]
	default:
		mean, variance := stat.MeanVariance(x, nil)
		if !t.Sample {
			n := float64(len(x))
			variance = variance * (n - 1) / n
		}
		st.Mean, st.StdDev = mean, math.Sqrt(variance)
	}
	// Rounding leaves a tiny spread on constant columns.
	if st.StdDev < 10*epsilon*math.Max(1, math.Abs(st.Mean)) {
		st.StdDev = 0
	}
	return st
}

func (t *ZScore) Details() []slog.Attr {
	attrs := make([]slog.Attr, 0, len(t.Stats))
	for _, st := range t.Stats {
		attrs = append(attrs, slog.Group(st.Column,
			slog.Float64("mean", st.Mean),
			slog.Float64("std", st.StdDev),
		))
	}
	return attrs
}

// floats collects the non-null values of a numeric column and returns an
// accessor for per-row reads.
func floats(col ap.Column) ([]float64, func(row int) (float64, bool), error) {
	var get func(row int) (float64, bool)
	switch c := col.(type) {
	case *ap.FloatColumn:
		get = c.Get
	case *ap.IntColumn:
		get = func(row int) (float64, bool) {
			v, ok := c.Get(row)
			return float64(v), ok
		}
	default:
		return nil, nil, fmt.Errorf("zscore: column %q is %v, want numeric", col.Name(), col.Kind())
	}
	values := make([]float64, 0, col.Len())
	for row := 0; row < col.Len(); row++ {
		if v, ok := get(row); ok {
			values = append(values, v)
		}
	}
	return values, get, nil
}

// Package derive computes new columns from existing ones: lookup-table
// mappings, per-row ratios and grouped rates.
package derive

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	ap "github.com/wdm0006/admitprep/pkg/admitprep"
)

// ErrUnmapped is returned in strict mode when a label has no table entry.
var ErrUnmapped = errors.New("unmapped category")

// keyAt returns the cell as a lookup key. Integral floats format like ints
// so that 7 and 7.0 share a key.
func keyAt(col ap.Column, row int) (string, bool) {
	switch c := col.(type) {
	case *ap.StringColumn:
		return c.Get(row)
	case *ap.IntColumn:
		v, ok := c.Get(row)
		return strconv.FormatInt(v, 10), ok
	case *ap.FloatColumn:
		v, ok := c.Get(row)
		if !ok {
			return "", false
		}
		if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
			return strconv.FormatInt(int64(v), 10), true
		}
		return strconv.FormatFloat(v, 'g', -1, 64), true
	}
	return "", false
}

func numericColumn(f *ap.Frame, name string) (func(row int) (float64, bool), error) {
	col, err := f.Lookup(name)
	if err != nil {
		return nil, err
	}
	switch c := col.(type) {
	case *ap.FloatColumn:
		return c.Get, nil
	case *ap.IntColumn:
		return func(row int) (float64, bool) {
			v, ok := c.Get(row)
			return float64(v), ok
		}, nil
	}
	return nil, fmt.Errorf("column %q is %v, want numeric", name, col.Kind())
}

package validate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	ap "github.com/wdm0006/admitprep/pkg/admitprep"
)

// ErrOutsideSet reports values outside the allowed set.
var ErrOutsideSet = errors.New("values outside allowed set")

// InSet fails when a non-null value of Column is not in Values.
type InSet struct {
	Column string
	Values map[string]struct{}
}

func NewInSet(col string, vals []string) *InSet {
	m := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		m[v] = struct{}{}
	}
	return &InSet{Column: col, Values: m}
}

func (t *InSet) Name() string { return "validate_in:" + t.Column }

func (t *InSet) Apply(ctx context.Context, f *ap.Frame) (*ap.Frame, error) {
	col, err := f.Lookup(t.Column)
	if err != nil {
		return nil, err
	}
	sc, ok := col.(*ap.StringColumn)
	if !ok {
		return nil, fmt.Errorf("validate_in: column %s is %v, want string", t.Column, col.Kind())
	}
	var bad int
	seen := map[string]struct{}{}
	for i := 0; i < sc.Len(); i++ {
		v, ok := sc.Get(i)
		if !ok {
			continue
		}
		if _, ok := t.Values[v]; !ok {
			bad++
			seen[v] = struct{}{}
		}
	}
	if bad > 0 {
		vals := make([]string, 0, len(seen))
		for v := range seen {
			vals = append(vals, fmt.Sprintf("%q", v))
		}
		sort.Strings(vals)
		return nil, fmt.Errorf("%w: column %s has %d rows with %s", ErrOutsideSet, t.Column, bad, strings.Join(vals, ", "))
	}
	return f, nil
}

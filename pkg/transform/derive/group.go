package derive

import (
	"context"
	"log/slog"
	"sort"
	"strconv"

	ap "github.com/wdm0006/admitprep/pkg/admitprep"
)

// GroupStat is the per-group breakdown computed by GroupLossRate.
type GroupStat struct {
	Key      string  `json:"key"`
	Total    int     `json:"total"`
	Same     int     `json:"same"`
	LossRate float64 `json:"loss_rate"`
}

// GroupLossRate computes, for every distinct value of Group, the fraction
// of its rows whose Target differs from the group key, and broadcasts it
// back onto each row as Output. Rows with a null Group get a null rate; a
// null Target counts as a difference.
type GroupLossRate struct {
	Group  string
	Target string
	Output string

	// Groups is set by Apply, ordered by key.
	Groups []GroupStat
}

func (t *GroupLossRate) Name() string { return "group_loss_rate:" + t.Output }

func (t *GroupLossRate) Apply(ctx context.Context, f *ap.Frame) (*ap.Frame, error) {
	gcol, err := f.Lookup(t.Group)
	if err != nil {
		return nil, err
	}
	tcol, err := f.Lookup(t.Target)
	if err != nil {
		return nil, err
	}

	type counts struct{ total, same int }
	groups := make(map[string]*counts)
	for row := 0; row < f.Rows(); row++ {
		g, ok := keyAt(gcol, row)
		if !ok {
			continue
		}
		c := groups[g]
		if c == nil {
			c = &counts{}
			groups[g] = c
		}
		c.total++
		if v, ok := keyAt(tcol, row); ok && v == g {
			c.same++
		}
	}

	rates := make(map[string]float64, len(groups))
	t.Groups = make([]GroupStat, 0, len(groups))
	for k, c := range groups {
		rate := 0.0
		if c.total > 0 {
			rate = 1 - float64(c.same)/float64(c.total)
		}
		rates[k] = rate
		t.Groups = append(t.Groups, GroupStat{Key: k, Total: c.total, Same: c.same, LossRate: rate})
	}
	sortGroups(t.Groups)

	out := ap.NewFloatColumn(t.Output, f.Rows())
	for row := 0; row < f.Rows(); row++ {
		g, ok := keyAt(gcol, row)
		if !ok {
			out.SetNull(row)
			continue
		}
		out.Set(row, rates[g])
	}
	if err := f.AddColumn(out, true); err != nil {
		return nil, err
	}
	return f, nil
}

func (t *GroupLossRate) Details() []slog.Attr {
	return []slog.Attr{slog.Int("groups", len(t.Groups))}
}

// sortGroups orders numerically when both keys parse as numbers.
func sortGroups(gs []GroupStat) {
	sort.Slice(gs, func(i, j int) bool {
		a, errA := strconv.ParseFloat(gs[i].Key, 64)
		b, errB := strconv.ParseFloat(gs[j].Key, 64)
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		}
		return gs[i].Key < gs[j].Key
	})
}

// SameKey stores 1 in Output when Left equals Right and 0 otherwise.
type SameKey struct {
	Left   string
	Right  string
	Output string
}

func (t *SameKey) Name() string { return "same_key:" + t.Output }

func (t *SameKey) Apply(ctx context.Context, f *ap.Frame) (*ap.Frame, error) {
	lcol, err := f.Lookup(t.Left)
	if err != nil {
		return nil, err
	}
	rcol, err := f.Lookup(t.Right)
	if err != nil {
		return nil, err
	}
	out := ap.NewIntColumn(t.Output, f.Rows())
	for row := 0; row < f.Rows(); row++ {
		l, okL := keyAt(lcol, row)
		r, okR := keyAt(rcol, row)
		if !okL || !okR {
			out.SetNull(row)
			continue
		}
		if l == r {
			out.Set(row, 1)
		} else {
			out.Set(row, 0)
		}
	}
	if err := f.AddColumn(out, true); err != nil {
		return nil, err
	}
	return f, nil
}

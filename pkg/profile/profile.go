// Package profile summarises the columns of a cleaned frame: counts, nulls,
// numeric ranges and the most frequent labels.
package profile

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	ap "github.com/wdm0006/admitprep/pkg/admitprep"
)

type NumStats struct {
	Count int     `json:"count"`
	Nulls int     `json:"nulls"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Sum   float64 `json:"sum"`
}

// Mean is Sum/Count, or 0 for an empty column.
func (n *NumStats) Mean() float64 {
	if n.Count == 0 {
		return 0
	}
	return n.Sum / float64(n.Count)
}

func (n *NumStats) add(v float64) {
	n.Count++
	n.Min = math.Min(n.Min, v)
	n.Max = math.Max(n.Max, v)
	n.Sum += v
}

type StringStats struct {
	Count int            `json:"count"`
	Nulls int            `json:"nulls"`
	Freqs map[string]int `json:"-"`
}

// Freq is one label and how often it occurred.
type Freq struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

type ColumnProfile struct {
	Name string
	Kind ap.Kind
	Num  *NumStats
	Str  *StringStats
}

// Collector accumulates column statistics over one or more frames sharing
// a schema.
type Collector struct {
	cols  []ColumnProfile
	index map[string]int
	topK  int
}

func NewCollector(schema ap.Schema, topK int) *Collector {
	c := &Collector{index: make(map[string]int), topK: topK}
	c.cols = make([]ColumnProfile, len(schema.Columns))
	for i, cs := range schema.Columns {
		cp := ColumnProfile{Name: cs.Name, Kind: cs.Type}
		switch cs.Type {
		case ap.KindFloat, ap.KindInt:
			cp.Num = &NumStats{Min: math.Inf(1), Max: math.Inf(-1)}
		default:
			cp.Str = &StringStats{Freqs: make(map[string]int)}
		}
		c.cols[i] = cp
		c.index[cs.Name] = i
	}
	return c
}

// ConsumeFrame adds the rows of f. Columns not in the collector's schema are
// ignored.
func (c *Collector) ConsumeFrame(f *ap.Frame) {
	for _, name := range f.Names() {
		idx, ok := c.index[name]
		if !ok {
			continue
		}
		cp := &c.cols[idx]
		col, _ := f.ColumnByName(name)
		switch tc := col.(type) {
		case *ap.FloatColumn:
			for i := 0; i < tc.Len(); i++ {
				v, ok := tc.Get(i)
				if !ok || math.IsNaN(v) {
					cp.Num.Nulls++
					continue
				}
				cp.Num.add(v)
			}
		case *ap.IntColumn:
			for i := 0; i < tc.Len(); i++ {
				v, ok := tc.Get(i)
				if !ok {
					cp.Num.Nulls++
					continue
				}
				cp.Num.add(float64(v))
			}
		case *ap.StringColumn:
			for i := 0; i < tc.Len(); i++ {
				v, ok := tc.Get(i)
				if !ok {
					cp.Str.Nulls++
					continue
				}
				cp.Str.Count++
				if c.topK > 0 {
					cp.Str.Freqs[v]++
				}
			}
		}
	}
}

// Columns returns the profiles in schema order.
func (c *Collector) Columns() []ColumnProfile { return c.cols }

// Top returns up to k labels ordered by count, ties broken by label.
func (s *StringStats) Top(k int) []Freq {
	out := make([]Freq, 0, len(s.Freqs))
	for v, n := range s.Freqs {
		out = append(out, Freq{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if k > 0 && k < len(out) {
		out = out[:k]
	}
	return out
}

// WriteText renders the profile as an indented listing.
func (c *Collector) WriteText(w io.Writer) error {
	var b strings.Builder
	b.WriteString("Profile Summary\n")
	for _, cp := range c.cols {
		fmt.Fprintf(&b, "- %s (%v): ", cp.Name, cp.Kind)
		if cp.Num != nil {
			if cp.Num.Count == 0 {
				fmt.Fprintf(&b, "count=0 nulls=%d\n", cp.Num.Nulls)
				continue
			}
			fmt.Fprintf(&b, "count=%d nulls=%d min=%.6g max=%.6g mean=%.6g\n",
				cp.Num.Count, cp.Num.Nulls, cp.Num.Min, cp.Num.Max, cp.Num.Mean())
			continue
		}
		fmt.Fprintf(&b, "count=%d nulls=%d\n", cp.Str.Count, cp.Str.Nulls)
		for _, fq := range cp.Str.Top(c.topK) {
			fmt.Fprintf(&b, "  * %q: %d\n", fq.Value, fq.Count)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

type JSONProfile struct {
	Columns []JSONColumn `json:"columns"`
}

type JSONColumn struct {
	Name string    `json:"name"`
	Kind string    `json:"kind"`
	Num  *JSONNum  `json:"num,omitempty"`
	Str  *JSONText `json:"str,omitempty"`
}

type JSONNum struct {
	Count int      `json:"count"`
	Nulls int      `json:"nulls"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
	Mean  *float64 `json:"mean,omitempty"`
}

type JSONText struct {
	Count int    `json:"count"`
	Nulls int    `json:"nulls"`
	Top   []Freq `json:"top,omitempty"`
}

// ReportJSON returns a JSON-safe view of the profile; empty numeric columns
// omit min, max and mean.
func (c *Collector) ReportJSON() JSONProfile {
	out := JSONProfile{Columns: make([]JSONColumn, 0, len(c.cols))}
	for _, cp := range c.cols {
		jc := JSONColumn{Name: cp.Name, Kind: cp.Kind.String()}
		if cp.Num != nil {
			jn := &JSONNum{Count: cp.Num.Count, Nulls: cp.Num.Nulls}
			if cp.Num.Count > 0 {
				mn, mx, mean := cp.Num.Min, cp.Num.Max, cp.Num.Mean()
				jn.Min, jn.Max, jn.Mean = &mn, &mx, &mean
			}
			jc.Num = jn
		} else {
			jc.Str = &JSONText{Count: cp.Str.Count, Nulls: cp.Str.Nulls, Top: cp.Str.Top(c.topK)}
		}
		out.Columns = append(out.Columns, jc)
	}
	return out
}

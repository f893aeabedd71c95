package profile

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ap "github.com/wdm0006/admitprep/pkg/admitprep"
)

func frame(t *testing.T) *ap.Frame {
	t.Helper()
	f := ap.NewFrame(ap.Schema{Columns: []ap.ColumnSchema{
		{Name: "Age_numeric", Type: ap.KindFloat, Nullable: true},
		{Name: "Severity_encoded", Type: ap.KindInt, Nullable: true},
		{Name: "Age_Group", Type: ap.KindString, Nullable: true},
	}})
	ages := []float64{55, 25, 85, 25}
	sev := []int64{3, 1, 2, 1}
	groups := []string{"Middle", "Young", "Senior", "Young"}
	for i := range ages {
		f.AppendNullRow()
		require.NoError(t, f.SetCell(i, "Age_numeric", ages[i]))
		require.NoError(t, f.SetCell(i, "Severity_encoded", sev[i]))
		require.NoError(t, f.SetCell(i, "Age_Group", groups[i]))
	}
	f.AppendNullRow()
	return f
}

func TestCollector(t *testing.T) {
	f := frame(t)
	c := NewCollector(f.Schema(), 2)
	c.ConsumeFrame(f)
	cols := c.Columns()
	require.Len(t, cols, 3)

	age := cols[0].Num
	assert.Equal(t, 4, age.Count)
	assert.Equal(t, 1, age.Nulls)
	assert.Equal(t, 25.0, age.Min)
	assert.Equal(t, 85.0, age.Max)
	assert.InDelta(t, 47.5, age.Mean(), 1e-12)

	assert.Equal(t, 7.0, cols[1].Num.Sum)
	assert.Equal(t, []Freq{{"Young", 2}, {"Middle", 1}}, cols[2].Str.Top(2))
}

func TestReports(t *testing.T) {
	f := frame(t)
	c := NewCollector(f.Schema(), 1)
	c.ConsumeFrame(f)

	var buf bytes.Buffer
	require.NoError(t, c.WriteText(&buf))
	assert.Contains(t, buf.String(), "- Age_numeric (float): count=4 nulls=1 min=25 max=85 mean=47.5")
	assert.Contains(t, buf.String(), `* "Young": 2`)

	empty := NewCollector(ap.Schema{Columns: []ap.ColumnSchema{{Name: "x", Type: ap.KindFloat}}}, 0)
	b, err := json.Marshal(empty.ReportJSON())
	require.NoError(t, err)
	assert.JSONEq(t, `{"columns":[{"name":"x","kind":"float","num":{"count":0,"nulls":0}}]}`, string(b))
}

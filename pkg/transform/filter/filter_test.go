package filter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ap "github.com/wdm0006/admitprep/pkg/admitprep"
)

func frame(t *testing.T) *ap.Frame {
	t.Helper()
	f := ap.NewFrame(ap.Schema{Columns: []ap.ColumnSchema{
		{Name: "Bed Grade", Type: ap.KindFloat, Nullable: true},
		{Name: "City_Code_Hospital", Type: ap.KindInt, Nullable: true},
		{Name: "Stay", Type: ap.KindString, Nullable: true},
	}})
	rows := [][]any{
		{2.0, int64(3), "0-10"},
		{nil, int64(5), "41-50"},
		{2.0, int64(1), "2025/11/20"},
		{3.0, int64(2), "41-50"},
		{1.0, nil, "2025/11/20"},
	}
	for i, r := range rows {
		f.AppendNullRow()
		for c, name := range f.Names() {
			require.NoError(t, f.SetCell(i, name, r[c]))
		}
	}
	return f
}

func TestDropNulls(t *testing.T) {
	tr := &DropNulls{}
	out, err := tr.Apply(context.Background(), frame(t))
	require.NoError(t, err)
	assert.Equal(t, 3, out.Rows())
	assert.Equal(t, 2, tr.Removed)
	for r := 0; r < out.Rows(); r++ {
		assert.False(t, out.RowHasNull(r))
	}
	assert.Equal(t, "drop_nulls", tr.Name())
}

func TestDropNullsAllRows(t *testing.T) {
	f := ap.NewFrame(ap.Schema{Columns: []ap.ColumnSchema{{Name: "x", Type: ap.KindFloat, Nullable: true}}})
	f.AppendNullRow()
	f.AppendNullRow()
	tr := &DropNulls{}
	out, err := tr.Apply(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Rows())
	assert.Equal(t, 2, tr.Removed)
}

func TestDropEqualsString(t *testing.T) {
	tr := &DropEquals{Column: "Stay", Value: "2025/11/20"}
	out, err := tr.Apply(context.Background(), frame(t))
	require.NoError(t, err)
	assert.Equal(t, 3, out.Rows())
	assert.Equal(t, 2, tr.Removed)
	stay, _ := out.ColumnByName("Stay")
	for r := 0; r < out.Rows(); r++ {
		assert.NotEqual(t, "2025/11/20", stay.Value(r))
	}
}

func TestDropEqualsNoMatchStillReports(t *testing.T) {
	tr := &DropEquals{Column: "Stay", Value: "1999/01/01", Removed: 7}
	out, err := tr.Apply(context.Background(), frame(t))
	require.NoError(t, err)
	assert.Equal(t, 5, out.Rows())
	assert.Equal(t, 0, tr.Removed)
	require.NotEmpty(t, tr.Details())
}

func TestDropEqualsNumeric(t *testing.T) {
	tr := &DropEquals{Column: "City_Code_Hospital", Value: "5"}
	out, err := tr.Apply(context.Background(), frame(t))
	require.NoError(t, err)
	assert.Equal(t, 4, out.Rows())

	tr = &DropEquals{Column: "Bed Grade", Value: "2"}
	out, err = tr.Apply(context.Background(), frame(t))
	require.NoError(t, err)
	assert.Equal(t, 3, out.Rows())

	tr = &DropEquals{Column: "Bed Grade", Value: "not-a-number"}
	out, err = tr.Apply(context.Background(), frame(t))
	require.NoError(t, err)
	assert.Equal(t, 5, out.Rows())
}

func TestDropEqualsMissingColumn(t *testing.T) {
	_, err := (&DropEquals{Column: "stay", Value: "x"}).Apply(context.Background(), frame(t))
	require.ErrorIs(t, err, ap.ErrColumnNotFound)
}

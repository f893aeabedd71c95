package validate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ap "github.com/wdm0006/admitprep/pkg/admitprep"
)

func severities(t *testing.T, vals ...any) *ap.Frame {
	t.Helper()
	f := ap.NewFrame(ap.Schema{Columns: []ap.ColumnSchema{
		{Name: "Severity of Illness", Type: ap.KindString, Nullable: true},
		{Name: "n", Type: ap.KindInt, Nullable: true},
	}})
	for i, v := range vals {
		f.AppendNullRow()
		require.NoError(t, f.SetCell(i, "Severity of Illness", v))
	}
	return f
}

func TestInSetPasses(t *testing.T) {
	f := severities(t, "Minor", nil, "Extreme")
	out, err := NewInSet("Severity of Illness", []string{"Minor", "Moderate", "Extreme"}).Apply(context.Background(), f)
	require.NoError(t, err)
	assert.Same(t, f, out)
}

func TestInSetReportsSortedOffenders(t *testing.T) {
	f := severities(t, "Minor", "severe", "Critical", "severe")
	_, err := NewInSet("Severity of Illness", []string{"Minor", "Moderate", "Extreme"}).Apply(context.Background(), f)
	require.ErrorIs(t, err, ErrOutsideSet)
	assert.Contains(t, err.Error(), `3 rows with "Critical", "severe"`)
}

func TestInSetColumnErrors(t *testing.T) {
	f := severities(t, "Minor")
	_, err := NewInSet("Severity", nil).Apply(context.Background(), f)
	require.ErrorIs(t, err, ap.ErrColumnNotFound)

	_, err = NewInSet("n", []string{"1"}).Apply(context.Background(), f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want string")
}

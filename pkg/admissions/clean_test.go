package admissions

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ap "github.com/wdm0006/admitprep/pkg/admitprep"
	"github.com/wdm0006/admitprep/pkg/io/csvio"
	"github.com/wdm0006/admitprep/pkg/transform/derive"
	"github.com/wdm0006/admitprep/pkg/transform/scale"
	"github.com/wdm0006/admitprep/pkg/transform/validate"
)

var fixture = filepath.FromSlash("../../examples/data/admissions_small.csv")

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func loadFixture(t *testing.T) *ap.Frame {
	t.Helper()
	return loadFile(t, fixture)
}

func loadFile(t *testing.T, path string) *ap.Frame {
	t.Helper()
	sr, closer, err := csvio.NewStreamReader(path, csvio.ReaderOptions{HasHeader: true}, 2, CoerceSchema)
	require.NoError(t, err)
	defer func() { _ = closer.Close() }()
	f, err := ap.Load(sr)
	require.NoError(t, err)
	return f
}

// admission holds the fields that vary between test rows.
type admission struct {
	cityPatient  any
	cityHospital int64
	severity     string
	visitors     int64
	age          string
	deposit      float64
	stay         string
}

func frameOf(t *testing.T, rows ...admission) *ap.Frame {
	t.Helper()
	f := ap.NewFrame(InputSchema())
	for i, a := range rows {
		f.AppendNullRow()
		cells := map[string]any{
			CaseID: int64(i + 1), HospitalCode: int64(8), HospitalTypeCode: "c",
			CityCodeHospital: a.cityHospital, HospitalRegionCode: "Z", ExtraRooms: int64(3),
			Department: "radiotherapy", WardType: "R", WardFacilityCode: "F",
			BedGrade: 2.0, PatientID: int64(31397), CityCodePatient: a.cityPatient,
			AdmissionType: "Emergency", Severity: a.severity, Visitors: a.visitors,
			Age: a.age, AdmissionDeposit: a.deposit, Stay: a.stay,
		}
		for name, v := range cells {
			require.NoError(t, f.SetCell(i, name, v))
		}
	}
	return f
}

func column(t *testing.T, f *ap.Frame, name string) []any {
	t.Helper()
	col, err := f.Lookup(name)
	require.NoError(t, err)
	out := make([]any, col.Len())
	for i := range out {
		out[i] = col.Value(i)
	}
	return out
}

func TestCleanFixtureEndToEnd(t *testing.T) {
	out, sum, err := Clean(context.Background(), loadFixture(t), Options{Logger: quiet()})
	require.NoError(t, err)

	require.Equal(t, 3, out.Rows())
	assert.Equal(t, 28, out.Cols())
	assert.Equal(t, DerivedColumns(), out.Names()[18:])
	assert.Equal(t, DerivedColumns(), sum.NewColumns)
	assert.Equal(t, 0, out.NullCount())

	assert.Equal(t, []any{int64(1), int64(4), int64(5)}, column(t, out, CaseID))
	assert.Equal(t, []any{55.0, 25.0, 85.0}, column(t, out, AgeNumeric))
	assert.Equal(t, []any{GroupMiddle, GroupYoung, GroupSenior}, column(t, out, AgeGroup))
	assert.Equal(t, []any{5.5, 45.5, 120.0}, column(t, out, StayNumeric))
	assert.Equal(t, []any{2 / 5.5, 4 / 45.5, 3 / 120.0}, column(t, out, DailyVisitorsRate))
	assert.Equal(t, []any{0.5, 0.0, 0.5}, column(t, out, CityPatientLossRate))
	assert.Equal(t, []any{int64(0), int64(1), int64(1)}, column(t, out, SameCityTreatment))
	assert.Equal(t, []any{int64(3), int64(1), int64(2)}, column(t, out, SeverityEncoded))

	for _, name := range ScaledColumns {
		var xs []float64
		for _, v := range column(t, out, name+ScaledSuffix) {
			xs = append(xs, v.(float64))
		}
		var mean, ss float64
		for _, x := range xs {
			mean += x
		}
		mean /= float64(len(xs))
		for _, x := range xs {
			ss += (x - mean) * (x - mean)
		}
		assert.InDelta(t, 0, mean, 1e-12, name)
		assert.InDelta(t, 1, math.Sqrt(ss/float64(len(xs))), 1e-12, name)
	}

	assert.Equal(t, 5, sum.RawRows)
	assert.Equal(t, 1, sum.NullRowsRemoved)
	assert.Equal(t, 4, sum.AfterNulls)
	assert.InDelta(t, 80.0, sum.NullRetention, 1e-9)
	assert.Equal(t, 1, sum.SentinelRowsRemoved)
	assert.Equal(t, 3, sum.AfterSentinel)
	assert.InDelta(t, 60.0, sum.SentinelRetention, 1e-9)
	assert.Equal(t, []derive.GroupStat{
		{Key: "2", Total: 1, Same: 1, LossRate: 0},
		{Key: "7", Total: 2, Same: 1, LossRate: 0.5},
	}, sum.Cities)
	require.Len(t, sum.Scaling, 3)
	assert.Equal(t, AgeNumeric, sum.Scaling[2].Column)
	assert.InDelta(t, 55, sum.Scaling[2].Mean, 1e-12)
	assert.Empty(t, sum.Unmapped)
	assert.Equal(t, 0, sum.ZeroDenominators)
	assert.Equal(t, 3, sum.FinalRows)
	assert.Equal(t, 0, sum.FinalNulls)
}

func TestCleanGzipFixture(t *testing.T) {
	plain, want, err := Clean(context.Background(), loadFixture(t), Options{Logger: quiet()})
	require.NoError(t, err)
	out, sum, err := Clean(context.Background(), loadFile(t, fixture+".gz"), Options{Logger: quiet()})
	require.NoError(t, err)
	assert.Equal(t, plain.Names(), out.Names())
	assert.Equal(t, column(t, plain, DailyVisitorsRate), column(t, out, DailyVisitorsRate))
	assert.Equal(t, want.Cities, sum.Cities)
	assert.Equal(t, want.Scaling, sum.Scaling)
}

func TestCleanerReuseKeepsEarlierSummary(t *testing.T) {
	c := New(Options{Logger: quiet()})
	_, first, err := c.Run(context.Background(), frameOf(t, sampleRows()...))
	require.NoError(t, err)
	cities := append([]derive.GroupStat(nil), first.Cities...)
	scaling := append([]scale.Stats(nil), first.Scaling...)

	rows := sampleRows()
	for i := range rows {
		rows[i].cityPatient = 99.0
		rows[i].deposit += 1000
	}
	_, second, err := c.Run(context.Background(), frameOf(t, rows...))
	require.NoError(t, err)
	require.Len(t, second.Cities, 1)
	assert.Equal(t, "99", second.Cities[0].Key)

	assert.Equal(t, cities, first.Cities)
	assert.Equal(t, scaling, first.Scaling)
}

func TestRetentionNeverIncreases(t *testing.T) {
	_, sum, err := Clean(context.Background(), loadFixture(t), Options{Logger: quiet()})
	require.NoError(t, err)
	prev := sum.Report.RowsIn
	for _, st := range sum.Report.Steps {
		assert.LessOrEqual(t, st.RowsOut, prev, st.Name)
		prev = st.RowsOut
	}
	assert.GreaterOrEqual(t, sum.NullRetention, sum.SentinelRetention)
	assert.InDelta(t, sum.SentinelRetention, sum.Report.Retention(), 1e-9)
}

func TestCleanStepOrder(t *testing.T) {
	var names []string
	for _, s := range New(Options{Strict: true}).Pipeline().Steps() {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{
		"drop_nulls", "drop_equals",
		"validate_in:" + Age, "validate_in:" + Stay, "validate_in:" + Severity,
		"map_number:" + AgeNumeric, "map_label:" + AgeGroup, "map_number:" + StayNumeric,
		"ratio:" + DailyVisitorsRate, "group_loss_rate:" + CityPatientLossRate,
		"same_key:" + SameCityTreatment, "map_number:" + SeverityEncoded, "zscore",
	}, names)
}

func sampleRows() []admission {
	return []admission{
		{cityPatient: 7.0, cityHospital: 3, severity: "Extreme", visitors: 2, age: "51-60", deposit: 4911, stay: "0-10"},
		{cityPatient: 2.0, cityHospital: 2, severity: "Minor", visitors: 4, age: "21-30", deposit: 7272, stay: "41-50"},
		{cityPatient: 7.0, cityHospital: 7, severity: "Moderate", visitors: 3, age: "81-90", deposit: 5558, stay: LongStayLabel},
	}
}

func TestUnmappedLabels(t *testing.T) {
	rows := sampleRows()
	rows[2].age = "100+"
	rows[1].severity = "Critical"
	out, sum, err := Clean(context.Background(), frameOf(t, rows...), Options{Logger: quiet()})
	require.NoError(t, err)
	assert.Equal(t, []any{55.0, 25.0, nil}, column(t, out, AgeNumeric))
	assert.Equal(t, GroupSenior, column(t, out, AgeGroup)[2])
	assert.Nil(t, column(t, out, SeverityEncoded)[1])
	assert.Nil(t, column(t, out, AgeNumeric+ScaledSuffix)[2])
	assert.Equal(t, map[string][]string{Age: {"100+"}, Severity: {"Critical"}}, sum.Unmapped)
	assert.Equal(t, 3, sum.FinalNulls)
}

func TestStrictRejectsUnknownLabels(t *testing.T) {
	rows := sampleRows()
	rows[0].stay = "Unknown"
	_, _, err := Clean(context.Background(), frameOf(t, rows...), Options{Strict: true, Logger: quiet()})
	require.ErrorIs(t, err, validate.ErrOutsideSet)
	assert.Contains(t, err.Error(), `"Unknown"`)
}

func TestZeroVariancePolicy(t *testing.T) {
	rows := sampleRows()
	for i := range rows {
		rows[i].visitors = 2
	}
	_, _, err := Clean(context.Background(), frameOf(t, rows...), Options{Logger: quiet()})
	require.ErrorIs(t, err, scale.ErrZeroVariance)

	out, _, err := Clean(context.Background(), frameOf(t, rows...), Options{ZeroVariance: scale.ZeroVarianceZero, Logger: quiet()})
	require.NoError(t, err)
	assert.Equal(t, []any{0.0, 0.0, 0.0}, column(t, out, Visitors+ScaledSuffix))
}

func TestCustomSentinelAndLogging(t *testing.T) {
	rows := sampleRows()
	rows = append(rows, admission{cityPatient: 1.0, cityHospital: 1, severity: "Minor", visitors: 9, age: "0-10", deposit: 1000, stay: "1900/01/01"})
	var buf bytes.Buffer
	out, sum, err := Clean(context.Background(), frameOf(t, rows...), Options{
		Sentinel: "1900/01/01",
		Logger:   slog.New(slog.NewTextHandler(&buf, nil)),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Rows())
	assert.Equal(t, 1, sum.SentinelRowsRemoved)
	assert.Contains(t, buf.String(), "step=drop_equals")
	assert.Contains(t, buf.String(), "matched_rows=1")
}

func TestEmptyAfterFiltering(t *testing.T) {
	rows := sampleRows()
	for i := range rows {
		rows[i].stay = SentinelStay
	}
	out, sum, err := Clean(context.Background(), frameOf(t, rows...), Options{Logger: quiet()})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Rows())
	assert.Equal(t, 28, out.Cols())
	assert.Equal(t, 0.0, sum.SentinelRetention)
	assert.Empty(t, sum.Cities)
}

func TestMissingColumnFails(t *testing.T) {
	f := ap.NewFrame(ap.Schema{Columns: []ap.ColumnSchema{{Name: Age, Type: ap.KindString}}})
	f.AppendNullRow()
	require.NoError(t, f.SetCell(0, Age, "0-10"))
	_, _, err := Clean(context.Background(), f, Options{Logger: quiet()})
	require.ErrorIs(t, err, ap.ErrColumnNotFound)
}

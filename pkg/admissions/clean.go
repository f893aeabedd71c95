package admissions

import (
	"context"
	"log/slog"

	ap "github.com/wdm0006/admitprep/pkg/admitprep"
	"github.com/wdm0006/admitprep/pkg/transform/derive"
	"github.com/wdm0006/admitprep/pkg/transform/filter"
	"github.com/wdm0006/admitprep/pkg/transform/scale"
	"github.com/wdm0006/admitprep/pkg/transform/validate"
)

// Options tune the cleaning run. The zero value reproduces the reference
// behaviour except for constant scaled columns, which fail the run.
type Options struct {
	// Sentinel overrides SentinelStay.
	Sentinel string
	// Strict fails on age, stay or severity labels missing from the lookup
	// tables instead of leaving nulls in the derived columns.
	Strict       bool
	ZeroVariance scale.ZeroVariancePolicy
	// SampleStd scales with the n-1 standard deviation.
	SampleStd bool
	Logger    *slog.Logger
}

// Summary describes what a cleaning run did.
type Summary struct {
	RawRows             int     `json:"raw_rows"`
	NullRowsRemoved     int     `json:"null_rows_removed"`
	AfterNulls          int     `json:"after_nulls"`
	NullRetention       float64 `json:"null_retention_pct"`
	SentinelRowsRemoved int     `json:"sentinel_rows_removed"`
	AfterSentinel       int     `json:"after_sentinel"`
	SentinelRetention   float64 `json:"sentinel_retention_pct"`

	Cities  []derive.GroupStat `json:"cities"`
	Scaling []scale.Stats      `json:"scaling"`
	// Unmapped lists labels, per source column, that had no table entry.
	Unmapped         map[string][]string `json:"unmapped,omitempty"`
	ZeroDenominators int                 `json:"zero_denominators"`

	FinalRows  int        `json:"final_rows"`
	FinalCols  int        `json:"final_cols"`
	FinalNulls int        `json:"final_nulls"`
	NewColumns []string   `json:"new_columns"`
	Report     *ap.Report `json:"report"`
}

// Cleaner is a configured admissions pipeline. A Cleaner keeps the
// diagnostics of its last run and should not be shared between goroutines.
type Cleaner struct {
	pipeline *ap.Pipeline

	nulls    *filter.DropNulls
	sentinel *filter.DropEquals
	ageNum   *derive.MapNumber
	stayNum  *derive.MapNumber
	sevNum   *derive.MapNumber
	visitors *derive.Ratio
	loss     *derive.GroupLossRate
	scaler   *scale.ZScore
}

// New builds the ordered pipeline: completeness filter, sentinel filter,
// feature derivation, city loss rate and normalization.
func New(opts Options) *Cleaner {
	sentinel := opts.Sentinel
	if sentinel == "" {
		sentinel = SentinelStay
	}
	c := &Cleaner{
		nulls:    &filter.DropNulls{},
		sentinel: &filter.DropEquals{Column: Stay, Value: sentinel},
		ageNum:   &derive.MapNumber{Column: Age, Output: AgeNumeric, Table: AgeMidpoints(), Kind: ap.KindFloat, Strict: opts.Strict},
		stayNum:  &derive.MapNumber{Column: Stay, Output: StayNumeric, Table: StayMidpoints(), Kind: ap.KindFloat, Strict: opts.Strict},
		sevNum:   &derive.MapNumber{Column: Severity, Output: SeverityEncoded, Table: SeverityLevels(), Kind: ap.KindInt, Strict: opts.Strict},
		visitors: &derive.Ratio{Numerator: Visitors, Denominator: StayNumeric, Output: DailyVisitorsRate},
		loss:     &derive.GroupLossRate{Group: CityCodePatient, Target: CityCodeHospital, Output: CityPatientLossRate},
		scaler:   &scale.ZScore{Columns: ScaledColumns, Suffix: ScaledSuffix, Sample: opts.SampleStd, ZeroVariance: opts.ZeroVariance},
	}

	p := ap.NewPipeline().Add(c.nulls).Add(c.sentinel)
	if opts.Logger != nil {
		p.WithLogger(opts.Logger)
	}
	if opts.Strict {
		p.Add(validate.NewInSet(Age, AgeBuckets)).
			Add(validate.NewInSet(Stay, labels(stayMidpoints))).
			Add(validate.NewInSet(Severity, labels(severityLevels)))
	}
	p.Add(c.ageNum).
		Add(&derive.MapLabel{Column: Age, Output: AgeGroup, Table: AgeGroups(), Default: GroupSenior}).
		Add(c.stayNum).
		Add(c.visitors).
		Add(c.loss).
		Add(&derive.SameKey{Left: CityCodePatient, Right: CityCodeHospital, Output: SameCityTreatment}).
		Add(c.sevNum).
		Add(c.scaler)
	c.pipeline = p
	return c
}

// Pipeline exposes the underlying steps.
func (c *Cleaner) Pipeline() *ap.Pipeline { return c.pipeline }

// Run cleans f. The input frame may be modified; use the returned frame.
func (c *Cleaner) Run(ctx context.Context, f *ap.Frame) (*ap.Frame, *Summary, error) {
	rawCols := f.Cols()
	out, rep, err := c.pipeline.Run(ctx, f)
	if err != nil {
		return nil, nil, err
	}

	s := &Summary{
		RawRows:             rep.RowsIn,
		NullRowsRemoved:     c.nulls.Removed,
		SentinelRowsRemoved: c.sentinel.Removed,
		Cities:              c.loss.Groups,
		Scaling:             c.scaler.Stats,
		ZeroDenominators:    c.visitors.ZeroDenominators,
		FinalRows:           out.Rows(),
		FinalCols:           out.Cols(),
		FinalNulls:          out.NullCount(),
		NewColumns:          out.Names()[rawCols:],
		Report:              rep,
	}
	s.AfterNulls = s.RawRows - s.NullRowsRemoved
	s.AfterSentinel = s.AfterNulls - s.SentinelRowsRemoved
	s.NullRetention = ap.Retention(s.RawRows, s.AfterNulls)
	s.SentinelRetention = ap.Retention(s.RawRows, s.AfterSentinel)
	for _, m := range []*derive.MapNumber{c.ageNum, c.stayNum, c.sevNum} {
		if len(m.Unmapped) > 0 {
			if s.Unmapped == nil {
				s.Unmapped = make(map[string][]string)
			}
			s.Unmapped[m.Column] = m.Unmapped
		}
	}
	return out, s, nil
}

// Clean runs a fresh Cleaner over f.
func Clean(ctx context.Context, f *ap.Frame, opts Options) (*ap.Frame, *Summary, error) {
	return New(opts).Run(ctx, f)
}

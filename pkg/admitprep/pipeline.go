package admitprep

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Transform is a mutation or filter applied to a Frame. Filters return a new
// Frame; derivations may add columns to the Frame they are given.
type Transform interface {
	Name() string
	Apply(ctx context.Context, f *Frame) (*Frame, error)
}

// Detailer is implemented by transforms that have diagnostics worth logging
// after Apply (removed rows, fitted statistics and so on).
type Detailer interface {
	Details() []slog.Attr
}

// StepStat records the effect of one pipeline step.
type StepStat struct {
	Name    string        `json:"name"`
	RowsIn  int           `json:"rows_in"`
	RowsOut int           `json:"rows_out"`
	ColsIn  int           `json:"cols_in"`
	ColsOut int           `json:"cols_out"`
	Elapsed time.Duration `json:"elapsed_ns"`
}

// Removed is the number of rows the step dropped.
func (s StepStat) Removed() int { return s.RowsIn - s.RowsOut }

// Report summarises a pipeline run.
type Report struct {
	RowsIn  int        `json:"rows_in"`
	RowsOut int        `json:"rows_out"`
	Steps   []StepStat `json:"steps"`
}

// Retention is the percentage of input rows that survived the run.
func (r *Report) Retention() float64 { return Retention(r.RowsIn, r.RowsOut) }

// Retention returns after/before*100, or 0 when before is 0.
func Retention(before, after int) float64 {
	if before == 0 {
		return 0
	}
	return float64(after) / float64(before) * 100
}

// Pipeline composes a sequence of Transforms.
type Pipeline struct {
	steps  []Transform
	logger *slog.Logger
}

func NewPipeline() *Pipeline { return &Pipeline{} }

func (p *Pipeline) Add(t Transform) *Pipeline {
	p.steps = append(p.steps, t)
	return p
}

// WithLogger sets the logger used for per-step diagnostics.
func (p *Pipeline) WithLogger(l *slog.Logger) *Pipeline {
	p.logger = l
	return p
}

func (p *Pipeline) log() *slog.Logger {
	if p.logger == nil {
		return slog.Default()
	}
	return p.logger
}

// Steps returns the transforms in execution order.
func (p *Pipeline) Steps() []Transform { return p.steps }

// Run applies every step in order. The first failing step aborts the run and
// no frame is returned.
func (p *Pipeline) Run(ctx context.Context, f *Frame) (*Frame, *Report, error) {
	log := p.log()
	rep := &Report{RowsIn: f.Rows()}
	cur := f
	for _, t := range p.steps {
		if err := ctx.Err(); err != nil {
			return nil, rep, err
		}
		st := StepStat{Name: t.Name(), RowsIn: cur.Rows(), ColsIn: cur.Cols()}
		start := time.Now()
		next, err := t.Apply(ctx, cur)
		if err != nil {
			log.Error("step failed", "step", t.Name(), "error", err)
			return nil, rep, fmt.Errorf("%s: %w", t.Name(), err)
		}
		cur = next
		st.Elapsed = time.Since(start)
		st.RowsOut, st.ColsOut = cur.Rows(), cur.Cols()
		rep.Steps = append(rep.Steps, st)

		attrs := []slog.Attr{
			slog.String("step", st.Name),
			slog.Int("rows_in", st.RowsIn),
			slog.Int("rows_out", st.RowsOut),
			slog.Int("removed", st.Removed()),
			slog.String("retention", fmt.Sprintf("%.2f%%", Retention(rep.RowsIn, st.RowsOut))),
		}
		if d, ok := t.(Detailer); ok {
			attrs = append(attrs, d.Details()...)
		}
		log.LogAttrs(ctx, slog.LevelInfo, "step complete", attrs...)
	}
	rep.RowsOut = cur.Rows()
	return cur, rep, nil
}

package admitprep

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func makeFrame(rows int) *Frame {
	s := Schema{Columns: []ColumnSchema{{Name: "a", Type: KindFloat, Nullable: true}, {Name: "b", Type: KindInt, Nullable: true}, {Name: "s", Type: KindString, Nullable: true}}}
	f := NewFrame(s)
	for i := 0; i < rows; i++ {
		f.AppendNullRow()
		if i%10 != 0 {
			_ = f.SetCell(i, "a", float64(i%100))
		}
		_ = f.SetCell(i, "b", int64(i%10))
		_ = f.SetCell(i, "s", "x")
	}
	return f
}

type keepComplete struct{}

func (keepComplete) Name() string { return "keep_complete" }
func (keepComplete) Apply(_ context.Context, f *Frame) (*Frame, error) {
	return f.Filter(func(r int) bool { return !f.RowHasNull(r) }), nil
}

func BenchmarkPipeline(b *testing.B) {
	f := makeFrame(100000)
	p := NewPipeline().WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).Add(keepComplete{})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = p.Run(context.Background(), f)
	}
}

func BenchmarkConcat(b *testing.B) {
	chunk := makeFrame(10000)
	for i := 0; i < b.N; i++ {
		f := makeFrame(0)
		for j := 0; j < 10; j++ {
			_ = f.Concat(chunk)
		}
	}
}

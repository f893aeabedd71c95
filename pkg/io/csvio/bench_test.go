package csvio

import (
	"testing"
)

func BenchmarkReadAdmissions(b *testing.B) {
	for n := 0; n < b.N; n++ {
		r, closer, err := Open(fixture, ReaderOptions{HasHeader: true})
		if err != nil {
			b.Fatal(err)
		}
		schema, _, err := r.InferSchema()
		if err != nil {
			b.Fatal(err)
		}
		fr, err := r.ReadAll(schema)
		if err != nil {
			b.Fatal(err)
		}
		if fr.Rows() == 0 {
			b.Fatal("no rows")
		}
		_ = closer.Close()
	}
}

// Command admitbench measures cleaning throughput on synthetic admissions.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"runtime"
	"time"

	"github.com/wdm0006/admitprep/pkg/admissions"
	ap "github.com/wdm0006/admitprep/pkg/admitprep"
	"github.com/wdm0006/admitprep/pkg/io/csvio"
)

// genSource emits chunks of admissions rows. Each row has a nullRate chance
// of a missing Bed Grade and a sentinelRate chance of the sentinel Stay.
type genSource struct {
	schema       ap.Schema
	remain       int
	chunk        int
	nullRate     float64
	sentinelRate float64
	rnd          *rand.Rand
	stays        []string
	severities   []string
	nextID       int64
}

func newGenSource(rows, chunk int, nullRate, sentinelRate float64, seed int64) *genSource {
	return &genSource{
		schema:       admissions.InputSchema(),
		remain:       rows,
		chunk:        chunk,
		nullRate:     nullRate,
		sentinelRate: sentinelRate,
		rnd:          rand.New(rand.NewSource(seed)),
		stays:        admissions.StayBuckets,
		severities:   []string{"Minor", "Moderate", "Extreme"},
	}
}

func (g *genSource) pick(xs []string) string { return xs[g.rnd.Intn(len(xs))] }

func (g *genSource) Next() (*ap.Frame, error) {
	if g.remain <= 0 {
		return nil, io.EOF
	}
	n := g.chunk
	if n > g.remain {
		n = g.remain
	}
	g.remain -= n
	f := ap.NewFrame(g.schema)
	for i := 0; i < n; i++ {
		f.AppendNullRow()
		cityHospital := int64(g.rnd.Intn(13) + 1)
		cityPatient := float64(g.rnd.Intn(13) + 1)
		if g.rnd.Float64() < 0.4 {
			cityPatient = float64(cityHospital)
		}
		stay := g.pick(g.stays)
		if g.rnd.Float64() < g.sentinelRate {
			stay = admissions.SentinelStay
		}
		cells := map[string]any{
			admissions.CaseID:             g.nextID,
			admissions.HospitalCode:       int64(g.rnd.Intn(32) + 1),
			admissions.HospitalTypeCode:   "c",
			admissions.CityCodeHospital:   cityHospital,
			admissions.HospitalRegionCode: "Z",
			admissions.ExtraRooms:         int64(g.rnd.Intn(5)),
			admissions.Department:         "gynecology",
			admissions.WardType:           "R",
			admissions.WardFacilityCode:   "F",
			admissions.BedGrade:           float64(g.rnd.Intn(4) + 1),
			admissions.PatientID:          int64(g.rnd.Intn(100000)),
			admissions.CityCodePatient:    cityPatient,
			admissions.AdmissionType:      "Trauma",
			admissions.Severity:           g.pick(g.severities),
			admissions.Visitors:           int64(g.rnd.Intn(8) + 1),
			admissions.Age:                g.pick(admissions.AgeBuckets),
			admissions.AdmissionDeposit:   2000 + g.rnd.Float64()*9000,
			admissions.Stay:               stay,
		}
		g.nextID++
		if g.rnd.Float64() < g.nullRate {
			delete(cells, admissions.BedGrade)
		}
		for name, v := range cells {
			if err := f.SetCell(i, name, v); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}

// countingSink counts rows and forwards them to next when set; with no next
// it discards them.
type countingSink struct {
	rows int
	next ap.Sink
}

func (c *countingSink) Write(f *ap.Frame) error {
	c.rows += f.Rows()
	if c.next == nil {
		return nil
	}
	return c.next.Write(f)
}

func (c *countingSink) Close() error {
	if c.next == nil {
		return nil
	}
	return c.next.Close()
}

func newSink(path string) (*countingSink, error) {
	if path == "" {
		return &countingSink{}, nil
	}
	sw, err := csvio.NewStreamWriter(path, csvio.WriterOptions{})
	if err != nil {
		return nil, err
	}
	return &countingSink{next: sw}, nil
}

func main() {
	var (
		rows         = flag.Int("rows", 1_000_000, "total rows to generate")
		chunk        = flag.Int("chunk", 100_000, "rows per generated chunk")
		nullRate     = flag.Float64("null-rate", 0.03, "probability of a missing Bed Grade per row")
		sentinelRate = flag.Float64("sentinel-rate", 0.01, "probability of the sentinel Stay per row")
		jsonOut      = flag.Bool("json", false, "emit JSON summary")
		verbose      = flag.Bool("v", false, "log pipeline steps")
		seed         = flag.Int64("seed", 42, "random seed")
		out          = flag.String("out", "", "also write the cleaned rows to this CSV path")
	)
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	p := admissions.New(admissions.Options{Logger: logger}).Pipeline()
	src := newGenSource(*rows, *chunk, *nullRate, *sentinelRate, *seed)
	sink, err := newSink(*out)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	runtime.GC()
	var msBefore, msAfter runtime.MemStats
	runtime.ReadMemStats(&msBefore)
	start := time.Now()
	rep, err := ap.RunBatch(context.Background(), p, src, sink)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	elapsed := time.Since(start)
	runtime.ReadMemStats(&msAfter)

	rowsPerSec := float64(*rows) / elapsed.Seconds()
	steps := make(map[string]int64, len(rep.Steps))
	for _, s := range rep.Steps {
		steps[s.Name] = s.Elapsed.Microseconds()
	}
	summary := map[string]any{
		"rows":                  *rows,
		"rows_out":              sink.rows,
		"retention_pct":         rep.Retention(),
		"elapsed_ms":            elapsed.Milliseconds(),
		"rows_per_sec":          rowsPerSec,
		"step_us":               steps,
		"mem_alloc_bytes":       msAfter.Alloc,
		"mem_total_alloc_bytes": msAfter.TotalAlloc - msBefore.TotalAlloc,
		"gc_num":                msAfter.NumGC - msBefore.NumGC,
		"chunk":                 *chunk,
		"null_rate":             *nullRate,
		"sentinel_rate":         *sentinelRate,
	}

	if *jsonOut {
		b, _ := json.MarshalIndent(summary, "", "  ")
		fmt.Println(string(b))
		return
	}
	fmt.Printf("Rows: %d -> %d (%.2f%% retained)\n", *rows, sink.rows, rep.Retention())
	fmt.Printf("Elapsed: %s\n", elapsed)
	fmt.Printf("Throughput: %.0f rows/s\n", rowsPerSec)
	for _, s := range rep.Steps {
		fmt.Printf("  %-32s %10s  rows %d -> %d\n", s.Name, s.Elapsed, s.RowsIn, s.RowsOut)
	}
	fmt.Printf("Current Alloc: %d MB\n", msAfter.Alloc/1024/1024)
	fmt.Printf("Total Alloc (delta): %d MB\n", (msAfter.TotalAlloc-msBefore.TotalAlloc)/1024/1024)
	fmt.Printf("GC cycles (delta): %d\n", msAfter.NumGC-msBefore.NumGC)
}

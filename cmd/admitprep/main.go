// Command admitprep cleans a healthcare admissions extract: it drops
// incomplete and sentinel rows, derives numeric features and writes the
// z-scored result.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/wdm0006/admitprep/adapters/golearn"
	"github.com/wdm0006/admitprep/pkg/admissions"
	ap "github.com/wdm0006/admitprep/pkg/admitprep"
	"github.com/wdm0006/admitprep/pkg/io/csvio"
	iox "github.com/wdm0006/admitprep/pkg/io/ioutils"
	"github.com/wdm0006/admitprep/pkg/io/jsonlio"
	"github.com/wdm0006/admitprep/pkg/io/parquetio"
	"github.com/wdm0006/admitprep/pkg/io/sqliteio"
	"github.com/wdm0006/admitprep/pkg/io/xlsxio"
	"github.com/wdm0006/admitprep/pkg/profile"
	"github.com/wdm0006/admitprep/pkg/transform/scale"
)

var version = "0.1.0-dev"

// usageError marks failures caused by bad flags or configuration.
type usageError struct{ err error }

func (u usageError) Error() string { return u.err.Error() }
func (u usageError) Unwrap() error { return u.err }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, showVersion, err := parseConfig(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}
	if showVersion {
		fmt.Fprintln(stdout, "admitprep", version)
		return 0
	}
	logger := newLogger(cfg.Log, stderr)
	if err := execute(ctx, cfg, logger, stdout); err != nil {
		logger.Error("run failed", slog.String("error", err.Error()))
		var ue usageError
		if errors.As(err, &ue) {
			return 2
		}
		return 1
	}
	return 0
}

func parseConfig(args []string, stderr io.Writer) (Config, bool, error) {
	fs := flag.NewFlagSet("admitprep", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		showVersion = fs.Bool("version", false, "Print version and exit")
		configPath  = fs.String("config", "", "Path to config (JSON, YAML or TOML)")
		input       = fs.String("input", "", "Input CSV (optionally .gz) or Parquet file")
		output      = fs.String("output", "", "Output path")
		format      = fs.String("format", "", "Output format: "+strings.Join(formats, "|"))
		strict      = fs.Bool("strict", false, "Fail on labels missing from the lookup tables")
		report      = fs.String("report", "", "Write the JSON run summary to this path")
		logLevel    = fs.String("log-level", "", "debug|info|warn|error")
		logJSON     = fs.Bool("log-json", false, "Log as JSON")
	)
	if err := fs.Parse(args); err != nil {
		return Config{}, false, err
	}
	if fs.NArg() > 0 {
		return Config{}, false, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if *showVersion {
		return Config{}, true, nil
	}

	_ = godotenv.Load()
	cfg := defaultConfig()
	if *configPath != "" {
		if err := loadConfigFile(*configPath, &cfg); err != nil {
			return Config{}, false, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, false, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			cfg.Input.Path = *input
		case "output":
			cfg.Output.Path = *output
		case "format":
			cfg.Output.Format = *format
		case "strict":
			cfg.Clean.Strict = *strict
		case "report":
			cfg.Report = *report
		case "log-level":
			cfg.Log.Level = *logLevel
		case "log-json":
			cfg.Log.JSON = *logJSON
		}
	})
	return cfg, false, nil
}

func newLogger(c LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(c.Level)}
	if c.JSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func execute(ctx context.Context, cfg Config, logger *slog.Logger, stdout io.Writer) error {
	format, err := outputFormat(cfg.Output)
	if err != nil {
		return usageError{err}
	}
	zv, err := scale.ParseZeroVariancePolicy(cfg.Clean.ZeroVariance)
	if err != nil {
		return usageError{err}
	}
	started := time.Now()

	frame, err := readInput(cfg.Input, logger)
	if err != nil {
		return err
	}
	logger.Info("loaded input",
		slog.String("path", cfg.Input.Path),
		slog.Int("rows", frame.Rows()),
		slog.Int("cols", frame.Cols()),
		slog.Int("nulls", frame.NullCount()))

	cleaner := admissions.New(admissions.Options{
		Sentinel:     cfg.Clean.Sentinel,
		Strict:       cfg.Clean.Strict,
		ZeroVariance: zv,
		SampleStd:    cfg.Clean.SampleStd,
		Logger:       logger,
	})
	out, sum, err := cleaner.Run(ctx, frame)
	if err != nil {
		return err
	}
	for _, g := range sum.Cities {
		logger.Debug("city loss rate", slog.String("city", g.Key), slog.Int("patients", g.Total), slog.Float64("loss_rate", g.LossRate))
	}
	for col, labels := range sum.Unmapped {
		logger.Warn("unmapped labels", slog.String("column", col), slog.Any("labels", labels))
	}

	if err := writeOutput(ctx, cfg.Output, format, out); err != nil {
		return err
	}
	logger.Info("cleaned data saved",
		slog.String("path", cfg.Output.Path),
		slog.String("format", format),
		slog.Int("rows", sum.FinalRows),
		slog.Int("cols", sum.FinalCols),
		slog.Float64("retention_pct", sum.Report.Retention()),
		slog.Int("final_nulls", sum.FinalNulls))

	if cfg.Report != "" {
		if err := writeSummary(cfg.Report, sum); err != nil {
			return err
		}
	}
	history := cfg.History
	if history == "" && format == "sqlite" {
		history = cfg.Output.Path
	}
	if history != "" {
		if err := recordRun(ctx, history, cfg, started, sum); err != nil {
			return err
		}
	}

	prof := profile.NewCollector(out.Schema(), cfg.TopK)
	prof.ConsumeFrame(out)
	return prof.WriteText(stdout)
}

func readInput(in InputConfig, logger *slog.Logger) (*ap.Frame, error) {
	if strings.EqualFold(filepath.Ext(in.Path), ".parquet") {
		r, err := parquetio.OpenReader(in.Path, in.ChunkSize)
		if err != nil {
			return nil, err
		}
		defer func() { _ = r.Close() }()
		return r.ReadAll()
	}
	opt := csvio.ReaderOptions{HasHeader: true, Delimiter: delimiter(in.Delimiter)}
	sr, closer, err := csvio.NewStreamReader(in.Path, opt, in.ChunkSize, admissions.CoerceSchema)
	if err != nil {
		return nil, err
	}
	defer func() { _ = closer.Close() }()
	f, err := ap.Load(sr)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		// header only
		return ap.NewFrame(sr.Schema()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", in.Path, err)
	}
	if w := sr.Warnings(); w != "" {
		logger.Warn("input repaired", slog.String("path", in.Path), slog.String("warnings", w))
	}
	return f, nil
}

func writeOutput(ctx context.Context, o OutputConfig, format string, f *ap.Frame) error {
	switch format {
	case "csv":
		return csvio.WriteAll(o.Path, f, csvio.WriterOptions{Delimiter: delimiter(o.Delimiter)})
	case "jsonl":
		return jsonlio.WriteAll(o.Path, f)
	case "parquet":
		return parquetio.WriteAll(o.Path, f)
	case "xlsx":
		return xlsxio.WriteAll(o.Path, f, xlsxio.WriterOptions{Sheet: o.Table})
	case "arff":
		return golearn.WriteARFF(o.Path, f, o.Table, o.Class)
	case "sqlite":
		store, err := sqliteio.Open(o.Path)
		if err != nil {
			return err
		}
		sink := &sqliteio.TableSink{Store: store, Table: o.Table, Ctx: ctx}
		err = sink.Write(f)
		if err == nil {
			err = sink.Close()
		}
		if err == nil {
			err = checkStored(ctx, store, sink.Table, f.Rows())
		}
		if cerr := store.Close(); err == nil {
			err = cerr
		}
		return err
	}
	return usageError{fmt.Errorf("unsupported output format %q", format)}
}

// checkStored confirms the table holds every cleaned row.
func checkStored(ctx context.Context, store *sqliteio.Store, table string, want int) error {
	if table == "" {
		table = sqliteio.DefaultTable
	}
	n, err := store.CountRows(ctx, table)
	if err != nil {
		return err
	}
	if n != want {
		return fmt.Errorf("table %s holds %d rows, wrote %d", table, n, want)
	}
	return nil
}

func writeSummary(path string, sum *admissions.Summary) error {
	w, err := iox.CreateMaybeCompressed(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sum); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func recordRun(ctx context.Context, path string, cfg Config, started time.Time, sum *admissions.Summary) error {
	b, err := json.Marshal(sum)
	if err != nil {
		return err
	}
	store, err := sqliteio.Open(path)
	if err != nil {
		return err
	}
	_, err = store.RecordRun(ctx, sqliteio.Run{
		StartedAt:   started,
		Input:       cfg.Input.Path,
		Output:      cfg.Output.Path,
		RawRows:     sum.RawRows,
		FinalRows:   sum.FinalRows,
		Retention:   sum.Report.Retention(),
		SummaryJSON: string(b),
	})
	if cerr := store.Close(); err == nil {
		err = cerr
	}
	return err
}

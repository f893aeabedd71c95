package csvio

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	ap "github.com/wdm0006/admitprep/pkg/admitprep"
	iox "github.com/wdm0006/admitprep/pkg/io/ioutils"
)

// DefaultNullValues are the cell values read as null, the same set pandas'
// read_csv treats as missing.
var DefaultNullValues = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None", "n/a", "nan", "null",
}

type ReaderOptions struct {
	HasHeader  bool
	Delimiter  rune // 0 = sniff, default ','
	SampleRows int  // for inference; default 100
	Strict     bool // if true, error on short/long records
	// NullValues replaces DefaultNullValues when non-nil.
	NullValues []string
}

type Reader struct {
	r     *csv.Reader
	opt   ReaderOptions
	nulls map[string]struct{}
	buf   [][]string
	line  int
	// repair/warning counters
	shortRecords int
	longRecords  int
	badNumbers   int
}

// Open opens a CSV file, possibly gzip compressed, and returns a Reader.
// The returned Closer releases the file.
func Open(path string, opt ReaderOptions) (*Reader, io.Closer, error) {
	rc, err := iox.OpenMaybeCompressed(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	br := bufio.NewReaderSize(rc, 64<<10)
	if opt.Delimiter == 0 {
		sample, _ := br.Peek(4096)
		opt.Delimiter = sniffDelimiter(sample)
	}
	return NewReaderFrom(br, opt), rc, nil
}

// NewReaderFrom constructs a Reader from an arbitrary io.Reader (stdin, pipe).
func NewReaderFrom(r io.Reader, opt ReaderOptions) *Reader {
	rr := csv.NewReader(r)
	if opt.Delimiter != 0 {
		rr.Comma = opt.Delimiter
	}
	rr.FieldsPerRecord = -1
	rr.ReuseRecord = true
	nv := opt.NullValues
	if nv == nil {
		nv = DefaultNullValues
	}
	nulls := make(map[string]struct{}, len(nv))
	for _, v := range nv {
		nulls[v] = struct{}{}
	}
	return &Reader{r: rr, opt: opt, nulls: nulls}
}

func (r *Reader) read() ([]string, error) {
	rec, err := r.r.Read()
	if err != nil {
		return nil, err
	}
	r.line++
	out := make([]string, len(rec))
	copy(out, rec)
	return out, nil
}

// InferSchema reads header (if present) and samples rows to determine column kinds.
func (r *Reader) InferSchema() (ap.Schema, []string, error) {
	var names []string
	rec, err := r.read()
	if err != nil {
		return ap.Schema{}, nil, fmt.Errorf("read header: %w", err)
	}
	if r.opt.HasHeader {
		names = make([]string, len(rec))
		for i := range rec {
			names[i] = strings.ToValidUTF8(rec[i], "?")
		}
		// strip BOM on first header cell if present
		if len(names) > 0 {
			names[0] = strings.TrimPrefix(names[0], "\ufeff")
		}
	} else {
		names = make([]string, len(rec))
		for i := range names {
			names[i] = "col_" + strconv.Itoa(i)
		}
		r.buf = append(r.buf, rec)
	}

	max := r.opt.SampleRows
	if max <= 0 {
		max = 100
	}
	for len(r.buf) < max {
		rr, err := r.read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return ap.Schema{}, nil, err
		}
		r.buf = append(r.buf, rr)
	}

	kinds := r.inferKinds(r.buf, len(names))
	schema := ap.Schema{Columns: make([]ap.ColumnSchema, len(names))}
	for i := range names {
		schema.Columns[i] = ap.ColumnSchema{Name: names[i], Type: kinds[i], Nullable: true}
	}
	return schema, names, nil
}

// ReadAll loads the rest of the CSV into a Frame.
func (r *Reader) ReadAll(schema ap.Schema) (*ap.Frame, error) {
	f := ap.NewFrame(schema)
	if err := r.readInto(f, -1); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return f, nil
}

// readInto appends up to limit records (all when limit < 0) to f.
func (r *Reader) readInto(f *ap.Frame, limit int) error {
	for limit < 0 || f.Rows() < limit {
		var rec []string
		if len(r.buf) > 0 {
			rec, r.buf = r.buf[0], r.buf[1:]
		} else {
			var err error
			rec, err = r.read()
			if errors.Is(err, io.EOF) {
				return io.EOF
			}
			if err != nil {
				return err
			}
		}
		if err := r.appendRecord(f, rec); err != nil {
			return err
		}
	}
	return nil
}

// appendRecord appends a null row then sets every non-null value.
func (r *Reader) appendRecord(f *ap.Frame, rec []string) error {
	schema := f.Schema()
	if len(rec) > len(schema.Columns) {
		r.longRecords++
		if r.opt.Strict {
			return fmt.Errorf("csv line %d: need %d fields, got %d", r.line, len(schema.Columns), len(rec))
		}
	}
	f.AppendNullRow()
	row := f.Rows() - 1
	for i, cs := range schema.Columns {
		if i >= len(rec) {
			r.shortRecords++
			if r.opt.Strict {
				return fmt.Errorf("csv line %d: need %d fields, got %d", r.line, len(schema.Columns), len(rec))
			}
			break
		}
		val := strings.ToValidUTF8(strings.TrimSpace(rec[i]), "?")
		if r.isNull(val) {
			continue
		}
		switch cs.Type {
		case ap.KindFloat:
			x, err := strconv.ParseFloat(val, 64)
			if err != nil {
				r.badNumbers++
				continue
			}
			_ = f.SetCell(row, cs.Name, x)
		case ap.KindInt:
			x, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				// accept integral floats such as "3.0"
				fx, ferr := strconv.ParseFloat(val, 64)
				if ferr != nil || fx != float64(int64(fx)) {
					r.badNumbers++
					continue
				}
				x = int64(fx)
			}
			_ = f.SetCell(row, cs.Name, x)
		default:
			_ = f.SetCell(row, cs.Name, val)
		}
	}
	return nil
}

func (r *Reader) isNull(v string) bool {
	_, ok := r.nulls[v]
	return ok
}

var numre = regexp.MustCompile(`^[-+]?[0-9]*\.?[0-9]+([eE][-+]?[0-9]+)?$`)

func (r *Reader) inferKinds(rows [][]string, ncol int) []ap.Kind {
	kinds := make([]ap.Kind, ncol)
	for c := 0; c < ncol; c++ {
		num, integer, str := 0, 0, 0
		for _, row := range rows {
			if c >= len(row) {
				continue
			}
			v := strings.TrimSpace(row[c])
			if r.isNull(v) {
				continue
			}
			if numre.MatchString(v) {
				num++
				if !strings.ContainsAny(v, ".eE") {
					integer++
				}
			} else {
				str++
			}
		}
		switch {
		case num > 0 && str == 0 && integer == num:
			kinds[c] = ap.KindInt
		case num > 0 && str == 0:
			kinds[c] = ap.KindFloat
		default:
			kinds[c] = ap.KindString
		}
	}
	return kinds
}

func sniffDelimiter(sample []byte) rune {
	if len(sample) == 0 {
		return ','
	}
	// only the header line is reliable; values may contain separators
	if i := strings.IndexByte(string(sample), '\n'); i > 0 {
		sample = sample[:i]
	}
	best, bestCount := byte(','), 0
	for _, c := range []byte{',', '\t', ';', '|'} {
		cnt := 0
		for _, b := range sample {
			if b == c {
				cnt++
			}
		}
		if cnt > bestCount {
			bestCount, best = cnt, c
		}
	}
	return rune(best)
}

// Warnings returns a summary string of any repairs/mismatches encountered.
func (r *Reader) Warnings() string {
	var parts []string
	if r.shortRecords > 0 {
		parts = append(parts, fmt.Sprintf("short_records=%d", r.shortRecords))
	}
	if r.longRecords > 0 {
		parts = append(parts, fmt.Sprintf("long_records=%d", r.longRecords))
	}
	if r.badNumbers > 0 {
		parts = append(parts, fmt.Sprintf("unparsed_numbers=%d", r.badNumbers))
	}
	return strings.Join(parts, ", ")
}

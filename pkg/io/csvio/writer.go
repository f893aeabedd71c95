package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	ap "github.com/wdm0006/admitprep/pkg/admitprep"
	iox "github.com/wdm0006/admitprep/pkg/io/ioutils"
)

type WriterOptions struct {
	Delimiter rune // default ','
}

// WriteAll writes a Frame to a CSV file with headers. No index column is
// written; nulls are empty cells.
func WriteAll(path string, f *ap.Frame, opt WriterOptions) error {
	out, err := iox.CreateMaybeCompressed(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := Write(out, f, opt); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// Write encodes f as CSV to w.
func Write(w io.Writer, f *ap.Frame, opt WriterOptions) error {
	cw := newCSVWriter(w, opt)
	if err := cw.Write(f.Names()); err != nil {
		return err
	}
	if err := writeRows(cw, f); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func newCSVWriter(w io.Writer, opt WriterOptions) *csv.Writer {
	cw := csv.NewWriter(w)
	if opt.Delimiter != 0 {
		cw.Comma = opt.Delimiter
	}
	return cw
}

func writeRows(cw *csv.Writer, f *ap.Frame) error {
	cols := make([]ap.Column, f.Cols())
	for i, name := range f.Names() {
		cols[i], _ = f.ColumnByName(name)
	}
	row := make([]string, len(cols))
	for r := 0; r < f.Rows(); r++ {
		for c, col := range cols {
			row[c] = FormatValue(col.Value(r))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// FormatValue renders a cell the way it is written to CSV. Floats always
// carry a decimal point or an exponent so they read back as floats.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		if a := math.Abs(t); a == 0 || (a >= 1e-4 && a < 1e15) {
			s := strconv.FormatFloat(t, 'f', -1, 64)
			if !strings.Contains(s, ".") {
				s += ".0"
			}
			return s
		}
		return strconv.FormatFloat(t, 'g', -1, 64)
	}
	return fmt.Sprint(v)
}

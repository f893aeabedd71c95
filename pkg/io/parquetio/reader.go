package parquetio

import (
	"errors"
	"fmt"
	"io"
	"os"

	parquet "github.com/segmentio/parquet-go"

	ap "github.com/wdm0006/admitprep/pkg/admitprep"
)

// Reader loads a Parquet file into Frames. Column order and kinds come from
// the file schema.
type Reader struct {
	file   *os.File
	reader *parquet.Reader
	schema ap.Schema
	rows   []parquet.Row
}

// OpenReader opens path; chunkSize bounds the rows returned by Next.
func OpenReader(path string, chunkSize int) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	// NewReader panics on malformed files; OpenFile returns the error.
	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("parquet open: %w", err)
	}
	if chunkSize <= 0 {
		chunkSize = 8192
	}
	return &Reader{
		file:   f,
		reader: parquet.NewReader(f),
		schema: schemaOf(pf.Schema()),
		rows:   make([]parquet.Row, chunkSize),
	}, nil
}

func schemaOf(s *parquet.Schema) ap.Schema {
	var out ap.Schema
	for _, fld := range s.Fields() {
		k := ap.KindString
		switch fld.Type().Kind() {
		case parquet.Int32, parquet.Int64:
			k = ap.KindInt
		case parquet.Float, parquet.Double:
			k = ap.KindFloat
		}
		out.Columns = append(out.Columns, ap.ColumnSchema{Name: fld.Name(), Type: k, Nullable: fld.Optional()})
	}
	return out
}

func (r *Reader) Close() error {
	_ = r.reader.Close()
	return r.file.Close()
}

func (r *Reader) Schema() ap.Schema { return r.schema }

// Next returns the next chunk or io.EOF.
func (r *Reader) Next() (*ap.Frame, error) {
	n, err := r.reader.ReadRows(r.rows)
	if n == 0 {
		if err == nil || errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, err
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	f := ap.NewFrame(r.schema)
	for i := 0; i < n; i++ {
		f.AppendNullRow()
		setRow(f, f.Rows()-1, r.rows[i])
	}
	return f, nil
}

// ReadAll loads the remaining rows.
func (r *Reader) ReadAll() (*ap.Frame, error) {
	return ap.Load(r)
}

// setRow copies the leaf values of a flat row into f. Each value carries the
// index of its column.
func setRow(f *ap.Frame, row int, values parquet.Row) {
	cols := f.Schema().Columns
	for _, v := range values {
		c := v.Column()
		if c < 0 || c >= len(cols) || v.IsNull() {
			continue
		}
		cs := cols[c]
		switch v.Kind() {
		case parquet.Double:
			_ = f.SetCell(row, cs.Name, v.Double())
		case parquet.Float:
			_ = f.SetCell(row, cs.Name, float64(v.Float()))
		case parquet.Int64:
			_ = f.SetCell(row, cs.Name, v.Int64())
		case parquet.Int32:
			_ = f.SetCell(row, cs.Name, int64(v.Int32()))
		case parquet.ByteArray, parquet.FixedLenByteArray:
			_ = f.SetCell(row, cs.Name, string(v.ByteArray()))
		default:
			_ = f.SetCell(row, cs.Name, v.String())
		}
	}
}

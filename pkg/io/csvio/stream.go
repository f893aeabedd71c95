package csvio

import (
	"encoding/csv"
	"errors"
	"io"

	ap "github.com/wdm0006/admitprep/pkg/admitprep"
	iox "github.com/wdm0006/admitprep/pkg/io/ioutils"
)

// StreamReader reads CSV into Frame chunks of up to ChunkSize rows.
type StreamReader struct {
	r         *Reader
	schema    ap.Schema
	chunkSize int
	done      bool
}

// NewStreamReader opens the file and infers the schema. When coerce is not
// nil it adjusts the inferred schema before any row is parsed.
func NewStreamReader(path string, opt ReaderOptions, chunkSize int, coerce func(ap.Schema) ap.Schema) (*StreamReader, io.Closer, error) {
	rr, closer, err := Open(path, opt)
	if err != nil {
		return nil, nil, err
	}
	schema, _, err := rr.InferSchema()
	if err != nil {
		_ = closer.Close()
		return nil, nil, err
	}
	if coerce != nil {
		schema = coerce(schema)
	}
	if chunkSize <= 0 {
		chunkSize = 1024
	}
	return &StreamReader{r: rr, schema: schema, chunkSize: chunkSize}, closer, nil
}

// Next returns the next chunk frame or io.EOF when complete.
func (s *StreamReader) Next() (*ap.Frame, error) {
	if s.done {
		return nil, io.EOF
	}
	f := ap.NewFrame(s.schema)
	err := s.r.readInto(f, s.chunkSize)
	if errors.Is(err, io.EOF) {
		s.done = true
		if f.Rows() == 0 {
			return nil, io.EOF
		}
		return f, nil
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *StreamReader) Schema() ap.Schema { return s.schema }

// Warnings reports repairs made while parsing.
func (s *StreamReader) Warnings() string { return s.r.Warnings() }

// StreamWriter appends frames to a CSV file with a header (written once).
type StreamWriter struct {
	out         io.WriteCloser
	w           *csv.Writer
	wroteHeader bool
	closed      bool
}

func NewStreamWriter(path string, opt WriterOptions) (*StreamWriter, error) {
	out, err := iox.CreateMaybeCompressed(path)
	if err != nil {
		return nil, err
	}
	return &StreamWriter{out: out, w: newCSVWriter(out, opt)}, nil
}

func (s *StreamWriter) Write(fr *ap.Frame) error {
	if !s.wroteHeader {
		if err := s.w.Write(fr.Names()); err != nil {
			return err
		}
		s.wroteHeader = true
	}
	if err := writeRows(s.w, fr); err != nil {
		return err
	}
	s.w.Flush()
	return s.w.Error()
}

func (s *StreamWriter) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		_ = s.out.Close()
		return err
	}
	return s.out.Close()
}

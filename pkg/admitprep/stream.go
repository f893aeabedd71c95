package admitprep

import (
	"context"
	"errors"
	"io"
)

// Source yields frames in chunks until io.EOF.
type Source interface {
	Next() (*Frame, error)
}

// Sink consumes a frame, typically writing it out.
type Sink interface {
	Write(*Frame) error
	Close() error
}

// Load drains src into a single in-memory Frame. Every stage after loading
// needs statistics over the whole dataset, so chunks are never transformed
// on their own.
func Load(src Source) (*Frame, error) {
	var out *Frame
	for {
		f, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = f
			continue
		}
		if err := out.Concat(f); err != nil {
			return nil, err
		}
	}
	if out == nil {
		return nil, io.ErrUnexpectedEOF
	}
	return out, nil
}

// RunBatch loads src, runs the pipeline once and writes the result to sink.
// Nothing reaches the sink when any step fails.
func RunBatch(ctx context.Context, p *Pipeline, src Source, sink Sink) (*Report, error) {
	f, err := Load(src)
	if err != nil {
		_ = sink.Close()
		return nil, err
	}
	out, rep, err := p.Run(ctx, f)
	if err != nil {
		_ = sink.Close()
		return rep, err
	}
	if err := sink.Write(out); err != nil {
		_ = sink.Close()
		return rep, err
	}
	return rep, sink.Close()
}

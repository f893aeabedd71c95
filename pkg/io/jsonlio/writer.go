// Package jsonlio writes frames as JSON lines, one object per row with keys
// in column order.
package jsonlio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	ap "github.com/wdm0006/admitprep/pkg/admitprep"
	iox "github.com/wdm0006/admitprep/pkg/io/ioutils"
)

// WriteAll writes f to path; a .gz suffix compresses the output.
func WriteAll(path string, f *ap.Frame) error {
	out, err := iox.CreateMaybeCompressed(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := Write(out, f); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// Write encodes every row of f to w. Null cells are written as null.
func Write(w io.Writer, f *ap.Frame) error {
	names := f.Names()
	keys := make([][]byte, len(names))
	cols := make([]ap.Column, len(names))
	for i, name := range names {
		k, err := json.Marshal(name)
		if err != nil {
			return err
		}
		keys[i] = k
		cols[i], _ = f.ColumnByName(name)
	}
	var line bytes.Buffer
	for r := 0; r < f.Rows(); r++ {
		line.Reset()
		line.WriteByte('{')
		for i, col := range cols {
			if i > 0 {
				line.WriteByte(',')
			}
			line.Write(keys[i])
			line.WriteByte(':')
			v, err := json.Marshal(col.Value(r))
			if err != nil {
				return fmt.Errorf("row %d column %q: %w", r, names[i], err)
			}
			line.Write(v)
		}
		line.WriteString("}\n")
		if _, err := w.Write(line.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

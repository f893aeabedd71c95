// Package parquetio writes frames to Parquet and reads them back.
//
// Parquet field names are sanitized: characters outside [A-Za-z0-9_] become
// underscores, so "Visitors with Patient" is stored as
// "Visitors_with_Patient".
package parquetio

import (
	"encoding/json"
	"fmt"
	"strings"

	local "github.com/xitongsys/parquet-go-source/local"
	pw "github.com/xitongsys/parquet-go/writer"

	ap "github.com/wdm0006/admitprep/pkg/admitprep"
	iox "github.com/wdm0006/admitprep/pkg/io/ioutils"
)

// FieldName returns the Parquet field name used for a column.
func FieldName(col string) string {
	var b strings.Builder
	for _, r := range col {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func parquetSchemaJSON(s ap.Schema) (string, error) {
	type field struct {
		Tag string `json:"Tag"`
	}
	type schema struct {
		Tag    string  `json:"Tag"`
		Fields []field `json:"Fields"`
	}
	sc := schema{Tag: "name=admissions, repetitiontype=REQUIRED"}
	seen := map[string]string{}
	for _, cs := range s.Columns {
		name := FieldName(cs.Name)
		if prev, ok := seen[name]; ok {
			return "", fmt.Errorf("columns %q and %q share parquet name %q", prev, cs.Name, name)
		}
		seen[name] = cs.Name
		tag := "name=" + name + ", repetitiontype=OPTIONAL, type="
		switch cs.Type {
		case ap.KindFloat:
			tag += "DOUBLE"
		case ap.KindInt:
			tag += "INT64"
		default:
			tag += "BYTE_ARRAY, convertedtype=UTF8"
		}
		sc.Fields = append(sc.Fields, field{Tag: tag})
	}
	b, err := json.Marshal(sc)
	return string(b), err
}

// WriteAll writes a Frame to a Parquet file using parquet-go's JSONWriter.
func WriteAll(path string, f *ap.Frame) (err error) {
	schema, err := parquetSchemaJSON(f.Schema())
	if err != nil {
		return err
	}
	if err := iox.EnsureDir(path); err != nil {
		return err
	}
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	writer, err := pw.NewJSONWriter(schema, fw, 4)
	if err != nil {
		_ = fw.Close()
		return fmt.Errorf("parquet writer init: %w", err)
	}
	defer func() {
		if serr := writer.WriteStop(); serr != nil && err == nil {
			err = fmt.Errorf("parquet finalize: %w", serr)
		}
		if cerr := fw.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	names := f.Names()
	cols := make([]ap.Column, len(names))
	fields := make([]string, len(names))
	for i, name := range names {
		cols[i], _ = f.ColumnByName(name)
		fields[i] = FieldName(name)
	}
	rec := make(map[string]any, len(names))
	for r := 0; r < f.Rows(); r++ {
		for i, col := range cols {
			rec[fields[i]] = col.Value(r)
		}
		b, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("parquet encode row %d: %w", r, err)
		}
		if err := writer.Write(string(b)); err != nil {
			return fmt.Errorf("parquet write row %d: %w", r, err)
		}
	}
	return nil
}

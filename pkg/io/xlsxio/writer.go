// Package xlsxio writes frames to Excel workbooks.
package xlsxio

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	ap "github.com/wdm0006/admitprep/pkg/admitprep"
	iox "github.com/wdm0006/admitprep/pkg/io/ioutils"
)

// DefaultSheet is used when WriterOptions.Sheet is empty.
const DefaultSheet = "admissions"

type WriterOptions struct {
	Sheet string
}

// WriteAll writes f to a single-sheet workbook: a header row followed by
// one row per record. Null cells are written as empty strings.
func WriteAll(path string, f *ap.Frame, opt WriterOptions) error {
	if f.Rows()+1 > excelize.TotalRows {
		return fmt.Errorf("xlsx: %d rows exceed the sheet limit of %d", f.Rows(), excelize.TotalRows-1)
	}
	sheet := opt.Sheet
	if sheet == "" {
		sheet = DefaultSheet
	}

	wb := excelize.NewFile()
	defer func() { _ = wb.Close() }()
	if err := wb.SetSheetName(wb.GetSheetName(0), sheet); err != nil {
		return err
	}
	sw, err := wb.NewStreamWriter(sheet)
	if err != nil {
		return err
	}

	names := f.Names()
	header := make([]interface{}, len(names))
	cols := make([]ap.Column, len(names))
	for i, name := range names {
		header[i] = name
		cols[i], _ = f.ColumnByName(name)
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}
	row := make([]interface{}, len(cols))
	for r := 0; r < f.Rows(); r++ {
		for i, col := range cols {
			if v := col.Value(r); v != nil {
				row[i] = v
			} else {
				row[i] = ""
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("xlsx row %d: %w", r, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	if err := iox.EnsureDir(path); err != nil {
		return err
	}
	return wb.SaveAs(path)
}

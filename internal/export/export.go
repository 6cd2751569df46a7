// Package export writes datasets back to disk as CSV or XLSX.
package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/KaramelBytes/dataloom-cli/internal/utils"
	"github.com/xuri/excelize/v2"
)

// ErrUnsupported indicates an output extension with no writer.
var ErrUnsupported = errors.New("unsupported output format")

// DefaultSheet is the sheet name used for XLSX output.
const DefaultSheet = "cleaned"

// Write stores ds at path; the extension picks the format (.csv, .tsv, .xlsx).
func Write(path string, ds *dataset.Dataset) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return writeDelimited(path, ds, ',')
	case ".tsv":
		return writeDelimited(path, ds, '\t')
	case ".xlsx":
		return WriteXLSX(path, ds)
	default:
		return fmt.Errorf("write %s: %w", filepath.Base(path), ErrUnsupported)
	}
}

func writeDelimited(path string, ds *dataset.Dataset, comma rune) error {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, ds, comma); err != nil {
		return err
	}
	if err := utils.SafeWriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// WriteCSV writes a header row and one record per dataset row.
// Missing values become empty fields.
func WriteCSV(w io.Writer, ds *dataset.Dataset, comma rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = comma
	if err := cw.Write(ds.Names()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, ds.Width())
	for i := 0; i < ds.Len(); i++ {
		for j, v := range ds.Row(i) {
			rec[j] = v.String()
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteXLSX writes ds to a single-sheet workbook. Numbers and booleans keep
// their cell types; missing values leave the cell empty.
func WriteXLSX(path string, ds *dataset.Dataset) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), DefaultSheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(DefaultSheet)
	if err != nil {
		return fmt.Errorf("open sheet: %w", err)
	}
	header := make([]any, ds.Width())
	for j, name := range ds.Names() {
		header[j] = name
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < ds.Len(); i++ {
		row := make([]any, ds.Width())
		for j, v := range ds.Row(i) {
			row[j] = cellValue(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx: %w", err)
	}
	return nil
}

func cellValue(v dataset.Value) any {
	switch v.Kind() {
	case dataset.KindMissing:
		return nil
	case dataset.KindNumber:
		f, _ := v.Float()
		return f
	case dataset.KindBool:
		b, _ := v.Boolean()
		return b
	case dataset.KindTime:
		t, _ := v.Timestamp()
		return t
	default:
		return v.String()
	}
}

package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"salaryprep/internal/frame"
)

// ExportMatrix writes m to outputPath as .xlsx or .csv, by extension.
func ExportMatrix(m *frame.Matrix, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	switch FormatOf(outputPath) {
	case FormatXLSX:
		return exportXLSX(m, outputPath)
	case FormatCSV:
		return exportCSV(m, outputPath)
	default:
		return fmt.Errorf("unsupported output file: %s", outputPath)
	}
}

func exportXLSX(m *frame.Matrix, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for i, h := range m.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	for i, row := range m.Rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return f.SaveAs(outputPath)
}

func exportCSV(m *frame.Matrix, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(m.Columns); err != nil {
		return err
	}
	record := make([]string, len(m.Columns))
	for _, row := range m.Rows {
		for j, v := range row {
			record[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return file.Close()
}

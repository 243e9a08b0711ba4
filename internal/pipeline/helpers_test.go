package pipeline

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"salaryprep/internal/frame"
)

var jobHeader = []string{
	"work_year", "experience_level", "employment_type", "job_title", "salary",
	"salary_currency", "salary_in_usd", "employee_residence", "company_location", "company_size",
}

func job(year, level, employment, title, usd, residence, location, size string) []string {
	return []string{year, level, employment, title, usd, "USD", usd, residence, location, size}
}

func mkFrame(t *testing.T, header []string, rows ...[]string) *frame.Frame {
	t.Helper()
	f, err := frame.New(header, rows)
	require.NoError(t, err)
	return f
}

func testRef() *ReferenceTable {
	return NewReferenceTableFromMap(map[string]map[int]float64{
		"US": {2022: 24000, 2023: 25000},
		"GB": {2022: 45000, 2023: 46000},
		"DE": {2023: 48000},
	})
}

func mkXLSX(rows [][]any) []byte {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	buf := bytes.NewBuffer(nil)
	_, _ = f.WriteTo(buf)
	return buf.Bytes()
}

func numbers(t *testing.T, f *frame.Frame, name string) []float64 {
	t.Helper()
	col, ok := f.Column(name)
	require.True(t, ok, "missing column %s", name)
	require.Equal(t, frame.Number, col.Kind, "column %s", name)
	return col.Num
}

func rowsOf(f *frame.Frame) [][]string {
	out := make([][]string, f.Len())
	for i := range out {
		out[i] = f.Row(i)
	}
	return out
}

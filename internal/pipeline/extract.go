package pipeline

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/xuri/excelize/v2"

	"salaryprep/internal/frame"
)

// Table formats understood by DecodeTable.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatHTML = "html"
)

var reSpaces = regexp.MustCompile(`\s+`)

// FormatOf maps a file name to its table format, or "" when unknown.
func FormatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	case ".xlsx":
		return FormatXLSX
	case ".html", ".htm":
		return FormatHTML
	}
	return ""
}

// LoadDataset reads a job-posting dataset from a .csv or .xlsx file.
func LoadDataset(path string) (*frame.Frame, error) {
	format := FormatOf(path)
	if format != FormatCSV && format != FormatXLSX {
		return nil, fmt.Errorf("unsupported dataset file: %s", path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := DecodeTable(format, content)
	if err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", path, err)
	}
	return f, nil
}

// LoadReference reads an economic reference table from a .csv, .xlsx or
// .html file. keyColumn names the country code column.
func LoadReference(path, keyColumn string) (*ReferenceTable, error) {
	format := FormatOf(path)
	if format == "" {
		return nil, fmt.Errorf("unsupported reference file: %s", path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := DecodeTable(format, content)
	if err != nil {
		return nil, fmt.Errorf("load reference %s: %w", path, err)
	}
	ref, err := NewReferenceTable(f, keyColumn)
	if err != nil {
		return nil, fmt.Errorf("load reference %s: %w", path, err)
	}
	return ref, nil
}

// DecodeTable parses content in the given format into an all-text frame.
// The first row is the header.
func DecodeTable(format string, content []byte) (*frame.Frame, error) {
	var (
		rows [][]string
		err  error
	)
	switch format {
	case FormatCSV:
		rows, err = parseCSV(content)
	case FormatXLSX:
		rows, err = parseXLSX(content)
	case FormatHTML:
		rows, err = parseHTMLTable(content)
	default:
		return nil, fmt.Errorf("unsupported table format: %s", format)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no header row")
	}
	header := rows[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	return frame.New(header, padRows(rows[1:], len(header)))
}

func parseCSV(content []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	return dropBlankRows(rows), nil
}

// parseXLSX reads the first sheet that has any rows.
func parseXLSX(content []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("sheet %s: %w", sheet, err)
		}
		rows = dropBlankRows(rows)
		if len(rows) > 0 {
			return rows, nil
		}
	}
	return nil, nil
}

// parseHTMLTable reads the first table with a header row and at least one
// data row.
func parseHTMLTable(content []byte) ([][]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	var out [][]string
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		rows := table.Find("tr")
		if rows.Length() < 2 {
			return true
		}
		rows.Each(func(_ int, row *goquery.Selection) {
			cells := []string{}
			row.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, normalizeSpaces(cell.Text()))
			})
			if len(cells) > 0 {
				out = append(out, cells)
			}
		})
		return false
	})
	if out == nil {
		return nil, fmt.Errorf("no table with a header and data rows")
	}
	return out, nil
}

func normalizeSpaces(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(input, " "))
}

func dropBlankRows(rows [][]string) [][]string {
	out := rows[:0]
	for _, row := range rows {
		if strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}
		out = append(out, row)
	}
	return out
}

// padRows fills short rows with empty cells. Longer rows are left for
// frame.New to reject.
func padRows(rows [][]string, width int) [][]string {
	for i, row := range rows {
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			rows[i] = padded
		}
	}
	return rows
}

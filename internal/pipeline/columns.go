package pipeline

import (
	"fmt"

	"salaryprep/internal/frame"
	"salaryprep/internal/util"
)

func textColumn(f *frame.Frame, name string) (*frame.Column, error) {
	col, ok := f.Column(name)
	if !ok {
		return nil, &ValidationError{Source: "dataset", Columns: []string{name}}
	}
	if col.Kind != frame.Text {
		return nil, fmt.Errorf("column %s is already %s", name, col.Kind)
	}
	return col, nil
}

func numberOrTextColumn(f *frame.Frame, name string) (*frame.Column, error) {
	col, ok := f.Column(name)
	if !ok {
		return nil, &ValidationError{Source: "dataset", Columns: []string{name}}
	}
	return col, nil
}

// parseNumbers coerces a column to float64 values, failing on the first bad cell.
func parseNumbers(f *frame.Frame, col *frame.Column) ([]float64, error) {
	if col.Kind == frame.Number {
		return append([]float64(nil), col.Num...), nil
	}
	out := make([]float64, len(col.Text))
	for i, raw := range col.Text {
		v, err := util.ParseNumber(raw)
		if err != nil {
			return nil, &TypeError{Row: f.Origin(i), Column: col.Name, Value: raw, Want: "number", Err: err}
		}
		out[i] = v
	}
	return out, nil
}

// parseYears coerces a column to whole-number years.
func parseYears(f *frame.Frame, col *frame.Column) ([]int, error) {
	out := make([]int, col.Len())
	for i := range out {
		if col.Kind == frame.Number {
			v := col.Num[i]
			if v != float64(int(v)) {
				return nil, &TypeError{Row: f.Origin(i), Column: col.Name, Value: col.Cell(i), Want: "integer", Err: util.ErrNotWhole}
			}
			out[i] = int(v)
			continue
		}
		year, err := util.ParseWholeNumber(col.Text[i])
		if err != nil {
			return nil, &TypeError{Row: f.Origin(i), Column: col.Name, Value: col.Text[i], Want: "integer", Err: err}
		}
		out[i] = year
	}
	return out, nil
}

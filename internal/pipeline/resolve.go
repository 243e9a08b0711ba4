package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"salaryprep/internal"
	"salaryprep/internal/frame"
	"salaryprep/internal/util"
)

// ReferenceTable maps a country code and a year to an economic indicator.
type ReferenceTable struct {
	values map[string]map[int]float64
}

// NewReferenceTable builds a table from a frame holding a key column and one
// column per year. Columns whose header is not a year are ignored, as are
// empty cells.
func NewReferenceTable(f *frame.Frame, keyColumn string) (*ReferenceTable, error) {
	keys, ok := f.Column(keyColumn)
	if !ok {
		return nil, &ValidationError{Source: "reference table", Columns: []string{keyColumn}}
	}

	type yearColumn struct {
		year int
		col  *frame.Column
	}
	var years []yearColumn
	for _, name := range f.Names() {
		if name == keyColumn {
			continue
		}
		year, err := util.ParseWholeNumber(name)
		if err != nil {
			continue
		}
		col, _ := f.Column(name)
		years = append(years, yearColumn{year: year, col: col})
	}
	if len(years) == 0 {
		return nil, &ValidationError{Source: "reference table", Columns: []string{"<year columns>"}}
	}

	table := &ReferenceTable{values: make(map[string]map[int]float64, f.Len())}
	for i := 0; i < f.Len(); i++ {
		if keys.IsMissing(i) {
			continue
		}
		code := strings.TrimSpace(keys.Cell(i))
		if _, dup := table.values[code]; dup {
			return nil, fmt.Errorf("%w: reference table row %d: duplicate country code %q", ErrValidation, f.Origin(i), code)
		}
		byYear := make(map[int]float64, len(years))
		for _, yc := range years {
			if yc.col.IsMissing(i) {
				continue
			}
			raw := yc.col.Cell(i)
			v, err := util.ParseNumber(raw)
			if err != nil {
				return nil, &TypeError{Row: f.Origin(i), Column: yc.col.Name, Value: raw, Want: "number", Err: err}
			}
			byYear[yc.year] = v
		}
		table.values[code] = byYear
	}
	return table, nil
}

// NewReferenceTableFromMap builds a table from already-parsed values.
func NewReferenceTableFromMap(values map[string]map[int]float64) *ReferenceTable {
	table := &ReferenceTable{values: make(map[string]map[int]float64, len(values))}
	for code, byYear := range values {
		inner := make(map[int]float64, len(byYear))
		for year, v := range byYear {
			inner[year] = v
		}
		table.values[code] = inner
	}
	return table
}

func (r *ReferenceTable) Lookup(code string, year int) (float64, bool) {
	byYear, ok := r.values[strings.TrimSpace(code)]
	if !ok {
		return 0, false
	}
	v, ok := byYear[year]
	return v, ok
}

// Countries returns the sorted country codes.
func (r *ReferenceTable) Countries() []string {
	out := make([]string, 0, len(r.values))
	for code := range r.values {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Resolve replaces company_location and employee_residence with the indicator
// for that country in the row's own work_year. The first absent pair aborts
// the whole batch.
func Resolve(f *frame.Frame, ref *ReferenceTable) (*frame.Frame, error) {
	yearCol, err := numberOrTextColumn(f, internal.ColWorkYear)
	if err != nil {
		return nil, err
	}
	years, err := parseYears(f, yearCol)
	if err != nil {
		return nil, err
	}

	out := f.Clone()
	for _, name := range []string{internal.ColCompanyLocation, internal.ColEmployeeResidence} {
		codes, err := textColumn(f, name)
		if err != nil {
			return nil, err
		}
		resolved := make([]float64, len(codes.Text))
		for i, code := range codes.Text {
			v, ok := ref.Lookup(code, years[i])
			if !ok {
				return nil, &ResolutionError{Row: f.Origin(i), Column: name, Country: strings.TrimSpace(code), Year: years[i]}
			}
			resolved[i] = v
		}
		if err := out.SetNumber(name, resolved); err != nil {
			return nil, err
		}
	}
	return out, nil
}

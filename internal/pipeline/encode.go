package pipeline

import (
	"sort"
	"strings"

	"salaryprep/internal"
	"salaryprep/internal/frame"
)

// CategoryEncoding is the fitted one-hot layout of employment_type.
// Reference is the category dropped to avoid a redundant column; it is empty
// when only one category was seen.
type CategoryEncoding struct {
	EmploymentTypes []string `json:"employmentTypes" yaml:"employment_types"`
	Reference       string   `json:"reference,omitempty" yaml:"reference,omitempty"`
}

// FitEncoding collects the sorted distinct employment types of f.
func FitEncoding(f *frame.Frame) (CategoryEncoding, error) {
	col, err := textColumn(f, internal.ColEmploymentType)
	if err != nil {
		return CategoryEncoding{}, err
	}

	seen := map[string]struct{}{}
	for _, v := range col.Text {
		seen[strings.TrimSpace(v)] = struct{}{}
	}
	types := make([]string, 0, len(seen))
	for v := range seen {
		types = append(types, v)
	}
	sort.Strings(types)

	enc := CategoryEncoding{EmploymentTypes: types}
	if len(types) > 1 {
		enc.Reference = types[0]
	}
	return enc, nil
}

// Columns lists the indicator columns Apply emits, in order.
func (e CategoryEncoding) Columns() []string {
	out := make([]string, 0, len(e.EmploymentTypes))
	for _, v := range e.EmploymentTypes {
		if v == e.Reference {
			continue
		}
		out = append(out, internal.EmploymentTypePrefix+v)
	}
	return out
}

// Apply maps company_size and experience_level to their ordinal ranks and
// replaces employment_type with indicator columns appended at the end.
func (e CategoryEncoding) Apply(f *frame.Frame) (*frame.Frame, error) {
	out := f.Clone()

	sizes, err := textColumn(f, internal.ColCompanySize)
	if err != nil {
		return nil, err
	}
	sizeRanks := make([]float64, len(sizes.Text))
	for i, raw := range sizes.Text {
		size, ok := internal.ParseCompanySize(raw)
		if !ok {
			return nil, &EncodingError{Row: f.Origin(i), Column: internal.ColCompanySize, Value: raw}
		}
		sizeRanks[i] = float64(size.Rank())
	}
	if err := out.SetNumber(internal.ColCompanySize, sizeRanks); err != nil {
		return nil, err
	}

	levels, err := textColumn(f, internal.ColExperienceLevel)
	if err != nil {
		return nil, err
	}
	levelRanks := make([]float64, len(levels.Text))
	for i, raw := range levels.Text {
		level, ok := internal.ParseExperienceLevel(raw)
		if !ok {
			return nil, &EncodingError{Row: f.Origin(i), Column: internal.ColExperienceLevel, Value: raw}
		}
		levelRanks[i] = float64(level.Rank())
	}
	if err := out.SetNumber(internal.ColExperienceLevel, levelRanks); err != nil {
		return nil, err
	}

	types, err := textColumn(f, internal.ColEmploymentType)
	if err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(e.EmploymentTypes))
	for _, v := range e.EmploymentTypes {
		known[v] = struct{}{}
	}
	indicators := make(map[string][]float64, len(e.EmploymentTypes))
	for _, v := range e.EmploymentTypes {
		if v != e.Reference {
			indicators[v] = make([]float64, len(types.Text))
		}
	}
	for i, raw := range types.Text {
		v := strings.TrimSpace(raw)
		if _, ok := known[v]; !ok {
			return nil, &EncodingError{Row: f.Origin(i), Column: internal.ColEmploymentType, Value: raw}
		}
		if col, ok := indicators[v]; ok {
			col[i] = 1
		}
	}

	out = out.Drop(internal.ColEmploymentType)
	for _, v := range e.EmploymentTypes {
		if v == e.Reference {
			continue
		}
		if err := out.SetNumber(internal.EmploymentTypePrefix+v, indicators[v]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Encode fits the employment-type layout on f itself and applies it.
func Encode(f *frame.Frame) (*frame.Frame, error) {
	enc, err := FitEncoding(f)
	if err != nil {
		return nil, err
	}
	return enc.Apply(f)
}

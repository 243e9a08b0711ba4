package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"salaryprep/internal"
	"salaryprep/internal/frame"
)

// Options tunes the fitted stages.
type Options struct {
	WinsorLower float64 `json:"winsorLower" yaml:"winsor_lower"`
	WinsorUpper float64 `json:"winsorUpper" yaml:"winsor_upper"`
	MinTokenLen int     `json:"minTokenLen" yaml:"min_token_len"`
}

func DefaultOptions() Options {
	return Options{
		WinsorLower: DefaultWinsorLimit,
		WinsorUpper: DefaultWinsorLimit,
		MinTokenLen: DefaultMinTokenLen,
	}
}

func (o Options) Validate() error {
	if err := validateLimits(o.WinsorLower, o.WinsorUpper); err != nil {
		return err
	}
	if o.MinTokenLen < 1 {
		return fmt.Errorf("min token length %d: must be at least 1", o.MinTokenLen)
	}
	return nil
}

// Report describes one pipeline pass.
type Report struct {
	Clean     CleanStats
	Normalize NormalizeStats
	Rows      int
	Columns   int
	// Timings holds milliseconds spent per stage.
	Timings map[string]float64
}

// Counts flattens the report for run bookkeeping.
func (r Report) Counts() map[string]int {
	return map[string]int{
		"input":             r.Clean.Input,
		"droppedMissing":    r.Clean.DroppedMissing,
		"droppedDuplicates": r.Clean.DroppedDuplicates,
		"clampedLow":        r.Normalize.ClampedLow,
		"clampedHigh":       r.Normalize.ClampedHigh,
		"rows":              r.Rows,
		"columns":           r.Columns,
	}
}

type stopwatch struct {
	timings map[string]float64
	last    time.Time
}

func newStopwatch() *stopwatch {
	return &stopwatch{timings: map[string]float64{}, last: time.Now()}
}

func (s *stopwatch) lap(stage string) {
	now := time.Now()
	s.timings[stage] = float64(now.Sub(s.last).Microseconds()) / 1000
	s.last = now
}

// Pipeline runs Clean, Encode, Resolve, Normalize and the title vectorizer in
// that fixed order.
type Pipeline struct {
	opts Options
	now  func() time.Time
}

func New(opts Options) (*Pipeline, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{opts: opts, now: time.Now}, nil
}

func validateDataset(ds *frame.Frame) error {
	if missing := ds.Absent(internal.RequiredColumns); len(missing) > 0 {
		return &ValidationError{Source: "dataset", Columns: missing}
	}
	return nil
}

// Fit learns a schema from ds and returns it with the matrix of ds itself.
func (p *Pipeline) Fit(ds *frame.Frame, ref *ReferenceTable) (*Schema, *frame.Matrix, Report, error) {
	if err := validateDataset(ds); err != nil {
		return nil, nil, Report{}, err
	}
	sw := newStopwatch()
	var rep Report

	cleaned, stats := Clean(ds)
	rep.Clean = stats
	sw.lap("clean")

	enc, err := FitEncoding(cleaned)
	if err != nil {
		return nil, nil, rep, err
	}
	encoded, err := enc.Apply(cleaned)
	if err != nil {
		return nil, nil, rep, err
	}
	sw.lap("encode")

	resolved, err := Resolve(encoded, ref)
	if err != nil {
		return nil, nil, rep, err
	}
	sw.lap("resolve")

	normalized, nstats, err := NormalizeWithLimits(resolved, p.opts.WinsorLower, p.opts.WinsorUpper)
	if err != nil {
		return nil, nil, rep, err
	}
	rep.Normalize = nstats
	sw.lap("normalize")

	titles, err := textColumn(normalized, internal.ColJobTitle)
	if err != nil {
		return nil, nil, rep, err
	}
	vec := FitVectorizer(titles.Text, p.opts.MinTokenLen)
	vectorized, err := vec.Apply(normalized)
	if err != nil {
		return nil, nil, rep, err
	}
	sw.lap("vectorize")

	m, err := toMatrix(vectorized)
	if err != nil {
		return nil, nil, rep, err
	}
	sw.lap("matrix")

	schema := &Schema{
		ID:         uuid.NewString(),
		CreatedAt:  p.now().UTC().Format(time.RFC3339),
		RowsFit:    m.Len(),
		Options:    p.opts,
		Encoding:   enc,
		Salary:     nstats.Bounds,
		Vectorizer: *vec,
		Columns:    append([]string(nil), m.Columns...),
	}
	rep.Rows, rep.Columns, rep.Timings = m.Len(), len(m.Columns), sw.timings
	return schema, m, rep, nil
}

// Transform applies a fitted schema to ds. The returned matrix always has the
// schema's columns in the schema's order.
func (p *Pipeline) Transform(schema *Schema, ds *frame.Frame, ref *ReferenceTable) (*frame.Matrix, Report, error) {
	if err := validateDataset(ds); err != nil {
		return nil, Report{}, err
	}
	sw := newStopwatch()
	var rep Report

	cleaned, stats := Clean(ds)
	rep.Clean = stats
	sw.lap("clean")

	encoded, err := schema.Encoding.Apply(cleaned)
	if err != nil {
		return nil, rep, err
	}
	sw.lap("encode")

	resolved, err := Resolve(encoded, ref)
	if err != nil {
		return nil, rep, err
	}
	sw.lap("resolve")

	normalized, nstats, err := NormalizeWithBounds(resolved, schema.Salary)
	if err != nil {
		return nil, rep, err
	}
	rep.Normalize = nstats
	sw.lap("normalize")

	vectorized, err := schema.Vectorizer.Apply(normalized)
	if err != nil {
		return nil, rep, err
	}
	sw.lap("vectorize")

	if missing := vectorized.Absent(schema.Columns); len(missing) > 0 {
		return nil, rep, &ValidationError{Source: "dataset", Columns: missing}
	}
	projected, err := vectorized.Project(schema.Columns)
	if err != nil {
		return nil, rep, err
	}
	m, err := toMatrix(projected)
	if err != nil {
		return nil, rep, err
	}
	sw.lap("matrix")

	rep.Rows, rep.Columns, rep.Timings = m.Len(), len(m.Columns), sw.timings
	return m, rep, nil
}

// Preprocess turns a raw dataset into a feature matrix, fitting the encoder,
// the winsorization bounds and the vectorizer on ds itself.
func Preprocess(ds *frame.Frame, ref *ReferenceTable) (*frame.Matrix, error) {
	p := &Pipeline{opts: DefaultOptions(), now: time.Now}
	_, m, _, err := p.Fit(ds, ref)
	return m, err
}

// toMatrix parses any remaining text column as numbers.
func toMatrix(f *frame.Frame) (*frame.Matrix, error) {
	out := f.Clone()
	for _, name := range out.Names() {
		col, _ := out.Column(name)
		if col.Kind == frame.Number {
			continue
		}
		values, err := parseNumbers(f, col)
		if err != nil {
			return nil, err
		}
		if err := out.SetNumber(name, values); err != nil {
			return nil, err
		}
	}
	return out.Matrix()
}

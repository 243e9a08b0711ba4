// Package frame holds the in-memory tabular types the preprocessing pipeline
// threads through its stages. Cells live in a gota DataFrame; the frame adds
// pandas-style missing markers and source row tracking on top.
package frame

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

type Kind uint8

const (
	Text Kind = iota
	Number
)

func (k Kind) String() string {
	if k == Number {
		return "number"
	}
	return "text"
}

// naTokens mirrors the missing-value markers pandas recognises on read.
var naTokens = []string{
	"", "NA", "N/A", "n/a", "NaN", "nan", "-NaN", "-nan",
	"null", "NULL", "None", "<NA>", "#N/A", "#N/A N/A", "#NA",
	"1.#IND", "-1.#IND", "1.#QNAN", "-1.#QNAN",
}

var naSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(naTokens))
	for _, t := range naTokens {
		m[t] = struct{}{}
	}
	return m
}()

// IsNA reports whether a raw text cell counts as a missing value.
func IsNA(s string) bool {
	_, ok := naSet[strings.TrimSpace(s)]
	return ok
}

// Column is a detached copy of one frame column. Missing numbers are NaN.
type Column struct {
	Name string
	Kind Kind
	Text []string
	Num  []float64
}

func (c *Column) Len() int {
	if c.Kind == Number {
		return len(c.Num)
	}
	return len(c.Text)
}

// IsMissing reports whether row i of the column holds no value.
func (c *Column) IsMissing(i int) bool {
	if c.Kind == Number {
		return math.IsNaN(c.Num[i])
	}
	return IsNA(c.Text[i])
}

// Cell renders row i as a string.
func (c *Column) Cell(i int) string {
	if c.Kind == Number {
		return formatNumber(c.Num[i])
	}
	return c.Text[i]
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func fromSeries(s series.Series) *Column {
	if s.Type() == series.Float {
		return &Column{Name: s.Name, Kind: Number, Num: s.Float()}
	}
	return &Column{Name: s.Name, Kind: Text, Text: s.Records()}
}

// Frame is an ordered, column-oriented table. origin keeps the 1-based
// source row number of every row across Select. A frame without columns
// keeps a zero DataFrame and its row count in rows.
type Frame struct {
	df     dataframe.DataFrame
	rows   int
	origin []int
}

// New builds an all-text frame from a header and its records. Blank header
// cells are named "Unnamed: <position>" the way pandas names them.
func New(header []string, records [][]string) (*Frame, error) {
	names := make([]string, len(header))
	seen := make(map[string]struct{}, len(header))
	for j, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(j)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate column name: %s", name)
		}
		seen[name] = struct{}{}
		names[j] = name
	}
	for i, rec := range records {
		if len(rec) != len(header) {
			return nil, fmt.Errorf("row %d has %d cells, header has %d", i+1, len(rec), len(header))
		}
	}

	f := &Frame{rows: len(records), origin: make([]int, len(records))}
	for i := range f.origin {
		f.origin[i] = i + 1
	}
	if len(names) == 0 {
		return f, nil
	}
	if len(records) == 0 {
		cols := make([]series.Series, len(names))
		for j, name := range names {
			cols[j] = series.New([]string{}, series.String, name)
		}
		f.df = dataframe.New(cols...)
	} else {
		f.df = dataframe.LoadRecords(append([][]string{names}, records...),
			dataframe.HasHeader(true),
			dataframe.DetectTypes(false),
			dataframe.DefaultType(series.String),
			dataframe.NaNValues(naTokens),
		)
	}
	if f.df.Err != nil {
		return nil, f.df.Err
	}
	return f, nil
}

func (f *Frame) Len() int {
	return f.rows
}

// Origin returns the source row number of row i.
func (f *Frame) Origin(i int) int {
	if i < len(f.origin) {
		return f.origin[i]
	}
	return i + 1
}

func (f *Frame) Names() []string {
	if f.df.Ncol() == 0 {
		return nil
	}
	return f.df.Names()
}

func (f *Frame) index(name string) int {
	for i, n := range f.Names() {
		if n == name {
			return i
		}
	}
	return -1
}

// Column returns a copy of the named column.
func (f *Frame) Column(name string) (*Column, bool) {
	if f.index(name) < 0 {
		return nil, false
	}
	return fromSeries(f.df.Col(name)), true
}

func (f *Frame) Has(name string) bool {
	return f.index(name) >= 0
}

// Absent returns the names from want that the frame does not have.
func (f *Frame) Absent(want []string) []string {
	var out []string
	for _, name := range want {
		if !f.Has(name) {
			out = append(out, name)
		}
	}
	return out
}

func (f *Frame) derive(df dataframe.DataFrame, origin []int) *Frame {
	if df.Err != nil {
		panic(fmt.Sprintf("frame: %v", df.Err))
	}
	return &Frame{df: df, rows: len(origin), origin: origin}
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	if f.df.Ncol() == 0 {
		return &Frame{rows: f.rows, origin: append([]int(nil), f.origin...)}
	}
	return f.derive(f.df.Copy(), append([]int(nil), f.origin...))
}

// Drop returns a copy without the named columns. Unknown names are ignored.
func (f *Frame) Drop(names ...string) *Frame {
	skip := make(map[string]struct{}, len(names))
	for _, n := range names {
		skip[n] = struct{}{}
	}
	var keep []string
	for _, n := range f.Names() {
		if _, ok := skip[n]; !ok {
			keep = append(keep, n)
		}
	}
	out, _ := f.Project(keep)
	return out
}

// Project returns a copy holding exactly the named columns, in that order.
func (f *Frame) Project(names []string) (*Frame, error) {
	for _, name := range names {
		if !f.Has(name) {
			return nil, fmt.Errorf("no column %s", name)
		}
	}
	origin := append([]int(nil), f.origin...)
	if len(names) == 0 {
		return &Frame{rows: f.rows, origin: origin}, nil
	}
	return f.derive(f.df.Select(names), origin), nil
}

// Select returns a copy holding only the given rows, in the given order.
func (f *Frame) Select(rows []int) *Frame {
	origin := make([]int, len(rows))
	for i, r := range rows {
		origin[i] = f.Origin(r)
	}
	if f.df.Ncol() == 0 {
		return &Frame{rows: len(rows), origin: origin}
	}
	return f.derive(f.df.Subset(rows), origin)
}

func (f *Frame) cell(i, j int) (string, bool) {
	e := f.df.Elem(i, j)
	if e.Type() == series.Float {
		v := e.Float()
		return formatNumber(v), math.IsNaN(v)
	}
	s := e.String()
	return s, e.IsNA() || IsNA(s)
}

// Row renders every cell of row i as a string, in column order.
func (f *Frame) Row(i int) []string {
	out := make([]string, f.df.Ncol())
	for j := range out {
		out[j], _ = f.cell(i, j)
	}
	return out
}

// RowHasMissing reports whether any cell of row i is missing.
func (f *Frame) RowHasMissing(i int) bool {
	for j := 0; j < f.df.Ncol(); j++ {
		if _, missing := f.cell(i, j); missing {
			return true
		}
	}
	return false
}

// SetNumber replaces the named column with a number column in place, or
// appends it when the frame has no such column.
func (f *Frame) SetNumber(name string, values []float64) error {
	return f.set(series.New(values, series.Float, name), len(values))
}

// SetText is the text counterpart of SetNumber.
func (f *Frame) SetText(name string, values []string) error {
	return f.set(series.New(values, series.String, name), len(values))
}

func (f *Frame) set(s series.Series, n int) error {
	if n != f.rows {
		return fmt.Errorf("column %s has %d values, frame has %d rows", s.Name, n, f.rows)
	}
	if s.Err != nil {
		return s.Err
	}
	var df dataframe.DataFrame
	if f.df.Ncol() == 0 {
		df = dataframe.New(s)
	} else {
		df = f.df.Mutate(s)
	}
	if df.Err != nil {
		return fmt.Errorf("set column %s: %w", s.Name, df.Err)
	}
	f.df = df
	return nil
}

// AppendNumbers adds new number columns at the end in one pass. Every name
// must be new to the frame.
func (f *Frame) AppendNumbers(names []string, values [][]float64) error {
	if len(names) != len(values) {
		return fmt.Errorf("%d names for %d columns", len(names), len(values))
	}
	if len(names) == 0 {
		return nil
	}
	cols := make([]series.Series, len(names))
	for j, name := range names {
		if f.Has(name) {
			return fmt.Errorf("column %s already exists", name)
		}
		if len(values[j]) != f.rows {
			return fmt.Errorf("column %s has %d values, frame has %d rows", name, len(values[j]), f.rows)
		}
		cols[j] = series.New(values[j], series.Float, name)
	}
	added := dataframe.New(cols...)
	if f.df.Ncol() > 0 {
		added = f.df.CBind(added)
	}
	if added.Err != nil {
		return added.Err
	}
	f.df = added
	return nil
}

// Matrix converts an all-number frame into row-major form.
func (f *Frame) Matrix() (*Matrix, error) {
	names := f.Names()
	cols := make([][]float64, len(names))
	for j, name := range names {
		s := f.df.Col(name)
		if s.Type() != series.Float {
			return nil, fmt.Errorf("column %s is %s, want number", name, Text)
		}
		cols[j] = s.Float()
	}
	m := &Matrix{Columns: names, Rows: make([][]float64, f.rows)}
	for i := range m.Rows {
		row := make([]float64, len(cols))
		for j := range cols {
			row[j] = cols[j][i]
		}
		m.Rows[i] = row
	}
	return m, nil
}

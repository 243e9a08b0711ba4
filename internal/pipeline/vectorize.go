package pipeline

import (
	"math"
	"sort"

	"salaryprep/internal"
	"salaryprep/internal/frame"
	"salaryprep/internal/util"
)

// DefaultMinTokenLen drops single-character tokens.
const DefaultMinTokenLen = 2

// Vectorizer is a fitted TF-IDF model over job titles. It is not changed
// after FitVectorizer returns.
type Vectorizer struct {
	Vocabulary  []string  `json:"vocabulary" yaml:"vocabulary"`
	IDF         []float64 `json:"idf" yaml:"idf"`
	MinTokenLen int       `json:"minTokenLen" yaml:"min_token_len"`
}

// FitVectorizer learns the sorted vocabulary of titles and the smoothed
// inverse document frequency of every term, ln((1+n)/(1+df)) + 1.
func FitVectorizer(titles []string, minTokenLen int) *Vectorizer {
	if minTokenLen < 1 {
		minTokenLen = DefaultMinTokenLen
	}
	df := map[string]int{}
	for _, title := range titles {
		seen := map[string]struct{}{}
		for _, tok := range util.Tokenize(title, minTokenLen) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	vocab := make([]string, 0, len(df))
	for term := range df {
		vocab = append(vocab, term)
	}
	sort.Strings(vocab)

	n := float64(len(titles))
	idf := make([]float64, len(vocab))
	for i, term := range vocab {
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	return &Vectorizer{Vocabulary: vocab, IDF: idf, MinTokenLen: minTokenLen}
}

// Columns lists the feature columns Apply appends.
func (v *Vectorizer) Columns() []string {
	out := make([]string, len(v.Vocabulary))
	for i, term := range v.Vocabulary {
		out[i] = internal.JobTitlePrefix + term
	}
	return out
}

// Transform returns one L2-normalised row per title. Terms outside the
// vocabulary are ignored; a title with no known term yields a zero row.
func (v *Vectorizer) Transform(titles []string) [][]float64 {
	index := make(map[string]int, len(v.Vocabulary))
	for i, term := range v.Vocabulary {
		index[term] = i
	}
	minLen := v.MinTokenLen
	if minLen < 1 {
		minLen = DefaultMinTokenLen
	}

	rows := make([][]float64, len(titles))
	for r, title := range titles {
		row := make([]float64, len(v.Vocabulary))
		for _, tok := range util.Tokenize(title, minLen) {
			if j, ok := index[tok]; ok {
				row[j]++
			}
		}
		var sum float64
		for j := range row {
			row[j] *= v.IDF[j]
			sum += row[j] * row[j]
		}
		if sum > 0 {
			norm := math.Sqrt(sum)
			for j := range row {
				row[j] /= norm
			}
		}
		rows[r] = row
	}
	return rows
}

// Apply replaces job_title with one number column per vocabulary term.
func (v *Vectorizer) Apply(f *frame.Frame) (*frame.Frame, error) {
	col, err := textColumn(f, internal.ColJobTitle)
	if err != nil {
		return nil, err
	}
	rows := v.Transform(col.Text)

	names := v.Columns()
	values := make([][]float64, len(names))
	for j := range names {
		values[j] = make([]float64, len(rows))
		for i, row := range rows {
			values[j][i] = row[j]
		}
	}
	out := f.Drop(internal.ColJobTitle)
	if err := out.AppendNumbers(names, values); err != nil {
		return nil, err
	}
	return out, nil
}

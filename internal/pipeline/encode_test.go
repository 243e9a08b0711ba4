package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var encodeHeader = []string{"experience_level", "employment_type", "company_size", "job_title"}

func TestEncodeOrdinalsAndOneHot(t *testing.T) {
	in := mkFrame(t, encodeHeader,
		[]string{"SE", "FT", "M", "a"},
		[]string{"EN", "PT", "S", "b"},
		[]string{"EX", "CT", "L", "c"},
		[]string{"MI", "FT", "M", "d"},
	)
	out, err := Encode(in)
	require.NoError(t, err)

	assert.Equal(t, []float64{3, 1, 4, 2}, numbers(t, out, "experience_level"))
	assert.Equal(t, []float64{2, 1, 3, 2}, numbers(t, out, "company_size"))
	assert.Equal(t, []string{"experience_level", "company_size", "job_title", "employment_type_FT", "employment_type_PT"}, out.Names())
	assert.Equal(t, []float64{1, 0, 0, 1}, numbers(t, out, "employment_type_FT"))
	assert.Equal(t, []float64{0, 1, 0, 0}, numbers(t, out, "employment_type_PT"))
}

func TestFitEncodingReference(t *testing.T) {
	enc, err := FitEncoding(mkFrame(t, encodeHeader,
		[]string{"SE", "PT", "M", "a"},
		[]string{"SE", "FL", "M", "a"},
	))
	require.NoError(t, err)
	assert.Equal(t, []string{"FL", "PT"}, enc.EmploymentTypes)
	assert.Equal(t, "FL", enc.Reference)
	assert.Equal(t, []string{"employment_type_PT"}, enc.Columns())
}

func TestEncodeSingleCategoryKeepsColumn(t *testing.T) {
	out, err := Encode(mkFrame(t, encodeHeader, []string{"SE", "FT", "M", "a"}))
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, numbers(t, out, "employment_type_FT"))
	assert.False(t, out.Has("employment_type"))
}

func TestEncodeRejectsUnknownOrdinal(t *testing.T) {
	_, err := Encode(mkFrame(t, encodeHeader,
		[]string{"SE", "FT", "M", "a"},
		[]string{"XX", "FT", "M", "a"},
	))
	require.ErrorIs(t, err, ErrEncoding)

	var encErr *EncodingError
	require.True(t, errors.As(err, &encErr))
	assert.Equal(t, 2, encErr.Row)
	assert.Equal(t, "experience_level", encErr.Column)
	assert.Equal(t, "XX", encErr.Value)

	_, err = Encode(mkFrame(t, encodeHeader, []string{"SE", "FT", "XL", "a"}))
	require.ErrorIs(t, err, ErrEncoding)
}

func TestFrozenEncodingRejectsUnseenType(t *testing.T) {
	enc := CategoryEncoding{EmploymentTypes: []string{"FT", "PT"}, Reference: "FT"}

	out, err := enc.Apply(mkFrame(t, encodeHeader, []string{"SE", "FT", "M", "a"}, []string{"SE", "PT", "M", "a"}))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, numbers(t, out, "employment_type_PT"))
	assert.False(t, out.Has("employment_type_FT"))

	_, err = enc.Apply(mkFrame(t, encodeHeader, []string{"SE", "FL", "M", "a"}))
	require.ErrorIs(t, err, ErrEncoding)
}

func TestEncodeMissingColumn(t *testing.T) {
	_, err := Encode(mkFrame(t, []string{"experience_level"}, []string{"SE"}))
	require.ErrorIs(t, err, ErrValidation)
}

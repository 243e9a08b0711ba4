package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var resolveHeader = []string{"work_year", "employee_residence", "company_location"}

func TestResolveUsesRowYear(t *testing.T) {
	in := mkFrame(t, resolveHeader,
		[]string{"2023", "US", "GB"},
		[]string{"2022", "GB", "US"},
		[]string{"2023.0", "DE", "DE"},
	)
	out, err := Resolve(in, testRef())
	require.NoError(t, err)

	assert.Equal(t, []float64{25000, 45000, 48000}, numbers(t, out, "employee_residence"))
	assert.Equal(t, []float64{46000, 24000, 48000}, numbers(t, out, "company_location"))

	col, _ := in.Column("company_location")
	assert.Equal(t, "GB", col.Text[0])
}

func TestResolveAbsentPairAbortsBatch(t *testing.T) {
	in := mkFrame(t, resolveHeader,
		[]string{"2023", "US", "US"},
		[]string{"2022", "DE", "US"},
	)
	out, err := Resolve(in, testRef())
	require.Nil(t, out)
	require.ErrorIs(t, err, ErrResolution)

	var resErr *ResolutionError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, ResolutionError{Row: 2, Column: "employee_residence", Country: "DE", Year: 2022}, *resErr)
}

func TestResolveUnknownCountry(t *testing.T) {
	_, err := Resolve(mkFrame(t, resolveHeader, []string{"2023", "US", "ZZ"}), testRef())
	require.ErrorIs(t, err, ErrResolution)
}

func TestResolveRejectsBadYear(t *testing.T) {
	for _, year := range []string{"abc", "2023.5"} {
		_, err := Resolve(mkFrame(t, resolveHeader, []string{year, "US", "US"}), testRef())
		require.ErrorIs(t, err, ErrType, year)
	}
}

func TestNewReferenceTable(t *testing.T) {
	f := mkFrame(t, []string{"country", "alpha_2", "2022", "2023"},
		[]string{"United States", "US", "70000.5", "76000"},
		[]string{"Germany", " DE ", "", "52000"},
	)
	ref, err := NewReferenceTable(f, "alpha_2")
	require.NoError(t, err)

	v, ok := ref.Lookup("US", 2022)
	require.True(t, ok)
	assert.Equal(t, 70000.5, v)

	v, ok = ref.Lookup("DE", 2023)
	require.True(t, ok)
	assert.Equal(t, 52000.0, v)

	_, ok = ref.Lookup("DE", 2022)
	assert.False(t, ok)
	assert.Equal(t, []string{"DE", "US"}, ref.Countries())
}

func TestNewReferenceTableErrors(t *testing.T) {
	_, err := NewReferenceTable(mkFrame(t, []string{"code", "2023"}, []string{"US", "1"}), "alpha_2")
	require.ErrorIs(t, err, ErrValidation)

	_, err = NewReferenceTable(mkFrame(t, []string{"alpha_2", "name"}, []string{"US", "x"}), "alpha_2")
	require.ErrorIs(t, err, ErrValidation)

	_, err = NewReferenceTable(mkFrame(t, []string{"alpha_2", "2023"}, []string{"US", "lots"}), "alpha_2")
	require.ErrorIs(t, err, ErrType)

	_, err = NewReferenceTable(mkFrame(t, []string{"alpha_2", "2023"}, []string{"US", "1"}, []string{"US", "2"}), "alpha_2")
	require.ErrorIs(t, err, ErrValidation)
}

package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreprocessSingleRecord(t *testing.T) {
	ds := mkFrame(t, jobHeader, job("2023", "SE", "FT", "Data Scientist", "120000", "US", "US", "M"))
	ref := NewReferenceTableFromMap(map[string]map[int]float64{"US": {2023: 25000}})

	m, err := Preprocess(ds, ref)
	require.NoError(t, err)
	require.Equal(t, 1, m.Len())

	assert.Equal(t, []string{
		"work_year", "experience_level", "salary_in_usd", "employee_residence", "company_location",
		"company_size", "employment_type_FT", "job_title_data", "job_title_scientist",
	}, m.Columns)

	value := func(name string) float64 {
		v, ok := m.Value(0, name)
		require.True(t, ok, name)
		return v
	}
	assert.Equal(t, 2023.0, value("work_year"))
	assert.Equal(t, 3.0, value("experience_level"))
	assert.Equal(t, 2.0, value("company_size"))
	assert.Equal(t, 25000.0, value("employee_residence"))
	assert.Equal(t, 25000.0, value("company_location"))
	assert.Equal(t, 1.0, value("employment_type_FT"))
	assert.Greater(t, value("job_title_data"), 0.0)
	assert.Greater(t, value("job_title_scientist"), 0.0)
	assert.Equal(t, 120000.0, value("salary_in_usd"))
}

func TestPreprocessCollapsesDuplicates(t *testing.T) {
	rec := job("2023", "SE", "FT", "Data Scientist", "120000", "US", "US", "M")
	m, err := Preprocess(mkFrame(t, jobHeader, rec, rec), testRef())
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())
}

func TestPreprocessMissingColumns(t *testing.T) {
	header := []string{"work_year", "experience_level", "employment_type", "salary_in_usd", "employee_residence", "company_location", "company_size"}
	ds := mkFrame(t, header, []string{"2023", "SE", "FT", "1", "US", "US", "M"})

	_, err := Preprocess(ds, testRef())
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, []string{"job_title"}, valErr.Columns)
}

func TestPreprocessExtraColumns(t *testing.T) {
	header := append(append([]string(nil), jobHeader...), "remote_ratio")
	ok := append(job("2023", "SE", "FT", "Data Scientist", "120000", "US", "US", "M"), "100")
	m, err := Preprocess(mkFrame(t, header, ok), testRef())
	require.NoError(t, err)
	v, found := m.Value(0, "remote_ratio")
	require.True(t, found)
	assert.Equal(t, 100.0, v)

	bad := append(job("2023", "SE", "FT", "Data Scientist", "120000", "US", "US", "M"), "full")
	_, err = Preprocess(mkFrame(t, header, bad), testRef())
	require.ErrorIs(t, err, ErrType)
}

func TestPreprocessEmptyAfterCleaning(t *testing.T) {
	ds := mkFrame(t, jobHeader, job("2023", "SE", "FT", "", "120000", "US", "US", "M"))
	m, err := Preprocess(ds, testRef())
	require.NoError(t, err)
	assert.Zero(t, m.Len())
}

func trainingSet(t *testing.T) [][]string {
	t.Helper()
	return [][]string{
		job("2023", "SE", "FT", "Data Scientist", "120000", "US", "US", "M"),
		job("2023", "MI", "PT", "Data Engineer", "60000", "GB", "GB", "S"),
		job("2022", "EN", "FT", "ML Engineer", "40000", "US", "GB", "L"),
		job("2023", "EX", "CT", "Head of Data", "200000", "DE", "US", "L"),
	}
}

func TestFitThenTransformKeepsColumns(t *testing.T) {
	p, err := New(DefaultOptions())
	require.NoError(t, err)

	schema, fitted, rep, err := p.Fit(mkFrame(t, jobHeader, trainingSet(t)...), testRef())
	require.NoError(t, err)
	require.NoError(t, schema.Validate())
	assert.NotEmpty(t, schema.ID)
	assert.Equal(t, 4, schema.RowsFit)
	assert.Equal(t, fitted.Columns, schema.Columns)
	assert.Equal(t, Bounds{Lower: 40000, Upper: 200000}, schema.Salary)
	assert.Equal(t, "CT", schema.Encoding.Reference)
	assert.Equal(t, 4, rep.Rows)
	assert.Contains(t, rep.Timings, "vectorize")

	inference := mkFrame(t, jobHeader,
		job("2023", "SE", "FT", "Quantum Data Wizard", "900000", "US", "US", "M"),
	)
	m, trep, err := p.Transform(schema, inference, testRef())
	require.NoError(t, err)
	assert.Equal(t, schema.Columns, m.Columns)
	assert.Equal(t, 1, trep.Normalize.ClampedHigh)

	salary, _ := m.Value(0, "salary_in_usd")
	assert.Equal(t, 200000.0, salary)
	data, _ := m.Value(0, "job_title_data")
	assert.InDelta(t, 1.0, data, 1e-12)
	pt, _ := m.Value(0, "employment_type_PT")
	assert.Zero(t, pt)
	assert.Equal(t, -1, m.Index("job_title_quantum"))
}

func TestTransformRejectsUnseenEmploymentType(t *testing.T) {
	p, err := New(DefaultOptions())
	require.NoError(t, err)
	schema, _, _, err := p.Fit(mkFrame(t, jobHeader, trainingSet(t)...), testRef())
	require.NoError(t, err)

	_, _, err = p.Transform(schema, mkFrame(t, jobHeader, job("2023", "SE", "FL", "Data Scientist", "1", "US", "US", "M")), testRef())
	require.ErrorIs(t, err, ErrEncoding)
}

func TestTransformRequiresFittedExtraColumns(t *testing.T) {
	header := append(append([]string(nil), jobHeader...), "remote_ratio")
	rows := trainingSet(t)
	for i := range rows {
		rows[i] = append(rows[i], "50")
	}
	p, err := New(DefaultOptions())
	require.NoError(t, err)
	schema, _, _, err := p.Fit(mkFrame(t, header, rows...), testRef())
	require.NoError(t, err)

	_, _, err = p.Transform(schema, mkFrame(t, jobHeader, trainingSet(t)[0]), testRef())
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, []string{"remote_ratio"}, valErr.Columns)
}

func TestOptionsValidate(t *testing.T) {
	require.NoError(t, DefaultOptions().Validate())

	_, err := New(Options{WinsorLower: 0.6, WinsorUpper: 0.01, MinTokenLen: 2})
	require.Error(t, err)
	_, err = New(Options{WinsorLower: 0.01, WinsorUpper: 0.01, MinTokenLen: 0})
	require.Error(t, err)
}

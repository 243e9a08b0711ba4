package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaExportImport(t *testing.T) {
	p, err := New(DefaultOptions())
	require.NoError(t, err)
	schema, _, _, err := p.Fit(mkFrame(t, jobHeader, trainingSet(t)...), testRef())
	require.NoError(t, err)
	schema.Name = "baseline"

	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, ExportSchema(schema, path))

	loaded, err := ImportSchema(path)
	require.NoError(t, err)
	assert.Equal(t, schema, loaded)
}

func TestSchemaValidate(t *testing.T) {
	s := &Schema{ID: "x", Vectorizer: Vectorizer{Vocabulary: []string{"data"}}}
	require.Error(t, s.Validate())

	s = &Schema{ID: "x", Salary: Bounds{Lower: 2, Upper: 1}}
	require.Error(t, s.Validate())

	s = &Schema{ID: "x", Encoding: CategoryEncoding{EmploymentTypes: []string{"FT"}, Reference: "PT"}}
	require.Error(t, s.Validate())

	require.Error(t, (&Schema{}).Validate())
}

func TestUnmarshalSchemaRejectsGarbage(t *testing.T) {
	_, err := UnmarshalSchema([]byte("id: [unterminated"))
	require.Error(t, err)
}

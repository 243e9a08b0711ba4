package storage

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salaryprep/internal"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSchemas(t *testing.T) {
	db := openTestDB(t)

	missing, err := db.GetSchema("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
	latest, err := db.LatestSchema()
	require.NoError(t, err)
	assert.Nil(t, latest)

	first := internal.SchemaRecord{ID: "a", Name: "first", RowsFit: 10, Columns: []string{"work_year"}, Body: "id: a\n", CreatedAt: "2026-01-01T00:00:00Z"}
	second := internal.SchemaRecord{ID: "b", Name: "second", RowsFit: 20, Columns: []string{"work_year", "job_title_data"}, Body: "id: b\n", CreatedAt: "2026-02-01T00:00:00Z"}
	require.NoError(t, db.SaveSchema(first))
	require.NoError(t, db.SaveSchema(second))

	got, err := db.GetSchema("a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first, *got)

	latest, err = db.LatestSchema()
	require.NoError(t, err)
	assert.Equal(t, "b", latest.ID)

	all, err := db.ListSchemas()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].ID)

	first.Name = "renamed"
	require.NoError(t, db.SaveSchema(first))
	got, err = db.GetSchema("a")
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)
}

func TestMustSchemaPrefersActive(t *testing.T) {
	db := openTestDB(t)

	_, err := db.MustSchema("")
	require.Error(t, err)

	require.NoError(t, db.SaveSchema(internal.SchemaRecord{ID: "old", Name: "old", Body: "x", CreatedAt: "2026-01-01T00:00:00Z"}))
	require.NoError(t, db.SaveSchema(internal.SchemaRecord{ID: "new", Name: "new", Body: "x", CreatedAt: "2026-02-01T00:00:00Z"}))

	rec, err := db.MustSchema("")
	require.NoError(t, err)
	assert.Equal(t, "new", rec.ID)

	require.NoError(t, db.SetMetadata(MetaActiveSchema, "old"))
	rec, err = db.MustSchema("")
	require.NoError(t, err)
	assert.Equal(t, "old", rec.ID)

	rec, err = db.MustSchema("new")
	require.NoError(t, err)
	assert.Equal(t, "new", rec.ID)

	_, err = db.MustSchema("gone")
	require.Error(t, err)
}

func TestRuns(t *testing.T) {
	db := openTestDB(t)
	schemaID := "a"
	require.NoError(t, db.InsertRun(internal.RunRow{TraceID: "t1", Mode: internal.ModeFit, SchemaID: &schemaID, Input: "train.csv",
		Timings: map[string]float64{"totalMs": 1.5}, Counts: map[string]int{"rows": 4}}))
	require.NoError(t, db.InsertRun(internal.RunRow{TraceID: "t2", Mode: internal.ModePreprocess, Input: "jobs.csv"}))

	runs, err := db.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "t2", runs[0].TraceID)
	assert.Nil(t, runs[0].SchemaID)
	assert.Equal(t, internal.ModeFit, runs[1].Mode)
	assert.Equal(t, "a", *runs[1].SchemaID)
	assert.Equal(t, 4, runs[1].Counts["rows"])
	assert.Equal(t, 1.5, runs[1].Timings["totalMs"])
}

func TestDatasets(t *testing.T) {
	db := openTestDB(t)

	row, err := db.UpsertDataset("/inbox/a.csv", "h1")
	require.NoError(t, err)
	assert.Equal(t, internal.DatasetPending, row.Status)

	again, err := db.UpsertDataset("/inbox/a.csv", "h1")
	require.NoError(t, err)
	assert.Equal(t, row.ID, again.ID)

	_, err = db.UpsertDataset("/inbox/a.csv", "h2")
	require.NoError(t, err)

	pending, err := db.ListDatasetsByStatus(internal.DatasetPending, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	schemaID, out := "s1", "/out/a.xlsx"
	require.NoError(t, db.UpdateDatasetStatus(row.ID, internal.DatasetTransformed, &schemaID, &out, nil))

	got, err := db.GetDataset("/inbox/a.csv", "h1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, internal.DatasetTransformed, got.Status)
	assert.Equal(t, "/out/a.xlsx", *got.OutputPath)
	assert.Nil(t, got.Error)

	pending, err = db.ListDatasetsByStatus(internal.DatasetPending, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestMetadata(t *testing.T) {
	db := openTestDB(t)

	v, err := db.GetMetadata("k")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, db.SetMetadata("k", "1"))
	require.NoError(t, db.SetMetadata("k", "2"))
	v, err = db.GetMetadata("k")
	require.NoError(t, err)
	assert.Equal(t, "2", *v)
}

func TestRunsSurfaceJSONErrors(t *testing.T) {
	db := openTestDB(t)

	err := db.InsertRun(internal.RunRow{TraceID: "inf", Mode: internal.ModeFit, Timings: map[string]float64{"totalMs": math.Inf(1)}})
	require.Error(t, err)
	runs, err := db.ListRuns(10)
	require.NoError(t, err)
	assert.Empty(t, runs)

	_, err = db.conn.Exec(`INSERT INTO runs (traceId, mode, input, timingsJson, countsJson) VALUES ('bad', 'fit', 'x.csv', '{', '{}')`)
	require.NoError(t, err)
	_, err = db.ListRuns(10)
	require.Error(t, err)
}

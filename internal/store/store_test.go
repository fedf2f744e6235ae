package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/agreement.report/internal/metrics"
	"github.com/banshee-data/agreement.report/internal/trade"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleScores() *metrics.AllPairScores {
	annotators := []string{"a@x.com", "b@x.com"}
	perField := map[string]float64{}
	for _, field := range trade.AgreementFields {
		perField[field] = 0.18
	}
	pair := &metrics.AggregatedScores{
		Overall:        0.9,
		PerField:       perField,
		PerLabelRatios: map[string]float64{"Long": 1.0},
		PerLabelCounts: map[string]float64{"Long": 2},
		NumTasks:       3,
	}
	return &metrics.AllPairScores{
		Annotators: annotators,
		Scores: map[string]map[string]*metrics.AggregatedScores{
			"a@x.com": {"b@x.com": pair},
			"b@x.com": {"a@x.com": pair},
		},
	}
}

func TestInsertAndListRuns(t *testing.T) {
	db := openTestDB(t)
	runs := NewRunStore(db)

	runID, err := runs.InsertRun(&Run{Project: "export", Trader: "alpha", Common: true, NumTasks: 12})
	require.NoError(t, err)
	assert.NotEmpty(t, runID)

	_, err = runs.InsertRun(&Run{Project: "other"})
	require.NoError(t, err)

	list, err := runs.ListRuns("export")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, runID, list[0].RunID)
	assert.Equal(t, "alpha", list[0].Trader)
	assert.True(t, list[0].Common)
	assert.Equal(t, 12, list[0].NumTasks)

	all, err := runs.ListRuns("")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestInsertAndListScores(t *testing.T) {
	db := openTestDB(t)
	runs := NewRunStore(db)

	runID, err := runs.InsertRun(&Run{Project: "export"})
	require.NoError(t, err)

	require.NoError(t, runs.InsertScores(runID, sampleScores()))

	scores, err := runs.ListScores(runID)
	require.NoError(t, err)
	require.Len(t, scores, 2)

	first := scores[0]
	assert.Equal(t, "a@x.com", first.PrimaryAnnotator)
	assert.Equal(t, "b@x.com", first.SecondaryAnnot)
	assert.InDelta(t, 0.9, first.Overall, 1e-9)
	assert.Equal(t, 3, first.NumTasks)
	assert.JSONEq(t, `{"Long": 1.0}`, string(first.PerLabelJSON))
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

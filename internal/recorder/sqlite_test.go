package recorder

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteRecorder_HistoryNewestFirst(t *testing.T) {
	r, err := NewSQLiteRecorder(openTestDB(t), zaptest.NewLogger(t))
	require.NoError(t, err)

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	events := []*FundEvent{
		{FundID: 1, FundName: "Alpha", Action: ActionAdd, Timestamp: base},
		{FundID: 1, FundName: "Alpha", Action: ActionStepDone, Step: "info", Timestamp: base.Add(time.Hour)},
		{FundID: 2, FundName: "Beta", Action: ActionAdd, Timestamp: base.Add(2 * time.Hour)},
	}
	for _, e := range events {
		require.NoError(t, r.RecordFundEvent(e))
		assert.NotEmpty(t, e.ID)
	}

	got, err := r.History(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, ActionStepDone, got[0].Action)
	assert.Equal(t, "info", got[0].Step)
	assert.Equal(t, ActionAdd, got[1].Action)
	assert.True(t, got[0].Timestamp.Equal(base.Add(time.Hour)))

	got, err = r.History(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSQLiteRecorder_MigrateIdempotent(t *testing.T) {
	db := openTestDB(t)
	_, err := NewSQLiteRecorder(db, nil)
	require.NoError(t, err)
	_, err = NewSQLiteRecorder(db, nil)
	require.NoError(t, err)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordFundEvent(&FundEvent{FundID: 1}))
	got, err := r.History(context.Background(), 1, 5)
	assert.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, r.Close())
}

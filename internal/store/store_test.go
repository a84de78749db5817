package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"FundReview/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	_ "modernc.org/sqlite"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "funds.db"), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func date(s string) time.Time {
	d, err := time.Parse(model.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCreate_AppendsAtEnd(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a, err := s.Create(ctx, "Alpha", date("2024-03-01"))
	require.NoError(t, err)
	b, err := s.Create(ctx, "  Beta  ", date("2024-02-01"))
	require.NoError(t, err)

	funds, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, funds, 2)
	assert.Equal(t, a, funds[0].ID)
	assert.Equal(t, b, funds[1].ID)
	assert.Equal(t, int64(1000), funds[0].SortKey)
	assert.Equal(t, int64(1010), funds[1].SortKey)
	assert.Equal(t, "Beta", funds[1].Name)
	for _, st := range funds[0].Steps {
		assert.False(t, st.Done)
		assert.Nil(t, st.CompletedOn)
	}
}

func TestCreate_EmptyNameRejected(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"", "   ", "\t\n"} {
		_, err := s.Create(ctx, name, date("2024-03-01"))
		assert.True(t, model.IsValidation(err), "name %q: got %v", name, err)
	}
	_, err := s.Create(ctx, "Alpha", time.Time{})
	assert.True(t, model.IsValidation(err))

	funds, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, funds)
}

func TestList_SortedBySortKeyThenID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var ids []int64
	for _, name := range []string{"A", "B", "C", "D"} {
		id, err := s.Create(ctx, name, date("2024-01-01"))
		require.NoError(t, err)
		ids = append(ids, id)
	}
	// Force a tie and an inversion.
	require.NoError(t, s.InTx(ctx, func(tx *Tx) error {
		if err := tx.setSortKey(ids[3], 5); err != nil {
			return err
		}
		return tx.setSortKey(ids[1], 5)
	}))

	funds, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, funds, 4)

	seen := map[int64]int{}
	for _, f := range funds {
		seen[f.ID]++
	}
	for _, id := range ids {
		assert.Equal(t, 1, seen[id])
	}
	assert.True(t, sort.SliceIsSorted(funds, func(i, j int) bool {
		if funds[i].SortKey != funds[j].SortKey {
			return funds[i].SortKey < funds[j].SortKey
		}
		return funds[i].ID < funds[j].ID
	}))
	assert.Equal(t, []int64{ids[1], ids[3], ids[0], ids[2]},
		[]int64{funds[0].ID, funds[1].ID, funds[2].ID, funds[3].ID})
}

func TestSetField(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	id, err := s.Create(ctx, "Alpha", date("2024-03-01"))
	require.NoError(t, err)

	require.NoError(t, s.SetField(ctx, id, FieldName, "Alpha II"))
	require.NoError(t, s.SetField(ctx, id, FieldAssignedDate, "2024-04-02"))
	on := date("2024-04-05")
	require.NoError(t, s.SetField(ctx, id, StepField(model.StepAnalyst), model.StepState{Done: true, CompletedOn: &on}))
	require.NoError(t, s.SetField(ctx, id, StepDateField(model.StepAnalyst), date("2024-04-06")))

	f, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Alpha II", f.Name)
	assert.Equal(t, "2024-04-02", model.FormatDate(f.AssignedDate))
	st := f.Step(model.StepAnalyst)
	assert.True(t, st.Done)
	require.NotNil(t, st.CompletedOn)
	assert.Equal(t, "2024-04-06", model.FormatDate(*st.CompletedOn))

	require.NoError(t, s.SetField(ctx, id, StepField(model.StepAnalyst), false))
	f, err = s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StepState{}, f.Step(model.StepAnalyst))
}

func TestSetField_Errors(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	id, err := s.Create(ctx, "Alpha", date("2024-03-01"))
	require.NoError(t, err)

	on := date("2024-04-05")
	tests := []struct {
		name  string
		id    int64
		field Field
		value any
		check func(error) bool
	}{
		{"unknown id", id + 100, FieldName, "x", model.IsNotFound},
		{"empty name", id, FieldName, "  ", model.IsValidation},
		{"name wrong type", id, FieldName, 42, model.IsValidation},
		{"bad date", id, FieldAssignedDate, "03/01/2024", model.IsValidation},
		{"flag without date", id, StepField(model.StepEmail), true, model.IsValidation},
		{"date without flag", id, StepField(model.StepEmail), model.StepState{CompletedOn: &on}, model.IsValidation},
		{"date on pending step", id, StepDateField(model.StepEmail), on, model.IsValidation},
		{"step on unknown id", id + 100, StepField(model.StepEmail), model.StepState{Done: true, CompletedOn: &on}, model.IsNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.SetField(ctx, tt.id, tt.field, tt.value)
			assert.True(t, tt.check(err), "got %v", err)
		})
	}

	f, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Alpha", f.Name)
	assert.Equal(t, model.StepState{}, f.Step(model.StepEmail))
}

func TestParseField(t *testing.T) {
	f, err := ParseField("step7_rej")
	require.NoError(t, err)
	assert.Equal(t, StepField(model.StepRejected), f)

	f, err = ParseField("step3_anlys_date")
	require.NoError(t, err)
	assert.Equal(t, StepDateField(model.StepAnalyst), f)

	_, err = ParseField("fund_name; DROP TABLE funds")
	assert.True(t, model.IsValidation(err))
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	id, err := s.Create(ctx, "Alpha", date("2024-03-01"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, id))
	_, err = s.Get(ctx, id)
	assert.True(t, model.IsNotFound(err))
	assert.True(t, model.IsNotFound(s.Delete(ctx, id)))
}

func TestSwapOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	a, _ := s.Create(ctx, "A", date("2024-01-01"))
	b, _ := s.Create(ctx, "B", date("2024-01-01"))
	c, _ := s.Create(ctx, "C", date("2024-01-01"))

	require.NoError(t, s.SwapOrder(ctx, a, c))
	funds, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{c, b, a}, []int64{funds[0].ID, funds[1].ID, funds[2].ID})

	err = s.SwapOrder(ctx, a, 999)
	assert.True(t, model.IsNotFound(err))
	funds, err = s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{c, b, a}, []int64{funds[0].ID, funds[1].ID, funds[2].ID})
}

func TestInTx_RollsBackOnError(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	id, _ := s.Create(ctx, "Alpha", date("2024-03-01"))

	err := s.InTx(ctx, func(tx *Tx) error {
		if err := tx.SetName(id, "Changed"); err != nil {
			return err
		}
		return tx.SetName(id+1, "Missing")
	})
	assert.True(t, model.IsNotFound(err))

	f, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Alpha", f.Name)
}

func TestOpen_MigratesLegacyTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fund_checklist.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE funds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		fund_name TEXT NOT NULL,
		assigned_date TEXT NOT NULL,
		step2_info INTEGER DEFAULT 0, step3_anlys INTEGER DEFAULT 0, step4_myrev INTEGER DEFAULT 0,
		step5_partn INTEGER DEFAULT 0, step6_email INTEGER DEFAULT 0, step7_rej INTEGER DEFAULT 0,
		step2_info_date TEXT, step3_anlys_date TEXT, step4_myrev_date TEXT,
		step5_partn_date TEXT, step6_email_date TEXT, step7_rej_date TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO funds (fund_name, assigned_date, step7_rej, step7_rej_date)
		VALUES ('Old One', '2023-05-01', 1, '2023-06-01'), ('Old Two', '2023-05-02', 0, NULL)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := Open(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer s.Close()

	funds, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, funds, 2)
	assert.Equal(t, int64(10), funds[0].SortKey)
	assert.Equal(t, int64(20), funds[1].SortKey)
	assert.True(t, funds[0].Rejected())
	require.NotNil(t, funds[0].Step(model.StepRejected).CompletedOn)

	id, err := s.Create(context.Background(), "New", date("2024-01-01"))
	require.NoError(t, err)
	f, err := s.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(30), f.SortKey)
}

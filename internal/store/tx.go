package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"FundReview/internal/model"

	"go.uber.org/zap"
)

// Tx exposes the store operations inside a single transaction. It must not
// be used after the InTx callback returns.
type Tx struct {
	tx  *sql.Tx
	ctx context.Context
	log *zap.Logger
}

// firstSortKey is the key given to the first fund; later ones step by sortStep.
const (
	firstSortKey = 1000
	sortStep     = 10
)

var selectColumns = func() string {
	cols := []string{"id", "sort_key", "fund_name", "assigned_date"}
	for _, st := range model.Steps {
		cols = append(cols, st.Column(), st.DateColumn())
	}
	return strings.Join(cols, ", ")
}()

type scanner interface {
	Scan(dest ...any) error
}

func (t *Tx) scanFund(row scanner) (model.Fund, error) {
	var (
		f        model.Fund
		assigned string
		flags    [model.NumSteps]int64
		dates    [model.NumSteps]sql.NullString
	)
	dest := []any{&f.ID, &f.SortKey, &f.Name, &assigned}
	for i := range model.Steps {
		dest = append(dest, &flags[i], &dates[i])
	}
	if err := row.Scan(dest...); err != nil {
		return f, err
	}

	if d, err := time.Parse(model.DateLayout, assigned); err == nil {
		f.AssignedDate = d
	} else {
		t.log.Warn("unparseable assigned_date", zap.Int64("id", f.ID), zap.String("value", assigned))
	}
	for i := range model.Steps {
		f.Steps[i].Done = flags[i] != 0
		if !dates[i].Valid || dates[i].String == "" {
			continue
		}
		d, err := time.Parse(model.DateLayout, dates[i].String)
		if err != nil {
			t.log.Warn("unparseable step date", zap.Int64("id", f.ID),
				zap.String("step", model.Steps[i].Code()), zap.String("value", dates[i].String))
			continue
		}
		f.Steps[i].CompletedOn = &d
	}
	return f, nil
}

// Create inserts a fund after every existing one.
func (t *Tx) Create(name string, assigned time.Time) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, &model.ValidationError{Field: "fund_name", Reason: "name is required"}
	}
	if assigned.IsZero() {
		return 0, &model.ValidationError{Field: "assigned_date", Reason: "assigned date is required"}
	}

	res, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO funds (sort_key, fund_name, assigned_date)
		 VALUES ((SELECT COALESCE(MAX(sort_key) + ?, ?) FROM funds), ?, ?)`,
		sortStep, firstSortKey, name, model.FormatDate(assigned))
	if err != nil {
		return 0, fmt.Errorf("insert fund: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// List returns every fund ordered by (sort_key, id).
func (t *Tx) List() ([]model.Fund, error) {
	rows, err := t.tx.QueryContext(t.ctx, "SELECT "+selectColumns+" FROM funds ORDER BY sort_key, id")
	if err != nil {
		return nil, fmt.Errorf("query funds: %w", err)
	}
	defer rows.Close()

	var funds []model.Fund
	for rows.Next() {
		f, err := t.scanFund(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fund: %w", err)
		}
		funds = append(funds, f)
	}
	return funds, rows.Err()
}

// Get returns a single fund or a NotFoundError.
func (t *Tx) Get(id int64) (model.Fund, error) {
	row := t.tx.QueryRowContext(t.ctx, "SELECT "+selectColumns+" FROM funds WHERE id = ?", id)
	f, err := t.scanFund(row)
	if errors.Is(err, sql.ErrNoRows) {
		return f, &model.NotFoundError{ID: id}
	}
	if err != nil {
		return f, fmt.Errorf("get fund %d: %w", id, err)
	}
	return f, nil
}

// SetName renames a fund. The name is trimmed and must not be empty.
func (t *Tx) SetName(id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &model.ValidationError{Field: "fund_name", Reason: "name is required"}
	}
	return t.update(id, "UPDATE funds SET fund_name = ? WHERE id = ?", name, id)
}

// SetAssignedDate changes the date the fund was assigned.
func (t *Tx) SetAssignedDate(id int64, d time.Time) error {
	if d.IsZero() {
		return &model.ValidationError{Field: "assigned_date", Reason: "assigned date is required"}
	}
	return t.update(id, "UPDATE funds SET assigned_date = ? WHERE id = ?", model.FormatDate(d), id)
}

// SetStep writes a step's flag and date together in one statement.
func (t *Tx) SetStep(id int64, step model.Step, st model.StepState) error {
	if !step.Valid() {
		return &model.ValidationError{Field: "step", Reason: fmt.Sprintf("unknown step %d", int(step))}
	}
	if !st.Consistent() {
		return &model.ValidationError{Field: step.Column(), Reason: "a step date is set exactly when the step is done"}
	}
	var flag int64
	var date sql.NullString
	if st.Done {
		flag = 1
		date = sql.NullString{String: model.FormatDate(*st.CompletedOn), Valid: true}
	}
	q := fmt.Sprintf("UPDATE funds SET %s = ?, %s = ? WHERE id = ?", step.Column(), step.DateColumn())
	return t.update(id, q, flag, date, id)
}

// SetStepDate corrects the completion date of a step that is already done.
func (t *Tx) SetStepDate(id int64, step model.Step, d time.Time) error {
	if !step.Valid() {
		return &model.ValidationError{Field: "step", Reason: fmt.Sprintf("unknown step %d", int(step))}
	}
	if d.IsZero() {
		return &model.ValidationError{Field: step.DateColumn(), Reason: "date is required"}
	}
	f, err := t.Get(id)
	if err != nil {
		return err
	}
	if !f.Step(step).Done {
		return &model.ValidationError{Field: step.DateColumn(), Reason: "step is not done"}
	}
	q := fmt.Sprintf("UPDATE funds SET %s = ? WHERE id = ?", step.DateColumn())
	return t.update(id, q, model.FormatDate(d), id)
}

// SetField coerces value to the field's type and forwards to its setter.
func (t *Tx) SetField(id int64, field Field, value any) error {
	switch field.kind {
	case kindName:
		name, ok := value.(string)
		if !ok {
			return typeError(field, "string", value)
		}
		return t.SetName(id, name)
	case kindAssignedDate:
		d, err := coerceDate(field, value)
		if err != nil {
			return err
		}
		return t.SetAssignedDate(id, d)
	case kindStep:
		switch v := value.(type) {
		case model.StepState:
			return t.SetStep(id, field.step, v)
		case bool:
			if v {
				return &model.ValidationError{Field: field.String(), Reason: "marking a step done needs a date"}
			}
			return t.SetStep(id, field.step, model.StepState{})
		default:
			return typeError(field, "StepState or bool", value)
		}
	case kindStepDate:
		d, err := coerceDate(field, value)
		if err != nil {
			return err
		}
		return t.SetStepDate(id, field.step, d)
	}
	return &model.ValidationError{Field: "field", Reason: "unknown field"}
}

// Delete removes a fund.
func (t *Tx) Delete(id int64) error {
	return t.update(id, "DELETE FROM funds WHERE id = ?", id)
}

// SwapOrder exchanges the sort keys of a and b.
func (t *Tx) SwapOrder(a, b int64) error {
	fa, err := t.Get(a)
	if err != nil {
		return err
	}
	fb, err := t.Get(b)
	if err != nil {
		return err
	}
	if err := t.setSortKey(a, fb.SortKey); err != nil {
		return err
	}
	return t.setSortKey(b, fa.SortKey)
}

// Renumber rewrites every sort key as a contiguous sequence in the current
// display order, so no two funds share a key.
func (t *Tx) Renumber() error {
	funds, err := t.List()
	if err != nil {
		return err
	}
	for i, f := range funds {
		if err := t.setSortKey(f.ID, int64(firstSortKey+i*sortStep)); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tx) setSortKey(id, key int64) error {
	return t.update(id, "UPDATE funds SET sort_key = ? WHERE id = ?", key, id)
}

func (t *Tx) update(id int64, query string, args ...any) error {
	res, err := t.tx.ExecContext(t.ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update fund %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return &model.NotFoundError{ID: id}
	}
	return nil
}

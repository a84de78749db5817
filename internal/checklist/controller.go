// Package checklist applies the fund review rules on top of the fund store:
// date stamping on step activation, reordering by neighbour swap and the
// rejected-only delete rule.
package checklist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"FundReview/internal/model"
	"FundReview/internal/recorder"
	"FundReview/internal/store"

	"go.uber.org/zap"
)

// Controller translates user intents into store operations.
type Controller struct {
	Store    *store.Store
	Recorder recorder.Recorder
	Policy   Policy
	// Now is the clock used for stamping step dates.
	Now func() time.Time

	log *zap.Logger
}

// NewController creates a Controller. A nil recorder disables history.
func NewController(st *store.Store, rec recorder.Recorder, policy Policy, logger *zap.Logger) *Controller {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy == "" {
		policy = PolicyToggle
	}
	return &Controller{
		Store:    st,
		Recorder: rec,
		Policy:   policy,
		Now:      time.Now,
		log:      logger.Named("checklist"),
	}
}

func (c *Controller) today() time.Time { return model.Day(c.Now()) }

// Funds returns every fund in display order.
func (c *Controller) Funds(ctx context.Context) ([]model.Fund, error) {
	return c.Store.List(ctx)
}

// Fund returns one fund.
func (c *Controller) Fund(ctx context.Context, id int64) (model.Fund, error) {
	return c.Store.Get(ctx, id)
}

// AddFund creates a fund at the end of the list.
func (c *Controller) AddFund(ctx context.Context, name string, assigned time.Time) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, &model.ValidationError{Field: "fund_name", Reason: "name is required"}
	}
	id, err := c.Store.Create(ctx, name, model.Day(assigned))
	if err != nil {
		return 0, err
	}
	c.log.Info("fund added", zap.Int64("id", id), zap.String("name", name))
	c.record(&recorder.FundEvent{FundID: id, FundName: name, Action: recorder.ActionAdd,
		Note: "assigned " + model.FormatDate(assigned)})
	return id, nil
}

// ToggleStep activates step on fund id according to the controller's policy
// and returns the step's resulting state.
func (c *Controller) ToggleStep(ctx context.Context, id int64, step model.Step) (model.StepState, error) {
	if !step.Valid() {
		return model.StepState{}, &model.ValidationError{Field: "step", Reason: fmt.Sprintf("unknown step %d", int(step))}
	}
	if c.Policy != PolicyToggle && c.Policy != PolicyStampOnce {
		return model.StepState{}, fmt.Errorf("unknown step policy %q", c.Policy)
	}

	var (
		next    model.StepState
		name    string
		changed bool
	)
	err := c.Store.InTx(ctx, func(tx *store.Tx) error {
		f, err := tx.Get(id)
		if err != nil {
			return err
		}
		name = f.Name
		cur := f.Step(step)
		next = cur

		switch {
		case !cur.Done:
			today := c.today()
			next = model.StepState{Done: true, CompletedOn: &today}
		case c.Policy == PolicyToggle:
			next = model.StepState{}
		case c.Policy == PolicyStampOnce:
			return nil
		}
		changed = true
		return tx.SetStep(id, step, next)
	})
	if err != nil {
		return model.StepState{}, err
	}
	if !changed {
		return next, nil
	}

	evt := &recorder.FundEvent{FundID: id, FundName: name, Step: step.Code(), Action: recorder.ActionStepUndone}
	if next.Done {
		evt.Action = recorder.ActionStepDone
		evt.Note = model.FormatDate(*next.CompletedOn)
	}
	c.log.Info("step toggled", zap.Int64("id", id), zap.String("step", step.Code()), zap.Bool("done", next.Done))
	c.record(evt)
	return next, nil
}

// Rename changes a fund's name. Unchanged names are a no-op.
func (c *Controller) Rename(ctx context.Context, id int64, name string) error {
	return c.Update(ctx, id, &name, nil)
}

// Reschedule changes a fund's assigned date. Unchanged dates are a no-op.
func (c *Controller) Reschedule(ctx context.Context, id int64, assigned time.Time) error {
	return c.Update(ctx, id, nil, &assigned)
}

// Update applies a new name and/or assigned date in one transaction. Nil
// arguments are left alone; either both changes land or neither does.
func (c *Controller) Update(ctx context.Context, id int64, name *string, assigned *time.Time) error {
	var newName string
	if name != nil {
		newName = strings.TrimSpace(*name)
		if newName == "" {
			return &model.ValidationError{Field: "fund_name", Reason: "name is required"}
		}
	}
	var newDate time.Time
	if assigned != nil {
		if assigned.IsZero() {
			return &model.ValidationError{Field: "assigned_date", Reason: "assigned date is required"}
		}
		newDate = model.Day(*assigned)
	}

	var (
		oldName              string
		renamed, rescheduled bool
	)
	err := c.Store.InTx(ctx, func(tx *store.Tx) error {
		f, err := tx.Get(id)
		if err != nil {
			return err
		}
		oldName = f.Name
		if name != nil && f.Name != newName {
			if err := tx.SetName(id, newName); err != nil {
				return err
			}
			renamed = true
		}
		if assigned != nil && !f.AssignedDate.Equal(newDate) {
			if err := tx.SetAssignedDate(id, newDate); err != nil {
				return err
			}
			rescheduled = true
		}
		return nil
	})
	if err != nil {
		return err
	}

	current := oldName
	if renamed {
		current = newName
		c.record(&recorder.FundEvent{FundID: id, FundName: newName, Action: recorder.ActionRename, Note: "was " + oldName})
	}
	if rescheduled {
		c.record(&recorder.FundEvent{FundID: id, FundName: current, Action: recorder.ActionReschedule,
			Note: model.FormatDate(newDate)})
	}
	return nil
}

// SetStepDate corrects the completion date of a done step.
func (c *Controller) SetStepDate(ctx context.Context, id int64, step model.Step, on time.Time) error {
	var name string
	err := c.Store.InTx(ctx, func(tx *store.Tx) error {
		f, err := tx.Get(id)
		if err != nil {
			return err
		}
		name = f.Name
		return tx.SetField(id, store.StepDateField(step), on)
	})
	if err != nil {
		return err
	}
	c.record(&recorder.FundEvent{FundID: id, FundName: name, Action: recorder.ActionStepDate,
		Step: step.Code(), Note: model.FormatDate(on)})
	return nil
}

// Reorder swaps fund id with its neighbour in display order. Moving the
// first fund up or the last fund down does nothing.
func (c *Controller) Reorder(ctx context.Context, id int64, dir Direction) error {
	if dir != Up && dir != Down {
		return &model.ValidationError{Field: "direction", Reason: fmt.Sprintf("want up or down, got %q", dir)}
	}
	var (
		name  string
		moved bool
	)
	err := c.Store.InTx(ctx, func(tx *store.Tx) error {
		funds, err := tx.List()
		if err != nil {
			return err
		}
		idx := -1
		for i, f := range funds {
			if f.ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return &model.NotFoundError{ID: id}
		}
		name = funds[idx].Name

		other := idx - 1
		if dir == Down {
			other = idx + 1
		}
		if other < 0 || other >= len(funds) {
			return nil
		}
		if funds[idx].SortKey == funds[other].SortKey {
			// Equal keys would make the swap invisible.
			if err := tx.Renumber(); err != nil {
				return err
			}
		}
		moved = true
		return tx.SwapOrder(id, funds[other].ID)
	})
	if err != nil || !moved {
		return err
	}
	c.record(&recorder.FundEvent{FundID: id, FundName: name, Action: recorder.ActionMove, Note: string(dir)})
	return nil
}

// DeleteFund removes a fund. Only rejected funds may be deleted.
func (c *Controller) DeleteFund(ctx context.Context, id int64) error {
	var name string
	err := c.Store.InTx(ctx, func(tx *store.Tx) error {
		f, err := tx.Get(id)
		if err != nil {
			return err
		}
		if !f.Rejected() {
			return &model.PolicyError{ID: id, Reason: "not eligible for deletion"}
		}
		name = f.Name
		return tx.Delete(id)
	})
	if err != nil {
		return err
	}
	c.log.Info("fund deleted", zap.Int64("id", id), zap.String("name", name))
	c.record(&recorder.FundEvent{FundID: id, FundName: name, Action: recorder.ActionDelete})
	return nil
}

// History returns the recorded changes of a fund, newest first.
func (c *Controller) History(ctx context.Context, id int64, limit int) ([]recorder.FundEvent, error) {
	return c.Recorder.History(ctx, id, limit)
}

func (c *Controller) record(evt *recorder.FundEvent) {
	if err := c.Recorder.RecordFundEvent(evt); err != nil {
		c.log.Error("record fund event", zap.Error(err), zap.Int64("fund_id", evt.FundID))
	}
}

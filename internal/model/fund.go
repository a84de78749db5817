package model

import "time"

// StepState is the (done, completed_on) pair of a single step.
type StepState struct {
	Done        bool       `json:"done"`
	CompletedOn *time.Time `json:"completed_on,omitempty"`
}

// Pending reports whether the step has not been completed.
func (s StepState) Pending() bool { return !s.Done }

// Consistent reports whether the date is set exactly when the step is done.
func (s StepState) Consistent() bool { return s.Done == (s.CompletedOn != nil) }

// Fund is one tracked fund under review.
type Fund struct {
	ID           int64               `json:"id"`
	SortKey      int64               `json:"sort_key"`
	Name         string              `json:"name"`
	AssignedDate time.Time           `json:"assigned_date"`
	Steps        [NumSteps]StepState `json:"steps"`
}

// Step returns the state of step s.
func (f *Fund) Step(s Step) StepState { return f.Steps[s] }

// Rejected reports whether the Rejected step is done, which makes the fund
// eligible for deletion.
func (f *Fund) Rejected() bool { return f.Steps[StepRejected].Done }

// LastActivity is the latest of the assigned date and every completed step date.
func (f *Fund) LastActivity() time.Time {
	last := f.AssignedDate
	for _, st := range f.Steps {
		if st.CompletedOn != nil && st.CompletedOn.After(last) {
			last = *st.CompletedOn
		}
	}
	return last
}

// PillText is what a step control shows: its label until the step is done,
// then the completion date.
func PillText(s Step, st StepState) string {
	if !st.Done {
		return s.Label()
	}
	return FormatShort(st.CompletedOn)
}

package store

import (
	"fmt"
	"time"

	"FundReview/internal/model"
)

type fieldKind int

const (
	kindName fieldKind = iota + 1
	kindAssignedDate
	kindStep
	kindStepDate
)

// Field is one of the fixed set of updatable fund fields. Fields are never
// built from caller-supplied column names; use ParseField to look one up.
type Field struct {
	kind fieldKind
	step model.Step
}

var (
	FieldName         = Field{kind: kindName}
	FieldAssignedDate = Field{kind: kindAssignedDate}
)

// StepField is the (done, completed_on) pair of step s. Values are
// model.StepState, or false to reset the step.
func StepField(s model.Step) Field { return Field{kind: kindStep, step: s} }

// StepDateField is the completion date of step s, editable once the step is done.
func StepDateField(s model.Step) Field { return Field{kind: kindStepDate, step: s} }

// String returns the column the field is stored in.
func (f Field) String() string {
	switch f.kind {
	case kindName:
		return "fund_name"
	case kindAssignedDate:
		return "assigned_date"
	case kindStep:
		return f.step.Column()
	case kindStepDate:
		return f.step.DateColumn()
	}
	return "unknown"
}

// ParseField resolves a column name to its Field.
func ParseField(name string) (Field, error) {
	switch name {
	case "fund_name", "name":
		return FieldName, nil
	case "assigned_date":
		return FieldAssignedDate, nil
	}
	for _, s := range model.Steps {
		switch name {
		case s.Column():
			return StepField(s), nil
		case s.DateColumn():
			return StepDateField(s), nil
		}
	}
	return Field{}, &model.ValidationError{Field: "field", Reason: fmt.Sprintf("unknown field %q", name)}
}

func coerceDate(f Field, v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return model.Day(d), nil
	case *time.Time:
		if d == nil {
			return time.Time{}, &model.ValidationError{Field: f.String(), Reason: "date is required"}
		}
		return model.Day(*d), nil
	case string:
		t, err := model.ParseDate(d)
		if err != nil {
			return time.Time{}, &model.ValidationError{Field: f.String(), Reason: err.(*model.ValidationError).Reason}
		}
		return t, nil
	}
	return time.Time{}, typeError(f, "date", v)
}

func typeError(f Field, want string, got any) error {
	return &model.ValidationError{Field: f.String(), Reason: fmt.Sprintf("expected %s, got %T", want, got)}
}

package model

import (
	"fmt"
	"strings"
)

// Step identifies one of the six review steps. The zero value is StepInfo.
type Step int

const (
	StepInfo Step = iota
	StepAnalyst
	StepMyReview
	StepPartner
	StepEmail
	StepRejected
)

// StepDef describes a step's code, display label and storage columns.
type StepDef struct {
	Code       string
	Label      string
	Column     string
	DateColumn string
}

var stepDefs = [...]StepDef{
	{Code: "info", Label: "Info Request", Column: "step2_info", DateColumn: "step2_info_date"},
	{Code: "anlys", Label: "Analyst", Column: "step3_anlys", DateColumn: "step3_anlys_date"},
	{Code: "myrev", Label: "My Review", Column: "step4_myrev", DateColumn: "step4_myrev_date"},
	{Code: "partn", Label: "Partner", Column: "step5_partn", DateColumn: "step5_partn_date"},
	{Code: "email", Label: "Email", Column: "step6_email", DateColumn: "step6_email_date"},
	{Code: "rej", Label: "Rejected", Column: "step7_rej", DateColumn: "step7_rej_date"},
}

// NumSteps is the fixed number of workflow steps.
const NumSteps = len(stepDefs)

// Steps lists every step in workflow order.
var Steps = []Step{StepInfo, StepAnalyst, StepMyReview, StepPartner, StepEmail, StepRejected}

// Def returns the step's definition. It panics on an out-of-range step.
func (s Step) Def() StepDef { return stepDefs[s] }

func (s Step) Code() string { return s.Def().Code }
func (s Step) Label() string { return s.Def().Label }
func (s Step) Column() string { return s.Def().Column }
func (s Step) DateColumn() string { return s.Def().DateColumn }

func (s Step) Valid() bool { return s >= 0 && int(s) < NumSteps }

func (s Step) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Step(%d)", int(s))
	}
	return s.Def().Code
}

// ParseStep accepts a step code ("info"), its column ("step2_info") or its
// label ("Info Request"), case-insensitively.
func ParseStep(v string) (Step, error) {
	v = strings.TrimSpace(v)
	for _, s := range Steps {
		d := s.Def()
		if strings.EqualFold(v, d.Code) || strings.EqualFold(v, d.Column) || strings.EqualFold(v, d.Label) {
			return s, nil
		}
	}
	return 0, &ValidationError{Field: "step", Reason: fmt.Sprintf("unknown step %q", v)}
}

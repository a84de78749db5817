package recorder

import (
	"context"
	"time"
)

// Action names a kind of fund change.
type Action string

const (
	ActionAdd        Action = "ADD"
	ActionRename     Action = "RENAME"
	ActionReschedule Action = "RESCHEDULE"
	ActionStepDone   Action = "STEP_DONE"
	ActionStepUndone Action = "STEP_UNDONE"
	ActionStepDate   Action = "STEP_DATE"
	ActionMove       Action = "MOVE"
	ActionDelete     Action = "DELETE"
)

// FundEvent records one change to a fund.
type FundEvent struct {
	ID        string
	Timestamp time.Time
	FundID    int64
	FundName  string
	Action    Action
	Step      string // step code, empty when not step related
	Note      string
}

// Recorder persists fund history for later review.
type Recorder interface {
	RecordFundEvent(evt *FundEvent) error
	// History returns up to limit events for a fund, newest first.
	History(ctx context.Context, fundID int64, limit int) ([]FundEvent, error)
	Close() error
}

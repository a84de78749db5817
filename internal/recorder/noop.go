package recorder

import "context"

// NoopRecorder is used when history is disabled.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordFundEvent(_ *FundEvent) error { return nil }

func (n *NoopRecorder) History(_ context.Context, _ int64, _ int) ([]FundEvent, error) {
	return nil, nil
}

func (n *NoopRecorder) Close() error { return nil }

package recorder

import (
	"context"

	"BTCChart/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(_ *model.SeriesRun) error { return nil }
func (n *NoopRecorder) RecordSwitch(_ *SwitchEvent) error  { return nil }
func (n *NoopRecorder) Close() error                       { return nil }
func (n *NoopRecorder) RecentRuns(_ context.Context, _ int) ([]RunSummary, error) {
	return nil, nil
}

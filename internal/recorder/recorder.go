package recorder

import (
	"context"

	"BTCChart/internal/model"
)

// SwitchEvent records a widget switching timeframe.
type SwitchEvent struct {
	Session   string
	Timeframe model.Timeframe
	State     model.DisplayState
}

// RunSummary is one row of generation history.
type RunSummary struct {
	ID         int64   `db:"id" json:"id"`
	Timestamp  int64   `db:"timestamp" json:"timestamp"`
	Timeframe  string  `db:"timeframe" json:"timeframe"`
	Points     int     `db:"points" json:"points"`
	FirstPrice float64 `db:"first_price" json:"first_price"`
	LastPrice  float64 `db:"last_price" json:"last_price"`
	ChangePct  float64 `db:"change_pct" json:"change_pct"`
}

// Recorder persists generated series and widget activity for later analysis.
type Recorder interface {
	RecordRun(run *model.SeriesRun) error
	RecordSwitch(evt *SwitchEvent) error
	RecentRuns(ctx context.Context, limit int) ([]RunSummary, error)
	Close() error
}

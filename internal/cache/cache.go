// Package cache keeps generated series across restarts so the pre-generated chart
// data stays stable between process runs.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"BTCChart/internal/model"
)

// ErrMiss is returned when no series is cached for a timeframe.
var ErrMiss = errors.New("cache miss")

// SeriesCache stores the latest generated run per timeframe.
type SeriesCache interface {
	Load(ctx context.Context, tf model.Timeframe) (*model.SeriesRun, error)
	Save(ctx context.Context, run *model.SeriesRun) error
	Name() string
	Close() error
}

// decodeRun parses a stored run. A run stored under the wrong timeframe or without
// points counts as a miss.
func decodeRun(data []byte, tf model.Timeframe) (*model.SeriesRun, error) {
	var run model.SeriesRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("decode series %s: %w", tf, err)
	}
	if run.Timeframe != tf || len(run.Points) == 0 {
		return nil, ErrMiss
	}
	return &run, nil
}

// NoopCache never hits. Used when no backend is configured.
type NoopCache struct{}

func NewNoopCache() *NoopCache { return &NoopCache{} }

func (NoopCache) Load(_ context.Context, _ model.Timeframe) (*model.SeriesRun, error) {
	return nil, ErrMiss
}
func (NoopCache) Save(_ context.Context, _ *model.SeriesRun) error { return nil }
func (NoopCache) Name() string                                     { return "none" }
func (NoopCache) Close() error                                     { return nil }

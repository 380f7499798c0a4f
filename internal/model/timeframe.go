package model

import (
	"fmt"
	"time"
)

// Timeframe selects one of the fixed display windows.
type Timeframe string

const (
	Timeframe1Day   Timeframe = "1d"
	Timeframe30Days Timeframe = "30"
	Timeframe1Year  Timeframe = "365"
)

// Timeframes lists every timeframe in button order.
var Timeframes = []Timeframe{Timeframe1Day, Timeframe30Days, Timeframe1Year}

// TimeframeParams are the random-walk parameters of a timeframe.
type TimeframeParams struct {
	Points    int
	Interval  time.Duration
	MaxChange float64 // max relative change per step
	Label     string
}

var timeframeParams = map[Timeframe]TimeframeParams{
	Timeframe1Day:   {Points: 50, Interval: time.Hour, MaxChange: 0.005, Label: "1 Day"},
	Timeframe30Days: {Points: 100, Interval: 24 * time.Hour, MaxChange: 0.02, Label: "1 Month"},
	Timeframe1Year:  {Points: 365, Interval: 24 * time.Hour, MaxChange: 0.03, Label: "1 Year"},
}

// Params returns the generator parameters for tf.
func (tf Timeframe) Params() (TimeframeParams, bool) {
	p, ok := timeframeParams[tf]
	return p, ok
}

func (tf Timeframe) Label() string {
	if p, ok := timeframeParams[tf]; ok {
		return p.Label
	}
	return string(tf)
}

func (tf Timeframe) Valid() bool {
	_, ok := timeframeParams[tf]
	return ok
}

// ParseTimeframe accepts the canonical keys plus a few aliases ("30d", "1y").
func ParseTimeframe(s string) (Timeframe, error) {
	switch s {
	case "1d", "day":
		return Timeframe1Day, nil
	case "30", "30d", "month":
		return Timeframe30Days, nil
	case "365", "365d", "1y", "year":
		return Timeframe1Year, nil
	}
	return "", fmt.Errorf("unknown timeframe %q", s)
}

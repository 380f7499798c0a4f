package render

import "BTCChart/internal/model"

// Layout describes the horizontal plot area of a rendered chart, in pixels.
type Layout struct {
	Width    float64
	PadLeft  float64
	PadRight float64
}

// TimestampAt maps a pointer x position to a timestamp on the series' time axis.
// Positions outside the plot area clamp to the first or last point.
func (l Layout) TimestampAt(series model.Series, x float64) (int64, bool) {
	first, ok := series.First()
	if !ok {
		return 0, false
	}
	last, _ := series.Last()
	plot := l.Width - l.PadLeft - l.PadRight
	if plot <= 0 {
		return last.Timestamp, true
	}
	frac := (x - l.PadLeft) / plot
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	span := float64(last.Timestamp - first.Timestamp)
	return first.Timestamp + int64(frac*span+0.5), true
}

// Package display derives the headline price and percent change shown above the chart.
package display

import (
	"BTCChart/internal/calculator"
	"BTCChart/internal/model"
)

// Derive computes the display state from the series and an optional hovered price.
// Without a hover the latest point is shown. The change is measured against the first
// point and left absent when that price is zero or the series is empty.
func Derive(series model.Series, hovered *float64) model.DisplayState {
	var state model.DisplayState

	price := hovered
	if price == nil {
		last, ok := series.Last()
		if !ok {
			return state
		}
		price = model.Float(last.Price)
	}
	state.DisplayPrice = model.Float(*price)

	first, ok := series.First()
	if !ok {
		return state
	}
	if pct, err := calculator.PercentChange(first.Price, *price); err == nil {
		state.PercentChange = model.Float(pct)
	}
	return state
}

// DeriveAt derives the state for the point nearest to the timestamp ts.
func DeriveAt(series model.Series, ts int64) (model.DisplayState, model.PricePoint, bool) {
	i, err := calculator.NearestIndex(series, ts)
	if err != nil {
		return model.DisplayState{}, model.PricePoint{}, false
	}
	p := series[i]
	return Derive(series, model.Float(p.Price)), p, true
}

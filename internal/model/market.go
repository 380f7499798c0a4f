package model

import "time"

// PricePoint is a single sample of the chart. Timestamp is epoch milliseconds.
type PricePoint struct {
	Timestamp int64   `json:"timestamp"`
	Price     float64 `json:"price"`
}

// Time returns the point timestamp as a time.Time.
func (p PricePoint) Time() time.Time {
	return time.UnixMilli(p.Timestamp)
}

// Series is an ordered run of price points with strictly increasing timestamps.
type Series []PricePoint

// First returns the oldest point.
func (s Series) First() (PricePoint, bool) {
	if len(s) == 0 {
		return PricePoint{}, false
	}
	return s[0], true
}

// Last returns the most recent point.
func (s Series) Last() (PricePoint, bool) {
	if len(s) == 0 {
		return PricePoint{}, false
	}
	return s[len(s)-1], true
}

func (s Series) Times() []time.Time {
	out := make([]time.Time, len(s))
	for i, p := range s {
		out[i] = p.Time()
	}
	return out
}

func (s Series) Prices() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Price
	}
	return out
}

// SeriesRun is a generated series together with its provenance.
type SeriesRun struct {
	ID          string    `json:"id"`
	Timeframe   Timeframe `json:"timeframe"`
	StartPrice  float64   `json:"start_price"`
	GeneratedAt time.Time `json:"generated_at"`
	Points      Series    `json:"points"`
}

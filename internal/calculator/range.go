package calculator

import (
	"errors"
	"math"

	"BTCChart/internal/model"
)

// PriceRange scans the series and returns its lowest and highest price.
func PriceRange(series model.Series) (low, high float64, err error) {
	if len(series) == 0 {
		return 0, 0, errors.New("no price points provided")
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, p := range series {
		if p.Price > high {
			high = p.Price
		}
		if p.Price < low {
			low = p.Price
		}
	}
	return low, high, nil
}

// PercentChange returns the relative move from `from` to `to` in percent.
func PercentChange(from, to float64) (float64, error) {
	if from == 0 {
		return 0, errors.New("reference price is zero")
	}
	return (to - from) / from * 100, nil
}

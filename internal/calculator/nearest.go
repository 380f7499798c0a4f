package calculator

import (
	"errors"
	"sort"

	"BTCChart/internal/model"
)

// NearestIndex returns the index of the point whose timestamp is closest to ts.
// Timestamps must be increasing. Ties go to the earlier point.
func NearestIndex(series model.Series, ts int64) (int, error) {
	n := len(series)
	if n == 0 {
		return 0, errors.New("no price points provided")
	}
	i := sort.Search(n, func(i int) bool { return series[i].Timestamp >= ts })
	switch {
	case i == 0:
		return 0, nil
	case i == n:
		return n - 1, nil
	}
	if ts-series[i-1].Timestamp <= series[i].Timestamp-ts {
		return i - 1, nil
	}
	return i, nil
}

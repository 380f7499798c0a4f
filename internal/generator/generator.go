package generator

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"BTCChart/internal/model"

	"github.com/shopspring/decimal"
)

// ErrUnknownTimeframe is returned for timeframes without generator parameters.
var ErrUnknownTimeframe = errors.New("unknown timeframe")

// Generator produces synthetic random-walk price series.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

// New creates a Generator drawing from src and stamping points relative to now().
func New(src rand.Source, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{rnd: rand.New(src), now: now}
}

// NewSeeded creates a wall-clock Generator. A zero seed means "seed from the clock".
func NewSeeded(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return New(rand.NewSource(seed), time.Now)
}

func (g *Generator) Name() string { return "random-walk" }

// Generate walks len(points) steps from startPrice. Each step multiplies the running
// price by 1+p with p uniform in [-maxChange, +maxChange]; the emitted price is rounded
// to 2 decimals while the walk itself keeps full precision. The last point is stamped
// at generation time and earlier points step back by the timeframe interval.
func (g *Generator) Generate(tf model.Timeframe, startPrice float64) (model.Series, error) {
	params, ok := tf.Params()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTimeframe, tf)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now().UnixMilli()
	interval := params.Interval.Milliseconds()
	series := make(model.Series, params.Points)
	price := startPrice
	for i := 0; i < params.Points; i++ {
		change := (g.rnd.Float64() - 0.5) * 2 * params.MaxChange
		price *= 1 + change
		series[i] = model.PricePoint{
			Timestamp: now - int64(params.Points-1-i)*interval,
			Price:     Round2(price),
		}
	}
	return series, nil
}

// Round2 rounds half away from zero to 2 decimal places.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

package generator

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"BTCChart/internal/model"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestGenerator(seed int64) *Generator {
	return New(rand.NewSource(seed), func() time.Time { return fixedNow })
}

func TestGenerate_ShapePerTimeframe(t *testing.T) {
	tests := []struct {
		tf       model.Timeframe
		count    int
		interval time.Duration
	}{
		{model.Timeframe1Day, 50, time.Hour},
		{model.Timeframe30Days, 100, 24 * time.Hour},
		{model.Timeframe1Year, 365, 24 * time.Hour},
	}
	for _, tt := range tests {
		s, err := newTestGenerator(1).Generate(tt.tf, 60000)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.tf, err)
		}
		if len(s) != tt.count {
			t.Fatalf("%s: expected %d points, got %d", tt.tf, tt.count, len(s))
		}
		for i := 1; i < len(s); i++ {
			if d := s[i].Timestamp - s[i-1].Timestamp; d != tt.interval.Milliseconds() {
				t.Fatalf("%s: point %d spaced %dms, expected %dms", tt.tf, i, d, tt.interval.Milliseconds())
			}
		}
		if last := s[len(s)-1].Timestamp; last != fixedNow.UnixMilli() {
			t.Errorf("%s: last timestamp %d, expected %d", tt.tf, last, fixedNow.UnixMilli())
		}
	}
}

func TestGenerate_LastPointNearWallClock(t *testing.T) {
	g := NewSeeded(7)
	before := time.Now()
	s, err := g.Generate(model.Timeframe30Days, 60000)
	if err != nil {
		t.Fatal(err)
	}
	last := s[len(s)-1].Time()
	if last.Before(before.Add(-24*time.Hour)) || last.After(time.Now().Add(time.Second)) {
		t.Errorf("last timestamp %v not within one interval of %v", last, before)
	}
}

func TestGenerate_StepBound(t *testing.T) {
	for _, tf := range model.Timeframes {
		params, _ := tf.Params()
		for seed := int64(1); seed <= 20; seed++ {
			s, err := newTestGenerator(seed).Generate(tf, 60000)
			if err != nil {
				t.Fatal(err)
			}
			for i := 1; i < len(s); i++ {
				// Both ends are rounded to cents, so allow one cent of slack on each.
				slack := 0.02 / s[i-1].Price
				rel := math.Abs(s[i].Price/s[i-1].Price - 1)
				if rel > params.MaxChange+slack {
					t.Fatalf("%s seed %d: step %d moved %.5f, max %.5f", tf, seed, i, rel, params.MaxChange)
				}
			}
		}
	}
}

func TestGenerate_FirstStepFromStartPrice(t *testing.T) {
	s, err := newTestGenerator(3).Generate(model.Timeframe1Year, 100)
	if err != nil {
		t.Fatal(err)
	}
	if rel := math.Abs(s[0].Price/100 - 1); rel > 0.03+0.0001 {
		t.Errorf("first point moved %.4f from start price", rel)
	}
}

func TestGenerate_PricesRoundedToCents(t *testing.T) {
	s, _ := newTestGenerator(11).Generate(model.Timeframe30Days, 60000)
	for i, p := range s {
		cents := p.Price * 100
		if math.Abs(cents-math.Round(cents)) > 1e-6 {
			t.Fatalf("point %d price %v not rounded to 2 decimals", i, p.Price)
		}
	}
}

func TestGenerate_DeterministicWithSeed(t *testing.T) {
	a, _ := newTestGenerator(42).Generate(model.Timeframe1Day, 60000)
	b, _ := newTestGenerator(42).Generate(model.Timeframe1Day, 60000)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("point %d differs for equal seeds: %v vs %v", i, a[i], b[i])
		}
	}

	g := newTestGenerator(42)
	first, _ := g.Generate(model.Timeframe1Day, 60000)
	second, _ := g.Generate(model.Timeframe1Day, 60000)
	same := true
	for i := range first {
		if first[i].Price != second[i].Price {
			same = false
			break
		}
	}
	if same {
		t.Error("expected a fresh call to yield a different sequence")
	}
}

func TestGenerate_UnknownTimeframe(t *testing.T) {
	_, err := newTestGenerator(1).Generate(model.Timeframe("7d"), 60000)
	if !errors.Is(err, ErrUnknownTimeframe) {
		t.Errorf("expected ErrUnknownTimeframe, got %v", err)
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{1.005, 1.01},
		{60000.123, 60000.12},
		{-2.345, -2.35},
		{0, 0},
	}
	for _, tt := range tests {
		if got := Round2(tt.in); got != tt.want {
			t.Errorf("Round2(%v): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

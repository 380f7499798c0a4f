package render

import (
	"fmt"
	"math"
	"strings"

	"BTCChart/internal/model"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// FormatPrice renders a price with thousands separators and exactly two decimals.
func FormatPrice(v float64) string {
	fixed := decimal.NewFromFloat(v).StringFixed(2)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	whole, frac, _ := strings.Cut(fixed, ".")
	w, err := decimal.NewFromString(whole)
	if err != nil {
		return sign + "$" + fixed
	}
	return sign + "$" + humanize.Comma(w.IntPart()) + "." + frac
}

// FormatChange renders the absolute percent change with an arrow for its sign.
func FormatChange(pct float64) string {
	arrow := "▲"
	if pct < 0 {
		arrow = "▼"
	}
	return fmt.Sprintf("%s %s%%", arrow, decimal.NewFromFloat(math.Abs(pct)).StringFixed(2))
}

// Headline formats the display state, e.g. "$60,123.45 ▲ 1.23%".
func Headline(state model.DisplayState) string {
	if state.DisplayPrice == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(FormatPrice(*state.DisplayPrice))
	if state.PercentChange != nil {
		b.WriteString(" ")
		b.WriteString(FormatChange(*state.PercentChange))
	}
	return b.String()
}

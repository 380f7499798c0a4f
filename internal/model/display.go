package model

// DisplayState is the headline shown above the chart. Nil fields are absent.
type DisplayState struct {
	DisplayPrice  *float64 `json:"display_price"`
	PercentChange *float64 `json:"percent_change"`
}

// Direction of the percent change, used for colouring and arrows.
type Direction int

const (
	DirectionNone Direction = iota
	DirectionUp
	DirectionDown
)

// Direction reports up for changes >= 0, down for negative ones.
func (d DisplayState) Direction() Direction {
	if d.PercentChange == nil {
		return DirectionNone
	}
	if *d.PercentChange >= 0 {
		return DirectionUp
	}
	return DirectionDown
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

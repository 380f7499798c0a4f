// Package tui renders the chart widget in a terminal.
package tui

import (
	"context"
	"fmt"
	"strings"

	"BTCChart/internal/calculator"
	"BTCChart/internal/model"
	"BTCChart/internal/widget"

	"github.com/NimbleMarkets/ntcharts/canvas"
	"github.com/NimbleMarkets/ntcharts/linechart"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	minChartWidth  = 20
	minChartHeight = 6
	// rows used by title, headline, buttons and help
	chromeRows = 7
	// first terminal row of the chart: title, headline, blank line
	chartTop = 3
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	upStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	downStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	lineStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	buttonStyle   = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.NormalBorder())
	selectedStyle = buttonStyle.BorderForeground(lipgloss.Color("33")).Foreground(lipgloss.Color("33")).Bold(true)
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Model is the bubbletea model wrapping one widget.
type Model struct {
	ctx    context.Context
	widget *widget.Widget
	snap   widget.Snapshot
	cursor int // index of the hovered point, -1 when not hovering
	width  int
	height int
	err    error
}

// New creates the terminal model and loads the initial timeframe.
func New(ctx context.Context, w *widget.Widget, tf model.Timeframe) (*Model, error) {
	snap, err := w.SelectTimeframe(ctx, tf)
	if err != nil {
		return nil, err
	}
	return &Model{ctx: ctx, widget: w, snap: snap, cursor: -1, width: 80, height: 24}, nil
}

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "1":
			m.selectTimeframe(model.Timeframe1Day)
		case "2":
			m.selectTimeframe(model.Timeframe30Days)
		case "3":
			m.selectTimeframe(model.Timeframe1Year)
		case "left", "h":
			m.moveCursor(-1)
		case "right", "l":
			m.moveCursor(1)
		case "home":
			m.hoverIndex(0)
		case "end":
			m.hoverIndex(len(m.widget.Series()) - 1)
		case "esc":
			m.leave()
		}
	case tea.MouseMsg:
		m.mouse(msg.X, msg.Y)
	}
	return m, nil
}

func (m *Model) selectTimeframe(tf model.Timeframe) {
	snap, err := m.widget.SelectTimeframe(m.ctx, tf)
	m.err = err
	if err == nil {
		m.snap = snap
		m.cursor = -1
	}
}

func (m *Model) moveCursor(delta int) {
	n := len(m.widget.Series())
	if n == 0 {
		return
	}
	i := m.cursor
	if i < 0 {
		i = n - 1
		if delta > 0 {
			i = 0
		}
	} else {
		i += delta
	}
	m.hoverIndex(i)
}

func (m *Model) hoverIndex(i int) {
	series := m.widget.Series()
	if len(series) == 0 {
		return
	}
	if i < 0 {
		i = 0
	}
	if i >= len(series) {
		i = len(series) - 1
	}
	m.cursor = i
	m.snap = m.widget.PointerMove(series[i].Timestamp)
}

func (m *Model) leave() {
	m.cursor = -1
	m.snap = m.widget.PointerLeave()
}

// mouse maps a terminal cell under the pointer to the nearest point. Only cells inside
// the plot area count; the axis label gutter and the rows around the chart are a leave.
func (m *Model) mouse(x, y int) {
	series := m.widget.Series()
	lc, _, _, ok := m.lineChart()
	if !ok {
		return
	}
	origin := lc.Origin()
	col := x - origin.X - 1
	row := y - chartTop
	gw := lc.GraphWidth()
	if gw < 2 || col < 0 || col >= gw || row < 0 || row > origin.Y {
		if m.cursor >= 0 {
			m.leave()
		}
		return
	}
	first, _ := series.First()
	last, _ := series.Last()
	frac := float64(col) / float64(gw-1)
	ts := first.Timestamp + int64(frac*float64(last.Timestamp-first.Timestamp))
	i, err := calculator.NearestIndex(series, ts)
	if err != nil {
		return
	}
	m.hoverIndex(i)
}

func (m *Model) chartSize() (int, int) {
	w := m.width - 2
	if w < minChartWidth {
		w = minChartWidth
	}
	h := m.height - chromeRows
	if h < minChartHeight {
		h = minChartHeight
	}
	return w, h
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("₿ BTC"))
	b.WriteString("\n")
	b.WriteString(m.headline())
	b.WriteString("\n\n")
	b.WriteString(m.chart())
	b.WriteString("\n")
	b.WriteString(m.buttons())
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(downStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("1/2/3 timeframe • ←/→ move • esc leave • q quit"))
	return b.String()
}

func (m *Model) headline() string {
	text := m.snap.Headline
	if text == "" {
		return helpStyle.Render("no data")
	}
	if m.snap.Hover != nil {
		text += helpStyle.Render("  " + m.snap.Hover.Time().Format(timeLayout(m.snap.Timeframe)))
	}
	if m.snap.State.Direction() == model.DirectionDown {
		return downStyle.Render(text)
	}
	return upStyle.Render(text)
}

func timeLayout(tf model.Timeframe) string {
	if tf == model.Timeframe1Day {
		return "Jan 2 15:04"
	}
	return "Jan 2 2006"
}

// lineChart builds the chart for the current size and series, returning the y range it spans.
func (m *Model) lineChart() (linechart.Model, float64, float64, bool) {
	series := m.widget.Series()
	low, high, err := calculator.PriceRange(series)
	if err != nil || len(series) < 2 {
		return linechart.Model{}, 0, 0, false
	}
	margin := (high - low) * 0.05
	if margin == 0 {
		margin = 1
	}
	w, h := m.chartSize()
	lc := linechart.New(w, h,
		0, float64(len(series)-1),
		low-margin, high+margin,
		linechart.WithXYSteps(4, 4),
		linechart.WithXLabelFormatter(func(_ int, v float64) string {
			i := int(v)
			if i < 0 || i >= len(series) {
				return ""
			}
			return series[i].Time().Format(shortLayout(m.snap.Timeframe))
		}),
		linechart.WithYLabelFormatter(func(_ int, v float64) string {
			return fmt.Sprintf("%.0f", v)
		}),
		linechart.WithStyles(lipgloss.Style{}, helpStyle, lineStyle),
	)
	return lc, low - margin, high + margin, true
}

func (m *Model) chart() string {
	lc, minY, maxY, ok := m.lineChart()
	if !ok {
		return helpStyle.Render("not enough data to draw")
	}
	series := m.widget.Series()
	for i := 0; i < len(series)-1; i++ {
		p1 := canvas.Float64Point{X: float64(i), Y: series[i].Price}
		p2 := canvas.Float64Point{X: float64(i + 1), Y: series[i+1].Price}
		lc.DrawBrailleLineWithStyle(p1, p2, lineStyle)
	}
	if m.cursor >= 0 && m.cursor < len(series) {
		x := float64(m.cursor)
		lc.DrawBrailleLineWithStyle(
			canvas.Float64Point{X: x, Y: minY},
			canvas.Float64Point{X: x, Y: maxY},
			cursorStyle,
		)
	}
	lc.DrawXYAxisAndLabel()
	return lc.View()
}

func shortLayout(tf model.Timeframe) string {
	if tf == model.Timeframe1Day {
		return "15:04"
	}
	return "Jan 2"
}

func (m *Model) buttons() string {
	keys := []string{"1", "2", "3"}
	cells := make([]string, 0, len(model.Timeframes))
	for i, tf := range model.Timeframes {
		style := buttonStyle
		if tf == m.snap.Timeframe {
			style = selectedStyle
		}
		cells = append(cells, style.Render(keys[i]+" "+tf.Label()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

// Run starts the interactive program and blocks until the user quits.
func Run(m *Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(m.ctx))
	_, err := p.Run()
	return err
}

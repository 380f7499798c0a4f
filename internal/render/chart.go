package render

import (
	"errors"
	"fmt"
	"io"

	"BTCChart/internal/model"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Format is the output encoding of a chart image.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ContentType returns the HTTP content type for f.
func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}

const (
	defaultWidth  = 800
	defaultHeight = 400
	// At or below this width the chart switches to its compact height.
	compactWidth  = 500
	compactHeight = 200
	chartPadding  = 10
)

var (
	lineColor = drawing.Color{R: 199, G: 113, B: 243, A: 255}
	fillColor = drawing.Color{R: 76, G: 175, B: 254, A: 51}
	dotColor  = drawing.Color{R: 76, G: 175, B: 254, A: 255}
)

// Options control chart rendering.
type Options struct {
	Width  int
	Height int
	Format Format
	Hover  *model.PricePoint
}

// Size returns the pixel size the chart is drawn at, after defaults and the compact rule.
func (o Options) Size() (int, int) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = defaultWidth
	}
	if w <= compactWidth {
		h = compactHeight
	}
	if h <= 0 {
		h = defaultHeight
	}
	return w, h
}

// LayoutFor returns the horizontal layout of a chart rendered with opts.
func LayoutFor(opts Options) Layout {
	w, _ := opts.Size()
	return Layout{Width: float64(w), PadLeft: chartPadding, PadRight: chartPadding}
}

// RenderChart draws the series as an area chart with hidden axes.
func RenderChart(w io.Writer, series model.Series, opts Options) error {
	if len(series) < 2 {
		return errors.New("at least two points are required to render a chart")
	}
	width, height := opts.Size()

	graph := chart.Chart{
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: chartPadding, Left: chartPadding, Right: chartPadding, Bottom: chartPadding},
		},
		XAxis:          chart.XAxis{Style: chart.Style{Hidden: true}},
		YAxis:          chart.YAxis{Style: chart.Style{Hidden: true}},
		YAxisSecondary: chart.YAxis{Style: chart.Style{Hidden: true}},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Bitcoin Price",
				XValues: series.Times(),
				YValues: series.Prices(),
				Style: chart.Style{
					StrokeColor: lineColor,
					StrokeWidth: 1,
					FillColor:   fillColor,
				},
			},
		},
	}
	if opts.Hover != nil {
		graph.Series = append(graph.Series, chart.AnnotationSeries{
			Annotations: []chart.Value2{{
				XValue: chart.TimeToFloat64(opts.Hover.Time()),
				YValue: opts.Hover.Price,
				Label:  FormatPrice(opts.Hover.Price),
				Style:  chart.Style{StrokeColor: dotColor, FontColor: lineColor},
			}},
		})
	}

	renderer := chart.SVG
	if opts.Format == FormatPNG {
		renderer = chart.PNG
	}
	if err := graph.Render(renderer, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

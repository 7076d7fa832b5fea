package chart

import (
	"bytes"
	"sync"
	"time"

	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	width  = 1024
	height = 512
)

// dark gray background with a blue series
var (
	backgroundColor = drawing.Color{R: 55, G: 55, B: 55, A: 255}
	textColor       = drawing.Color{R: 200, G: 200, B: 200, A: 255}
	gridColor       = drawing.Color{R: 100, G: 100, B: 100, A: 128}
	seriesColor     = drawing.Color{R: 0, G: 122, B: 255, A: 255}
	seriesFill      = drawing.Color{R: 0, G: 122, B: 255, A: 25}
)

var dayFormatter = gochart.TimeValueFormatterWithFormat("Jan 02")

var (
	fontOnce    sync.Once
	defaultFont *truetype.Font
	fontErr     error
)

func font() (*truetype.Font, error) {
	fontOnce.Do(func() {
		defaultFont, fontErr = gochart.GetDefaultFont()
		fontErr = errors.Wrap(fontErr, "load default font")
	})
	return defaultFont, fontErr
}

// RenderLine draws values over times as a PNG line chart
func RenderLine(title string, times []time.Time, values []decimal.Decimal) ([]byte, error) {
	if len(times) != len(values) {
		return nil, errors.Errorf("got %d timestamps for %d values", len(times), len(values))
	}
	if len(values) < 2 {
		return nil, errors.Errorf("need at least 2 points to draw a line, got %d", len(values))
	}

	f, err := font()
	if err != nil {
		return nil, err
	}

	y := make([]float64, len(values))
	for i, v := range values {
		y[i] = v.InexactFloat64()
	}

	axisStyle := gochart.Style{FontColor: textColor, StrokeColor: gridColor}
	graph := gochart.Chart{
		Title:      title,
		TitleStyle: gochart.Style{FontColor: textColor},
		Font:       f,
		Width:      width,
		Height:     height,
		Background: gochart.Style{FillColor: backgroundColor},
		Canvas:     gochart.Style{FillColor: backgroundColor},
		XAxis: gochart.XAxis{
			Style:          axisStyle,
			ValueFormatter: dayFormatter,
		},
		YAxis: gochart.YAxis{
			Style: axisStyle,
			ValueFormatter: func(v interface{}) string {
				return gochart.FloatValueFormatterWithFormat(v, "€%.2f")
			},
			GridMajorStyle: gochart.Style{StrokeColor: gridColor, StrokeWidth: 1},
		},
		Series: []gochart.Series{
			gochart.TimeSeries{
				Name: title,
				Style: gochart.Style{
					StrokeColor: seriesColor,
					StrokeWidth: 2,
					FillColor:   seriesFill,
				},
				XValues: times,
				YValues: y,
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(gochart.PNG, &buf); err != nil {
		return nil, errors.Wrap(err, "could not render chart")
	}
	return buf.Bytes(), nil
}

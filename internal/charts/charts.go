// Package charts renders the monthly trend series as a PNG for clients
// that want an image instead of the JSON series.
package charts

import (
	"bytes"
	"errors"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"gagyebu/internal/analytics"
	"gagyebu/internal/core"
)

// ErrNoData is returned when every month in the series is empty.
var ErrNoData = errors.New("no data to chart")

// RenderTrend draws one bar per month, colored from the shared palette.
func RenderTrend(series []analytics.MonthlyData) ([]byte, error) {
	if len(series) == 0 {
		return nil, ErrNoData
	}

	var hasData bool
	values := make([]chart.Value, 0, len(series))
	for i, m := range series {
		if m.TotalAmount > 0 {
			hasData = true
		}
		values = append(values, chart.Value{
			Label: m.Month,
			Value: float64(m.TotalAmount),
			Style: chart.Style{
				FillColor:   paletteColor(i),
				StrokeColor: paletteColor(i),
			},
		})
	}
	if !hasData {
		return nil, ErrNoData
	}

	graph := chart.BarChart{
		Width:    900,
		Height:   400,
		BarWidth: 56,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
			FillColor: chart.ColorWhite,
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return core.GroupThousands(int64(f))
				}
				return ""
			},
			Style: chart.Style{
				FontColor: chart.ColorBlack,
			},
		},
		Bars: values,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func paletteColor(i int) drawing.Color {
	hex := strings.TrimPrefix(analytics.Palette[i%len(analytics.Palette)], "#")
	return drawing.ColorFromHex(hex)
}

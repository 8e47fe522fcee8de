package analytics

import (
	"gagyebu/internal/core"
)

// Palette cycled through for category colors, in the order categories are
// first seen across the whole series.
var Palette = []string{
	"#3b82f6", // blue
	"#10b981", // green
	"#f59e0b", // yellow
	"#ef4444", // red
	"#8b5cf6", // purple
	"#ec4899", // pink
	"#6366f1", // indigo
	"#f97316", // orange
}

// MonthlyData is one entry of the trend series.
type MonthlyData struct {
	Month       string           `json:"month"`
	TotalAmount int64            `json:"totalAmount"`
	Categories  map[string]int64 `json:"categories"`
}

// CategoryColor pairs a category name with its assigned palette color.
type CategoryColor struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// MonthWindows returns the n consecutive calendar-month periods ending with
// the month containing ref, oldest first.
func MonthWindows(ref core.Date, n int) []Period {
	windows := make([]Period, 0, n)
	for i := n - 1; i >= 0; i-- {
		first := core.NewDate(ref.Year(), int(ref.Month()), 1).AddMonths(-i)
		windows = append(windows, PeriodFor(first, core.Monthly))
	}
	return windows
}

// BuildSeries aggregates each month's items independently into the trend
// series. monthItems must align with windows (same length, same order).
// Colors are assigned to category names in first-seen order walking the
// series chronologically, cycling the palette.
func BuildSeries(windows []Period, monthItems [][]core.TransactionItem, categoryNames map[string]string) ([]MonthlyData, []CategoryColor) {
	series := make([]MonthlyData, 0, len(windows))
	var seen []string
	seenSet := make(map[string]struct{})

	for i, w := range windows {
		var total int64
		byName := make(map[string]int64)
		for _, item := range monthItems[i] {
			name := UncategorizedLabel
			if item.CategoryID != nil && *item.CategoryID != "" {
				if n, ok := categoryNames[*item.CategoryID]; ok {
					name = n
				}
			}
			total += item.TotalPrice
			byName[name] += item.TotalPrice
			if _, ok := seenSet[name]; !ok {
				seenSet[name] = struct{}{}
				seen = append(seen, name)
			}
		}
		series = append(series, MonthlyData{
			Month:       w.Label(),
			TotalAmount: total,
			Categories:  byName,
		})
	}

	colors := make([]CategoryColor, 0, len(seen))
	for i, name := range seen {
		colors = append(colors, CategoryColor{Name: name, Color: Palette[i%len(Palette)]})
	}
	return series, colors
}

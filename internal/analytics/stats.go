package analytics

import (
	"sort"

	"gagyebu/internal/core"
)

// UncategorizedID keys the bucket for items without a category.
const UncategorizedID = "uncategorized"

// UncategorizedLabel is the display name of that bucket.
const UncategorizedLabel = "미분류"

// CategoryStat is one aggregation bucket within a period.
type CategoryStat struct {
	CategoryID   string  `json:"categoryId"`
	CategoryName string  `json:"categoryName"`
	TotalAmount  int64   `json:"totalAmount"`
	ItemCount    int     `json:"itemCount"`
	Percentage   float64 `json:"percentage"`
}

// Aggregate groups item totals by category id. Items without a category all
// land in the single uncategorized bucket. Buckets are sorted by amount
// descending; ties keep first-seen order. Percentages are of the grand
// total and all zero when the total is zero.
func Aggregate(items []core.TransactionItem, categoryNames map[string]string) ([]CategoryStat, int64) {
	type bucket struct {
		name  string
		total int64
		count int
	}
	var order []string
	buckets := make(map[string]*bucket)
	var grandTotal int64

	for _, item := range items {
		id := UncategorizedID
		name := UncategorizedLabel
		if item.CategoryID != nil && *item.CategoryID != "" {
			id = *item.CategoryID
			if n, ok := categoryNames[id]; ok {
				name = n
			}
		}
		b, ok := buckets[id]
		if !ok {
			b = &bucket{name: name}
			buckets[id] = b
			order = append(order, id)
		}
		b.total += item.TotalPrice
		b.count++
		grandTotal += item.TotalPrice
	}

	stats := make([]CategoryStat, 0, len(order))
	for _, id := range order {
		b := buckets[id]
		pct := 0.0
		if grandTotal > 0 {
			pct = float64(b.total) / float64(grandTotal) * 100
		}
		stats = append(stats, CategoryStat{
			CategoryID:   id,
			CategoryName: b.name,
			TotalAmount:  b.total,
			ItemCount:    b.count,
			Percentage:   pct,
		})
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].TotalAmount > stats[j].TotalAmount
	})
	return stats, grandTotal
}

// Package aggregate contains the pure grouping and summary arithmetic that
// backs the chart and table views.
package aggregate

import (
	"math"
	"sort"

	"github.com/sanye891/next-dashboard/internal/models"
)

// Bucket is one grouped series point.
type Bucket struct {
	Key   string  `json:"key"`
	Total float64 `json:"total"`
}

// GroupByName sums sale values per name. Keys keep the insertion order of
// their first occurrence.
func GroupByName(sales []models.Sale) []Bucket {
	totals := make(map[string]float64, len(sales))
	order := make([]string, 0, len(sales))

	for _, s := range sales {
		if _, seen := totals[s.Name]; !seen {
			order = append(order, s.Name)
		}
		totals[s.Name] += s.Value
	}

	buckets := make([]Bucket, 0, len(order))
	for _, k := range order {
		buckets = append(buckets, Bucket{Key: k, Total: totals[k]})
	}
	return buckets
}

// GroupByDate sums sale values per UTC calendar date of CreatedAt. Keys are
// formatted YYYY-MM-DD and sorted ascending.
func GroupByDate(sales []models.Sale) []Bucket {
	totals := make(map[string]float64, len(sales))
	for _, s := range sales {
		key := s.CreatedAt.UTC().Format("2006-01-02")
		totals[key] += s.Value
	}

	keys := make([]string, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buckets := make([]Bucket, 0, len(keys))
	for _, k := range keys {
		buckets = append(buckets, Bucket{Key: k, Total: totals[k]})
	}
	return buckets
}

// Summary holds the table statistics recomputed after every fetch.
type Summary struct {
	Total   float64 `json:"total"`
	Average float64 `json:"average"` // rounded to 2 decimals
	Count   int     `json:"count"`
}

// Summarize computes sum, rounded average and count over the full list.
func Summarize(sales []models.Sale) Summary {
	if len(sales) == 0 {
		return Summary{}
	}
	var total float64
	for _, s := range sales {
		total += s.Value
	}
	avg := math.Round(total/float64(len(sales))*100) / 100
	return Summary{Total: total, Average: avg, Count: len(sales)}
}

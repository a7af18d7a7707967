package stats

import "sort"

// Summary describes the distribution of a set of values
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Min    float64 `json:"min"`
	Median float64 `json:"median"`
	P95    float64 `json:"p95"`
	Max    float64 `json:"max"`
}

// Summarize computes a Summary; the zero Summary for no values
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return Summary{
		Count:  len(sorted),
		Mean:   Mean(sorted),
		Min:    sorted[0],
		Median: sortedQuantile(sorted, 0.5),
		P95:    sortedQuantile(sorted, 0.95),
		Max:    sorted[len(sorted)-1],
	}
}

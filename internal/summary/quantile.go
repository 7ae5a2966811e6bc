package summary

import "math"

// quantile returns the q-th quantile (0 <= q <= 1) of an already sorted
// slice, using linear interpolation between the two closest order statistics.
// gonum's stat.Quantile cumulant kinds implement different interpolation
// rules, so this is computed directly.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q < 0 {
		q = 0
	}
	if q > 1 {
		q = 1
	}

	index := q * float64(len(sorted)-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

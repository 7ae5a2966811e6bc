// Package summary computes grouped descriptive statistics over rolled-up
// occupancy tables: nonstationary (per day-of-week and time-of-day bin) and
// stationary (per category across all time).
package summary

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/sanspareilsmyn/occulens/internal/rollup"
)

// Row holds the descriptive statistics for one group and one measure.
// Stationary rows carry DayOfWeek and BinOfDay of -1.
type Row struct {
	Category  string
	DayOfWeek int
	DowName   string
	BinOfDay  int

	Count    int
	Mean     float64
	Min      float64
	Max      float64
	StdDev   float64
	SEM      float64
	Variance float64
	CV       float64
	Skew     float64
	Kurtosis float64

	Percentiles map[int]float64 // keyed by integer percent, e.g. 95
}

// Table is the summary for one measure across every group.
type Table struct {
	Measure     rollup.Measure
	Percentiles []int // ordered percent labels shared by all rows
	Rows        []Row
}

// Bundle holds one summary table per measure.
type Bundle map[rollup.Measure]*Table

// Nonstationary summarizes each rollup table grouped by (day of week,
// bin of day), preserving the time-of-day/day-of-week load pattern.
// Tables are expected one per category; rows of all categories land in the
// same output table per measure.
func Nonstationary(tables []*rollup.Table, percentiles []float64) Bundle {
	bundle := newBundle(percentiles)

	for _, table := range tables {
		type nsKey struct {
			dow int
			bod int
		}
		groups := make(map[nsKey][]int)
		var order []nsKey
		dowNames := make(map[nsKey]string)

		for i, row := range table.Rows {
			key := nsKey{dow: row.DayOfWeek, bod: row.BinOfDay}
			if _, seen := groups[key]; !seen {
				order = append(order, key)
				dowNames[key] = row.DowName
			}
			groups[key] = append(groups[key], i)
		}

		sort.Slice(order, func(i, j int) bool {
			if order[i].dow != order[j].dow {
				return order[i].dow < order[j].dow
			}
			return order[i].bod < order[j].bod
		})

		for _, measure := range rollup.Measures {
			values := table.Values(measure)
			out := bundle[measure]
			for _, key := range order {
				group := make([]float64, 0, len(groups[key]))
				for _, idx := range groups[key] {
					group = append(group, values[idx])
				}
				row := describe(group, percentiles)
				row.Category = table.Category
				row.DayOfWeek = key.dow
				row.DowName = dowNames[key]
				row.BinOfDay = key.bod
				out.Rows = append(out.Rows, row)
			}
		}
	}

	return bundle
}

// Stationary summarizes each rollup table as a single group per category.
func Stationary(tables []*rollup.Table, percentiles []float64) Bundle {
	bundle := newBundle(percentiles)

	for _, table := range tables {
		for _, measure := range rollup.Measures {
			row := describe(table.Values(measure), percentiles)
			row.Category = table.Category
			row.DayOfWeek = -1
			row.BinOfDay = -1
			bundle[measure].Rows = append(bundle[measure].Rows, row)
		}
	}

	return bundle
}

func newBundle(percentiles []float64) Bundle {
	labels := PercentileLabels(percentiles)
	bundle := make(Bundle, len(rollup.Measures))
	for _, measure := range rollup.Measures {
		bundle[measure] = &Table{Measure: measure, Percentiles: labels}
	}
	return bundle
}

// PercentileLabels converts fractional percentiles into their integer percent
// column labels, e.g. 0.95 -> 95.
func PercentileLabels(percentiles []float64) []int {
	labels := make([]int, len(percentiles))
	for i, p := range percentiles {
		labels[i] = int(math.Round(p * 100))
	}
	return labels
}

// describe computes the descriptive statistics for one group of values.
func describe(values []float64, percentiles []float64) Row {
	row := Row{Count: len(values), Percentiles: make(map[int]float64, len(percentiles))}
	if len(values) == 0 {
		row.Mean = math.NaN()
		row.Min = math.NaN()
		row.Max = math.NaN()
		row.StdDev = math.NaN()
		row.SEM = math.NaN()
		row.Variance = math.NaN()
		row.Skew = math.NaN()
		row.Kurtosis = math.NaN()
		for _, label := range PercentileLabels(percentiles) {
			row.Percentiles[label] = math.NaN()
		}
		return row
	}

	n := float64(len(values))
	row.Mean = stat.Mean(values, nil)
	row.Variance = stat.Variance(values, nil)
	row.StdDev = math.Sqrt(row.Variance)
	row.SEM = row.StdDev / math.Sqrt(n)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	row.Min = sorted[0]
	row.Max = sorted[len(sorted)-1]

	if row.Mean > 0 {
		row.CV = row.StdDev / row.Mean
	}

	// Sample skewness needs at least 3 points, excess kurtosis at least 4;
	// both are undefined for constant groups.
	if len(values) >= 3 && row.StdDev > 0 {
		row.Skew = stat.Skew(values, nil)
	} else {
		row.Skew = math.NaN()
	}
	if len(values) >= 4 && row.StdDev > 0 {
		row.Kurtosis = stat.ExKurtosis(values, nil)
	} else {
		row.Kurtosis = math.NaN()
	}

	labels := PercentileLabels(percentiles)
	for i, p := range percentiles {
		row.Percentiles[labels[i]] = quantile(sorted, p)
	}

	return row
}

// Package rollup aggregates a fine-grid occupancy matrix into a calendar-aware
// table at the coarser reporting resolution.
package rollup

import (
	"time"

	"github.com/sanspareilsmyn/occulens/internal/binning"
)

// Row is one reporting bin for one category: summed arrivals and departures,
// mean occupancy, and the calendar attributes derived from the bin start.
type Row struct {
	Category   string
	DateTime   time.Time
	Date       time.Time
	Arrivals   float64
	Departures float64
	Occupancy  float64
	DayOfWeek  int // Monday=0
	DowName    string
	BinOfDay   int
	BinOfWeek  int
}

// Table holds the rolled-up rows for one category, sorted by DateTime.
type Table struct {
	Category         string
	ReportBinMinutes int
	Rows             []Row
}

// Build rolls the fine grid up to reportBinMinutes resolution. Arrivals and
// departures are summed; occupancy is averaged, because occupancy is an
// instantaneous level sampled per fine bin and the mean approximates the
// time-weighted level over the coarser bin. fineBinMinutes must divide
// reportBinMinutes evenly.
func Build(m *binning.Matrix, category string, windowStart time.Time, fineBinMinutes, reportBinMinutes int) *Table {
	table := &Table{Category: category, ReportBinMinutes: reportBinMinutes}

	type groupKey struct {
		date   time.Time
		coarse int
	}
	ratio := reportBinMinutes / fineBinMinutes

	var (
		cur      groupKey
		open     bool
		sumArr   float64
		sumDep   float64
		sumOcc   float64
		binCount int
	)

	flush := func() {
		if !open {
			return
		}
		dt := cur.date.Add(time.Duration(cur.coarse*reportBinMinutes) * time.Minute)
		table.Rows = append(table.Rows, Row{
			Category:   category,
			DateTime:   dt,
			Date:       cur.date,
			Arrivals:   sumArr,
			Departures: sumDep,
			Occupancy:  sumOcc / float64(binCount),
			DayOfWeek:  binning.DayOfWeek(dt),
			DowName:    dt.Format("Mon"),
			BinOfDay:   cur.coarse,
			BinOfWeek:  binning.BinOfWeek(dt, reportBinMinutes),
		})
		sumArr, sumDep, sumOcc, binCount = 0, 0, 0, 0
	}

	for i := 0; i < m.NumBins(); i++ {
		ts := windowStart.Add(time.Duration(i*fineBinMinutes) * time.Minute)
		key := groupKey{
			date:   time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, ts.Location()),
			coarse: binning.BinOfDay(ts, fineBinMinutes) / ratio,
		}

		if open && key != cur {
			flush()
		}
		cur, open = key, true

		sumArr += m.Arrivals[i]
		sumDep += m.Departures[i]
		sumOcc += m.Occupancy[i]
		binCount++
	}
	flush()

	return table
}

// Values extracts one measure column from the table in row order.
func (t *Table) Values(measure Measure) []float64 {
	vals := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		switch measure {
		case MeasureArrivals:
			vals[i] = row.Arrivals
		case MeasureDepartures:
			vals[i] = row.Departures
		default:
			vals[i] = row.Occupancy
		}
	}
	return vals
}

// Measure names one of the three rolled-up series.
type Measure string

const (
	MeasureOccupancy  Measure = "occupancy"
	MeasureArrivals   Measure = "arrivals"
	MeasureDepartures Measure = "departures"
)

// Measures lists the rollup measures in their canonical order.
var Measures = []Measure{MeasureOccupancy, MeasureArrivals, MeasureDepartures}

package binning

import (
	"time"

	"github.com/sanspareilsmyn/occulens/internal/stoprec"
)

// Matrix holds the fine-grid arrival, departure, and occupancy arrays for one
// category. Arrivals and departures are event counts; occupancy is the
// weighted fractional presence per bin.
type Matrix struct {
	Arrivals   []float64
	Departures []float64
	Occupancy  []float64
}

// NewMatrix allocates a zeroed matrix with numBins bins per array.
func NewMatrix(numBins int) *Matrix {
	return &Matrix{
		Arrivals:   make([]float64, numBins),
		Departures: make([]float64, numBins),
		Occupancy:  make([]float64, numBins),
	}
}

// NumBins returns the length of the fine grid.
func (m *Matrix) NumBins() int {
	return len(m.Occupancy)
}

// Add accumulates other into m elementwise. The matrices must share a grid.
func (m *Matrix) Add(other *Matrix) {
	for i := range m.Occupancy {
		m.Arrivals[i] += other.Arrivals[i]
		m.Departures[i] += other.Departures[i]
		m.Occupancy[i] += other.Occupancy[i]
	}
}

// Accumulator scatters per-record occupancy increments and unit
// arrival/departure events into a Matrix for a single category.
type Accumulator struct {
	windowStart    time.Time
	windowEnd      time.Time
	binSizeMinutes int
	numBins        int
	mode           EdgeMode

	matrix    *Matrix
	relCounts map[stoprec.Relationship]int
}

// NewAccumulator creates an accumulator over the fine grid spanned by
// [windowStart, windowEnd] at binSizeMinutes resolution.
func NewAccumulator(windowStart, windowEnd time.Time, binSizeMinutes int, mode EdgeMode) *Accumulator {
	numBins := NumBins(windowStart, windowEnd, binSizeMinutes)
	return &Accumulator{
		windowStart:    windowStart,
		windowEnd:      windowEnd,
		binSizeMinutes: binSizeMinutes,
		numBins:        numBins,
		mode:           mode,
		matrix:         NewMatrix(numBins),
		relCounts:      make(map[stoprec.Relationship]int),
	}
}

// Add classifies one record against the analysis window and accumulates its
// contribution. Backwards and non-overlapping records contribute nothing but
// are counted. Arrivals and departures are counted only when the true event
// instant lies inside the window: a left or outer record's arrival happened
// before the window start and a right or outer record's departure after the
// window end, so those events are not credited to the clipped edge bins.
func (a *Accumulator) Add(rec stoprec.Record) error {
	rel := stoprec.Classify(rec.Entry, rec.Exit, a.windowStart, a.windowEnd)
	a.relCounts[rel]++

	switch rel {
	case stoprec.RelBackwards, stoprec.RelNone:
		return nil
	}

	entryBin := BinIndex(rec.Entry, a.windowStart, a.binSizeMinutes)
	exitBin := BinIndex(rec.Exit, a.windowStart, a.binSizeMinutes)

	inc, err := BuildIncrement(rec.Entry, rec.Exit, a.windowStart, entryBin, exitBin, a.binSizeMinutes, a.mode, rec.Weight)
	if err != nil {
		return err
	}

	inc, entryBin, exitBin, err = Clip(inc, entryBin, exitBin, a.numBins, rel)
	if err != nil {
		return err
	}

	for i, v := range inc {
		a.matrix.Occupancy[entryBin+i] += v
	}

	if rel == stoprec.RelInner || rel == stoprec.RelRight {
		a.matrix.Arrivals[entryBin]++
	}
	if rel == stoprec.RelInner || rel == stoprec.RelLeft {
		a.matrix.Departures[exitBin]++
	}
	return nil
}

// Matrix returns the accumulated fine-grid matrix.
func (a *Accumulator) Matrix() *Matrix {
	return a.matrix
}

// RelationshipCounts returns counts of records seen by relationship type.
func (a *Accumulator) RelationshipCounts() map[stoprec.Relationship]int {
	return a.relCounts
}

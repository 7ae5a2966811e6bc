// Package binning converts irregular arrival/departure intervals into
// discretized per-bin arrival, departure, and occupancy arrays over a fixed
// analysis window.
package binning

import "time"

// BinIndex maps a timestamp to a bin index relative to origin at the given
// bin width. Bins are closed on the left edge: a timestamp exactly on a bin
// boundary belongs to the bin starting at that boundary. The result is not
// clamped and may be negative or beyond the last bin of the analysis window;
// callers detect and clip.
func BinIndex(t, origin time.Time, binSizeMinutes int) int {
	secs := int64(t.Sub(origin) / time.Second)
	return int(floorDiv(secs, int64(binSizeMinutes)*60))
}

// NumBins returns the number of bins in the analysis window [start, end].
func NumBins(start, end time.Time, binSizeMinutes int) int {
	return BinIndex(end, start, binSizeMinutes) + 1
}

// BinOfDay returns the time-of-day bin for t, in [0, 1440/binSizeMinutes).
func BinOfDay(t time.Time, binSizeMinutes int) int {
	minutes := t.Hour()*60 + t.Minute()
	return minutes / binSizeMinutes
}

// BinOfWeek returns the time-of-week bin for t using a Monday=0 convention.
func BinOfWeek(t time.Time, binSizeMinutes int) int {
	minutes := DayOfWeek(t)*1440 + t.Hour()*60 + t.Minute()
	return minutes / binSizeMinutes
}

// DayOfWeek returns the weekday of t with Monday=0 through Sunday=6.
func DayOfWeek(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

package binning

import (
	"fmt"
	"math"
	"time"
)

// EdgeMode controls how a record's first and last bins are credited.
type EdgeMode int

const (
	// EdgeFractional credits edge bins with the fraction of the bin actually
	// occupied.
	EdgeFractional EdgeMode = iota
	// EdgeWholeBin credits edge bins with the full weight.
	EdgeWholeBin
)

func (m EdgeMode) String() string {
	switch m {
	case EdgeFractional:
		return "fractional"
	case EdgeWholeBin:
		return "whole_bin"
	default:
		return "unknown"
	}
}

// ParseEdgeMode converts a config string into an EdgeMode.
func ParseEdgeMode(s string) (EdgeMode, error) {
	switch s {
	case "fractional":
		return EdgeFractional, nil
	case "whole_bin", "wholebin":
		return EdgeWholeBin, nil
	default:
		return EdgeFractional, fmt.Errorf("%w: %q", ErrUnknownEdgeMode, s)
	}
}

// BuildIncrement builds the per-bin occupancy contribution vector for one
// record, of length exitBin-entryBin+1. Edge bins get weight*fraction, any
// interior bins get the full weight. Bin indices are the raw (unclipped)
// indices against the fine grid.
//
// A fraction outside [0,1] indicates a bin-arithmetic bug upstream and is
// returned as an error rather than clamped away.
func BuildIncrement(entry, exit, origin time.Time, entryBin, exitBin, binSizeMinutes int, mode EdgeMode, weight float64) ([]float64, error) {
	n := exitBin - entryBin + 1
	if n < 1 {
		return nil, fmt.Errorf("%w: entryBin=%d exitBin=%d", ErrNegativeBinSpan, entryBin, exitBin)
	}

	entryFrac, exitFrac := 1.0, 1.0
	if mode == EdgeFractional {
		binSecs := float64(binSizeMinutes) * 60

		entrySecs := float64(int64(entry.Sub(origin) / time.Second))
		exitSecs := float64(int64(exit.Sub(origin) / time.Second))

		// Entry fraction: occupied span between entry and the earlier of exit
		// and the entry bin's right edge. min(exit, rightEdge) also makes the
		// single-bin case come out to (exit-entry)/binSize with no extra branch.
		rightEdge := float64(entryBin+1) * binSecs
		entryFrac = (math.Min(exitSecs, rightEdge) - entrySecs) / binSecs

		leftEdge := float64(exitBin) * binSecs
		exitFrac = (exitSecs - math.Max(entrySecs, leftEdge)) / binSecs
	}

	if entryFrac < 0 || entryFrac > 1 {
		return nil, fmt.Errorf("%w: entry fraction %.6f (entry=%s exit=%s)", ErrFractionOutOfRange, entryFrac, entry, exit)
	}
	if exitFrac < 0 || exitFrac > 1 {
		return nil, fmt.Errorf("%w: exit fraction %.6f (entry=%s exit=%s)", ErrFractionOutOfRange, exitFrac, entry, exit)
	}

	inc := make([]float64, n)
	switch {
	case n == 1:
		inc[0] = entryFrac * weight
	case n == 2:
		inc[0] = entryFrac * weight
		inc[1] = exitFrac * weight
	default:
		inc[0] = entryFrac * weight
		for i := 1; i < n-1; i++ {
			inc[i] = weight
		}
		inc[n-1] = exitFrac * weight
	}
	return inc, nil
}

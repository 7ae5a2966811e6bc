package binning

import (
	"fmt"

	"github.com/sanspareilsmyn/occulens/internal/stoprec"
)

// Clip trims an increment vector to the analysis window and re-bases the bin
// indices into [0, numBins-1]. Only left, right, and outer records need
// clipping; inner records pass through unchanged.
func Clip(inc []float64, entryBin, exitBin, numBins int, rel stoprec.Relationship) ([]float64, int, int, error) {
	switch rel {
	case stoprec.RelInner:
		return inc, entryBin, exitBin, nil

	case stoprec.RelLeft:
		shift := -entryBin
		if shift < 0 || shift >= len(inc) {
			return nil, 0, 0, fmt.Errorf("%w: left shift %d of %d bins", ErrClipExhausted, shift, len(inc))
		}
		return inc[shift:], 0, exitBin, nil

	case stoprec.RelRight:
		shift := exitBin - (numBins - 1)
		if shift < 0 || shift >= len(inc) {
			return nil, 0, 0, fmt.Errorf("%w: right shift %d of %d bins", ErrClipExhausted, shift, len(inc))
		}
		return inc[:len(inc)-shift], entryBin, numBins - 1, nil

	case stoprec.RelOuter:
		entryShift := -entryBin
		exitShift := exitBin - (numBins - 1)
		if entryShift < 0 || exitShift < 0 || entryShift+exitShift >= len(inc) {
			return nil, 0, 0, fmt.Errorf("%w: outer shifts %d+%d of %d bins", ErrClipExhausted, entryShift, exitShift, len(inc))
		}
		return inc[entryShift : len(inc)-exitShift], 0, numBins - 1, nil

	default:
		return nil, 0, 0, fmt.Errorf("cannot clip record with relationship %s", rel)
	}
}

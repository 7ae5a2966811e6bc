package binning

import "errors"

var (
	ErrFractionOutOfRange = errors.New("edge bin fraction outside [0,1]")
	ErrNegativeBinSpan    = errors.New("record spans a negative number of bins")
	ErrClipExhausted      = errors.New("clip removed every bin of the increment vector")
	ErrUnknownEdgeMode    = errors.New("unknown edge bin mode")
)

package engine

import "errors"

var (
	ErrEndNotAfterStart        = errors.New("analysis end must be after analysis start")
	ErrBinSizeNotDayDivisor    = errors.New("report bin minutes must divide 1440 with no remainder")
	ErrFineBinExceedsReportBin = errors.New("high-resolution bin minutes must not exceed report bin minutes")
	ErrFineBinNotReportDivisor = errors.New("high-resolution bin minutes must divide report bin minutes")
	ErrInvalidPercentile       = errors.New("percentiles must lie in (0, 1)")
	ErrNoRecords               = errors.New("no stop records supplied")
)

package engine

import (
	"fmt"
	"time"

	"github.com/sanspareilsmyn/occulens/internal/binning"
)

// TotalCategory is the synthetic category key for the cross-category totals,
// and the single implicit category when records carry no category at all.
const TotalCategory = "total"

// DefaultPercentiles are used when the caller requests none.
var DefaultPercentiles = []float64{0.25, 0.5, 0.75, 0.95, 0.99}

// Params configures one analysis run.
type Params struct {
	ScenarioName string

	WindowStart time.Time
	WindowEnd   time.Time

	// ReportBinMinutes is the coarse reporting resolution; must divide 1440.
	ReportBinMinutes int
	// HighResBinMinutes is the fine accumulation resolution; must divide
	// ReportBinMinutes. Zero means accumulate directly at report resolution.
	HighResBinMinutes int

	EdgeMode    binning.EdgeMode
	Percentiles []float64

	ExcludeCategories []string

	NonstationaryStats bool
	StationaryStats    bool
}

// Validate checks the fatal input constraints. These abort the run before any
// computation; data-quality problems inside the record set never do.
func (p *Params) Validate() error {
	if !p.WindowEnd.After(p.WindowStart) {
		return fmt.Errorf("%w: start=%s end=%s", ErrEndNotAfterStart, p.WindowStart, p.WindowEnd)
	}
	if p.ReportBinMinutes <= 0 || 1440%p.ReportBinMinutes != 0 {
		return fmt.Errorf("%w: got %d", ErrBinSizeNotDayDivisor, p.ReportBinMinutes)
	}
	if p.HighResBinMinutes == 0 {
		p.HighResBinMinutes = p.ReportBinMinutes
	}
	if p.HighResBinMinutes > p.ReportBinMinutes {
		return fmt.Errorf("%w: highres=%d report=%d", ErrFineBinExceedsReportBin, p.HighResBinMinutes, p.ReportBinMinutes)
	}
	if p.ReportBinMinutes%p.HighResBinMinutes != 0 {
		return fmt.Errorf("%w: highres=%d report=%d", ErrFineBinNotReportDivisor, p.HighResBinMinutes, p.ReportBinMinutes)
	}
	if len(p.Percentiles) == 0 {
		p.Percentiles = DefaultPercentiles
	}
	for _, pct := range p.Percentiles {
		if pct <= 0 || pct >= 1 {
			return fmt.Errorf("%w: got %v", ErrInvalidPercentile, pct)
		}
	}
	return nil
}

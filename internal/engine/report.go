package engine

import (
	"github.com/sanspareilsmyn/occulens/internal/binning"
	"github.com/sanspareilsmyn/occulens/internal/rollup"
	"github.com/sanspareilsmyn/occulens/internal/stoprec"
	"github.com/sanspareilsmyn/occulens/internal/summary"
)

// Report carries the diagnostics of one run as data, so callers can act on
// them regardless of log configuration: counts by relationship type per
// category, conservation-check outcomes, and human-readable warnings.
type Report struct {
	ScenarioName string

	RecordsSupplied          int
	RecordsAnalyzed          int
	RecordsMissingTimestamps int
	RecordsExcludedCategory  int

	RelationshipCounts map[string]map[stoprec.Relationship]int
	Conservation       []binning.ConservationResult
	Warnings           []string
}

// HasCategoryField reports whether the analyzed records carried categories,
// i.e. whether the rollup keys are real categories plus a synthetic total.
func (r *Report) HasCategoryField() bool {
	_, ok := r.RelationshipCounts[TotalCategory]
	return len(r.RelationshipCounts) > 1 || !ok
}

// Results is the full output of one analysis run.
type Results struct {
	// Rollups maps category key (including the synthetic total) to its
	// calendar-aware report-resolution table.
	Rollups map[string]*rollup.Table

	// Summaries maps "nonstationary" and "stationary" to per-measure summary
	// tables covering every category key.
	Summaries map[string]summary.Bundle

	Report *Report
}

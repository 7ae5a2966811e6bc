// Package engine orchestrates one occupancy analysis run: classification and
// fine-grid accumulation fanned out per category, conservation cross-checks,
// rollup to report resolution, and grouped summary statistics.
package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/occulens/internal/binning"
	"github.com/sanspareilsmyn/occulens/internal/rollup"
	"github.com/sanspareilsmyn/occulens/internal/stoprec"
	"github.com/sanspareilsmyn/occulens/internal/summary"
)

// WindowCoverageToleranceHours is how far the analysis window may extend past
// the data's timestamp range before a mismatch warning is raised.
const WindowCoverageToleranceHours = 48.0

// UncategorizedKey groups records with a blank category when other records do
// carry one.
const UncategorizedKey = "uncategorized"

// Engine runs the analysis pipeline over a materialized record set.
type Engine struct {
	params Params
	logger *zap.Logger
}

// New validates the run parameters and creates an Engine.
func New(params Params, logger *zap.Logger) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	logger.Info("Engine initialized",
		zap.String("scenario", params.ScenarioName),
		zap.Time("window_start", params.WindowStart),
		zap.Time("window_end", params.WindowEnd),
		zap.Int("report_bin_minutes", params.ReportBinMinutes),
		zap.Int("highres_bin_minutes", params.HighResBinMinutes),
		zap.String("edge_mode", params.EdgeMode.String()),
	)
	return &Engine{params: params, logger: logger}, nil
}

type categoryOutcome struct {
	name         string
	matrix       *binning.Matrix
	relCounts    map[stoprec.Relationship]int
	conservation binning.ConservationResult
	err          error
}

// Run executes the full pipeline. Validation problems abort; data-quality
// anomalies are counted in the returned Report and never do.
func (e *Engine) Run(ctx context.Context, records []stoprec.Record) (*Results, error) {
	sugar := e.logger.Sugar()
	runStart := time.Now()

	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	report := &Report{
		ScenarioName:       e.params.ScenarioName,
		RecordsSupplied:    len(records),
		RelationshipCounts: make(map[string]map[stoprec.Relationship]int),
	}

	analyzed, hasCategories := e.preprocess(records, report)
	if len(analyzed) == 0 {
		return nil, fmt.Errorf("%w: all %d records filtered out", ErrNoRecords, len(records))
	}
	report.RecordsAnalyzed = len(analyzed)

	e.checkWindowCoverage(analyzed, report)

	partitions := partitionByCategory(analyzed, hasCategories)

	phaseStart := time.Now()
	outcomes, err := e.accumulate(ctx, partitions)
	if err != nil {
		return nil, err
	}
	sugar.Infow("Fine-grid accumulation complete",
		"categories", len(outcomes),
		"elapsed", time.Since(phaseStart),
	)

	names := make([]string, 0, len(outcomes))
	for name := range outcomes {
		names = append(names, name)
	}
	sort.Strings(names)

	phaseStart = time.Now()
	numBins := binning.NumBins(e.params.WindowStart, e.params.WindowEnd, e.params.HighResBinMinutes)
	totalMatrix := binning.NewMatrix(numBins)
	rollups := make(map[string]*rollup.Table, len(outcomes)+1)

	for _, name := range names {
		out := outcomes[name]
		report.RelationshipCounts[name] = out.relCounts
		e.recordConservation(out.conservation, report)
		for rel, count := range out.relCounts {
			recordsProcessed.WithLabelValues(rel.String()).Add(float64(count))
		}

		rollups[name] = rollup.Build(out.matrix, name, e.params.WindowStart, e.params.HighResBinMinutes, e.params.ReportBinMinutes)
		totalMatrix.Add(out.matrix)
	}
	if hasCategories {
		rollups[TotalCategory] = rollup.Build(totalMatrix, TotalCategory, e.params.WindowStart, e.params.HighResBinMinutes, e.params.ReportBinMinutes)
	}
	sugar.Infow("Rollup tables built",
		"tables", len(rollups),
		"elapsed", time.Since(phaseStart),
	)

	tables := make([]*rollup.Table, 0, len(rollups))
	for _, name := range names {
		tables = append(tables, rollups[name])
	}
	if hasCategories {
		tables = append(tables, rollups[TotalCategory])
	}

	phaseStart = time.Now()
	summaries := make(map[string]summary.Bundle, 2)
	if e.params.NonstationaryStats {
		summaries["nonstationary"] = summary.Nonstationary(tables, e.params.Percentiles)
	}
	if e.params.StationaryStats {
		summaries["stationary"] = summary.Stationary(tables, e.params.Percentiles)
	}
	sugar.Infow("Summaries computed",
		"modes", len(summaries),
		"elapsed", time.Since(phaseStart),
	)

	runsTotal.Inc()
	runDuration.Observe(time.Since(runStart).Seconds())
	sugar.Infow("Analysis run complete",
		"scenario", e.params.ScenarioName,
		"records_analyzed", report.RecordsAnalyzed,
		"warnings", len(report.Warnings),
		"elapsed", time.Since(runStart),
	)

	return &Results{Rollups: rollups, Summaries: summaries, Report: report}, nil
}

// preprocess drops records the engine cannot use (missing timestamps,
// excluded categories) and reports whether a category field is in play.
func (e *Engine) preprocess(records []stoprec.Record, report *Report) ([]stoprec.Record, bool) {
	excluded := make(map[string]bool, len(e.params.ExcludeCategories))
	for _, cat := range e.params.ExcludeCategories {
		excluded[cat] = true
	}

	analyzed := make([]stoprec.Record, 0, len(records))
	hasCategories := false
	for _, rec := range records {
		if rec.Entry.IsZero() || rec.Exit.IsZero() {
			report.RecordsMissingTimestamps++
			continue
		}
		if excluded[rec.Category] {
			report.RecordsExcludedCategory++
			continue
		}
		if rec.Category != "" {
			hasCategories = true
		}
		analyzed = append(analyzed, rec)
	}

	if report.RecordsMissingTimestamps > 0 {
		warning := fmt.Sprintf("%d records with missing timestamps ignored", report.RecordsMissingTimestamps)
		report.Warnings = append(report.Warnings, warning)
		e.logger.Sugar().Warn(warning)
	}
	return analyzed, hasCategories
}

// checkWindowCoverage warns when the analysis window extends far outside the
// range of the data, which usually means a misconfigured window.
func (e *Engine) checkWindowCoverage(records []stoprec.Record, report *Report) {
	minEntry := records[0].Entry
	maxExit := records[0].Exit
	for _, rec := range records[1:] {
		if rec.Entry.Before(minEntry) {
			minEntry = rec.Entry
		}
		if rec.Exit.After(maxExit) {
			maxExit = rec.Exit
		}
	}

	earlyHours := minEntry.Sub(e.params.WindowStart).Hours()
	if earlyHours > WindowCoverageToleranceHours {
		warning := fmt.Sprintf("analysis starts %.2f hours before first arrival", earlyHours)
		report.Warnings = append(report.Warnings, warning)
		windowWarnings.Inc()
		e.logger.Sugar().Warn(warning)
	}

	lateHours := e.params.WindowEnd.Sub(maxExit).Hours()
	if lateHours > WindowCoverageToleranceHours {
		warning := fmt.Sprintf("analysis ends %.2f hours after last departure", lateHours)
		report.Warnings = append(report.Warnings, warning)
		windowWarnings.Inc()
		e.logger.Sugar().Warn(warning)
	}
}

// partitionByCategory splits records into per-category slices. With no
// category field, everything lands in the single implicit total partition.
func partitionByCategory(records []stoprec.Record, hasCategories bool) map[string][]stoprec.Record {
	partitions := make(map[string][]stoprec.Record)
	for _, rec := range records {
		key := rec.Category
		if !hasCategories {
			key = TotalCategory
		} else if key == "" {
			key = UncategorizedKey
		}
		partitions[key] = append(partitions[key], rec)
	}
	return partitions
}

// accumulate fans per-category accumulation out across goroutines. Each
// category owns its matrix, so the only synchronization point is the final
// collection. Cancellation is honored at the category boundary.
func (e *Engine) accumulate(ctx context.Context, partitions map[string][]stoprec.Record) (map[string]*categoryOutcome, error) {
	var wg sync.WaitGroup
	outCh := make(chan *categoryOutcome, len(partitions))

	for name, recs := range partitions {
		wg.Add(1)
		go func(name string, recs []stoprec.Record) {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				outCh <- &categoryOutcome{name: name, err: err}
				return
			}

			acc := binning.NewAccumulator(e.params.WindowStart, e.params.WindowEnd, e.params.HighResBinMinutes, e.params.EdgeMode)
			for _, rec := range recs {
				if err := acc.Add(rec); err != nil {
					outCh <- &categoryOutcome{name: name, err: fmt.Errorf("category %q: %w", name, err)}
					return
				}
			}

			cons := binning.CheckConservation(acc.Matrix(), recs, name, e.params.WindowStart, e.params.WindowEnd, e.params.HighResBinMinutes)
			outCh <- &categoryOutcome{
				name:         name,
				matrix:       acc.Matrix(),
				relCounts:    acc.RelationshipCounts(),
				conservation: cons,
			}
		}(name, recs)
	}

	wg.Wait()
	close(outCh)

	outcomes := make(map[string]*categoryOutcome, len(partitions))
	var firstErr error
	for out := range outCh {
		if out.err != nil {
			if firstErr == nil {
				firstErr = out.err
			}
			continue
		}
		outcomes[out.name] = out
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return outcomes, nil
}

// recordConservation logs and counts conservation-check failures; they are
// warnings, not errors.
func (e *Engine) recordConservation(res binning.ConservationResult, report *Report) {
	report.Conservation = append(report.Conservation, res)
	sugar := e.logger.Sugar()

	if !res.ArrivalsMatch {
		warning := fmt.Sprintf("category %q: binned arrivals (%.0f) != arrivals in window (%d)",
			res.Category, res.ArrivalsBinned, res.ArrivalsDirect)
		report.Warnings = append(report.Warnings, warning)
		conservationWarnings.WithLabelValues("arrivals").Inc()
		sugar.Warn(warning)
	}
	if !res.DeparturesMatch {
		warning := fmt.Sprintf("category %q: binned departures (%.0f) != departures in window (%d)",
			res.Category, res.DeparturesBinned, res.DeparturesDirect)
		report.Warnings = append(report.Warnings, warning)
		conservationWarnings.WithLabelValues("departures").Inc()
		sugar.Warn(warning)
	}
	if !res.OccupancyWithin {
		warning := fmt.Sprintf("category %q: binned occupancy differs from direct total by %.2f%% (tolerance %.0f%%)",
			res.Category, res.OccupancyRelError*100, binning.OccupancyTolerance*100)
		report.Warnings = append(report.Warnings, warning)
		conservationWarnings.WithLabelValues("occupancy").Inc()
		sugar.Warn(warning)
	}
}

// Package export writes analysis results to CSV files, one file per
// category rollup and one per summary table.
package export

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/occulens/internal/rollup"
	"github.com/sanspareilsmyn/occulens/internal/summary"
)

// Writer exports result tables as CSV files under a base directory.
type Writer struct {
	dir    string
	logger *zap.SugaredLogger
}

// NewWriter creates a Writer rooted at dir, creating the directory if needed.
func NewWriter(dir string, logger *zap.Logger) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateOutputDir, err)
	}
	return &Writer{dir: dir, logger: logger.Sugar()}, nil
}

// WriteRollups writes one bydatetime CSV per category, named
// <scenario>_bydatetime_<category>.csv.
func (w *Writer) WriteRollups(scenario string, rollups map[string]*rollup.Table) error {
	names := make([]string, 0, len(rollups))
	for name := range rollups {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(w.dir, fmt.Sprintf("%s_bydatetime_%s.csv", scenario, name))
		if err := w.writeRollup(path, rollups[name]); err != nil {
			return err
		}
		w.logger.Infow("Wrote rollup CSV", "path", path, "rows", len(rollups[name].Rows))
	}
	return nil
}

func (w *Writer) writeRollup(path string, table *rollup.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCreateOutputFile, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	header := []string{
		"category", "datetime", "date", "arrivals", "departures", "occupancy",
		"day_of_week", "dow_name", "bin_of_day", "bin_of_week",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteCSV, err)
	}

	for _, row := range table.Rows {
		record := []string{
			row.Category,
			row.DateTime.Format("2006-01-02 15:04:05"),
			row.Date.Format("2006-01-02"),
			formatFloat(row.Arrivals),
			formatFloat(row.Departures),
			formatFloat(row.Occupancy),
			strconv.Itoa(row.DayOfWeek),
			row.DowName,
			strconv.Itoa(row.BinOfDay),
			strconv.Itoa(row.BinOfWeek),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("%w: %w", ErrWriteCSV, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteCSV, err)
	}
	return nil
}

// WriteSummaries writes one CSV per measure and summary mode, named
// <scenario>_<measure>_<mode>.csv. Modes are the keys of the summaries map,
// e.g. "nonstationary" and "stationary".
func (w *Writer) WriteSummaries(scenario string, summaries map[string]summary.Bundle) error {
	modes := make([]string, 0, len(summaries))
	for mode := range summaries {
		modes = append(modes, mode)
	}
	sort.Strings(modes)

	for _, mode := range modes {
		for _, measure := range rollup.Measures {
			table, ok := summaries[mode][measure]
			if !ok {
				continue
			}
			path := filepath.Join(w.dir, fmt.Sprintf("%s_%s_%s.csv", scenario, measure, mode))
			if err := w.writeSummary(path, table); err != nil {
				return err
			}
			w.logger.Infow("Wrote summary CSV", "path", path, "rows", len(table.Rows))
		}
	}
	return nil
}

func (w *Writer) writeSummary(path string, table *summary.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCreateOutputFile, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	header := []string{
		"category", "day_of_week", "dow_name", "bin_of_day",
		"count", "mean", "min", "max", "stdev", "sem", "var", "cv", "skew", "kurt",
	}
	for _, p := range table.Percentiles {
		header = append(header, fmt.Sprintf("p%d", p))
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteCSV, err)
	}

	for _, row := range table.Rows {
		record := []string{
			row.Category,
			strconv.Itoa(row.DayOfWeek),
			row.DowName,
			strconv.Itoa(row.BinOfDay),
			strconv.Itoa(row.Count),
			formatFloat(row.Mean),
			formatFloat(row.Min),
			formatFloat(row.Max),
			formatFloat(row.StdDev),
			formatFloat(row.SEM),
			formatFloat(row.Variance),
			formatFloat(row.CV),
			formatFloat(row.Skew),
			formatFloat(row.Kurtosis),
		}
		for _, p := range table.Percentiles {
			record = append(record, formatFloat(row.Percentiles[p]))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("%w: %w", ErrWriteCSV, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteCSV, err)
	}
	return nil
}

// formatFloat renders values with fixed six-digit precision; NaN becomes an
// empty cell so downstream spreadsheet tools treat it as missing.
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}

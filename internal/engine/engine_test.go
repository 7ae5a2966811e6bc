package engine

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/occulens/internal/binning"
	"github.com/sanspareilsmyn/occulens/internal/rollup"
	"github.com/sanspareilsmyn/occulens/internal/stoprec"
)

func ts(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		panic(err)
	}
	return t
}

func testParams() Params {
	return Params{
		ScenarioName:       "test",
		WindowStart:        ts("2024-01-01 00:00:00"),
		WindowEnd:          ts("2024-01-07 23:59:59"),
		ReportBinMinutes:   60,
		HighResBinMinutes:  30,
		EdgeMode:           binning.EdgeFractional,
		NonstationaryStats: true,
		StationaryStats:    true,
	}
}

func testRecords() []stoprec.Record {
	return []stoprec.Record{
		{Entry: ts("2024-01-01 07:20:00"), Exit: ts("2024-01-01 08:50:00"), Category: "ICU", Weight: 1},
		{Entry: ts("2024-01-02 09:00:00"), Exit: ts("2024-01-03 11:30:00"), Category: "ICU", Weight: 1},
		{Entry: ts("2024-01-02 10:15:00"), Exit: ts("2024-01-02 16:45:00"), Category: "MED", Weight: 1},
		{Entry: ts("2024-01-05 23:00:00"), Exit: ts("2024-01-06 02:00:00"), Category: "MED", Weight: 2},
	}
}

func newTestEngine(t *testing.T, params Params) *Engine {
	t.Helper()
	eng, err := New(params, zap.NewNop())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return eng
}

func TestRunEndToEnd(t *testing.T) {
	eng := newTestEngine(t, testParams())
	results, err := eng.Run(context.Background(), testRecords())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	for _, key := range []string{"ICU", "MED", TotalCategory} {
		if _, ok := results.Rollups[key]; !ok {
			t.Errorf("missing rollup for %q", key)
		}
	}
	if len(results.Rollups) != 3 {
		t.Errorf("got %d rollups, want 3", len(results.Rollups))
	}

	// 7 days of hourly rows per table.
	if got := len(results.Rollups["ICU"].Rows); got != 168 {
		t.Errorf("ICU rollup has %d rows, want 168", got)
	}

	// The total must be the superposition of the categories.
	var catOcc, totalOcc float64
	for _, key := range []string{"ICU", "MED"} {
		for _, row := range results.Rollups[key].Rows {
			catOcc += row.Occupancy
		}
	}
	for _, row := range results.Rollups[TotalCategory].Rows {
		totalOcc += row.Occupancy
	}
	if math.Abs(catOcc-totalOcc) > 1e-9 {
		t.Errorf("total occupancy %v != sum of categories %v", totalOcc, catOcc)
	}

	if results.Report.RecordsSupplied != 4 || results.Report.RecordsAnalyzed != 4 {
		t.Errorf("report counts = %d/%d, want 4/4", results.Report.RecordsSupplied, results.Report.RecordsAnalyzed)
	}
	if results.Report.RelationshipCounts["ICU"][stoprec.RelInner] != 2 {
		t.Errorf("ICU inner count = %d, want 2", results.Report.RelationshipCounts["ICU"][stoprec.RelInner])
	}
	if len(results.Report.Conservation) != 2 {
		t.Errorf("got %d conservation results, want 2", len(results.Report.Conservation))
	}
}

func TestRunSummaries(t *testing.T) {
	eng := newTestEngine(t, testParams())
	results, err := eng.Run(context.Background(), testRecords())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	for _, mode := range []string{"nonstationary", "stationary"} {
		bundle, ok := results.Summaries[mode]
		if !ok {
			t.Fatalf("missing %s summaries", mode)
		}
		occ := bundle[rollup.MeasureOccupancy]
		if occ == nil || len(occ.Rows) == 0 {
			t.Fatalf("%s occupancy summary is empty", mode)
		}
	}

	// Stationary: one row per category key per measure.
	stat := results.Summaries["stationary"][rollup.MeasureOccupancy]
	if len(stat.Rows) != 3 {
		t.Errorf("stationary rows = %d, want 3", len(stat.Rows))
	}

	// Default percentiles applied when none are configured.
	wantLabels := []int{25, 50, 75, 95, 99}
	if len(stat.Percentiles) != len(wantLabels) {
		t.Fatalf("percentile labels = %v, want %v", stat.Percentiles, wantLabels)
	}
	for i, p := range wantLabels {
		if stat.Percentiles[i] != p {
			t.Errorf("percentile label[%d] = %d, want %d", i, stat.Percentiles[i], p)
		}
	}
}

func TestRunSummaryToggles(t *testing.T) {
	params := testParams()
	params.NonstationaryStats = false
	eng := newTestEngine(t, params)

	results, err := eng.Run(context.Background(), testRecords())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if _, ok := results.Summaries["nonstationary"]; ok {
		t.Error("nonstationary summaries present despite toggle off")
	}
	if _, ok := results.Summaries["stationary"]; !ok {
		t.Error("stationary summaries missing")
	}
}

func TestRunIdempotent(t *testing.T) {
	eng := newTestEngine(t, testParams())

	first, err := eng.Run(context.Background(), testRecords())
	if err != nil {
		t.Fatalf("first Run error: %v", err)
	}
	second, err := eng.Run(context.Background(), testRecords())
	if err != nil {
		t.Fatalf("second Run error: %v", err)
	}

	a := first.Rollups[TotalCategory].Rows
	b := second.Rollups[TotalCategory].Rows
	if len(a) != len(b) {
		t.Fatalf("row counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("row %d differs between runs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestRunWithoutCategories(t *testing.T) {
	records := testRecords()
	for i := range records {
		records[i].Category = ""
	}

	eng := newTestEngine(t, testParams())
	results, err := eng.Run(context.Background(), records)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if len(results.Rollups) != 1 {
		t.Fatalf("got %d rollups, want only the implicit total", len(results.Rollups))
	}
	if _, ok := results.Rollups[TotalCategory]; !ok {
		t.Error("missing the implicit total rollup")
	}
	if results.Report.HasCategoryField() {
		t.Error("HasCategoryField() = true for uncategorized records")
	}
}

func TestRunBlankCategoryAmongOthers(t *testing.T) {
	records := testRecords()
	records[3].Category = ""

	eng := newTestEngine(t, testParams())
	results, err := eng.Run(context.Background(), records)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if _, ok := results.Rollups[UncategorizedKey]; !ok {
		t.Errorf("missing %q rollup, got keys %v", UncategorizedKey, len(results.Rollups))
	}
}

func TestRunExcludesCategories(t *testing.T) {
	params := testParams()
	params.ExcludeCategories = []string{"MED"}
	eng := newTestEngine(t, params)

	results, err := eng.Run(context.Background(), testRecords())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if _, ok := results.Rollups["MED"]; ok {
		t.Error("excluded category still produced a rollup")
	}
	if results.Report.RecordsExcludedCategory != 2 {
		t.Errorf("RecordsExcludedCategory = %d, want 2", results.Report.RecordsExcludedCategory)
	}
	if results.Report.RecordsAnalyzed != 2 {
		t.Errorf("RecordsAnalyzed = %d, want 2", results.Report.RecordsAnalyzed)
	}
}

func TestRunDropsMissingTimestamps(t *testing.T) {
	records := append(testRecords(), stoprec.Record{Exit: ts("2024-01-02 10:00:00"), Weight: 1})

	eng := newTestEngine(t, testParams())
	results, err := eng.Run(context.Background(), records)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if results.Report.RecordsMissingTimestamps != 1 {
		t.Errorf("RecordsMissingTimestamps = %d, want 1", results.Report.RecordsMissingTimestamps)
	}
	if len(results.Report.Warnings) == 0 {
		t.Error("expected a missing-timestamp warning")
	}
}

func TestRunWindowCoverageWarnings(t *testing.T) {
	params := testParams()
	params.WindowStart = ts("2023-11-01 00:00:00")
	params.WindowEnd = ts("2024-03-01 00:00:00")
	eng := newTestEngine(t, params)

	results, err := eng.Run(context.Background(), testRecords())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(results.Report.Warnings) < 2 {
		t.Errorf("got %d warnings, want coverage warnings on both ends: %v",
			len(results.Report.Warnings), results.Report.Warnings)
	}
}

func TestRunNoRecords(t *testing.T) {
	eng := newTestEngine(t, testParams())
	_, err := eng.Run(context.Background(), nil)
	if !errors.Is(err, ErrNoRecords) {
		t.Errorf("expected ErrNoRecords, got %v", err)
	}
}

func TestRunCancelledContext(t *testing.T) {
	eng := newTestEngine(t, testParams())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := eng.Run(ctx, testRecords())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestParamsValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Params)
		want   error
	}{
		{"end before start", func(p *Params) { p.WindowEnd = p.WindowStart.Add(-time.Hour) }, ErrEndNotAfterStart},
		{"end equals start", func(p *Params) { p.WindowEnd = p.WindowStart }, ErrEndNotAfterStart},
		{"report bin not day divisor", func(p *Params) { p.ReportBinMinutes = 7 }, ErrBinSizeNotDayDivisor},
		{"zero report bin", func(p *Params) { p.ReportBinMinutes = 0 }, ErrBinSizeNotDayDivisor},
		{"highres exceeds report", func(p *Params) { p.HighResBinMinutes = 120 }, ErrFineBinExceedsReportBin},
		{"highres not divisor", func(p *Params) { p.HighResBinMinutes = 25 }, ErrFineBinNotReportDivisor},
		{"percentile at one", func(p *Params) { p.Percentiles = []float64{1.0} }, ErrInvalidPercentile},
		{"percentile negative", func(p *Params) { p.Percentiles = []float64{-0.5} }, ErrInvalidPercentile},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := testParams()
			tc.mutate(&params)
			if err := params.Validate(); !errors.Is(err, tc.want) {
				t.Errorf("Validate() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestParamsValidateDefaults(t *testing.T) {
	params := testParams()
	params.HighResBinMinutes = 0
	params.Percentiles = nil

	if err := params.Validate(); err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if params.HighResBinMinutes != params.ReportBinMinutes {
		t.Errorf("HighResBinMinutes = %d, want defaulted to %d", params.HighResBinMinutes, params.ReportBinMinutes)
	}
	if len(params.Percentiles) != len(DefaultPercentiles) {
		t.Errorf("Percentiles = %v, want defaults", params.Percentiles)
	}
}

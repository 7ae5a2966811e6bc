package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const validTOML = `
[scenario]
name = "unit-test"
startAnalysis = "2024-01-01"
endAnalysis = "2024-01-07 23:59:59"
reportBinMinutes = 60
highresBinMinutes = 30
edgeBins = "fractional"
percentiles = [0.5, 0.95]
excludeCategories = ["OBS"]

[input]
source = "csv"
path = "testdata/stops.csv"
entryField = "in_ts"
exitField = "out_ts"
categoryField = "unit"

[export]
path = "out"

[log]
level = "debug"
format = "json"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validTOML))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Scenario.Name != "unit-test" {
		t.Errorf("Name = %q, want unit-test", cfg.Scenario.Name)
	}
	if cfg.Scenario.ReportBinMinutes != 60 || cfg.Scenario.HighResBinMinutes != 30 {
		t.Errorf("bin sizes = %d/%d, want 60/30", cfg.Scenario.ReportBinMinutes, cfg.Scenario.HighResBinMinutes)
	}
	if len(cfg.Scenario.ExcludeCategories) != 1 || cfg.Scenario.ExcludeCategories[0] != "OBS" {
		t.Errorf("ExcludeCategories = %v", cfg.Scenario.ExcludeCategories)
	}
	if cfg.Input.Source != "csv" || cfg.Input.Path != "testdata/stops.csv" {
		t.Errorf("input = %+v", cfg.Input)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("log = %+v", cfg.Log)
	}
	// Defaults fill what the file omits.
	if !cfg.Scenario.Nonstationary || !cfg.Scenario.Stationary {
		t.Error("summary toggles should default to true")
	}
	if !cfg.Export.ByDateTime || !cfg.Export.Summaries {
		t.Error("export toggles should default to true")
	}
}

func TestLoadEngineParams(t *testing.T) {
	cfg, err := Load(writeConfig(t, validTOML))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	params, err := cfg.EngineParams()
	if err != nil {
		t.Fatalf("EngineParams error: %v", err)
	}
	wantStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !params.WindowStart.Equal(wantStart) {
		t.Errorf("WindowStart = %v, want %v", params.WindowStart, wantStart)
	}
	if !params.WindowEnd.After(params.WindowStart) {
		t.Errorf("window not ordered: %v .. %v", params.WindowStart, params.WindowEnd)
	}
	if len(params.Percentiles) != 2 {
		t.Errorf("Percentiles = %v, want the configured pair", params.Percentiles)
	}
}

func TestLoadColumns(t *testing.T) {
	cfg, err := Load(writeConfig(t, validTOML))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	cols := cfg.Columns()
	if cols.EntryField != "in_ts" || cols.ExitField != "out_ts" || cols.CategoryField != "unit" {
		t.Errorf("Columns() = %+v", cols)
	}
	if cols.WeightField != "" {
		t.Errorf("WeightField = %q, want empty", cols.WeightField)
	}
}

func TestLoadValidationFailures(t *testing.T) {
	cases := []struct {
		name string
		toml string
		want error
	}{
		{
			"missing scenario name",
			`
[scenario]
startAnalysis = "2024-01-01"
endAnalysis = "2024-01-07"
[input]
source = "csv"
path = "x.csv"
entryField = "a"
exitField = "b"
`,
			ErrMissingScenarioName,
		},
		{
			"missing dates",
			`
[scenario]
name = "x"
[input]
source = "csv"
path = "x.csv"
entryField = "a"
exitField = "b"
`,
			ErrMissingAnalysisDate,
		},
		{
			"bad date",
			`
[scenario]
name = "x"
startAnalysis = "01/02/2024"
endAnalysis = "2024-01-07"
[input]
source = "csv"
path = "x.csv"
entryField = "a"
exitField = "b"
`,
			ErrBadAnalysisDate,
		},
		{
			"unknown source",
			`
[scenario]
name = "x"
startAnalysis = "2024-01-01"
endAnalysis = "2024-01-07"
[input]
source = "ftp"
`,
			ErrUnknownSource,
		},
		{
			"csv without path",
			`
[scenario]
name = "x"
startAnalysis = "2024-01-01"
endAnalysis = "2024-01-07"
[input]
source = "csv"
entryField = "a"
exitField = "b"
`,
			ErrMissingCSVPath,
		},
		{
			"csv without timestamp columns",
			`
[scenario]
name = "x"
startAnalysis = "2024-01-01"
endAnalysis = "2024-01-07"
[input]
source = "csv"
path = "x.csv"
`,
			ErrMissingEntryField,
		},
		{
			"kafka without brokers",
			`
[scenario]
name = "x"
startAnalysis = "2024-01-01"
endAnalysis = "2024-01-07"
[input]
source = "kafka"
[kafka]
topic = "stops"
`,
			ErrEmptyKafkaBrokers,
		},
		{
			"kafka without topic",
			`
[scenario]
name = "x"
startAnalysis = "2024-01-01"
endAnalysis = "2024-01-07"
[input]
source = "kafka"
[kafka]
brokers = ["localhost:9092"]
`,
			ErrEmptyKafkaTopic,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.toml))
			if !errors.Is(err, tc.want) {
				t.Errorf("Load error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Error("expected an error for a missing config file")
	}
}

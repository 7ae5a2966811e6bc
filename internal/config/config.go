package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sanspareilsmyn/occulens/internal/binning"
	"github.com/sanspareilsmyn/occulens/internal/engine"
	"github.com/sanspareilsmyn/occulens/internal/stoprec"
)

const (
	defaultReportBinMinutes  = 60
	defaultHighResBinMinutes = 0 // 0 means same as report resolution
	defaultEdgeBins          = "fractional"
	defaultSource            = "csv"
	defaultGroupID           = "occulens-default-group"
	defaultIdleTimeout       = 5 * time.Second
	defaultMaxRecords        = 1_000_000
	defaultExportPath        = "."
	defaultLogLevel          = "info"
	defaultLogFormat         = "console"
	defaultLogFileEnabled    = false
	defaultLogDirectory      = "log"
	defaultLogFilename       = "occulens.log"
	defaultLogMaxSizeMB      = 100
	defaultLogMaxBackups     = 3
	defaultLogMaxAgeDays     = 7
	defaultLogCompress       = false

	// Environment variable prefix
	envPrefix = "OCCULENS"
)

type Config struct {
	Scenario ScenarioConfig `mapstructure:"scenario"`
	Input    InputConfig    `mapstructure:"input"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Export   ExportConfig   `mapstructure:"export"`
	Log      LogConfig      `mapstructure:"log"`
}

// ScenarioConfig describes one analysis run: the window, the two bin
// resolutions, and the statistics to compute.
type ScenarioConfig struct {
	Name              string    `mapstructure:"name"`
	StartAnalysis     string    `mapstructure:"startAnalysis"`
	EndAnalysis       string    `mapstructure:"endAnalysis"`
	ReportBinMinutes  int       `mapstructure:"reportBinMinutes"`
	HighResBinMinutes int       `mapstructure:"highresBinMinutes"`
	EdgeBins          string    `mapstructure:"edgeBins"` // "fractional" or "whole_bin"
	Percentiles       []float64 `mapstructure:"percentiles"`
	ExcludeCategories []string  `mapstructure:"excludeCategories"`
	Nonstationary     bool      `mapstructure:"nonstationaryStats"`
	Stationary        bool      `mapstructure:"stationaryStats"`
}

// InputConfig locates the stop records and names their columns.
type InputConfig struct {
	Source        string `mapstructure:"source"` // "csv" or "kafka"
	Path          string `mapstructure:"path"`
	EntryField    string `mapstructure:"entryField"`
	ExitField     string `mapstructure:"exitField"`
	CategoryField string `mapstructure:"categoryField"`
	WeightField   string `mapstructure:"weightField"`
}

// KafkaConfig configures batch collection of stop records from a topic.
type KafkaConfig struct {
	Brokers     []string      `mapstructure:"brokers"`
	Topic       string        `mapstructure:"topic"`
	GroupID     string        `mapstructure:"groupID"`
	MaxRecords  int           `mapstructure:"maxRecords"`
	IdleTimeout time.Duration `mapstructure:"idleTimeout"`
}

// ExportConfig controls CSV output of rollups and summaries.
type ExportConfig struct {
	Path       string `mapstructure:"path"`
	ByDateTime bool   `mapstructure:"bydatetime"`
	Summaries  bool   `mapstructure:"summaries"`
}

type LogConfig struct {
	Level              string `mapstructure:"level"`
	Format             string `mapstructure:"format"`
	FileLoggingEnabled bool   `mapstructure:"fileLoggingEnabled"`
	Directory          string `mapstructure:"directory"`
	Filename           string `mapstructure:"filename"`
	MaxSize            int    `mapstructure:"maxSize"`    // Max size in MB
	MaxBackups         int    `mapstructure:"maxBackups"` // Max backup files
	MaxAge             int    `mapstructure:"maxAge"`     // Max days to retain
	Compress           bool   `mapstructure:"compress"`   // Compress rotated files?
}

// Load initializes viper, reads config (TOML or YAML), applies defaults,
// unmarshals, and validates.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	configureViper(v, configPath)

	// Set default values before reading the config source
	setDefaults(v)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnmarshallingConfig, err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// configureViper sets up the viper instance for file and environment variables.
func configureViper(v *viper.Viper, configPath string) {
	if configPath != "" {
		v.SetConfigFile(configPath)
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scenario.reportBinMinutes", defaultReportBinMinutes)
	v.SetDefault("scenario.highresBinMinutes", defaultHighResBinMinutes)
	v.SetDefault("scenario.edgeBins", defaultEdgeBins)
	v.SetDefault("scenario.percentiles", engine.DefaultPercentiles)
	v.SetDefault("scenario.nonstationaryStats", true)
	v.SetDefault("scenario.stationaryStats", true)
	v.SetDefault("input.source", defaultSource)
	v.SetDefault("kafka.groupID", defaultGroupID)
	v.SetDefault("kafka.maxRecords", defaultMaxRecords)
	v.SetDefault("kafka.idleTimeout", defaultIdleTimeout)
	v.SetDefault("export.path", defaultExportPath)
	v.SetDefault("export.bydatetime", true)
	v.SetDefault("export.summaries", true)
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("log.format", defaultLogFormat)
	v.SetDefault("log.fileLoggingEnabled", defaultLogFileEnabled)
	v.SetDefault("log.directory", defaultLogDirectory)
	v.SetDefault("log.filename", defaultLogFilename)
	v.SetDefault("log.maxSize", defaultLogMaxSizeMB)
	v.SetDefault("log.maxBackups", defaultLogMaxBackups)
	v.SetDefault("log.maxAge", defaultLogMaxAgeDays)
	v.SetDefault("log.compress", defaultLogCompress)
}

// readConfigFile attempts to read the configuration file specified in viper.
func readConfigFile(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return ErrConfigFileMissing
		}
		return fmt.Errorf("%w: %w", ErrReadingConfigFile, err)
	}
	return nil
}

func validateConfig(cfg *Config) error {
	if cfg.Scenario.Name == "" {
		return ErrMissingScenarioName
	}
	if cfg.Scenario.StartAnalysis == "" || cfg.Scenario.EndAnalysis == "" {
		return ErrMissingAnalysisDate
	}
	// Engine-side constraints (bin divisibility, window ordering, percentile
	// range) are enforced through EngineParams via Params.Validate.
	if _, err := cfg.EngineParams(); err != nil {
		return err
	}

	switch cfg.Input.Source {
	case "csv":
		if cfg.Input.Path == "" {
			return ErrMissingCSVPath
		}
		if cfg.Input.EntryField == "" || cfg.Input.ExitField == "" {
			return ErrMissingEntryField
		}
	case "kafka":
		if len(cfg.Kafka.Brokers) == 0 {
			return ErrEmptyKafkaBrokers
		}
		if cfg.Kafka.Topic == "" {
			return ErrEmptyKafkaTopic
		}
		if cfg.Kafka.GroupID == "" {
			return ErrEmptyKafkaGroupID
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSource, cfg.Input.Source)
	}

	return nil
}

// EngineParams converts the scenario section into validated engine parameters.
func (c *Config) EngineParams() (engine.Params, error) {
	start, err := stoprec.ParseTimestamp(c.Scenario.StartAnalysis)
	if err != nil {
		return engine.Params{}, fmt.Errorf("%w: start %q", ErrBadAnalysisDate, c.Scenario.StartAnalysis)
	}
	end, err := stoprec.ParseTimestamp(c.Scenario.EndAnalysis)
	if err != nil {
		return engine.Params{}, fmt.Errorf("%w: end %q", ErrBadAnalysisDate, c.Scenario.EndAnalysis)
	}

	mode, err := binning.ParseEdgeMode(c.Scenario.EdgeBins)
	if err != nil {
		return engine.Params{}, err
	}

	params := engine.Params{
		ScenarioName:       c.Scenario.Name,
		WindowStart:        start,
		WindowEnd:          end,
		ReportBinMinutes:   c.Scenario.ReportBinMinutes,
		HighResBinMinutes:  c.Scenario.HighResBinMinutes,
		EdgeMode:           mode,
		Percentiles:        c.Scenario.Percentiles,
		ExcludeCategories:  c.Scenario.ExcludeCategories,
		NonstationaryStats: c.Scenario.Nonstationary,
		StationaryStats:    c.Scenario.Stationary,
	}
	if err := params.Validate(); err != nil {
		return engine.Params{}, err
	}
	return params, nil
}

// Columns returns the CSV column mapping for the configured input.
func (c *Config) Columns() stoprec.Columns {
	return stoprec.Columns{
		EntryField:    c.Input.EntryField,
		ExitField:     c.Input.ExitField,
		CategoryField: c.Input.CategoryField,
		WeightField:   c.Input.WeightField,
	}
}

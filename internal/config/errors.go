package config

import "errors"

var (
	ErrReadingConfigFile   = errors.New("failed to read config file")
	ErrUnmarshallingConfig = errors.New("failed to unmarshal config")
	ErrConfigFileMissing   = errors.New("config file not found")

	ErrMissingScenarioName = errors.New("scenario name cannot be empty")
	ErrMissingAnalysisDate = errors.New("analysis start and end must both be set")
	ErrBadAnalysisDate     = errors.New("analysis date could not be parsed")
	ErrUnknownSource       = errors.New("input source must be csv or kafka")
	ErrMissingCSVPath      = errors.New("csv input requires a path")
	ErrMissingEntryField   = errors.New("csv input requires entry and exit field names")
	ErrEmptyKafkaBrokers   = errors.New("kafka brokers list cannot be empty")
	ErrEmptyKafkaTopic     = errors.New("kafka topic cannot be empty")
	ErrEmptyKafkaGroupID   = errors.New("kafka groupID cannot be empty")
)

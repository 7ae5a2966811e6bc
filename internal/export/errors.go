package export

import "errors"

var (
	ErrCreateOutputDir  = errors.New("failed to create output directory")
	ErrCreateOutputFile = errors.New("failed to create output file")
	ErrWriteCSV         = errors.New("failed to write CSV output")
)

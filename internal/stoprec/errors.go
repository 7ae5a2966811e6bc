package stoprec

import "errors"

var (
	ErrJSONUnmarshalFailed = errors.New("failed to unmarshal stop record JSON")
	ErrMissingTimestamp    = errors.New("stop record is missing a timestamp")
	ErrBadTimestamp        = errors.New("stop record timestamp could not be parsed")
	ErrMissingColumn       = errors.New("referenced column not present in input")
	ErrEmptyInput          = errors.New("input contains no header row")
)

package stoprec

import (
	"encoding/json"
	"fmt"
	"time"
)

// timestampFormats are tried in order when parsing stop record timestamps.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp parses a timestamp string using the supported formats.
func ParseTimestamp(s string) (time.Time, error) {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadTimestamp, s)
}

// wireRecord is the JSON shape of a stop record on the ingest topic.
type wireRecord struct {
	Entry    string   `json:"entry"`
	Exit     string   `json:"exit"`
	Category string   `json:"category,omitempty"`
	Weight   *float64 `json:"weight,omitempty"`
}

// ParseJSON parses a JSON stop record payload into a Record.
// A missing weight defaults to 1.0.
func ParseJSON(data []byte) (Record, error) {
	var wire wireRecord
	if err := json.Unmarshal(data, &wire); err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrJSONUnmarshalFailed, err)
	}

	if wire.Entry == "" || wire.Exit == "" {
		return Record{}, ErrMissingTimestamp
	}

	entry, err := ParseTimestamp(wire.Entry)
	if err != nil {
		return Record{}, err
	}
	exit, err := ParseTimestamp(wire.Exit)
	if err != nil {
		return Record{}, err
	}

	weight := 1.0
	if wire.Weight != nil {
		weight = *wire.Weight
	}

	return Record{
		Entry:    entry,
		Exit:     exit,
		Category: wire.Category,
		Weight:   weight,
	}, nil
}

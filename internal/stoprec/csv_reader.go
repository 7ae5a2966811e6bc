package stoprec

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Columns names the CSV columns holding each stop record field.
// CategoryField and WeightField may be empty, in which case records get no
// category and a weight of 1.0.
type Columns struct {
	EntryField    string
	ExitField     string
	CategoryField string
	WeightField   string
}

// ReadStats counts what happened to the rows of one CSV read.
type ReadStats struct {
	Rows              int
	Loaded            int
	MissingTimestamps int
	BadRows           int
}

// ReadCSV reads stop records from a headered CSV stream. Rows with a missing
// or unparsable entry or exit timestamp are skipped and counted rather than
// aborting the read; a referenced column absent from the header is fatal.
func ReadCSV(r io.Reader, cols Columns) ([]Record, ReadStats, error) {
	var stats ReadStats

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, stats, ErrEmptyInput
	}
	if err != nil {
		return nil, stats, fmt.Errorf("reading CSV header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}

	entryIdx, err := columnIndex(idx, cols.EntryField)
	if err != nil {
		return nil, stats, err
	}
	exitIdx, err := columnIndex(idx, cols.ExitField)
	if err != nil {
		return nil, stats, err
	}

	catIdx := -1
	if cols.CategoryField != "" {
		if catIdx, err = columnIndex(idx, cols.CategoryField); err != nil {
			return nil, stats, err
		}
	}
	weightIdx := -1
	if cols.WeightField != "" {
		if weightIdx, err = columnIndex(idx, cols.WeightField); err != nil {
			return nil, stats, err
		}
	}

	var records []Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			stats.BadRows++
			continue
		}
		stats.Rows++

		entryRaw := strings.TrimSpace(row[entryIdx])
		exitRaw := strings.TrimSpace(row[exitIdx])
		if entryRaw == "" || exitRaw == "" {
			stats.MissingTimestamps++
			continue
		}

		entry, err := ParseTimestamp(entryRaw)
		if err != nil {
			stats.MissingTimestamps++
			continue
		}
		exit, err := ParseTimestamp(exitRaw)
		if err != nil {
			stats.MissingTimestamps++
			continue
		}

		rec := Record{Entry: entry, Exit: exit, Weight: 1.0}
		if catIdx >= 0 {
			rec.Category = strings.TrimSpace(row[catIdx])
		}
		if weightIdx >= 0 {
			w, err := strconv.ParseFloat(strings.TrimSpace(row[weightIdx]), 64)
			if err != nil {
				stats.BadRows++
				continue
			}
			rec.Weight = w
		}

		records = append(records, rec)
		stats.Loaded++
	}

	return records, stats, nil
}

func columnIndex(idx map[string]int, name string) (int, error) {
	i, ok := idx[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrMissingColumn, name)
	}
	return i, nil
}

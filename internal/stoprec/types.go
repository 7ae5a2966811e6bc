package stoprec

import "time"

// Record is a single stop: one entity's arrival/departure interval with an
// optional category label and occupancy weight.
type Record struct {
	Entry    time.Time
	Exit     time.Time
	Category string // empty means no category was supplied
	Weight   float64
}

// Duration returns the length of the stay. Negative for backwards records.
func (r Record) Duration() time.Duration {
	return r.Exit.Sub(r.Entry)
}

// Relationship describes how a stop interval overlaps the analysis window.
type Relationship int

const (
	RelNone Relationship = iota
	RelInner
	RelLeft
	RelRight
	RelOuter
	RelBackwards
)

var relationshipNames = map[Relationship]string{
	RelNone:      "none",
	RelInner:     "inner",
	RelLeft:      "left",
	RelRight:     "right",
	RelOuter:     "outer",
	RelBackwards: "backwards",
}

func (r Relationship) String() string {
	if name, ok := relationshipNames[r]; ok {
		return name
	}
	return "unknown"
}

// Classify determines the relationship between a stop interval and the
// analysis window [windowStart, windowEnd). The window is closed on the left
// and open on the right; a timestamp exactly equal to windowEnd is outside.
//
//	inner:     both entry and exit inside the window
//	right:     entry inside, exit at or beyond the window end (censored departure)
//	left:      entry before the window start, exit inside (censored arrival)
//	outer:     interval spans the whole window
//	backwards: exit before entry (bad record)
//	none:      no overlap
func Classify(entry, exit, windowStart, windowEnd time.Time) Relationship {
	inWindow := func(t time.Time) bool {
		return !t.Before(windowStart) && t.Before(windowEnd)
	}

	switch {
	case exit.Before(entry):
		return RelBackwards
	case inWindow(entry) && inWindow(exit):
		return RelInner
	case inWindow(entry) && !exit.Before(windowEnd):
		return RelRight
	case entry.Before(windowStart) && inWindow(exit):
		return RelLeft
	case entry.Before(windowStart) && !exit.Before(windowEnd):
		return RelOuter
	default:
		return RelNone
	}
}

package stoprec

import (
	"testing"
	"time"
)

func ts(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestClassify(t *testing.T) {
	windowStart := ts("2024-01-01 00:00:00")
	windowEnd := ts("2024-01-08 00:00:00")

	cases := []struct {
		name  string
		entry string
		exit  string
		want  Relationship
	}{
		{"both inside", "2024-01-02 10:00:00", "2024-01-02 14:00:00", RelInner},
		{"entry inside exit after", "2024-01-07 22:00:00", "2024-01-08 06:00:00", RelRight},
		{"entry before exit inside", "2023-12-31 18:00:00", "2024-01-01 09:00:00", RelLeft},
		{"straddles whole window", "2023-12-30 00:00:00", "2024-01-09 00:00:00", RelOuter},
		{"entirely before", "2023-12-20 00:00:00", "2023-12-21 00:00:00", RelNone},
		{"entirely after", "2024-02-01 00:00:00", "2024-02-02 00:00:00", RelNone},
		{"exit before entry", "2024-01-02 14:00:00", "2024-01-02 10:00:00", RelBackwards},
		{"entry on window start", "2024-01-01 00:00:00", "2024-01-01 04:00:00", RelInner},
		{"exit on window start", "2023-12-31 20:00:00", "2024-01-01 00:00:00", RelLeft},
		{"entry on window end", "2024-01-08 00:00:00", "2024-01-08 03:00:00", RelNone},
		{"exit exactly on window end", "2024-01-07 20:00:00", "2024-01-08 00:00:00", RelRight},
		{"zero length inside", "2024-01-03 12:00:00", "2024-01-03 12:00:00", RelInner},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(ts(tc.entry), ts(tc.exit), windowStart, windowEnd)
			if got != tc.want {
				t.Errorf("Classify(%s, %s) = %s, want %s", tc.entry, tc.exit, got, tc.want)
			}
		})
	}
}

func TestRecordDuration(t *testing.T) {
	rec := Record{Entry: ts("2024-01-02 10:00:00"), Exit: ts("2024-01-02 11:30:00")}
	if got := rec.Duration(); got != 90*time.Minute {
		t.Errorf("Duration() = %v, want 90m", got)
	}
}

func TestRelationshipString(t *testing.T) {
	if RelInner.String() != "inner" || RelBackwards.String() != "backwards" {
		t.Errorf("unexpected relationship names: %s, %s", RelInner, RelBackwards)
	}
}

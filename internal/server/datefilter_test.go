package server

import (
	"testing"
	"time"

	"github.com/ampview/ampview/internal/types"
)

func TestParseDateFilter(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		if _, ok := ParseDateFilter(""); ok {
			t.Error("empty value should not parse")
		}
	})

	t.Run("relative days", func(t *testing.T) {
		got, ok := ParseDateFilter("7d")
		if !ok {
			t.Fatal("7d should parse")
		}
		want := time.Now().UTC().AddDate(0, 0, -7)
		if diff := got.Sub(want); diff < -time.Minute || diff > time.Minute {
			t.Errorf("7d = %v, want ~%v", got, want)
		}
	})

	t.Run("iso date", func(t *testing.T) {
		got, ok := ParseDateFilter("2025-11-10")
		if !ok {
			t.Fatal("date should parse")
		}
		if got.Year() != 2025 || got.Month() != time.November || got.Day() != 10 {
			t.Errorf("got %v", got)
		}
	})

	t.Run("rfc3339", func(t *testing.T) {
		got, ok := ParseDateFilter("2025-11-10T15:30:00Z")
		if !ok {
			t.Fatal("timestamp should parse")
		}
		if got.Hour() != 15 || got.Minute() != 30 {
			t.Errorf("got %v", got)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		for _, v := range []string{"yesterday", "xd", "2025-13-45"} {
			if _, ok := ParseDateFilter(v); ok {
				t.Errorf("%q should not parse", v)
			}
		}
	})
}

func TestSessionInRange(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2025, 11, d, 0, 0, 0, 0, time.UTC)
	}
	sess := func(ts string) *types.Session {
		return &types.Session{Timestamp: ts}
	}

	tests := []struct {
		name       string
		sess       *types.Session
		start, end time.Time
		want       bool
	}{
		{"no filter", sess(""), time.Time{}, time.Time{}, true},
		{"inside window", sess("2025-11-10T12:00:00Z"), day(5), day(15), true},
		{"before start", sess("2025-11-01T12:00:00Z"), day(5), day(15), false},
		{"after end", sess("2025-11-20T12:00:00Z"), day(5), day(15), false},
		{"open end", sess("2025-11-20T12:00:00Z"), day(5), time.Time{}, true},
		{"open start", sess("2025-11-01T12:00:00Z"), time.Time{}, day(15), true},
		{"no timestamp while filtering", sess(""), day(5), time.Time{}, false},
		{"unparseable timestamp while filtering", sess("not a time"), day(5), time.Time{}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := sessionInRange(tc.sess, tc.start, tc.end); got != tc.want {
				t.Errorf("sessionInRange = %v, want %v", got, tc.want)
			}
		})
	}
}

package server

import (
	"strconv"
	"strings"
	"time"

	"github.com/ampview/ampview/internal/types"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDateFilter turns a query value into a cutoff time. Accepts relative
// periods like "7d" as well as ISO dates. Returns ok=false for empty or
// unparseable values, which callers treat as "no filter".
func ParseDateFilter(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}

	if strings.HasSuffix(value, "d") {
		if days, err := strconv.Atoi(strings.TrimSuffix(value, "d")); err == nil {
			return time.Now().UTC().AddDate(0, 0, -days), true
		}
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}

	return time.Time{}, false
}

// sessionInRange reports whether a session's recorded timestamp falls in
// [start, end]. Zero bounds are open. Sessions without a parseable
// timestamp are excluded whenever a filter is active.
func sessionInRange(sess *types.Session, start, end time.Time) bool {
	if start.IsZero() && end.IsZero() {
		return true
	}
	if sess.Timestamp == "" {
		return false
	}

	var ts time.Time
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, sess.Timestamp); err == nil {
			ts = t.UTC()
			break
		}
	}
	if ts.IsZero() {
		return false
	}

	if !start.IsZero() && ts.Before(start) {
		return false
	}
	if !end.IsZero() && ts.After(end) {
		return false
	}
	return true
}

// Package service implements the tank record operations: each domain gets a
// table schema, a row codec, validators and a presentation sort on top of
// the generic row store.
package service

import (
	"regexp"
	"time"
)

var dateOnlyRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// isDateOnly reports whether the value is a calendar date without a time
// component (YYYY-MM-DD).
func isDateOnly(value string) bool {
	return dateOnlyRe.MatchString(value)
}

// parseInstant parses an RFC 3339 instant, with or without fractional
// seconds.
func parseInstant(value string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// eventTime resolves a stored date cell to a point in time for sorting.
// Date-only values resolve to local midnight.
func eventTime(value string) (time.Time, bool) {
	if isDateOnly(value) {
		t, err := time.ParseInLocation("2006-01-02", value, time.Local)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	return parseInstant(value)
}

// dueTime resolves a reminder due value to a point in time. Date-only values
// compare at the end of the local day, so a reminder due "today" is not
// overdue until the day is over.
func dueTime(value string) (time.Time, bool) {
	if isDateOnly(value) {
		day, err := time.ParseInLocation("2006-01-02", value, time.Local)
		if err != nil {
			return time.Time{}, false
		}
		return day.Add(24*time.Hour - time.Millisecond), true
	}
	return parseInstant(value)
}

// normalizeDateOrInstant keeps date-only values verbatim and canonicalizes
// anything else to a UTC RFC 3339 instant. Returns false for unparsable
// input.
func normalizeDateOrInstant(value string) (string, bool) {
	if value == "" {
		return "", false
	}
	if isDateOnly(value) {
		return value, true
	}
	t, ok := parseInstant(value)
	if !ok {
		return "", false
	}
	return t.UTC().Format(time.RFC3339), true
}

// sortNewestFirst is the comparator shared by events and photos: newest date
// first, rows with unparsable dates last.
func sortNewestFirst(a, b string) bool {
	ta, okA := eventTime(a)
	tb, okB := eventTime(b)
	switch {
	case okA && okB:
		return ta.After(tb)
	case okA:
		return true
	default:
		return false
	}
}

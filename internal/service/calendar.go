package service

import "time"

// Calendar boundary helpers for the analytics aggregator. Buckets are
// calendar-aligned, never fixed-duration strides, so month lengths, leap
// years and the December→January rollover come out right.

// startOfDay truncates t to local midnight.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// startOfWeek returns the Monday midnight at or before t. The boundary is
// found by subtracting t's weekday offset, not by stepping 7 days back from
// an arbitrary instant.
func startOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7 // Monday=0 … Sunday=6
	return startOfDay(t).AddDate(0, 0, -offset)
}

// startOfMonth returns midnight on the first of t's month.
func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// startOfYear returns midnight on January 1 of t's year.
func startOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location())
}

// bucketEnd converts the next bucket's start into this bucket's inclusive
// end. One microsecond matches PostgreSQL timestamp resolution, so the
// closed BETWEEN query can never double-count a boundary order.
func bucketEnd(nextStart time.Time) time.Time {
	return nextStart.Add(-time.Microsecond)
}

package timeutil

import (
	"strings"
	"time"
)

// LoadLocation resolves an IANA zone name. Empty or unknown names resolve to
// fallback, and a nil fallback means UTC.
func LoadLocation(name string, fallback *time.Location) *time.Location {
	if fallback == nil {
		fallback = time.UTC
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fallback
	}
	return loc
}

// IsToday reports whether t falls on the same calendar date as now, both
// read in loc.
func IsToday(t time.Time, loc *time.Location, now time.Time) bool {
	if t.IsZero() {
		return false
	}
	if loc == nil {
		loc = time.UTC
	}
	y1, m1, d1 := t.In(loc).Date()
	y2, m2, d2 := now.In(loc).Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// StartOfDay returns local midnight of now's date in loc.
func StartOfDay(loc *time.Location, now time.Time) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// Max returns t when other is nil, otherwise the later of the two instants.
// The result keeps t's location.
func Max(t time.Time, other *time.Time) time.Time {
	if other == nil || !other.After(t) {
		return t
	}
	return other.In(t.Location())
}

// Day pins "now" and a time zone together so that every relevance check made
// while building one view agrees on what today is.
type Day struct {
	now time.Time
	loc *time.Location
}

func NewDay(now time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	return Day{now: now, loc: loc}
}

func (d Day) Now() time.Time { return d.now }
func (d Day) Location() *time.Location { return d.loc }
func (d Day) Contains(t time.Time) bool { return IsToday(t, d.loc, d.now) }
func (d Day) Start() time.Time { return StartOfDay(d.loc, d.now) }
func (d Day) ContainsPtr(t *time.Time) bool { return t != nil && d.Contains(*t) }

// StartOfWeek returns local midnight of the Monday starting the current week.
func (d Day) StartOfWeek() time.Time {
	start := d.Start()
	offset := (int(start.Weekday()) + 6) % 7
	return start.AddDate(0, 0, -offset)
}

func (d Day) StartOfMonth() time.Time {
	y, m, _ := d.now.In(d.loc).Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, d.loc)
}

func (d Day) StartOfYear() time.Time {
	return time.Date(d.now.In(d.loc).Year(), time.January, 1, 0, 0, 0, 0, d.loc)
}

// Package tzrule describes recurring annual daylight saving switches.
//
// A Rule names a calendar day selector within a month, a time of day, the
// daylight saving offset that applies once the rule has fired, and the
// reference frame (universal, standard or wall-clock time) its time of day
// is expressed in. Rules carry no year: they describe a pattern that
// repeats every year, such as "last Sunday of March at 01:00 UT, +1h".
package tzrule

import (
	"fmt"
	"sort"
	"time"

	"cloudeng.io/datetime"
)

// Basis represents the reference frame a rule's time of day is expressed in.
type Basis int

func (b Basis) String() string {
	switch b {
	case WallClock:
		return "WallClock"
	case StandardTime:
		return "StandardTime"
	case UniversalTime:
		return "UniversalTime"
	default:
		return fmt.Sprintf("<undefined basis (%d)>", b)
	}
}

const (
	// WallClock means the time of day reads off the local clock including
	// any daylight saving offset in effect just before the switch.
	WallClock Basis = iota
	// StandardTime means the time of day is local standard time,
	// ignoring daylight saving.
	StandardTime
	// UniversalTime means the time of day is a UT instant.
	UniversalTime
)

// Rule is one recurring annual daylight saving switch. The zero value is
// not a valid rule. Rules are plain values and safe to copy and compare.
type Rule struct {
	Month time.Month
	On    Day
	// At is the time of day in seconds since local midnight the rule fires
	// at, read in the frame selected by Basis. It may be 86400 or more,
	// meaning a time on the following civil day ("24:00" is midnight at
	// the end of the selected day).
	At int
	// Basis selects the reference frame of At.
	Basis Basis
	// Savings is the number of seconds added to the standard offset once
	// this rule has fired. Zero returns the zone to standard time.
	Savings int
}

// Date returns the day the rule fires on in the given Gregorian year.
// For on-or-after selectors near the end of a month the date may fall in
// the following month or year.
func (r Rule) Date(year int) datetime.CalendarDate {
	y, m, d := r.On.resolve(year, r.Month)
	return datetime.NewCalendarDate(y, datetime.Month(m), d)
}

func (r Rule) String() string {
	return fmt.Sprintf("%s %s at %02d:%02d:%02d %s save %ds",
		r.Month, r.On, r.At/3600, r.At/60%60, r.At%60, r.Basis, r.Savings)
}

// Order returns the rules sorted into their canonical annual cycle: the
// order a reader obtains by laying the rules onto a single calendar year
// from January to December. Rules are compared by month, then by the day
// they resolve to in a reference year, then by time of day reduced to
// universal time with stdOffset, the zone's standard offset, and no
// daylight saving in effect. Rules with equal keys keep their relative
// input order. The input is not modified.
func Order(stdOffset int, rules []Rule) []Rule {
	// 2000 is a leap year, so February 29 selectors resolve.
	const refYear = 2000
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		ad, bd := a.Date(refYear), b.Date(refYear)
		if ad.Year() != bd.Year() {
			return ad.Year() < bd.Year()
		}
		if ad.Month() != bd.Month() {
			return ad.Month() < bd.Month()
		}
		if ad.Day() != bd.Day() {
			return ad.Day() < bd.Day()
		}
		return a.universalAt(stdOffset) < b.universalAt(stdOffset)
	})
	return sorted
}

// universalAt reduces the rule's time of day to universal time, reading
// standard and wall clock rules with no daylight saving in effect.
func (r Rule) universalAt(stdOffset int) int {
	switch r.Basis {
	case UniversalTime:
		return r.At
	case StandardTime, WallClock:
		return r.At - stdOffset
	}
	panic(fmt.Errorf("unsupported basis: %v", r.Basis))
}

// Package unixtime converts between proleptic Gregorian civil dates and
// Unix timestamps, i.e. seconds since 1970-01-01 00:00:00 UTC. It ignores
// leap seconds but respects leap years. The conversions are based on the
// Go standard library's time package but do not depend on time.Location:
// this package exists to compute the transition data that time.Location
// is built from.
package unixtime

import "time"

// FromDate converts a date plus a second count within that date to a Unix
// timestamp. sec is the number of seconds since local midnight and may lie
// outside [0, 86400): values of 86400 and beyond denote the following civil
// day (a rule firing at "24:00"), negative values the preceding one.
func FromDate(year int, month time.Month, day int, sec int64) int64 {
	d := daysSinceEpoch(year) + uint64(daysSinceStartOfYear[month-1]) + (uint64(day) - 1)
	if month > 2 && isLeap(year) {
		d++ // +leap year
	}
	unix := int64(d*secondsPerDay) + (absoluteToInternal + internalToUnix)
	return unix + sec
}

// Year returns the Gregorian year containing the day floor(unix / 86400).
func Year(unix int64) int {
	y, _, _ := Date(unix)
	return y
}

// Date converts a Unix timestamp back to its civil date.
func Date(unix int64) (year int, month time.Month, day int) {
	abs := uint64(unix - (absoluteToInternal + internalToUnix))
	d := abs / secondsPerDay

	// Account for 400 year cycles.
	n := d / daysPer400Years
	y := 400 * n
	d -= daysPer400Years * n

	// Cut off 100-year cycles.
	// The last cycle has one extra leap year, so on the last day
	// of that year, day / daysPer100Years will be 4 instead of 3.
	// Cut it back down to 3 by subtracting n>>2.
	n = d / daysPer100Years
	n -= n >> 2
	y += 100 * n
	d -= daysPer100Years * n

	// Cut off 4-year cycles.
	n = d / daysPer4Years
	y += 4 * n
	d -= daysPer4Years * n

	// Cut off years within a 4-year cycle.
	// The last year is a leap year, so on the last day of that year,
	// day / 365 will be 4 instead of 3. Cut it back down to 3
	// by subtracting n>>2.
	n = d / 365
	n -= n >> 2
	y += n
	d -= 365 * n

	year = int(int64(y) + absoluteZeroYear)
	yday := int(d)

	if isLeap(year) {
		switch {
		case yday == 31+29-1:
			return year, time.February, 29
		case yday > 31+29-1:
			yday-- // pretend it's not a leap year
		}
	}

	month = time.Month(yday/31) + 1
	if month < time.December && int(daysSinceStartOfYear[month]) <= yday {
		month++
	}
	day = yday - int(daysSinceStartOfYear[month-1]) + 1
	return year, month, day
}

var daysSinceStartOfYear = [...]int32{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// The constants were copied from time.go in the Go standard library's time package.
const (
	secondsPerDay   = 24 * 60 * 60
	daysPer400Years = 365*400 + 97
	daysPer100Years = 365*100 + 24
	daysPer4Years   = 365*4 + 1

	absoluteZeroYear         = -292277022399
	internalYear             = 1
	absoluteToInternal int64 = (absoluteZeroYear - internalYear) * 365.2425 * secondsPerDay
	unixToInternal     int64 = (1969*365 + 1969/4 - 1969/100 + 1969/400) * secondsPerDay
	internalToUnix     int64 = -unixToInternal
)

// daysSinceEpoch takes a year and returns the number of days from
// the absolute epoch to the start of that year.
// This is basically (year - zeroYear) * 365, but accounting for leap days.
//
// This function was copied from time.go in the Go standard library time package.
func daysSinceEpoch(year int) uint64 {
	y := uint64(int64(year) - absoluteZeroYear)

	// Add in days from 400-year cycles.
	n := y / 400
	y -= 400 * n
	d := daysPer400Years * n

	// Add in 100-year cycles.
	n = y / 100
	y -= 100 * n
	d += daysPer100Years * n

	// Add in 4-year cycles.
	n = y / 4
	y -= 4 * n
	d += daysPer4Years * n

	// Add in non-leap years.
	n = y
	d += 365 * n

	return d
}

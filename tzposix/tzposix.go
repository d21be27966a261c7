// Package tzposix parses POSIX TZ strings such as
// "EST5EDT,M3.2.0,M11.1.0" or "CET-1CEST,M3.5.0,M10.5.0/3" into a standard
// offset and daylight saving rules. Strings of this shape appear in the TZ
// environment variable and in the footer of version 2+ TZif files, where
// they describe how local time continues past the last recorded
// transition.
package tzposix

import (
	"errors"
	"fmt"
	"time"

	"github.com/ngrash/go-tzmodel/tzmodel"
	"github.com/ngrash/go-tzmodel/tzrule"
)

// ErrInvalid reports a string that is not a valid POSIX TZ value.
var ErrInvalid = errors.New("invalid TZ string")

// Zone is the parsed form of a POSIX TZ string. Offsets are in seconds
// east of UT, i.e. with the sign convention of this module, not the
// inverted POSIX one.
type Zone struct {
	StdName   string
	StdOffset int
	DSTName   string
	DSTOffset int
	// Rules holds the switch into daylight saving time followed by the
	// switch back, both expressed against the wall clock. Empty when the
	// string defines no daylight saving time.
	Rules []tzrule.Rule
}

// HasDST reports whether the zone observes daylight saving time.
func (z Zone) HasDST() bool {
	return len(z.Rules) > 0
}

// Model builds a transition model whose rules apply for all time. It fails
// for zones without daylight saving time, which have no transitions to
// model.
func (z Zone) Model(opts ...tzmodel.Option) (*tzmodel.Model, error) {
	if !z.HasDST() {
		return nil, fmt.Errorf("zone %s has no daylight saving rules", z.StdName)
	}
	return tzmodel.New(z.StdOffset, z.Rules, opts...)
}

// Parse parses a POSIX TZ string, including the M, J and plain day-of-year
// date forms and the extended time-of-day range of TZif version 3 footers.
// When a daylight saving name is given without an offset, daylight saving
// time is one hour ahead of standard time; when it is given without rules,
// the current US rules apply, following tzset(3).
func Parse(s string) (Zone, error) {
	var z Zone
	p := parser{s: s}

	var err error
	if z.StdName, err = p.name(); err != nil {
		return Zone{}, fmt.Errorf("%w %q: standard name: %v", ErrInvalid, s, err)
	}
	west, err := p.offset(24)
	if err != nil {
		return Zone{}, fmt.Errorf("%w %q: standard offset: %v", ErrInvalid, s, err)
	}
	// POSIX offsets count seconds west of Greenwich.
	z.StdOffset = -west

	if p.eof() {
		return z, nil
	}

	if z.DSTName, err = p.name(); err != nil {
		return Zone{}, fmt.Errorf("%w %q: daylight name: %v", ErrInvalid, s, err)
	}
	z.DSTOffset = z.StdOffset + 3600
	if !p.eof() && p.peek() != ',' {
		west, err := p.offset(24)
		if err != nil {
			return Zone{}, fmt.Errorf("%w %q: daylight offset: %v", ErrInvalid, s, err)
		}
		z.DSTOffset = -west
	}

	start := tzrule.Rule{Month: time.March, On: tzrule.NewDayAfter(8, time.Sunday), At: 2 * 3600}
	end := tzrule.Rule{Month: time.November, On: tzrule.NewDayAfter(1, time.Sunday), At: 2 * 3600}
	if !p.eof() {
		if err := p.expect(','); err != nil {
			return Zone{}, fmt.Errorf("%w %q: %v", ErrInvalid, s, err)
		}
		if start, err = p.rule(); err != nil {
			return Zone{}, fmt.Errorf("%w %q: start rule: %v", ErrInvalid, s, err)
		}
		if err := p.expect(','); err != nil {
			return Zone{}, fmt.Errorf("%w %q: %v", ErrInvalid, s, err)
		}
		if end, err = p.rule(); err != nil {
			return Zone{}, fmt.Errorf("%w %q: end rule: %v", ErrInvalid, s, err)
		}
		if !p.eof() {
			return Zone{}, fmt.Errorf("%w %q: trailing input %q", ErrInvalid, s, p.rest())
		}
	}

	start.Basis = tzrule.WallClock
	start.Savings = z.DSTOffset - z.StdOffset
	end.Basis = tzrule.WallClock
	end.Savings = 0
	z.Rules = []tzrule.Rule{start, end}
	return z, nil
}

type parser struct {
	s string
	i int
}

func (p *parser) eof() bool {
	return p.i >= len(p.s)
}

func (p *parser) peek() byte {
	return p.s[p.i]
}

func (p *parser) rest() string {
	return p.s[p.i:]
}

func (p *parser) expect(c byte) error {
	if p.eof() || p.s[p.i] != c {
		return fmt.Errorf("expected %q at position %d", c, p.i)
	}
	p.i++
	return nil
}

func isAlpha(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// name scans a zone designation: three or more alphabetic characters, or
// a designation of letters, digits, '+' and '-' in angle brackets.
func (p *parser) name() (string, error) {
	if p.eof() {
		return "", errors.New("missing name")
	}
	if p.peek() == '<' {
		p.i++
		from := p.i
		for !p.eof() && p.peek() != '>' {
			c := p.peek()
			if !isAlpha(c) && !isDigit(c) && c != '+' && c != '-' {
				return "", fmt.Errorf("invalid character %q in quoted name", c)
			}
			p.i++
		}
		if err := p.expect('>'); err != nil {
			return "", errors.New("unterminated quoted name")
		}
		return p.s[from : p.i-1], nil
	}
	from := p.i
	for !p.eof() && isAlpha(p.peek()) {
		p.i++
	}
	if p.i-from < 3 {
		return "", fmt.Errorf("name %q shorter than three characters", p.s[from:p.i])
	}
	return p.s[from:p.i], nil
}

// number scans an unsigned decimal integer of at most three digits.
func (p *parser) number() (int, error) {
	from := p.i
	n := 0
	for !p.eof() && isDigit(p.peek()) {
		n = n*10 + int(p.peek()-'0')
		p.i++
		if p.i-from > 3 {
			return 0, errors.New("number too long")
		}
	}
	if p.i == from {
		return 0, errors.New("missing number")
	}
	return n, nil
}

// offset scans [+-]hh[:mm[:ss]] and returns seconds. maxHours bounds the
// hour field: 24 for zone offsets, 167 for the extended rule times allowed
// by TZif version 3 footers.
func (p *parser) offset(maxHours int) (int, error) {
	sign := 1
	if !p.eof() {
		switch p.peek() {
		case '-':
			sign = -1
			p.i++
		case '+':
			p.i++
		}
	}
	hours, err := p.number()
	if err != nil {
		return 0, err
	}
	if hours > maxHours {
		return 0, fmt.Errorf("hours out of range: %d", hours)
	}
	secs := hours * 3600
	if !p.eof() && p.peek() == ':' {
		p.i++
		minutes, err := p.number()
		if err != nil {
			return 0, err
		}
		if minutes > 59 {
			return 0, fmt.Errorf("minutes out of range: %d", minutes)
		}
		secs += minutes * 60
		if !p.eof() && p.peek() == ':' {
			p.i++
			seconds, err := p.number()
			if err != nil {
				return 0, err
			}
			if seconds > 59 {
				return 0, fmt.Errorf("seconds out of range: %d", seconds)
			}
			secs += seconds
		}
	}
	return sign * secs, nil
}

// rule scans one transition date of the form Mm.w.d, Jn or n, plus an
// optional /time suffix defaulting to 02:00 local.
func (p *parser) rule() (tzrule.Rule, error) {
	var r tzrule.Rule
	if p.eof() {
		return r, errors.New("missing rule")
	}
	var err error
	switch {
	case p.peek() == 'M':
		p.i++
		if r.Month, r.On, err = p.monthWeekDay(); err != nil {
			return r, err
		}
	case p.peek() == 'J':
		p.i++
		n, err := p.number()
		if err != nil {
			return r, err
		}
		if n < 1 || n > 365 {
			return r, fmt.Errorf("julian day out of range: %d", n)
		}
		r.Month, r.On = dayOfYear(n)
	default:
		n, err := p.number()
		if err != nil {
			return r, err
		}
		if n > 365 {
			return r, fmt.Errorf("day of year out of range: %d", n)
		}
		// The zero-based form counts February 29, which no fixed calendar
		// date can express for every year; days from March onwards land
		// one day late in leap years.
		r.Month, r.On = dayOfYear(n + 1)
	}

	r.At = 2 * 3600
	if !p.eof() && p.peek() == '/' {
		p.i++
		secs, err := p.offset(167)
		if err != nil {
			return r, err
		}
		r.At = secs
	}
	return r, nil
}

// monthWeekDay scans the m.w.d of an M-form rule: month 1-12, week 1-5
// where 5 means the last such weekday of the month, weekday 0=Sunday.
func (p *parser) monthWeekDay() (time.Month, tzrule.Day, error) {
	m, err := p.number()
	if err != nil {
		return 0, tzrule.Day{}, err
	}
	if m < 1 || m > 12 {
		return 0, tzrule.Day{}, fmt.Errorf("month out of range: %d", m)
	}
	if err := p.expect('.'); err != nil {
		return 0, tzrule.Day{}, err
	}
	w, err := p.number()
	if err != nil {
		return 0, tzrule.Day{}, err
	}
	if w < 1 || w > 5 {
		return 0, tzrule.Day{}, fmt.Errorf("week out of range: %d", w)
	}
	if err := p.expect('.'); err != nil {
		return 0, tzrule.Day{}, err
	}
	d, err := p.number()
	if err != nil {
		return 0, tzrule.Day{}, err
	}
	if d > 6 {
		return 0, tzrule.Day{}, fmt.Errorf("weekday out of range: %d", d)
	}
	if w == 5 {
		return time.Month(m), tzrule.NewDayLast(time.Weekday(d)), nil
	}
	return time.Month(m), tzrule.NewDayAfter(1+(w-1)*7, time.Weekday(d)), nil
}

var daysBeforeMonth = [...]int{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}

// dayOfYear converts a one-based day of a non-leap year to a fixed month
// and day selector, the way the J form of POSIX rules counts days.
func dayOfYear(n int) (time.Month, tzrule.Day) {
	month := time.December
	for m := 1; m < 12; m++ {
		if n <= daysBeforeMonth[m] {
			month = time.Month(m)
			break
		}
	}
	return month, tzrule.NewDayNum(n - daysBeforeMonth[month-1])
}

package tzrule

import (
	"fmt"
	"time"

	"github.com/ngrash/go-tzmodel/internal/datemath"
)

// DayForm represents the form of a rule's day selector.
type DayForm int

func (f DayForm) String() string {
	switch f {
	case DayFormNum:
		return "DayFormNum"
	case DayFormLast:
		return "DayFormLast"
	case DayFormAfter:
		return "DayFormAfter"
	case DayFormBefore:
		return "DayFormBefore"
	default:
		return fmt.Sprintf("<undefined day form (%d)>", f)
	}
}

const (
	// DayFormNum selects a fixed day of the month, e.g. "March 30".
	DayFormNum DayForm = iota
	// DayFormLast selects the last instance of a weekday in the month,
	// e.g. "last Sunday of March".
	DayFormLast
	// DayFormAfter selects the first instance of a weekday on or after a
	// day of the month, e.g. "Sunday on or after April 1". Selection may
	// roll into the next month or year.
	DayFormAfter
	// DayFormBefore selects the last instance of a weekday on or before a
	// day of the month. Selection may roll into the previous month or year.
	DayFormBefore
)

// Day selects the calendar day a rule fires on within its month.
// The closed set of forms mirrors the ON field of Olson rule lines.
type Day struct {
	Form    DayForm
	Num     int
	Weekday time.Weekday
}

// NewDayNum returns a Day selecting the fixed day n of the month.
func NewDayNum(n int) Day {
	return Day{Form: DayFormNum, Num: n}
}

// NewDayLast returns a Day selecting the last w of the month.
func NewDayLast(w time.Weekday) Day {
	return Day{Form: DayFormLast, Weekday: w}
}

// NewDayAfter returns a Day selecting the first w on or after day n.
func NewDayAfter(n int, w time.Weekday) Day {
	return Day{Form: DayFormAfter, Num: n, Weekday: w}
}

// NewDayBefore returns a Day selecting the last w on or before day n.
func NewDayBefore(n int, w time.Weekday) Day {
	return Day{Form: DayFormBefore, Num: n, Weekday: w}
}

func (d Day) String() string {
	switch d.Form {
	case DayFormNum:
		return fmt.Sprintf("%d", d.Num)
	case DayFormLast:
		return fmt.Sprintf("last%s", d.Weekday)
	case DayFormAfter:
		return fmt.Sprintf("%s>=%d", d.Weekday, d.Num)
	case DayFormBefore:
		return fmt.Sprintf("%s<=%d", d.Weekday, d.Num)
	default:
		return fmt.Sprintf("<undefined day form (%d)>", d.Form)
	}
}

// resolve materialises the selector for a given year and month.
func (d Day) resolve(year int, month time.Month) (int, time.Month, int) {
	switch d.Form {
	case DayFormNum:
		return year, month, d.Num
	case DayFormLast:
		return year, month, datemath.LastWeekdayOfMonth(year, month, d.Weekday)
	case DayFormAfter:
		return datemath.WeekdayOnOrAfter(year, month, d.Num, d.Weekday)
	case DayFormBefore:
		return datemath.WeekdayOnOrBefore(year, month, d.Num, d.Weekday)
	}
	panic(fmt.Errorf("invalid DayForm: %q", d.Form))
}

package tzrule

import (
	"testing"
	"time"

	"cloudeng.io/datetime"
	"github.com/google/go-cmp/cmp"
)

func TestRuleDate(t *testing.T) {
	cases := []struct {
		name string
		rule Rule
		year int
		want datetime.CalendarDate
	}{
		{
			name: "fixed day",
			rule: Rule{Month: time.March, On: NewDayNum(30)},
			year: 2020,
			want: datetime.NewCalendarDate(2020, 3, 30),
		},
		{
			name: "last Sunday of March",
			rule: Rule{Month: time.March, On: NewDayLast(time.Sunday)},
			year: 2020,
			want: datetime.NewCalendarDate(2020, 3, 29),
		},
		{
			name: "last Sunday of October",
			rule: Rule{Month: time.October, On: NewDayLast(time.Sunday)},
			year: 2020,
			want: datetime.NewCalendarDate(2020, 10, 25),
		},
		{
			name: "second Sunday of March",
			rule: Rule{Month: time.March, On: NewDayAfter(8, time.Sunday)},
			year: 2021,
			want: datetime.NewCalendarDate(2021, 3, 14),
		},
		{
			name: "Sunday on or after rolls into next year",
			rule: Rule{Month: time.December, On: NewDayAfter(30, time.Sunday)},
			year: 2021,
			want: datetime.NewCalendarDate(2022, 1, 2),
		},
		{
			name: "Sunday on or before rolls into previous month",
			rule: Rule{Month: time.March, On: NewDayBefore(5, time.Sunday)},
			year: 2021,
			want: datetime.NewCalendarDate(2021, 2, 28),
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := c.rule.Date(c.year)
			if got.Year() != c.want.Year() || got.Month() != c.want.Month() || got.Day() != c.want.Day() {
				t.Errorf("Date(%d) = %v, want %v", c.year, got, c.want)
			}
		})
	}
}

func TestOrder(t *testing.T) {
	march := Rule{Month: time.March, On: NewDayLast(time.Sunday), At: 3600, Basis: UniversalTime, Savings: 3600}
	october := Rule{Month: time.October, On: NewDayLast(time.Sunday), At: 3600, Basis: UniversalTime}
	april := Rule{Month: time.April, On: NewDayAfter(1, time.Sunday), At: 3 * 3600, Basis: WallClock}
	midnightMarch := Rule{Month: time.March, On: NewDayLast(time.Sunday), Basis: UniversalTime, Savings: 1800}

	// At a standard offset of +1h, 01:30 on the standard clock is 00:30
	// universal and precedes a 01:00 universal rule on the same day even
	// though its raw second count is larger.
	standardMarch := Rule{Month: time.March, On: NewDayLast(time.Sunday), At: 3600 + 1800, Basis: StandardTime, Savings: 1800}

	cases := []struct {
		name string
		in   []Rule
		want []Rule
	}{
		{
			name: "two rules laid onto the calendar year",
			in:   []Rule{october, march},
			want: []Rule{march, october},
		},
		{
			name: "southern hemisphere pattern",
			in:   []Rule{october, april},
			want: []Rule{april, october},
		},
		{
			name: "same day ordered by time of day",
			in:   []Rule{march, midnightMarch},
			want: []Rule{midnightMarch, march},
		},
		{
			name: "same day times compared in a common basis",
			in:   []Rule{march, standardMarch},
			want: []Rule{standardMarch, march},
		},
		{
			name: "already sorted input unchanged",
			in:   []Rule{march, april, october},
			want: []Rule{march, april, october},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			in := make([]Rule, len(c.in))
			copy(in, c.in)
			got := Order(3600, c.in)
			if diff := cmp.Diff(c.want, got); diff != "" {
				t.Errorf("Order mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(in, c.in); diff != "" {
				t.Errorf("Order modified its input (-want +got):\n%s", diff)
			}
		})
	}
}

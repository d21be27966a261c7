package tzconf

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ngrash/go-tzmodel/tzmodel"
	"github.com/ngrash/go-tzmodel/tzrule"
)

type clockAt int64

func (c clockAt) Now() time.Time { return time.Unix(int64(c), 0) }

// 2021-06-01T00:00:00Z
const testNow = clockAt(1622505600)

const doc = `
zones:
  - name: Central Europe
    standard: "+01:00"
    rules:
      - {month: mar, day: lastSun, at: "01:00", basis: utc, save: "1:00"}
      - {month: oct, day: lastSun, at: "01:00", basis: utc, save: "0"}
  - name: US Eastern
    standard: "-05:00"
    rules:
      - month: march
        day: Sun>=8
        at: "02:00"
        save: "1:00"
      - month: 11
        day: Sun>=1
        save: "0"
  - name: Lord Howe
    standard: "+10:30"
    rules:
      - {month: oct, day: Sun>=1, at: "02:00", basis: std, save: "0:30"}
      - {month: apr, day: Sun>=1, at: "02:00", basis: std, save: "0"}
`

func TestParse(t *testing.T) {
	zones, err := Parse([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}

	want := []Zone{
		{
			Name:      "Central Europe",
			StdOffset: 3600,
			Rules: []tzrule.Rule{
				{Month: time.March, On: tzrule.NewDayLast(time.Sunday), At: 3600, Basis: tzrule.UniversalTime, Savings: 3600},
				{Month: time.October, On: tzrule.NewDayLast(time.Sunday), At: 3600, Basis: tzrule.UniversalTime, Savings: 0},
			},
		},
		{
			Name:      "US Eastern",
			StdOffset: -18000,
			Rules: []tzrule.Rule{
				{Month: time.March, On: tzrule.NewDayAfter(8, time.Sunday), At: 2 * 3600, Basis: tzrule.WallClock, Savings: 3600},
				// The time of day defaults to 02:00 wall clock.
				{Month: time.November, On: tzrule.NewDayAfter(1, time.Sunday), At: 2 * 3600, Basis: tzrule.WallClock, Savings: 0},
			},
		},
		{
			Name:      "Lord Howe",
			StdOffset: 10*3600 + 1800,
			Rules: []tzrule.Rule{
				{Month: time.October, On: tzrule.NewDayAfter(1, time.Sunday), At: 2 * 3600, Basis: tzrule.StandardTime, Savings: 1800},
				{Month: time.April, On: tzrule.NewDayAfter(1, time.Sunday), At: 2 * 3600, Basis: tzrule.StandardTime, Savings: 0},
			},
		},
	}
	if diff := cmp.Diff(want, zones); diff != "" {
		t.Errorf("Parse mismatch (-want +got):\n%s", diff)
	}
}

func TestParseReportsAllErrors(t *testing.T) {
	const bad = `
zones:
  - name: Broken
    standard: "+01:00"
    rules:
      - {month: mar, at: "01:00", save: "1:00"}
      - {day: lastSun, at: "01:00", save: "0"}
  - name: Broken
    standard: "+01:00"
`
	_, err := Parse([]byte(bad))
	if err == nil {
		t.Fatal("Parse succeeded on malformed document")
	}
	for _, want := range []string{"missing day", "missing month", "duplicate zone name"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestParseInvalidScalars(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"bad month", "zones:\n  - name: X\n    standard: \"0\"\n    rules:\n      - {month: notamonth, day: 1, save: \"0\"}\n"},
		{"month out of range", "zones:\n  - name: X\n    standard: \"0\"\n    rules:\n      - {month: 13, day: 1, save: \"0\"}\n"},
		{"bad day", "zones:\n  - name: X\n    standard: \"0\"\n    rules:\n      - {month: 1, day: Sun>=40, save: \"0\"}\n"},
		{"bad weekday", "zones:\n  - name: X\n    standard: \"0\"\n    rules:\n      - {month: 1, day: lastFoo, save: \"0\"}\n"},
		{"bad basis", "zones:\n  - name: X\n    standard: \"0\"\n    rules:\n      - {month: 1, day: 1, basis: sidereal, save: \"0\"}\n"},
		{"bad time", "zones:\n  - name: X\n    standard: \"0\"\n    rules:\n      - {month: 1, day: 1, at: \"2:xx\", save: \"0\"}\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := Parse([]byte(c.doc)); err == nil {
				t.Error("Parse succeeded on malformed scalar")
			}
		})
	}
}

func TestZoneModel(t *testing.T) {
	zones, err := Parse([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	m, err := zones[0].Model(tzmodel.WithClock(testNow))
	if err != nil {
		t.Fatal(err)
	}

	// 2020-03-29T01:00:00Z, the European spring switch.
	next := m.NextTransition(1585443600 - 1)
	want := tzmodel.ZonalTransition{PosixTime: 1585443600, PreviousOffset: 3600, TotalOffset: 7200, Savings: 3600}
	if diff := cmp.Diff(want, *next); diff != "" {
		t.Errorf("NextTransition mismatch (-want +got):\n%s", diff)
	}
}

// Package tzconf loads zone definitions from YAML. A definition names the
// standard offset and the recurring daylight saving rules of a zone, using
// the day and time spellings of Olson rule lines:
//
//	zones:
//	  - name: Central Europe
//	    standard: "+01:00"
//	    rules:
//	      - {month: mar, day: lastSun, at: "01:00", basis: utc, save: "1:00"}
//	      - {month: oct, day: lastSun, at: "01:00", basis: utc, save: "0"}
package tzconf

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"cloudeng.io/errors"
	"gopkg.in/yaml.v3"

	"github.com/ngrash/go-tzmodel/tzmodel"
	"github.com/ngrash/go-tzmodel/tzrule"
)

// Zone is one parsed zone definition.
type Zone struct {
	Name      string
	StdOffset int
	Rules     []tzrule.Rule
}

// Model builds a transition model from the definition, applying its rules
// for all time.
func (z Zone) Model(opts ...tzmodel.Option) (*tzmodel.Model, error) {
	return tzmodel.New(z.StdOffset, z.Rules, opts...)
}

type config struct {
	Zones []zoneConfig `yaml:"zones"`
}

type zoneConfig struct {
	Name     string       `yaml:"name"`
	Standard offsetSpec   `yaml:"standard"`
	Rules    []ruleConfig `yaml:"rules"`
}

type ruleConfig struct {
	Month monthSpec  `yaml:"month"`
	Day   daySpec    `yaml:"day"`
	At    timeSpec   `yaml:"at"`
	Basis basisSpec  `yaml:"basis"`
	Save  offsetSpec `yaml:"save"`
}

// ParseFile reads zone definitions from a YAML file.
func ParseFile(path string) ([]Zone, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	zones, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return zones, nil
}

// Parse reads zone definitions from YAML data. All malformed zones are
// reported, not just the first.
func Parse(data []byte) ([]Zone, error) {
	var cfg config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	var errs errors.M
	zones := make([]Zone, 0, len(cfg.Zones))
	names := map[string]struct{}{}
	for _, zc := range cfg.Zones {
		if zc.Name == "" {
			errs.Append(fmt.Errorf("zone without a name"))
			continue
		}
		if _, ok := names[zc.Name]; ok {
			errs.Append(fmt.Errorf("duplicate zone name: %v", zc.Name))
			continue
		}
		names[zc.Name] = struct{}{}

		z := Zone{Name: zc.Name, StdOffset: zc.Standard.seconds}
		for i, rc := range zc.Rules {
			rule, err := rc.rule()
			if err != nil {
				errs.Append(fmt.Errorf("zone %v: rule %d: %w", zc.Name, i, err))
				continue
			}
			z.Rules = append(z.Rules, rule)
		}
		zones = append(zones, z)
	}
	return zones, errs.Err()
}

func (rc ruleConfig) rule() (tzrule.Rule, error) {
	if rc.Month.month == 0 {
		return tzrule.Rule{}, fmt.Errorf("missing month")
	}
	if !rc.Day.set {
		return tzrule.Rule{}, fmt.Errorf("missing day")
	}
	r := tzrule.Rule{
		Month:   rc.Month.month,
		On:      rc.Day.day,
		At:      2 * 3600,
		Basis:   rc.Basis.basis,
		Savings: rc.Save.seconds,
	}
	if rc.At.set {
		r.At = rc.At.seconds
	}
	return r, nil
}

type monthSpec struct {
	month time.Month
}

var monthNames = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

func (m *monthSpec) UnmarshalYAML(node *yaml.Node) error {
	v := strings.ToLower(node.Value)
	if n, err := strconv.Atoi(v); err == nil {
		if n < 1 || n > 12 {
			return fmt.Errorf("month out of range: %d", n)
		}
		m.month = time.Month(n)
		return nil
	}
	if len(v) >= 3 {
		if month, ok := monthNames[v[:3]]; ok && strings.HasPrefix(strings.ToLower(month.String()), v) {
			m.month = month
			return nil
		}
	}
	return fmt.Errorf("invalid month: %q", node.Value)
}

type daySpec struct {
	day tzrule.Day
	set bool
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday,
	"wed": time.Wednesday, "thu": time.Thursday, "fri": time.Friday,
	"sat": time.Saturday,
}

func parseWeekday(s string) (time.Weekday, error) {
	v := strings.ToLower(s)
	if len(v) >= 3 {
		if w, ok := weekdayNames[v[:3]]; ok && strings.HasPrefix(strings.ToLower(w.String()), v) {
			return w, nil
		}
	}
	return 0, fmt.Errorf("invalid weekday: %q", s)
}

// UnmarshalYAML accepts the ON field spellings of Olson rule lines: a
// plain day of the month, lastSun, Sun>=8 or Sun<=25.
func (d *daySpec) UnmarshalYAML(node *yaml.Node) error {
	v := node.Value
	switch {
	case v == "":
		return fmt.Errorf("empty day")
	case strings.HasPrefix(strings.ToLower(v), "last"):
		w, err := parseWeekday(v[len("last"):])
		if err != nil {
			return err
		}
		d.day = tzrule.NewDayLast(w)
	case strings.Contains(v, ">="):
		parts := strings.SplitN(v, ">=", 2)
		w, err := parseWeekday(parts[0])
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(parts[1])
		if err != nil || n < 1 || n > 31 {
			return fmt.Errorf("invalid day of month: %q", parts[1])
		}
		d.day = tzrule.NewDayAfter(n, w)
	case strings.Contains(v, "<="):
		parts := strings.SplitN(v, "<=", 2)
		w, err := parseWeekday(parts[0])
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(parts[1])
		if err != nil || n < 1 || n > 31 {
			return fmt.Errorf("invalid day of month: %q", parts[1])
		}
		d.day = tzrule.NewDayBefore(n, w)
	default:
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 31 {
			return fmt.Errorf("invalid day: %q", v)
		}
		d.day = tzrule.NewDayNum(n)
	}
	d.set = true
	return nil
}

type offsetSpec struct {
	seconds int
}

func (o *offsetSpec) UnmarshalYAML(node *yaml.Node) error {
	secs, err := parseHMS(node.Value)
	if err != nil {
		return err
	}
	o.seconds = secs
	return nil
}

type timeSpec struct {
	seconds int
	set     bool
}

func (t *timeSpec) UnmarshalYAML(node *yaml.Node) error {
	secs, err := parseHMS(node.Value)
	if err != nil {
		return err
	}
	t.seconds = secs
	t.set = true
	return nil
}

// parseHMS parses [+-]h[:mm[:ss]] into seconds. Hours beyond 24 are
// allowed: "25:00" is one o'clock on the following day.
func parseHMS(s string) (int, error) {
	v := s
	sign := 1
	if strings.HasPrefix(v, "-") {
		sign = -1
		v = v[1:]
	} else if strings.HasPrefix(v, "+") {
		v = v[1:]
	}
	parts := strings.Split(v, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid time value: %q", s)
	}
	secs := 0
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid time value: %q", s)
		}
		if i > 0 && n > 59 {
			return 0, fmt.Errorf("invalid time value: %q", s)
		}
		switch i {
		case 0:
			secs += n * 3600
		case 1:
			secs += n * 60
		case 2:
			secs += n
		}
	}
	return sign * secs, nil
}

type basisSpec struct {
	basis tzrule.Basis
}

// UnmarshalYAML accepts the AT suffix letters of Olson rule lines (w, s,
// u, g, z) as well as spelled-out names. The zero value is wall clock,
// matching the Olson default.
func (b *basisSpec) UnmarshalYAML(node *yaml.Node) error {
	switch strings.ToLower(node.Value) {
	case "w", "wall":
		b.basis = tzrule.WallClock
	case "s", "std", "standard":
		b.basis = tzrule.StandardTime
	case "u", "g", "z", "ut", "utc", "universal":
		b.basis = tzrule.UniversalTime
	default:
		return fmt.Errorf("invalid basis: %q", node.Value)
	}
	return nil
}

// Package tzmodel computes timezone offset transitions from a set of
// recurring daylight saving rules.
//
// A Model combines a standard offset with an ordered annual cycle of
// tzrule.Rule values and answers, for any instant or local timestamp, which
// total offset applies, where the surrounding transitions lie, and how
// wall-clock values behave across gaps and overlaps. It serves as the
// extrapolation tail beyond the last transition of a historical table, and
// as a standalone description of zones governed by a pure annual pattern.
//
// A Model is immutable after construction and safe for concurrent use.
package tzmodel

import (
	"errors"
	"fmt"
	"math"
	"time"

	"cloudeng.io/datetime"

	"github.com/ngrash/go-tzmodel/internal/unixtime"
	"github.com/ngrash/go-tzmodel/tzrule"
)

var (
	// ErrInvalidRules reports a rule set that cannot form an annual cycle:
	// fewer than two rules, 128 or more, or none returning to standard time.
	ErrInvalidRules = errors.New("invalid rule set")
	// ErrInconsistentInitial reports an initial transition that contradicts
	// the first rule-generated transition after it.
	ErrInconsistentInitial = errors.New("inconsistent initial transition")
	// ErrInvalidInterval reports an enumeration interval whose start lies
	// after its end.
	ErrInvalidInterval = errors.New("interval start after end")
)

// unbounded marks an initial transition that predates all representable
// instants: the rules apply for all time.
const unbounded = math.MinInt64

// Clock supplies the construction-time instant used to precompute the
// default transition preview and the cache horizon. It has no other role.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Option configures model construction.
type Option func(*options)

type options struct {
	clock Clock
}

// WithClock sets the clock consulted during construction and is primarily
// intended for testing purposes.
func WithClock(c Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// Model is a rule-based timezone transition model.
type Model struct {
	initial ZonalTransition
	bounded bool
	rules   []tzrule.Rule

	std []ZonalTransition

	cache          yearCache
	lastCachedYear int
}

// New creates a model whose rules apply for all time, with the given
// standard offset in seconds east of UT.
func New(stdOffset int, rules []tzrule.Rule, opts ...Option) (*Model, error) {
	initial := ZonalTransition{
		PosixTime:      unbounded,
		PreviousOffset: stdOffset,
		TotalOffset:    stdOffset,
		Savings:        0,
	}
	return newModel(initial, false, rules, opts)
}

// NewAt creates a model whose rule-based era begins at the given initial
// transition; instants at or before it belong to the pre-model history.
// The first rule-generated transition after the initial one must start
// from the initial total offset, otherwise construction fails with
// ErrInconsistentInitial.
func NewAt(initial ZonalTransition, rules []tzrule.Rule, opts ...Option) (*Model, error) {
	if initial.PosixTime == unbounded {
		if initial.Savings != 0 {
			return nil, fmt.Errorf("%w: daylight saving at the dawn of time: %v", ErrInconsistentInitial, initial)
		}
		return New(initial.StandardOffset(), rules, opts...)
	}
	return newModel(initial, true, rules, opts)
}

func newModel(initial ZonalTransition, bounded bool, rules []tzrule.Rule, opts []Option) (*Model, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.clock == nil {
		o.clock = systemClock{}
	}

	if len(rules) < 2 {
		return nil, fmt.Errorf("%w: at least two rules required, got %d", ErrInvalidRules, len(rules))
	}
	if len(rules) >= 128 {
		return nil, fmt.Errorf("%w: too many rules: %d", ErrInvalidRules, len(rules))
	}
	sorted := tzrule.Order(initial.StandardOffset(), rules)
	withoutDST := false
	for _, r := range sorted {
		if r.Savings == 0 {
			withoutDST = true
			break
		}
	}
	if !withoutDST {
		return nil, fmt.Errorf("%w: no rule with zero savings", ErrInvalidRules)
	}

	if bounded {
		first := nextTransition(initial.PosixTime, initial, sorted)
		if initial.TotalOffset != first.PreviousOffset {
			return nil, fmt.Errorf("%w: %v, first rule transition %v", ErrInconsistentInitial, initial, first)
		}
	}

	m := &Model{
		initial:        initial,
		bounded:        bounded,
		rules:          sorted,
		lastCachedYear: o.clock.Now().UTC().Year() + 100,
	}

	// Precompute the default preview covering the epoch up to a year from now.
	end := o.clock.Now().UTC().AddDate(1, 0, 0).Unix()
	if end < 0 {
		end = 0
	}
	std, err := m.Transitions(0, end)
	if err != nil {
		return nil, err
	}
	m.std = std

	return m, nil
}

// InitialOffset returns the total offset in effect before any
// rule-generated transition.
func (m *Model) InitialOffset() int {
	return m.initial.TotalOffset
}

// Start returns the instant the rule-based era begins at. ok is false when
// the rules apply for all time.
func (m *Model) Start() (posix int64, ok bool) {
	return m.initial.PosixTime, m.bounded
}

// Rules returns the rules in their canonical annual order.
func (m *Model) Rules() []tzrule.Rule {
	rules := make([]tzrule.Rule, len(m.rules))
	copy(rules, m.rules)
	return rules
}

// Equal reports whether both models describe the same zone: equal initial
// transitions and equal rule cycles. Derived state does not participate.
func (m *Model) Equal(other *Model) bool {
	if m == other {
		return true
	}
	if other == nil || m.bounded != other.bounded || m.initial != other.initial || len(m.rules) != len(other.rules) {
		return false
	}
	for i, r := range m.rules {
		if r != other.rules[i] {
			return false
		}
	}
	return true
}

// StartTransition returns the latest transition at or before ut, or nil if
// ut predates the first rule-generated transition or the rule-based era.
func (m *Model) StartTransition(ut int64) *ZonalTransition {
	preModel := m.initial.PosixTime
	if ut <= preModel {
		return nil
	}

	var current *ZonalTransition
	stdOffset := m.initial.StandardOffset()
	n := len(m.rules)
	shift := shiftFor(m.rules[0], stdOffset, m.rules[n-1].Savings)
	year := unixtime.Year(ut + int64(shift))
	transitions := m.transitionsForYear(year)

	for i := 0; i < n; i++ {
		zt := transitions[i]
		tt := zt.PosixTime

		if ut < tt {
			if current == nil {
				if i == 0 {
					zt = m.transitionsForYear(year - 1)[n-1]
				} else {
					zt = transitions[i-1]
				}
				if zt.PosixTime > preModel {
					current = &zt
				}
			}
			break
		} else if tt > preModel {
			current = &zt
		}
	}

	return current
}

// NextTransition returns the first transition strictly after ut, never nil:
// the annual cycle extends indefinitely into the future.
func (m *Model) NextTransition(ut int64) *ZonalTransition {
	next := nextTransition(ut, m.initial, m.rules)
	return &next
}

// Transitions returns the transitions in [start, end) that fall after the
// start of the rule-based era, in strictly ascending order.
func (m *Model) Transitions(start, end int64) ([]ZonalTransition, error) {
	preModel := m.initial.PosixTime

	if start > end {
		return nil, fmt.Errorf("%w: [%d, %d)", ErrInvalidInterval, start, end)
	}
	if end <= preModel || start == end {
		return nil, nil
	}

	var transitions []ZonalTransition

	var year int
	n := len(m.rules)
	stdOffset := m.initial.StandardOffset()

	for i := 0; ; i++ {
		rule := m.rules[i%n]
		previous := m.rules[(i-1+n)%n]
		shift := shiftFor(rule, stdOffset, previous.Savings)

		if i == 0 {
			// The shift biases the seed year so that rules read in wall or
			// standard time near a January boundary resolve to the right
			// civil year.
			year = unixtime.Year(max(start, preModel) + int64(shift))
		} else if i%n == 0 {
			year++
		}

		tt := transitionTime(rule, year, shift)

		if tt >= end {
			break
		}
		if tt >= start && tt > preModel {
			transitions = append(transitions, ZonalTransition{
				PosixTime:      tt,
				PreviousOffset: stdOffset + previous.Savings,
				TotalOffset:    stdOffset + rule.Savings,
				Savings:        rule.Savings,
			})
		}
	}

	return transitions, nil
}

// StdTransitions returns the transitions precomputed at construction time,
// covering the Unix epoch up to one year past the construction instant.
func (m *Model) StdTransitions() []ZonalTransition {
	std := make([]ZonalTransition, len(m.std))
	copy(std, m.std)
	return std
}

// ConflictTransition returns the transition whose gap or overlap window
// contains the local timestamp formed by date and timeOfDay (seconds since
// local midnight), or nil if that timestamp denotes exactly one instant.
func (m *Model) ConflictTransition(date datetime.CalendarDate, timeOfDay int) *ZonalTransition {
	localSecs := toLocalSecs(date, timeOfDay)

	// Local timestamps at or before the era boundary belong to the
	// pre-model history; the boundary itself reads in the larger of the
	// two offsets it joins.
	if m.bounded && localSecs <= m.initial.PosixTime+int64(max(m.initial.PreviousOffset, m.initial.TotalOffset)) {
		return nil
	}

	for _, t := range m.transitionsForYear(date.Year()) {
		tt := t.PosixTime

		if t.IsGap() {
			if localSecs < tt+int64(t.PreviousOffset) {
				return nil
			}
			if localSecs < tt+int64(t.TotalOffset) {
				return &t
			}
		} else if t.IsOverlap() {
			if localSecs < tt+int64(t.TotalOffset) {
				return nil
			}
			if localSecs < tt+int64(t.PreviousOffset) {
				return &t
			}
		}
	}

	return nil
}

// ValidOffsets returns the total offsets the local timestamp formed by date
// and timeOfDay may denote: none inside a gap, two inside an overlap
// (current first, then previous), one everywhere else.
func (m *Model) ValidOffsets(date datetime.CalendarDate, timeOfDay int) []int {
	localSecs := toLocalSecs(date, timeOfDay)
	last := m.initial.TotalOffset

	if m.bounded && localSecs <= m.initial.PosixTime+int64(max(m.initial.PreviousOffset, last)) {
		return []int{last}
	}

	for _, t := range m.transitionsForYear(date.Year()) {
		tt := t.PosixTime
		last = t.TotalOffset

		if t.IsGap() {
			if localSecs < tt+int64(t.PreviousOffset) {
				return []int{t.PreviousOffset}
			}
			if localSecs < tt+int64(last) {
				return nil
			}
		} else if t.IsOverlap() {
			if localSecs < tt+int64(last) {
				return []int{t.PreviousOffset}
			}
			if localSecs < tt+int64(t.PreviousOffset) {
				return []int{last, t.PreviousOffset}
			}
		}
	}

	return []int{last}
}

func nextTransition(ut int64, initial ZonalTransition, rules []tzrule.Rule) ZonalTransition {
	start := max(ut, initial.PosixTime)
	stdOffset := initial.StandardOffset()
	n := len(rules)
	var year int

	for i := 0; ; i++ {
		rule := rules[i%n]
		previous := rules[(i-1+n)%n]
		shift := shiftFor(rule, stdOffset, previous.Savings)

		if i == 0 {
			year = unixtime.Year(start + int64(shift))
		} else if i%n == 0 {
			year++
		}

		tt := transitionTime(rule, year, shift)
		if tt > start {
			return ZonalTransition{
				PosixTime:      tt,
				PreviousOffset: stdOffset + previous.Savings,
				TotalOffset:    stdOffset + rule.Savings,
				Savings:        rule.Savings,
			}
		}
	}
}

// shiftFor converts a rule's locally expressed firing time into the number
// of seconds to subtract when reducing it to Unix seconds. previousSavings
// is the daylight saving offset in effect just before the rule fires.
func shiftFor(r tzrule.Rule, stdOffset, previousSavings int) int {
	switch r.Basis {
	case tzrule.UniversalTime:
		return 0
	case tzrule.StandardTime:
		return stdOffset
	case tzrule.WallClock:
		return stdOffset + previousSavings
	}
	panic(fmt.Errorf("unsupported basis: %v", r.Basis))
}

func transitionTime(r tzrule.Rule, year, shift int) int64 {
	d := r.Date(year)
	return unixtime.FromDate(d.Year(), time.Month(d.Month()), d.Day(), int64(r.At)) - int64(shift)
}

func toLocalSecs(date datetime.CalendarDate, timeOfDay int) int64 {
	return unixtime.FromDate(date.Year(), time.Month(date.Month()), date.Day(), int64(timeOfDay))
}

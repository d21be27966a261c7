package tzmodel

import "sync"

// yearCache memoises the per-year transition lists. Entries are immutable
// slices published with insert-if-absent semantics: racing writers compute
// equal lists and the loser adopts the published one, so readers never
// observe a partially built entry.
type yearCache struct {
	m sync.Map // int -> []ZonalTransition
}

func (c *yearCache) load(year int) ([]ZonalTransition, bool) {
	v, ok := c.m.Load(year)
	if !ok {
		return nil, false
	}
	return v.([]ZonalTransition), true
}

func (c *yearCache) publish(year int, transitions []ZonalTransition) []ZonalTransition {
	v, _ := c.m.LoadOrStore(year, transitions)
	return v.([]ZonalTransition)
}

// transitionsForYear returns the transitions of one civil year, one per
// rule in firing order. Years up to the cache horizon are memoised; later
// years are recomputed on every call so that far-future lookups cannot
// grow memory without bound. The returned slice may be shared with other
// readers: callers read it and copy out any element they hand to a caller.
func (m *Model) transitionsForYear(year int) []ZonalTransition {
	if transitions, ok := m.cache.load(year); ok {
		return transitions
	}
	transitions := m.expandYear(year)
	if year <= m.lastCachedYear {
		transitions = m.cache.publish(year, transitions)
	}
	return transitions
}

// expandYear computes the transitions of one civil year. The previous
// offset of each transition follows from the predecessor within the annual
// cycle, wrapping from the cycle tail back to its head in the same year.
func (m *Model) expandYear(year int) []ZonalTransition {
	n := len(m.rules)
	stdOffset := m.initial.StandardOffset()
	transitions := make([]ZonalTransition, 0, n)

	for i := 0; i < n; i++ {
		rule := m.rules[i]
		previous := m.rules[(i-1+n)%n]
		shift := shiftFor(rule, stdOffset, previous.Savings)

		transitions = append(transitions, ZonalTransition{
			PosixTime:      transitionTime(rule, year, shift),
			PreviousOffset: stdOffset + previous.Savings,
			TotalOffset:    stdOffset + rule.Savings,
			Savings:        rule.Savings,
		})
	}

	return transitions
}

package tzmodel

import "fmt"

// ZonalTransition is an instant at which the total offset of a zone
// changes. Offsets are in seconds east of UT.
type ZonalTransition struct {
	// PosixTime is the transition instant in Unix seconds.
	PosixTime int64
	// PreviousOffset is the total offset in effect before the transition.
	PreviousOffset int
	// TotalOffset is the total offset in effect from the transition on.
	TotalOffset int
	// Savings is the daylight saving part of TotalOffset; zero when the
	// transition returns the zone to standard time.
	Savings int
}

// StandardOffset returns the base offset ignoring daylight saving.
func (t ZonalTransition) StandardOffset() int {
	return t.TotalOffset - t.Savings
}

// IsGap reports whether local wall-clock values are skipped at the
// transition, as when clocks spring forward.
func (t ZonalTransition) IsGap() bool {
	return t.TotalOffset > t.PreviousOffset
}

// IsOverlap reports whether local wall-clock values repeat at the
// transition, as when clocks fall back.
func (t ZonalTransition) IsOverlap() bool {
	return t.TotalOffset < t.PreviousOffset
}

func (t ZonalTransition) String() string {
	return fmt.Sprintf("transition at %d from %+ds to %+ds (dst %+ds)",
		t.PosixTime, t.PreviousOffset, t.TotalOffset, t.Savings)
}

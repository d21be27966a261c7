package tzrule

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"
)

// Rules travel in a compact binary proxy. The envelope is a single header
// octet whose top 5 bits carry a per-form type tag, followed by the rule
// fields in network octet order:
//
//	+--------+-------+------+---------+--------+-------------+-------+
//	| header | month | num  | weekday | at (4) | savings (4) | basis |
//	+--------+-------+------+---------+--------+-------------+-------+
//
// num is 0 for last-weekday selectors and weekday is 0xFF for fixed-day
// selectors.
const (
	tagDayNum    = 26
	tagDayLast   = 27
	tagDayAfter  = 28
	tagDayBefore = 29
)

const noWeekday = 0xFF

// NOTE: All multi-octet integer values MUST be stored in network octet
// order format (high-order octet first, otherwise known as big-endian).
var order = binary.BigEndian

// ErrMalformedStream reports binary input that does not carry a rule.
var ErrMalformedStream = errors.New("malformed rule stream")

func (f DayForm) tag() byte {
	switch f {
	case DayFormNum:
		return tagDayNum
	case DayFormLast:
		return tagDayLast
	case DayFormAfter:
		return tagDayAfter
	case DayFormBefore:
		return tagDayBefore
	}
	panic(fmt.Errorf("invalid DayForm: %q", f))
}

type ruleWire struct {
	Month   uint8
	Num     int8
	Weekday uint8
	At      int32
	Savings int32
	Basis   uint8
}

// Encode writes the rule's binary proxy to w.
func (r Rule) Encode(w io.Writer) error {
	wire := ruleWire{
		Month:   uint8(r.Month),
		Num:     int8(r.On.Num),
		Weekday: uint8(r.On.Weekday),
		At:      int32(r.At),
		Savings: int32(r.Savings),
		Basis:   uint8(r.Basis),
	}
	if r.On.Form == DayFormNum {
		wire.Weekday = noWeekday
	}
	if _, err := w.Write([]byte{r.On.Form.tag() << 3}); err != nil {
		return fmt.Errorf("write rule header: %w", err)
	}
	if err := binary.Write(w, order, wire); err != nil {
		return fmt.Errorf("write rule: %w", err)
	}
	return nil
}

// Decode reads one rule from its binary proxy. It is the only supported
// way to reconstruct a serialized rule; any other leading octet is
// refused with ErrMalformedStream.
func Decode(rd io.Reader) (Rule, error) {
	var header [1]byte
	if _, err := io.ReadFull(rd, header[:]); err != nil {
		return Rule{}, fmt.Errorf("read rule header: %w", errors.Join(ErrMalformedStream, err))
	}
	var form DayForm
	switch header[0] >> 3 {
	case tagDayNum:
		form = DayFormNum
	case tagDayLast:
		form = DayFormLast
	case tagDayAfter:
		form = DayFormAfter
	case tagDayBefore:
		form = DayFormBefore
	default:
		return Rule{}, fmt.Errorf("%w: unknown rule tag %d", ErrMalformedStream, header[0]>>3)
	}

	var wire ruleWire
	if err := binary.Read(rd, order, &wire); err != nil {
		return Rule{}, fmt.Errorf("read rule: %w", errors.Join(ErrMalformedStream, err))
	}

	r := Rule{
		Month: time.Month(wire.Month),
		On: Day{
			Form:    form,
			Num:     int(wire.Num),
			Weekday: time.Weekday(wire.Weekday),
		},
		At:      int(wire.At),
		Basis:   Basis(wire.Basis),
		Savings: int(wire.Savings),
	}
	if form == DayFormNum {
		if wire.Weekday != noWeekday {
			return Rule{}, fmt.Errorf("%w: weekday on fixed-day rule", ErrMalformedStream)
		}
		r.On.Weekday = 0
	} else if wire.Weekday > 6 {
		return Rule{}, fmt.Errorf("%w: invalid weekday %d", ErrMalformedStream, wire.Weekday)
	}
	if r.Month < time.January || r.Month > time.December {
		return Rule{}, fmt.Errorf("%w: invalid month %d", ErrMalformedStream, wire.Month)
	}
	switch form {
	case DayFormNum, DayFormAfter, DayFormBefore:
		if r.On.Num < 1 || r.On.Num > 31 {
			return Rule{}, fmt.Errorf("%w: invalid day %d", ErrMalformedStream, r.On.Num)
		}
	case DayFormLast:
		if r.On.Num != 0 {
			return Rule{}, fmt.Errorf("%w: day on last-weekday rule", ErrMalformedStream)
		}
	}
	if r.Basis > UniversalTime {
		return Rule{}, fmt.Errorf("%w: invalid basis %d", ErrMalformedStream, wire.Basis)
	}
	return r, nil
}

package tzmodel

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/ngrash/go-tzmodel/tzrule"
)

// The model travels in a compact binary proxy. The envelope is a single
// header octet whose top 5 bits carry the model type tag, followed by the
// payload in network octet order:
//
//	+--------+----------------+----------+----------+-------------+
//	| header | posix time (8) | prev (4) | total(4) | savings (4) |
//	+--------+----------------+----------+----------+-------------+
//	| rule count (1) | rules, each through the tzrule proxy ...   |
//	+-------------------------------------------------------------+
//
// An unbounded model writes math.MinInt64 as its posix time.
const modelTag = 25

var order = binary.BigEndian

// ErrMalformedStream reports binary input that does not carry a model.
var ErrMalformedStream = errors.New("malformed model stream")

type initialWire struct {
	PosixTime      int64
	PreviousOffset int32
	TotalOffset    int32
	Savings        int32
}

// Encode writes the model's binary proxy to w. Only the initial transition
// and the rules travel; the preview and the cache are reconstructed on
// decode.
func (m *Model) Encode(w io.Writer) error {
	if _, err := w.Write([]byte{modelTag << 3}); err != nil {
		return fmt.Errorf("write model header: %w", err)
	}
	wire := initialWire{
		PosixTime:      m.initial.PosixTime,
		PreviousOffset: int32(m.initial.PreviousOffset),
		TotalOffset:    int32(m.initial.TotalOffset),
		Savings:        int32(m.initial.Savings),
	}
	if err := binary.Write(w, order, wire); err != nil {
		return fmt.Errorf("write initial transition: %w", err)
	}
	if _, err := w.Write([]byte{byte(len(m.rules))}); err != nil {
		return fmt.Errorf("write rule count: %w", err)
	}
	for i, r := range m.rules {
		if err := r.Encode(w); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
	}
	return nil
}

// Decode reads a model from its binary proxy and reconstructs it through
// the regular constructors, revalidating the invariants. It is the only
// supported way to deserialize a model; a stream not starting with the
// model tag is refused with ErrMalformedStream.
func Decode(r io.Reader, opts ...Option) (*Model, error) {
	var header [1]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("read model header: %w", errors.Join(ErrMalformedStream, err))
	}
	if header[0]>>3 != modelTag {
		return nil, fmt.Errorf("%w: unknown model tag %d", ErrMalformedStream, header[0]>>3)
	}

	var wire initialWire
	if err := binary.Read(r, order, &wire); err != nil {
		return nil, fmt.Errorf("read initial transition: %w", errors.Join(ErrMalformedStream, err))
	}

	var count [1]byte
	if _, err := io.ReadFull(r, count[:]); err != nil {
		return nil, fmt.Errorf("read rule count: %w", errors.Join(ErrMalformedStream, err))
	}
	rules := make([]tzrule.Rule, 0, count[0])
	for i := 0; i < int(count[0]); i++ {
		rule, err := tzrule.Decode(r)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, errors.Join(ErrMalformedStream, err))
		}
		rules = append(rules, rule)
	}

	initial := ZonalTransition{
		PosixTime:      wire.PosixTime,
		PreviousOffset: int(wire.PreviousOffset),
		TotalOffset:    int(wire.TotalOffset),
		Savings:        int(wire.Savings),
	}
	return NewAt(initial, rules, opts...)
}

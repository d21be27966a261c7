package tzmodel

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestModelCodecRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		model *Model
	}{
		{"unbounded european pair", euModel(t)},
		{"unbounded us pair", usModel(t)},
		{"southern hemisphere", southModel(t)},
	}
	start := int64(946684800)
	bounded, err := NewAt(ZonalTransition{PosixTime: start, PreviousOffset: 3600, TotalOffset: 3600}, euRules(), WithClock(testNow))
	if err != nil {
		t.Fatal(err)
	}
	cases = append(cases, struct {
		name  string
		model *Model
	}{"bounded era", bounded})

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := c.model.Encode(&buf); err != nil {
				t.Fatalf("Encode: %v", err)
			}
			got, err := Decode(&buf, WithClock(testNow))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !c.model.Equal(got) {
				t.Error("decoded model not Equal to original")
			}
			if diff := cmp.Diff(c.model.Rules(), got.Rules()); diff != "" {
				t.Errorf("rules mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(c.model.StdTransitions(), got.StdTransitions()); diff != "" {
				t.Errorf("std transitions mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	var buf bytes.Buffer
	if err := euModel(t).Encode(&buf); err != nil {
		t.Fatal(err)
	}
	valid := buf.Bytes()

	cases := []struct {
		name string
		data []byte
	}{
		{"empty stream", nil},
		{"not a model tag", append([]byte{0x00}, valid[1:]...)},
		{"rule tag instead of model tag", append([]byte{26 << 3}, valid[1:]...)},
		{"truncated initial transition", valid[:10]},
		{"truncated rule list", valid[:len(valid)-3]},
		{"rule count beyond payload", func() []byte {
			data := bytes.Clone(valid)
			data[21]++ // one more rule than the stream carries
			return data
		}()},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(c.data), WithClock(testNow))
			if !errors.Is(err, ErrMalformedStream) {
				t.Errorf("Decode = %v, want ErrMalformedStream", err)
			}
		})
	}
}

// A decoded stream still passes construction validation: a model envelope
// carrying a broken rule set is rejected like any other construction.
func TestDecodeRevalidates(t *testing.T) {
	var buf bytes.Buffer
	if err := euModel(t).Encode(&buf); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()
	data[21] = 1          // rule count 1
	data = data[:21+1+13] // keep a single serialized rule

	_, err := Decode(bytes.NewReader(data), WithClock(testNow))
	if !errors.Is(err, ErrInvalidRules) {
		t.Errorf("Decode = %v, want ErrInvalidRules", err)
	}
}

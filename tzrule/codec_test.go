package tzrule

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestCodecRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		rule Rule
	}{
		{
			name: "fixed day",
			rule: Rule{Month: time.March, On: NewDayNum(30), At: 2 * 3600, Basis: WallClock, Savings: 3600},
		},
		{
			name: "last weekday",
			rule: Rule{Month: time.October, On: NewDayLast(time.Sunday), At: 3600, Basis: UniversalTime},
		},
		{
			name: "weekday on or after",
			rule: Rule{Month: time.March, On: NewDayAfter(8, time.Sunday), At: 2 * 3600, Basis: StandardTime, Savings: 1800},
		},
		{
			name: "weekday on or before",
			rule: Rule{Month: time.April, On: NewDayBefore(7, time.Saturday), At: 24 * 3600, Basis: WallClock},
		},
		{
			name: "negative time of day",
			rule: Rule{Month: time.October, On: NewDayLast(time.Sunday), At: -3600, Basis: WallClock},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := c.rule.Encode(&buf); err != nil {
				t.Fatalf("Encode: %v", err)
			}
			got, err := Decode(&buf)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if diff := cmp.Diff(c.rule, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
			if buf.Len() != 0 {
				t.Errorf("%d unread bytes after decode", buf.Len())
			}
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	encode := func(r Rule) []byte {
		var buf bytes.Buffer
		if err := r.Encode(&buf); err != nil {
			t.Fatal(err)
		}
		return buf.Bytes()
	}
	valid := encode(Rule{Month: time.March, On: NewDayLast(time.Sunday), At: 3600, Basis: UniversalTime})

	mutate := func(i int, b byte) []byte {
		data := bytes.Clone(valid)
		data[i] = b
		return data
	}

	cases := []struct {
		name string
		data []byte
	}{
		{"empty stream", nil},
		{"unknown tag", mutate(0, 0)},
		{"model tag instead of rule tag", mutate(0, 25<<3)},
		{"truncated payload", valid[:len(valid)-2]},
		{"month zero", mutate(1, 0)},
		{"month thirteen", mutate(1, 13)},
		{"day on last-weekday rule", mutate(2, 5)},
		{"invalid weekday", mutate(3, 7)},
		{"invalid basis", mutate(len(valid)-1, 3)},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(c.data))
			if !errors.Is(err, ErrMalformedStream) {
				t.Errorf("Decode = %v, want ErrMalformedStream", err)
			}
		})
	}
}

package main

import "testing"

func TestParseTitleID(t *testing.T) {
	cases := map[string]uint64{
		"0004000000123500":   0x0004000000123500,
		"0x0004000000123500": 0x0004000000123500,
		" 40000001235 ":      0x0000040000001235,
	}
	for input, want := range cases {
		got, err := parseTitleID(input)
		if err != nil || got != want {
			t.Errorf("parseTitleID(%q) = %x, %v; want %x", input, got, err, want)
		}
	}
	for _, input := range []string{"", "0x", "xyz", "00040000001235000"} {
		if _, err := parseTitleID(input); err == nil {
			t.Errorf("parseTitleID(%q) should fail", input)
		}
	}
}

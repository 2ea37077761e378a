package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0", "0", true},
		{"0.00", "0", true},
		{" 2.50 ", "2.5", true},
		{"100.00", "100", true},
		{"-1", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
		{"1e3", "1000", true}, // scientific notation still parses as a finite decimal
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestParsePositiveAmountRejectsZero(t *testing.T) {
	if _, err := ParsePositiveAmount("0"); err == nil {
		t.Fatal("expected error for zero amount")
	}
	if _, err := ParsePositiveAmount("0.00"); err == nil {
		t.Fatal("expected error for zero amount")
	}
	got, err := ParsePositiveAmount("40.00")
	if err != nil || got.String() != "40" {
		t.Fatalf("expected 40, got %s (err=%v)", got, err)
	}
}

package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{" 2.50 ", "2.5", true},
		{"-1", "", false},
		{"0", "", false},
		{"0.00", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
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

func TestNormalizeAmountInput(t *testing.T) {
	cases := map[string]string{
		"12.5": "12.5",
		"3":    "3",
		"0":    "0",
		"-4":   "0",
		"abc":  "0",
		"":     "0",
	}
	for in, want := range cases {
		if got := NormalizeAmountInput(in); got != want {
			t.Fatalf("NormalizeAmountInput(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTotalAvoidsFloatDrift(t *testing.T) {
	records := []Record{{Amount: 0.1}, {Amount: 0.2}}
	if got := Total(records); got != 0.3 {
		t.Fatalf("Total = %v, want 0.3", got)
	}
}

package models

import "testing"

func TestParseObligationKind(t *testing.T) {
	cases := []struct {
		in   string
		want ObligationKind
		ok   bool
	}{
		{"Payable", ObligationKindPayable, true},
		{"Receivable", ObligationKindReceivable, true},
		{"Bill", ObligationKindBill, true},
		{"payable", "", false},
		{"Invoice", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, err := ParseObligationKind(c.in)
		if c.ok && (err != nil || got != c.want) {
			t.Errorf("ParseObligationKind(%q) = %q, %v; want %q", c.in, got, err, c.want)
		}
		if !c.ok && err == nil {
			t.Errorf("ParseObligationKind(%q) accepted, want error", c.in)
		}
	}
}
